// Package config holds the board profiles compiled into the image and turns
// them into validated board configurations.
package config

import (
	"bytes"
	"embed"
	"errors"
	"io"
	"path"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"bsp-stm32f4/board"
	"bsp-stm32f4/errcode"
)

//go:embed profiles/*.yaml
var embedded embed.FS

const profileDir = "profiles"

// EmbeddedProfileLookup allows overriding how profiles are resolved.
var EmbeddedProfileLookup = func(name string) ([]byte, bool) {
	b, err := embedded.ReadFile(path.Join(profileDir, name+".yaml"))
	if err != nil {
		return nil, false
	}
	return b, true
}

// Names lists the embedded profiles.
func Names() []string {
	ents, _ := embedded.ReadDir(profileDir)
	var out []string
	for _, e := range ents {
		if n, ok := strings.CutSuffix(e.Name(), ".yaml"); ok {
			out = append(out, n)
		}
	}
	sort.Strings(out)
	return out
}

// Profile is the on-disk form of a board configuration.
type Profile struct {
	Name    string `yaml:"name"`
	ExtSRAM struct {
		Enabled bool   `yaml:"enabled"`
		Begin   uint64 `yaml:"begin"`
		End     uint64 `yaml:"end"`
	} `yaml:"ext_sram"`
	SRAMKB  uint32 `yaml:"sram_kb"`
	UARTs   []int  `yaml:"uarts"`
	Console int    `yaml:"console"` // 0 follows the single enabled USART
}

// Decode parses one YAML profile. Unknown keys are rejected.
func Decode(raw []byte) (Profile, error) {
	var p Profile
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		if errors.Is(err, io.EOF) {
			err = errors.New("empty profile")
		}
		return Profile{}, errcode.Wrap(errcode.InvalidProfile, "config.Decode", err)
	}
	return p, nil
}

// Config converts p and validates the result.
func (p Profile) Config() (board.Config, error) {
	c := board.Config{
		Name:       p.Name,
		ExtSRAM:    p.ExtSRAM.Enabled,
		SRAMSizeKB: p.SRAMKB,
	}
	if p.ExtSRAM.Begin > 0xFFFFFFFF || p.ExtSRAM.End > 0xFFFFFFFF {
		return c, &errcode.E{C: errcode.InvalidExtSRAMRange, Op: p.Name, Msg: "address beyond 32 bits"}
	}
	c.ExtSRAMRange = board.MemoryRange{Begin: uintptr(p.ExtSRAM.Begin), End: uintptr(p.ExtSRAM.End)}

	for _, n := range p.UARTs {
		if n < 1 || n > 3 {
			return c, &errcode.E{C: errcode.UARTMismatch, Op: p.Name, Msg: "no usart" + strconv.Itoa(n)}
		}
		c.UARTs |= board.UARTFor(board.ConsoleChannel(n))
	}

	switch {
	case p.Console == 0:
		ch, err := board.SelectConsole(c.UARTs)
		if err != nil {
			return c, err
		}
		c.Console = ch
	case p.Console < 0 || p.Console > 3:
		return c, &errcode.E{C: errcode.InvalidConsole, Op: p.Name, Msg: "console " + strconv.Itoa(p.Console)}
	default:
		c.Console = board.ConsoleChannel(p.Console)
	}

	if err := c.Validate(); err != nil {
		return c, errcode.Wrap(errcode.InvalidProfile, p.Name, err)
	}
	return c, nil
}

// Parse decodes and validates raw.
func Parse(raw []byte) (board.Config, error) {
	p, err := Decode(raw)
	if err != nil {
		return board.Config{}, err
	}
	return p.Config()
}

// Load resolves an embedded profile by name.
func Load(name string) (board.Config, error) {
	raw, ok := EmbeddedProfileLookup(name)
	if !ok || len(raw) == 0 {
		return board.Config{}, &errcode.E{C: errcode.UnknownBoard, Op: "config.Load", Msg: name}
	}
	return Parse(raw)
}
