// Package board describes the STM32F4 board and brings it up.
//
// The configuration is fixed at build time: a board profile file, selected
// by build tag, declares the layout as constants, and assert.go refuses to
// compile a profile that breaks an invariant. Config.Validate repeats the
// same checks for configurations assembled at run time (tools, tests).
package board

import (
	"errors"
	"strconv"

	"bsp-stm32f4/errcode"
	"bsp-stm32f4/x/mathx"
)

// Internal SRAM layout of the part.
const (
	SRAMBase  = 0x20000000
	MinSRAMKB = 8
	MaxSRAMKB = 128
)

// MemoryRange is an address window. End is the last usable address, so a
// window holds End-Begin+1 bytes.
type MemoryRange struct {
	Begin, End uintptr
}

// Valid reports Begin < End.
func (r MemoryRange) Valid() bool { return r.Begin < r.End }

// Size is the number of bytes in the window.
func (r MemoryRange) Size() uintptr {
	if !r.Valid() {
		return 0
	}
	return r.End - r.Begin + 1
}

// Limit is the first address past the window.
func (r MemoryRange) Limit() uintptr { return r.End + 1 }

// ConsoleChannel selects the USART bound as system console.
type ConsoleChannel uint8

const (
	ConsoleNone ConsoleChannel = iota
	Console1
	Console2
	Console3
)

func (c ConsoleChannel) String() string {
	switch c {
	case Console1:
		return "usart1"
	case Console2:
		return "usart2"
	case Console3:
		return "usart3"
	default:
		return "none"
	}
}

// Valid reports whether c names a USART.
func (c ConsoleChannel) Valid() bool { return c >= Console1 && c <= Console3 }

// UARTSet is the set of USART peripherals enabled on the board.
type UARTSet uint8

const (
	UART1 UARTSet = 1 << iota
	UART2
	UART3
)

// UARTFor returns the set holding only the peripheral behind ch.
func UARTFor(ch ConsoleChannel) UARTSet {
	if !ch.Valid() {
		return 0
	}
	return 1 << (ch - 1)
}

// Has reports whether the peripheral behind ch is enabled.
func (s UARTSet) Has(ch ConsoleChannel) bool {
	u := UARTFor(ch)
	return u != 0 && s&u == u
}

// Channels lists the enabled peripherals in order.
func (s UARTSet) Channels() []ConsoleChannel {
	var out []ConsoleChannel
	for ch := Console1; ch <= Console3; ch++ {
		if s.Has(ch) {
			out = append(out, ch)
		}
	}
	return out
}

// SelectConsole returns the console for a board that enables exactly one
// USART. Zero or several enabled peripherals are rejected.
func SelectConsole(s UARTSet) (ConsoleChannel, error) {
	chs := s.Channels()
	if len(chs) != 1 || s&^(UART1|UART2|UART3) != 0 {
		return ConsoleNone, &errcode.E{
			C:   errcode.InvalidConsole,
			Op:  "board.SelectConsole",
			Msg: strconv.Itoa(len(chs)) + " channels selected",
		}
	}
	return chs[0], nil
}

// Config is the board configuration record.
type Config struct {
	Name         string
	ExtSRAM      bool
	ExtSRAMRange MemoryRange // meaningful only when ExtSRAM
	SRAMSizeKB   uint32
	Console      ConsoleChannel
	UARTs        UARTSet
}

// SRAMEnd is the first address past internal SRAM.
func (c Config) SRAMEnd() uintptr {
	return SRAMBase + uintptr(c.SRAMSizeKB)*1024
}

// SRAM is the internal SRAM window.
func (c Config) SRAM() MemoryRange {
	return MemoryRange{Begin: SRAMBase, End: c.SRAMEnd() - 1}
}

// Validate reports every violated invariant, joined.
func (c Config) Validate() error {
	var errs []error
	if !mathx.Between(c.SRAMSizeKB, MinSRAMKB, MaxSRAMKB) {
		errs = append(errs, &errcode.E{
			C:   errcode.InvalidSRAMSize,
			Msg: strconv.FormatUint(uint64(c.SRAMSizeKB), 10) + " KB outside 8..128",
		})
	}
	if c.ExtSRAM && !c.ExtSRAMRange.Valid() {
		errs = append(errs, &errcode.E{
			C:   errcode.InvalidExtSRAMRange,
			Msg: "begin must be below end",
		})
	}
	if !c.Console.Valid() {
		errs = append(errs, &errcode.E{
			C:   errcode.InvalidConsole,
			Msg: "console " + c.Console.String(),
		})
	} else if c.UARTs != UARTFor(c.Console) {
		errs = append(errs, &errcode.E{
			C:   errcode.UARTMismatch,
			Msg: "only " + c.Console.String() + " may be enabled",
		})
	}
	return errors.Join(errs...)
}
