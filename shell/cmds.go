package shell

import (
	"errors"
	"fmt"
	"io"
	"runtime"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/hako/durafmt"

	"bsp-stm32f4/board"
	"bsp-stm32f4/tick"
	"bsp-stm32f4/x/conv"
	"bsp-stm32f4/x/timex"
)

var (
	errNoBoard     = errors.New("board not initialised")
	errNoHeartbeat = errors.New("heartbeat service not running")
)

func init() {
	Add(Cmd{
		Name: "help",
		Help: "this help",
		Fn:   helpCmd,
	})

	Add(Cmd{
		Name: "exit",
		Help: "close session",
		Fn:   exitCmd,
	})

	Add(Cmd{
		Name: "version",
		Help: "runtime version",
		Fn:   versionCmd,
	})

	Add(Cmd{
		Name: "board",
		Help: "board configuration",
		Fn:   boardCmd,
	})

	Add(Cmd{
		Name: "mem",
		Help: "memory layout",
		Fn:   memCmd,
	})

	Add(Cmd{
		Name: "tick",
		Help: "tick counters",
		Fn:   tickCmd,
	})

	Add(Cmd{
		Name: "uptime",
		Help: "time since boot",
		Fn:   uptimeCmd,
	})

	Add(Cmd{
		Name:    "heartbeat",
		Syntax:  "(interval)?",
		Help:    "show/set heartbeat interval, e.g. 500ms",
		MaxArgs: 1,
		Fn:      heartbeatCmd,
	})
}

func helpCmd(iface *Interface, _ []string) (string, error) {
	return iface.Help(), nil
}

func exitCmd(_ *Interface, _ []string) (string, error) {
	return "bye", io.EOF
}

func versionCmd(_ *Interface, _ []string) (string, error) {
	return fmt.Sprintf("%s %s/%s", runtime.Version(), runtime.GOOS, runtime.GOARCH), nil
}

func region(name string, r board.MemoryRange) string {
	return fmt.Sprintf("%-9s %s-%s %s", name, conv.Hex32(uint32(r.Begin)), conv.Hex32(uint32(r.End)), humanize.IBytes(uint64(r.Size())))
}

func boardCmd(iface *Interface, _ []string) (string, error) {
	if iface.Board == nil {
		return "", errNoBoard
	}
	c := iface.Board.Config()

	var uarts []string
	for _, ch := range c.UARTs.Channels() {
		uarts = append(uarts, ch.String())
	}
	ext := "off"
	if c.ExtSRAM {
		ext = "on"
	}
	return fmt.Sprintf("board    %s\nconsole  %s\nuarts    %s\next sram %s\nsram     %d KB",
		c.Name, c.Console, strings.Join(uarts, ","), ext, c.SRAMSizeKB), nil
}

func memCmd(iface *Interface, _ []string) (string, error) {
	if iface.Board == nil {
		return "", errNoBoard
	}
	c := iface.Board.Config()

	res := []string{region("sram", c.SRAM())}
	if c.ExtSRAM {
		res = append(res, region("ext sram", c.ExtSRAMRange))
	}
	res = append(res, region("heap", iface.Board.Heap()))
	return strings.Join(res, "\n"), nil
}

func ticks(iface *Interface) (*tick.Source, error) {
	ts := iface.Ticks
	if ts == nil {
		ts = tick.System
	}
	return ts, ts.MustRunning()
}

func tickCmd(iface *Interface, _ []string) (string, error) {
	ts, err := ticks(iface)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("ms %d\nus %d", ts.Millis(), ts.Micros()), nil
}

func uptimeCmd(iface *Interface, _ []string) (string, error) {
	ts, err := ticks(iface)
	if err != nil {
		return "", err
	}
	return durafmt.Parse(timex.Millis(ts.Millis())).String(), nil
}

func heartbeatCmd(iface *Interface, args []string) (string, error) {
	if iface.Heartbeat == nil {
		return "", errNoHeartbeat
	}
	if len(args) == 0 {
		return iface.Heartbeat.Interval().String(), nil
	}
	d, err := time.ParseDuration(args[0])
	if err != nil {
		return "", err
	}
	return iface.Heartbeat.SetInterval(d).String(), nil
}
