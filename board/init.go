package board

import (
	"log"
	"sync/atomic"

	"tinygo.org/x/drivers"

	"bsp-stm32f4/console"
	"bsp-stm32f4/errcode"
	"bsp-stm32f4/tick"
)

// Fault receives a bring-up failure. There is nothing below this layer to
// report to, so the default halts. Tests replace it to observe failures.
var Fault = func(err error) {
	panic(err)
}

var initialised atomic.Bool

// Board is the brought-up board.
type Board struct {
	cfg     Config
	ticks   *tick.Source
	console drivers.UART
	heap    MemoryRange
}

// Init brings the board up from cfg in a fixed order: core clocks, external
// memory (when enabled), the tick timer, then the console USART. It must run
// exactly once, before the scheduler starts. Any failure is passed to Fault
// and Init returns nil.
func Init(cfg Config, hw Hardware, ts *tick.Source) *Board {
	if !initialised.CompareAndSwap(false, true) {
		Fault(&errcode.E{C: errcode.AlreadyInitialised, Op: "board.Init"})
		return nil
	}
	if err := cfg.Validate(); err != nil {
		Fault(errcode.Wrap(errcode.InvalidProfile, "board.Init", err))
		return nil
	}

	b := &Board{cfg: cfg, ticks: ts}

	if err := hw.ConfigureClocks(); err != nil {
		Fault(errcode.Wrap(errcode.ClockFailure, "clocks", err))
		return nil
	}

	if cfg.ExtSRAM {
		if err := hw.ConfigureExternalMemory(cfg.ExtSRAMRange); err != nil {
			Fault(errcode.Wrap(errcode.ExtMemFailure, "ext_sram", err))
			return nil
		}
	}

	sub, err := hw.StartTickTimer(tick.Hz, ts.Handler)
	if err != nil {
		Fault(errcode.Wrap(errcode.TimerFailure, "tick", err))
		return nil
	}
	if err := ts.Start(sub); err != nil {
		Fault(err)
		return nil
	}

	u, err := hw.InitUART(cfg.Console)
	if err == nil && u == nil {
		err = console.ErrNotBound
	}
	if err != nil {
		Fault(errcode.Wrap(errcode.UARTFailure, cfg.Console.String(), err))
		return nil
	}
	b.console = u
	console.Bind(cfg.Console.String(), u)
	log.SetFlags(0)
	log.SetOutput(console.Default)

	// The heap takes external SRAM when present, otherwise the rest of
	// internal SRAM after the image.
	if cfg.ExtSRAM {
		b.heap = cfg.ExtSRAMRange
	} else {
		b.heap = MemoryRange{Begin: hw.HeapStart(), End: cfg.SRAMEnd() - 1}
	}

	log.Println("Info: board", cfg.Name, "up, console", cfg.Console)
	return b
}

// Config returns the configuration the board was brought up with.
func (b *Board) Config() Config { return b.cfg }

// Ticks returns the running tick source.
func (b *Board) Ticks() *tick.Source { return b.ticks }

// Console returns the console USART.
func (b *Board) Console() drivers.UART { return b.console }

// Heap is the region handed to the system allocator.
func (b *Board) Heap() MemoryRange { return b.heap }
