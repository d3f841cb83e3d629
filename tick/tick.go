// Package tick keeps time since boot for the kernel.
//
// A periodic timer interrupt (SysTick on the STM32F4) calls Source.Handler
// once per millisecond; that handler is the only writer of the counter.
// Readers on any context combine the millisecond count with the timer's
// free-running sub-counter to get microseconds without masking interrupts.
package tick

import (
	"sync/atomic"

	"bsp-stm32f4/errcode"
	"bsp-stm32f4/x/mathx"
)

// Hz is the tick interrupt rate.
const Hz = 1000

// SubCounter is the fast hardware counter that divides one millisecond.
type SubCounter interface {
	// Elapsed returns the counter ticks since the last millisecond boundary.
	// wrapped reports a boundary the interrupt handler has not serviced yet,
	// in which case ticks was sampled after that boundary.
	Elapsed() (ticks uint32, wrapped bool)
	// TicksPerMilli is the number of counter ticks per millisecond.
	TicksPerMilli() uint32
}

// State of a Source.
type State uint32

const (
	Uninitialized State = iota
	Running
)

func (s State) String() string {
	if s == Running {
		return "running"
	}
	return "uninitialized"
}

// Source is the process-wide tick counter.
type Source struct {
	ms    atomic.Uint32
	state atomic.Uint32
	sub   SubCounter
}

// System is the tick source bound by board bring-up.
var System = new(Source)

// Start binds the hardware sub-counter and moves the source to Running.
// The timer is normally armed first, since it supplies the sub-counter;
// interrupts taken before Start still advance the counter.
func (s *Source) Start(sub SubCounter) error {
	if sub == nil || sub.TicksPerMilli() == 0 {
		return &errcode.E{C: errcode.TimerFailure, Op: "tick.Start", Msg: "no sub-counter"}
	}
	if State(s.state.Load()) == Running {
		return &errcode.E{C: errcode.AlreadyInitialised, Op: "tick.Start"}
	}
	s.sub = sub
	s.state.Store(uint32(Running))
	return nil
}

// Handler advances the millisecond counter. Install it as the timer ISR.
func (s *Source) Handler() {
	s.ms.Add(1)
}

// State reports the current state.
func (s *Source) State() State { return State(s.state.Load()) }

// Running reports whether the timer has been started.
func (s *Source) Running() bool { return s.State() == Running }

// Millis returns whole milliseconds since boot, wrapping at 2^32.
// It returns 0 before Start.
func (s *Source) Millis() uint32 {
	if !s.Running() {
		return 0
	}
	return s.ms.Load()
}

// Micros returns microseconds since boot, wrapping at 2^32.
// It returns 0 before Start.
func (s *Source) Micros() uint32 {
	if !s.Running() {
		return 0
	}
	tpm := s.sub.TicksPerMilli()
	for {
		ms := s.ms.Load()
		n, wrapped := s.sub.Elapsed()
		if s.ms.Load() != ms {
			// The handler ran between the two loads; n may belong to
			// either millisecond.
			continue
		}
		if wrapped {
			ms++
		}
		if n >= tpm {
			n = tpm - 1
		}
		return ms*1000 + mathx.MulDivU32(n, 1000, tpm)
	}
}

// MustRunning returns errcode.NotRunning before Start.
func (s *Source) MustRunning() error {
	if !s.Running() {
		return &errcode.E{C: errcode.NotRunning, Op: "tick"}
	}
	return nil
}

// SinceMillis returns the milliseconds elapsed from start to now, correct
// across one wrap of the counter.
func SinceMillis(start, now uint32) uint32 { return now - start }

// SinceMicros is SinceMillis for microsecond readings.
func SinceMicros(start, now uint32) uint32 { return now - start }

// Millis reads System.
func Millis() uint32 { return System.Millis() }

// Micros reads System.
func Micros() uint32 { return System.Micros() }
