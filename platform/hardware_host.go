// platform/hardware_host.go
//go:build !stm32f4

package platform

import (
	"bytes"
	"errors"
	"io"
	"os"
	"sync"
	"time"

	"tinygo.org/x/drivers"

	"bsp-stm32f4/board"
	"bsp-stm32f4/tick"
	"bsp-stm32f4/x/ring"
	"bsp-stm32f4/x/timex"
)

// Bring-up steps as recorded by HostHardware.
const (
	OpClocks    = "clocks"
	OpExtMem    = "ext_mem"
	OpTickTimer = "tick_timer"
	OpUART      = "uart"
)

// HostCoreHz is the simulated core clock.
const HostCoreHz = 168_000_000

// Call is one recorded bring-up step.
type Call struct {
	Op  string
	Arg any // board.MemoryRange, uint32 (Hz) or board.ConsoleChannel
}

// HostHardware implements board.Hardware on the host. It records every step
// and can be told to fail one.
type HostHardware struct {
	mu    sync.Mutex
	calls []Call

	// Fail maps an Op to the error its step returns.
	Fail map[string]error
	// RealTime drives the tick interrupt from a wall-clock ticker.
	RealTime bool
	// In feeds console input; Out mirrors console output. Both optional.
	In  io.Reader
	Out io.Writer

	SysTick *HostSysTick
	UARTs   map[board.ConsoleChannel]*HostUART

	stop chan struct{}
}

// NewHostHardware returns inert host hardware; tests drive the tick by hand.
func NewHostHardware() *HostHardware {
	return &HostHardware{
		Fail:  make(map[string]error),
		UARTs: make(map[board.ConsoleChannel]*HostUART),
	}
}

func (h *HostHardware) record(op string, arg any) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls = append(h.calls, Call{Op: op, Arg: arg})
	return h.Fail[op]
}

// Calls returns a copy of the recorded steps.
func (h *HostHardware) Calls() []Call {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Call(nil), h.calls...)
}

func (h *HostHardware) ConfigureClocks() error { return h.record(OpClocks, uint32(HostCoreHz)) }

func (h *HostHardware) ConfigureExternalMemory(r board.MemoryRange) error {
	if !r.Valid() {
		return errors.New("bad_range")
	}
	return h.record(OpExtMem, r)
}

func (h *HostHardware) StartTickTimer(hz uint32, isr func()) (tick.SubCounter, error) {
	if err := h.record(OpTickTimer, hz); err != nil {
		return nil, err
	}
	st := NewHostSysTick(timex.ReloadFor(HostCoreHz, hz), isr)
	h.mu.Lock()
	h.SysTick = st
	h.mu.Unlock()
	if h.RealTime {
		h.stop = make(chan struct{})
		go st.run(timex.PeriodFromHz(hz), h.stop)
	}
	return st, nil
}

func (h *HostHardware) InitUART(ch board.ConsoleChannel) (drivers.UART, error) {
	if err := h.record(OpUART, ch); err != nil {
		return nil, err
	}
	u := newHostUART(ch, h.Out)
	if h.In != nil {
		go u.feed(h.In)
	}
	h.mu.Lock()
	h.UARTs[ch] = u
	h.mu.Unlock()
	return u, nil
}

// HeapStart is a fixed offset standing in for the image's static data.
func (h *HostHardware) HeapStart() uintptr { return board.SRAMBase + 0x2000 }

// Stop ends the real-time tick goroutine.
func (h *HostHardware) Stop() {
	if h.stop != nil {
		close(h.stop)
		h.stop = nil
	}
}

// ----------------------------- SysTick (host) --------------------------------

// HostSysTick models the Cortex-M SysTick down-counter: it counts from
// reload to 0 and reloads, raising the interrupt pending at the reload. The
// pending flag clears once the ISR has run. While masked, the interrupt stays
// pending and is taken on unmask.
//
// As with an exception on the core, readers never observe the ISR half done:
// Elapsed waits while the ISR runs. The ISR must not call back into the
// counter.
type HostSysTick struct {
	mu        sync.Mutex
	idle      *sync.Cond
	reload    uint32
	val       uint32
	pending   bool
	masked    bool
	servicing bool
	isr       func()
}

// NewHostSysTick returns a counter loaded with reload.
func NewHostSysTick(reload uint32, isr func()) *HostSysTick {
	s := &HostSysTick{reload: reload, val: reload, isr: isr}
	s.idle = sync.NewCond(&s.mu)
	return s
}

// service runs the ISR for the pending interrupt. Called and returns with
// s.mu held.
func (s *HostSysTick) service() {
	s.servicing = true
	s.mu.Unlock()
	if s.isr != nil {
		s.isr()
	}
	s.mu.Lock()
	s.pending = false
	s.servicing = false
	s.idle.Broadcast()
}

// Advance runs the counter n ticks, taking the interrupt at each wrap
// unless masked.
func (s *HostSysTick) Advance(n uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for n > 0 {
		for s.servicing {
			s.idle.Wait()
		}
		if n <= s.val {
			s.val -= n
			return
		}
		n -= s.val + 1
		s.val = s.reload
		s.pending = true
		if !s.masked {
			s.service()
		}
	}
}

// Mask holds the interrupt pending; unmasking takes a pending one.
func (s *HostSysTick) Mask(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for s.servicing {
		s.idle.Wait()
	}
	s.masked = on
	if !on && s.pending {
		s.service()
	}
}

// Elapsed implements tick.SubCounter.
func (s *HostSysTick) Elapsed() (uint32, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for s.servicing {
		s.idle.Wait()
	}
	return s.reload - s.val, s.pending
}

// TicksPerMilli implements tick.SubCounter.
func (s *HostSysTick) TicksPerMilli() uint32 { return s.reload + 1 }

func (s *HostSysTick) run(period time.Duration, stop <-chan struct{}) {
	t := time.NewTicker(period)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C:
			s.Advance(s.reload + 1)
		}
	}
}

// ----------------------------- UART (host) -----------------------------------

// RxFIFO is the host USART receive FIFO size.
const RxFIFO = 256

// HostUART implements drivers.UART over an in-memory receive FIFO.
type HostUART struct {
	Channel board.ConsoleChannel

	rx *ring.Ring

	mu  sync.Mutex
	tx  bytes.Buffer
	out io.Writer
}

func newHostUART(ch board.ConsoleChannel, out io.Writer) *HostUART {
	return &HostUART{Channel: ch, rx: ring.New(RxFIFO), out: out}
}

// Inject queues bytes as if received on the line. Bytes beyond the FIFO are
// dropped as an overrun.
func (u *HostUART) Inject(b []byte) int { return u.rx.Put(b) }

// Overruns counts bytes dropped on receive.
func (u *HostUART) Overruns() uint32 { return u.rx.Dropped() }

// Transmitted returns everything written so far.
func (u *HostUART) Transmitted() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.tx.String()
}

func (u *HostUART) Write(p []byte) (int, error) {
	u.mu.Lock()
	u.tx.Write(p)
	out := u.out
	u.mu.Unlock()
	if out != nil {
		return out.Write(p)
	}
	return len(p), nil
}

func (u *HostUART) Buffered() int { return u.rx.Buffered() }

func (u *HostUART) Read(p []byte) (int, error) { return u.rx.Read(p) }

// feed copies r into the FIFO, waiting for room rather than overrunning.
func (u *HostUART) feed(r io.Reader) {
	buf := make([]byte, 64)
	for {
		n, err := r.Read(buf)
		for p := buf[:n]; len(p) > 0; {
			if u.rx.Space() == 0 {
				time.Sleep(time.Millisecond)
				continue
			}
			p = p[u.rx.Put(p[:min(len(p), u.rx.Space())]):]
		}
		if err != nil {
			return
		}
	}
}

// Default returns the hardware used by the firmware entry point: a
// real-time host board whose console is the process's stdin and stdout.
func Default() board.Hardware {
	h := NewHostHardware()
	h.RealTime = true
	h.In = os.Stdin
	h.Out = os.Stdout
	return h
}
