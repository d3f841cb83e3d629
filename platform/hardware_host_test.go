//go:build !stm32f4

package platform

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"bsp-stm32f4/board"
	"bsp-stm32f4/tick"
)

func TestHostSysTick_WrapFiresISR(t *testing.T) {
	fired := 0
	st := NewHostSysTick(999, func() { fired++ })

	st.Advance(999)
	if n, w := st.Elapsed(); n != 999 || w {
		t.Fatalf("Elapsed = %d,%v", n, w)
	}
	st.Advance(1)
	if fired != 1 {
		t.Fatalf("fired = %d, want 1", fired)
	}
	if n, _ := st.Elapsed(); n != 0 {
		t.Fatalf("Elapsed after wrap = %d", n)
	}
	st.Advance(2500)
	if fired != 3 {
		t.Fatalf("fired = %d, want 3", fired)
	}
	if n, _ := st.Elapsed(); n != 500 {
		t.Fatalf("Elapsed = %d, want 500", n)
	}
}

func TestHostSysTick_MaskedWrapStaysPending(t *testing.T) {
	fired := 0
	st := NewHostSysTick(999, func() { fired++ })

	st.Mask(true)
	st.Advance(1003)
	if fired != 0 {
		t.Fatalf("fired while masked")
	}
	if n, w := st.Elapsed(); n != 3 || !w {
		t.Fatalf("Elapsed = %d,%v, want 3,true", n, w)
	}
	st.Mask(false)
	if fired != 1 {
		t.Fatalf("fired = %d after unmask", fired)
	}
	if _, w := st.Elapsed(); w {
		t.Fatal("pending not cleared")
	}
}

func TestHostSysTick_DrivesTickSource(t *testing.T) {
	src := new(tick.Source)
	st := NewHostSysTick(167_999, src.Handler)
	if err := src.Start(st); err != nil {
		t.Fatalf("Start: %v", err)
	}

	var last uint32
	for i := 0; i < 5000; i++ {
		st.Advance(16_800) // 100 µs
		now := src.Micros()
		if now < last {
			t.Fatalf("Micros regressed at step %d: %d -> %d", i, last, now)
		}
		last = now
	}
	if got := src.Millis(); got != 500 {
		t.Fatalf("Millis = %d, want 500", got)
	}
	if last != 500_000 {
		t.Fatalf("Micros = %d, want 500000", last)
	}

	// A wrap with the interrupt masked must not read backwards.
	st.Advance(167_000)
	before := src.Micros()
	st.Mask(true)
	st.Advance(2_000)
	during := src.Micros()
	st.Mask(false)
	after := src.Micros()
	if !(before <= during && during <= after) {
		t.Fatalf("masked wrap not monotonic: %d %d %d", before, during, after)
	}
}

func TestHostSysTick_ReaderNeverSeesISRHalfDone(t *testing.T) {
	for _, bumpFirst := range []bool{true, false} {
		src := new(tick.Source)
		entered := make(chan struct{})
		release := make(chan struct{})
		st := NewHostSysTick(999, func() {
			if bumpFirst {
				src.Handler()
			}
			close(entered)
			<-release
			if !bumpFirst {
				src.Handler()
			}
		})
		if err := src.Start(st); err != nil {
			t.Fatalf("Start: %v", err)
		}

		st.Advance(999)
		if got := src.Micros(); got != 999 {
			t.Fatalf("Micros before wrap = %d", got)
		}

		done := make(chan struct{})
		go func() {
			st.Advance(1)
			close(done)
		}()
		<-entered

		got := make(chan uint32, 1)
		go func() { got <- src.Micros() }()
		select {
		case v := <-got:
			t.Fatalf("bumpFirst=%v: read %d while the ISR was running", bumpFirst, v)
		case <-time.After(20 * time.Millisecond):
		}

		close(release)
		if v := <-got; v != 1000 {
			t.Fatalf("bumpFirst=%v: Micros across wrap = %d, want 1000", bumpFirst, v)
		}
		<-done
		if _, w := st.Elapsed(); w {
			t.Fatalf("bumpFirst=%v: pending left set after ISR", bumpFirst)
		}
	}
}

func TestHostHardware_RecordsAndFails(t *testing.T) {
	h := NewHostHardware()
	boom := errors.New("boom")
	h.Fail[OpClocks] = boom

	if err := h.ConfigureClocks(); !errors.Is(err, boom) {
		t.Fatalf("ConfigureClocks = %v", err)
	}
	if err := h.ConfigureExternalMemory(board.MemoryRange{Begin: 2, End: 1}); err == nil {
		t.Fatal("inverted range accepted")
	}
	u, err := h.InitUART(board.Console2)
	if err != nil {
		t.Fatalf("InitUART: %v", err)
	}
	if _, err := u.Write([]byte("hi")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if h.UARTs[board.Console2].Transmitted() != "hi" {
		t.Fatalf("tx = %q", h.UARTs[board.Console2].Transmitted())
	}

	calls := h.Calls()
	if len(calls) != 2 || calls[0].Op != OpClocks || calls[1].Op != OpUART || calls[1].Arg != board.Console2 {
		t.Fatalf("calls = %+v", calls)
	}
}

func TestHostUART_ReceiveFIFO(t *testing.T) {
	u := newHostUART(board.Console1, nil)

	if n := u.Inject(bytes.Repeat([]byte{'a'}, RxFIFO+10)); n != RxFIFO {
		t.Fatalf("Inject = %d", n)
	}
	if u.Buffered() != RxFIFO || u.Overruns() != 10 {
		t.Fatalf("buffered=%d overruns=%d", u.Buffered(), u.Overruns())
	}
	buf := make([]byte, RxFIFO)
	if n, _ := u.Read(buf); n != RxFIFO || u.Buffered() != 0 {
		t.Fatalf("Read = %d, buffered %d", n, u.Buffered())
	}
}

func TestHostUART_FeedWaitsForRoom(t *testing.T) {
	u := newHostUART(board.Console1, nil)
	in := strings.Repeat("0123456789", 60)
	go u.feed(strings.NewReader(in))

	var got []byte
	buf := make([]byte, 32)
	deadline := time.Now().Add(2 * time.Second)
	for len(got) < len(in) && time.Now().Before(deadline) {
		n, _ := u.Read(buf)
		got = append(got, buf[:n]...)
		if n == 0 {
			time.Sleep(time.Millisecond)
		}
	}
	if string(got) != in || u.Overruns() != 0 {
		t.Fatalf("got %d bytes, overruns %d", len(got), u.Overruns())
	}
}
