package heartbeat

import (
	"bytes"
	"context"
	"log"
	"strings"
	"sync"
	"testing"
	"time"

	"bsp-stm32f4/errcode"
	"bsp-stm32f4/tick"
)

type syncBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.String()
}

type nopSub struct{}

func (nopSub) Elapsed() (uint32, bool) { return 0, false }
func (nopSub) TicksPerMilli() uint32   { return 1000 }

func runningSource(t *testing.T) *tick.Source {
	t.Helper()
	ts := new(tick.Source)
	if err := ts.Start(nopSub{}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	return ts
}

func waitFor(t *testing.T, d time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestHeartbeat_RefusesStoppedTicks(t *testing.T) {
	s := New(new(tick.Source), time.Second, nil)
	if err := s.Start(context.Background()); errcode.Of(err) != errcode.NotRunning {
		t.Fatalf("Start = %v", err)
	}
}

func TestHeartbeat_LogsUptime(t *testing.T) {
	ts := runningSource(t)
	for i := 0; i < 1234; i++ {
		ts.Handler()
	}
	var out syncBuffer
	s := New(ts, MinInterval, log.New(&out, "", 0))

	ctx, cancel := context.WithCancel(context.Background())
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitFor(t, time.Second, func() bool { return s.Beats() >= 2 })
	cancel()
	waitFor(t, time.Second, func() bool { return strings.Contains(out.String(), "stopping") })

	if !strings.Contains(out.String(), "Info: 1234 ms Heartbeat 1\n") {
		t.Fatalf("log = %q", out.String())
	}
}

func TestHeartbeat_SetIntervalClamps(t *testing.T) {
	var out syncBuffer
	s := New(runningSource(t), 0, log.New(&out, "", 0))
	if s.Interval() != DefaultInterval {
		t.Fatalf("default interval = %v", s.Interval())
	}
	if got := s.SetInterval(time.Microsecond); got != MinInterval {
		t.Fatalf("SetInterval low = %v", got)
	}
	if got := s.SetInterval(48 * time.Hour); got != MaxInterval {
		t.Fatalf("SetInterval high = %v", got)
	}
	// Two resets before the loop runs must not block.
	s.SetInterval(20 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitFor(t, time.Second, func() bool {
		return strings.Contains(out.String(), "heartbeat interval set to 20ms")
	})
	waitFor(t, time.Second, func() bool { return s.Beats() >= 1 })
}

func TestHeartbeat_SetIntervalNeverBlocks(t *testing.T) {
	s := New(new(tick.Source), time.Second, nil)

	done := make(chan struct{})
	go func() {
		var wg sync.WaitGroup
		for i := 1; i <= 32; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				s.SetInterval(time.Duration(i) * 100 * time.Millisecond)
			}(i)
		}
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("SetInterval blocked without a running loop")
	}
	if d := s.Interval(); d < 100*time.Millisecond || d > 3200*time.Millisecond {
		t.Fatalf("Interval = %v", d)
	}
}
