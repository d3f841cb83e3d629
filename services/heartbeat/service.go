package heartbeat

import (
	"context"
	"log"
	"sync/atomic"
	"time"

	"bsp-stm32f4/tick"
	"bsp-stm32f4/x/mathx"
)

// Interval bounds.
const (
	MinInterval     = 10 * time.Millisecond
	MaxInterval     = time.Hour
	DefaultInterval = time.Second
)

// Service logs a heartbeat with the tick source's uptime.
type Service struct {
	ticks    *tick.Source
	logger   *log.Logger
	interval atomic.Int64
	reset    chan time.Duration
	beats    atomic.Uint32
}

// New returns a stopped service. A nil logger uses the standard logger,
// which board bring-up points at the console.
func New(ts *tick.Source, interval time.Duration, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Default()
	}
	s := &Service{ticks: ts, logger: logger, reset: make(chan time.Duration, 1)}
	s.interval.Store(int64(clampInterval(interval)))
	return s
}

func clampInterval(d time.Duration) time.Duration {
	if d == 0 {
		return DefaultInterval
	}
	return mathx.Clamp(d, MinInterval, MaxInterval)
}

// Interval is the current period.
func (s *Service) Interval() time.Duration { return time.Duration(s.interval.Load()) }

// Beats counts heartbeats logged so far.
func (s *Service) Beats() uint32 { return s.beats.Load() }

// SetInterval changes the period, clamped to [MinInterval, MaxInterval].
// It returns the period applied.
func (s *Service) SetInterval(d time.Duration) time.Duration {
	d = clampInterval(d)
	s.interval.Store(int64(d))
	// The loop reads the stored interval, so one queued reset is enough.
	select {
	case s.reset <- d:
	default:
	}
	return d
}

func (s *Service) serviceLoop(ctx context.Context) {
	t := time.NewTicker(s.Interval())
	defer t.Stop()

	// loop until context is cancelled, respond to tick and interval changes
	for {
		select {
		case <-ctx.Done():
			s.logger.Println("Info: heartbeat service stopping")
			return
		case <-t.C:
			n := s.beats.Add(1)
			s.logger.Println("Info:", s.ticks.Millis(), "ms Heartbeat", n)
		case <-s.reset:
			d := s.Interval()
			t.Reset(d)
			s.logger.Println("Info: heartbeat interval set to", d)
		}
	}
}

// Start the heartbeat service.
func (s *Service) Start(ctx context.Context) error {
	if err := s.ticks.MustRunning(); err != nil {
		return err
	}
	go s.serviceLoop(ctx)
	return nil
}
