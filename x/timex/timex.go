package timex

import (
	"time"

	"bsp-stm32f4/x/mathx"
)

// PeriodFromHz returns the period for a requested frequency.
// freqHz==0 is coerced to 1 to avoid division by zero.
func PeriodFromHz(freqHz uint32) time.Duration {
	if freqHz == 0 {
		freqHz = 1
	}
	return time.Duration(1_000_000_000 / uint64(freqHz))
}

// ReloadFor returns the down-counter reload value that makes a timer clocked
// at coreHz expire tickHz times per second. The counter counts reload..0, so
// the period is reload+1 cycles.
func ReloadFor(coreHz, tickHz uint32) uint32 {
	n := mathx.RoundDiv(coreHz, mathx.Clamp(tickHz, 1, coreHz))
	if n == 0 {
		return 0
	}
	return n - 1
}

// Millis converts a millisecond count to a Duration.
func Millis(ms uint32) time.Duration { return time.Duration(ms) * time.Millisecond }
