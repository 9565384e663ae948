package core

import "time"

// FixedStep helps run simulation updates at a steady ticks-per-second rate.
type FixedStep struct {
	step        time.Duration
	accumulator time.Duration
	last        time.Time
	now         func() time.Time

	// MaxCatchUp bounds how many ticks Due reports after a stall.
	MaxCatchUp int
}

// NewFixedStep constructs a FixedStep controller targeting the given TPS.
func NewFixedStep(tps int) *FixedStep {
	return NewFixedStepClock(tps, time.Now)
}

// NewFixedStepClock is NewFixedStep with an explicit clock.
func NewFixedStepClock(tps int, now func() time.Time) *FixedStep {
	if now == nil {
		now = time.Now
	}
	fs := &FixedStep{now: now, MaxCatchUp: 4}
	fs.SetTPS(tps)
	fs.accumulator = fs.step
	return fs
}

// SetTPS changes the tick rate. It is safe to call from the main loop.
func (f *FixedStep) SetTPS(tps int) {
	if tps <= 0 {
		tps = 60
	}
	f.step = time.Second / time.Duration(tps)
}

// Due returns the number of ticks owed since the last call, capped at
// MaxCatchUp. Excess time beyond the cap is discarded.
func (f *FixedStep) Due() int {
	f.advance()
	n := 0
	for f.accumulator >= f.step {
		f.accumulator -= f.step
		n++
		if f.MaxCatchUp > 0 && n >= f.MaxCatchUp {
			f.accumulator = 0
			break
		}
	}
	return n
}

func (f *FixedStep) advance() {
	now := f.now()
	if f.last.IsZero() {
		f.last = now
	}
	f.accumulator += now.Sub(f.last)
	f.last = now
}
