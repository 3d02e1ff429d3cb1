package traffic

import (
	"context"
	"time"

	"github.com/lixenwraith/vi-traffic/parameter"
)

// Run steps the simulation at a fixed interval until ctx is done
// Deadlines advance by interval so the step rate does not drift with scheduling jitter
// After a stall at most MaxCatchUpSteps steps run back to back, older debt is dropped
// onStep, if set, runs after every paced batch outside the simulation lock
func (s *Sim) Run(ctx context.Context, interval time.Duration, onStep func()) error {
	if interval <= 0 {
		interval = parameter.FixedStep
	}
	dt := interval.Seconds()

	nextTickDeadline := time.Now().Add(interval)
	timer := time.NewTimer(interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}

		now := time.Now()
		steps := 0
		for !nextTickDeadline.After(now) && steps < parameter.MaxCatchUpSteps {
			if !s.Paused() {
				s.Step(dt)
			}
			nextTickDeadline = nextTickDeadline.Add(interval)
			steps++
		}

		// Reset if too far behind
		if now.Sub(nextTickDeadline) > 2*interval {
			s.log.Debug().Dur("behind", now.Sub(nextTickDeadline)).Msg("step loop reset after stall")
			nextTickDeadline = now.Add(interval)
		}

		if onStep != nil && steps > 0 {
			onStep()
		}

		wait := time.Until(nextTickDeadline)
		if wait < 0 {
			wait = 0
		}
		timer.Reset(wait)
	}
}

// RunHeadless executes n unpaced steps of dt, stopping early when ctx is done
func (s *Sim) RunHeadless(ctx context.Context, n int, dt float64) error {
	for i := 0; i < n; i++ {
		if i%256 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		s.Step(dt)
	}
	return nil
}
