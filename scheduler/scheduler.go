// Package scheduler paces a render loop and a fixed-step update loop from
// one monotonic clock.
//
// The Scheduler owns no timers and never sleeps. The host calls Step with
// the current time on every stimulus (an input event, a redraw, or a wake-up
// at the previous deadline) and gets back how many render and tick intervals
// have elapsed plus the next time it should wake.
//
// Both cadences advance by whole intervals from where they last were, never
// to "now", so late stimuli do not accumulate drift. After a stall one Step
// moves a cadence by Redraws (or Ticks) intervals at once; the intermediate
// instants are not reported separately, which keeps Deadline after now:
//
//	s, _ := scheduler.New(scheduler.Interval(60), scheduler.Interval(30), time.Now())
//	for !closed {
//	    d := s.Step(time.Now())
//	    if d.Redraw() {
//	        window.RequestRedraw()
//	    }
//	    for range d.Ticks {
//	        game.Tick()
//	    }
//	    window.WaitUntil(d.Deadline)
//	}
package scheduler

import (
	"errors"
	"time"
)

// ErrInvalidInterval is returned for a non-positive render interval or a
// negative tick interval.
var ErrInvalidInterval = errors.New("scheduler: invalid interval")

// Interval converts a rate in Hz to a period. Non-positive rates map to 0.
func Interval(hz float64) time.Duration {
	if hz <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / hz)
}

// Decision is the outcome of one Step.
type Decision struct {
	// Redraws is the number of render intervals that elapsed. The host
	// should issue a single redraw request when it is non-zero; windowing
	// systems coalesce pending redraws anyway.
	Redraws int

	// Ticks is the number of update steps to run now.
	Ticks int

	// DroppedTicks counts elapsed tick intervals skipped because of the
	// per-step cap.
	DroppedTicks int

	// Deadline is the earliest time a cadence is next due. It is always
	// after the time passed to Step.
	Deadline time.Time
}

// Redraw reports whether a redraw should be requested.
func (d Decision) Redraw() bool { return d.Redraws > 0 }

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithMaxTicksPerStep caps how many ticks one Step may return. Further
// elapsed intervals are skipped, which keeps a long stall (a suspended
// laptop, a debugger) from replaying thousands of updates. Zero means no cap.
func WithMaxTicksPerStep(n int) Option {
	return func(s *Scheduler) {
		s.maxTicks = max(0, n)
	}
}

// Scheduler tracks the two cadences. It is not safe for concurrent use.
type Scheduler struct {
	renderInterval time.Duration
	tickInterval   time.Duration
	maxTicks       int

	lastRender time.Time
	lastTick   time.Time
}

// New returns a Scheduler whose cadences both start at start, so the first
// redraw is due one render interval later. A zero tick interval disables
// the tick cadence.
func New(renderInterval, tickInterval time.Duration, start time.Time, opts ...Option) (*Scheduler, error) {
	if renderInterval <= 0 || tickInterval < 0 {
		return nil, ErrInvalidInterval
	}
	s := &Scheduler{
		renderInterval: renderInterval,
		tickInterval:   tickInterval,
		lastRender:     start,
		lastTick:       start,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Step advances both cadences to now and reports what became due.
func (s *Scheduler) Step(now time.Time) Decision {
	var d Decision

	if n := elapsed(s.lastRender, now, s.renderInterval); n > 0 {
		s.lastRender = s.lastRender.Add(time.Duration(n) * s.renderInterval)
		d.Redraws = int(n)
	}

	if s.tickInterval > 0 {
		if n := elapsed(s.lastTick, now, s.tickInterval); n > 0 {
			s.lastTick = s.lastTick.Add(time.Duration(n) * s.tickInterval)
			d.Ticks = int(n)
			if s.maxTicks > 0 && d.Ticks > s.maxTicks {
				d.DroppedTicks = d.Ticks - s.maxTicks
				d.Ticks = s.maxTicks
			}
		}
	}

	d.Deadline = s.Deadline()
	return d
}

// elapsed returns how many whole intervals fit between last and now.
func elapsed(last, now time.Time, interval time.Duration) int64 {
	since := now.Sub(last)
	if since < interval {
		return 0
	}
	return int64(since / interval)
}

// Deadline returns when the next cadence is due.
func (s *Scheduler) Deadline() time.Time {
	next := s.lastRender.Add(s.renderInterval)
	if s.tickInterval > 0 {
		if tick := s.lastTick.Add(s.tickInterval); tick.Before(next) {
			next = tick
		}
	}
	return next
}

// LastRender returns the render cadence's current position.
func (s *Scheduler) LastRender() time.Time { return s.lastRender }

// LastTick returns the tick cadence's current position.
func (s *Scheduler) LastTick() time.Time { return s.lastTick }

// RenderInterval returns the render period.
func (s *Scheduler) RenderInterval() time.Duration { return s.renderInterval }

// TickInterval returns the tick period, zero when ticking is disabled.
func (s *Scheduler) TickInterval() time.Duration { return s.tickInterval }
