// Package pulse generates periodic STEP pulses.
//
// A Scheduler never runs on its own goroutine. In the timer strategy the
// owner selects on C() and calls Tick; in the poll strategy the owner calls
// Poll on every pass of its loop. Either way pulses are emitted on the
// owner's goroutine, so no two pulses can overlap and Disarm takes effect
// before it returns.
package pulse

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"gostepper/binding"
)

// Strategy selects how ticks are delivered.
type Strategy string

const (
	// Timer delivers ticks on a channel from a time.Ticker.
	Timer Strategy = "timer"
	// Poll fires pulses from the owner's loop when the deadline has passed.
	Poll Strategy = "poll"
)

const (
	DefaultPeriod     = 3 * time.Millisecond
	DefaultPulseWidth = 10 * time.Microsecond

	// minDutyRatio keeps the pulse at least two orders of magnitude shorter
	// than the period.
	minDutyRatio = 100
)

// ErrInvalidTiming is returned by Arm for an unusable period/width pair.
var ErrInvalidTiming = errors.New("invalid pulse timing")

// Config holds pulse timing settings.
type Config struct {
	Strategy         string `yaml:"strategy"`       // "timer" (default) or "poll"
	PeriodMicros     int    `yaml:"period_us"`      // default 3000
	PulseWidthMicros int    `yaml:"pulse_width_us"` // default 10
}

// Period returns the configured period or the default.
func (c Config) Period() time.Duration {
	if c.PeriodMicros <= 0 {
		return DefaultPeriod
	}
	return time.Duration(c.PeriodMicros) * time.Microsecond
}

// PulseWidth returns the configured pulse width or the default.
func (c Config) PulseWidth() time.Duration {
	if c.PulseWidthMicros <= 0 {
		return DefaultPulseWidth
	}
	return time.Duration(c.PulseWidthMicros) * time.Microsecond
}

// ParseStrategy converts a config string to a Strategy.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(s)) {
	case "", Timer:
		return Timer, nil
	case Poll:
		return Poll, nil
	default:
		return "", fmt.Errorf("unknown pulse strategy %q", s)
	}
}

// CheckTiming reports whether a pulse of width fits period.
func CheckTiming(period, width time.Duration) error {
	if period <= 0 || width <= 0 || width*minDutyRatio > period {
		return fmt.Errorf("%w: period %v, width %v", ErrInvalidTiming, period, width)
	}
	return nil
}

// Output is the pin the scheduler pulses.
type Output interface {
	Write(role binding.Role, high bool) error
}

// Scheduler pulses the STEP role while armed.
type Scheduler struct {
	out      Output
	strategy Strategy
	now      func() time.Time

	armed  bool
	period time.Duration
	width  time.Duration
	ticker *time.Ticker
	next   time.Time
	pulses uint64
}

// New creates a disarmed scheduler.
func New(out Output, strategy Strategy) *Scheduler {
	if strategy == "" {
		strategy = Timer
	}
	return &Scheduler{out: out, strategy: strategy, now: time.Now}
}

// Strategy returns the scheduling strategy.
func (s *Scheduler) Strategy() Strategy {
	return s.strategy
}

// Arm starts pulsing every period with a high time of width.
// Arming an armed scheduler restarts it with the new timing.
func (s *Scheduler) Arm(period, width time.Duration) error {
	if err := CheckTiming(period, width); err != nil {
		return err
	}
	if s.armed {
		s.Disarm()
	}

	s.period = period
	s.width = width
	s.armed = true
	s.next = s.now().Add(period)
	if s.strategy == Timer {
		s.ticker = time.NewTicker(period)
	}
	log.Printf("Pulse: armed (%s, period %v, width %v)", s.strategy, period, width)
	return nil
}

// Disarm stops pulsing and leaves STEP low. No pulse is emitted after
// Disarm returns, even if a tick was already pending. Disarming a disarmed
// scheduler does nothing.
func (s *Scheduler) Disarm() {
	if !s.armed {
		return
	}
	s.armed = false
	if s.ticker != nil {
		s.ticker.Stop()
		select {
		case <-s.ticker.C:
		default:
		}
		s.ticker = nil
	}
	if err := s.out.Write(binding.Step, false); err != nil {
		log.Printf("Pulse: drive STEP low: %v", err)
	}
	log.Printf("Pulse: disarmed after %d pulses", s.pulses)
}

// IsArmed reports whether the scheduler is armed.
func (s *Scheduler) IsArmed() bool {
	return s.armed
}

// Pulses returns the number of pulses emitted since creation.
func (s *Scheduler) Pulses() uint64 {
	return s.pulses
}

// C returns the tick channel while armed with the timer strategy, and nil
// otherwise. A nil channel blocks forever in a select.
func (s *Scheduler) C() <-chan time.Time {
	if !s.armed || s.ticker == nil {
		return nil
	}
	return s.ticker.C
}

// Tick emits one pulse if armed.
func (s *Scheduler) Tick() error {
	if !s.armed {
		return nil
	}
	return s.pulse()
}

// Poll emits a pulse if armed and the next deadline has passed. It reports
// whether a pulse was emitted. A loop that falls behind skips the missed
// deadlines rather than bursting to catch up.
func (s *Scheduler) Poll(now time.Time) (bool, error) {
	if !s.armed || now.Before(s.next) {
		return false, nil
	}
	s.next = s.next.Add(s.period)
	if s.next.Before(now) {
		s.next = now.Add(s.period)
	}
	return true, s.pulse()
}

// Until returns the time left before the next poll deadline.
func (s *Scheduler) Until(now time.Time) time.Duration {
	if !s.armed {
		return 0
	}
	if d := s.next.Sub(now); d > 0 {
		return d
	}
	return 0
}

func (s *Scheduler) pulse() error {
	if err := s.out.Write(binding.Step, true); err != nil {
		return fmt.Errorf("step high: %w", err)
	}
	hold(s.width)
	if err := s.out.Write(binding.Step, false); err != nil {
		return fmt.Errorf("step low: %w", err)
	}
	s.pulses++
	return nil
}

// hold spins for d. Sleeping would round a few microseconds up to the
// scheduler's granularity.
func hold(d time.Duration) {
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
	}
}
