package pulse

import (
	"errors"
	"testing"
	"time"

	"gostepper/binding"
	"gostepper/pin"
)

func newTestScheduler(t *testing.T, strategy Strategy) (*Scheduler, *pin.Sim, int) {
	t.Helper()
	sim := pin.NewSim()
	reg := binding.New(sim, pin.DefaultBoard(), map[binding.Role][]pin.ID{
		binding.Step:      pin.All(),
		binding.Direction: pin.All(),
	})
	if err := reg.Bind(binding.Step, pin.C3); err != nil {
		t.Fatal(err)
	}
	sim.ResetTrace()
	return New(reg, strategy), sim, reg.Line(pin.C3)
}

func TestArmRejectsBadTiming(t *testing.T) {
	s, _, _ := newTestScheduler(t, Timer)
	cases := []struct {
		period, width time.Duration
	}{
		{0, 10 * time.Microsecond},
		{3 * time.Millisecond, 0},
		{3 * time.Millisecond, -time.Microsecond},
		{time.Millisecond, 100 * time.Microsecond},
	}
	for _, c := range cases {
		if err := s.Arm(c.period, c.width); !errors.Is(err, ErrInvalidTiming) {
			t.Errorf("Arm(%v, %v) = %v, want ErrInvalidTiming", c.period, c.width, err)
		}
	}
	if s.IsArmed() {
		t.Error("scheduler armed after rejected timing")
	}
}

func TestTickWhileDisarmedDoesNothing(t *testing.T) {
	s, sim, _ := newTestScheduler(t, Timer)
	if err := s.Tick(); err != nil {
		t.Fatal(err)
	}
	if n := len(sim.Trace()); n != 0 {
		t.Errorf("disarmed tick touched hardware (%d calls)", n)
	}
	if s.C() != nil {
		t.Error("C() should be nil while disarmed")
	}
}

func TestTimerPulses(t *testing.T) {
	s, sim, line := newTestScheduler(t, Timer)
	width := 10 * time.Microsecond
	if err := s.Arm(2*time.Millisecond, width); err != nil {
		t.Fatal(err)
	}
	defer s.Disarm()

	deadline := time.After(time.Second)
	for s.Pulses() < 5 {
		select {
		case <-s.C():
			if err := s.Tick(); err != nil {
				t.Fatal(err)
			}
		case <-deadline:
			t.Fatalf("only %d pulses in 1s", s.Pulses())
		}
	}

	if got := sim.Rising(line); got != 5 {
		t.Errorf("rising edges = %d, want 5", got)
	}
	if sim.Level(line) {
		t.Error("STEP left high between pulses")
	}

	// Every high is followed by a low at least width later.
	trace := sim.Trace()
	for i, tr := range trace {
		if tr.Op != pin.OpWrite || !tr.High {
			continue
		}
		if i+1 >= len(trace) || trace[i+1].High {
			t.Fatalf("pulse %d not followed by low", i)
		}
		if d := trace[i+1].At.Sub(tr.At); d < width {
			t.Errorf("pulse width %v < %v", d, width)
		}
	}
}

func TestDisarmCancelsPendingTick(t *testing.T) {
	s, sim, line := newTestScheduler(t, Timer)
	period := time.Millisecond
	if err := s.Arm(period, 5*time.Microsecond); err != nil {
		t.Fatal(err)
	}
	c := s.C()

	// Let a tick become pending without consuming it.
	time.Sleep(5 * period)
	s.Disarm()

	// A stale tick handled after Disarm must not pulse.
	select {
	case <-c:
	default:
	}
	if err := s.Tick(); err != nil {
		t.Fatal(err)
	}
	if got := sim.Rising(line); got != 0 {
		t.Errorf("rising edges after disarm = %d, want 0", got)
	}
	if sim.Level(line) {
		t.Error("STEP should be low after disarm")
	}
	if s.C() != nil {
		t.Error("C() should be nil after disarm")
	}
}

func TestDisarmIdempotent(t *testing.T) {
	s, sim, line := newTestScheduler(t, Timer)
	s.Disarm()
	if n := len(sim.Trace()); n != 0 {
		t.Errorf("disarm of disarmed scheduler touched hardware (%d calls)", n)
	}

	if err := s.Arm(3*time.Millisecond, 10*time.Microsecond); err != nil {
		t.Fatal(err)
	}
	s.Disarm()
	n := len(sim.Trace())
	s.Disarm()
	if len(sim.Trace()) != n {
		t.Error("second disarm touched hardware")
	}
	if sim.Level(line) {
		t.Error("STEP should be low")
	}
}

func TestPollStrategy(t *testing.T) {
	s, sim, line := newTestScheduler(t, Poll)
	base := time.Unix(1000, 0)
	s.now = func() time.Time { return base }

	period := 3 * time.Millisecond
	if err := s.Arm(period, 10*time.Microsecond); err != nil {
		t.Fatal(err)
	}
	if s.C() != nil {
		t.Error("poll strategy should not expose a tick channel")
	}

	steps := []struct {
		at   time.Duration
		want bool
	}{
		{0, false},
		{period - time.Microsecond, false},
		{period, true},
		{period + time.Millisecond, false},
		{2 * period, true},
		// Fell behind by several periods: one pulse, no burst.
		{10 * period, true},
		{10*period + time.Microsecond, false},
		{11 * period, true},
	}
	for _, st := range steps {
		fired, err := s.Poll(base.Add(st.at))
		if err != nil {
			t.Fatal(err)
		}
		if fired != st.want {
			t.Errorf("Poll(+%v) = %v, want %v", st.at, fired, st.want)
		}
	}
	if got := sim.Rising(line); got != 4 {
		t.Errorf("rising edges = %d, want 4", got)
	}

	s.Disarm()
	if fired, _ := s.Poll(base.Add(time.Hour)); fired {
		t.Error("Poll fired while disarmed")
	}
}

func TestUntil(t *testing.T) {
	s, _, _ := newTestScheduler(t, Poll)
	base := time.Unix(1000, 0)
	s.now = func() time.Time { return base }
	if s.Until(base) != 0 {
		t.Error("Until should be 0 while disarmed")
	}
	s.Arm(3*time.Millisecond, 10*time.Microsecond)
	if got := s.Until(base.Add(time.Millisecond)); got != 2*time.Millisecond {
		t.Errorf("Until = %v, want 2ms", got)
	}
	if got := s.Until(base.Add(time.Second)); got != 0 {
		t.Errorf("Until past deadline = %v, want 0", got)
	}
}

func TestParseStrategy(t *testing.T) {
	for in, want := range map[string]Strategy{"": Timer, "timer": Timer, "POLL": Poll} {
		got, err := ParseStrategy(in)
		if err != nil || got != want {
			t.Errorf("ParseStrategy(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseStrategy("irq"); err == nil {
		t.Error("expected error for unknown strategy")
	}
}

func TestConfigDefaults(t *testing.T) {
	var c Config
	if c.Period() != DefaultPeriod || c.PulseWidth() != DefaultPulseWidth {
		t.Errorf("defaults = %v/%v", c.Period(), c.PulseWidth())
	}
	c = Config{PeriodMicros: 5000, PulseWidthMicros: 4}
	if c.Period() != 5*time.Millisecond || c.PulseWidth() != 4*time.Microsecond {
		t.Errorf("configured = %v/%v", c.Period(), c.PulseWidth())
	}
}
