package enable

import "testing"

func TestGPIOLevels(t *testing.T) {
	cases := []struct {
		name          string
		activeHigh    bool
		hold          bool
		enabled, idle bool
	}{
		{"active low", false, false, false, true},
		{"active high", true, false, true, false},
		{"active low hold", false, true, false, false},
	}
	for _, c := range cases {
		var level bool
		g := &GPIO{set: func(on bool) { level = on }, activeHigh: c.activeHigh, hold: c.hold}

		g.Enable()
		if level != c.enabled {
			t.Errorf("%s: enabled level = %v, want %v", c.name, level, c.enabled)
		}
		g.Disable()
		if level != c.idle {
			t.Errorf("%s: idle level = %v, want %v", c.name, level, c.idle)
		}
		if err := g.Release(); err != nil {
			t.Fatal(err)
		}
		if level != !c.activeHigh {
			t.Errorf("%s: released level = %v, want disabled", c.name, level)
		}
	}
}

func TestNewUnconfigured(t *testing.T) {
	pin := 21
	for _, cfg := range []Config{{}, {Type: "active_low"}, {Type: "none", Pin: &pin}} {
		out, err := New(cfg)
		if err != nil {
			t.Fatal(err)
		}
		if _, ok := out.(*Noop); !ok {
			t.Errorf("New(%+v) = %T, want *Noop", cfg, out)
		}
	}
}

func TestNewUnknownType(t *testing.T) {
	pin := 21
	if _, err := New(Config{Type: "servo", Pin: &pin}); err == nil {
		t.Error("expected error")
	}
}

func TestPinOutOfRange(t *testing.T) {
	for _, p := range []int{-1, 54, 300} {
		cfg := Config{Type: "active_low", Pin: &p}
		if err := cfg.Validate(); err == nil {
			t.Errorf("Validate(pin %d) accepted", p)
		}
		if _, err := New(cfg); err == nil {
			t.Errorf("New(pin %d) accepted", p)
		}
	}
	p := 53
	if err := (Config{Type: "active_high", Pin: &p}).Validate(); err != nil {
		t.Errorf("Validate(pin 53) = %v", err)
	}
}

func TestConfigLine(t *testing.T) {
	pin := 21
	if line, ok := (Config{Type: "active_low", Pin: &pin}).Line(); !ok || line != 21 {
		t.Errorf("Line() = %d, %v", line, ok)
	}
}
