package indicator

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func u8(v uint8) *uint8 { return &v }

type ledBoard map[uint8]bool

func newTestGPIO(leds ledBoard) *GPIO {
	return &GPIO{
		set:      func(p uint8, on bool) { leds[p] = on },
		readyPin: u8(5),
		runPin:   u8(6),
		faultPin: u8(13),
	}
}

func TestGPIOStates(t *testing.T) {
	leds := ledBoard{}
	g := newTestGPIO(leds)

	cases := []struct {
		name string
		fn   func()
		want ledBoard
	}{
		{"idle", g.Idle, ledBoard{5: true, 6: false, 13: false}},
		{"stepping", g.Stepping, ledBoard{5: false, 6: true, 13: false}},
		{"fault", g.Fault, ledBoard{5: false, 6: false, 13: true}},
		{"connection lost", g.ConnectionLost, ledBoard{5: true, 6: false, 13: true}},
		{"shutdown", g.Shutdown, ledBoard{5: false, 6: false, 13: false}},
	}
	for _, c := range cases {
		c.fn()
		for pin, want := range c.want {
			if leds[pin] != want {
				t.Errorf("%s: led %d = %v, want %v", c.name, pin, leds[pin], want)
			}
		}
	}
}

// Lamp changes from two goroutines never leave two state LEDs lit.
func TestGPIOConcurrentStates(t *testing.T) {
	leds := ledBoard{}
	g := newTestGPIO(leds)

	var wg sync.WaitGroup
	for _, fn := range []func(){g.Idle, g.Stepping} {
		fn := fn
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				fn()
			}
		}()
	}
	wg.Wait()

	lit := 0
	for _, on := range leds {
		if on {
			lit++
		}
	}
	if lit != 1 {
		t.Errorf("leds = %v, want exactly one lit", leds)
	}
}

func TestGPIOMissingPins(t *testing.T) {
	leds := ledBoard{}
	g := &GPIO{set: func(p uint8, on bool) { leds[p] = on }, runPin: u8(6)}
	g.Idle()
	g.Fault()
	g.Stepping()
	if len(leds) != 1 || !leds[6] {
		t.Errorf("leds = %v", leds)
	}
	if err := g.Release(); err != nil || leds[6] {
		t.Errorf("release: %v, leds %v", err, leds)
	}
}

func TestNeopixel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "neo")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	n, err := NewNeopixel(path)
	if err != nil {
		t.Fatal(err)
	}
	n.Idle()
	n.Connected()
	n.Idle()
	n.Stepping()
	n.Fault()
	n.Shutdown()
	if err := n.Release(); err != nil {
		t.Fatal(err)
	}
	n.Idle() // after release: dropped

	data, _ := os.ReadFile(path)
	want := []string{neoConnectionLost, neoNormalIdle, neoStepping, neoFault, neoTerminated}
	got := strings.Split(strings.TrimSpace(string(data)), "\n")
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("pipe = %q, want %q", got, want)
	}
}

func TestNewNoop(t *testing.T) {
	ind, err := New(Config{})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := ind.(*Noop); !ok {
		t.Errorf("New(empty) = %T, want *Noop", ind)
	}
}

func TestConfigLines(t *testing.T) {
	c := Config{ReadyPin: u8(5), FaultPin: u8(13)}
	got := c.Lines()
	if len(got) != 2 || got[0] != 5 || got[1] != 13 {
		t.Errorf("Lines() = %v", got)
	}
}

type countingIndicator struct {
	Noop
	idle, released int
}

func (c *countingIndicator) Idle()          { c.idle++ }
func (c *countingIndicator) Release() error { c.released++; return nil }

func TestMulti(t *testing.T) {
	a, b := &countingIndicator{}, &countingIndicator{}
	m := Multi{a, b}
	m.Idle()
	m.Stepping()
	m.Release()
	if a.idle != 1 || b.idle != 1 || a.released != 1 || b.released != 1 {
		t.Errorf("a=%+v b=%+v", a, b)
	}
}
