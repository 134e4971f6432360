package indicator

import (
	"fmt"
	"sync"

	"github.com/hjkoskel/govattu"
)

// GPIO implements Indicator using discrete GPIO LED pins. The dispatch loop
// and the MQTT callbacks may call it at the same time.
type GPIO struct {
	mu       sync.Mutex
	set      func(pin uint8, on bool)
	close    func() error
	readyPin *uint8
	runPin   *uint8
	faultPin *uint8
}

// NewGPIO creates a new GPIO-based indicator.
func NewGPIO(readyPin, runPin, faultPin *uint8) (*GPIO, error) {
	hw, err := govattu.Open()
	if err != nil {
		return nil, fmt.Errorf("open gpio: %w", err)
	}

	g := &GPIO{
		set: func(pin uint8, on bool) {
			if on {
				hw.PinSet(pin)
			} else {
				hw.PinClear(pin)
			}
		},
		close:    hw.Close,
		readyPin: readyPin,
		runPin:   runPin,
		faultPin: faultPin,
	}

	// Initialize all pins as outputs, start off
	for _, p := range []*uint8{readyPin, runPin, faultPin} {
		if p != nil {
			hw.PinMode(*p, govattu.ALToutput)
			hw.PinClear(*p)
		}
	}

	return g, nil
}

// Idle implements Indicator.Idle.
func (g *GPIO) Idle() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.only(g.readyPin)
}

// Stepping implements Indicator.Stepping.
func (g *GPIO) Stepping() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.only(g.runPin)
}

// Fault implements Indicator.Fault.
func (g *GPIO) Fault() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.only(g.faultPin)
}

// ConnectionLost implements Indicator.ConnectionLost.
func (g *GPIO) ConnectionLost() {
	// Ready and fault together.
	g.mu.Lock()
	defer g.mu.Unlock()
	g.allOff()
	g.on(g.readyPin)
	g.on(g.faultPin)
}

// Connected implements Indicator.Connected. Idle already clears the fault LED.
func (g *GPIO) Connected() {}

// Shutdown implements Indicator.Shutdown.
func (g *GPIO) Shutdown() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.allOff()
}

// Release implements Indicator.Release.
func (g *GPIO) Release() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.allOff()
	if g.close == nil {
		return nil
	}
	return g.close()
}

func (g *GPIO) only(p *uint8) {
	g.allOff()
	g.on(p)
}

func (g *GPIO) on(p *uint8) {
	if p != nil {
		g.set(*p, true)
	}
}

func (g *GPIO) allOff() {
	for _, p := range []*uint8{g.readyPin, g.runPin, g.faultPin} {
		if p != nil {
			g.set(*p, false)
		}
	}
}
