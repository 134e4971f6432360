package enable

import (
	"github.com/hjkoskel/govattu"
)

// GPIO implements Output on a single GPIO pin.
type GPIO struct {
	set        func(on bool)
	close      func() error
	activeHigh bool
	hold       bool
}

// NewGPIO creates a GPIO enable output. The driver starts disabled unless
// hold is set.
func NewGPIO(hw govattu.Vattu, pin uint8, activeHigh, hold bool) *GPIO {
	hw.PinMode(pin, govattu.ALToutput)

	g := &GPIO{
		set: func(on bool) {
			if on {
				hw.PinSet(pin)
			} else {
				hw.PinClear(pin)
			}
		},
		close:      hw.Close,
		activeHigh: activeHigh,
		hold:       hold,
	}
	if hold {
		g.Enable()
	} else {
		g.Disable()
	}
	return g
}

// Enable implements Output.Enable.
func (g *GPIO) Enable() error {
	g.set(g.activeHigh)
	return nil
}

// Disable implements Output.Disable. With hold set the driver stays enabled.
func (g *GPIO) Disable() error {
	if g.hold {
		return nil
	}
	g.set(!g.activeHigh)
	return nil
}

// Release implements Output.Release.
func (g *GPIO) Release() error {
	g.set(!g.activeHigh)
	if g.close == nil {
		return nil
	}
	return g.close()
}
