package pin

import (
	"fmt"

	"github.com/warthog618/gpio"
)

// Mem implements Driver through /dev/gpiomem on a Raspberry Pi.
type Mem struct {
	pins map[int]*gpio.Pin
}

// NewMem maps the GPIO registers.
func NewMem() (*Mem, error) {
	if err := gpio.Open(); err != nil {
		return nil, fmt.Errorf("open gpiomem: %w", err)
	}
	return &Mem{pins: make(map[int]*gpio.Pin)}, nil
}

func (m *Mem) pin(line int) *gpio.Pin {
	p, ok := m.pins[line]
	if !ok {
		p = gpio.NewPin(line)
		m.pins[line] = p
	}
	return p
}

// SetMode implements Driver.SetMode.
func (m *Mem) SetMode(line int, mode Mode) error {
	p := m.pin(line)
	switch mode {
	case Output:
		p.Output()
	case HighImpedance:
		p.Input()
		p.PullNone()
	default:
		return fmt.Errorf("line %d: unsupported mode %v", line, mode)
	}
	return nil
}

// Write implements Driver.Write. The level latches even while the pin is an
// input, so a preset low is driven as soon as the pin becomes an output.
func (m *Mem) Write(line int, high bool) error {
	p := m.pin(line)
	if high {
		p.High()
	} else {
		p.Low()
	}
	return nil
}

// Close implements Driver.Close.
func (m *Mem) Close() error {
	for line := range m.pins {
		m.SetMode(line, HighImpedance)
	}
	return gpio.Close()
}
