package pin

import (
	"fmt"

	"github.com/hjkoskel/govattu"
)

// Vattu implements Driver with direct BCM283x register access.
type Vattu struct {
	hw      govattu.Vattu
	outputs map[int]bool
}

// NewVattu opens the register interface.
func NewVattu() (*Vattu, error) {
	hw, err := govattu.Open()
	if err != nil {
		return nil, fmt.Errorf("open gpio: %w", err)
	}
	return &Vattu{hw: hw, outputs: make(map[int]bool)}, nil
}

// SetMode implements Driver.SetMode.
func (v *Vattu) SetMode(line int, mode Mode) error {
	switch mode {
	case Output:
		v.hw.PinMode(uint8(line), govattu.ALToutput)
		v.outputs[line] = true
	case HighImpedance:
		v.hw.PinMode(uint8(line), govattu.ALTinput)
		delete(v.outputs, line)
	default:
		return fmt.Errorf("line %d: unsupported mode %v", line, mode)
	}
	return nil
}

// Write implements Driver.Write.
func (v *Vattu) Write(line int, high bool) error {
	if high {
		v.hw.PinSet(uint8(line))
	} else {
		v.hw.PinClear(uint8(line))
	}
	return nil
}

// Close implements Driver.Close.
func (v *Vattu) Close() error {
	for line := range v.outputs {
		v.hw.PinClear(uint8(line))
		v.hw.PinMode(uint8(line), govattu.ALTinput)
	}
	return v.hw.Close()
}
