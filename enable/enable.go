// Package enable drives the ENABLE input of the stepper driver so the motor
// coils are only powered while stepping.
package enable

import (
	"fmt"

	"github.com/hjkoskel/govattu"
)

// Output is the interface for driver enable implementations.
type Output interface {
	// Enable powers the driver outputs.
	Enable() error

	// Disable lets the motor spin freely.
	Disable() error

	// Release disables the driver and releases any hardware resources.
	Release() error
}

// Config holds configuration for the enable output.
type Config struct {
	Type string `yaml:"type"` // "active_low" (A4988, DRV8825), "active_high", "none"
	Pin  *int   `yaml:"pin"`  // GPIO pin number, BCM
	Hold bool   `yaml:"hold"` // stay enabled while idle for holding torque
}

// Line returns the GPIO line used, if any.
func (c Config) Line() (int, bool) {
	if c.Pin == nil || c.Type == "" || c.Type == "none" {
		return 0, false
	}
	return *c.Pin, true
}

// maxLine is the highest BCM GPIO number.
const maxLine = 53

func (c Config) activeHigh() (bool, error) {
	switch c.Type {
	case "active_high", "high":
		return true, nil
	case "active_low", "low":
		return false, nil
	}
	return false, fmt.Errorf("unknown enable type %q", c.Type)
}

// Validate checks the type and pin of a configured output.
func (c Config) Validate() error {
	line, ok := c.Line()
	if !ok {
		return nil
	}
	if _, err := c.activeHigh(); err != nil {
		return err
	}
	if line < 0 || line > maxLine {
		return fmt.Errorf("enable pin %d out of range 0-%d", line, maxLine)
	}
	return nil
}

// New creates an Output based on the provided configuration.
func New(cfg Config) (Output, error) {
	line, ok := cfg.Line()
	if !ok {
		return &Noop{}, nil
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	activeHigh, _ := cfg.activeHigh()

	hw, err := govattu.Open()
	if err != nil {
		return nil, fmt.Errorf("open gpio: %w", err)
	}
	return NewGPIO(hw, uint8(line), activeHigh, cfg.Hold), nil
}
