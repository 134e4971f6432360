package indicator

// Indicator shows controller state on LEDs or a neopixel strip.
type Indicator interface {
	// Idle shows that the device is ready and not stepping.
	Idle()

	// Stepping shows that STEP is being pulsed.
	Stepping()

	// Fault shows that the last operation failed, e.g. a pin could not be bound.
	Fault()

	// ConnectionLost shows that the broker connection dropped.
	ConnectionLost()

	// Connected records that the broker connection is up again. It does
	// not change what is shown; the next Idle does.
	Connected()

	// Shutdown shows that the process is exiting.
	Shutdown()

	// Release frees the LED lines or pipe.
	Release() error
}

// Config selects the indicator outputs. Nothing configured gives a Noop.
type Config struct {
	// GPIO LED pins, BCM numbering (nil = not configured)
	ReadyPin *uint8 `yaml:"ready_pin"`
	RunPin   *uint8 `yaml:"run_pin"`
	FaultPin *uint8 `yaml:"fault_pin"`

	// FIFO of the neopixel helper (empty = not configured)
	NeopixelPipe string `yaml:"neopixel_pipe"`
}

// Lines returns the GPIO lines used by LEDs.
func (c Config) Lines() []int {
	var lines []int
	for _, p := range []*uint8{c.ReadyPin, c.RunPin, c.FaultPin} {
		if p != nil {
			lines = append(lines, int(*p))
		}
	}
	return lines
}

// New builds the configured indicators, combining them in a Multi when
// there is more than one.
func New(cfg Config) (Indicator, error) {
	var indicators []Indicator

	if len(cfg.Lines()) > 0 {
		gpio, err := NewGPIO(cfg.ReadyPin, cfg.RunPin, cfg.FaultPin)
		if err != nil {
			return nil, err
		}
		indicators = append(indicators, gpio)
	}

	if cfg.NeopixelPipe != "" {
		neo, err := NewNeopixel(cfg.NeopixelPipe)
		if err != nil {
			Multi(indicators).Release()
			return nil, err
		}
		indicators = append(indicators, neo)
	}

	if len(indicators) == 0 {
		return &Noop{}, nil
	}
	if len(indicators) == 1 {
		return indicators[0], nil
	}
	return Multi(indicators), nil
}
