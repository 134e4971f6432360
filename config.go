package main

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"gostepper/binding"
	"gostepper/enable"
	"gostepper/eventpipe"
	"gostepper/indicator"
	"gostepper/input"
	"gostepper/mqtt"
	"gostepper/pin"
	"gostepper/pulse"
	"gostepper/reader"
	"gostepper/rotary"
	"gostepper/video"
)

// Config is the main configuration structure for gostepper.
type Config struct {
	// Pin driver and header mapping
	Pins pin.Config `yaml:"pins"`

	// Role bindings
	Step      RoleConfig `yaml:"step"`
	Direction RoleConfig `yaml:"direction"`

	// Pulse timing
	Pulse pulse.Config `yaml:"pulse"`

	// Driver ENABLE input
	Enable enable.Config `yaml:"enable"`

	// Key sources
	Reader        reader.Config    `yaml:"reader"`
	Rotary        rotary.Config    `yaml:"rotary"`
	EventPipe     eventpipe.Config `yaml:"event_pipe"`
	QueueCapacity int              `yaml:"queue_capacity"`

	// Outputs
	MQTT      mqtt.Config      `yaml:"mqtt"`
	Indicator indicator.Config `yaml:"indicator"`
	Video     video.Config     `yaml:"video"`

	// Log file used in console mode
	LogFile string `yaml:"log_file"`
}

// RoleConfig holds the pins one role may use.
type RoleConfig struct {
	Default    string   `yaml:"default"`
	Candidates []string `yaml:"candidates"` // empty means every pin
	Disabled   bool     `yaml:"disabled"`
}

// Built-in role defaults.
const (
	defaultStepPin      = "C3"
	defaultDirectionPin = "B2"
	defaultLogFile      = "gostepper.log"
)

var errConfig = errors.New("invalid config")

// loadConfig reads path. A missing file is not an error when optional is set;
// the built-in defaults are used instead.
func loadConfig(path string, optional bool) (*Config, error) {
	var cfg Config

	f, err := os.Open(path)
	switch {
	case err == nil:
		defer f.Close()
		if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
	case optional && errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("open config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Step.Default == "" {
		c.Step.Default = defaultStepPin
	}
	if c.Direction.Default == "" {
		c.Direction.Default = defaultDirectionPin
	}
	if c.QueueCapacity <= 0 {
		c.QueueCapacity = input.DefaultCapacity
	}
	if c.LogFile == "" {
		c.LogFile = defaultLogFile
	}
}

// resolve returns the default pin and candidate list of a role. A disabled
// role has neither.
func (r RoleConfig) resolve() (pin.ID, []pin.ID, error) {
	if r.Disabled {
		return 0, nil, nil
	}
	def, err := pin.Parse(r.Default)
	if err != nil {
		return 0, nil, err
	}
	cands, err := pin.ParseList(r.Candidates)
	if err != nil {
		return 0, nil, err
	}
	for _, id := range cands {
		if id == def {
			return def, cands, nil
		}
	}
	return 0, nil, fmt.Errorf("default %s not among candidates %v", def, cands)
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Step.Disabled {
		return fmt.Errorf("%w: step role cannot be disabled", errConfig)
	}
	step, _, err := c.Step.resolve()
	if err != nil {
		return fmt.Errorf("%w: step: %v", errConfig, err)
	}
	dir, dirCands, err := c.Direction.resolve()
	if err != nil {
		return fmt.Errorf("%w: direction: %v", errConfig, err)
	}
	if dirCands != nil && dir == step {
		return fmt.Errorf("%w: step and direction both default to %s", errConfig, step)
	}

	if _, err := pulse.ParseStrategy(c.Pulse.Strategy); err != nil {
		return fmt.Errorf("%w: %v", errConfig, err)
	}
	if err := pulse.CheckTiming(c.Pulse.Period(), c.Pulse.PulseWidth()); err != nil {
		return fmt.Errorf("%w: %v", errConfig, err)
	}

	if err := c.Enable.Validate(); err != nil {
		return fmt.Errorf("%w: %v", errConfig, err)
	}

	board, err := pin.NewBoard(c.Pins.Lines)
	if err != nil {
		return fmt.Errorf("%w: pins: %v", errConfig, err)
	}
	for _, line := range c.otherLines() {
		if id, ok := board.Lookup(line); ok {
			return fmt.Errorf("%w: line %d used by pin %s and another device", errConfig, line, id)
		}
	}
	return nil
}

// otherLines returns the GPIO lines claimed by LEDs, the encoder and the
// enable output.
func (c *Config) otherLines() []int {
	lines := c.Indicator.Lines()
	if line, ok := c.Enable.Line(); ok {
		lines = append(lines, line)
	}
	if c.Rotary.Enabled() {
		lines = append(lines, c.Rotary.CLKPin, c.Rotary.DTPin)
		if c.Rotary.ButtonPin != 0 {
			lines = append(lines, c.Rotary.ButtonPin)
		}
		if c.Rotary.BackPin != 0 {
			lines = append(lines, c.Rotary.BackPin)
		}
	}
	return lines
}

// candidates returns the registry candidate map.
func (c *Config) candidates() map[binding.Role][]pin.ID {
	_, step, _ := c.Step.resolve()
	m := map[binding.Role][]pin.ID{binding.Step: step}
	if _, dir, _ := c.Direction.resolve(); dir != nil {
		m[binding.Direction] = dir
	}
	return m
}

// defaults returns the pin each enabled role is bound to at startup.
func (c *Config) defaults() map[binding.Role]pin.ID {
	step, _, _ := c.Step.resolve()
	m := map[binding.Role]pin.ID{binding.Step: step}
	if dir, cands, _ := c.Direction.resolve(); cands != nil {
		m[binding.Direction] = dir
	}
	return m
}
