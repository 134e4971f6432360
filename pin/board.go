package pin

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownDriver is returned by New for an unsupported driver type.
var ErrUnknownDriver = errors.New("unknown pin driver")

// Config holds pin driver configuration.
type Config struct {
	Driver string         `yaml:"driver"` // "cdev", "gpiomem", "vattu", "sim"
	Chip   string         `yaml:"chip"`   // cdev only, e.g. "gpiochip0"
	Lines  map[string]int `yaml:"lines"`  // label -> line offset overrides
}

// defaultLines maps the header labels onto Raspberry Pi BCM lines that are
// free on a stock 40-pin header.
var defaultLines = [NumPins]int{
	A7: 17,
	A6: 27,
	A4: 22,
	B3: 23,
	B2: 24,
	C3: 25,
	C1: 12,
	C0: 16,
}

// Board maps candidate pins to platform line offsets.
type Board struct {
	lines [NumPins]int
}

// DefaultBoard returns the built-in line mapping.
func DefaultBoard() Board {
	return Board{lines: defaultLines}
}

// NewBoard returns the default mapping with the given overrides applied.
// Two labels may not map to the same line.
func NewBoard(overrides map[string]int) (Board, error) {
	b := DefaultBoard()
	for label, line := range overrides {
		id, err := Parse(label)
		if err != nil {
			return Board{}, err
		}
		if line < 0 {
			return Board{}, fmt.Errorf("pin %s: negative line %d", id, line)
		}
		b.lines[id] = line
	}
	seen := make(map[int]ID, NumPins)
	for _, id := range All() {
		line := b.lines[id]
		if prev, ok := seen[line]; ok {
			return Board{}, fmt.Errorf("pins %s and %s share line %d", prev, id, line)
		}
		seen[line] = id
	}
	return b, nil
}

// Line returns the line offset backing id.
func (b Board) Line(id ID) int {
	return b.lines[id]
}

// Lookup returns the pin backed by line, if any.
func (b Board) Lookup(line int) (ID, bool) {
	for _, id := range All() {
		if b.lines[id] == line {
			return id, true
		}
	}
	return 0, false
}

// New creates a Driver based on the provided configuration.
func New(cfg Config) (Driver, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", "cdev", "gpiocdev":
		chip := cfg.Chip
		if chip == "" {
			chip = "gpiochip0"
		}
		return NewCdev(chip)
	case "gpiomem", "mem":
		return NewMem()
	case "vattu", "bcm":
		return NewVattu()
	case "sim":
		return NewSim(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}
