//go:build linux

package pin

import (
	"fmt"
	"log"

	"github.com/warthog618/go-gpiocdev"
)

const consumer = "gostepper"

// Cdev implements Driver on the GPIO character device. A line is requested
// while it is an output and released (as a bias-free input) otherwise.
type Cdev struct {
	chip   string
	lines  map[int]*gpiocdev.Line
	preset map[int]int
}

// NewCdev opens the named chip, e.g. "gpiochip0".
func NewCdev(chip string) (*Cdev, error) {
	c, err := gpiocdev.NewChip(chip)
	if err != nil {
		return nil, fmt.Errorf("open chip %s: %w", chip, err)
	}
	log.Printf("Pin: using %s (%d lines)", chip, c.Lines())
	c.Close()

	return &Cdev{
		chip:   chip,
		lines:  make(map[int]*gpiocdev.Line),
		preset: make(map[int]int),
	}, nil
}

// SetMode implements Driver.SetMode.
func (d *Cdev) SetMode(line int, mode Mode) error {
	switch mode {
	case Output:
		if l, ok := d.lines[line]; ok {
			return l.Reconfigure(gpiocdev.AsOutput(d.preset[line]))
		}
		l, err := gpiocdev.RequestLine(d.chip, line,
			gpiocdev.WithConsumer(consumer),
			gpiocdev.AsOutput(d.preset[line]))
		if err != nil {
			return fmt.Errorf("request line %s:%d: %w", d.chip, line, err)
		}
		d.lines[line] = l
		return nil

	case HighImpedance:
		l, ok := d.lines[line]
		if !ok {
			// Request briefly so the kernel leaves the line as an input.
			var err error
			l, err = gpiocdev.RequestLine(d.chip, line,
				gpiocdev.WithConsumer(consumer),
				gpiocdev.AsInput,
				gpiocdev.WithBiasDisabled)
			if err != nil {
				return fmt.Errorf("request line %s:%d: %w", d.chip, line, err)
			}
			return l.Close()
		}
		delete(d.lines, line)
		if err := l.Reconfigure(gpiocdev.AsInput, gpiocdev.WithBiasDisabled); err != nil {
			l.Close()
			return fmt.Errorf("reconfigure line %s:%d: %w", d.chip, line, err)
		}
		return l.Close()
	}
	return fmt.Errorf("line %d: unsupported mode %v", line, mode)
}

// Write implements Driver.Write.
func (d *Cdev) Write(line int, high bool) error {
	v := 0
	if high {
		v = 1
	}
	d.preset[line] = v
	if l, ok := d.lines[line]; ok {
		return l.SetValue(v)
	}
	return nil
}

// Close implements Driver.Close.
func (d *Cdev) Close() error {
	var lastErr error
	for line := range d.lines {
		if err := d.SetMode(line, HighImpedance); err != nil {
			lastErr = err
		}
	}
	return lastErr
}
