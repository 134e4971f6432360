package reader

import (
	"context"
	"fmt"
	"time"

	"gostepper/input"
)

// DefaultLongPress is how long a key must be held to count as a long press.
const DefaultLongPress = 500 * time.Millisecond

// KeyReader is the interface for all key sources that block on a device.
type KeyReader interface {
	// Read blocks until a key event is decoded or ctx is cancelled.
	Read(ctx context.Context) (input.Event, error)

	// Close releases any resources held by the reader.
	Close() error
}

// Config holds common configuration for reader implementations.
type Config struct {
	Type        string `yaml:"type"`          // "keyboard", "serial", "framed"; empty disables
	Device      string `yaml:"device"`        // e.g., "/dev/input/event0", "/dev/ttyUSB0"
	Baud        int    `yaml:"baud"`          // baud rate for serial devices
	LongPressMs int    `yaml:"long_press_ms"` // keyboard hold time for a long press
}

// LongPress returns the configured long press threshold.
func (c Config) LongPress() time.Duration {
	if c.LongPressMs <= 0 {
		return DefaultLongPress
	}
	return time.Duration(c.LongPressMs) * time.Millisecond
}

// New creates a KeyReader based on the provided configuration.
// Returns nil if no reader type is configured.
func New(cfg Config) (KeyReader, error) {
	switch cfg.Type {
	case "":
		return nil, nil
	case "keyboard", "evdev":
		return NewKeyboard(cfg.Device, cfg.LongPress())
	case "serial":
		return NewSerial(cfg.Device, cfg.Baud)
	case "framed":
		return NewFramed(cfg.Device, cfg.Baud)
	default:
		return nil, fmt.Errorf("unknown reader type %q", cfg.Type)
	}
}
