//go:build !linux

package pin

import "errors"

// ErrNotSupported is returned by hardware drivers on non-linux platforms.
var ErrNotSupported = errors.New("gpio character device not supported on this platform")

// Cdev is a stub for non-linux platforms.
type Cdev struct{}

// NewCdev returns an error on non-linux platforms.
func NewCdev(chip string) (*Cdev, error) {
	return nil, ErrNotSupported
}

func (d *Cdev) SetMode(line int, mode Mode) error { return ErrNotSupported }
func (d *Cdev) Write(line int, high bool) error   { return ErrNotSupported }
func (d *Cdev) Close() error                      { return nil }
