//go:build !linux

package rotary

import "errors"

// ErrNotSupported is returned by New when an encoder is configured on a
// platform without the GPIO character device.
var ErrNotSupported = errors.New("rotary: gpio character device not available")

// Rotary has no behaviour off linux; New never returns one.
type Rotary struct{}

func New(cfg Config, _ Handlers) (*Rotary, error) {
	if cfg.Enabled() {
		return nil, ErrNotSupported
	}
	return nil, nil
}

func (*Rotary) Position() int64 { return 0 }
func (*Rotary) Release() error  { return nil }
