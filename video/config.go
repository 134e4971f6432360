package video

import "errors"

// ErrScreenNotCompiled is returned by New in builds without the screen tag.
var ErrScreenNotCompiled = errors.New("video: framebuffer output needs a build with -tags=screen")

// Config holds video display configuration.
type Config struct {
	Enabled  bool   `yaml:"enabled"`
	Device   string `yaml:"device"` // default /dev/fb0
	FontPath string `yaml:"font"`   // TrueType font; built-in 7x13 bitmap font when empty
	FontSize int    `yaml:"font_size"`
}

func (c Config) device() string {
	if c.Device == "" {
		return "/dev/fb0"
	}
	return c.Device
}
