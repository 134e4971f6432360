package rotary

import "time"

// Config holds configuration for a rotary encoder.
type Config struct {
	Chip        string `yaml:"chip"`
	CLKPin      int    `yaml:"clk_pin"`
	DTPin       int    `yaml:"dt_pin"`
	ButtonPin   int    `yaml:"button_pin"`
	BackPin     int    `yaml:"back_pin"`      // optional second button
	LongPressMs int    `yaml:"long_press_ms"` // default 1000
}

// Enabled reports whether any encoder pins are configured.
func (c Config) Enabled() bool {
	return c.CLKPin != 0 || c.DTPin != 0
}

func (c Config) longPress() time.Duration {
	if c.LongPressMs <= 0 {
		return time.Second
	}
	return time.Duration(c.LongPressMs) * time.Millisecond
}

// Handlers holds callback functions for rotary events. They run on the
// gpiocdev event goroutine.
type Handlers struct {
	OnTurn      func(delta int) // Called with +1 (CW) or -1 (CCW)
	OnPress     func()          // Called when the button is released before the long press time
	OnLongPress func()          // Called when the button was held for the long press time
	OnBack      func()          // Called when the back button is pressed
}

// decoder turns CLK/DT edges into steps. A step is counted on each CLK
// rising edge; DT low at that instant means clockwise.
type decoder struct {
	lastCLK int
	lastDT  int
}

func (d *decoder) clk(level int) int {
	rising := d.lastCLK == 0 && level == 1
	d.lastCLK = level
	if !rising {
		return 0
	}
	if d.lastDT == 0 {
		return 1
	}
	return -1
}

func (d *decoder) dt(level int) {
	d.lastDT = level
}

// button classifies a press by how long it was held.
type button struct {
	longPress time.Duration
	downAt    time.Time
	down      bool
}

// press records the press; release reports whether it was long. A release
// without a press reports ok=false.
func (b *button) press(now time.Time) {
	b.downAt = now
	b.down = true
}

func (b *button) release(now time.Time) (long, ok bool) {
	if !b.down {
		return false, false
	}
	b.down = false
	return now.Sub(b.downAt) >= b.longPress, true
}
