package rotary

import (
	"testing"
	"time"
)

func TestDecoderDirection(t *testing.T) {
	var d decoder

	// Clockwise: CLK rises while DT is low.
	if got := d.clk(1); got != 1 {
		t.Errorf("cw step = %d, want 1", got)
	}
	d.dt(1)
	if got := d.clk(0); got != 0 {
		t.Errorf("falling CLK = %d, want 0", got)
	}

	// Counter-clockwise: DT already high when CLK rises.
	if got := d.clk(1); got != -1 {
		t.Errorf("ccw step = %d, want -1", got)
	}

	// A repeated high level is not an edge.
	if got := d.clk(1); got != 0 {
		t.Errorf("repeated high = %d, want 0", got)
	}
}

func TestButtonLongPress(t *testing.T) {
	b := button{longPress: time.Second}
	t0 := time.Unix(100, 0)

	if _, ok := b.release(t0); ok {
		t.Error("release without press reported")
	}

	b.press(t0)
	long, ok := b.release(t0.Add(200 * time.Millisecond))
	if !ok || long {
		t.Errorf("short press = long %v, ok %v", long, ok)
	}

	b.press(t0)
	long, ok = b.release(t0.Add(1500 * time.Millisecond))
	if !ok || !long {
		t.Errorf("long press = long %v, ok %v", long, ok)
	}
}

func TestConfig(t *testing.T) {
	if (Config{}).Enabled() {
		t.Error("empty config should be disabled")
	}
	if !(Config{CLKPin: 5, DTPin: 6}).Enabled() {
		t.Error("configured encoder should be enabled")
	}
	if (Config{}).longPress() != time.Second {
		t.Error("default long press should be 1s")
	}
	if (Config{LongPressMs: 300}).longPress() != 300*time.Millisecond {
		t.Error("configured long press ignored")
	}
}
