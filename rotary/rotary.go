//go:build linux

package rotary

import (
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/warthog618/go-gpiocdev"
)

const (
	consumer        = "gostepper"
	encoderDebounce = 250 * time.Microsecond
	buttonDebounce  = 2 * time.Millisecond
)

// Rotary reads a quadrature encoder, its push button and an optional back
// button from the GPIO character device.
type Rotary struct {
	handlers Handlers
	clk, dt  int // offsets compared against each edge

	lines []*gpiocdev.Line

	mu  sync.Mutex // edge handlers may run concurrently
	dec decoder
	btn button

	pos atomic.Int64
}

// New requests the configured lines. It returns nil, nil when no encoder is
// configured.
func New(cfg Config, handlers Handlers) (*Rotary, error) {
	if !cfg.Enabled() {
		return nil, nil
	}
	chip := cfg.Chip
	if chip == "" {
		chip = "gpiochip0"
	}

	r := &Rotary{
		handlers: handlers,
		clk:      cfg.CLKPin,
		dt:       cfg.DTPin,
		btn:      button{longPress: cfg.longPress()},
	}

	type request struct {
		offset   int
		edges    gpiocdev.LineReqOption
		debounce time.Duration
		handler  func(gpiocdev.LineEvent)
	}
	reqs := []request{
		{cfg.DTPin, gpiocdev.WithBothEdges, encoderDebounce, r.onEncoder},
		{cfg.CLKPin, gpiocdev.WithBothEdges, encoderDebounce, r.onEncoder},
	}
	if cfg.ButtonPin > 0 {
		reqs = append(reqs, request{cfg.ButtonPin, gpiocdev.WithBothEdges, buttonDebounce, r.onButton})
	}
	if cfg.BackPin > 0 {
		reqs = append(reqs, request{cfg.BackPin, gpiocdev.WithFallingEdge, buttonDebounce, r.onBack})
	}

	for _, q := range reqs {
		l, err := gpiocdev.RequestLine(chip, q.offset,
			gpiocdev.WithConsumer(consumer),
			gpiocdev.WithPullUp,
			q.edges,
			gpiocdev.WithDebounce(q.debounce),
			gpiocdev.WithEventHandler(q.handler))
		if err != nil {
			r.Release()
			return nil, fmt.Errorf("request %s line %d: %w", chip, q.offset, err)
		}
		r.lines = append(r.lines, l)
	}

	log.Printf("Rotary: clk %d dt %d button %d back %d on %s",
		cfg.CLKPin, cfg.DTPin, cfg.ButtonPin, cfg.BackPin, chip)
	return r, nil
}

func (r *Rotary) onEncoder(evt gpiocdev.LineEvent) {
	level := 0
	switch evt.Type {
	case gpiocdev.LineEventRisingEdge:
		level = 1
	case gpiocdev.LineEventFallingEdge:
	default:
		return
	}

	r.mu.Lock()
	var delta int
	if evt.Offset == r.clk {
		delta = r.dec.clk(level)
	} else if evt.Offset == r.dt {
		r.dec.dt(level)
	}
	r.mu.Unlock()

	if delta == 0 {
		return
	}
	r.pos.Add(int64(delta))
	if r.handlers.OnTurn != nil {
		r.handlers.OnTurn(delta)
	}
}

// onButton sees a pulled-up button, so a falling edge is the press.
func (r *Rotary) onButton(evt gpiocdev.LineEvent) {
	now := time.Now()
	r.mu.Lock()
	var long, ok bool
	if evt.Type == gpiocdev.LineEventFallingEdge {
		r.btn.press(now)
	} else {
		long, ok = r.btn.release(now)
	}
	r.mu.Unlock()

	var fn func()
	switch {
	case !ok:
	case long:
		fn = r.handlers.OnLongPress
	default:
		fn = r.handlers.OnPress
	}
	if fn != nil {
		fn()
	}
}

func (r *Rotary) onBack(gpiocdev.LineEvent) {
	if r.handlers.OnBack != nil {
		r.handlers.OnBack()
	}
}

// Position returns the net number of detents turned since New.
func (r *Rotary) Position() int64 {
	return r.pos.Load()
}

// Release closes every requested line.
func (r *Rotary) Release() error {
	for _, l := range r.lines {
		l.Close()
	}
	r.lines = nil
	return nil
}
