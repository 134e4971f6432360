package reader

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/kenshaw/evdev"

	"gostepper/input"
)

// Linux input key codes.
const (
	codeEscape    = 1
	codeBackspace = 14
	codeEnter     = 28
	codeSpace     = 57
	codeUp        = 103
	codeDown      = 108
)

// Key values reported by evdev.
const (
	valueRelease = 0
	valuePress   = 1
	valueRepeat  = 2
)

// Keyboard implements KeyReader for a keypad or keyboard input device.
// Arrow keys move, Enter or Space confirms, Escape or Backspace goes back.
type Keyboard struct {
	device *evdev.Evdev
	keys   keyState
}

// NewKeyboard opens the input device.
func NewKeyboard(device string, longPress time.Duration) (*Keyboard, error) {
	dev, err := evdev.OpenFile(device)
	if err != nil {
		return nil, fmt.Errorf("open evdev %s: %w", device, err)
	}

	log.Printf("Keyboard: opened %s", dev.Name())
	log.Printf("Keyboard: vendor 0x%04x, product 0x%04x", dev.ID().Vendor, dev.ID().Product)

	return &Keyboard{
		device: dev,
		keys:   newKeyState(longPress),
	}, nil
}

// Read implements KeyReader.Read.
func (k *Keyboard) Read(ctx context.Context) (input.Event, error) {
	ch := k.device.Poll(ctx)
	for {
		select {
		case <-ctx.Done():
			return input.Event{}, ctx.Err()
		case event := <-ch:
			if event == nil {
				return input.Event{}, fmt.Errorf("keyboard device closed")
			}
			if _, ok := event.Type.(evdev.KeyType); !ok {
				continue
			}
			if ev, ok := k.keys.feed(event.Code, event.Value, time.Now()); ok {
				return ev, nil
			}
		}
	}
}

// Close implements KeyReader.Close.
func (k *Keyboard) Close() error {
	if k.device == nil {
		return nil
	}
	return k.device.Close()
}

// keyState turns raw press/release/repeat values into key events. A press
// is reported on release, as Long if it was held past longPress.
type keyState struct {
	longPress time.Duration
	down      map[input.Key]time.Time
}

func newKeyState(longPress time.Duration) keyState {
	return keyState{longPress: longPress, down: make(map[input.Key]time.Time)}
}

func mapKey(code uint16) (input.Key, bool) {
	switch code {
	case codeUp:
		return input.Up, true
	case codeDown:
		return input.Down, true
	case codeEnter, codeSpace:
		return input.Confirm, true
	case codeEscape, codeBackspace:
		return input.Back, true
	}
	return 0, false
}

func (s *keyState) feed(code uint16, value int32, now time.Time) (input.Event, bool) {
	key, ok := mapKey(code)
	if !ok {
		return input.Event{}, false
	}
	switch value {
	case valuePress:
		s.down[key] = now
	case valueRepeat:
		return input.Event{Key: key, Press: input.Repeat}, true
	case valueRelease:
		at, held := s.down[key]
		if !held {
			return input.Event{}, false
		}
		delete(s.down, key)
		if now.Sub(at) >= s.longPress {
			return input.Event{Key: key, Press: input.Long}, true
		}
		return input.Event{Key: key, Press: input.Short}, true
	}
	return input.Event{}, false
}
