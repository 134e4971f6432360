// Package input carries key presses from the key sources to the dispatch
// loop.
package input

import (
	"errors"
	"fmt"
	"strings"
)

// Key is a logical key.
type Key int

const (
	Up Key = iota
	Down
	Confirm
	Back
)

func (k Key) String() string {
	switch k {
	case Up:
		return "up"
	case Down:
		return "down"
	case Confirm:
		return "confirm"
	case Back:
		return "back"
	default:
		return fmt.Sprintf("key(%d)", int(k))
	}
}

// Press is the kind of press.
type Press int

const (
	Short Press = iota
	Long
	Repeat
)

func (p Press) String() string {
	switch p {
	case Short:
		return "short"
	case Long:
		return "long"
	case Repeat:
		return "repeat"
	default:
		return fmt.Sprintf("press(%d)", int(p))
	}
}

// Event is a single key press.
type Event struct {
	Key   Key
	Press Press
}

func (e Event) String() string {
	return e.Key.String() + "/" + e.Press.String()
}

// Press helpers for the common case.
var (
	UpPress      = Event{Key: Up}
	DownPress    = Event{Key: Down}
	ConfirmPress = Event{Key: Confirm}
	BackPress    = Event{Key: Back}
)

var ErrBadCommand = errors.New("bad key command")

// ParseKey converts a key name to a Key.
func ParseKey(name string) (Key, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "up", "u":
		return Up, nil
	case "down", "d":
		return Down, nil
	case "confirm", "ok", "enter":
		return Confirm, nil
	case "back", "esc", "escape":
		return Back, nil
	}
	return 0, fmt.Errorf("%w: unknown key %q", ErrBadCommand, name)
}

// ParsePress converts a press name to a Press. An empty name is Short.
func ParsePress(name string) (Press, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "short":
		return Short, nil
	case "long":
		return Long, nil
	case "repeat":
		return Repeat, nil
	}
	return 0, fmt.Errorf("%w: unknown press %q", ErrBadCommand, name)
}

// ParseCommand parses a text key command. Accepted forms:
//
//	key <name> [short|long|repeat]
//	<name>
func ParseCommand(line string) (Event, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Event{}, fmt.Errorf("%w: empty", ErrBadCommand)
	}
	if strings.EqualFold(fields[0], "key") {
		fields = fields[1:]
		if len(fields) == 0 || len(fields) > 2 {
			return Event{}, fmt.Errorf("%w: %q", ErrBadCommand, line)
		}
	} else if len(fields) != 1 {
		return Event{}, fmt.Errorf("%w: %q", ErrBadCommand, line)
	}

	k, err := ParseKey(fields[0])
	if err != nil {
		return Event{}, err
	}
	var p Press
	if len(fields) == 2 {
		if p, err = ParsePress(fields[1]); err != nil {
			return Event{}, err
		}
	}
	return Event{Key: k, Press: p}, nil
}
