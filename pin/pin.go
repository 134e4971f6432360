package pin

import (
	"errors"
	"fmt"
	"strings"
)

// ID identifies one of the candidate header pins.
type ID int

const (
	A7 ID = iota
	A6
	A4
	B3
	B2
	C3
	C1
	C0

	// NumPins is the size of the candidate set.
	NumPins
)

var labels = [NumPins]string{"A7", "A6", "A4", "B3", "B2", "C3", "C1", "C0"}

// ErrUnknownPin is returned when a label does not name a candidate pin.
var ErrUnknownPin = errors.New("unknown pin")

// String returns the short header label, e.g. "B2".
func (id ID) String() string {
	if !id.Valid() {
		return fmt.Sprintf("pin(%d)", int(id))
	}
	return labels[id]
}

// Valid reports whether id names a candidate pin.
func (id ID) Valid() bool {
	return id >= 0 && id < NumPins
}

// Parse converts a header label (case-insensitive) to an ID.
func Parse(label string) (ID, error) {
	l := strings.ToUpper(strings.TrimSpace(label))
	for i, name := range labels {
		if name == l {
			return ID(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownPin, label)
}

// ParseList converts a list of labels. An empty list yields every pin.
func ParseList(list []string) ([]ID, error) {
	if len(list) == 0 {
		return All(), nil
	}
	ids := make([]ID, 0, len(list))
	for _, s := range list {
		id, err := Parse(s)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// All returns every candidate pin in header order.
func All() []ID {
	ids := make([]ID, NumPins)
	for i := range ids {
		ids[i] = ID(i)
	}
	return ids
}

// Mode is the electrical mode of a line.
type Mode int

const (
	// HighImpedance neither drives nor pulls the line.
	HighImpedance Mode = iota
	// Output drives the line push-pull.
	Output
)

func (m Mode) String() string {
	switch m {
	case HighImpedance:
		return "high-z"
	case Output:
		return "output"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Driver is the raw line-level GPIO interface. Each call is atomic with
// respect to the line it addresses.
type Driver interface {
	// SetMode configures the electrical mode of a line.
	SetMode(line int, mode Mode) error

	// Write sets the output level of a line. Writing a line that is not an
	// output presets the level it will drive once switched to Output.
	Write(line int, high bool) error

	// Close releases the driver. Lines still requested are returned to
	// high impedance.
	Close() error
}
