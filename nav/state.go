package nav

import (
	"fmt"
	"strings"

	"gostepper/binding"
)

// Screen is the screen currently shown.
type Screen int

const (
	Menu Screen = iota
	SelectStepPin
	SelectDirectionPin
	StepRun
)

func (s Screen) String() string {
	switch s {
	case Menu:
		return "menu"
	case SelectStepPin:
		return "select-step"
	case SelectDirectionPin:
		return "select-dir"
	case StepRun:
		return "run"
	default:
		return fmt.Sprintf("screen(%d)", int(s))
	}
}

// role returns the role a selection screen rebinds.
func (s Screen) role() (binding.Role, bool) {
	switch s {
	case SelectStepPin:
		return binding.Step, true
	case SelectDirectionPin:
		return binding.Direction, true
	}
	return 0, false
}

// RunState reports whether the motor is being stepped.
type RunState int

const (
	Idle RunState = iota
	Stepping
)

func (r RunState) String() string {
	if r == Stepping {
		return "stepping"
	}
	return "idle"
}

// MarshalText lets RunState appear by name in JSON status.
func (r RunState) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// MarshalText lets Screen appear by name in JSON status.
func (s Screen) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Status is a snapshot of the controller, passed to Handlers.OnChange.
type Status struct {
	Screen    Screen   `json:"screen"`
	State     RunState `json:"state"`
	Step      string   `json:"step,omitempty"`
	Direction string   `json:"direction,omitempty"`
	Forward   bool     `json:"forward"`
	Pulses    uint64   `json:"pulses"`
	Error     string   `json:"error,omitempty"`
	Closed    bool     `json:"closed,omitempty"`
}

func (s Status) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s/%s", s.Screen, s.State)
	if s.Step != "" {
		fmt.Fprintf(&b, " STEP=%s", s.Step)
	}
	if s.Direction != "" {
		fmt.Fprintf(&b, " DIR=%s", s.Direction)
	}
	if s.Error != "" {
		fmt.Fprintf(&b, " err=%q", s.Error)
	}
	return b.String()
}

type menuItem int

const (
	itemGo menuItem = iota
	itemStepPin
	itemDirPin
)

func (m menuItem) label() string {
	switch m {
	case itemGo:
		return "Go!"
	case itemStepPin:
		return "Step Pin"
	case itemDirPin:
		return "Dir Pin"
	}
	return ""
}
