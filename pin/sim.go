package pin

import (
	"log"
	"sync"
	"time"
)

// Op is the kind of a recorded driver call.
type Op int

const (
	OpMode Op = iota
	OpWrite
)

// Transition is one recorded driver call.
type Transition struct {
	Line int
	Op   Op
	Mode Mode // OpMode only
	High bool // OpWrite only
	At   time.Time
}

// Sim implements Driver in memory and records every call. It backs the
// "sim" driver type and the package tests.
//
// Sim is safe for concurrent use so tests may inspect it while a dispatch
// loop is running.
type Sim struct {
	mu      sync.Mutex
	modes   map[int]Mode
	levels  map[int]bool
	rising  map[int]int
	trace   []Transition
	Verbose bool // log every mode change
	closed  bool
}

// NewSim returns an empty simulated driver. Every line starts high impedance
// and low.
func NewSim() *Sim {
	return &Sim{
		modes:  make(map[int]Mode),
		levels: make(map[int]bool),
		rising: make(map[int]int),
	}
}

// SetMode implements Driver.SetMode.
func (s *Sim) SetMode(line int, mode Mode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.modes[line] = mode
	s.trace = append(s.trace, Transition{Line: line, Op: OpMode, Mode: mode, At: time.Now()})
	if s.Verbose {
		log.Printf("Sim: line %d -> %v", line, mode)
	}
	return nil
}

// Write implements Driver.Write.
func (s *Sim) Write(line int, high bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if high && !s.levels[line] && s.modes[line] == Output {
		s.rising[line]++
	}
	s.levels[line] = high
	s.trace = append(s.trace, Transition{Line: line, Op: OpWrite, High: high, At: time.Now()})
	return nil
}

// Close implements Driver.Close.
func (s *Sim) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for line, m := range s.modes {
		if m == Output {
			s.modes[line] = HighImpedance
			s.trace = append(s.trace, Transition{Line: line, Op: OpMode, Mode: HighImpedance, At: time.Now()})
		}
	}
	s.closed = true
	return nil
}

// Mode returns the current mode of line.
func (s *Sim) Mode(line int) Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.modes[line]
}

// Level returns the last level written to line.
func (s *Sim) Level(line int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.levels[line]
}

// Rising returns the number of low-to-high edges driven on line.
func (s *Sim) Rising(line int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rising[line]
}

// Trace returns a copy of every recorded call.
func (s *Sim) Trace() []Transition {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Transition, len(s.trace))
	copy(out, s.trace)
	return out
}

// ResetTrace discards the recorded calls but keeps line state.
func (s *Sim) ResetTrace() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trace = nil
}

// Closed reports whether Close has been called.
func (s *Sim) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
