// Package binding owns the mapping from logical driver signals (STEP,
// DIRECTION) to physical pins and performs the mode transitions that keep a
// pin from floating or contending while it changes hands.
//
// A Registry is owned by a single goroutine (the dispatch loop); it has no
// internal locking.
package binding

import (
	"errors"
	"fmt"
	"log"

	"gostepper/pin"
)

// Role is a logical signal of the stepper driver.
type Role int

const (
	Step Role = iota
	Direction

	numRoles
)

func (r Role) String() string {
	switch r {
	case Step:
		return "STEP"
	case Direction:
		return "DIR"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

// Roles returns every role.
func Roles() []Role {
	return []Role{Step, Direction}
}

var (
	// ErrInvalidSelection is returned when a pin is outside the role's
	// candidate set.
	ErrInvalidSelection = errors.New("invalid pin selection")

	// ErrPinClaimed is returned when the pin is held by another role and
	// the claim cannot be exchanged.
	ErrPinClaimed = errors.New("pin claimed by another role")

	// ErrUnbound is returned when writing to a role with no pin.
	ErrUnbound = errors.New("role not bound")
)

// Registry maps roles to pins.
type Registry struct {
	drv        pin.Driver
	board      pin.Board
	candidates [numRoles][]pin.ID
	bound      [numRoles]pin.ID
	isBound    [numRoles]bool
	modes      [pin.NumPins]pin.Mode
}

// New creates a registry with nothing bound. candidates lists the pins each
// role may use; a role missing from the map may not be bound at all.
func New(drv pin.Driver, board pin.Board, candidates map[Role][]pin.ID) *Registry {
	r := &Registry{drv: drv, board: board}
	for role, ids := range candidates {
		if role < 0 || role >= numRoles {
			continue
		}
		r.candidates[role] = append([]pin.ID(nil), ids...)
	}
	return r
}

// Candidates returns the pins role may be bound to.
func (r *Registry) Candidates(role Role) []pin.ID {
	if role < 0 || role >= numRoles {
		return nil
	}
	return append([]pin.ID(nil), r.candidates[role]...)
}

// Enabled reports whether role has any candidate pins.
func (r *Registry) Enabled(role Role) bool {
	return len(r.Candidates(role)) > 0
}

// Current returns the pin bound to role.
func (r *Registry) Current(role Role) (pin.ID, bool) {
	if role < 0 || role >= numRoles || !r.isBound[role] {
		return 0, false
	}
	return r.bound[role], true
}

// Owner returns the role bound to id.
func (r *Registry) Owner(id pin.ID) (Role, bool) {
	for _, role := range Roles() {
		if r.isBound[role] && r.bound[role] == id {
			return role, true
		}
	}
	return 0, false
}

// Exchanges reports whether binding id to role would move the other role
// that holds id onto role's current pin, and which role that is.
func (r *Registry) Exchanges(role Role, id pin.ID) (Role, bool) {
	other, claimed := r.Owner(id)
	if !claimed || other == role {
		return 0, false
	}
	old, hasOld := r.Current(role)
	if !hasOld || !r.isCandidate(other, old) {
		return 0, false
	}
	return other, true
}

// Mode returns the mode the registry last configured on id.
func (r *Registry) Mode(id pin.ID) pin.Mode {
	if !id.Valid() {
		return pin.HighImpedance
	}
	return r.modes[id]
}

// Line returns the platform line backing id.
func (r *Registry) Line(id pin.ID) int {
	return r.board.Line(id)
}

func (r *Registry) isCandidate(role Role, id pin.ID) bool {
	if role < 0 || role >= numRoles {
		return false
	}
	for _, c := range r.candidates[role] {
		if c == id {
			return true
		}
	}
	return false
}

// quiesce drives id low and then releases it.
func (r *Registry) quiesce(id pin.ID) error {
	line := r.board.Line(id)
	if err := r.drv.Write(line, false); err != nil {
		return fmt.Errorf("write %s low: %w", id, err)
	}
	if err := r.drv.SetMode(line, pin.HighImpedance); err != nil {
		return fmt.Errorf("release %s: %w", id, err)
	}
	r.modes[id] = pin.HighImpedance
	return nil
}

// drive presets id low and then makes it an output.
func (r *Registry) drive(id pin.ID) error {
	line := r.board.Line(id)
	if err := r.drv.Write(line, false); err != nil {
		return fmt.Errorf("preset %s low: %w", id, err)
	}
	if err := r.drv.SetMode(line, pin.Output); err != nil {
		return fmt.Errorf("drive %s: %w", id, err)
	}
	r.modes[id] = pin.Output
	return nil
}

// Bind assigns id to role. The previous pin of role is driven low and
// released before id is configured as an output. If id is held by the other
// role, the two roles exchange pins.
//
// On error the previous binding stays in effect.
func (r *Registry) Bind(role Role, id pin.ID) error {
	if !r.isCandidate(role, id) {
		return fmt.Errorf("%w: %s for %s", ErrInvalidSelection, id, role)
	}

	old, hasOld := r.Current(role)
	if hasOld && old == id {
		return nil
	}

	other, claimed := r.Exchanges(role, id)
	if owner, held := r.Owner(id); held && !claimed {
		return fmt.Errorf("%w: %s held by %s", ErrPinClaimed, id, owner)
	}

	var released []pin.ID
	if hasOld {
		released = append(released, old)
	}
	if claimed {
		released = append(released, id)
	}
	for _, p := range released {
		if err := r.quiesce(p); err != nil {
			r.restore()
			return fmt.Errorf("bind %s to %s: %w", role, id, err)
		}
	}

	if err := r.drive(id); err != nil {
		r.restore()
		return fmt.Errorf("bind %s to %s: %w", role, id, err)
	}
	if claimed {
		if err := r.drive(old); err != nil {
			if qerr := r.quiesce(id); qerr != nil {
				log.Printf("Binding: release %s after failed exchange: %v", id, qerr)
			}
			r.restore()
			return fmt.Errorf("bind %s to %s: %w", other, old, err)
		}
		r.bound[other] = old
		log.Printf("Binding: %s moved to %s", other, old)
	}

	r.bound[role] = id
	r.isBound[role] = true
	if hasOld {
		log.Printf("Binding: %s %s -> %s", role, old, id)
	} else {
		log.Printf("Binding: %s -> %s", role, id)
	}
	return nil
}

// restore re-drives every pin of the committed mapping. Used after a driver
// failure part way through a rebind.
func (r *Registry) restore() {
	for _, role := range Roles() {
		if !r.isBound[role] {
			continue
		}
		id := r.bound[role]
		if r.modes[id] == pin.Output {
			continue
		}
		if err := r.drive(id); err != nil {
			log.Printf("Binding: restore %s on %s: %v", role, id, err)
		}
	}
}

// Write sets the level of the pin currently bound to role.
func (r *Registry) Write(role Role, high bool) error {
	id, ok := r.Current(role)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnbound, role)
	}
	return r.drv.Write(r.board.Line(id), high)
}

// ReleaseAll drives every bound pin low, returns it to high impedance and
// clears the mapping.
func (r *Registry) ReleaseAll() error {
	var errs []error
	for _, role := range Roles() {
		if !r.isBound[role] {
			continue
		}
		id := r.bound[role]
		if err := r.quiesce(id); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", role, err))
		}
		r.isBound[role] = false
		log.Printf("Binding: released %s from %s", role, id)
	}
	return errors.Join(errs...)
}
