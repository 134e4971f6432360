// Package nav is the menu state machine. A Controller owns the screen, the
// run state, the pin registry and the pulse scheduler, and mutates them only
// from its dispatch loop.
package nav

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"gostepper/binding"
	"gostepper/input"
	"gostepper/pin"
	"gostepper/pulse"
	"gostepper/view"
)

// Text shown on screen.
const (
	RunPrompt      = "Press the Button below"
	StopButton     = "Stop"
	PinUnavailable = "Pin unavailable"
)

// Config holds the pulse timing used when stepping starts.
type Config struct {
	Period     time.Duration
	PulseWidth time.Duration
}

// Handlers are optional callbacks.
type Handlers struct {
	// OnChange is called on the dispatch goroutine after every state change.
	OnChange func(Status)
}

// Controller drives the menu.
type Controller struct {
	reg      *binding.Registry
	sched    *pulse.Scheduler
	queue    *input.Queue
	out      view.Renderer
	cfg      Config
	handlers Handlers

	screen     Screen
	state      RunState
	menu       []menuItem
	cursor     int
	menuCursor int
	forward    bool
	notice     string
	closed     bool
}

// New creates a controller showing the menu. The registry should already
// hold the default bindings.
func New(reg *binding.Registry, sched *pulse.Scheduler, queue *input.Queue, out view.Renderer, cfg Config, handlers Handlers) *Controller {
	if out == nil {
		out = view.Noop{}
	}
	if cfg.Period <= 0 {
		cfg.Period = pulse.DefaultPeriod
	}
	if cfg.PulseWidth <= 0 {
		cfg.PulseWidth = pulse.DefaultPulseWidth
	}
	c := &Controller{
		reg:      reg,
		sched:    sched,
		queue:    queue,
		out:      out,
		cfg:      cfg,
		handlers: handlers,
		menu:     []menuItem{itemGo, itemStepPin},
	}
	if reg.Enabled(binding.Direction) {
		c.menu = append(c.menu, itemDirPin)
	}
	return c
}

// Screen returns the current screen.
func (c *Controller) Screen() Screen { return c.screen }

// State returns the current run state.
func (c *Controller) State() RunState { return c.state }

// Cursor returns the cursor position on the current list screen.
func (c *Controller) Cursor() int { return c.cursor }

// Status returns a snapshot of the controller. Like every other method it
// must be called from the dispatch goroutine; other goroutines should use
// Handlers.OnChange.
func (c *Controller) Status() Status {
	s := Status{
		Screen:  c.screen,
		State:   c.state,
		Forward: c.forward,
		Pulses:  c.sched.Pulses(),
		Error:   c.notice,
		Closed:  c.closed,
	}
	if id, ok := c.reg.Current(binding.Step); ok {
		s.Step = id.String()
	}
	if id, ok := c.reg.Current(binding.Direction); ok {
		s.Direction = id.String()
	}
	return s
}

// Run shows the menu and dispatches events until Back is pressed on the menu
// or ctx ends. The pins are released before Run returns.
func (c *Controller) Run(ctx context.Context) error {
	defer c.Shutdown()
	c.refresh()

	for {
		if c.state == Stepping && c.sched.Strategy() == pulse.Poll {
			if done, err := c.pollOnce(ctx); done || err != nil {
				return err
			}
			continue
		}

		select {
		case <-ctx.Done():
			log.Printf("Nav: %v", ctx.Err())
			return ctx.Err()
		case <-c.sched.C():
			if err := c.sched.Tick(); err != nil {
				log.Printf("Nav: pulse: %v", err)
			}
		case ev := <-c.queue.C():
			if c.handle(ev) {
				return nil
			}
		}
	}
}

// pollOnce runs one pass of the poll strategy: pulse if due, then take any
// queued event without waiting.
func (c *Controller) pollOnce(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		log.Printf("Nav: %v", err)
		return true, err
	}
	if _, err := c.sched.Poll(time.Now()); err != nil {
		log.Printf("Nav: pulse: %v", err)
	}
	if ev, ok := c.queue.Pop(input.NoWait); ok {
		return c.handle(ev), nil
	}
	return false, nil
}

func (c *Controller) handle(ev input.Event) bool {
	done, err := c.Dispatch(ev)
	if err != nil {
		log.Printf("Nav: %s on %s: %v", ev, c.screen, err)
	}
	return done
}

// Dispatch applies one event. It reports done when the application should
// exit; the pins have then already been released. Only short presses act.
func (c *Controller) Dispatch(ev input.Event) (done bool, err error) {
	if c.closed {
		return true, nil
	}
	if ev.Press != input.Short {
		return false, nil
	}

	switch c.screen {
	case Menu:
		return c.dispatchMenu(ev)
	case SelectStepPin, SelectDirectionPin:
		return false, c.dispatchSelect(ev)
	case StepRun:
		return false, c.dispatchRun(ev)
	}
	return false, fmt.Errorf("unknown screen %v", c.screen)
}

func (c *Controller) dispatchMenu(ev input.Event) (bool, error) {
	switch ev.Key {
	case input.Up, input.Down:
		c.move(ev.Key, len(c.menu))
		c.refresh()
	case input.Back:
		log.Printf("Nav: exit requested")
		return true, c.Shutdown()
	case input.Confirm:
		c.menuCursor = c.cursor
		c.notice = ""
		switch c.menu[c.cursor] {
		case itemGo:
			if err := c.sched.Arm(c.cfg.Period, c.cfg.PulseWidth); err != nil {
				c.notice = err.Error()
				c.refresh()
				return false, err
			}
			c.state = Stepping
			c.screen = StepRun
		case itemStepPin:
			c.openSelect(SelectStepPin)
		case itemDirPin:
			c.openSelect(SelectDirectionPin)
		}
		c.refresh()
	}
	return false, nil
}

func (c *Controller) openSelect(s Screen) {
	role, _ := s.role()
	c.screen = s
	c.cursor = 0
	if cur, ok := c.reg.Current(role); ok {
		for i, id := range c.reg.Candidates(role) {
			if id == cur {
				c.cursor = i
			}
		}
	}
}

func (c *Controller) dispatchSelect(ev input.Event) error {
	role, _ := c.screen.role()
	candidates := c.reg.Candidates(role)

	switch ev.Key {
	case input.Up, input.Down:
		c.move(ev.Key, len(candidates))
		c.refresh()
	case input.Back:
		c.backToMenu()
	case input.Confirm:
		if c.cursor >= len(candidates) {
			c.notice = PinUnavailable
			c.refresh()
			return fmt.Errorf("%w: no candidate at %d", binding.ErrInvalidSelection, c.cursor)
		}
		if err := c.bind(role, candidates[c.cursor]); err != nil {
			c.notice = PinUnavailable
			c.refresh()
			return err
		}
		c.backToMenu()
	}
	return nil
}

// bind rebinds role and leaves DIR low.
func (c *Controller) bind(role binding.Role, id pin.ID) error {
	if err := c.reg.Bind(role, id); err != nil {
		return err
	}
	c.forward = false
	if err := c.reg.Write(binding.Direction, false); err != nil && !errors.Is(err, binding.ErrUnbound) {
		log.Printf("Nav: reset direction: %v", err)
	}
	return nil
}

func (c *Controller) dispatchRun(ev input.Event) error {
	switch ev.Key {
	case input.Confirm, input.Back:
		// Disarm before the menu is drawn.
		c.sched.Disarm()
		c.state = Idle
		c.backToMenu()
	case input.Up, input.Down:
		forward := ev.Key == input.Up
		if err := c.reg.Write(binding.Direction, forward); err != nil {
			if errors.Is(err, binding.ErrUnbound) {
				return nil
			}
			return fmt.Errorf("set direction: %w", err)
		}
		c.forward = forward
		c.refresh()
	}
	return nil
}

func (c *Controller) backToMenu() {
	c.screen = Menu
	c.cursor = c.menuCursor
	c.notice = ""
	c.refresh()
}

// move steps the cursor with wraparound.
func (c *Controller) move(k input.Key, n int) {
	if n == 0 {
		return
	}
	if k == input.Up {
		c.cursor = (c.cursor - 1 + n) % n
	} else {
		c.cursor = (c.cursor + 1) % n
	}
}

// Shutdown stops stepping and releases every pin. Later calls do nothing.
func (c *Controller) Shutdown() error {
	if c.closed {
		return nil
	}
	c.closed = true
	c.sched.Disarm()
	c.state = Idle
	err := c.reg.ReleaseAll()
	if err != nil {
		log.Printf("Nav: release pins: %v", err)
	}
	c.notify()
	return err
}

// refresh redraws the current screen and reports the new status.
func (c *Controller) refresh() {
	c.out.Show(c.View())
	c.notify()
}

func (c *Controller) notify() {
	if c.handlers.OnChange != nil {
		c.handlers.OnChange(c.Status())
	}
}
