// Package console is a terminal front end: it draws views with bubbletea and
// turns keystrokes into input events.
package console

import (
	"strings"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"gostepper/input"
	"gostepper/view"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	cursorStyle   = lipgloss.NewStyle().Reverse(true)
	promptStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	buttonStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 2)
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	screenStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	helpLine      = "↑/k up  ↓/j down  enter select  esc back  ctrl+c quit"
	defaultLayout = 24
)

// keys maps bubbletea key names to keypad keys.
var keys = map[string]input.Key{
	"up":        input.Up,
	"k":         input.Up,
	"down":      input.Down,
	"j":         input.Down,
	"enter":     input.Confirm,
	" ":         input.Confirm,
	"space":     input.Confirm,
	"esc":       input.Back,
	"backspace": input.Back,
	"q":         input.Back,
}

type viewMsg view.View

type model struct {
	push      func(input.Event)
	interrupt func()
	v         view.View
	width     int
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case viewMsg:
		m.v = view.View(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case tea.KeyMsg:
		s := msg.String()
		if s == "ctrl+c" {
			if m.interrupt != nil {
				m.interrupt()
			}
			return m, nil
		}
		if k, ok := keys[s]; ok && m.push != nil {
			m.push(input.Event{Key: k, Press: input.Short})
		}
	}
	return m, nil
}

func (m model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.v.Title))
	b.WriteString("\n\n")
	for i, item := range m.v.Items {
		if i == m.v.Cursor {
			b.WriteString(cursorStyle.Render("> " + item))
		} else {
			b.WriteString("  " + item)
		}
		b.WriteString("\n")
	}
	if m.v.Prompt != "" {
		b.WriteString(promptStyle.Render(m.v.Prompt))
		b.WriteString("\n")
	}
	if m.v.Button != "" {
		b.WriteString(buttonStyle.Render(m.v.Button))
		b.WriteString("\n")
	}
	if m.v.Status != "" {
		b.WriteString("\n")
		b.WriteString(statusStyle.Render(m.v.Status))
	}

	w := m.width - screenStyle.GetHorizontalFrameSize()
	if w < defaultLayout {
		w = defaultLayout
	}
	return screenStyle.Width(w).Render(b.String()) + "\n" + helpStyle.Render(helpLine) + "\n"
}

// Console implements view.Renderer on the controlling terminal.
type Console struct {
	prog    *tea.Program
	pending chan view.View
	done    chan struct{}
	err     error
	wg      sync.WaitGroup
	once    sync.Once
	started bool
}

// New creates the console. Key presses are passed to push in the order they
// are typed; ctrl+c calls interrupt.
func New(push func(input.Event), interrupt func(), opts ...tea.ProgramOption) *Console {
	m := model{push: push, interrupt: interrupt}
	return &Console{
		prog:    tea.NewProgram(m, opts...),
		pending: make(chan view.View, 1),
		done:    make(chan struct{}),
	}
}

// Start runs the terminal program in the background.
func (c *Console) Start() {
	c.started = true
	go func() {
		_, c.err = c.prog.Run()
		close(c.done)
	}()
	c.wg.Add(1)
	go c.forward()
}

// Done is closed when the terminal program exits.
func (c *Console) Done() <-chan struct{} {
	return c.done
}

// Show implements view.Renderer. It never waits on the terminal.
func (c *Console) Show(v view.View) {
	v.Items = append([]string(nil), v.Items...)
	select {
	case c.pending <- v:
		return
	default:
	}
	select {
	case <-c.pending:
	default:
	}
	select {
	case c.pending <- v:
	default:
	}
}

func (c *Console) forward() {
	defer c.wg.Done()
	for v := range c.pending {
		c.prog.Send(viewMsg(v))
	}
}

// Release quits the terminal program and restores the terminal.
func (c *Console) Release() error {
	c.once.Do(func() {
		close(c.pending)
		c.wg.Wait()
		if !c.started {
			return
		}
		c.prog.Quit()
		<-c.done
	})
	return c.err
}
