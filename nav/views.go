package nav

import (
	"fmt"
	"strings"

	"gostepper/binding"
	"gostepper/view"
)

// View builds the render model of the current screen.
func (c *Controller) View() view.View {
	switch c.screen {
	case SelectStepPin, SelectDirectionPin:
		return c.selectView()
	case StepRun:
		return c.runView()
	}
	return c.menuView()
}

func (c *Controller) menuView() view.View {
	items := make([]string, len(c.menu))
	for i, m := range c.menu {
		items[i] = m.label()
	}
	return view.View{
		Title:  "Stepper",
		Items:  items,
		Cursor: c.cursor,
		Status: c.footer(),
	}
}

func (c *Controller) selectView() view.View {
	role, _ := c.screen.role()
	title := "Step Pin"
	if role == binding.Direction {
		title = "Dir Pin"
	}
	ids := c.reg.Candidates(role)
	items := make([]string, len(ids))
	for i, id := range ids {
		items[i] = id.String()
	}
	status := c.footer()
	if c.notice == "" && c.cursor < len(ids) {
		if other, ok := c.reg.Exchanges(role, ids[c.cursor]); ok {
			cur, _ := c.reg.Current(role)
			status = fmt.Sprintf("%s moves to %s", other, cur)
		}
	}
	return view.View{
		Title:  title,
		Items:  items,
		Cursor: c.cursor,
		Status: status,
	}
}

func (c *Controller) runView() view.View {
	v := view.View{
		Title:  "Stepping",
		Prompt: RunPrompt,
		Button: StopButton,
	}
	if _, ok := c.reg.Current(binding.Direction); ok {
		if c.forward {
			v.Status = "DIR forward"
		} else {
			v.Status = "DIR reverse"
		}
	}
	return v
}

// footer shows the notice if there is one, otherwise the current bindings.
func (c *Controller) footer() string {
	if c.notice != "" {
		return c.notice
	}
	var parts []string
	for _, role := range binding.Roles() {
		if id, ok := c.reg.Current(role); ok {
			parts = append(parts, fmt.Sprintf("%s %s", role, id))
		}
	}
	return strings.Join(parts, "  ")
}
