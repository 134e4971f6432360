// Package view holds the render model shared by every display back end.
package view

import (
	"fmt"
	"log"
	"strings"
	"sync"
)

// View is everything a renderer needs to draw one screen.
type View struct {
	Title  string
	Items  []string // selectable rows; empty on the run screen
	Cursor int      // index into Items
	Prompt string
	Button string // label of the on-screen control, e.g. "Stop"
	Status string // one-line footer: bindings, direction, errors
}

// Selected returns the item under the cursor, or "" if there is none.
func (v View) Selected() string {
	if v.Cursor < 0 || v.Cursor >= len(v.Items) {
		return ""
	}
	return v.Items[v.Cursor]
}

// Lines renders v as plain text, one row per line, with "> " marking the
// cursor.
func (v View) Lines() []string {
	lines := []string{v.Title}
	for i, item := range v.Items {
		mark := "  "
		if i == v.Cursor {
			mark = "> "
		}
		lines = append(lines, mark+item)
	}
	if v.Prompt != "" {
		lines = append(lines, v.Prompt)
	}
	if v.Button != "" {
		lines = append(lines, "["+v.Button+"]")
	}
	if v.Status != "" {
		lines = append(lines, v.Status)
	}
	return lines
}

func (v View) String() string {
	return strings.Join(v.Lines(), "\n")
}

// Renderer draws views.
type Renderer interface {
	Show(v View)
}

// Noop discards views.
type Noop struct{}

// Show implements Renderer.
func (Noop) Show(View) {}

// Multi shows each view on several renderers.
type Multi []Renderer

// Show implements Renderer.
func (m Multi) Show(v View) {
	for _, r := range m {
		r.Show(v)
	}
}

// Log writes each view to the standard logger on one line.
type Log struct{}

// Show implements Renderer.
func (Log) Show(v View) {
	var b strings.Builder
	b.WriteString(v.Title)
	for i, item := range v.Items {
		if i == v.Cursor {
			fmt.Fprintf(&b, " [%s]", item)
		} else {
			fmt.Fprintf(&b, " %s", item)
		}
	}
	if v.Prompt != "" {
		fmt.Fprintf(&b, " | %s", v.Prompt)
	}
	if v.Status != "" {
		fmt.Fprintf(&b, " | %s", v.Status)
	}
	log.Printf("View: %s", b.String())
}

// Recorder keeps every view it is shown. Safe for concurrent use.
type Recorder struct {
	mu    sync.Mutex
	views []View
}

// Show implements Renderer.
func (r *Recorder) Show(v View) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v.Items = append([]string(nil), v.Items...)
	r.views = append(r.views, v)
}

// Last returns the most recent view.
func (r *Recorder) Last() (View, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.views) == 0 {
		return View{}, false
	}
	return r.views[len(r.views)-1], true
}

// Count returns how many views were shown.
func (r *Recorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.views)
}
