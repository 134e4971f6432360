//go:build !screen

package video

import "gostepper/view"

// ScreenSupported is false: this build has no framebuffer output.
func ScreenSupported() bool { return false }

// Display stands in for the framebuffer renderer. New never returns one.
type Display struct{}

func New(Config) (*Display, error) { return nil, ErrScreenNotCompiled }

func (*Display) Show(view.View) {}
func (*Display) Release() error { return nil }
func (*Display) Width() int     { return 0 }
func (*Display) Height() int    { return 0 }
