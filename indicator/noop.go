package indicator

// Noop shows nothing. New returns it when no LEDs are configured.
type Noop struct{}

func (*Noop) Idle()           {}
func (*Noop) Stepping()       {}
func (*Noop) Fault()          {}
func (*Noop) ConnectionLost() {}
func (*Noop) Connected()      {}
func (*Noop) Shutdown()       {}
func (*Noop) Release() error  { return nil }
