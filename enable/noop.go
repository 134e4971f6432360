package enable

// Noop implements Output but does nothing.
// Used when the driver's ENABLE input is hard-wired.
type Noop struct{}

// Enable implements Output.Enable.
func (n *Noop) Enable() error {
	return nil
}

// Disable implements Output.Disable.
func (n *Noop) Disable() error {
	return nil
}

// Release implements Output.Release.
func (n *Noop) Release() error {
	return nil
}
