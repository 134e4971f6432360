package indicator

// Multi combines multiple Indicator implementations.
type Multi []Indicator

// Idle implements Indicator.Idle.
func (m Multi) Idle() {
	for _, ind := range m {
		ind.Idle()
	}
}

// Stepping implements Indicator.Stepping.
func (m Multi) Stepping() {
	for _, ind := range m {
		ind.Stepping()
	}
}

// Fault implements Indicator.Fault.
func (m Multi) Fault() {
	for _, ind := range m {
		ind.Fault()
	}
}

// ConnectionLost implements Indicator.ConnectionLost.
func (m Multi) ConnectionLost() {
	for _, ind := range m {
		ind.ConnectionLost()
	}
}

// Connected implements Indicator.Connected.
func (m Multi) Connected() {
	for _, ind := range m {
		ind.Connected()
	}
}

// Shutdown implements Indicator.Shutdown.
func (m Multi) Shutdown() {
	for _, ind := range m {
		ind.Shutdown()
	}
}

// Release implements Indicator.Release.
func (m Multi) Release() error {
	var lastErr error
	for _, ind := range m {
		if err := ind.Release(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}
