package indicator

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// Patterns understood by the neopixel helper: "@<mode> [!<period>] <rgb>".
const (
	neoConnectionLost = "@2 !150000 001010"
	neoNormalIdle     = "@3 !150000 400000"
	neoStepping       = "@1 !50000 8000"
	neoFault          = "@2 !10000 ff"
	neoTerminated     = "@0 010101"
)

// Neopixel drives an LED strip through the FIFO of an external helper
// process. Until Connected is called, Idle shows the connection-lost pattern.
type Neopixel struct {
	mu     sync.Mutex
	w      io.WriteCloser // nil after Release
	online bool
}

// NewNeopixel opens the helper's FIFO. O_RDWR keeps the open from blocking
// when the helper is not yet reading.
func NewNeopixel(path string) (*Neopixel, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open neopixel pipe %s: %w", path, err)
	}
	return &Neopixel{w: f}, nil
}

func (n *Neopixel) send(pattern string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sendLocked(pattern)
}

func (n *Neopixel) sendLocked(pattern string) {
	if n.w == nil {
		return
	}
	io.WriteString(n.w, pattern+"\n")
}

func (n *Neopixel) Idle() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.online {
		n.sendLocked(neoNormalIdle)
	} else {
		n.sendLocked(neoConnectionLost)
	}
}

func (n *Neopixel) Stepping() { n.send(neoStepping) }
func (n *Neopixel) Fault()    { n.send(neoFault) }
func (n *Neopixel) Shutdown() { n.send(neoTerminated) }

func (n *Neopixel) ConnectionLost() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.online = false
	n.sendLocked(neoConnectionLost)
}

func (n *Neopixel) Connected() {
	n.mu.Lock()
	n.online = true
	n.mu.Unlock()
}

func (n *Neopixel) Release() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.w == nil {
		return nil
	}
	err := n.w.Close()
	n.w = nil
	return err
}
