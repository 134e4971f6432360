// Package eventpipe accepts key commands written to a named pipe, so scripts
// can drive the menu with e.g. `echo confirm > /tmp/gostepper-keys`.
package eventpipe

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"syscall"

	"gostepper/input"
)

// Config selects the FIFO path. An empty path disables the pipe.
type Config struct {
	Path string `yaml:"path"`
}

// Handler receives each parsed command.
type Handler func(input.Event)

// Pipe reads commands from a FIFO, one per line:
//
//	up | down | confirm | ok | enter | back | esc
//	key <name> [short|long|repeat]
//
// Blank lines and lines starting with # are skipped.
type Pipe struct {
	path    string
	handler Handler

	closed    chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// New creates the FIFO at cfg.Path, replacing any file already there.
// It returns nil, nil when no path is configured.
func New(cfg Config, handler Handler) (*Pipe, error) {
	if cfg.Path == "" {
		return nil, nil
	}
	if err := os.Remove(cfg.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("remove stale %s: %w", cfg.Path, err)
	}
	if err := syscall.Mkfifo(cfg.Path, 0o666); err != nil {
		return nil, fmt.Errorf("mkfifo %s: %w", cfg.Path, err)
	}
	return &Pipe{
		path:    cfg.Path,
		handler: handler,
		closed:  make(chan struct{}),
		done:    make(chan struct{}),
	}, nil
}

func (p *Pipe) isClosed() bool {
	select {
	case <-p.closed:
		return true
	default:
		return false
	}
}

// Start serves writers one after another until Close. It blocks; run it on
// its own goroutine.
func (p *Pipe) Start() {
	defer close(p.done)
	log.Printf("EventPipe: listening on %s", p.path)

	for !p.isClosed() {
		// Opening a FIFO for reading blocks until a writer appears.
		f, err := os.OpenFile(p.path, os.O_RDONLY, 0)
		if err != nil {
			if !p.isClosed() {
				log.Printf("EventPipe: open: %v", err)
			}
			return
		}
		p.dispatch(f)
		f.Close()
	}
}

// dispatch parses r line by line until EOF or Close.
func (p *Pipe) dispatch(r io.Reader) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if p.isClosed() {
			return
		}
		line := strings.TrimSpace(sc.Text())
		if line == "" || line[0] == '#' {
			continue
		}
		ev, err := input.ParseCommand(line)
		if err != nil {
			log.Printf("EventPipe: %v", err)
			continue
		}
		if p.handler != nil {
			p.handler(ev)
		}
	}
	if err := sc.Err(); err != nil {
		log.Printf("EventPipe: read: %v", err)
	}
}

// Close stops Start and removes the FIFO.
func (p *Pipe) Close() error {
	p.closeOnce.Do(func() { close(p.closed) })

	// A non-blocking writer open releases a reader stuck in OpenFile.
	if w, err := os.OpenFile(p.path, os.O_WRONLY|syscall.O_NONBLOCK, 0); err == nil {
		w.Close()
	}
	return os.Remove(p.path)
}

// Done is closed once Start has returned.
func (p *Pipe) Done() <-chan struct{} {
	return p.done
}
