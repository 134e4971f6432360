package reader

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/tarm/serial"

	"gostepper/input"
)

// Serial implements KeyReader for keypads that send one text command per
// line, e.g. "up" or "key confirm long".
type Serial struct {
	port    io.ReadCloser
	device  string
	pending []byte
}

// NewSerial opens a line-oriented serial keypad.
func NewSerial(device string, baud int) (*Serial, error) {
	if baud == 0 {
		baud = 115200
	}
	c := &serial.Config{
		Name:        device,
		Baud:        baud,
		ReadTimeout: 100 * time.Millisecond,
	}
	port, err := serial.OpenPort(c)
	if err != nil {
		return nil, fmt.Errorf("open serial %s: %w", device, err)
	}

	return &Serial{port: port, device: device}, nil
}

// Read implements KeyReader.Read. Lines that do not parse are logged and
// skipped.
func (s *Serial) Read(ctx context.Context) (input.Event, error) {
	buf := make([]byte, 64)
	for {
		for {
			line, ok := s.nextLine()
			if !ok {
				break
			}
			line = bytes.TrimSpace(line)
			if len(line) == 0 || line[0] == '#' {
				continue
			}
			ev, err := input.ParseCommand(string(line))
			if err != nil {
				log.Printf("Serial: %s: %v", s.device, err)
				continue
			}
			return ev, nil
		}

		select {
		case <-ctx.Done():
			return input.Event{}, ctx.Err()
		default:
		}

		n, err := s.port.Read(buf)
		s.pending = append(s.pending, buf[:n]...)
		if err != nil && err != io.EOF {
			return input.Event{}, fmt.Errorf("read serial %s: %w", s.device, err)
		}
		if n == 0 {
			// Read timeout.
			time.Sleep(10 * time.Millisecond)
		}
	}
}

func (s *Serial) nextLine() ([]byte, bool) {
	i := bytes.IndexAny(s.pending, "\r\n")
	if i < 0 {
		return nil, false
	}
	line := append([]byte(nil), s.pending[:i]...)
	s.pending = s.pending[i+1:]
	return line, true
}

// Close implements KeyReader.Close.
func (s *Serial) Close() error {
	if s.port == nil {
		return nil
	}
	return s.port.Close()
}
