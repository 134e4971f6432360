package reader

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"go.bug.st/serial"

	"gostepper/input"
)

const (
	stx = 0x02
	etx = 0x03
)

// maxFrame bounds the payload of one frame.
const maxFrame = 32

type port interface {
	Read(p []byte) (int, error)
	Close() error
}

// Framed implements KeyReader for keypad controllers that wrap each command
// in STX ... ETX, e.g. "\x02key up\x03".
type Framed struct {
	port   port
	device string
}

// NewFramed opens a framed serial keypad.
func NewFramed(device string, baud int) (*Framed, error) {
	if baud == 0 {
		baud = 9600
	}

	mode := &serial.Mode{
		BaudRate: baud,
		Parity:   serial.NoParity,
		DataBits: 8,
		StopBits: serial.OneStopBit,
	}

	p, err := serial.Open(device, mode)
	if err != nil {
		return nil, fmt.Errorf("open serial %s: %w", device, err)
	}
	_ = p.SetReadTimeout(50 * time.Millisecond)

	return &Framed{port: p, device: device}, nil
}

// Read implements KeyReader.Read.
func (f *Framed) Read(ctx context.Context) (input.Event, error) {
	if f.port == nil {
		return input.Event{}, errors.New("port not initialized")
	}

	for {
		select {
		case <-ctx.Done():
			return input.Event{}, ctx.Err()
		default:
		}

		payload, err := f.readFrame()
		if err != nil {
			return input.Event{}, err
		}
		if payload == "" {
			time.Sleep(10 * time.Millisecond)
			continue
		}
		ev, err := input.ParseCommand(payload)
		if err != nil {
			log.Printf("Framed: %s: %v", f.device, err)
			continue
		}
		return ev, nil
	}
}

// readFrame returns the payload of one frame, or "" if no complete frame
// arrived before the read timeout.
func (f *Framed) readFrame() (string, error) {
	b := make([]byte, 1)
	n, err := f.port.Read(b)
	if err != nil {
		return "", fmt.Errorf("read STX: %w", err)
	}
	if n == 0 || b[0] != stx {
		return "", nil
	}

	var sb strings.Builder
	for {
		n, err := f.port.Read(b)
		if err != nil {
			return "", fmt.Errorf("read frame: %w", err)
		}
		if n == 0 {
			return "", nil
		}
		switch b[0] {
		case etx:
			return sb.String(), nil
		case stx:
			sb.Reset()
			continue
		}
		if sb.Len() >= maxFrame {
			return "", nil
		}
		sb.WriteByte(b[0])
	}
}

// Close implements KeyReader.Close.
func (f *Framed) Close() error {
	if f.port == nil {
		return nil
	}
	return f.port.Close()
}
