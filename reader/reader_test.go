package reader

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"gostepper/input"
)

func TestKeyStateShortAndLong(t *testing.T) {
	s := newKeyState(500 * time.Millisecond)
	t0 := time.Unix(0, 0)

	if _, ok := s.feed(codeUp, valuePress, t0); ok {
		t.Fatal("press alone should not emit")
	}
	ev, ok := s.feed(codeUp, valueRelease, t0.Add(100*time.Millisecond))
	if !ok || ev != input.UpPress {
		t.Errorf("short = %v, %v", ev, ok)
	}

	s.feed(codeEnter, valuePress, t0)
	ev, ok = s.feed(codeEnter, valueRelease, t0.Add(time.Second))
	if !ok || ev != (input.Event{Key: input.Confirm, Press: input.Long}) {
		t.Errorf("long = %v, %v", ev, ok)
	}
}

func TestKeyStateRepeatAndUnknown(t *testing.T) {
	s := newKeyState(DefaultLongPress)
	now := time.Now()

	ev, ok := s.feed(codeDown, valueRepeat, now)
	if !ok || ev != (input.Event{Key: input.Down, Press: input.Repeat}) {
		t.Errorf("repeat = %v, %v", ev, ok)
	}
	if _, ok := s.feed(30, valuePress, now); ok { // KEY_A
		t.Error("unmapped key emitted")
	}
	if _, ok := s.feed(codeEscape, valueRelease, now); ok {
		t.Error("release without press emitted")
	}
}

func TestKeyMapping(t *testing.T) {
	cases := map[uint16]input.Key{
		codeUp:        input.Up,
		codeDown:      input.Down,
		codeEnter:     input.Confirm,
		codeSpace:     input.Confirm,
		codeEscape:    input.Back,
		codeBackspace: input.Back,
	}
	for code, want := range cases {
		got, ok := mapKey(code)
		if !ok || got != want {
			t.Errorf("mapKey(%d) = %v, %v; want %v", code, got, ok, want)
		}
	}
}

// chunkPort returns its chunks one Read at a time and then reports timeouts.
type chunkPort struct {
	mu     sync.Mutex
	chunks [][]byte
	err    error
	closed bool
}

func (p *chunkPort) Read(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.chunks) == 0 {
		return 0, p.err
	}
	n := copy(b, p.chunks[0])
	p.chunks[0] = p.chunks[0][n:]
	if len(p.chunks[0]) == 0 {
		p.chunks = p.chunks[1:]
	}
	return n, nil
}

func (p *chunkPort) Close() error {
	p.closed = true
	return nil
}

func readAll(t *testing.T, r KeyReader, n int) []input.Event {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	var out []input.Event
	for i := 0; i < n; i++ {
		ev, err := r.Read(ctx)
		if err != nil {
			t.Fatalf("read %d: %v", i, err)
		}
		out = append(out, ev)
	}
	return out
}

func TestSerialLines(t *testing.T) {
	p := &chunkPort{
		chunks: [][]byte{[]byte("up\nkey con"), []byte("firm long\r\n# note\nbogus\n"), []byte("\nback\n")},
		err:    io.EOF,
	}
	s := &Serial{port: p, device: "test"}
	got := readAll(t, s, 3)
	want := []input.Event{input.UpPress, {Key: input.Confirm, Press: input.Long}, input.BackPress}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d = %v, want %v", i, got[i], want[i])
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	if _, err := s.Read(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("idle read = %v", err)
	}

	s.Close()
	if !p.closed {
		t.Error("port not closed")
	}
}

func TestSerialReadError(t *testing.T) {
	s := &Serial{port: &chunkPort{err: errors.New("unplugged")}, device: "test"}
	if _, err := s.Read(context.Background()); err == nil {
		t.Error("expected error")
	}
}

func TestFramed(t *testing.T) {
	p := &chunkPort{chunks: [][]byte{
		[]byte("noise\x02down\x03"),
		[]byte("\x02garbage\x02key back\x03"),
		[]byte("\x02left\x03\x02ok\x03"),
	}}
	f := &Framed{port: p, device: "test"}
	got := readAll(t, f, 3)
	want := []input.Event{input.DownPress, input.BackPress, input.ConfirmPress}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestNewDisabled(t *testing.T) {
	r, err := New(Config{})
	if err != nil || r != nil {
		t.Errorf("New(empty) = %v, %v", r, err)
	}
	if _, err := New(Config{Type: "wand"}); err == nil {
		t.Error("expected error for unknown type")
	}
}
