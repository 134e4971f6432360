package main

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"gostepper/indicator"
	"gostepper/input"
	"gostepper/nav"
	"gostepper/pin"
)

type recordingIndicator struct {
	indicator.Noop
	mu    sync.Mutex
	calls []string
}

func (r *recordingIndicator) record(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, s)
}

func (r *recordingIndicator) Idle()     { r.record("idle") }
func (r *recordingIndicator) Stepping() { r.record("stepping") }
func (r *recordingIndicator) Fault()    { r.record("fault") }

func (r *recordingIndicator) saw(s string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.calls {
		if c == s {
			return true
		}
	}
	return false
}

type recordingEnable struct {
	calls []string
}

func (r *recordingEnable) Enable() error  { r.calls = append(r.calls, "on"); return nil }
func (r *recordingEnable) Disable() error { r.calls = append(r.calls, "off"); return nil }
func (r *recordingEnable) Release() error { r.calls = append(r.calls, "release"); return nil }

func newTestApp(t *testing.T) (*App, *pin.Sim) {
	t.Helper()
	var cfg Config
	cfg.applyDefaults()
	cfg.Pins.Driver = "sim"
	require.NoError(t, cfg.Validate())

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	app := &App{
		cfg:    &cfg,
		queue:  input.NewQueue(cfg.QueueCapacity),
		ctx:    ctx,
		cancel: cancel,
	}
	require.NoError(t, app.init(false))
	sim, ok := app.driver.(*pin.Sim)
	require.True(t, ok, "driver = %T, want *pin.Sim", app.driver)
	return app, sim
}

func TestAppStepsAndExits(t *testing.T) {
	app, sim := newTestApp(t)
	ind := &recordingIndicator{}
	en := &recordingEnable{}
	app.indicator = ind
	app.enable = en

	board := pin.DefaultBoard()
	require.Equal(t, pin.Output, sim.Mode(board.Line(pin.C3)), "STEP bound before the menu is shown")
	require.Equal(t, pin.Output, sim.Mode(board.Line(pin.B2)), "DIR bound before the menu is shown")

	app.start()
	for _, ev := range []input.Event{input.ConfirmPress, input.ConfirmPress, input.BackPress} {
		require.NoError(t, app.queue.TryPush(ev))
	}

	done := make(chan error, 1)
	go func() { done <- app.ctrl.Run(app.ctx) }()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Back")
	}
	app.cancel()
	app.release()

	require.Equal(t, []string{"on", "off", "release"}, en.calls)
	require.True(t, ind.saw("stepping"))
	require.True(t, ind.saw("idle"))
	for _, id := range pin.All() {
		require.Equal(t, pin.HighImpedance, sim.Mode(board.Line(id)), id.String())
	}
	require.True(t, sim.Closed())
	require.False(t, app.running)
}

func TestOnChangeFaultLamp(t *testing.T) {
	app, _ := newTestApp(t)
	ind := &recordingIndicator{}
	app.indicator = ind
	defer app.release()

	app.onChange(nav.Status{Error: nav.PinUnavailable})
	app.onChange(nav.Status{Error: nav.PinUnavailable})
	app.onChange(nav.Status{})

	require.Equal(t, []string{"fault", "idle"}, ind.calls)
}

func TestRemoteKeys(t *testing.T) {
	app, _ := newTestApp(t)
	defer app.release()

	app.onMQTTMessage(app.topics.Keys, []byte("key down long"))
	app.onMQTTMessage(app.topics.Keys, []byte("bogus"))
	app.onMQTTMessage("other/topic", []byte("up"))
	app.onTurn(-1)

	want := []input.Event{{Key: input.Down, Press: input.Long}, input.UpPress}
	for _, w := range want {
		ev, ok := app.queue.Pop(input.NoWait)
		require.True(t, ok)
		require.Equal(t, w, ev)
	}
	require.Zero(t, app.queue.Len())
}
