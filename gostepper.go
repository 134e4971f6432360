package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/google/uuid"

	"gostepper/binding"
	"gostepper/console"
	"gostepper/enable"
	"gostepper/eventpipe"
	"gostepper/indicator"
	"gostepper/input"
	"gostepper/mqtt"
	"gostepper/nav"
	"gostepper/pin"
	"gostepper/pulse"
	"gostepper/reader"
	"gostepper/rotary"
	"gostepper/video"
	"gostepper/view"
)

var myBuild string

const defaultConfigFile = "gostepper.cfg"

// Indicator states derived from the controller status.
const (
	lampIdle int32 = iota
	lampStepping
	lampFault
)

// App holds the application state and dependencies.
type App struct {
	cfg       *Config
	queue     *input.Queue
	driver    pin.Driver
	enable    enable.Output
	ctrl      *nav.Controller
	indicator indicator.Indicator
	display   *video.Display
	console   *console.Console
	reader    reader.KeyReader
	rotary    *rotary.Rotary
	pipe      *eventpipe.Pipe
	mqtt      *mqtt.Client
	topics    mqtt.Topics
	ctx       context.Context
	cancel    context.CancelFunc

	lamp    atomic.Int32
	running bool
	mu      sync.Mutex
	status  nav.Status
	wg      sync.WaitGroup
}

// statusMessage is the retained MQTT status payload.
type statusMessage struct {
	Online bool `json:"online"`
	nav.Status
}

func main() {
	fmt.Printf("gostepper build %s\n", myBuild)

	cfgfile := flag.String("cfg", defaultConfigFile, "Config file")
	sim := flag.Bool("sim", false, "Use the simulated pin driver")
	useConsole := flag.Bool("console", false, "Show the menu on this terminal")
	flag.Parse()

	cfg, err := loadConfig(*cfgfile, *cfgfile == defaultConfigFile)
	if err != nil {
		log.Fatalf("Load config: %v", err)
	}
	if *sim {
		cfg.Pins.Driver = "sim"
	}

	if *useConsole {
		// Keep log output off the terminal UI.
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			log.Fatalf("Open log file: %v", err)
		}
		defer f.Close()
		log.SetOutput(f)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app := &App{
		cfg:    cfg,
		queue:  input.NewQueue(cfg.QueueCapacity),
		ctx:    ctx,
		cancel: cancel,
	}

	if err := app.init(*useConsole); err != nil {
		app.release()
		log.Fatalf("%v", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigCh:
			log.Printf("Received %v, shutting down", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	app.start()

	if err := app.ctrl.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("Run: %v", err)
	}

	cancel()
	app.release()
	fmt.Println("Shutdown complete")
}

// init builds every component. On error the caller releases whatever was
// created.
func (app *App) init(useConsole bool) error {
	cfg := app.cfg
	var err error

	app.indicator, err = indicator.New(cfg.Indicator)
	if err != nil {
		return fmt.Errorf("init indicator: %w", err)
	}
	app.indicator.ConnectionLost()

	renderers := view.Multi{view.Log{}}
	if cfg.Video.Enabled {
		if !video.ScreenSupported() {
			return video.ErrScreenNotCompiled
		}
		app.display, err = video.New(cfg.Video)
		if err != nil {
			return fmt.Errorf("init display: %w", err)
		}
		renderers = append(renderers, app.display)
	}
	if useConsole {
		app.console = console.New(app.push, app.cancel)
		renderers = append(renderers, app.console)
	}

	app.enable, err = enable.New(cfg.Enable)
	if err != nil {
		return fmt.Errorf("init enable: %w", err)
	}

	board, err := pin.NewBoard(cfg.Pins.Lines)
	if err != nil {
		return fmt.Errorf("init board: %w", err)
	}
	app.driver, err = pin.New(cfg.Pins)
	if err != nil {
		return fmt.Errorf("init pin driver: %w", err)
	}
	reg := binding.New(app.driver, board, cfg.candidates())
	for _, role := range binding.Roles() {
		id, ok := cfg.defaults()[role]
		if !ok {
			continue
		}
		if err := reg.Bind(role, id); err != nil {
			return fmt.Errorf("bind default %s: %w", role, err)
		}
	}

	strategy, err := pulse.ParseStrategy(cfg.Pulse.Strategy)
	if err != nil {
		return err
	}
	sched := pulse.New(reg, strategy)

	app.ctrl = nav.New(reg, sched, app.queue, renderers, nav.Config{
		Period:     cfg.Pulse.Period(),
		PulseWidth: cfg.Pulse.PulseWidth(),
	}, nav.Handlers{
		OnChange: app.onChange,
	})

	app.reader, err = reader.New(cfg.Reader)
	if err != nil {
		return fmt.Errorf("init reader: %w", err)
	}

	app.rotary, err = rotary.New(cfg.Rotary, rotary.Handlers{
		OnTurn:      app.onTurn,
		OnPress:     func() { app.push(input.ConfirmPress) },
		OnLongPress: func() { app.push(input.Event{Key: input.Confirm, Press: input.Long}) },
		OnBack:      func() { app.push(input.BackPress) },
	})
	if err != nil {
		return fmt.Errorf("init rotary: %w", err)
	}
	if app.rotary != nil {
		log.Printf("Rotary encoder initialized (CLK=%d, DT=%d, BTN=%d)",
			cfg.Rotary.CLKPin, cfg.Rotary.DTPin, cfg.Rotary.ButtonPin)
	}

	app.pipe, err = eventpipe.New(cfg.EventPipe, app.push)
	if err != nil {
		return fmt.Errorf("init event pipe: %w", err)
	}

	clientID := cfg.MQTT.ClientID
	if clientID == "" {
		clientID = "gostepper-" + uuid.NewString()[:8]
	}
	app.topics = mqtt.NodeTopics(cfg.MQTT.Prefix, clientID)
	app.mqtt, err = mqtt.New(cfg.MQTT, clientID, mqtt.Handlers{
		OnConnect:    app.onMQTTConnect,
		OnDisconnect: app.onMQTTDisconnect,
		OnMessage:    app.onMQTTMessage,
	})
	if err != nil {
		return fmt.Errorf("init MQTT: %w", err)
	}
	app.mqtt.SetWill(app.topics.Status, `{"online":false}`)

	return nil
}

// start launches the key sources and the broker connection.
func (app *App) start() {
	if app.console != nil {
		app.console.Start()
		go func() {
			select {
			case <-app.console.Done():
				app.cancel()
			case <-app.ctx.Done():
			}
		}()
	}
	if app.reader != nil {
		app.wg.Add(1)
		go app.keyListener()
	}
	if app.pipe != nil {
		go app.pipe.Start()
	}
	go func() {
		if err := app.mqtt.Connect(); err != nil {
			log.Printf("MQTT connect: %v", err)
		}
	}()
}

// release tears down everything init created. The controller has already
// released the pins.
func (app *App) release() {
	if app.pipe != nil {
		app.pipe.Close()
		select {
		case <-app.pipe.Done():
		case <-time.After(time.Second):
		}
	}
	if app.rotary != nil {
		app.rotary.Release()
	}
	if app.reader != nil {
		app.reader.Close()
		app.wg.Wait()
	}
	if app.mqtt != nil {
		app.publishStatus(false)
		app.mqtt.Disconnect()
	}
	if app.console != nil {
		if err := app.console.Release(); err != nil {
			log.Printf("Console: %v", err)
		}
	}
	if app.display != nil {
		app.display.Release()
	}
	if app.enable != nil {
		app.enable.Release()
	}
	if app.indicator != nil {
		app.indicator.Shutdown()
		app.indicator.Release()
	}
	if app.driver != nil {
		if err := app.driver.Close(); err != nil {
			log.Printf("Pin driver close: %v", err)
		}
	}
}

// push queues ev for the dispatch loop. It may be called from any goroutine.
func (app *App) push(ev input.Event) {
	if err := app.queue.Push(app.ctx, ev); err != nil && app.ctx.Err() == nil {
		log.Printf("Drop %s: %v", ev, err)
	}
}

func (app *App) onTurn(delta int) {
	if delta > 0 {
		app.push(input.DownPress)
	} else if delta < 0 {
		app.push(input.UpPress)
	}
}

func (app *App) keyListener() {
	defer app.wg.Done()
	for {
		ev, err := app.reader.Read(app.ctx)
		if err != nil {
			if app.ctx.Err() != nil {
				return
			}
			log.Printf("Read key: %v", err)
			select {
			case <-app.ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}
		app.push(ev)
	}
}

// onChange runs on the dispatch goroutine after every controller change.
func (app *App) onChange(st nav.Status) {
	app.mu.Lock()
	app.status = st
	app.mu.Unlock()

	if running := st.State == nav.Stepping; running != app.running {
		app.running = running
		var err error
		if running {
			err = app.enable.Enable()
		} else {
			err = app.enable.Disable()
		}
		if err != nil {
			log.Printf("Driver enable: %v", err)
		}
	}

	lamp := lampIdle
	switch {
	case st.Error != "":
		lamp = lampFault
	case st.State == nav.Stepping:
		lamp = lampStepping
	}
	if !st.Closed && app.lamp.Swap(lamp) != lamp {
		app.showLamp(lamp)
	}

	app.publishStatus(!st.Closed)
}

func (app *App) showLamp(lamp int32) {
	switch lamp {
	case lampStepping:
		app.indicator.Stepping()
	case lampFault:
		app.indicator.Fault()
	default:
		app.indicator.Idle()
	}
}

func (app *App) publishStatus(online bool) {
	if app.mqtt == nil {
		return
	}
	app.mu.Lock()
	msg := statusMessage{Online: online, Status: app.status}
	app.mu.Unlock()
	if err := app.mqtt.PublishJSON(app.topics.Status, msg, true); err != nil {
		log.Printf("Publish status: %v", err)
	}
}

func (app *App) onMQTTConnect() {
	if err := app.mqtt.Subscribe(app.topics.Keys); err != nil {
		log.Printf("Subscribe error: %v", err)
	}
	app.indicator.Connected()
	app.showLamp(app.lamp.Load())
	app.publishStatus(true)
}

func (app *App) onMQTTDisconnect() {
	app.indicator.ConnectionLost()
}

func (app *App) onMQTTMessage(topic string, payload []byte) {
	if topic != app.topics.Keys {
		return
	}
	ev, err := input.ParseCommand(string(payload))
	if err != nil {
		log.Printf("MQTT key %q: %v", payload, err)
		return
	}
	app.push(ev)
}
