package mqtt

import (
	"bytes"
	"log"
	"os"
	"path/filepath"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

func TestNodeTopics(t *testing.T) {
	got := NodeTopics("", "bench1")
	if got.Status != "stepper/status/node/bench1/state" {
		t.Errorf("status topic = %q", got.Status)
	}
	if got.Keys != "stepper/control/node/bench1/key" {
		t.Errorf("key topic = %q", got.Keys)
	}
	if NodeTopics("lab", "x").Status != "lab/status/node/x/state" {
		t.Error("prefix ignored")
	}
}

func TestDisabledClient(t *testing.T) {
	connected := false
	c, err := New(Config{}, "id", Handlers{OnConnect: func() { connected = true }})
	if err != nil {
		t.Fatal(err)
	}
	if c.IsEnabled() {
		t.Error("client without host should be disabled")
	}

	c.SetWill("t", "gone")
	if err := c.Connect(); err != nil {
		t.Fatal(err)
	}
	if !connected {
		t.Error("disabled Connect should report connected")
	}
	if err := c.Subscribe("t"); err != nil {
		t.Error(err)
	}
	if err := c.PublishJSON("t", map[string]int{"a": 1}, true); err != nil {
		t.Error(err)
	}
	c.Publish("t", "x")
	c.Disconnect()
}

func TestEnabledClientDefersConnection(t *testing.T) {
	c, err := New(Config{Host: "broker.invalid"}, "id", Handlers{})
	if err != nil {
		t.Fatal(err)
	}
	if !c.IsEnabled() || c.conn != nil {
		t.Fatal("client should be enabled and not yet created")
	}
	c.SetWill("stepper/status/node/id/state", `{"online":false}`)
	if !c.opts.WillEnabled || !c.opts.WillRetained || c.opts.WillTopic != "stepper/status/node/id/state" {
		t.Errorf("will not set: %+v", c.opts)
	}
}

func TestBrokerURL(t *testing.T) {
	cases := []struct {
		cfg  Config
		want string
	}{
		{Config{Host: "h"}, "tcp://h:1883"},
		{Config{Host: "h", Port: 1884}, "tcp://h:1884"},
		{Config{Host: "h", CACert: "ca.pem"}, "ssl://h:8883"},
		{Config{Host: "h", ClientCert: "c.pem", Port: 9000}, "ssl://h:9000"},
	}
	for _, c := range cases {
		if got := c.cfg.brokerURL(); got != c.want {
			t.Errorf("brokerURL(%+v) = %q, want %q", c.cfg, got, c.want)
		}
	}
}

func TestBadCACert(t *testing.T) {
	if _, err := New(Config{Host: "h", CACert: filepath.Join(t.TempDir(), "missing.pem")}, "id", Handlers{}); err == nil {
		t.Error("expected error for missing CA cert")
	}

	junk := filepath.Join(t.TempDir(), "junk.pem")
	os.WriteFile(junk, []byte("not a cert"), 0o600)
	if _, err := New(Config{Host: "h", CACert: junk}, "id", Handlers{}); err == nil {
		t.Error("expected error for CA file without certificates")
	}
}

// Status is published from the dispatch goroutine while Connect is still
// retrying on another.
func TestPublishWhileConnecting(t *testing.T) {
	c, err := New(Config{Host: "127.0.0.1", Port: 1}, "id", Handlers{})
	if err != nil {
		t.Fatal(err)
	}
	go c.Connect()

	deadline := time.Now().Add(300 * time.Millisecond)
	for time.Now().Before(deadline) {
		if err := c.PublishJSON("t", map[string]bool{"online": true}, true); err != nil {
			t.Fatal(err)
		}
		c.Publish("t", "x")
		time.Sleep(time.Millisecond)
	}
	c.Disconnect()
}

func TestLibraryLogsFollowStandardLogger(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Writer()
	log.SetOutput(&buf)
	defer log.SetOutput(prev)

	if _, err := New(Config{Host: "h"}, "id", Handlers{}); err != nil {
		t.Fatal(err)
	}
	for name, l := range map[string]paho.Logger{"ERROR": paho.ERROR, "CRITICAL": paho.CRITICAL, "WARN": paho.WARN} {
		std, ok := l.(*log.Logger)
		if !ok || std.Writer() != &buf {
			t.Errorf("paho.%s does not write to the standard logger's output", name)
		}
	}
}
