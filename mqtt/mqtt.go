// Package mqtt publishes controller status to a broker and receives remote
// key commands.
package mqtt

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// Config holds MQTT connection settings.
type Config struct {
	Host       string `yaml:"host"` // empty disables MQTT
	Port       int    `yaml:"port"` // default 8883 with TLS, 1883 without
	CACert     string `yaml:"ca_cert"`
	ClientCert string `yaml:"client_cert"`
	ClientKey  string `yaml:"client_key"`
	ClientID   string `yaml:"client_id"`    // default: random
	Prefix     string `yaml:"topic_prefix"` // default "stepper"
}

func (c Config) secure() bool {
	return c.CACert != "" || c.ClientCert != ""
}

// brokerURL returns the broker address, e.g. "ssl://host:8883".
func (c Config) brokerURL() string {
	scheme, port := "tcp", 1883
	if c.secure() {
		scheme, port = "ssl", 8883
	}
	if c.Port != 0 {
		port = c.Port
	}
	return fmt.Sprintf("%s://%s:%d", scheme, c.Host, port)
}

// Topics are the per-node topics of one device.
type Topics struct {
	Status string // retained JSON status
	Keys   string // remote key commands
}

// NodeTopics returns the topics of node id under prefix.
func NodeTopics(prefix, id string) Topics {
	if prefix == "" {
		prefix = "stepper"
	}
	return Topics{
		Status: fmt.Sprintf("%s/status/node/%s/state", prefix, id),
		Keys:   fmt.Sprintf("%s/control/node/%s/key", prefix, id),
	}
}

// Handlers are called from paho's goroutines.
type Handlers struct {
	OnConnect    func() // also called on every reconnect
	OnDisconnect func()
	OnMessage    func(topic string, payload []byte)
}

// Client is a broker connection. A Client built from a Config without a host
// is disabled: every method is a no-op and Connect reports success at once.
type Client struct {
	id       string
	handlers Handlers
	opts     *paho.ClientOptions // nil when disabled

	mu   sync.Mutex
	conn paho.Client // created by Connect
}

// New prepares a client. Nothing is dialled until Connect.
func New(cfg Config, clientID string, handlers Handlers) (*Client, error) {
	c := &Client{id: clientID, handlers: handlers}
	if cfg.Host == "" {
		log.Println("MQTT disabled (no host configured)")
		return c, nil
	}

	c.opts = paho.NewClientOptions().
		AddBroker(cfg.brokerURL()).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetKeepAlive(60 * time.Second).
		SetOnConnectHandler(func(paho.Client) {
			log.Println("MQTT connection established")
			if c.handlers.OnConnect != nil {
				c.handlers.OnConnect()
			}
		}).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			log.Printf("MQTT connection lost: %v", err)
			if c.handlers.OnDisconnect != nil {
				c.handlers.OnDisconnect()
			}
		}).
		SetDefaultPublishHandler(func(_ paho.Client, m paho.Message) {
			if c.handlers.OnMessage != nil {
				c.handlers.OnMessage(m.Topic(), m.Payload())
			}
		})

	if cfg.secure() {
		tc, err := tlsConfig(cfg)
		if err != nil {
			return nil, fmt.Errorf("build TLS config: %w", err)
		}
		c.opts.SetTLSConfig(tc)
	} else {
		log.Println("MQTT using non-TLS connection")
	}

	// Follow the standard logger, which main may have sent to a file.
	w := log.Writer()
	paho.ERROR = log.New(w, "[MQTT ERROR] ", log.LstdFlags)
	paho.CRITICAL = log.New(w, "[MQTT CRIT] ", log.LstdFlags)
	paho.WARN = log.New(w, "[MQTT WARN] ", log.LstdFlags)
	return c, nil
}

func tlsConfig(cfg Config) (*tls.Config, error) {
	tc := &tls.Config{}
	if cfg.CACert != "" {
		pem, err := os.ReadFile(cfg.CACert)
		if err != nil {
			return nil, fmt.Errorf("read CA cert: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("no certificates in %s", cfg.CACert)
		}
		tc.RootCAs = pool
	}
	if cfg.ClientCert != "" && cfg.ClientKey != "" {
		cert, err := tls.LoadX509KeyPair(cfg.ClientCert, cfg.ClientKey)
		if err != nil {
			return nil, fmt.Errorf("load client cert: %w", err)
		}
		tc.Certificates = []tls.Certificate{cert}
	}
	return tc, nil
}

// IsEnabled reports whether a broker is configured.
func (c *Client) IsEnabled() bool {
	return c.opts != nil
}

// ClientID returns the id used with the broker.
func (c *Client) ClientID() string {
	return c.id
}

// SetWill registers a retained last-will message. It has no effect once
// Connect has been called.
func (c *Client) SetWill(topic, payload string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.opts == nil || c.conn != nil {
		return
	}
	c.opts.SetWill(topic, payload, 1, true)
}

// session returns the paho client, or nil before Connect. Connect may run on
// another goroutine than the publishers.
func (c *Client) session() paho.Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn
}

// Connect dials the broker and blocks until the first connection succeeds.
func (c *Client) Connect() error {
	if c.opts == nil {
		if c.handlers.OnConnect != nil {
			c.handlers.OnConnect()
		}
		return nil
	}
	c.mu.Lock()
	if c.conn == nil {
		c.conn = paho.NewClient(c.opts)
	}
	conn := c.conn
	c.mu.Unlock()

	if t := conn.Connect(); t.Wait() && t.Error() != nil {
		return fmt.Errorf("connect %s: %w", c.opts.Servers[0], t.Error())
	}
	return nil
}

// Disconnect closes the connection, allowing 250 ms for in-flight work.
func (c *Client) Disconnect() {
	if conn := c.session(); conn != nil {
		conn.Disconnect(250)
	}
}

// Subscribe subscribes to topic at QoS 1. Messages go to Handlers.OnMessage.
func (c *Client) Subscribe(topic string) error {
	conn := c.session()
	if conn == nil {
		return nil
	}
	if t := conn.Subscribe(topic, 1, nil); t.Wait() && t.Error() != nil {
		return fmt.Errorf("subscribe %s: %w", topic, t.Error())
	}
	return nil
}

// Publish sends payload at QoS 0 without waiting.
func (c *Client) Publish(topic, payload string) {
	if conn := c.session(); conn != nil {
		conn.Publish(topic, 0, false, payload)
	}
}

// PublishJSON sends v encoded as JSON at QoS 0. A retained message is also
// delivered to clients that subscribe later.
func (c *Client) PublishJSON(topic string, v any, retained bool) error {
	conn := c.session()
	if conn == nil {
		return nil
	}
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", topic, err)
	}
	conn.Publish(topic, 0, retained, payload)
	return nil
}
