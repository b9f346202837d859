package main

import (
	"io/ioutil"
	"path/filepath"
	"time"

	"github.com/Comcast/rebind/sio"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// Config is what 'serve' reads from its configuration file.
type Config struct {
	// Template is the template filename.
	Template string `yaml:"template"`

	// Data is the scope filename (see loadScope).
	Data string `yaml:"data"`

	// Name is the name the data gets (see core.Engine.Name).
	// Mutation targets start with this name.
	Name string `yaml:"name"`

	// Attr is the directive attribute.
	Attr string `yaml:"attr"`

	Strict bool `yaml:"strict"`

	HTTP struct {
		// Addr is the listen address for the page.
		Addr string `yaml:"addr"`

		// WebSocket, if not empty, is the path of the
		// websocket endpoint.
		WebSocket string `yaml:"websocket"`
	} `yaml:"http"`

	// Stdio reads mutations from stdin and writes markup to
	// stdout.
	Stdio bool `yaml:"stdio"`

	MQTT *MQTTConfig `yaml:"mqtt"`

	Timers []*sio.TimerEntry `yaml:"timers"`
}

// MQTTConfig says how to connect to a broker.
type MQTTConfig struct {
	Broker    string        `yaml:"broker"`
	ClientId  string        `yaml:"clientId"`
	Username  string        `yaml:"username"`
	Password  string        `yaml:"password"`
	KeepAlive time.Duration `yaml:"keepAlive"`
	Reconnect bool          `yaml:"reconnect"`

	// Topics is a comma-separated list of topics (each optionally
	// with ':QOS') to subscribe to.
	Topics string `yaml:"topics"`

	// Prefix is the topic prefix for plain values.  See
	// sio.MQTT.
	Prefix string `yaml:"prefix"`

	// PubTopic receives the markup after each mutation.
	PubTopic string `yaml:"pubTopic"`
}

// ReadConfig reads a YAML configuration file.  Relative filenames in
// the configuration are relative to the file.
func ReadConfig(filename string) (*Config, error) {
	bs, err := ioutil.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrap(err, "reading config")
	}
	var c Config
	if err = yaml.UnmarshalStrict(bs, &c); err != nil {
		return nil, errors.Wrapf(err, "parsing config %s", filename)
	}

	if c.Template == "" {
		return nil, errors.Errorf("config %s has no template", filename)
	}
	if c.Name == "" {
		c.Name = "page"
	}
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":8080"
	}
	if c.MQTT != nil {
		if c.MQTT.Broker == "" {
			c.MQTT.Broker = "tcp://localhost:1883"
		}
		if c.MQTT.KeepAlive == 0 {
			c.MQTT.KeepAlive = 10 * time.Minute
		}
	}

	dir := filepath.Dir(filename)
	rel := func(s string) string {
		if s == "" || filepath.IsAbs(s) {
			return s
		}
		return filepath.Join(dir, s)
	}
	c.Template = rel(c.Template)
	c.Data = rel(c.Data)

	for _, t := range c.Timers {
		t.Mutation.Value = mutable(t.Mutation.Value)
		if t.Mutation.Target == "" {
			t.Mutation.Target = c.Name
		}
	}

	return &c, nil
}
