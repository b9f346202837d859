package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestReadConfig(t *testing.T) {
	dir := files(t, map[string]string{
		"full.yaml": `
template: page.html
data: /abs/data.yaml
name: dash
strict: true
stdio: true
http:
  addr: ":9090"
mqtt:
  topics: "rebind/#:1"
  prefix: rebind
  keepAlive: 30s
timers:
  - id: clock
    cron: "* * * * * * *"
    mutation:
      target: dash.clock
      key: now
  - id: reset
    cron: "0 0 * * *"
    mutation:
      key: counts
      value: {a: 0, b: [1, 2]}
`,
		"none.yaml":  "data: x.yaml\n",
		"typo.yaml":  "template: a.html\ntempalte: b.html\n",
		"empty.yaml": "template: a.html\n",
	})
	defer os.RemoveAll(dir)

	c, err := ReadConfig(filepath.Join(dir, "full.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if c.Template != filepath.Join(dir, "page.html") || c.Data != "/abs/data.yaml" {
		t.Fatal(c.Template, c.Data)
	}
	if c.Name != "dash" || !c.Strict || !c.Stdio || c.HTTP.Addr != ":9090" {
		t.Fatalf("%#v", c)
	}
	if c.MQTT == nil || c.MQTT.Broker != "tcp://localhost:1883" || c.MQTT.KeepAlive != 30*time.Second {
		t.Fatalf("%#v", c.MQTT)
	}
	if len(c.Timers) != 2 {
		t.Fatal(len(c.Timers))
	}
	if c.Timers[0].Mutation.Target != "dash.clock" || c.Timers[1].Mutation.Target != "dash" {
		t.Fatal(c.Timers[0].Mutation.Target, c.Timers[1].Mutation.Target)
	}
	if _, is := c.Timers[1].Mutation.Value.(map[string]interface{}); !is {
		t.Fatalf("%T", c.Timers[1].Mutation.Value)
	}

	c, err = ReadConfig(filepath.Join(dir, "empty.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if c.Name != "page" || c.HTTP.Addr != ":8080" || c.MQTT != nil {
		t.Fatalf("%#v", c)
	}

	for _, bad := range []string{"none.yaml", "typo.yaml", "missing.yaml"} {
		if _, err = ReadConfig(filepath.Join(dir, bad)); err == nil {
			t.Fatal(bad)
		}
	}
}
