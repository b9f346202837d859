/* Copyright 2019 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package sio

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/Comcast/rebind/core"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/pkg/errors"
)

func init() {
	mqtt.ERROR = log.New(os.Stderr, "mqtt.error ", 0)
}

// MQTT is a Couplings that subscribes to MQTT topics.
//
// A message whose payload is a JSON Mutation is used as is.  Any
// other payload on a topic under TopicPrefix is the value of a set
// whose target and key come from the rest of the topic: the payload
// of "rebind/page/clock/now" sets "now" on "page.clock".
type MQTT struct {
	Client mqtt.Client

	// SubTopics is a comma-separated list of topics, each
	// optionally followed by ':QOS'.
	SubTopics string

	// TopicPrefix is stripped from topics of plain values.
	TopicPrefix string

	// PubTopic, if not empty, receives rendered markup (see
	// Rendered).
	PubTopic string

	// Quiesce is the disconnection quiescence in milliseconds.
	Quiesce uint

	// InTimeout limits how long a message waits to be queued.
	InTimeout time.Duration

	incoming chan *Mutation
}

// NewMQTT makes the client with the given options.
func NewMQTT(opts *mqtt.ClientOptions, subTopics string) *MQTT {
	c := &MQTT{
		SubTopics: subTopics,
		Quiesce:   100,
		InTimeout: 5 * time.Second,
		incoming:  make(chan *Mutation),
	}
	opts.OnConnectionLost = func(client mqtt.Client, err error) {
		log.Printf("MQTT connection lost: %s", err)
	}
	opts.DefaultPublishHandler = func(client mqtt.Client, msg mqtt.Message) {
		c.consume(context.Background(), msg.Topic(), msg.Payload())
	}
	c.Client = mqtt.NewClient(opts)
	return c
}

// mutation makes a Mutation from a message.
func (c *MQTT) mutation(topic string, payload []byte) (*Mutation, error) {
	var x interface{}
	if err := json.Unmarshal(payload, &x); err != nil {
		x = string(payload)
	}

	if m, is := x.(map[string]interface{}); is {
		if _, have := m["target"]; have {
			return ParseMutation(payload)
		}
	}

	if c.TopicPrefix == "" || !strings.HasPrefix(topic, c.TopicPrefix) {
		return nil, errors.Errorf("no target for message on '%s'", topic)
	}
	path := strings.Trim(strings.TrimPrefix(topic, c.TopicPrefix), "/")
	i := strings.LastIndex(path, "/")
	if i <= 0 {
		return nil, errors.Errorf("no key in topic '%s'", topic)
	}
	return &Mutation{
		Target: strings.Replace(path[:i], "/", ".", -1),
		Key:    path[i+1:],
		Value:  x,
	}, nil
}

func (c *MQTT) consume(ctx context.Context, topic string, payload []byte) {
	m, err := c.mutation(topic, payload)
	if err != nil {
		log.Printf("MQTT ignoring message: %s", err)
		return
	}

	to := time.NewTimer(c.InTimeout)
	defer to.Stop()

	select {
	case <-ctx.Done():
	case c.incoming <- m:
	case <-to.C:
		log.Printf("MQTT dropping message due to stall ('%s','%s')", topic, payload)
	}
}

// Start connects and subscribes.
func (c *MQTT) Start(ctx context.Context) error {
	if t := c.Client.Connect(); t.Wait() && t.Error() != nil {
		return errors.Wrap(t.Error(), "MQTT connect")
	}
	for _, topic := range strings.Split(c.SubTopics, ",") {
		topic, qos := parseTopic(strings.TrimSpace(topic))
		if topic == "" {
			continue
		}
		log.Printf("Subscribing to %s (%d)", topic, qos)
		if t := c.Client.Subscribe(topic, qos, nil); t.Wait() && t.Error() != nil {
			return errors.Wrapf(t.Error(), "MQTT subscribe %s", topic)
		}
	}
	return nil
}

// IO returns the channel of incoming Mutations.
func (c *MQTT) IO(ctx context.Context) (chan *Mutation, error) {
	return c.incoming, nil
}

// Rendered publishes the root's markup to PubTopic.  Use with
// Pump.OnRendered.
func (c *MQTT) Rendered(ctx context.Context, root core.Node) {
	if c.PubTopic == "" {
		return
	}
	topic, qos := parseTopic(c.PubTopic)
	t := c.Client.Publish(topic, qos, false, Markup(root))
	if t.Wait() && t.Error() != nil {
		log.Printf("MQTT publish error: %s", t.Error())
	}
}

// Stop terminates the MQTT session.
func (c *MQTT) Stop(context.Context) error {
	c.Client.Disconnect(c.Quiesce)
	return nil
}

// parseTopic extracts the QoS from a topic of the form TOPIC:QOS.
func parseTopic(s string) (string, byte) {
	i := strings.LastIndex(s, ":")
	if i < 0 {
		return s, 0
	}
	var qos byte
	if _, err := fmt.Sscanf(s[i+1:], "%d", &qos); err != nil || 2 < qos {
		return s, 0
	}
	return s[:i], qos
}
