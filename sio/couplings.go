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
	"strings"

	"github.com/pkg/errors"
)

// Couplings provide a channel of Mutations from the outside world.
//
// For example, an implementation could couple an engine to an MQTT
// broker.
type Couplings interface {
	// Start initializes the Couplings.
	Start(context.Context) error

	// IO returns the input channel.
	IO(context.Context) (chan *Mutation, error)

	// Stop shuts down the Couplings.
	Stop(context.Context) error
}

// Ops that a Mutation can request.
const (
	OpSet    = "set"
	OpNotify = "notify"
	OpPush   = "push"
)

// Mutation is a request to change (or just announce a change to) an
// object that the engine knows by name.
//
// Target is a name given to core.Engine.Name optionally followed by a
// dotted path.  The default Op is OpSet, which sets Key to Value.
// OpNotify just notifies (Key is optional), and OpPush appends Value
// to a list.
type Mutation struct {
	Op     string      `json:"op,omitempty" yaml:"op,omitempty"`
	Target string      `json:"target" yaml:"target"`
	Key    string      `json:"key,omitempty" yaml:"key,omitempty"`
	Value  interface{} `json:"value,omitempty" yaml:"value,omitempty"`
}

// Name returns the anchor name of the target.
func (m *Mutation) Name() string {
	if i := strings.Index(m.Target, "."); 0 <= i {
		return m.Target[:i]
	}
	return m.Target
}

// Path returns the part of the target after the anchor name.
func (m *Mutation) Path() string {
	if i := strings.Index(m.Target, "."); 0 <= i {
		return m.Target[i+1:]
	}
	return ""
}

// Valid checks the mutation's shape (but not its target).
func (m *Mutation) Valid() error {
	if m.Target == "" {
		return errors.New("mutation has no target")
	}
	switch m.Op {
	case "", OpSet:
		if m.Key == "" {
			return errors.Errorf("set on '%s' has no key", m.Target)
		}
	case OpNotify, OpPush:
	default:
		return errors.Errorf("unknown op '%s'", m.Op)
	}
	return nil
}

// ParseMutation parses JSON.
func ParseMutation(bs []byte) (*Mutation, error) {
	var m Mutation
	if err := json.Unmarshal(bs, &m); err != nil {
		return nil, errors.Wrap(err, "bad mutation")
	}
	if err := m.Valid(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Merge forwards Mutations from all the given channels to the returned
// channel until the context is done.  The returned channel is closed
// when all the given channels are closed.
func Merge(ctx context.Context, ins ...chan *Mutation) chan *Mutation {
	out := make(chan *Mutation)
	done := make(chan bool, len(ins))
	for _, in := range ins {
		go func(in chan *Mutation) {
			defer func() { done <- true }()
			for {
				select {
				case <-ctx.Done():
					return
				case m, ok := <-in:
					if !ok {
						return
					}
					select {
					case <-ctx.Done():
						return
					case out <- m:
					}
				}
			}
		}(in)
	}
	go func() {
		for range ins {
			<-done
		}
		close(out)
	}()
	return out
}
