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
	"log"
	"strconv"
	"sync"

	"github.com/Comcast/rebind/core"

	"github.com/pkg/errors"
)

// Pump applies Mutations to an Engine one at a time.
//
// An Engine (and any JavaScript runtime behind its scopes) isn't safe
// for concurrent use, so everything that touches the engine or the
// rendered tree should go through the Pump (see Apply and View).
type Pump struct {
	Engine *core.Engine

	// Root is the rendered tree.
	Root core.Node

	// Rendered functions are called (with the Pump locked) after
	// each mutation that was applied.
	Rendered []func(ctx context.Context, root core.Node)

	// Verbose turns on logging.
	Verbose bool

	// Applied counts applied mutations.
	Applied int

	sync.Mutex
}

// NewPump makes a Pump for the rendered tree.
func NewPump(e *core.Engine, root core.Node) *Pump {
	return &Pump{
		Engine: e,
		Root:   root,
	}
}

// Logf logs if p.Verbose.
func (p *Pump) Logf(format string, args ...interface{}) {
	if !p.Verbose {
		return
	}
	log.Printf(format, args...)
}

// Errorf logs an error.
func (p *Pump) Errorf(format string, args ...interface{}) {
	log.Printf("error: "+format, args...)
}

// OnRendered adds a function to call after each applied mutation.
func (p *Pump) OnRendered(f func(ctx context.Context, root core.Node)) {
	p.Lock()
	p.Rendered = append(p.Rendered, f)
	p.Unlock()
}

// View calls the function with the Pump locked.
func (p *Pump) View(f func(root core.Node)) {
	p.Lock()
	defer p.Unlock()
	f(p.Root)
}

// Target finds the mutation's target object.
func (p *Pump) Target(m *Mutation) (interface{}, error) {
	x, have := p.Engine.Named(m.Name())
	if !have {
		return nil, errors.Errorf("no object named '%s'", m.Name())
	}
	v, ok := core.Lookup(x, m.Path())
	if !ok || v == nil {
		return nil, errors.Errorf("'%s' is undefined", m.Target)
	}
	return v, nil
}

// Apply applies the mutation and then calls the Rendered functions.
func (p *Pump) Apply(ctx context.Context, m *Mutation) error {
	p.Lock()
	defer p.Unlock()

	p.Logf("Pump.Apply %s", Short(JS(m), 200))

	if err := m.Valid(); err != nil {
		return err
	}

	target, err := p.Target(m)
	if err != nil {
		return err
	}

	switch m.Op {
	case "", OpSet:
		err = p.Engine.Set(target, m.Key, m.Value)
	case OpNotify:
		if m.Key == "" {
			err = p.Engine.Notify(target)
		} else {
			err = p.Engine.Notify(target, m.Key)
		}
	case OpPush:
		l, is := target.(core.Lister)
		if !is {
			return errors.Errorf("can't push onto '%s' (%T)", m.Target, target)
		}
		err = p.Engine.Set(target, strconv.Itoa(l.Len()), m.Value)
	}
	if err != nil {
		return errors.Wrapf(err, "%s %s", m.Op, m.Target)
	}

	p.Applied++
	for _, f := range p.Rendered {
		f(ctx, p.Root)
	}

	return nil
}

// Loop applies mutations from the channel in the current goroutine
// until the channel is closed or the context is done.
//
// Mutations that fail are logged and dropped.
func (p *Pump) Loop(ctx context.Context, in chan *Mutation) error {
	p.Logf("Pump.Loop starting")
LOOP:
	for {
		select {
		case <-ctx.Done():
			p.Logf("Pump.Loop shutting down (ctx.Done)")
			break LOOP
		case m, ok := <-in:
			if !ok || m == nil {
				break LOOP
			}
			if err := p.Apply(ctx, m); err != nil {
				p.Errorf("Pump.Loop Apply %s", err)
				continue
			}
		}
	}
	p.Logf("Pump.Loop done")
	return nil
}
