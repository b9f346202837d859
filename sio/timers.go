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
	"sync"
	"time"

	"github.com/gorhill/cronexpr"
	"github.com/pkg/errors"
)

// TimerEntry is a cron schedule for a Mutation.
//
// When the Mutation has no Value, each firing uses the current time
// (RFC3339).
type TimerEntry struct {
	Id       string   `json:"id" yaml:"id"`
	Cron     string   `json:"cron" yaml:"cron"`
	Mutation Mutation `json:"mutation" yaml:"mutation"`

	expr *cronexpr.Expression
	ctl  chan bool
}

// Timers is a Couplings that emits Mutations on cron schedules.
//
// A Timers can be used for clocks and the like.
type Timers struct {
	// Now, if not nil, replaces time.Now.
	Now func() time.Time

	// Verbose turns on logging.
	Verbose bool

	entries map[string]*TimerEntry
	out     chan *Mutation
	ctx     context.Context
	wg      sync.WaitGroup

	sync.Mutex
}

// NewTimers makes an empty Timers.
func NewTimers() *Timers {
	return &Timers{
		entries: make(map[string]*TimerEntry, 8),
		out:     make(chan *Mutation),
	}
}

func (ts *Timers) logf(format string, args ...interface{}) {
	if ts.Verbose {
		log.Printf(format, args...)
	}
}

func (ts *Timers) now() time.Time {
	if ts.Now != nil {
		return ts.Now()
	}
	return time.Now()
}

// Add adds (or replaces) a timer.  Timers added after Start start
// immediately.
func (ts *Timers) Add(e *TimerEntry) error {
	expr, err := cronexpr.Parse(e.Cron)
	if err != nil {
		return errors.Wrapf(err, "timer '%s'", e.Id)
	}
	if err = e.Mutation.Valid(); err != nil {
		return errors.Wrapf(err, "timer '%s'", e.Id)
	}

	ts.logf("Timers.Add %s", e.Id)

	ts.Lock()
	defer ts.Unlock()

	if old, have := ts.entries[e.Id]; have {
		ts.cancel(old)
	}

	entry := *e
	entry.expr = expr
	entry.ctl = make(chan bool)
	ts.entries[e.Id] = &entry

	if ts.ctx != nil {
		ts.run(ts.ctx, &entry)
	}

	return nil
}

// Cancel removes the timer with the given id.
func (ts *Timers) Cancel(id string) error {
	ts.Lock()
	defer ts.Unlock()
	e, have := ts.entries[id]
	if !have {
		return errors.Errorf("timer '%s' doesn't exist", id)
	}
	ts.cancel(e)
	return nil
}

func (ts *Timers) cancel(e *TimerEntry) {
	ts.logf("Timers.cancel %s", e.Id)
	delete(ts.entries, e.Id)
	close(e.ctl)
}

// Ids returns the ids of the current timers.
func (ts *Timers) Ids() []string {
	ts.Lock()
	defer ts.Unlock()
	acc := make([]string, 0, len(ts.entries))
	for id := range ts.entries {
		acc = append(acc, id)
	}
	return acc
}

// Start starts all known timers.
func (ts *Timers) Start(ctx context.Context) error {
	ts.logf("Timers.Start")
	ts.Lock()
	defer ts.Unlock()
	ts.ctx = ctx
	for _, e := range ts.entries {
		ts.run(ctx, e)
	}
	return nil
}

// IO returns the channel of fired Mutations.
func (ts *Timers) IO(ctx context.Context) (chan *Mutation, error) {
	return ts.out, nil
}

// Stop cancels all timers and waits for them to finish.
func (ts *Timers) Stop(ctx context.Context) error {
	ts.Lock()
	for _, e := range ts.entries {
		ts.cancel(e)
	}
	ts.Unlock()
	ts.wg.Wait()
	return nil
}

// run starts a goroutine that emits the entry's Mutation at each
// scheduled time until the entry is cancelled.
func (ts *Timers) run(ctx context.Context, e *TimerEntry) {
	ts.wg.Add(1)
	go func() {
		defer ts.wg.Done()
		for {
			now := ts.now()
			next := e.expr.Next(now)
			if next.IsZero() {
				ts.logf("Timer '%s' has no next time", e.Id)
				return
			}
			t := time.NewTimer(next.Sub(now))
			select {
			case <-t.C:
				ts.logf("Firing timer '%s'", e.Id)
				m := e.Mutation
				if m.Value == nil && m.Op != OpNotify {
					m.Value = next.UTC().Format(time.RFC3339)
				}
				select {
				case ts.out <- &m:
				case <-e.ctl:
					return
				case <-ctx.Done():
					return
				}
			case <-e.ctl:
				t.Stop()
				ts.logf("Canceled timer '%s'", e.Id)
				return
			case <-ctx.Done():
				t.Stop()
				return
			}
		}
	}()
}
