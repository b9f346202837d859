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
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/Comcast/rebind/core"
)

// Stdio reads Mutations, one JSON object per line, from In and writes
// rendered markup to Out.
//
// Blank lines and lines starting with '#' are ignored.  The line
// "quit" ends input early.
type Stdio struct {
	In  io.Reader
	Out io.Writer

	// ShellExpand runs '<<cmd>>' input fragments with bash and
	// substitutes their output.  Use at your own risk.
	ShellExpand bool

	// Timestamps prefixes output lines with the UTC time.
	Timestamps bool

	// EchoInput copies each input line to Out with an "input"
	// tag.
	EchoInput bool

	// Tags prefixes output lines with "input" or "render".
	Tags bool

	// EOF, if not nil, is closed when input ends.
	EOF chan struct{}

	wg sync.WaitGroup
	mu sync.Mutex
}

// NewStdio makes a Stdio for os.Stdin and os.Stdout.
func NewStdio(shellExpand bool) *Stdio {
	return &Stdio{
		In:          os.Stdin,
		Out:         os.Stdout,
		ShellExpand: shellExpand,
		EOF:         make(chan struct{}),
	}
}

func (s *Stdio) Start(ctx context.Context) error {
	return nil
}

// Stop waits for the reader to finish or for the context.
func (s *Stdio) Stop(ctx context.Context) error {
	finished := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(finished)
	}()
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Printf writes to Out with the optional tag and timestamp.
func (s *Stdio) Printf(tag, format string, args ...interface{}) {
	var prefix string
	if s.Timestamps {
		prefix = fmt.Sprintf("%-31s ", time.Now().UTC().Format(time.RFC3339Nano))
	}
	if s.Tags {
		prefix += fmt.Sprintf("%-7s ", tag)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.Out, prefix+format, args...)
}

// Rendered writes the root's markup on one line.  Use with
// Pump.OnRendered.
func (s *Stdio) Rendered(ctx context.Context, root core.Node) {
	s.Printf("render", "%s\n", strings.Replace(Markup(root), "\n", " ", -1))
}

// IO starts reading In.  The returned channel is closed when input
// ends.
func (s *Stdio) IO(ctx context.Context) (chan *Mutation, error) {
	in := make(chan *Mutation)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer close(in)
		if s.EOF != nil {
			defer close(s.EOF)
		}

		scanner := bufio.NewScanner(s.In)
		for scanner.Scan() {
			line := scanner.Text()
			if s.EchoInput {
				s.Printf("input", "%s\n", line)
			}
			trimmed := strings.TrimSpace(line)
			if trimmed == "quit" {
				return
			}
			if trimmed == "" || strings.HasPrefix(trimmed, "#") {
				continue
			}
			if s.ShellExpand {
				var err error
				if line, err = ShellExpand(line); err != nil {
					log.Printf("shell expansion error %s", err)
					continue
				}
			}
			m, err := ParseMutation([]byte(line))
			if err != nil {
				fmt.Fprintf(os.Stderr, "bad input: %s\n", err)
				continue
			}
			select {
			case <-ctx.Done():
				return
			case in <- m:
			}
		}
		if err := scanner.Err(); err != nil {
			log.Printf("input error %s", err)
		}
	}()

	return in, nil
}

// Markup renders the node with its String method if it has one.
func Markup(n core.Node) string {
	if s, is := n.(fmt.Stringer); is {
		return s.String()
	}
	return fmt.Sprintf("%v", n)
}
