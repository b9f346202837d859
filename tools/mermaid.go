/* Copyright 2018 Comcast Cable Communications Management, LLC
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

package tools

import (
	"fmt"
	"io"
	"strings"

	"github.com/Comcast/rebind/core"
)

type MermaidOpts struct {
	// ShowKeys labels each edge with the key that was read.
	ShowKeys bool `json:"showKeys"`

	// NamedFill is the fill color of named objects.
	NamedFill string `json:"namedFill,omitempty"`

	// Misses includes edges for lookups that found nothing.
	Misses bool `json:"misses,omitempty"`
}

// Mermaid makes a Mermaid (https://mermaidjs.github.io/) input file
// for the registry.  See Dot.
func Mermaid(r *core.Registry, w io.Writer, opts *MermaidOpts) error {
	if opts == nil {
		opts = &MermaidOpts{
			ShowKeys:  true,
			NamedFill: "#bcf2db",
		}
	}

	names := make(map[interface{}]string)
	for _, name := range r.Names() {
		x, _ := r.Named(name)
		if id, is := core.Identity(x); is {
			if _, have := names[id]; !have {
				names[id] = name
			}
		}
	}

	if _, err := fmt.Fprintf(w, "graph LR\n"); err != nil {
		return err
	}

	oids := make(map[interface{}]string)
	object := func(x interface{}) (string, bool) {
		id, is := core.Identity(x)
		if !is {
			return "", false
		}
		if oid, already := oids[id]; already {
			return oid, true
		}
		oid := fmt.Sprintf("o%d", len(oids))
		oids[id] = oid
		if name, have := names[id]; have {
			fmt.Fprintf(w, "  %s((\"%s\"))\n", oid, quote(name))
			if opts.NamedFill != "" {
				fmt.Fprintf(w, "  style %s fill:%s\n", oid, opts.NamedFill)
			}
		} else {
			fmt.Fprintf(w, "  %s(\"%T\")\n", oid, x)
		}
		return oid, true
	}

	for i, s := range r.Sites() {
		sid := fmt.Sprintf("s%d", i)
		fmt.Fprintf(w, "  %s[\"%s\"]\n", sid, quote(s.Directive.String()))
		s.Deps(func(x interface{}, key string, hit bool) {
			if !hit && !opts.Misses {
				return
			}
			oid, is := object(x)
			if !is {
				return
			}
			arrow := "-->"
			if !hit {
				arrow = "-.->"
			}
			label := ""
			if opts.ShowKeys && key != "" {
				label = fmt.Sprintf("|%s|", quote(key))
			}
			fmt.Fprintf(w, "  %s %s%s %s\n", oid, arrow, label, sid)
		})
	}

	_, err := fmt.Fprintf(w, "\n")
	return err
}

func quote(s string) string {
	return strings.Replace(s, `"`, "#quot;", -1)
}
