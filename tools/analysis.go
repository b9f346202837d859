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
	"sort"
	"strconv"
	"strings"

	"github.com/Comcast/rebind/core"
)

// Finding is a problem with a template.
type Finding struct {
	// Path locates the node: child indexes from the root, or the
	// nearest id.
	Path string `json:"path"`

	// Source is the node's directive attribute value.
	Source string `json:"source"`

	Problem string `json:"problem"`

	Node core.Node `json:"-"`
}

func (f *Finding) String() string {
	return fmt.Sprintf("%s: %s (%q)", f.Path, f.Problem, f.Source)
}

// Analysis summarizes a template without rendering it.
type Analysis struct {
	Findings []*Finding `json:"findings,omitempty"`

	// Nodes counts the nodes that have directives.
	Nodes int `json:"nodes"`

	// Directives counts directives by name.
	Directives map[string]int `json:"directives"`

	// Loops counts loop nodes.
	Loops int `json:"loops"`

	// Refs are the names that the template resolves (first path
	// segments), sorted.
	Refs []string `json:"refs"`
}

// Analyze walks the template (with "react" or the given attribute)
// and reports unparsable directive lists, unknown directives, wrong
// arities, and loop nodes without a template and a results child.
//
// Children of a loop's results container aren't examined.  They are
// generated.
func Analyze(root core.Node, attr string) *Analysis {
	if attr == "" {
		attr = core.DefaultAttr
	}
	a := &Analysis{
		Directives: make(map[string]int, 16),
	}
	refs := make(map[string]bool)

	var walk func(n core.Node, path string)
	walk = func(n core.Node, path string) {
		if id, have := n.Attr("id"); have && id != "" {
			path = "#" + id
		}

		kids := n.Children()

		src, have := n.Attr(attr)
		if have && strings.TrimSpace(src) != "" {
			a.Nodes++
			loop := a.directives(n, path, src, refs)
			if loop {
				a.Loops++
				if len(kids) < 2 {
					a.add(n, path, src, (&core.MalformedLoop{Node: n, Children: len(kids)}).Error())
				} else {
					// Just the template.
					kids = kids[:1]
				}
			}
		}

		for i, kid := range kids {
			walk(kid, path+"/"+strconv.Itoa(i))
		}
	}
	walk(root, "")

	a.Refs = keys(refs)

	return a
}

// directives examines a directive list and reports whether it makes
// the node a loop.
func (a *Analysis) directives(n core.Node, path, src string, refs map[string]bool) bool {
	ds, err := core.ParseDirectives(src)
	if err != nil {
		a.add(n, path, src, err.Error())
		return false
	}
	loop := false
	for _, d := range ds {
		a.Directives[d.Name]++
		if _, known := core.Arity[d.Name]; !known {
			a.add(n, path, src, (&core.UnknownDirective{Name: d.Name, Node: n}).Error())
			continue
		}
		if err := d.Check(); err != nil {
			a.add(n, path, src, err.Error())
			continue
		}
		switch d.Name {
		case "for", "withinEach":
			// Loop arguments introduce names.
			loop = true
			continue
		case "anchored":
			continue
		}
		for _, arg := range d.Args {
			if arg.Kind == core.Ident {
				refs[strings.SplitN(arg.Text, ".", 2)[0]] = true
			}
		}
	}
	return loop
}

func (a *Analysis) add(n core.Node, path, src, problem string) {
	if path == "" {
		path = "/"
	}
	a.Findings = append(a.Findings, &Finding{
		Path:    path,
		Source:  src,
		Problem: problem,
		Node:    n,
	})
}

// keys returns the map's keys, sorted.
func keys(m map[string]bool) []string {
	acc := make([]string, 0, len(m))
	for k := range m {
		acc = append(acc, k)
	}
	sort.Strings(acc)
	return acc
}
