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

package core

import (
	"sort"
)

// DefaultRegistry is used by DefaultEngine.
var DefaultRegistry = NewRegistry()

// Site is a binding site: one directive on one node together with
// the exact chain it was evaluated with.
type Site struct {
	Node      Node
	Index     int
	Directive *Directive
	Chain     *Chain

	deps []dep

	// seq orders sites by when their evaluation started, which
	// (within a render pass) is document order.
	seq uint64
}

// Deps calls the given function for each object (and key) that the
// site depends on.  An empty key means the whole object.
func (s *Site) Deps(f func(obj interface{}, key string, hit bool)) {
	for _, d := range s.deps {
		f(d.obj, d.key, d.hit)
	}
}

// loopState is the template/results pair of a loop node.
type loopState struct {
	template Node
	results  Node

	// stencil is a pristine copy of the template.  Instances are
	// cloned from it.
	stencil Node

	instances []Node
}

// Registry holds all of the engine's state that outlives a single
// Render:
//
//   binding sites and the objects they depend on,
//   node anchors,
//   named objects,
//   loop template/results pairs.
//
// A Registry isn't safe for concurrent use.  The engine is
// single-threaded, so users that have several goroutines should
// funnel their calls through one goroutine.  (See sio.Pump.)
//
// The registry doesn't keep objects or nodes alive in any meaningful
// sense for the host: it only looks them up.  Stale sites are checked
// when they are found (see holds) and pruned when the engine
// knows that their nodes are gone (loop instances removed, subtrees
// hidden by 'if').
type Registry struct {
	sites   map[Node]map[int]*Site
	objects map[interface{}]map[*Site]bool
	anchors map[Node][]interface{}
	names   map[string]interface{}
	loops   map[Node]*loopState
	inert   map[Node]bool

	// classes remembers the class that each classIf added, so
	// the class can be removed when its name changes.
	classes map[Node]map[int]string

	seq uint64
}

// NewRegistry makes an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		sites:   make(map[Node]map[int]*Site, 32),
		objects: make(map[interface{}]map[*Site]bool, 32),
		anchors: make(map[Node][]interface{}, 8),
		names:   make(map[string]interface{}, 8),
		loops:   make(map[Node]*loopState, 8),
		inert:   make(map[Node]bool, 8),
		classes: make(map[Node]map[int]string, 8),
	}
}

// Name associates the name with the object.  Last write wins, and
// nothing is notified.
func (r *Registry) Name(name string, x interface{}) {
	r.names[name] = x
}

// Named returns the object with the given name.
func (r *Registry) Named(name string) (interface{}, bool) {
	x, have := r.names[name]
	return x, have
}

// Names returns the names given to objects, sorted.
func (r *Registry) Names() []string {
	acc := make([]string, 0, len(r.names))
	for name := range r.names {
		acc = append(acc, name)
	}
	sort.Strings(acc)
	return acc
}

// Anchor associates the node (and its descendants) with the given
// scopes.  When the walker reaches the node, these scopes are put in
// front of the chain, and the bindings below are registered.
//
// No scopes removes the anchor.
func (r *Registry) Anchor(n Node, scopes ...interface{}) {
	if len(scopes) == 0 {
		delete(r.anchors, n)
		return
	}
	r.anchors[n] = scopes
}

// Anchored returns the scopes (if any) anchored at the node.
func (r *Registry) Anchored(n Node) ([]interface{}, bool) {
	scopes, have := r.anchors[n]
	return scopes, have
}

// Inert reports whether the node is a loop template.
func (r *Registry) Inert(n Node) bool {
	return r.inert[n]
}

// Len returns the number of registered sites.
func (r *Registry) Len() int {
	n := 0
	for _, m := range r.sites {
		n += len(m)
	}
	return n
}

// Sites returns all registered sites in registration order.
func (r *Registry) Sites() []*Site {
	acc := make([]*Site, 0, 32)
	for _, m := range r.sites {
		for _, s := range m {
			acc = append(acc, s)
		}
	}
	sortSites(acc)
	return acc
}

// bind registers the site, replacing any previous registration for
// the same node and directive.
func (r *Registry) bind(s *Site, deps []dep) {
	r.forget(s.Node, s.Index)

	if s.seq == 0 {
		s.seq = r.reserve()
	}
	s.deps = deps

	m, have := r.sites[s.Node]
	if !have {
		m = make(map[int]*Site, 2)
		r.sites[s.Node] = m
	}
	m[s.Index] = s

	for _, d := range deps {
		id, _ := identity(d.obj)
		ss, have := r.objects[id]
		if !have {
			ss = make(map[*Site]bool, 4)
			r.objects[id] = ss
		}
		ss[s] = true
	}
}

// reserve returns the next sequence number.  A directive that renders
// other nodes during its evaluation (a loop) reserves its number first
// so that it comes before them.
func (r *Registry) reserve() uint64 {
	r.seq++
	return r.seq
}

// forget removes the registration (if any) for the directive at the
// node.
func (r *Registry) forget(n Node, index int) {
	m, have := r.sites[n]
	if !have {
		return
	}
	s, have := m[index]
	if !have {
		return
	}
	delete(m, index)
	if len(m) == 0 {
		delete(r.sites, n)
	}
	for _, d := range s.deps {
		id, _ := identity(d.obj)
		if ss, have := r.objects[id]; have {
			delete(ss, s)
			if len(ss) == 0 {
				delete(r.objects, id)
			}
		}
	}
}

// forgetFrom removes the registrations for the directives at index
// 'from' and later.
func (r *Registry) forgetFrom(n Node, from int) {
	for i := range r.sites[n] {
		if from <= i {
			r.forget(n, i)
		}
	}
}

// forgetSubtree removes all registrations for the node and its
// descendants.
func (r *Registry) forgetSubtree(n Node) {
	walk(n, func(d Node) {
		r.forgetFrom(d, 0)
	})
}

// drop forgets everything about the node and its descendants.  Used
// when a loop instance is removed.
func (r *Registry) drop(n Node) {
	walk(n, func(d Node) {
		r.forgetFrom(d, 0)
		delete(r.loops, d)
		delete(r.inert, d)
		delete(r.anchors, d)
		delete(r.classes, d)
	})
}

// current reports whether the site is still the registration for
// its node and directive.
func (r *Registry) current(s *Site) bool {
	return r.sites[s.Node][s.Index] == s
}

// matching returns the sites that depend on the object (and key) in
// registration order.
//
// With no key, every site registered under the object matches,
// including sites that only tried to read a missing property.  With
// a key, sites that read (or tried to read) that key match, and so
// do sites that depend on the whole object.
func (r *Registry) matching(x interface{}, keys []string) []*Site {
	id, is := identity(x)
	if !is {
		return nil
	}
	acc := make([]*Site, 0, len(r.objects[id]))
	for s := range r.objects[id] {
		for _, d := range s.deps {
			if did, _ := identity(d.obj); did != id {
				continue
			}
			if d.key == "" || len(keys) == 0 || hasKey(keys, d.key) {
				acc = append(acc, s)
				break
			}
		}
	}
	sortSites(acc)
	return acc
}

func hasKey(keys []string, key string) bool {
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}

func sortSites(ss []*Site) {
	sort.Slice(ss, func(i, j int) bool {
		return ss[i].seq < ss[j].seq
	})
}

// holds checks that the chain still describes the tree and the data
// for a site at the given node.
//
// Each link must have been introduced by the node or by one of its
// ancestors (so a detached node fails), each 'within' (and
// 'anchored') link must still resolve to the same object, and each
// loop link must still refer to an existing element.
func (r *Registry) holds(c *Chain, n Node) bool {
	for l := c; l != nil; l = l.parent {
		if l.node != nil {
			if !descends(n, l.node) {
				return false
			}
			n = l.node
		}
		switch l.kind {
		case withinLink:
			v, _ := l.parent.resolve(l.via, nil)
			if !same(v, l.scope) {
				return false
			}
		case anchoredLink:
			if !same(r.anchoredScope(l.via, l.parent), l.scope) {
				return false
			}
		case itemLink, elementLink:
			xs, is := asList(l.loop.coll)
			if !is || xs.Len() <= l.loop.index {
				return false
			}
			if l.kind == elementLink && !same(xs.At(l.loop.index), l.scope) {
				return false
			}
		}
	}
	return true
}

// anchoredScope resolves the key of an 'anchored' directive: first as
// a name and then via the chain.
func (r *Registry) anchoredScope(key string, c *Chain) interface{} {
	if x, have := r.names[key]; have {
		return x
	}
	v, _ := c.resolve(key, nil)
	return v
}
