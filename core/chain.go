package core

import (
	"strconv"
	"strings"
)

// linkKind says how a link got into a chain.  The registry uses this
// information to check that an old chain still describes the tree
// and the data.
type linkKind int

const (
	rootLink     linkKind = iota // Given to Render or AnchorNode.
	withinLink                   // A 'within' directive.
	anchoredLink                 // An 'anchored' directive.
	itemLink                     // A named loop item (for which item).
	elementLink                  // A loop element spliced in (withinEach).
)

// Chain is an immutable scope chain.  The receiver is the nearest
// link.  A nil *Chain is an empty chain.
type Chain struct {
	scope  interface{}
	parent *Chain

	kind linkKind

	// node introduced this link.
	node Node

	// via is the key that was resolved to get the scope (for
	// within and anchored links).
	via string

	// loop is set for item and element links.
	loop *loopRef

	// anchored means that bindings evaluated with this chain
	// should be registered.
	anchored bool
}

// loopRef identifies one element of a loop's collection.
type loopRef struct {
	coll  interface{}
	index int
}

// NewChain makes a chain from the given scopes, which are tried in
// the given order.
func NewChain(scopes ...interface{}) *Chain {
	return newChain(nil, false, scopes...)
}

func newChain(n Node, anchored bool, scopes ...interface{}) *Chain {
	var c *Chain
	for i := len(scopes) - 1; 0 <= i; i-- {
		c = c.push(&Chain{
			scope:    scopes[i],
			kind:     rootLink,
			node:     n,
			anchored: anchored,
		})
	}
	return c
}

// with returns a new chain with the anchored scopes (nearest first)
// in front.
func (c *Chain) with(n Node, scopes ...interface{}) *Chain {
	acc := newChain(n, true, scopes...)
	if acc == nil {
		return c
	}
	last := acc
	for last.parent != nil {
		last = last.parent
	}
	last.parent = c
	return acc
}

// push returns a new chain with the given link in front.
func (c *Chain) push(l *Chain) *Chain {
	l.parent = c
	if c != nil && c.anchored {
		l.anchored = true
	}
	return l
}

// Head returns the nearest scope.
func (c *Chain) Head() interface{} {
	if c == nil {
		return nil
	}
	if c.kind == itemLink {
		return c.parent.Head()
	}
	return c.scope
}

// Scopes returns the scopes nearest first.
func (c *Chain) Scopes() []interface{} {
	var acc []interface{}
	for l := c; l != nil; l = l.parent {
		acc = append(acc, l.scope)
	}
	return acc
}

// Len returns the number of links.
func (c *Chain) Len() int {
	n := 0
	for l := c; l != nil; l = l.parent {
		n++
	}
	return n
}

// Anchored reports whether evaluations with this chain are
// registered for later Notifys.
func (c *Chain) Anchored() bool {
	return c != nil && c.anchored
}

// loopItem is the scope of an itemLink.  It binds the loop's alias
// (if any) to the index and the item name to the element.
type loopItem struct {
	alias string
	name  string
}

// lookup looks for the key in this link only.
//
// The returned owner and key are what a dependency should be
// registered against.  A nil owner means that the value can't
// change.
func (c *Chain) lookup(key string) (v interface{}, this interface{}, owner interface{}, okey string, ok bool) {
	if c.kind == itemLink {
		li := c.scope.(*loopItem)
		switch key {
		case li.alias:
			return c.loop.index, nil, nil, "", true
		case li.name:
			idx := strconv.Itoa(c.loop.index)
			v, _, ok = get(c.loop.coll, idx)
			return v, c.loop.coll, c.loop.coll, idx, ok
		}
		return nil, nil, nil, "", false
	}
	v, this, ok = get(c.scope, key)
	return v, this, c.scope, key, ok
}

// tracker gathers the dependencies of one evaluation.
type tracker struct {
	deps []dep
}

// dep says that an evaluation read (or tried to read) a key on an
// object.
//
// An empty key means the whole object (used by loops).
type dep struct {
	obj interface{}
	key string
	hit bool
}

func (t *tracker) add(obj interface{}, key string, hit bool) {
	if t == nil || obj == nil {
		return
	}
	if _, is := identity(obj); !is {
		return
	}
	t.deps = append(t.deps, dep{obj, key, hit})
}

// Resolve resolves a name or dotted path.  See resolve.
func (c *Chain) Resolve(path string) interface{} {
	v, _ := c.resolve(path, nil)
	return v
}

// Lookup resolves the dotted path against the single scope x, the
// way a chain with just x would.  An empty path gives x itself.
func Lookup(x interface{}, path string) (interface{}, bool) {
	if path == "" {
		return x, x != nil
	}
	return newChain(nil, false, x).resolve(path, nil)
}

// resolve finds the first segment of the path by trying each link,
// nearest first, and then resolves the remaining segments by direct
// property access.  Callables are called along the way, except when
// the next segment names a property of a Namespace.
//
// The second return value is false if the path is undefined: a
// segment is missing.  A nil found on a nearer link is defined and
// stops the search.
func (c *Chain) resolve(path string, t *tracker) (interface{}, bool) {
	segs := strings.Split(path, ".")

	var (
		v     interface{}
		this  interface{}
		found bool
	)
	for l := c; l != nil; l = l.parent {
		x, th, owner, key, ok := l.lookup(segs[0])
		t.add(owner, key, ok)
		if ok {
			v, this, found = x, th, true
			break
		}
	}
	if !found {
		return nil, false
	}

	for _, seg := range segs[1:] {
		if callable(v) {
			if ns, is := v.(*Namespace); is {
				if x, have := ns.Props[seg]; have {
					this, v = ns, x
					continue
				}
			}
			v = call(v, this)
		}
		x, th, ok := get(v, seg)
		t.add(v, seg, ok)
		if !ok {
			return nil, false
		}
		v, this = x, th
	}

	if callable(v) {
		v = call(v, this)
	}

	return v, true
}
