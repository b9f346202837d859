package core

import (
	"log"
	"reflect"
)

var (
	// DefaultAttr is the attribute that holds a node's directives
	// when Engine.Attr is empty.
	DefaultAttr = "react"

	// DefaultEngine is used by the package-level functions
	// Render, Notify, Set, etc.
	DefaultEngine = NewEngine(DefaultRegistry)
)

// Engine renders nodes and re-renders them when their data changes.
//
// An Engine isn't safe for concurrent use.  All of its methods run to
// completion before returning.
type Engine struct {
	// Registry holds the state that survives from one Render to
	// the next.
	Registry *Registry

	// Attr is the name of the attribute that holds directives.
	// DefaultAttr is used if Attr is empty.
	Attr string

	// Strict makes unresolvable identifiers errors
	// (UnresolvableReference) instead of undefined values.
	Strict bool

	// Debug turns on logging.
	Debug bool
}

// NewEngine makes an Engine with the given Registry.  A nil Registry
// gets a new one.
func NewEngine(r *Registry) *Engine {
	if r == nil {
		r = NewRegistry()
	}
	return &Engine{
		Registry: r,
	}
}

func (e *Engine) logf(format string, args ...interface{}) {
	if e.Debug {
		log.Printf("Engine."+format, args...)
	}
}

func (e *Engine) attr() string {
	if e.Attr == "" {
		return DefaultAttr
	}
	return e.Attr
}

// RenderOpts are the options for RenderWith.
type RenderOpts struct {
	// Node is the root node to render.
	Node Node

	// Scope, if not nil, is the nearest scope.
	Scope interface{}

	// Scopes are additional scopes, which are tried in order
	// after Scope.
	Scopes []interface{}

	// Anchor anchors the node to the scopes (see AnchorNode)
	// before rendering, so later Notifys (and Sets) re-render the
	// affected bindings.
	Anchor bool
}

// Render evaluates the directives at root and its descendants.
//
// The scopes are tried in the given order.  With no scopes, the
// scopes (if any) that were anchored to the root are used.
func (e *Engine) Render(root Node, scopes ...interface{}) (Node, error) {
	return e.RenderWith(&RenderOpts{
		Node:   root,
		Scopes: scopes,
	})
}

// RenderWith is Render with options.  Returns the root node.
func (e *Engine) RenderWith(o *RenderOpts) (Node, error) {
	if o == nil || o.Node == nil {
		return nil, NoRoot
	}
	n := o.Node

	scopes := o.Scopes
	if o.Scope != nil {
		scopes = append([]interface{}{o.Scope}, scopes...)
	}

	if o.Anchor {
		if 0 < len(scopes) {
			e.Registry.Anchor(n, scopes...)
		}
		return n, e.renderNode(n, nil, false)
	}

	if len(scopes) == 0 {
		return n, e.renderNode(n, nil, false)
	}

	// Explicit scopes take precedence over an anchor at the root.
	return n, e.renderNode(n, newChain(n, false, scopes...), true)
}

// AnchorNode associates the node (and its descendants) with the
// scopes without rendering.
func (e *Engine) AnchorNode(n Node, scopes ...interface{}) {
	e.Registry.Anchor(n, scopes...)
}

// Name associates a name with an object.  See the 'anchored'
// directive.
func (e *Engine) Name(name string, x interface{}) {
	e.Registry.Name(name, x)
}

// Named returns the object with the given name.
func (e *Engine) Named(name string) (interface{}, bool) {
	return e.Registry.Named(name)
}

// Notify re-renders the bindings that depend on the object.
//
// With keys, only the bindings that read one of those keys on the
// object (and bindings that depend on the object as a whole, like
// loops) are re-rendered.  Without keys, all bindings that read
// something from the object are re-rendered.
//
// Bindings whose node has been detached, or whose chain no longer
// leads to the object, are skipped.
func (e *Engine) Notify(x interface{}, keys ...string) error {
	ss := e.Registry.matching(x, keys)
	e.logf("Notify %T %v: %d sites", x, keys, len(ss))
	for _, s := range ss {
		if !e.Registry.current(s) {
			// Already re-rendered (and re-registered) by an
			// earlier site in this pass.
			continue
		}
		if !e.Registry.holds(s.Chain, s.Node) {
			e.logf("Notify skipping stale %s", s.Directive)
			continue
		}
		if err := e.resume(s); err != nil {
			return err
		}
	}
	return nil
}

// Set sets the property on the object and then Notifies.
//
// The object can be a map[string]interface{}, a Setter (including
// *List), or some other map with string keys.
func (e *Engine) Set(x interface{}, key string, value interface{}) error {
	switch vv := x.(type) {
	case Setter:
		if err := vv.Set(key, value); err != nil {
			return err
		}
	case map[string]interface{}:
		vv[key] = value
	default:
		rv := reflect.ValueOf(x)
		if rv.Kind() != reflect.Map || rv.IsNil() || rv.Type().Key().Kind() != reflect.String {
			return &NotSettable{x, key}
		}
		var v reflect.Value
		if value == nil {
			v = reflect.Zero(rv.Type().Elem())
		} else {
			v = reflect.ValueOf(value)
			if !v.Type().AssignableTo(rv.Type().Elem()) {
				return &NotSettable{x, key}
			}
		}
		rv.SetMapIndex(reflect.ValueOf(key).Convert(rv.Type().Key()), v)
	}
	return e.Notify(x, key)
}

// Render calls DefaultEngine.Render.
func Render(root Node, scopes ...interface{}) (Node, error) {
	return DefaultEngine.Render(root, scopes...)
}

// RenderWith calls DefaultEngine.RenderWith.
func RenderWith(o *RenderOpts) (Node, error) {
	return DefaultEngine.RenderWith(o)
}

// AnchorNode calls DefaultEngine.AnchorNode.
func AnchorNode(n Node, scopes ...interface{}) {
	DefaultEngine.AnchorNode(n, scopes...)
}

// Notify calls DefaultEngine.Notify.
func Notify(x interface{}, keys ...string) error {
	return DefaultEngine.Notify(x, keys...)
}

// Set calls DefaultEngine.Set.
func Set(x interface{}, key string, value interface{}) error {
	return DefaultEngine.Set(x, key, value)
}

// Name calls DefaultEngine.Name.
func Name(name string, x interface{}) {
	DefaultEngine.Name(name, x)
}

// Named calls DefaultEngine.Named.
func Named(name string) (interface{}, bool) {
	return DefaultEngine.Named(name)
}
