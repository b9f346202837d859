package core

// These errors are user errors (bad templates or bad data), not
// internal errors.  All of them abort the current Render or Notify.

import (
	"errors"
	"fmt"
)

// UnknownDirective occurs when a node's directive attribute names an
// instruction that the evaluator doesn't know.
//
// Detected at evaluation time, not parse time.
type UnknownDirective struct {
	Name string
	Node Node
}

func (e *UnknownDirective) Error() string {
	return `unknown directive "` + e.Name + `"`
}

// BadDirective occurs when a directive is given the wrong number of
// arguments or when its text can't be parsed.
type BadDirective struct {
	Name   string
	Source string
	Reason string
}

func (e *BadDirective) Error() string {
	if e.Name == "" {
		return `bad directive "` + e.Source + `": ` + e.Reason
	}
	return `bad directive "` + e.Name + `" in "` + e.Source + `": ` + e.Reason
}

// MalformedLoop occurs when a loop-bearing node doesn't have both a
// template child and a results child.
type MalformedLoop struct {
	Node     Node
	Children int
}

func (e *MalformedLoop) Error() string {
	return fmt.Sprintf("loop node needs a template node and a results node (found %d element children)", e.Children)
}

// NotIterable occurs when a loop's source isn't a collection.
type NotIterable struct {
	Value interface{}
}

func (e *NotIterable) Error() string {
	return fmt.Sprintf("can't loop over a %T", e.Value)
}

// UnresolvableReference is only reported when Engine.Strict is on.
// Otherwise an unresolved name is just undefined (nil).
type UnresolvableReference struct {
	Path string
}

func (e *UnresolvableReference) Error() string {
	return `can't resolve "` + e.Path + `"`
}

// NotSettable occurs when Set is given a target that has no storage
// for the given key.
type NotSettable struct {
	Target interface{}
	Key    string
}

func (e *NotSettable) Error() string {
	return fmt.Sprintf(`can't set "%s" on a %T`, e.Key, e.Target)
}

// NoRoot occurs when Render is called without a node.
var NoRoot = errors.New("no node to render")
