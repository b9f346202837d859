// Package rebind provides reactive, directive-driven rendering of
// markup trees.
//
// Templates carry small instructions in an attribute ("react" by
// default).  The engine evaluates those instructions against a chain
// of data scopes, remembers which bindings read which objects, and
// re-renders only those bindings when the host says an object
// changed.
//
// The engine is in package 'core'.  Package 'dom' connects it to
// golang.org/x/net/html, 'sio' feeds it mutations from the outside
// world, and 'cmd/rebind' is a command-line tool.
package rebind
