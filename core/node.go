package core

// Node is the small part of a markup tree that the engine needs.
//
// The engine never builds or diffs trees.  It only mutates the nodes
// it's given through this interface, so a Node implementation owns
// the actual tree.  See package dom for an implementation based on
// golang.org/x/net/html.
//
// Node identity is interface equality, so an implementation must
// hand out the same value for the same underlying node.
type Node interface {
	// Attr returns the value of the attribute (if any).
	Attr(name string) (string, bool)
	SetAttr(name, value string)
	RemoveAttr(name string)

	HasClass(class string) bool
	AddClass(class string)
	RemoveClass(class string)

	// Style returns an inline style property ("" if not set).
	Style(property string) string

	// SetStyle sets an inline style property.  An empty value
	// removes the property.
	SetStyle(property, value string)

	// SetText replaces all of the node's content with the given
	// text.
	SetText(text string)

	// SetContent makes the given node the sole child of this node.
	SetContent(child Node)

	// Children returns the element children in document order.
	// Text and comments don't count.
	Children() []Node

	// Parent returns nil for a detached node.
	Parent() Node

	// Clone makes a deep, detached copy.
	Clone() Node

	AppendChild(child Node)
	RemoveChild(child Node)
}

// descends reports whether n is a or is below a.
func descends(n, a Node) bool {
	for ; n != nil; n = n.Parent() {
		if n == a {
			return true
		}
	}
	return false
}

// walk calls f on n and all of n's element descendants.
func walk(n Node, f func(Node)) {
	f(n)
	for _, k := range n.Children() {
		walk(k, f)
	}
}
