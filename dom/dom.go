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

// Package dom implements core.Node for trees parsed by
// golang.org/x/net/html.
//
// An Element is a value holding an *html.Node.  Two Elements are
// equal (and so the same core.Node) exactly when they hold the same
// html.Node, so wrapping a node again is free and nothing needs to
// remember wrappers.
package dom

import (
	"bytes"
	"errors"
	"io"
	"strings"

	"github.com/Comcast/rebind/core"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Element is an element node.
//
// The html.Node's fields are promoted, except Attr and Parent, which
// are the core.Node methods.  Use HTML().Attr for the raw attributes.
type Element struct {
	*html.Node
}

// Wrap returns the Element for the html.Node.
func Wrap(n *html.Node) Element {
	return Element{n}
}

// HTML returns the underlying html.Node.
func (e Element) HTML() *html.Node {
	return e.Node
}

// IsZero reports whether the Element holds no node.
func (e Element) IsZero() bool {
	return e.Node == nil
}

// NoElement is returned when markup has no element to work with.
var NoElement = errors.New("no element")

// Document parses a complete HTML document and returns its <html>
// element.
func Document(r io.Reader) (Element, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return Element{}, err
	}
	for c := doc.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			return Wrap(c), nil
		}
	}
	return Element{}, NoElement
}

var bodyContext = &html.Node{
	Type:     html.ElementNode,
	Data:     "body",
	DataAtom: atom.Body,
}

// Fragment parses markup that isn't a complete document.
//
// If the markup has exactly one top-level element, that element is
// returned.  Otherwise the top-level nodes are put in a new <div>.
func Fragment(src string) (Element, error) {
	ns, err := html.ParseFragment(strings.NewReader(src), bodyContext)
	if err != nil {
		return Element{}, err
	}
	return adopt(ns)
}

// MustFragment is Fragment that panics on error.  For tests and
// literals.
func MustFragment(src string) Element {
	e, err := Fragment(src)
	if err != nil {
		panic(err)
	}
	return e
}

func adopt(ns []*html.Node) (Element, error) {
	var (
		elements = 0
		text     = false
		first    *html.Node
	)
	for _, n := range ns {
		switch n.Type {
		case html.ElementNode:
			elements++
			if first == nil {
				first = n
			}
		case html.TextNode:
			if strings.TrimSpace(n.Data) != "" {
				text = true
			}
		}
	}
	if elements == 1 && !text {
		detach(first)
		return Wrap(first), nil
	}
	if len(ns) == 0 {
		return Element{}, NoElement
	}
	div := &html.Node{
		Type:     html.ElementNode,
		Data:     "div",
		DataAtom: atom.Div,
	}
	for _, n := range ns {
		if n.Parent != nil {
			n.Parent.RemoveChild(n)
		}
		div.AppendChild(n)
	}
	return Wrap(div), nil
}

// Render writes the element's markup.
func (e Element) Render(w io.Writer) error {
	return html.Render(w, e.HTML())
}

// String returns the element's markup.
func (e Element) String() string {
	var buf bytes.Buffer
	if err := e.Render(&buf); err != nil {
		return "<!-- " + err.Error() + " -->"
	}
	return buf.String()
}

// Inner returns the markup of the element's content.
func (e Element) Inner() string {
	var buf bytes.Buffer
	for c := e.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return "<!-- " + err.Error() + " -->"
		}
	}
	return buf.String()
}

// Text returns the concatenated text content.
func (e Element) Text() string {
	var buf strings.Builder
	var f func(n *html.Node)
	f = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			f(c)
		}
	}
	f(e.HTML())
	return buf.String()
}

// Find returns the first element (in document order, starting with
// e) that satisfies the predicate.  The result IsZero if there isn't
// one.
func (e Element) Find(pred func(Element) bool) Element {
	if pred(e) {
		return e
	}
	for c := e.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		if found := Wrap(c).Find(pred); !found.IsZero() {
			return found
		}
	}
	return Element{}
}

// ByID finds the element with the given id.
func (e Element) ByID(id string) Element {
	return e.Find(func(x Element) bool {
		v, have := x.Attr("id")
		return have && v == id
	})
}

// Attr implements core.Node.
func (e Element) Attr(name string) (string, bool) {
	for _, a := range e.HTML().Attr {
		if a.Namespace == "" && a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

// SetAttr implements core.Node.
func (e Element) SetAttr(name, value string) {
	n := e.HTML()
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == name {
			n.Attr[i].Val = value
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{
		Key: name,
		Val: value,
	})
}

// RemoveAttr implements core.Node.
func (e Element) RemoveAttr(name string) {
	n := e.HTML()
	acc := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == name {
			continue
		}
		acc = append(acc, a)
	}
	n.Attr = acc
}

func (e Element) classes() []string {
	s, _ := e.Attr("class")
	return strings.Fields(s)
}

// HasClass implements core.Node.
func (e Element) HasClass(class string) bool {
	for _, c := range e.classes() {
		if c == class {
			return true
		}
	}
	return false
}

// AddClass implements core.Node.
func (e Element) AddClass(class string) {
	if class == "" || e.HasClass(class) {
		return
	}
	e.SetAttr("class", strings.Join(append(e.classes(), class), " "))
}

// RemoveClass implements core.Node.  The class attribute is removed
// when no classes are left.
func (e Element) RemoveClass(class string) {
	if !e.HasClass(class) {
		return
	}
	cs := e.classes()
	acc := cs[:0]
	for _, c := range cs {
		if c != class {
			acc = append(acc, c)
		}
	}
	if len(acc) == 0 {
		e.RemoveAttr("class")
		return
	}
	e.SetAttr("class", strings.Join(acc, " "))
}

// Style implements core.Node.
func (e Element) Style(property string) string {
	s, _ := e.Attr("style")
	v, _ := parseStyle(s).get(property)
	return v
}

// SetStyle implements core.Node.  The style attribute is removed when
// no properties are left.
func (e Element) SetStyle(property, value string) {
	s, _ := e.Attr("style")
	st := parseStyle(s).set(property, value)
	if len(st) == 0 {
		e.RemoveAttr("style")
		return
	}
	e.SetAttr("style", st.String())
}

func (e Element) clear() {
	n := e.HTML()
	for c := n.FirstChild; c != nil; c = n.FirstChild {
		n.RemoveChild(c)
	}
}

// SetText implements core.Node.
func (e Element) SetText(text string) {
	e.clear()
	if text == "" {
		return
	}
	e.HTML().AppendChild(&html.Node{
		Type: html.TextNode,
		Data: text,
	})
}

// SetContent implements core.Node.
func (e Element) SetContent(child core.Node) {
	c, ok := asElement(child)
	if !ok {
		e.clear()
		return
	}
	n := e.HTML()
	if n.FirstChild == c.HTML() && n.LastChild == c.HTML() {
		return
	}
	detach(c.HTML())
	e.clear()
	n.AppendChild(c.HTML())
}

// Children implements core.Node.
func (e Element) Children() []core.Node {
	var acc []core.Node
	for c := e.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			acc = append(acc, Wrap(c))
		}
	}
	return acc
}

// Parent implements core.Node.  Only element parents count, so the
// <html> element of a document has no Parent.
func (e Element) Parent() core.Node {
	p := e.HTML().Parent
	if p == nil || p.Type != html.ElementNode {
		return nil
	}
	return Wrap(p)
}

// Clone implements core.Node.
func (e Element) Clone() core.Node {
	return Wrap(clone(e.HTML()))
}

func clone(n *html.Node) *html.Node {
	m := &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
	}
	if n.Attr != nil {
		m.Attr = make([]html.Attribute, len(n.Attr))
		copy(m.Attr, n.Attr)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		m.AppendChild(clone(c))
	}
	return m
}

// AppendChild implements core.Node.  The child is detached from its
// current parent first.
func (e Element) AppendChild(child core.Node) {
	c, ok := asElement(child)
	if !ok {
		return
	}
	detach(c.HTML())
	e.HTML().AppendChild(c.HTML())
}

// RemoveChild implements core.Node.  Does nothing if the node isn't a
// child.
func (e Element) RemoveChild(child core.Node) {
	c, ok := asElement(child)
	if !ok || c.HTML().Parent != e.HTML() {
		return
	}
	e.HTML().RemoveChild(c.HTML())
}

func detach(n *html.Node) {
	if n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}

func asElement(n core.Node) (Element, bool) {
	e, is := n.(Element)
	return e, is && e.Node != nil
}
