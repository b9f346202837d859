package core

import (
	"strings"
)

// flow says what the walker should do after a directive.
type flow int

const (
	proceed flow = iota // Next directive, then children.
	halt                // Skip the rest of the node and its children.
	looped              // Next directive, but the children belong to a loop.
)

// scoped directives affect the evaluation of the directives after
// them (and of the node's children), so re-rendering one of them
// means re-rendering everything after it.
var scoped = map[string]bool{
	"if":         true,
	"within":     true,
	"anchored":   true,
	"for":        true,
	"withinEach": true,
}

// directives parses the node's directive attribute.
func (e *Engine) directives(n Node) ([]*Directive, error) {
	src, have := n.Attr(e.attr())
	if !have || strings.TrimSpace(src) == "" {
		return nil, nil
	}
	return ParseDirectives(src)
}

// renderNode renders the node and (usually) its descendants.
//
// When explicit is false, an anchor at the node puts its scopes in
// front of the given chain.
func (e *Engine) renderNode(n Node, c *Chain, explicit bool) error {
	if e.Registry.Inert(n) {
		return nil
	}
	if !explicit {
		if scopes, have := e.Registry.Anchored(n); have {
			c = c.with(n, scopes...)
		}
	}
	ds, err := e.directives(n)
	if err != nil {
		return err
	}
	return e.evalFrom(n, ds, 0, c, false)
}

// evalFrom evaluates the directives starting at index i and then
// renders the children.
func (e *Engine) evalFrom(n Node, ds []*Directive, i int, c *Chain, inLoop bool) error {
	for ; i < len(ds); i++ {
		next, f, err := e.eval(n, ds, i, c)
		if err != nil {
			return err
		}
		switch f {
		case halt:
			return nil
		case looped:
			inLoop = true
		}
		c = next
	}
	if inLoop {
		return nil
	}
	return e.renderChildren(n, c)
}

func (e *Engine) renderChildren(n Node, c *Chain) error {
	for _, k := range n.Children() {
		if err := e.renderNode(k, c, false); err != nil {
			return err
		}
	}
	return nil
}

// resume re-evaluates a site for Notify.
func (e *Engine) resume(s *Site) error {
	ds, err := e.directives(s.Node)
	if err != nil {
		return err
	}
	if len(ds) <= s.Index || ds[s.Index].Name != s.Directive.Name {
		// The node's directives have changed under us.
		e.Registry.forget(s.Node, s.Index)
		return nil
	}

	d := ds[s.Index]
	e.logf("resume %s", d)

	c, f, err := e.eval(s.Node, ds, s.Index, s.Chain)
	if err != nil || f == halt {
		return err
	}
	switch {
	case scoped[d.Name]:
		return e.evalFrom(s.Node, ds, s.Index+1, c, f == looped)
	case d.Name == "contain":
		return e.renderChildren(s.Node, c)
	}
	return nil
}

// value returns the value of an argument.
func (e *Engine) value(c *Chain, a Arg, t *tracker) (interface{}, error) {
	var v interface{}
	if a.Kind == Literal {
		v = a.Value
	} else {
		var ok bool
		if v, ok = c.resolve(a.Text, t); !ok && e.Strict {
			return nil, &UnresolvableReference{a.Text}
		}
	}
	if a.Negated {
		return !Truthy(v), nil
	}
	return v, nil
}

func (e *Engine) truthy(c *Chain, a Arg, t *tracker) (bool, error) {
	v, err := e.value(c, a, t)
	return Truthy(v), err
}

func (e *Engine) str(c *Chain, a Arg, t *tracker) (string, error) {
	v, err := e.value(c, a, t)
	return Stringify(v), err
}

// eval evaluates one directive.
//
// Returns the chain for what follows and what the walker should do
// next.  When the chain is anchored, the site is registered with
// whatever the evaluation read.
func (e *Engine) eval(n Node, ds []*Directive, i int, c *Chain) (*Chain, flow, error) {
	d := ds[i]
	if err := d.Check(); err != nil {
		return nil, halt, err
	}

	var (
		t   *tracker
		seq uint64
	)
	if c.Anchored() {
		t = &tracker{}
		seq = e.Registry.reserve()
	}

	next, f, err := e.exec(n, d, i, c, t)
	if err != nil {
		return nil, halt, err
	}

	if t != nil {
		e.Registry.bind(&Site{
			Node:      n,
			Index:     i,
			Directive: d,
			Chain:     c,
			seq:       seq,
		}, t.deps)
	}

	if f == halt {
		// Whatever was registered after this directive was
		// registered when the node was visible.
		e.Registry.forgetFrom(n, i+1)
		for _, k := range n.Children() {
			e.Registry.forgetSubtree(k)
		}
	}

	return next, f, nil
}

func (e *Engine) exec(n Node, d *Directive, i int, c *Chain, t *tracker) (*Chain, flow, error) {
	args := d.Args

	switch d.Name {
	case "contain":
		v, err := e.value(c, args[0], t)
		if err != nil {
			return nil, halt, err
		}
		if child, is := v.(Node); is {
			n.SetContent(child)
		} else {
			n.SetText(Stringify(v))
		}

	case "attr":
		name, err := e.str(c, args[0], t)
		if err != nil {
			return nil, halt, err
		}
		val, err := e.str(c, args[1], t)
		if err != nil {
			return nil, halt, err
		}
		n.SetAttr(name, val)

	case "attrIf":
		ok, err := e.truthy(c, args[0], t)
		if err != nil {
			return nil, halt, err
		}
		name, err := e.str(c, args[1], t)
		if err != nil {
			return nil, halt, err
		}
		if !ok {
			n.RemoveAttr(name)
			break
		}
		val, err := e.str(c, args[2], t)
		if err != nil {
			return nil, halt, err
		}
		n.SetAttr(name, val)

	case "showIf":
		ok, err := e.truthy(c, args[0], t)
		if err != nil {
			return nil, halt, err
		}
		if ok {
			n.SetStyle("display", "")
		} else {
			n.SetStyle("display", "none")
		}

	case "visIf":
		ok, err := e.truthy(c, args[0], t)
		if err != nil {
			return nil, halt, err
		}
		if ok {
			n.SetStyle("visibility", "visible")
		} else {
			n.SetStyle("visibility", "hidden")
		}

	case "classIf":
		ok, err := e.truthy(c, args[0], t)
		if err != nil {
			return nil, halt, err
		}
		class, err := e.str(c, args[1], t)
		if err != nil {
			return nil, halt, err
		}
		e.classIf(n, i, class, ok)

	case "if":
		ok, err := e.truthy(c, args[0], t)
		if err != nil {
			return nil, halt, err
		}
		if !ok {
			return c, halt, nil
		}

	case "within":
		v, err := e.value(c, args[0], t)
		if err != nil {
			return nil, halt, err
		}
		l := &Chain{
			scope: v,
			kind:  withinLink,
			node:  n,
			via:   args[0].Text,
		}
		if args[0].Kind == Literal {
			l.kind, l.via = rootLink, ""
		}
		return c.push(l), proceed, nil

	case "anchored":
		key := args[0].Text
		v, have := e.Registry.Named(key)
		if !have {
			var err error
			if v, err = e.value(c, args[0], t); err != nil {
				return nil, halt, err
			}
		}
		return c.push(&Chain{
			scope:    v,
			kind:     anchoredLink,
			node:     n,
			via:      key,
			anchored: true,
		}), proceed, nil

	case "for":
		alias, name := "", args[0].Text
		if len(args) == 2 {
			alias, name = args[0].Text, args[1].Text
		}
		if err := e.reconcile(n, c, &loopItem{alias, name}, t); err != nil {
			return nil, halt, err
		}
		return c, looped, nil

	case "withinEach":
		if err := e.reconcile(n, c, nil, t); err != nil {
			return nil, halt, err
		}
		return c, looped, nil

	default:
		return nil, halt, &UnknownDirective{
			Name: d.Name,
			Node: n,
		}
	}

	return c, proceed, nil
}

// classIf adds or removes the class.  A class previously added by the
// same directive under another name is removed.  Other classes are
// left alone.
func (e *Engine) classIf(n Node, i int, class string, ok bool) {
	m, have := e.Registry.classes[n]
	if !have {
		m = make(map[int]string, 1)
		e.Registry.classes[n] = m
	}
	if prev, have := m[i]; have && prev != class {
		n.RemoveClass(prev)
		delete(m, i)
	}
	if class == "" {
		return
	}
	if ok {
		n.AddClass(class)
		m[i] = class
	} else {
		n.RemoveClass(class)
		delete(m, i)
	}
}
