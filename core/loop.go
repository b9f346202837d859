package core

// loop returns the template/results state for the loop node, setting
// it up on first encounter.
func (e *Engine) loop(n Node) (*loopState, error) {
	if s, have := e.Registry.loops[n]; have {
		return s, nil
	}

	kids := n.Children()
	if len(kids) < 2 {
		return nil, &MalformedLoop{
			Node:     n,
			Children: len(kids),
		}
	}

	s := &loopState{
		template: kids[0],
		results:  kids[1],
		stencil:  kids[0].Clone(),
	}

	s.template.SetStyle("display", "none")
	e.Registry.inert[s.template] = true
	s.results.SetText("")

	e.Registry.loops[n] = s
	return s, nil
}

// reconcile makes the loop's results container hold one rendered
// instance per element of the collection at the head of the chain.
//
// Instances are reused by position.  With an item, each instance gets
// a link that binds the item's name (and alias).  Without an item
// (withinEach), the element itself is the instance's nearest scope.
func (e *Engine) reconcile(n Node, c *Chain, item *loopItem, t *tracker) error {
	coll := c.Head()
	t.add(coll, "", true)

	xs, is := asList(coll)
	if !is {
		return &NotIterable{coll}
	}

	s, err := e.loop(n)
	if err != nil {
		return err
	}

	count := xs.Len()
	e.logf("reconcile %d instances for %d elements", len(s.instances), count)

	for i := 0; i < count; i++ {
		var inst Node
		if i < len(s.instances) {
			inst = s.instances[i]
		} else {
			inst = s.stencil.Clone()
			s.results.AppendChild(inst)
			s.instances = append(s.instances, inst)
		}

		l := &Chain{
			node: inst,
			loop: &loopRef{
				coll:  coll,
				index: i,
			},
		}
		if item != nil {
			l.kind, l.scope = itemLink, item
		} else {
			l.kind, l.scope = elementLink, xs.At(i)
		}

		if err := e.renderNode(inst, c.push(l), false); err != nil {
			return err
		}
	}

	for _, inst := range s.instances[count:] {
		s.results.RemoveChild(inst)
		e.Registry.drop(inst)
	}
	s.instances = s.instances[:count]

	return nil
}
