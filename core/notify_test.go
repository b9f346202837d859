package core_test

import (
	"strings"
	"testing"

	"github.com/Comcast/rebind/core"
)

func TestAnchors(t *testing.T) {
	t.Run("names", func(t *testing.T) {
		e := core.NewEngine(nil)
		obj := M{}
		e.Name("foo", obj)
		x, have := e.Named("foo")
		if !have {
			t.Fatal("not named")
		}
		if x.(M)["bar"] = 1; obj["bar"] != 1 {
			t.Fatal("different object")
		}
		if _, have = e.Named("bar"); have {
			t.Fatal("bar")
		}
		e.Name("baz", obj)
		e.Name("alpha", M{})
		if got := strings.Join(e.Registry.Names(), ","); got != "alpha,baz,foo" {
			t.Fatal(got)
		}
	})

	t.Run("anchored directive", func(t *testing.T) {
		e := core.NewEngine(nil)
		n := frag(`<div react="anchored obj"><div react="contain foo"></div></div>`)
		obj := M{"foo": "bar"}
		e.Name("obj", obj)
		render(t, e, n, M{})
		child := n.Children()[0]
		if got := inner(child); got != "bar" {
			t.Fatal(got)
		}
		set(t, e, obj, "foo", "baz")
		if got := inner(child); got != "baz" {
			t.Fatal(got)
		}
	})

	t.Run("anchored directive via the chain", func(t *testing.T) {
		e := core.NewEngine(nil)
		n := frag(`<div react="anchored obj"><div react="contain foo"></div></div>`)
		obj := M{"foo": "bar"}
		render(t, e, n, M{"obj": obj})
		set(t, e, obj, "foo", "baz")
		if got := inner(n.Children()[0]); got != "baz" {
			t.Fatal(got)
		}
	})

	t.Run("re-render on change", func(t *testing.T) {
		e := core.NewEngine(nil)
		object := M{"foo": 1, "bar": 1}
		n1 := frag(`<div react="contain foo"></div>`)
		n2 := frag(`<div react="contain bar"></div>`)
		e.AnchorNode(n1, object)
		render(t, e, n1)
		e.AnchorNode(n2, object)
		render(t, e, n2)
		object["foo"], object["bar"] = 2, 2
		notify(t, e, object)
		if inner(n1) != "2" || inner(n2) != "2" {
			t.Fatal(inner(n1), inner(n2))
		}
	})

	t.Run("set class", func(t *testing.T) {
		e := core.NewEngine(nil)
		object := M{"foo": "bar"}
		n := frag(`<div react="classIf foo foo"></div>`)
		renderWith(t, e, &core.RenderOpts{Node: n, Scope: object, Anchor: true})
		if !n.HasClass("bar") {
			t.Fatal(n.String())
		}
		set(t, e, object, "foo", "baz")
		if n.HasClass("bar") || !n.HasClass("baz") {
			t.Fatal(n.String())
		}
	})

	t.Run("three argument render", func(t *testing.T) {
		e := core.NewEngine(nil)
		object := M{"foo": "bar"}
		n := frag(`<div react="contain foo"></div>`)
		renderWith(t, e, &core.RenderOpts{Node: n, Scope: object, Anchor: true})
		object["foo"] = "baz"
		render(t, e, n)
		if got := inner(n); got != "baz" {
			t.Fatal(got)
		}
	})

	t.Run("explicit scopes win", func(t *testing.T) {
		e := core.NewEngine(nil)
		n := frag(`<div react="contain foo"></div>`)
		e.AnchorNode(n, M{"foo": "anchored"})
		render(t, e, n, M{"foo": "explicit"})
		if got := inner(n); got != "explicit" {
			t.Fatal(got)
		}
		renderWith(t, e, &core.RenderOpts{Node: n, Scope: M{"foo": "replaced"}, Anchor: true})
		render(t, e, n)
		if got := inner(n); got != "replaced" {
			t.Fatal(got)
		}
	})

	t.Run("anchored child of contained node", func(t *testing.T) {
		e := core.NewEngine(nil)
		sub := frag(`<span react="contain foo"></span>`)
		e.AnchorNode(sub, M{"foo": "bar"})
		render(t, e, frag(`<span react="contain subNode"></span>`), M{"subNode": sub})
		if got := inner(sub); got != "bar" {
			t.Fatal(got)
		}
	})

	t.Run("anchored child of plain root", func(t *testing.T) {
		e := core.NewEngine(nil)
		sub := frag(`<span react="contain foo"></span>`)
		e.AnchorNode(sub, M{"foo": "bar"})
		root := frag(`<div></div>`)
		root.AppendChild(sub)
		render(t, e, root)
		if got := inner(sub); got != "bar" {
			t.Fatal(got)
		}
	})

	t.Run("unanchored", func(t *testing.T) {
		e := core.NewEngine(nil)
		object := M{"foo": 1, "bar": 1}
		n := frag(`<div><div react="contain foo"></div><div react="contain bar"></div></div>`)
		render(t, e, n, object)
		object["bar"] = 2
		set(t, e, object, "foo", 2)
		kids := n.Children()
		if inner(kids[0]) != "1" || inner(kids[1]) != "1" {
			t.Fatal(n.String())
		}
		if e.Registry.Len() != 0 {
			t.Fatal("registered")
		}
	})
}

func TestNotify(t *testing.T) {
	t.Run("only the key", func(t *testing.T) {
		e := core.NewEngine(nil)
		object := M{"foo": 1, "bar": 1}
		n := frag(`<div react="attr 'foo' foo, attr 'bar' bar"></div>`)
		renderWith(t, e, &core.RenderOpts{Node: n, Scope: object, Anchor: true})
		if attr(n, "foo") != "1" || attr(n, "bar") != "1" {
			t.Fatal(n.String())
		}
		object["bar"] = 2
		set(t, e, object, "foo", 2)
		if attr(n, "foo") != "2" || attr(n, "bar") != "1" {
			t.Fatal(n.String())
		}
	})

	t.Run("other scopes", func(t *testing.T) {
		e := core.NewEngine(nil)
		o1, o2 := M{"foo": true}, M{"bar": true}
		n := frag(`<div react="classIf foo 'foo', classIf bar 'bar'"></div>`)
		renderWith(t, e, &core.RenderOpts{Node: n, Scopes: []interface{}{o1, o2}, Anchor: true})
		if !n.HasClass("foo") || !n.HasClass("bar") {
			t.Fatal(n.String())
		}
		o1["foo"] = false
		notify(t, e, o1)
		if n.HasClass("foo") || !n.HasClass("bar") {
			t.Fatal(n.String())
		}

		// A keyless notify reaches every binding registered under
		// o1, including one that only missed on it.
		o2["bar"] = false
		notify(t, e, o1)
		if n.HasClass("bar") {
			t.Fatal(n.String())
		}

		// A keyed notify reaches the binding that fell through o1.
		o1["bar"] = true
		notify(t, e, o1, "bar")
		if !n.HasClass("bar") {
			t.Fatal(n.String())
		}
	})

	t.Run("within", func(t *testing.T) {
		e := core.NewEngine(nil)
		n := frag(`<div react="attr 'thing' outterProp, within subobject, within innerProp, contain val"></div>`)
		sub := M{"innerProp": M{"val": "inner"}}
		scope := M{"outterProp": "outter", "subobject": sub}
		renderWith(t, e, &core.RenderOpts{Node: n, Scope: scope, Anchor: true})
		if attr(n, "thing") != "outter" || inner(n) != "inner" {
			t.Fatal(n.String())
		}
		scope["outterProp"] = "newOutter"
		sub["innerProp"] = M{"val": "newInner"}
		notify(t, e, sub, "innerProp")
		if attr(n, "thing") != "outter" || inner(n) != "newInner" {
			t.Fatal(n.String())
		}
	})

	t.Run("list item", func(t *testing.T) {
		e := core.NewEngine(nil)
		object := core.NewList("foo")
		n := frag(`<div react="for which item"><div class="item" react="contain item"></div><span id="container"></span></div>`)
		renderWith(t, e, &core.RenderOpts{Node: n, Scope: object, Anchor: true})
		check(t, n, "foo")
		set(t, e, object, "0", "baz")
		check(t, n, "baz")
	})

	t.Run("index after change", func(t *testing.T) {
		e := core.NewEngine(nil)
		object := core.NewList(M{}, M{})
		n := frag(`<div react="for which item"><div class="item" react="within item, contain which"></div><span id="container"></span></div>`)
		renderWith(t, e, &core.RenderOpts{Node: n, Scope: object, Anchor: true})
		check(t, n, "0", "1")
		set(t, e, object, "1", M{})
		check(t, n, "0", "1")
	})

	t.Run("indices", func(t *testing.T) {
		e := core.NewEngine(nil)
		object := core.NewList("a", "b")
		n := frag(`<div react="for which item"><div class="item" react="contain item"></div><span id="container"></span></div>`)
		renderWith(t, e, &core.RenderOpts{Node: n, Scope: object, Anchor: true})
		check(t, n, "a", "b")
		set(t, e, object, "1", "bPrime")
		check(t, n, "a", "bPrime")
		set(t, e, object, "2", "c")
		check(t, n, "a", "bPrime", "c")
	})

	t.Run("contained node survives", func(t *testing.T) {
		e := core.NewEngine(nil)
		sub := frag(`<div><div id="clicker">increment</div></div>`)
		object := M{"foo": 1, "subNode": sub}
		n := frag(`<div><div id="foo" react="contain foo"></div><div react="contain subNode"></div></div>`)
		renderWith(t, e, &core.RenderOpts{Node: n, Scope: object, Anchor: true})
		holder := n.Children()[1]
		for i := 2; i <= 3; i++ {
			object["foo"] = i
			notify(t, e, object)
			if got := inner(n.ByID("foo")); got != string(rune('0'+i)) {
				t.Fatal(got)
			}
			if sub.Parent() != holder {
				t.Fatal("sub node moved")
			}
		}
	})

	t.Run("nested object", func(t *testing.T) {
		e := core.NewEngine(nil)
		bar := M{"baz": 1}
		object := M{"foo": 1, "bar": bar}
		n := frag(`<div><div react="contain foo"></div><div react="within bar"><div react="contain baz"></div></div></div>`)
		renderWith(t, e, &core.RenderOpts{Node: n, Scope: object, Anchor: true})
		set(t, e, bar, "baz", 2)
		if got := inner(n.Children()[1].Children()[0]); got != "2" {
			t.Fatal(got)
		}
	})

	t.Run("object structure", func(t *testing.T) {
		e := core.NewEngine(nil)
		foo := M{"bar": 1}
		object := M{"foo": foo}
		n := frag(`<div react="within foo"><div react="contain bar"></div></div>`)
		child := n.Children()[0]
		renderWith(t, e, &core.RenderOpts{Node: n, Scope: object, Anchor: true})
		object["foo"] = M{"bar": "wrong"}
		set(t, e, foo, "bar", "alsowrong")
		if got := inner(child); got != "1" {
			t.Fatal(got)
		}
		object["foo"] = foo
		set(t, e, foo, "bar", "right")
		if got := inner(child); got != "right" {
			t.Fatal(got)
		}
	})

	t.Run("tree structure", func(t *testing.T) {
		e := core.NewEngine(nil)
		foo := M{"bar": 1}
		object := M{"foo": foo}
		n := frag(`<div react="within foo"><div react="contain bar"></div></div>`)
		child := n.Children()[0]
		renderWith(t, e, &core.RenderOpts{Node: n, Scope: object, Anchor: true})
		n.SetText("")
		set(t, e, foo, "bar", 2)
		if got := inner(child); got != "1" {
			t.Fatal(got)
		}
		n.SetContent(child)
		set(t, e, foo, "bar", 3)
		if got := inner(child); got != "3" {
			t.Fatal(got)
		}
	})

	t.Run("within and changed", func(t *testing.T) {
		e := core.NewEngine(nil)
		sub := M{"second": 2}
		object := M{"first": 1, "subobject": sub, "third": 3}
		n := frag(`<div>` +
			`<div id="foo" react="contain first"></div>` +
			`<div react="within subobject"><div id="bar" react="contain second"></div></div>` +
			`<div id="baz" react="contain third"></div>` +
			`</div>`)
		renderWith(t, e, &core.RenderOpts{Node: n, Scope: object, Anchor: true})
		want := func(foo, bar, baz string) {
			t.Helper()
			got := []string{inner(n.ByID("foo")), inner(n.ByID("bar")), inner(n.ByID("baz"))}
			if got[0] != foo || got[1] != bar || got[2] != baz {
				t.Fatal(got)
			}
		}
		want("1", "2", "3")

		object["first"], object["second"], object["third"] = 4, 5, 6
		notify(t, e, object)
		want("4", "2", "6")

		sub["second"] = 1000
		notify(t, e, object)
		want("4", "1000", "6")
	})

	t.Run("depths", func(t *testing.T) {
		e := core.NewEngine(nil)
		three := M{"value": nil}
		two := M{"value": nil, "three": three}
		one := M{"value": nil, "two": two}
		object := M{"value": nil, "one": one}
		n := frag(`<div>` +
			`<div id="zero" react="contain value"></div>` +
			`<div id="one" react="contain one.value"></div>` +
			`<div id="two" react="contain one.two.value"></div>` +
			`<div id="three" react="contain one.two.three.value"></div>` +
			`</div>`)
		renderWith(t, e, &core.RenderOpts{Node: n, Scope: object, Anchor: true})

		steps := []struct {
			obj M
			id  string
			val int
		}{
			{object, "zero", 0},
			{one, "one", 1},
			{two, "two", 2},
			{three, "three", 3},
		}
		for _, s := range steps {
			s.obj["value"] = s.val
			notify(t, e, s.obj, "value")
			if got := inner(n.ByID(s.id)); got != string(rune('0'+s.val)) {
				t.Fatalf("%s: %q", s.id, got)
			}
		}
		// Each notify only reached its own depth.
		if got := inner(n.ByID("three")); got != "3" {
			t.Fatal(got)
		}
	})

	t.Run("keyless after nil", func(t *testing.T) {
		e := core.NewEngine(nil)
		object := M{"value": nil}
		n := frag(`<div react="contain value"></div>`)
		renderWith(t, e, &core.RenderOpts{Node: n, Scope: object, Anchor: true})
		if got := inner(n); got != "" {
			t.Fatal(got)
		}
		object["value"] = 0
		notify(t, e, object)
		if got := inner(n); got != "0" {
			t.Fatalf("got %q", got)
		}
	})

	t.Run("keyless after missing", func(t *testing.T) {
		e := core.NewEngine(nil)
		object := M{}
		n := frag(`<div react="contain value"></div>`)
		renderWith(t, e, &core.RenderOpts{Node: n, Scope: object, Anchor: true})
		object["value"] = "here"
		notify(t, e, object)
		if got := inner(n); got != "here" {
			t.Fatalf("got %q", got)
		}
	})

	t.Run("sibling withins", func(t *testing.T) {
		e := core.NewEngine(nil)
		bar := M{"prop": "original"}
		object := M{"bar": bar}
		n := frag(`<div>` +
			`<div react="within bar"><div id="foo" react="contain prop"></div></div>` +
			`<div react="within bar"><div id="bar" react="contain prop"></div></div>` +
			`<div react="within bar"><div id="baz" react="contain prop"></div></div>` +
			`</div>`)
		renderWith(t, e, &core.RenderOpts{Node: n, Scope: object, Anchor: true})
		bar["prop"] = "changed"
		notify(t, e, object)
		for _, id := range []string{"foo", "bar", "baz"} {
			if got := inner(n.ByID(id)); got != "changed" {
				t.Fatalf("%s: %s", id, got)
			}
		}
	})

	t.Run("not settable", func(t *testing.T) {
		e := core.NewEngine(nil)
		if err := e.Set("str", "x", 1); err == nil {
			t.Fatal("no error")
		} else if _, is := err.(*core.NotSettable); !is {
			t.Fatalf("%#v", err)
		}
		typed := map[string]int{}
		if err := e.Set(typed, "x", 1); err != nil || typed["x"] != 1 {
			t.Fatal(err)
		}
		if err := e.Set(typed, "y", "one"); err == nil {
			t.Fatal("no error")
		}
	})
}
