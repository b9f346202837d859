package sio

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/Comcast/rebind/core"
	"github.com/Comcast/rebind/dom"
)

func testPump(t *testing.T) (*Pump, dom.Element, map[string]interface{}) {
	t.Helper()
	data := map[string]interface{}{
		"title": "Hello",
		"clock": map[string]interface{}{"now": "noon"},
		"items": core.NewList("a"),
	}
	e := core.NewEngine(core.NewRegistry())
	e.Name("page", data)
	n := dom.MustFragment(`<div react="anchored page">` +
		`<h1 id="title" react="contain title"></h1>` +
		`<p id="now" react="within clock, contain now"></p>` +
		`<div id="items" react="within items, for item"><span react="contain item"></span><div></div></div>` +
		`</div>`)
	if _, err := e.Render(n); err != nil {
		t.Fatal(err)
	}
	return NewPump(e, n), n, data
}

func results(n dom.Element) int {
	return len(n.ByID("items").Children()[1].Children())
}

func TestPumpApply(t *testing.T) {
	ctx := context.Background()

	t.Run("set", func(t *testing.T) {
		p, n, _ := testPump(t)
		var rendered int
		p.OnRendered(func(ctx context.Context, root core.Node) {
			rendered++
		})
		if err := p.Apply(ctx, &Mutation{Target: "page", Key: "title", Value: "Bye"}); err != nil {
			t.Fatal(err)
		}
		if got := n.ByID("title").Inner(); got != "Bye" {
			t.Fatal(got)
		}
		if err := p.Apply(ctx, &Mutation{Target: "page.clock", Key: "now", Value: "one"}); err != nil {
			t.Fatal(err)
		}
		if got := n.ByID("now").Inner(); got != "one" {
			t.Fatal(got)
		}
		if rendered != 2 || p.Applied != 2 {
			t.Fatal(rendered, p.Applied)
		}
	})

	t.Run("push", func(t *testing.T) {
		p, n, _ := testPump(t)
		if err := p.Apply(ctx, &Mutation{Op: OpPush, Target: "page.items", Value: "b"}); err != nil {
			t.Fatal(err)
		}
		if got := results(n); got != 2 {
			t.Fatal(got)
		}
		if err := p.Apply(ctx, &Mutation{Op: OpPush, Target: "page.title", Value: "b"}); err == nil {
			t.Fatal("pushed onto a string")
		}
	})

	t.Run("notify", func(t *testing.T) {
		p, n, data := testPump(t)
		data["title"] = "Quietly"
		if err := p.Apply(ctx, &Mutation{Op: OpNotify, Target: "page", Key: "title"}); err != nil {
			t.Fatal(err)
		}
		if got := n.ByID("title").Inner(); got != "Quietly" {
			t.Fatal(got)
		}
		data["items"].(*core.List).Push("b", "c")
		if err := p.Apply(ctx, &Mutation{Op: OpNotify, Target: "page.items"}); err != nil {
			t.Fatal(err)
		}
		if got := results(n); got != 3 {
			t.Fatal(got)
		}
	})

	t.Run("bad targets", func(t *testing.T) {
		p, _, _ := testPump(t)
		for _, m := range []*Mutation{
			{Target: "nope", Key: "x"},
			{Target: "page.nope", Key: "x"},
			{Target: "page"},
			{Op: "delete", Target: "page", Key: "title"},
		} {
			if err := p.Apply(ctx, m); err == nil {
				t.Fatal(JS(m))
			}
		}
		if p.Applied != 0 {
			t.Fatal(p.Applied)
		}
	})
}

func TestPumpLoop(t *testing.T) {
	p, n, _ := testPump(t)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	in := make(chan *Mutation)
	done := make(chan error)
	go func() {
		done <- p.Loop(ctx, in)
	}()

	in <- &Mutation{Target: "nope", Key: "x"}
	in <- &Mutation{Target: "page", Key: "title", Value: "Looped"}
	close(in)

	if err := <-done; err != nil {
		t.Fatal(err)
	}

	var markup string
	p.View(func(root core.Node) {
		markup = Markup(root)
	})
	if !strings.Contains(markup, "Looped") {
		t.Fatal(markup)
	}
	if n.ByID("title").Inner() != "Looped" {
		t.Fatal(n.ByID("title").Inner())
	}
}
