package sio

import (
	"context"
	"testing"
	"time"
)

func TestParseMutation(t *testing.T) {
	m, err := ParseMutation([]byte(`{"target":"page.clock","key":"now","value":{"h":12}}`))
	if err != nil {
		t.Fatal(err)
	}
	if m.Name() != "page" || m.Path() != "clock" || m.Key != "now" {
		t.Fatal(JS(m))
	}
	if _, is := m.Value.(map[string]interface{}); !is {
		t.Fatalf("%T", m.Value)
	}

	for _, bad := range []string{
		`{"key":"now"}`,
		`{"target":"page"}`,
		`{"op":"zap","target":"page","key":"x"}`,
		`[1,2]`,
		`{`,
	} {
		if _, err := ParseMutation([]byte(bad)); err == nil {
			t.Fatal(bad)
		}
	}

	if _, err := ParseMutation([]byte(`{"op":"notify","target":"page"}`)); err != nil {
		t.Fatal(err)
	}
}

func TestMerge(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	a, b := make(chan *Mutation), make(chan *Mutation)
	out := Merge(ctx, a, b)

	go func() {
		a <- &Mutation{Target: "a"}
		close(a)
	}()
	go func() {
		b <- &Mutation{Target: "b"}
		b <- &Mutation{Target: "b"}
		close(b)
	}()

	counts := map[string]int{}
	for m := range out {
		counts[m.Target]++
	}
	if counts["a"] != 1 || counts["b"] != 2 {
		t.Fatal(counts)
	}
}
