package core

import (
	"testing"
)

func TestParseDirectives(t *testing.T) {
	t.Run("several", func(t *testing.T) {
		ds, err := ParseDirectives(`attr 'thing' outterProp, within subobject, contain val`)
		if err != nil {
			t.Fatal(err)
		}
		if len(ds) != 3 {
			t.Fatalf("got %d", len(ds))
		}
		if ds[0].Name != "attr" || ds[1].Name != "within" || ds[2].Name != "contain" {
			t.Fatal(ds)
		}
		if a := ds[0].Args[0]; a.Kind != Literal || a.Value != "thing" {
			t.Fatalf("%#v", a)
		}
		if a := ds[0].Args[1]; a.Kind != Ident || a.Text != "outterProp" {
			t.Fatalf("%#v", a)
		}
	})

	t.Run("quoted commas", func(t *testing.T) {
		ds, err := ParseDirectives(`contain "a, b", attr 'x' "it's"`)
		if err != nil {
			t.Fatal(err)
		}
		if len(ds) != 2 {
			t.Fatalf("got %d", len(ds))
		}
		if ds[0].Args[0].Value != "a, b" {
			t.Fatal(ds[0].Args[0].Value)
		}
		if ds[1].Args[1].Value != "it's" {
			t.Fatal(ds[1].Args[1].Value)
		}
	})

	t.Run("numbers", func(t *testing.T) {
		ds, err := ParseDirectives(`contain 42`)
		if err != nil {
			t.Fatal(err)
		}
		if a := ds[0].Args[0]; a.Kind != Literal || a.Value != float64(42) {
			t.Fatalf("%#v", a)
		}
	})

	t.Run("dotted", func(t *testing.T) {
		ds, err := ParseDirectives(`contain one.two.value`)
		if err != nil {
			t.Fatal(err)
		}
		if a := ds[0].Args[0]; a.Kind != Ident || a.Text != "one.two.value" {
			t.Fatalf("%#v", a)
		}
	})

	t.Run("negation", func(t *testing.T) {
		for _, src := range []string{
			`attrIf !condition 'foo' 'bar'`,
			`attrIf ! condition 'foo' 'bar'`,
			`attrIf !!!condition 'foo' 'bar'`,
			`attrIf ! !!condition 'foo' 'bar'`,
		} {
			ds, err := ParseDirectives(src)
			if err != nil {
				t.Fatal(err)
			}
			if a := ds[0].Args[0]; !a.Negated || a.Text != "condition" {
				t.Fatalf("%s: %#v", src, a)
			}
		}
		ds, err := ParseDirectives(`showIf !!x`)
		if err != nil {
			t.Fatal(err)
		}
		if a := ds[0].Args[0]; a.Negated {
			t.Fatalf("%#v", a)
		}
	})

	t.Run("empty", func(t *testing.T) {
		ds, err := ParseDirectives(` , contain x, `)
		if err != nil {
			t.Fatal(err)
		}
		if len(ds) != 1 {
			t.Fatalf("got %d", len(ds))
		}
	})

	t.Run("errors", func(t *testing.T) {
		for _, src := range []string{
			`contain 'unterminated`,
			`'contain' x`,
			`showIf !`,
		} {
			if _, err := ParseDirectives(src); err == nil {
				t.Fatalf("%s: no error", src)
			} else if _, is := err.(*BadDirective); !is {
				t.Fatalf("%s: %T", src, err)
			}
		}
	})

	t.Run("unknown is fine", func(t *testing.T) {
		ds, err := ParseDirectives(`nonexistentcommand arg1`)
		if err != nil {
			t.Fatal(err)
		}
		if err = ds[0].Check(); err != nil {
			t.Fatal(err)
		}
	})
}

func TestCheck(t *testing.T) {
	tests := []struct {
		src string
		ok  bool
	}{
		{`contain x`, true},
		{`contain`, false},
		{`contain x y`, false},
		{`attrIf c 'a'`, false},
		{`if c 'foo'`, true},
		{`for which item`, true},
		{`for item`, true},
		{`for a b c`, false},
		{`withinEach`, true},
		{`withinEach x`, false},
	}
	for _, tc := range tests {
		t.Run(tc.src, func(t *testing.T) {
			ds, err := ParseDirectives(tc.src)
			if err != nil {
				t.Fatal(err)
			}
			err = ds[0].Check()
			if tc.ok && err != nil {
				t.Fatal(err)
			}
			if !tc.ok && err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}

func TestDirectiveString(t *testing.T) {
	ds, err := ParseDirectives(`attrIf ! c 'foo' bar`)
	if err != nil {
		t.Fatal(err)
	}
	if got := ds[0].String(); got != `attrIf !c "foo" bar` {
		t.Fatal(got)
	}
}
