package goja

import (
	"context"
	"fmt"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Comcast/rebind/core"
	"github.com/Comcast/rebind/dom"
)

func eval(t *testing.T, i *Interpreter, e *core.Engine, code interface{}) (interface{}, *Env) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	env := i.NewEnv(e)
	x, err := env.Eval(ctx, code, nil)
	if err != nil {
		t.Fatal(err)
	}
	return x, env
}

func TestEvalSimple(t *testing.T) {
	x, _ := eval(t, NewInterpreter(), nil, `return {likes:"chips", n: 3, f: 1.5};`)
	o, is := x.(*Object)
	if !is {
		t.Fatalf("%T", x)
	}
	if v, have := o.Get("likes"); !have || v != "chips" {
		t.Fatalf("%#v", v)
	}
	if v, _ := o.Get("n"); core.Stringify(v) != "3" {
		t.Fatalf("%#v", v)
	}
	if v, _ := o.Get("f"); v != 1.5 {
		t.Fatalf("%#v", v)
	}
	if _, have := o.Get("nope"); have {
		t.Fatal("nope")
	}
}

func TestEvalTimeout(t *testing.T) {
	code := `for (;;) { sleep(10); } return null;`

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	i := NewInterpreter()
	i.Testing = true
	env := i.NewEnv(nil)
	_, err := env.Eval(ctx, code, nil)
	if err != Interrupted {
		t.Fatalf("got %v", err)
	}

	// The runtime is still usable.
	x, err := env.Eval(context.Background(), `return 1 + 1;`, nil)
	if err != nil {
		t.Fatal(err)
	}
	if core.Stringify(x) != "2" {
		t.Fatal(x)
	}
}

func TestEvalError(t *testing.T) {
	env := NewInterpreter().NewEnv(nil)
	if _, err := env.Eval(context.Background(), `likes + tacos; return null;`, nil); err == nil {
		t.Fatal("didn't protest")
	}
	if _, err := env.Eval(context.Background(), `return {`, nil); err == nil {
		t.Fatal("didn't protest")
	}
}

func TestCronNext(t *testing.T) {
	x, _ := eval(t, NewInterpreter(), nil, `return {next: _.cronNext("* 0 * * *")};`)
	next, _ := x.(*Object).Get("next")
	if _, err := time.Parse(time.RFC3339Nano, next.(string)); err != nil {
		t.Fatal(err)
	}

	env := NewInterpreter().NewEnv(nil)
	if _, err := env.Eval(context.Background(), `return _.cronNext("bad");`, nil); err == nil {
		t.Fatal("should have complained")
	}
}

func TestAsSource(t *testing.T) {
	code, libs, err := AsSource(map[interface{}]interface{}{
		"code":     "return 1;",
		"requires": []interface{}{"a", "b"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if code != "return 1;" || len(libs) != 2 {
		t.Fatal(code, libs)
	}
	if _, _, err = AsSource(map[string]interface{}{"code": 1}); err == nil {
		t.Fatal("bad code")
	}
	if _, _, err = AsSource(42); err == nil {
		t.Fatal("bad source")
	}
}

func TestLibraries(t *testing.T) {
	i := NewInterpreter()
	i.LibraryProvider = MakeMapLibraryProvider(map[string]string{
		"double": `function double(n) { return 2*n; }`,
		"triple": `function triple(n) { return 3*n; }`,
	})

	x, _ := eval(t, i, nil, map[string]interface{}{
		"code":     `require("triple"); return {d: double(2), t: triple(2)};`,
		"requires": "double",
	})
	o := x.(*Object)
	if d, _ := o.Get("d"); core.Stringify(d) != "4" {
		t.Fatal(d)
	}
	if v, _ := o.Get("t"); core.Stringify(v) != "6" {
		t.Fatal(v)
	}

	if _, err := i.Compile(context.Background(), `require("nope");`); err == nil {
		t.Fatal("should have complained")
	}
}

func TestFileLibrary(t *testing.T) {
	dir, err := ioutil.TempDir("", "goja")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)
	if err = ioutil.WriteFile(filepath.Join(dir, "lib.js"), []byte(`function inc(n) { return n+1; }`), 0644); err != nil {
		t.Fatal(err)
	}

	i := NewInterpreter()
	i.LibraryProvider = MakeFileLibraryProvider(dir)
	for _, name := range []string{"lib.js", "file://lib.js", filepath.Join(dir, "lib.js")} {
		x, _ := eval(t, i, nil, `require("`+name+`"); return inc(1);`)
		if core.Stringify(x) != "2" {
			t.Fatal(name, x)
		}
	}

	if _, err = i.Compile(context.Background(), `require("ftp://lib.js");`); err == nil {
		t.Fatal("should have complained")
	}
}

func TestHTTPLibrary(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `function hello() { return "hi"; }`)
	}))
	defer ts.Close()

	x, _ := eval(t, NewInterpreter(), nil, map[string]interface{}{
		"code":     `return {greeting: hello()};`,
		"requires": ts.URL + "/lib.js",
	})
	if v, _ := x.(*Object).Get("greeting"); v != "hi" {
		t.Fatal(v)
	}
}

func TestScopes(t *testing.T) {
	e := core.NewEngine(nil)
	x, _ := eval(t, NewInterpreter(), e, `
var data = {
  bar: "right",
  foo: function() { return this.bar; },
  items: ["a", function() { return this[2]; }, "b"],
  ns: function() { return "wrong"; }
};
data.ns.sub = function() { return "sub"; };
return data;`)

	n := dom.MustFragment(`<div>` +
		`<p id="foo" react="contain foo"></p>` +
		`<p id="ns" react="contain ns.sub"></p>` +
		`<p id="len" react="contain items.length"></p>` +
		`<div id="loop" react="within items, for item"><span react="contain item"></span><div></div></div>` +
		`</div>`)
	if _, err := e.Render(n, x); err != nil {
		t.Fatal(err)
	}

	for id, want := range map[string]string{
		"foo": "right",
		"ns":  "sub",
		"len": "3",
	} {
		if got := n.ByID(id).Inner(); got != want {
			t.Fatalf("%s: %q", id, got)
		}
	}

	results := n.ByID("loop").Children()[1].Children()
	if len(results) != 3 {
		t.Fatal(len(results))
	}
	if got := results[1].(dom.Element).Inner(); got != "b" {
		t.Fatal(got)
	}
}

func TestNotifyFromJS(t *testing.T) {
	e := core.NewEngine(nil)
	x, env := eval(t, NewInterpreter(), e, `return {count: 1, items: ["a"]};`)

	n := dom.MustFragment(`<div>` +
		`<p id="count" react="contain count"></p>` +
		`<div id="loop" react="within items, for item"><span react="contain item"></span><div></div></div>` +
		`</div>`)
	if _, err := e.RenderWith(&core.RenderOpts{Node: n, Scope: x, Anchor: true}); err != nil {
		t.Fatal(err)
	}

	env.Runtime().Set("data", x.(*Object).JS())
	if _, err := env.Eval(context.Background(), `_.set(data, "count", 2); data.items.push("b"); _.notify(data.items); return null;`, nil); err != nil {
		t.Fatal(err)
	}

	if got := n.ByID("count").Inner(); got != "2" {
		t.Fatal(got)
	}
	if got := len(n.ByID("loop").Children()[1].Children()); got != 2 {
		t.Fatal(got)
	}

	// Go-side wrappers of the same object are the same object.
	items, _ := x.(*Object).Get("items")
	if err := e.Set(items, "2", "c"); err != nil {
		t.Fatal(err)
	}
	if got := len(n.ByID("loop").Children()[1].Children()); got != 3 {
		t.Fatal(got)
	}
}
