package goja

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"sync"
	"time"

	"github.com/Comcast/rebind/core"

	"github.com/dop251/goja"
	"github.com/gorhill/cronexpr"
)

// Env is a JavaScript runtime whose values can be used as scopes.
//
// An Env isn't safe for concurrent use, and the functions it hands
// out (see Wrap) run in its runtime.  Use an Env from the same
// goroutine as the Engine that renders its values.
type Env struct {
	// Engine, if not nil, is available to JavaScript as
	// _.notify(obj, key...) and _.set(obj, key, value).
	Engine *core.Engine

	// Debug turns on logging.
	Debug bool

	interpreter *Interpreter
	rt          *goja.Runtime
}

// NewEnv makes a new runtime.
//
// The following properties are available from the runtime at _:
//
//    log(x): log x as JSON.
//    esc(s): URL query-escape the given string.
//    cronNext(expr): the next time (RFC3339) for the cron expression.
//    notify(obj, key...): call Engine.Notify.
//    set(obj, key, value): call Engine.Set.
//
// The Testing flag must be set to see sleep(ms).
func (i *Interpreter) NewEnv(e *core.Engine) *Env {
	env := &Env{
		Engine:      e,
		interpreter: i,
		rt:          goja.New(),
	}
	env.init()
	return env
}

// Runtime returns the underlying runtime.
func (e *Env) Runtime() *goja.Runtime {
	return e.rt
}

func (e *Env) logf(format string, args ...interface{}) {
	if e.Debug {
		log.Printf("goja.Env."+format, args...)
	}
}

func protest(o *goja.Runtime, x interface{}) {
	panic(o.ToValue(x))
}

func (e *Env) init() {
	o := e.rt

	env := map[string]interface{}{}

	if e.interpreter.Testing {
		o.Set("sleep", func(ms int) {
			time.Sleep(time.Duration(ms) * time.Millisecond)
		})
	}

	env["log"] = func(x interface{}) interface{} {
		js, err := json.Marshal(&x)
		if err != nil {
			log.Println("goja.log (can't marshal: " + err.Error() + ")")
		} else {
			log.Println(string(js))
		}
		return x
	}

	env["esc"] = func(x interface{}) interface{} {
		s, is := x.(string)
		if !is {
			protest(o, "not a string")
		}
		return url.QueryEscape(s)
	}

	env["cronNext"] = func(x interface{}) interface{} {
		cronExpr, is := x.(string)
		if !is {
			protest(o, "not a string")
		}
		c, err := cronexpr.Parse(cronExpr)
		if err != nil {
			protest(o, err.Error())
		}
		return c.Next(time.Now()).UTC().Format(time.RFC3339Nano)
	}

	env["notify"] = func(call goja.FunctionCall) goja.Value {
		if e.Engine == nil {
			protest(o, "no engine")
		}
		var keys []string
		for i := 1; i < len(call.Arguments); i++ {
			keys = append(keys, call.Arguments[i].String())
		}
		if err := e.Engine.Notify(e.Wrap(call.Argument(0)), keys...); err != nil {
			panic(o.NewGoError(err))
		}
		return goja.Undefined()
	}

	env["set"] = func(call goja.FunctionCall) goja.Value {
		if e.Engine == nil {
			protest(o, "no engine")
		}
		target := e.Wrap(call.Argument(0))
		key := call.Argument(1).String()
		if err := e.Engine.Set(target, key, call.Argument(2)); err != nil {
			panic(o.NewGoError(err))
		}
		return goja.Undefined()
	}

	o.Set("_", env)
}

// Eval runs the program and returns its wrapped result (see Wrap).
//
// If compiled is nil, the source is compiled first (see
// Interpreter.Compile).  Execution is interrupted when the context is
// done.
func (e *Env) Eval(ctx context.Context, src interface{}, compiled *goja.Program) (interface{}, error) {
	if compiled == nil {
		var err error
		if compiled, err = e.interpreter.Compile(ctx, src); err != nil {
			return nil, err
		}
	}

	var (
		done = make(chan struct{})
		wg   sync.WaitGroup
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		select {
		case <-ctx.Done():
			e.rt.Interrupt(InterruptedMessage)
		case <-done:
		}
	}()

	v, err := e.rt.RunProgram(compiled)
	close(done)
	wg.Wait()
	e.rt.ClearInterrupt()

	if err != nil {
		if _, is := err.(*goja.InterruptedError); is {
			return nil, Interrupted
		}
		return nil, err
	}

	return e.Wrap(v), nil
}

// Scope is a convenience that evaluates the source with a fresh Env
// and returns the result, which should be an object or an array.
func (i *Interpreter) Scope(ctx context.Context, e *core.Engine, src interface{}) (interface{}, *Env, error) {
	env := i.NewEnv(e)
	x, err := env.Eval(ctx, src, nil)
	if err != nil {
		return nil, nil, err
	}
	switch x.(type) {
	case *Object, *Array:
	default:
		return nil, nil, fmt.Errorf("scope is a %T, not an object", x)
	}
	return x, env, nil
}
