package goja

import (
	"encoding/json"
	"strconv"

	"github.com/Comcast/rebind/core"

	"github.com/dop251/goja"
)

// Object is a JavaScript object as a scope.
type Object struct {
	env *Env
	obj *goja.Object
}

// Array is a JavaScript array as a scope and loop source.
type Array struct {
	Object
}

// JS returns the underlying JavaScript object.
func (o *Object) JS() *goja.Object {
	return o.obj
}

// Identity implements core.Identifier.
func (o *Object) Identity() interface{} {
	return o.obj
}

// Get implements core.Getter.  A null property is present (nil,
// true).  A missing or undefined one isn't.
func (o *Object) Get(key string) (interface{}, bool) {
	v := o.obj.Get(key)
	if v == nil || goja.IsUndefined(v) {
		return nil, false
	}
	return o.env.Wrap(v), true
}

// Set implements core.Setter.
func (o *Object) Set(key string, value interface{}) error {
	return o.obj.Set(key, o.env.value(value))
}

// String renders the object the way JavaScript would.
func (o *Object) String() string {
	return o.obj.String()
}

// MarshalJSON uses JSON.stringify.
func (o *Object) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.obj)
}

// Len implements core.Lister.
func (a *Array) Len() int {
	return int(a.obj.Get("length").ToInteger())
}

// At implements core.Lister.
func (a *Array) At(i int) interface{} {
	x, _ := a.Get(strconv.Itoa(i))
	return x
}

// String joins the elements with commas.  Overrides Object.String
// so that core.Stringify and JavaScript agree.
func (a *Array) String() string {
	return a.obj.String()
}

// Wrap converts a JavaScript value into something the engine can use
// as a scope or a value.
//
// undefined and null are nil.  Primitive values are exported.
// Functions are core.Funcs, or *core.Namespaces if they have their own
// enumerable properties.
func (e *Env) Wrap(v goja.Value) interface{} {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil
	}
	obj, is := v.(*goja.Object)
	if !is {
		return v.Export()
	}
	if f, is := goja.AssertFunction(v); is {
		call := e.fn(f)
		keys := obj.Keys()
		if len(keys) == 0 {
			return call
		}
		props := make(map[string]interface{}, len(keys))
		for _, k := range keys {
			props[k] = e.Wrap(obj.Get(k))
		}
		return &core.Namespace{
			Call:  call,
			Props: props,
		}
	}
	o := Object{
		env: e,
		obj: obj,
	}
	if obj.ClassName() == "Array" {
		return &Array{o}
	}
	return &o
}

func (e *Env) fn(f goja.Callable) core.Func {
	return func(this interface{}) interface{} {
		v, err := f(e.value(this))
		if err != nil {
			e.logf("function call error %s", err)
			return nil
		}
		return e.Wrap(v)
	}
}

// value is the inverse of Wrap.
func (e *Env) value(x interface{}) goja.Value {
	switch vv := x.(type) {
	case nil:
		return goja.Undefined()
	case goja.Value:
		return vv
	case *Object:
		return vv.obj
	case *Array:
		return vv.obj
	}
	return e.rt.ToValue(x)
}
