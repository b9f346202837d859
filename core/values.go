package core

import (
	"math"
	"reflect"
	"strconv"
	"strings"
)

// Scopes are just values.  The engine reads properties from
// map[string]interface{}, Getters, Listers (and plain slices), and
// exported struct fields.  A value found at a key that's a Func (or
// a func() interface{}) is called, and its result is used.

// Getter is implemented by scope values that look up their own
// properties.
//
// The second return value should be false if the property is
// undefined.
type Getter interface {
	Get(key string) (interface{}, bool)
}

// Setter is implemented by scope values that can store properties.
// See Engine.Set.
type Setter interface {
	Set(key string, value interface{}) error
}

// Lister is implemented by collections.
type Lister interface {
	Len() int
	At(i int) interface{}
}

// Identifier is implemented by scope values that are wrappers around
// some other object.  The registry uses the returned value (which
// must be comparable) instead of the wrapper to identify the object.
type Identifier interface {
	Identity() interface{}
}

// Func is a zero-argument callable.
//
// When resolution finds a Func, it calls the Func with the object on
// which the Func was found.
type Func func(this interface{}) interface{}

// Namespace is a callable that also carries named properties.
//
// When a dotted path continues past a Namespace and the next segment
// names one of its Props, that property is used and the Namespace
// isn't called.
type Namespace struct {
	Call  Func
	Props map[string]interface{}
}

// Get implements Getter.
func (ns *Namespace) Get(key string) (interface{}, bool) {
	x, have := ns.Props[key]
	return x, have
}

// List is a collection with a stable identity.
//
// Slices work as loop sources, but a slice can't be identified
// after it's grown, so data that will be changed and then Notified
// should be in a List.
type List struct {
	Items []interface{}
}

// NewList makes a List with the given items.
func NewList(xs ...interface{}) *List {
	return &List{
		Items: xs,
	}
}

func (l *List) Len() int {
	return len(l.Items)
}

func (l *List) At(i int) interface{} {
	if i < 0 || len(l.Items) <= i {
		return nil
	}
	return l.Items[i]
}

// Push appends the given items.  Doesn't Notify.
func (l *List) Push(xs ...interface{}) {
	l.Items = append(l.Items, xs...)
}

// Pop removes the last item (if any).  Doesn't Notify.
func (l *List) Pop() interface{} {
	if len(l.Items) == 0 {
		return nil
	}
	x := l.Items[len(l.Items)-1]
	l.Items = l.Items[:len(l.Items)-1]
	return x
}

// Set implements Setter.  The key is an index.  Setting the index
// equal to the length appends.
func (l *List) Set(key string, value interface{}) error {
	i, err := strconv.Atoi(key)
	if err != nil || i < 0 || len(l.Items) < i {
		return &NotSettable{l, key}
	}
	if i == len(l.Items) {
		l.Items = append(l.Items, value)
		return nil
	}
	l.Items[i] = value
	return nil
}

// get returns the property at the key.
//
// The returned 'this' is the object that a callable found at the
// key should be called with.
//
// ok reports whether the key is present, so a present nil (null) is
// defined and only a missing key is undefined.
func get(x interface{}, key string) (v interface{}, this interface{}, ok bool) {
	if x == nil {
		return nil, nil, false
	}
	switch vv := x.(type) {
	case Getter:
		v, ok = vv.Get(key)
		return v, x, ok
	case map[string]interface{}:
		v, ok = vv[key]
		return v, x, ok
	case Lister:
		if key == "length" {
			return vv.Len(), x, true
		}
		i, err := strconv.Atoi(key)
		if err != nil || i < 0 || vv.Len() <= i {
			return nil, nil, false
		}
		return vv.At(i), x, true
	case []interface{}:
		if key == "length" {
			return len(vv), x, true
		}
		i, err := strconv.Atoi(key)
		if err != nil || i < 0 || len(vv) <= i {
			return nil, nil, false
		}
		return vv[i], x, true
	}

	rv := reflect.ValueOf(x)
	for rv.Kind() == reflect.Ptr && !rv.IsNil() {
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, nil, false
		}
		mv := rv.MapIndex(reflect.ValueOf(key).Convert(rv.Type().Key()))
		if !mv.IsValid() {
			return nil, nil, false
		}
		v = mv.Interface()
	case reflect.Slice, reflect.Array:
		if key == "length" {
			return rv.Len(), x, true
		}
		i, err := strconv.Atoi(key)
		if err != nil || i < 0 || rv.Len() <= i {
			return nil, nil, false
		}
		v = rv.Index(i).Interface()
	case reflect.Struct:
		f, have := rv.Type().FieldByName(key)
		if !have || f.PkgPath != "" {
			return nil, nil, false
		}
		v = rv.FieldByIndex(f.Index).Interface()
	default:
		return nil, nil, false
	}
	return v, x, true
}

// asList returns a Lister for collections.
func asList(x interface{}) (Lister, bool) {
	switch vv := x.(type) {
	case Lister:
		return vv, true
	case []interface{}:
		return sliceList(vv), true
	case nil:
		return nil, false
	}
	rv := reflect.ValueOf(x)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		return reflectList{rv}, true
	}
	return nil, false
}

type sliceList []interface{}

func (l sliceList) Len() int             { return len(l) }
func (l sliceList) At(i int) interface{} { return l[i] }

type reflectList struct {
	rv reflect.Value
}

func (l reflectList) Len() int             { return l.rv.Len() }
func (l reflectList) At(i int) interface{} { return l.rv.Index(i).Interface() }

// callable reports whether x should be called when it's resolved.
func callable(x interface{}) bool {
	switch x.(type) {
	case Func, func(interface{}) interface{}, func() interface{}, *Namespace:
		return true
	}
	return false
}

// call calls a callable with the given 'this'.  Non-callables are
// returned as they are.
func call(x interface{}, this interface{}) interface{} {
	switch vv := x.(type) {
	case Func:
		return vv(this)
	case func(interface{}) interface{}:
		return vv(this)
	case func() interface{}:
		return vv()
	case *Namespace:
		if vv.Call == nil {
			return nil
		}
		return vv.Call(this)
	}
	return x
}

type mapId uintptr

type sliceId uintptr

// identity returns a comparable key for values that are objects, so
// that the registry can find them again.  Strings, numbers, and the
// like aren't objects.
func identity(x interface{}) (interface{}, bool) {
	if x == nil {
		return nil, false
	}
	if i, is := x.(Identifier); is {
		return i.Identity(), true
	}
	rv := reflect.ValueOf(x)
	switch rv.Kind() {
	case reflect.Map:
		if rv.IsNil() {
			return nil, false
		}
		return mapId(rv.Pointer()), true
	case reflect.Slice:
		if rv.IsNil() || rv.Len() == 0 {
			return nil, false
		}
		return sliceId(rv.Pointer()), true
	case reflect.Ptr, reflect.Chan:
		if rv.IsNil() {
			return nil, false
		}
		return x, true
	}
	return nil, false
}

// Identity returns the comparable key that the registry uses for an
// object.  The second value is false if x isn't an object.
func Identity(x interface{}) (interface{}, bool) {
	return identity(x)
}

// same reports whether two values are the same object or equal
// plain values.
func same(x, y interface{}) bool {
	ix, ox := identity(x)
	iy, oy := identity(y)
	if ox || oy {
		return ox && oy && ix == iy
	}
	if x == nil || y == nil {
		return x == nil && y == nil
	}
	if !reflect.TypeOf(x).Comparable() || !reflect.TypeOf(y).Comparable() {
		return false
	}
	return x == y
}

// Truthy is false for nil, false, "", and numeric zero (and NaN).
// Everything else, including empty collections, is true.
func Truthy(x interface{}) bool {
	switch vv := x.(type) {
	case nil:
		return false
	case bool:
		return vv
	case string:
		return vv != ""
	case int:
		return vv != 0
	case int64:
		return vv != 0
	case float64:
		return vv != 0 && !math.IsNaN(vv)
	}
	rv := reflect.ValueOf(x)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint() != 0
	case reflect.Float32:
		f := rv.Float()
		return f != 0 && !math.IsNaN(f)
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Func, reflect.Interface:
		return !rv.IsNil()
	}
	return true
}

// Stringify renders a value as content or as an attribute value.
//
// Undefined renders as the empty string, and integral floats render
// without a fractional part.
func Stringify(x interface{}) string {
	switch vv := x.(type) {
	case nil:
		return ""
	case string:
		return vv
	case bool:
		return strconv.FormatBool(vv)
	case int:
		return strconv.Itoa(vv)
	case int64:
		return strconv.FormatInt(vv, 10)
	case float64:
		return strconv.FormatFloat(vv, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(vv), 'f', -1, 32)
	case interface{ String() string }:
		return vv.String()
	case Lister:
		acc := make([]string, vv.Len())
		for i := range acc {
			acc[i] = Stringify(vv.At(i))
		}
		return strings.Join(acc, ",")
	case []interface{}:
		return Stringify(sliceList(vv))
	}
	rv := reflect.ValueOf(x)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(rv.Uint(), 10)
	}
	return "[object]"
}
