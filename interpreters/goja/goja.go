// Package goja provides JavaScript data scopes using Goja, which is
// a Go implementation of ECMAScript 5.1+.
//
// See https://github.com/dop251/goja.
//
// A program's result is wrapped so that the engine can read it like
// any other scope: objects are core.Getters and core.Setters, arrays
// are core.Listers, and functions are core.Funcs that are called with
// the right 'this'.  Wrappers identify themselves by the underlying
// JavaScript object, so Notify works with any wrapper of an object.
package goja

import (
	"context"
	"fmt"
	"io/ioutil"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/dop251/goja"
	"github.com/pkg/errors"
)

var (
	// InterruptedMessage is the string value of Interrupted.
	InterruptedMessage = "RuntimeError: timeout"

	// Interrupted is returned by Env.Eval when the context is
	// done before the program is.
	Interrupted = errors.New(InterruptedMessage)
)

// LibraryProvider resolves a library name into JavaScript source.
type LibraryProvider func(ctx context.Context, i *Interpreter, name string) (string, error)

// Interpreter compiles JavaScript sources.  See NewEnv for running
// them.
type Interpreter struct {
	// Testing exposes sleep(ms) to programs.
	Testing bool

	// LibraryProvider, if not nil, is used instead of
	// DefaultLibraryProvider.
	LibraryProvider LibraryProvider
}

func NewInterpreter() *Interpreter {
	return &Interpreter{}
}

// ProvideLibrary resolves the library name into source.
func (i *Interpreter) ProvideLibrary(ctx context.Context, name string) (string, error) {
	p := i.LibraryProvider
	if p == nil {
		p = DefaultLibraryProvider
	}
	src, err := p(ctx, i, name)
	if err != nil {
		return "", errors.Wrapf(err, "library %s", name)
	}
	return src, nil
}

// DefaultLibraryProvider reads libraries relative to the current
// directory.
var DefaultLibraryProvider = MakeFileLibraryProvider(".")

// MakeFileLibraryProvider makes a provider for plain filenames
// (relative to dir unless absolute), "file://" names (same), and
// "http://" or "https://" URLs.
func MakeFileLibraryProvider(dir string) LibraryProvider {
	return func(ctx context.Context, i *Interpreter, name string) (string, error) {
		switch {
		case strings.HasPrefix(name, "http://"), strings.HasPrefix(name, "https://"):
			return fetch(ctx, name)
		case strings.Contains(name, "://") && !strings.HasPrefix(name, "file://"):
			return "", fmt.Errorf("unsupported library URL '%s'", name)
		}
		filename := strings.TrimPrefix(name, "file://")
		if !filepath.IsAbs(filename) {
			filename = filepath.Join(dir, filename)
		}
		bs, err := ioutil.ReadFile(filename)
		if err != nil {
			return "", err
		}
		return string(bs), nil
	}
}

func fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return "", err
	}
	resp, err := http.DefaultClient.Do(req.WithContext(ctx))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch status %s", resp.Status)
	}
	bs, err := ioutil.ReadAll(resp.Body)
	return string(bs), err
}

// MakeMapLibraryProvider serves libraries from the map.
func MakeMapLibraryProvider(srcs map[string]string) LibraryProvider {
	return func(ctx context.Context, i *Interpreter, name string) (string, error) {
		if src, have := srcs[name]; have {
			return src, nil
		}
		return "", fmt.Errorf("undefined library '%s'", name)
	}
}

// AsSource accepts a string (just code) or a map with "code" and
// optional "requires" (a library name or list of names).
//
// Maps with interface{} keys (as some YAML parsers produce) are
// accepted.
func AsSource(src interface{}) (code string, libs []string, err error) {
	var m map[string]interface{}
	switch vv := src.(type) {
	case string:
		return vv, nil, nil
	case map[string]interface{}:
		m = vv
	case map[interface{}]interface{}:
		m = make(map[string]interface{}, len(vv))
		for k, v := range vv {
			s, is := k.(string)
			if !is {
				return "", nil, fmt.Errorf("source has a %T key", k)
			}
			m[s] = v
		}
	default:
		return "", nil, fmt.Errorf("can't compile a %T", src)
	}

	code, is := m["code"].(string)
	if !is {
		return "", nil, fmt.Errorf("source code is a %T", m["code"])
	}

	switch vv := m["requires"].(type) {
	case nil:
	case string:
		libs = []string{vv}
	case []string:
		libs = vv
	case []interface{}:
		for _, x := range vv {
			s, is := x.(string)
			if !is {
				return "", nil, fmt.Errorf("library name is a %T", x)
			}
			libs = append(libs, s)
		}
	default:
		return "", nil, fmt.Errorf("requires is a %T", vv)
	}

	return code, libs, nil
}

// Compile compiles the source (see AsSource).
//
// Libraries named by "requires" are prepended.  Top-level
// require("name") statements are replaced by the named libraries (see
// InlineRequires).  The code itself is wrapped in a function, so it
// should 'return' its result.
//
// Compile blocks while the LibraryProvider does.
func (i *Interpreter) Compile(ctx context.Context, src interface{}) (*goja.Program, error) {
	code, libs, err := AsSource(src)
	if err != nil {
		return nil, err
	}

	provide := func(ctx context.Context, name string) (string, error) {
		return i.ProvideLibrary(ctx, name)
	}
	if code, err = InlineRequires(ctx, code, provide); err != nil {
		return nil, err
	}

	var b strings.Builder
	for _, lib := range libs {
		s, err := i.ProvideLibrary(ctx, lib)
		if err != nil {
			return nil, err
		}
		b.WriteString(s)
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "(function() {\n%s\n}());\n", code)

	p, err := goja.Compile("", b.String(), true)
	if err != nil {
		return nil, errors.Wrap(err, "compiling")
	}
	return p, nil
}
