package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"path/filepath"
	"strings"

	"github.com/Comcast/rebind/core"
	"github.com/Comcast/rebind/dom"
	"github.com/Comcast/rebind/interpreters/goja"
	"github.com/Comcast/rebind/tools"
	"github.com/Comcast/rebind/util"

	"github.com/jsccast/yaml"
	"github.com/pkg/errors"
)

// loadTemplate reads a template: HTML (with includes) or markdown.
//
// HTML that starts with a doctype or <html> is parsed as a document.
func loadTemplate(filename string) (dom.Element, error) {
	bs, err := tools.ReadFileWithInlines(filename)
	if err != nil {
		return dom.Element{}, errors.Wrapf(err, "reading template %s", filename)
	}

	var root dom.Element
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".md", ".markdown":
		root, err = dom.Markdown(string(bs))
	default:
		src := strings.TrimSpace(string(bs))
		lower := strings.ToLower(src)
		if strings.HasPrefix(lower, "<!doctype") || strings.HasPrefix(lower, "<html") {
			root, err = dom.Document(strings.NewReader(src))
		} else {
			root, err = dom.Fragment(src)
		}
	}
	if err != nil {
		return dom.Element{}, errors.Wrapf(err, "parsing template %s", filename)
	}
	return root, nil
}

// loadScope reads a scope.
//
// A ".js" file is evaluated (see goja.Interpreter.Scope) and should
// return an object.  Libraries are found relative to the file.
// ".json" files are JSON.  Anything else is YAML.  Lists in JSON and
// YAML data become *core.Lists so that they can be pushed onto.
//
// The returned Env is nil unless the scope is JavaScript.
func loadScope(ctx context.Context, e *core.Engine, filename string) (interface{}, *goja.Env, error) {
	if filename == "" {
		return map[string]interface{}{}, nil, nil
	}

	bs, err := ioutil.ReadFile(filename)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "reading data %s", filename)
	}

	var x interface{}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".js":
		i := goja.NewInterpreter()
		i.LibraryProvider = goja.MakeFileLibraryProvider(filepath.Dir(filename))
		x, env, err := i.Scope(ctx, e, string(bs))
		if err != nil {
			return nil, nil, errors.Wrapf(err, "evaluating %s", filename)
		}
		util.Logf("loaded JavaScript scope from %s", filename)
		return x, env, nil
	case ".json":
		err = json.Unmarshal(bs, &x)
	default:
		err = yaml.Unmarshal(bs, &x)
	}
	if err != nil {
		return nil, nil, errors.Wrapf(err, "parsing data %s", filename)
	}

	x = mutable(x)
	if _, is := x.(map[string]interface{}); !is {
		return nil, nil, fmt.Errorf("data in %s is a %T, not an object", filename, x)
	}
	util.Logf("loaded data from %s", filename)
	return x, nil, nil
}

// mutable returns a copy of parsed data with string-keyed maps and
// with *core.Lists instead of slices.
func mutable(x interface{}) interface{} {
	switch vv := x.(type) {
	case map[string]interface{}:
		m := make(map[string]interface{}, len(vv))
		for k, v := range vv {
			m[k] = mutable(v)
		}
		return m
	case map[interface{}]interface{}:
		m := make(map[string]interface{}, len(vv))
		for k, v := range vv {
			m[fmt.Sprintf("%v", k)] = mutable(v)
		}
		return m
	case []interface{}:
		l := core.NewList()
		for _, v := range vv {
			l.Push(mutable(v))
		}
		return l
	}
	return x
}
