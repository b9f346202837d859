package goja

import (
	"context"
	"fmt"

	"github.com/dop251/goja/ast"
	"github.com/dop251/goja/parser"
)

// functionPrefix is what parser.ParseFunction puts before the body.
const functionPrefix = "(function() {\n"

// InlineRequires returns new source code that has each top-level
// require("name") statement replaced by the library that the
// provider returns for that name.
//
// The source is parsed as a function body (see Compile), so it can
// 'return'.  Only statements that consist of exactly one such call
// with a string literal argument are replaced.  The libraries are
// not themselves searched for requires.
func InlineRequires(ctx context.Context, src string, provider func(context.Context, string) (string, error)) (string, error) {

	f, err := parser.ParseFunction("", src)
	if err != nil {
		return "", err
	}

	type required struct {
		from, to int
		name     string
	}

	var requires []required

	for _, s := range f.Body.List {
		exps, is := s.(*ast.ExpressionStatement)
		if !is {
			continue
		}

		call, is := exps.Expression.(*ast.CallExpression)
		if !is {
			continue
		}

		id, is := call.Callee.(*ast.Identifier)
		if !is || id.Name != "require" {
			continue
		}
		if len(call.ArgumentList) != 1 {
			return "", fmt.Errorf("bad require args: %#v", call.ArgumentList)
		}

		lit, is := call.ArgumentList[0].(*ast.StringLiteral)
		if !is {
			return "", fmt.Errorf("bad require arg: %#v", call.ArgumentList[0])
		}

		// Positions are 1-based and include the prefix.
		requires = append(requires, required{
			from: int(exps.Idx0()) - 1 - len(functionPrefix),
			to:   int(exps.Idx1()) - 1 - len(functionPrefix),
			name: lit.Value.String(),
		})
	}

	if len(requires) == 0 {
		return src, nil
	}

	var (
		acc  string
		last int
	)
	for _, r := range requires {
		lib, err := provider(ctx, r.name)
		if err != nil {
			return "", err
		}
		acc += src[last:r.from] + lib + "\n"
		last = r.to
	}
	return acc + src[last:], nil
}
