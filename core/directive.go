/* Copyright 2019 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package core

import (
	"strconv"
	"strings"
)

// ArgKind says how a directive argument gets its value.
type ArgKind int

const (
	Ident   ArgKind = iota // A name or dotted path resolved via the scope chain.
	Literal                // A quoted string or a number.
)

// Arg is one directive argument.
type Arg struct {
	Kind ArgKind

	// Text is the source text without quotes or negation.
	Text string

	// Value is the value of a Literal.
	Value interface{}

	// Negated is true when the argument had a leading '!'.
	Negated bool
}

func (a Arg) String() string {
	s := a.Text
	if a.Kind == Literal {
		if _, is := a.Value.(string); is {
			s = strconv.Quote(a.Text)
		}
	}
	if a.Negated {
		s = "!" + s
	}
	return s
}

// Directive is one instruction: a name and its arguments.
type Directive struct {
	Name string
	Args []Arg

	// Source is the text this directive was parsed from.
	Source string
}

func (d *Directive) String() string {
	acc := d.Name
	for _, a := range d.Args {
		acc += " " + a.String()
	}
	return acc
}

// Arity gives the minimum and maximum number of arguments for each
// known directive.
//
// This map is also the list of known directives.  See Engine.eval.
var Arity = map[string][2]int{
	"contain":    {1, 1},
	"attr":       {2, 2},
	"attrIf":     {3, 3},
	"showIf":     {1, 1},
	"visIf":      {1, 1},
	"classIf":    {2, 2},
	"if":         {1, 2},
	"within":     {1, 1},
	"anchored":   {1, 1},
	"for":        {1, 2},
	"withinEach": {0, 0},
}

// Check reports a BadDirective if the number of arguments is wrong.
// Unknown names are fine here.  They are reported at evaluation time.
func (d *Directive) Check() error {
	a, have := Arity[d.Name]
	if !have {
		return nil
	}
	if n := len(d.Args); n < a[0] || a[1] < n {
		return &BadDirective{
			Name:   d.Name,
			Source: d.Source,
			Reason: "wrong number of arguments (" + strconv.Itoa(n) + ")",
		}
	}
	return nil
}

// ParseDirectives parses a directive list:
//
//   directiveList := directive (',' directive)*
//   directive     := name arg*
//   arg           := identifier | dottedPath | quotedLiteral | number | '!' identifier
//
// The '!' can be separated from its identifier by spaces.  Empty
// directives (as in a trailing comma) are ignored.
func ParseDirectives(src string) ([]*Directive, error) {
	parts, err := splitDirectives(src)
	if err != nil {
		return nil, err
	}
	acc := make([]*Directive, 0, len(parts))
	for _, part := range parts {
		d, err := parseDirective(part)
		if err != nil {
			return nil, err
		}
		if d != nil {
			acc = append(acc, d)
		}
	}
	return acc, nil
}

// splitDirectives splits at commas that aren't quoted.
func splitDirectives(src string) ([]string, error) {
	var (
		acc   []string
		quote rune
		start int
	)
	for i, r := range src {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '\'' || r == '"':
			quote = r
		case r == ',':
			acc = append(acc, src[start:i])
			start = i + 1
		}
	}
	if quote != 0 {
		return nil, &BadDirective{
			Source: src,
			Reason: "unterminated quote",
		}
	}
	return append(acc, src[start:]), nil
}

func parseDirective(src string) (*Directive, error) {
	toks, err := tokenize(src)
	if err != nil {
		return nil, err
	}
	if len(toks) == 0 {
		return nil, nil
	}
	if toks[0].quoted || toks[0].text == "!" {
		return nil, &BadDirective{
			Source: strings.TrimSpace(src),
			Reason: "directive name expected",
		}
	}

	d := &Directive{
		Name:   toks[0].text,
		Args:   make([]Arg, 0, len(toks)-1),
		Source: strings.TrimSpace(src),
	}

	negate := false
	for _, t := range toks[1:] {
		if !t.quoted && t.text == "!" {
			negate = !negate
			continue
		}
		a := Arg{
			Text:    t.text,
			Negated: negate,
		}
		negate = false
		switch {
		case t.quoted:
			a.Kind = Literal
			a.Value = t.text
		case isNumber(t.text):
			f, _ := strconv.ParseFloat(t.text, 64)
			a.Kind = Literal
			a.Value = f
		default:
			if strings.HasPrefix(a.Text, "!") {
				a.Text = strings.TrimLeft(a.Text, "!")
				if (len(t.text)-len(a.Text))%2 == 1 {
					a.Negated = !a.Negated
				}
			}
			a.Kind = Ident
		}
		d.Args = append(d.Args, a)
	}
	if negate {
		return nil, &BadDirective{
			Name:   d.Name,
			Source: d.Source,
			Reason: "dangling '!'",
		}
	}

	return d, nil
}

type token struct {
	text   string
	quoted bool
}

func tokenize(src string) ([]token, error) {
	var (
		acc []token
		rs  = []rune(src)
	)
	for i := 0; i < len(rs); {
		r := rs[i]
		switch {
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			i++
		case r == '\'' || r == '"':
			j := i + 1
			for j < len(rs) && rs[j] != r {
				j++
			}
			if j == len(rs) {
				return nil, &BadDirective{
					Source: strings.TrimSpace(src),
					Reason: "unterminated quote",
				}
			}
			acc = append(acc, token{string(rs[i+1 : j]), true})
			i = j + 1
		case r == '!':
			// A lone '!' negates the next argument.
			j := i
			for j < len(rs) && rs[j] == '!' {
				j++
			}
			if j == len(rs) || isSpace(rs[j]) {
				for k := i; k < j; k++ {
					acc = append(acc, token{"!", false})
				}
				i = j
				continue
			}
			fallthrough
		default:
			j := i
			for j < len(rs) && !isSpace(rs[j]) && rs[j] != '\'' && rs[j] != '"' {
				j++
			}
			acc = append(acc, token{string(rs[i:j]), false})
			i = j
		}
	}
	return acc, nil
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}

func isNumber(s string) bool {
	if s == "" {
		return false
	}
	if c := s[0]; !(c == '-' || c == '+' || c == '.' || ('0' <= c && c <= '9')) {
		return false
	}
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}
