package dom

import (
	"strings"
)

// style is an inline style declaration list in source order.
type style []decl

type decl struct {
	property, value string
}

// parseStyle parses "a: b; c: d".  Malformed declarations are
// dropped.
func parseStyle(s string) style {
	var acc style
	for _, part := range strings.Split(s, ";") {
		i := strings.Index(part, ":")
		if i < 0 {
			continue
		}
		p := strings.ToLower(strings.TrimSpace(part[:i]))
		v := strings.TrimSpace(part[i+1:])
		if p == "" {
			continue
		}
		acc = append(acc, decl{p, v})
	}
	return acc
}

func (s style) get(property string) (string, bool) {
	property = strings.ToLower(property)
	for _, d := range s {
		if d.property == property {
			return d.value, true
		}
	}
	return "", false
}

// set returns a style with the property set (or removed if the value
// is empty).
func (s style) set(property, value string) style {
	property = strings.ToLower(property)
	acc := s[:0]
	found := false
	for _, d := range s {
		if d.property == property {
			if found || value == "" {
				continue
			}
			d.value = value
			found = true
		}
		acc = append(acc, d)
	}
	if !found && value != "" {
		acc = append(acc, decl{property, value})
	}
	return acc
}

func (s style) String() string {
	acc := make([]string, len(s))
	for i, d := range s {
		acc[i] = d.property + ": " + d.value
	}
	return strings.Join(acc, "; ")
}
