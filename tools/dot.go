package tools

// dot -Tpng g.dot > g.png

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/Comcast/rebind/core"

	"gopkg.in/yaml.v2"
)

// DotMaxLabel limits the length of an object's label.
var DotMaxLabel = 120

// Dot makes a Graphviz dot file for the registry: objects on the
// left, binding sites on the right, and an edge for each dependency.
//
// Edges for lookups that missed are dashed, and edges for whole
// objects (loops) are bold.  Named objects are labeled with their
// names.
func Dot(r *core.Registry, w io.Writer) error {
	fmt.Fprintf(w, "digraph G {\n")
	fmt.Fprintf(w, `  graph [rankdir=LR,nodesep=0.3,ranksep=1.2]
  node [shape="record" style="rounded,filled" fontsize="10"]
  edge [fontsize="9"]
`)

	names := make(map[interface{}][]string)
	for _, name := range r.Names() {
		x, _ := r.Named(name)
		if id, is := core.Identity(x); is {
			names[id] = append(names[id], name)
		}
	}

	objects := make(map[interface{}]string)
	object := func(x interface{}) (string, bool) {
		id, is := core.Identity(x)
		if !is {
			return "", false
		}
		if name, have := objects[id]; have {
			return name, true
		}
		name := fmt.Sprintf("o%d", len(objects))
		objects[id] = name

		label := label(x)
		fillcolor := "#99ddc8"
		if as, have := names[id]; have {
			label = "<B>" + escape(strings.Join(as, ", ")) + "</B><BR/>" + label
			fillcolor = "#52aa5e"
		}
		fmt.Fprintf(w, "  %s [fillcolor=\"%s\", label=<%s>]\n", name, fillcolor, label)
		return name, true
	}

	for i, s := range r.Sites() {
		site := fmt.Sprintf("s%d", i)
		where := fmt.Sprintf("%T", s.Node)
		if id, have := s.Node.Attr("id"); have && id != "" {
			where = "#" + id
		}
		fmt.Fprintf(w, "  %s [fillcolor=\"#2d93ad\", label=<%s<BR/><FONT POINT-SIZE=\"8\">%d: %s</FONT>>]\n",
			site, escape(where), s.Index, escape(s.Directive.String()))

		var err error
		s.Deps(func(x interface{}, key string, hit bool) {
			o, is := object(x)
			if !is {
				return
			}
			style := "solid"
			switch {
			case key == "":
				style = "bold"
			case !hit:
				style = "dashed"
			}
			if _, err = fmt.Fprintf(w, "  %s -> %s [style=\"%s\", label=\"%s\"]\n",
				o, site, style, escbraces(escape(key))); err != nil {
				return
			}
		})
		if err != nil {
			return err
		}
	}

	_, err := fmt.Fprintf(w, "}\n")
	return err
}

// label is a short YAML rendition of the object.
func label(x interface{}) string {
	var s string
	if str, is := x.(fmt.Stringer); is {
		s = str.String()
	} else if bs, err := yaml.Marshal(x); err == nil {
		s = string(bs)
	} else {
		s = fmt.Sprintf("%T", x)
	}
	if DotMaxLabel < len(s) {
		s = s[:DotMaxLabel] + "..."
	}
	s = escape(s)
	return strings.Replace(strings.TrimSpace(s), "\n", `<BR ALIGN="LEFT"/>`, -1)
}

// PNG generates a PNG image based on output from Dot.
//
// This function with write two files: basename.dot and basename.png,
// where the basename is the given string.
func PNG(r *core.Registry, basename string) (string, error) {
	dotname := basename + ".dot"
	pngname := basename + ".png"

	dotfile, err := os.Create(dotname)
	if err != nil {
		return pngname, err
	}
	if err = Dot(r, dotfile); err != nil {
		dotfile.Close()
		return pngname, err
	}
	if err = dotfile.Close(); err != nil {
		return pngname, err
	}
	if err = exec.Command("dot", "-Tpng", "-o", pngname, dotname).Run(); err != nil {
		return pngname, err
	}
	return pngname, nil
}

// escape makes the string safe for an HTML-like label.
func escape(s string) string {
	s = strings.Replace(s, "&", "&amp;", -1)
	s = strings.Replace(s, "<", "&lt;", -1)
	s = strings.Replace(s, ">", "&gt;", -1)
	return strings.Replace(s, `"`, "&quot;", -1)
}

func escbraces(s string) string {
	s = strings.Replace(s, "{", "\\{", -1)
	s = strings.Replace(s, "}", "\\}", -1)
	return s
}
