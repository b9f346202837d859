package tools

import (
	"fmt"
	"html"
	"io"
	"sort"

	md "github.com/russross/blackfriday/v2"
)

// RenderReportHTML writes an HTML rendition of the analysis.  The
// optional doc is markdown that describes the template.
func RenderReportHTML(a *Analysis, doc string, out io.Writer) error {
	var err error
	f := func(format string, args ...interface{}) {
		if err == nil {
			_, err = fmt.Fprintf(out, format+"\n", args...)
		}
	}

	if doc != "" {
		f(`<div class="templateDoc doc">%s</div>`, md.Run([]byte(doc)))
	}

	f(`<div class="summary"><table>`)
	f(`<tr><td>nodes</td><td>%d</td></tr>`, a.Nodes)
	f(`<tr><td>loops</td><td>%d</td></tr>`, a.Loops)
	names := make([]string, 0, len(a.Directives))
	for name := range a.Directives {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		f(`<tr><td><code>%s</code></td><td>%d</td></tr>`, html.EscapeString(name), a.Directives[name])
	}
	f(`</table></div>`)

	if 0 < len(a.Refs) {
		f(`<div class="refs">`)
		for _, ref := range a.Refs {
			f(`<code class="ref">%s</code>`, html.EscapeString(ref))
		}
		f(`</div>`)
	}

	if 0 < len(a.Findings) {
		f(`<div class="findings"><table>`)
		for _, x := range a.Findings {
			f(`<tr class="finding"><td><code>%s</code></td><td><code>%s</code></td><td>%s</td></tr>`,
				html.EscapeString(x.Path), html.EscapeString(x.Source), html.EscapeString(x.Problem))
		}
		f(`</table></div>`)
	}

	return err
}

// RenderReportPage writes a complete page around RenderReportHTML.
func RenderReportPage(a *Analysis, title, doc string, cssFiles []string, out io.Writer) error {
	fmt.Fprintf(out, `<!DOCTYPE html>
<html>
  <head>
  <meta charset="utf-8">
  <title>%s</title>
`, html.EscapeString(title))

	for _, cssFile := range cssFiles {
		fmt.Fprintf(out, "  <link href=\"%s\" rel=\"stylesheet\">\n", cssFile)
	}

	fmt.Fprintf(out, `  </head>
  <body>
    <h1>%s</h1>
`, html.EscapeString(title))

	if err := RenderReportHTML(a, doc, out); err != nil {
		return err
	}

	_, err := fmt.Fprintf(out, "  </body>\n</html>\n")
	return err
}
