package dom

import (
	"bytes"

	"golang.org/x/net/html"

	md "github.com/russross/blackfriday/v2"
)

// Markdown renders the markdown source and returns the result as a
// detached <div>.  The result can be a 'contain' value.
func Markdown(src string) (Element, error) {
	bs := md.Run([]byte(src))
	ns, err := html.ParseFragment(bytes.NewReader(bs), bodyContext)
	if err != nil {
		return Element{}, err
	}
	div := MustFragment("<div></div>")
	for _, n := range ns {
		detach(n)
		div.HTML().AppendChild(n)
	}
	return div, nil
}
