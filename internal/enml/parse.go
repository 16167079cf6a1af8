package enml

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var bodyContext = &html.Node{
	Type:     html.ElementNode,
	Data:     "body",
	DataAtom: atom.Body,
}

// Parse builds a Tree from an HTML fragment. The parser is lenient: any
// markup yields a tree, possibly an empty one. Comments and doctypes are
// dropped.
func Parse(src string) *Tree {
	t := NewTree()

	nodes, err := html.ParseFragment(strings.NewReader(src), bodyContext)
	if err != nil {
		return t
	}

	type frame struct {
		src    *html.Node
		parent NodeID
	}
	stack := make([]frame, 0, len(nodes))
	for i := len(nodes) - 1; i >= 0; i-- {
		stack = append(stack, frame{src: nodes[i], parent: Root})
	}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		switch f.src.Type {
		case html.TextNode:
			t.AppendText(f.parent, f.src.Data)

		case html.ElementNode:
			var attrs []Attr
			if len(f.src.Attr) > 0 {
				attrs = make([]Attr, 0, len(f.src.Attr))
			}
			for _, a := range f.src.Attr {
				key := a.Key
				if a.Namespace != "" {
					key = a.Namespace + ":" + a.Key
				}
				attrs = append(attrs, Attr{Key: key, Val: a.Val})
			}
			id := t.AppendElement(f.parent, f.src.Data, attrs...)

			var kids []*html.Node
			for c := f.src.FirstChild; c != nil; c = c.NextSibling {
				kids = append(kids, c)
			}
			for i := len(kids) - 1; i >= 0; i-- {
				stack = append(stack, frame{src: kids[i], parent: id})
			}
		}
	}

	return t
}
