package render

import (
	"bytes"
	"fmt"
	"html"
	"io"
	"log"
	"strings"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/niklasfasching/go-org/org"
)

// OrgRenderer renders Org documents. Source blocks are highlighted with
// inline styles like Markdown fences.
type OrgRenderer struct {
	formatter *chromahtml.Formatter
}

// NewOrgRenderer creates an Org renderer.
func NewOrgRenderer() *OrgRenderer {
	return &OrgRenderer{formatter: newInlineFormatter()}
}

// Render converts Org source to HTML. The title comes from #+TITLE or the
// first headline, tags from #+FILETAGS.
func (r *OrgRenderer) Render(source []byte) ([]byte, *Meta, error) {
	conf := org.New()
	conf.Log = log.New(io.Discard, "", 0)

	meta := &Meta{}
	writer := org.NewHTMLWriter()
	writer.TopLevelHLevel = 1
	writer.HighlightCodeBlock = func(code, lang string, inline bool, _ map[string]string) string {
		if inline {
			return "<code>" + html.EscapeString(code) + "</code>"
		}
		meta.CodeBlockCount++
		var buf strings.Builder
		if err := highlight(&buf, r.formatter, code, lang); err != nil {
			return "<pre>" + html.EscapeString(code) + "</pre>"
		}
		return buf.String()
	}

	doc := conf.Parse(bytes.NewReader(source), "")
	out, err := doc.Write(writer)
	if err != nil {
		return nil, nil, fmt.Errorf("render org: %w", err)
	}

	headlines := orgHeadlines(doc.Nodes)
	meta.HeadingCount = len(headlines)
	meta.Title = strings.TrimSpace(doc.BufferSettings["TITLE"])
	if meta.Title == "" && len(headlines) > 0 {
		meta.Title = strings.TrimSpace(org.String(headlines[0].Title...))
	}
	meta.Tags = strings.FieldsFunc(doc.BufferSettings["FILETAGS"], func(r rune) bool {
		return r == ':' || r == ' '
	})

	return []byte(out), meta, nil
}

// orgHeadlines lists headlines at every level in document order.
func orgHeadlines(nodes []org.Node) []org.Headline {
	var out []org.Headline
	stack := make([]org.Node, 0, len(nodes))
	for i := len(nodes) - 1; i >= 0; i-- {
		stack = append(stack, nodes[i])
	}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		h, ok := n.(org.Headline)
		if !ok {
			continue
		}
		out = append(out, h)
		for i := len(h.Children) - 1; i >= 0; i-- {
			stack = append(stack, h.Children[i])
		}
	}
	return out
}
