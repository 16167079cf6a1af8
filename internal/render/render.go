// Package render turns exported files into HTML fragments ready for the
// ENML pipeline.
package render

import (
	"bytes"
	"errors"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ErrNotRenderable is returned for files that can only travel as
// attachments.
var ErrNotRenderable = errors.New("file type is not renderable")

// Renderer dispatches to the format-specific renderers.
type Renderer struct {
	markdown *MarkdownRenderer
	code     *CodeRenderer
	org      *OrgRenderer
	asciidoc *AsciiDocRenderer
}

// New creates a Renderer for every supported format.
func New() *Renderer {
	return &Renderer{
		markdown: NewMarkdownRenderer(),
		code:     NewCodeRenderer(),
		org:      NewOrgRenderer(),
		asciidoc: NewAsciiDocRenderer(),
	}
}

// Render converts source to an HTML fragment according to info.
func (r *Renderer) Render(info FileInfo, source []byte) ([]byte, *Meta, error) {
	switch info.ContentType {
	case TypeHTML:
		return source, &Meta{Title: htmlTitle(source)}, nil
	case TypeMarkdown:
		return r.markdown.Render(source)
	case TypeOrg:
		return r.org.Render(source)
	case TypeAsciiDoc:
		return r.asciidoc.Render(source)
	case TypeCode:
		out, err := r.code.Render(source, info.Language)
		if err != nil {
			return nil, nil, err
		}
		return out, &Meta{CodeBlockCount: 1}, nil
	case TypePlaintext:
		return RenderPlaintext(source), &Meta{}, nil
	default:
		return nil, nil, ErrNotRenderable
	}
}

// htmlTitle returns the text of the first <title> element, if any.
func htmlTitle(source []byte) string {
	z := html.NewTokenizer(bytes.NewReader(source))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return ""
		case html.StartTagToken:
			name, _ := z.TagName()
			if atom.Lookup(name) != atom.Title {
				continue
			}
			if z.Next() == html.TextToken {
				return strings.TrimSpace(string(z.Text()))
			}
			return ""
		}
	}
}
