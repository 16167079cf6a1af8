package render

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"
)

// Meta holds metadata extracted while rendering a document.
type Meta struct {
	Title          string
	Tags           []string
	HeadingCount   int
	CodeBlockCount int
}

// MarkdownRenderer renders markdown content to HTML.
type MarkdownRenderer struct {
	md goldmark.Markdown
}

// NewMarkdownRenderer creates a markdown renderer with GFM and inline-styled
// code highlighting.
func NewMarkdownRenderer() *MarkdownRenderer {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Footnote,
			extension.DefinitionList,
			extension.Typographer,
			&ChromaHighlighting{},
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			// Raw HTML is kept; the ENML sanitizer decides what survives.
			html.WithUnsafe(),
		),
	)

	return &MarkdownRenderer{md: md}
}

// Render converts markdown source to HTML and extracts metadata.
func (r *MarkdownRenderer) Render(source []byte) ([]byte, *Meta, error) {
	content, front, err := splitFrontmatter(source)
	if err != nil {
		return nil, nil, err
	}

	doc := r.md.Parser().Parse(text.NewReader(content))

	meta := &Meta{Title: front.Title, Tags: front.Tags}
	extractMeta(doc, content, meta)

	var buf bytes.Buffer
	if err := r.md.Renderer().Render(&buf, content, doc); err != nil {
		return nil, nil, fmt.Errorf("render markdown: %w", err)
	}

	return buf.Bytes(), meta, nil
}

// extractMeta walks the AST to count headings and code blocks and to find
// the first H1 when the frontmatter has no title.
func extractMeta(doc ast.Node, source []byte, meta *Meta) {
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *ast.Heading:
			meta.HeadingCount++
			if meta.Title == "" && node.Level == 1 {
				meta.Title = headingText(node, source)
			}
		case *ast.FencedCodeBlock:
			meta.CodeBlockCount++
		}

		return ast.WalkContinue, nil
	})
}

func headingText(h *ast.Heading, source []byte) string {
	var b strings.Builder
	for c := h.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			b.Write(t.Segment.Value(source))
		}
	}
	return strings.TrimSpace(b.String())
}

var frontmatterRe = regexp.MustCompile(`(?s)\A---\r?\n(.*?)\r?\n---\r?\n`)

type frontmatter struct {
	Title string   `yaml:"title"`
	Tags  []string `yaml:"tags"`
}

// splitFrontmatter removes leading YAML frontmatter and decodes its title
// and tags.
func splitFrontmatter(source []byte) ([]byte, frontmatter, error) {
	var front frontmatter

	match := frontmatterRe.FindSubmatch(source)
	if match == nil {
		return source, front, nil
	}

	if err := yaml.Unmarshal(match[1], &front); err != nil {
		return nil, front, fmt.Errorf("parse frontmatter: %w", err)
	}
	return source[len(match[0]):], front, nil
}
