package render

import (
	"bytes"
	"fmt"
	"io"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/util"
)

// highlightStyle is the chroma theme used for exported code. Notes have no
// stylesheet, so colors are emitted as inline styles and later become
// <font color> tags.
const highlightStyle = "github"

// ChromaHighlighting is a goldmark extension that syntax-highlights fenced
// code blocks with inline styles.
type ChromaHighlighting struct{}

func (e *ChromaHighlighting) Extend(md goldmark.Markdown) {
	md.Renderer().AddOptions(
		renderer.WithNodeRenderers(
			util.Prioritized(&chromaRenderer{formatter: newInlineFormatter()}, 500),
		),
	)
}

func newInlineFormatter() *chromahtml.Formatter {
	return chromahtml.New(chromahtml.WithClasses(false))
}

type chromaRenderer struct {
	formatter *chromahtml.Formatter
}

func (r *chromaRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindFencedCodeBlock, r.renderFencedCodeBlock)
}

func (r *chromaRenderer) renderFencedCodeBlock(
	w util.BufWriter, source []byte, node ast.Node, entering bool,
) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}

	n := node.(*ast.FencedCodeBlock)

	lang := ""
	if n.Info != nil {
		lang = string(n.Language(source))
	}

	var code bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		code.Write(line.Value(source))
	}

	if err := highlight(w, r.formatter, code.String(), lang); err != nil {
		return ast.WalkStop, err
	}
	return ast.WalkContinue, nil
}

// highlight runs chroma: lexer, tokenise, format.
func highlight(w io.Writer, f *chromahtml.Formatter, code, lang string) error {
	var lexer chroma.Lexer
	if lang != "" {
		lexer = lexers.Get(lang)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return fmt.Errorf("chroma tokenise: %w", err)
	}

	if err := f.Format(w, styles.Get(highlightStyle), iterator); err != nil {
		return fmt.Errorf("chroma format: %w", err)
	}
	return nil
}
