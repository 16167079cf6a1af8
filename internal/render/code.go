package render

import (
	"bytes"
	"html"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
)

// CodeRenderer renders source files with inline-styled syntax highlighting.
type CodeRenderer struct {
	formatter *chromahtml.Formatter
}

// NewCodeRenderer creates a code renderer.
func NewCodeRenderer() *CodeRenderer {
	return &CodeRenderer{formatter: newInlineFormatter()}
}

// Render highlights source code as a <pre> block.
func (r *CodeRenderer) Render(source []byte, language string) ([]byte, error) {
	var buf bytes.Buffer
	if err := highlight(&buf, r.formatter, string(source), language); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// RenderPlaintext renders plain text content as pre-formatted text.
func RenderPlaintext(source []byte) []byte {
	var buf bytes.Buffer
	buf.WriteString("<pre>")
	buf.WriteString(html.EscapeString(string(source)))
	buf.WriteString("</pre>")
	return buf.Bytes()
}
