package render

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/bytesparadise/libasciidoc"
	"github.com/bytesparadise/libasciidoc/pkg/configuration"
	logrus "github.com/sirupsen/logrus"
)

var (
	// includeRe matches include:: directives. The export carries no files
	// for them to read.
	includeRe = regexp.MustCompile(`(?m)^include::(.+\[.*\])\s*$`)

	keywordsRe = regexp.MustCompile(`(?m)^:keywords:[ \t]*(.*)$`)
	sectionRe  = regexp.MustCompile(`(?m)^={2,6}[ \t]+(.+)$`)
)

// AsciiDocRenderer renders AsciiDoc documents.
type AsciiDocRenderer struct{}

// NewAsciiDocRenderer creates an AsciiDoc renderer. libasciidoc logs
// through logrus, which is muted so it does not interleave with slog.
func NewAsciiDocRenderer() *AsciiDocRenderer {
	logrus.SetLevel(logrus.FatalLevel)
	return &AsciiDocRenderer{}
}

// Render converts AsciiDoc source to an HTML body. The document title
// becomes the note title, falling back to the first section; :keywords:
// become tags.
func (r *AsciiDocRenderer) Render(source []byte) ([]byte, *Meta, error) {
	safe := includeRe.ReplaceAll(source, []byte("// skipped: $1"))

	var buf bytes.Buffer
	metadata, err := libasciidoc.Convert(bytes.NewReader(safe), &buf, configuration.NewConfiguration())
	if err != nil {
		return nil, nil, fmt.Errorf("render asciidoc: %w", err)
	}

	meta := &Meta{Title: strings.TrimSpace(metadata.Title)}
	sections := sectionRe.FindAllSubmatch(safe, -1)
	meta.HeadingCount = len(sections)
	if meta.Title == "" && len(sections) > 0 {
		meta.Title = strings.TrimSpace(string(sections[0][1]))
	}
	if m := keywordsRe.FindSubmatch(safe); m != nil {
		for _, kw := range strings.Split(string(m[1]), ",") {
			if kw = strings.TrimSpace(kw); kw != "" {
				meta.Tags = append(meta.Tags, kw)
			}
		}
	}

	return buf.Bytes(), meta, nil
}
