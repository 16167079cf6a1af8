// Package note assembles exported files and their attachments into notes
// ready for the note store.
package note

import (
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/air-gapped/enml/internal/enml"
	"github.com/air-gapped/enml/internal/render"
	"github.com/air-gapped/enml/internal/rewrite"
	"github.com/air-gapped/enml/internal/sanitize"
)

// DefaultTitle is used when neither the caller nor the document names the
// note.
const DefaultTitle = "Portfolio Export"

// AttachedStatement opens the body of a note whose payload is a file.
const AttachedStatement = "The export file has been attached."

// Export is one exported file.
type Export struct {
	Filename string
	MimeType string // detected from Filename and Data when empty
	Data     []byte
	// SourceURL is where Data was fetched from; relative links in rendered
	// documents are resolved against it.
	SourceURL string
}

// Options carry the user's export settings.
type Options struct {
	Title    string
	Tags     []string
	Notebook string
}

// Note is the payload handed to the note store.
type Note struct {
	Title     string
	Tags      []string
	Notebook  string
	Content   string
	Resources []enml.Resource
	Format    render.ContentType
}

// Builder turns exports into notes.
type Builder struct {
	renderer     *render.Renderer
	defaultTitle string
}

// NewBuilder creates a Builder. An empty defaultTitle means DefaultTitle.
func NewBuilder(defaultTitle string) *Builder {
	if strings.TrimSpace(defaultTitle) == "" {
		defaultTitle = DefaultTitle
	}
	return &Builder{
		renderer:     render.New(),
		defaultTitle: defaultTitle,
	}
}

// Build renders exp, links its attachments and wraps the result as ENML.
// Files that cannot be rendered become the note's first resource.
func (b *Builder) Build(exp Export, attachments []Export, opts Options) (*Note, error) {
	if exp.Filename == "" {
		return nil, &enml.ValidationError{Field: "filename", Reason: "required"}
	}

	resources := make([]enml.Resource, 0, len(attachments)+1)
	for i, a := range attachments {
		if a.Filename == "" {
			return nil, &enml.ValidationError{Field: fmt.Sprintf("attachments[%d].filename", i), Reason: "required"}
		}
		resources = append(resources, enml.NewResource(a.Filename, mimeOf(a), a.Data))
	}

	info := render.DetectFile(exp.Filename)
	var (
		fragment []byte
		meta     = &render.Meta{}
	)

	if info.Renderable() {
		var err error
		fragment, meta, err = b.renderer.Render(info, exp.Data)
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", exp.Filename, err)
		}
		fragment = sanitize.ActiveContent(fragment)
		if exp.SourceURL != "" {
			fragment = rewrite.RelativeURLs(fragment, exp.SourceURL, referencePaths(resources))
		}
	} else {
		file := enml.NewResource(exp.Filename, mimeOf(exp), exp.Data)
		resources = append([]enml.Resource{file}, resources...)
		fragment = attachedBody(file)
	}

	content, err := enml.Transform(string(fragment), resources)
	if err != nil {
		return nil, err
	}

	title := CleanTitle(opts.Title)
	if title == "" {
		title = CleanTitle(meta.Title)
	}
	if title == "" {
		title = CleanTitle(b.defaultTitle)
	}

	return &Note{
		Title:     title,
		Tags:      CleanTags(append(append([]string(nil), opts.Tags...), meta.Tags...)),
		Notebook:  strings.TrimSpace(opts.Notebook),
		Content:   content,
		Resources: resources,
		Format:    info.ContentType,
	}, nil
}

// attachedBody references file from a link so Link swaps it for media.
func attachedBody(file enml.Resource) []byte {
	var b strings.Builder
	b.WriteString("<p>")
	b.WriteString(AttachedStatement)
	b.WriteString(`</p><div><a href="`)
	b.WriteString(html.EscapeString(file.ReferencePath))
	b.WriteString(`">`)
	b.WriteString(html.EscapeString(file.Filename))
	b.WriteString("</a></div>")
	return []byte(b.String())
}

func mimeOf(e Export) string {
	if e.MimeType != "" {
		return e.MimeType
	}
	return render.DetectMIME(e.Filename, e.Data)
}

func referencePaths(resources []enml.Resource) map[string]bool {
	paths := make(map[string]bool, len(resources))
	for _, r := range resources {
		paths[r.ReferencePath] = true
	}
	return paths
}

// IsValidation reports whether err is an input-validation fault.
func IsValidation(err error) bool {
	var verr *enml.ValidationError
	return errors.As(err, &verr)
}
