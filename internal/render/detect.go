package render

import (
	"mime"
	"net/http"
	"path"
	"strings"
)

// ContentType represents the detected content type of an exported file.
type ContentType string

const (
	TypeHTML      ContentType = "html"
	TypeMarkdown  ContentType = "markdown"
	TypeOrg       ContentType = "org"
	TypeAsciiDoc  ContentType = "asciidoc"
	TypeCode      ContentType = "code"
	TypePlaintext ContentType = "plaintext"
	// TypeAttachment files are not rendered; they travel as a resource.
	TypeAttachment ContentType = "attachment"
)

// FileInfo holds detected information about a file.
type FileInfo struct {
	ContentType ContentType
	Language    string // chroma lexer name, set for TypeCode only
	Label       string
	MimeType    string
}

// Renderable reports whether the file is turned into note markup.
func (fi FileInfo) Renderable() bool {
	return fi.ContentType != TypeAttachment
}

var htmlExts = map[string]bool{
	".html":  true,
	".htm":   true,
	".xhtml": true,
}

var markdownExts = map[string]bool{
	".md":       true,
	".markdown": true,
	".mdown":    true,
	".mkd":      true,
}

var asciidocExts = map[string]bool{
	".adoc":     true,
	".asciidoc": true,
	".asc":      true,
}

// codeExts maps file extensions to (language, label).
var codeExts = map[string][2]string{
	".py":      {"python", "Python"},
	".go":      {"go", "Go"},
	".js":      {"javascript", "JavaScript"},
	".ts":      {"typescript", "TypeScript"},
	".rs":      {"rust", "Rust"},
	".c":       {"c", "C"},
	".h":       {"c", "C Header"},
	".cpp":     {"cpp", "C++"},
	".java":    {"java", "Java"},
	".php":     {"php", "PHP"},
	".rb":      {"ruby", "Ruby"},
	".sh":      {"bash", "Shell"},
	".yaml":    {"yaml", "YAML"},
	".yml":     {"yaml", "YAML"},
	".json":    {"json", "JSON"},
	".xml":     {"xml", "XML"},
	".sql":     {"sql", "SQL"},
	".css":     {"css", "CSS"},
	".r":       {"r", "R"},
	".m":       {"matlab", "MATLAB"},
	".tex":     {"latex", "LaTeX"},
	".diff":    {"diff", "Diff"},
	".patch":   {"diff", "Patch"},
	".ipynb":   {"json", "Notebook"},
	".csv":     {"csv", "CSV"},
	".kt":      {"kotlin", "Kotlin"},
	".swift":   {"swift", "Swift"},
	".scala":   {"scala", "Scala"},
	".hs":      {"haskell", "Haskell"},
	".graphql": {"graphql", "GraphQL"},
}

var plaintextExts = map[string]bool{
	".txt":  true,
	".text": true,
	".log":  true,
}

// commonTypes pins mime types that vary across system mime tables.
var commonTypes = map[string]string{
	".html": "text/html",
	".htm":  "text/html",
	".md":   "text/markdown",
	".txt":  "text/plain",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".pdf":  "application/pdf",
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".zip":  "application/zip",
}

const octetStream = "application/octet-stream"

// DetectFile determines the content type, language and mime type of a file
// from its name.
func DetectFile(name string) FileInfo {
	filename := path.Base(name)
	ext := strings.ToLower(path.Ext(filename))
	mimeType := mimeByExt(ext)

	switch {
	case htmlExts[ext]:
		return FileInfo{ContentType: TypeHTML, Label: "HTML", MimeType: mimeType}
	case markdownExts[ext]:
		return FileInfo{ContentType: TypeMarkdown, Label: "Markdown", MimeType: mimeType}
	case ext == ".org":
		return FileInfo{ContentType: TypeOrg, Label: "Org", MimeType: mimeType}
	case asciidocExts[ext]:
		return FileInfo{ContentType: TypeAsciiDoc, Label: "AsciiDoc", MimeType: mimeType}
	case plaintextExts[ext]:
		return FileInfo{ContentType: TypePlaintext, Label: "Plain Text", MimeType: mimeType}
	}

	if info, ok := codeExts[ext]; ok {
		return FileInfo{ContentType: TypeCode, Language: info[0], Label: info[1], MimeType: mimeType}
	}

	return FileInfo{ContentType: TypeAttachment, Label: "File", MimeType: mimeType}
}

// DetectMIME returns the mime type for a file, sniffing data when the name
// alone is not conclusive.
func DetectMIME(name string, data []byte) string {
	mt := mimeByExt(strings.ToLower(path.Ext(name)))
	if mt != octetStream || len(data) == 0 {
		return mt
	}
	return stripParams(http.DetectContentType(data))
}

func mimeByExt(ext string) string {
	if mt, ok := commonTypes[ext]; ok {
		return mt
	}
	if ext != "" {
		if mt := mime.TypeByExtension(ext); mt != "" {
			return stripParams(mt)
		}
	}
	return octetStream
}

func stripParams(mt string) string {
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = mt[:i]
	}
	return strings.TrimSpace(mt)
}
