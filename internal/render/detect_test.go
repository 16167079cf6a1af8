package render

import "testing"

func TestDetectFile(t *testing.T) {
	tests := []struct {
		name     string
		want     ContentType
		wantLang string
		wantMIME string
	}{
		{"page.html", TypeHTML, "", "text/html"},
		{"PAGE.HTM", TypeHTML, "", "text/html"},
		{"README.md", TypeMarkdown, "", "text/markdown"},
		{"docs/guide.markdown", TypeMarkdown, "", ""},
		{"agenda.org", TypeOrg, "", ""},
		{"manual.adoc", TypeAsciiDoc, "", ""},
		{"main.go", TypeCode, "go", ""},
		{"analysis.py", TypeCode, "python", ""},
		{"query.sql", TypeCode, "sql", ""},
		{"notes.txt", TypePlaintext, "", "text/plain"},
		{"photo.JPG", TypeAttachment, "", "image/jpeg"},
		{"essay.pdf", TypeAttachment, "", "application/pdf"},
		{"blob", TypeAttachment, "", "application/octet-stream"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			info := DetectFile(tc.name)
			if info.ContentType != tc.want {
				t.Errorf("ContentType = %q, want %q", info.ContentType, tc.want)
			}
			if info.Language != tc.wantLang {
				t.Errorf("Language = %q, want %q", info.Language, tc.wantLang)
			}
			if tc.wantMIME != "" && info.MimeType != tc.wantMIME {
				t.Errorf("MimeType = %q, want %q", info.MimeType, tc.wantMIME)
			}
			if info.MimeType == "" {
				t.Error("MimeType is empty")
			}
		})
	}
}

func TestFileInfo_Renderable(t *testing.T) {
	if !DetectFile("a.md").Renderable() {
		t.Error("markdown should be renderable")
	}
	if DetectFile("a.png").Renderable() {
		t.Error("png should not be renderable")
	}
}

func TestDetectMIME_Sniffs(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	if got := DetectMIME("upload", png); got != "image/png" {
		t.Errorf("DetectMIME = %q, want image/png", got)
	}
	if got := DetectMIME("upload.pdf", png); got != "application/pdf" {
		t.Errorf("extension should win: got %q", got)
	}
	if got := DetectMIME("upload", nil); got != "application/octet-stream" {
		t.Errorf("empty data: got %q", got)
	}
}
