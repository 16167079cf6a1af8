package render

import (
	"strings"
	"testing"
)

func TestCodeRenderer_Python(t *testing.T) {
	r := NewCodeRenderer()
	html, err := r.Render([]byte("def hello():\n    print('world')\n"), "python")
	if err != nil {
		t.Fatal(err)
	}

	s := string(html)
	if !strings.HasPrefix(s, "<pre") {
		t.Errorf("expected <pre> wrapper, got %.40s", s)
	}
	if !strings.Contains(s, "hello") {
		t.Error("source text missing")
	}
	if !strings.Contains(s, "color:") {
		t.Error("expected inline color styles")
	}
}

func TestCodeRenderer_UnknownLanguage(t *testing.T) {
	r := NewCodeRenderer()
	html, err := r.Render([]byte("some unknown content\n"), "")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(html), "some unknown content") {
		t.Error("fallback lexer lost content")
	}
}

func TestRenderPlaintext(t *testing.T) {
	got := string(RenderPlaintext([]byte("a < b & c")))
	if got != "<pre>a &lt; b &amp; c</pre>" {
		t.Errorf("got %q", got)
	}
}
