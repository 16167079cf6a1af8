package sanitize

import (
	"bytes"
	"strings"
	"testing"

	"golang.org/x/net/html"
)

func TestActiveContent_DropsElements(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"script", `<p>Hello</p><script>alert('xss')</script><p>World</p>`, `<p>Hello</p><p>World</p>`},
		{"style", `<style>p{color:red}</style><p>x</p>`, `<p>x</p>`},
		{"iframe", `<p>Before</p><iframe src="evil.com"></iframe><p>After</p>`, `<p>Before</p><p>After</p>`},
		{"nested object", `<object data="a"><object data="b">x</object>fallback</object><p>y</p>`, `<p>y</p>`},
		{"embed void", `<embed src="evil.swf"><p>z</p>`, `<p>z</p>`},
		{"template", `<template><p>hidden</p></template><p>shown</p>`, `<p>shown</p>`},
		{"mixed case", `<SCRIPT>bad()</SCRIPT><p>ok</p>`, `<p>ok</p>`},
		{"event handler", `<p onclick="steal()" class="x">a</p>`, `<p>a</p>`},
		{"bare lt", `<p>1 < 2</p>`, `<p>1 &lt; 2</p>`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := string(ActiveContent([]byte(tc.input))); got != tc.want {
				t.Errorf("ActiveContent(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestActiveContent_NoTagSplicing(t *testing.T) {
	for _, input := range []string{
		`<<script>x</script>script>alert(1)`,
		`<script src="x.js"/><p>k</p>`,
		`<scr<script>x</script>ipt>alert(1)</script>`,
	} {
		got := string(ActiveContent([]byte(input)))
		if strings.Contains(strings.ToLower(got), "<script") {
			t.Errorf("ActiveContent(%q) = %q", input, got)
		}
	}
}

func TestActiveContent_PreservesSafeContent(t *testing.T) {
	input := `<h1>Title</h1><p style="color: red">Hello <strong>world</strong> &amp; co</p>` +
		`<a href="https://example.com">link</a><img src="site_files/a.png" alt="photo"><br/>` +
		`<details><summary>Click</summary>Content</details>` +
		`<section style="font-style:italic">styled</section>`
	if got := string(ActiveContent([]byte(input))); got != input {
		t.Errorf("safe content changed:\ngot  %s\nwant %s", got, input)
	}
}

func TestActiveContent_KeepsReferences(t *testing.T) {
	tests := []string{
		`<img src="site_files/a.png">`,
		`<a href="site_files/report.pdf">report</a>`,
		`<a href="#top">top</a>`,
		`<a href="mailto:a@b.c">mail</a>`,
		`<img src="data:image/png;base64,AAAA">`,
	}
	for _, input := range tests {
		if got := string(ActiveContent([]byte(input))); got != input {
			t.Errorf("ActiveContent(%q) = %q", input, got)
		}
	}
}

func TestActiveContent_StripsDangerousURIs(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		mustNot string
		must    string
	}{
		{"javascript double-quoted", `<a href="javascript:alert(1)">click</a>`, "javascript:", "click"},
		{"javascript single-quoted", `<a href='javascript:alert(1)'>click</a>`, "javascript:", "click"},
		{"vbscript", `<a href="vbscript:MsgBox(1)">click</a>`, "vbscript:", "click"},
		{"data:text/html", `<a href="data:text/html,<b>x</b>">click</a>`, "data:text/html", "click"},
		{"mixed case", `<a HREF="JavaScript:alert(1)">click</a>`, "javascript:", "click"},
		{"obfuscated", "<a href=\"java\tscript:alert(1)\">click</a>", "script:", "click"},
		{"src attribute", `<img src="javascript:alert(1)" alt="a">`, "javascript:", `alt="a"`},
		{"form action", `<form action="javascript:go()"><p>f</p></form>`, "javascript:", "<p>f</p>"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := string(ActiveContent([]byte(tc.input)))
			if strings.Contains(strings.ToLower(got), tc.mustNot) {
				t.Errorf("dangerous URI not stripped: %s", got)
			}
			if !strings.Contains(got, tc.must) {
				t.Errorf("element content lost: %s", got)
			}
		})
	}
}

func TestActiveContent_Empty(t *testing.T) {
	if got := ActiveContent(nil); len(got) != 0 {
		t.Errorf("ActiveContent(nil) = %q", got)
	}
}

var activeTags = map[string]bool{
	"applet": true, "embed": true, "frame": true, "frameset": true,
	"iframe": true, "object": true, "script": true, "style": true,
	"template": true,
}

func FuzzActiveContent(f *testing.F) {
	seeds := []string{
		`<script>alert('xss')</script>`,
		`<img onerror="alert(1)" src=x>`,
		`<iframe src="javascript:alert(1)"></iframe>`,
		`<object data="evil.swf"></object>`,
		`<scr` + `ipt>alert(1)</sc` + `ript>`,
		`<a href="javascript:alert(1)">x</a>`,
		`<p>plain</p>`,
		``,
	}
	for _, s := range seeds {
		f.Add(s)
	}

	f.Fuzz(func(t *testing.T, input string) {
		out := ActiveContent([]byte(input))
		z := html.NewTokenizer(bytes.NewReader(out))
		for {
			tt := z.Next()
			if tt == html.ErrorToken {
				return
			}
			if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
				continue
			}
			tok := z.Token()
			if activeTags[tok.Data] {
				t.Fatalf("%s survived: %q -> %q", tok.Data, input, out)
			}
			for _, a := range tok.Attr {
				if strings.HasPrefix(a.Key, "on") {
					t.Fatalf("%s handler survived: %q -> %q", a.Key, input, out)
				}
			}
		}
	})
}
