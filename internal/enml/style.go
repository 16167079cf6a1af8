package enml

import (
	"strings"
	"unicode"
)

type wrapper struct {
	tag   string
	attrs []Attr
}

// parseStyle splits an inline style into lowercase property names and
// their values. All whitespace is removed first, so "font-family: Times
// New Roman" yields "TimesNewRoman". A declaration without a colon maps to
// the empty string; later declarations win.
func parseStyle(style string) map[string]string {
	compact := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, style)

	decls := make(map[string]string)
	for _, d := range strings.Split(compact, ";") {
		if d == "" {
			continue
		}
		prop, val, _ := strings.Cut(d, ":")
		decls[strings.ToLower(prop)] = val
	}
	return decls
}

// styleWrappers maps recognized declarations to legacy tags, outermost
// first: font, i, b, u or strike, sup or sub. Anything else is ignored.
func styleWrappers(decls map[string]string) []wrapper {
	var ws []wrapper

	var font []Attr
	if face, ok := decls["font-family"]; ok {
		font = append(font, Attr{Key: "face", Val: face})
	}
	if color, ok := decls["color"]; ok {
		font = append(font, Attr{Key: "color", Val: color})
	}
	if len(font) > 0 {
		ws = append(ws, wrapper{tag: "font", attrs: font})
	}

	fontStyle := strings.ToLower(decls["font-style"])
	if fontStyle == "italic" || fontStyle == "oblique" {
		ws = append(ws, wrapper{tag: "i"})
	}
	// Bold is keyed off font-style, not font-weight. Existing exports
	// depend on this, so font-weight:bold alone produces no <b>.
	if fontStyle == "bold" {
		ws = append(ws, wrapper{tag: "b"})
	}

	switch strings.ToLower(decls["text-decoration"]) {
	case "underline":
		ws = append(ws, wrapper{tag: "u"})
	case "line-through":
		ws = append(ws, wrapper{tag: "strike"})
	}

	switch strings.ToLower(decls["vertical-align"]) {
	case "super":
		ws = append(ws, wrapper{tag: "sup"})
	case "sub":
		ws = append(ws, wrapper{tag: "sub"})
	}

	return ws
}
