// Package rewrite makes links in fetched documents usable outside the
// site they came from.
package rewrite

import (
	"html"
	"net/url"
	"regexp"
	"strings"
)

// linkRe matches double-quoted href and src attributes.
var linkRe = regexp.MustCompile(`(?i)((?:href|src)\s*=\s*")([^"]*)(")`)

// RelativeURLs resolves relative href and src values against sourceURL so
// they keep working inside a note. Values listed in keep are attachment
// reference paths and are left alone, as are absolute URLs, fragments and
// data: or mailto: links. Values are compared and resolved after entity
// decoding.
func RelativeURLs(doc []byte, sourceURL string, keep map[string]bool) []byte {
	base, err := url.Parse(sourceURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return doc
	}

	return linkRe.ReplaceAllFunc(doc, func(match []byte) []byte {
		parts := linkRe.FindSubmatch(match)
		if len(parts) < 4 {
			return match
		}

		ref := html.UnescapeString(string(parts[2]))
		if ref == "" || keep[ref] || !isRelative(ref) {
			return match
		}

		rel, err := url.Parse(ref)
		if err != nil {
			return match
		}
		resolved := html.EscapeString(base.ResolveReference(rel).String())

		out := make([]byte, 0, len(parts[1])+len(resolved)+len(parts[3]))
		out = append(out, parts[1]...)
		out = append(out, resolved...)
		out = append(out, parts[3]...)
		return out
	})
}

func isRelative(ref string) bool {
	lower := strings.ToLower(ref)
	switch {
	case strings.HasPrefix(lower, "#"),
		strings.HasPrefix(lower, "//"),
		strings.HasPrefix(lower, "data:"),
		strings.HasPrefix(lower, "mailto:"),
		strings.Contains(lower, "://"):
		return false
	}
	return true
}
