package note

import (
	"html"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

// MaxTitleLen is the note store's limit on title length, in characters.
const MaxTitleLen = 255

// MaxTagLen is the note store's limit on tag name length, in characters.
const MaxTagLen = 100

var strict = bluemonday.StrictPolicy()

// plain strips all markup, decodes entities and collapses whitespace.
func plain(s string) string {
	text := html.UnescapeString(strict.Sanitize(s))
	return strings.Join(strings.Fields(text), " ")
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:n]))
}

// CleanTitle returns a plain-text title within the length limit.
func CleanTitle(title string) string {
	return truncate(plain(title), MaxTitleLen)
}

// ParseTags splits a comma-separated tag list.
func ParseTags(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	return CleanTags(strings.Split(raw, ","))
}

// CleanTags strips markup, drops empty tags and removes case-insensitive
// duplicates, keeping the first spelling seen. Commas are not allowed in
// tag names, so each is treated as a separator.
func CleanTags(tags []string) []string {
	var out []string
	seen := make(map[string]bool, len(tags))
	for _, raw := range tags {
		for _, part := range strings.Split(raw, ",") {
			tag := truncate(plain(part), MaxTagLen)
			if tag == "" {
				continue
			}
			key := strings.ToLower(tag)
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, tag)
		}
	}
	return out
}
