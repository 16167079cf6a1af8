package enml

import (
	"sort"
	"strings"
)

// MediaTag is the element the note store resolves to an attached resource.
const MediaTag = "en-media"

type category uint8

const (
	categoryDisallowed category = iota
	categoryAllowed
	categoryVoid
	// categoryMedia is produced by Link only. Media elements arriving in
	// the input are treated as disallowed so callers cannot forge hashes.
	categoryMedia
)

var tagCategories = map[string]category{
	"a":          categoryAllowed,
	"abbr":       categoryAllowed,
	"acronym":    categoryAllowed,
	"address":    categoryAllowed,
	"b":          categoryAllowed,
	"big":        categoryAllowed,
	"blockquote": categoryAllowed,
	"br":         categoryVoid,
	"caption":    categoryAllowed,
	"center":     categoryAllowed,
	"cite":       categoryAllowed,
	"code":       categoryAllowed,
	"col":        categoryVoid,
	"colgroup":   categoryAllowed,
	"dd":         categoryAllowed,
	"del":        categoryAllowed,
	"dfn":        categoryAllowed,
	"div":        categoryAllowed,
	"dl":         categoryAllowed,
	"dt":         categoryAllowed,
	"em":         categoryAllowed,
	"font":       categoryAllowed,
	"h1":         categoryAllowed,
	"h2":         categoryAllowed,
	"h3":         categoryAllowed,
	"h4":         categoryAllowed,
	"h5":         categoryAllowed,
	"h6":         categoryAllowed,
	"hr":         categoryVoid,
	"i":          categoryAllowed,
	"img":        categoryVoid,
	"ins":        categoryAllowed,
	"kbd":        categoryAllowed,
	"li":         categoryAllowed,
	"ol":         categoryAllowed,
	"p":          categoryAllowed,
	"pre":        categoryAllowed,
	"q":          categoryAllowed,
	"s":          categoryAllowed,
	"samp":       categoryAllowed,
	"small":      categoryAllowed,
	"span":       categoryAllowed,
	"strike":     categoryAllowed,
	"strong":     categoryAllowed,
	"sub":        categoryAllowed,
	"sup":        categoryAllowed,
	"table":      categoryAllowed,
	"tbody":      categoryAllowed,
	"td":         categoryAllowed,
	"tfoot":      categoryAllowed,
	"th":         categoryAllowed,
	"thead":      categoryAllowed,
	"tr":         categoryAllowed,
	"tt":         categoryAllowed,
	"u":          categoryAllowed,
	"ul":         categoryAllowed,
	"var":        categoryAllowed,

	MediaTag: categoryMedia,
}

// deniedAttrs are dropped from every element. Names starting with "on" are
// dropped as well.
var deniedAttrs = map[string]bool{
	"class":     true,
	"id":        true,
	"accesskey": true,
	"data":      true,
	"dynsrc":    true,
	"tabindex":  true,
}

func categoryOf(tag string) category {
	return tagCategories[tag]
}

// Allowed reports whether tag survives sanitization.
func Allowed(tag string) bool {
	c := categoryOf(tag)
	return c == categoryAllowed || c == categoryVoid
}

// DeniedAttr reports whether an attribute name is stripped by Sanitize.
func DeniedAttr(name string) bool {
	lower := strings.ToLower(name)
	return deniedAttrs[lower] || strings.HasPrefix(lower, "on")
}

// AllowedTags lists every tag Sanitize keeps, sorted.
func AllowedTags() []string {
	tags := make([]string, 0, len(tagCategories))
	for tag := range tagCategories {
		if Allowed(tag) {
			tags = append(tags, tag)
		}
	}
	sort.Strings(tags)
	return tags
}
