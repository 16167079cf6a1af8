// Package sanitize removes active content from exported documents before
// they reach the ENML pipeline.
package sanitize

import (
	"sync"

	"github.com/microcosm-cc/bluemonday"

	"github.com/air-gapped/enml/internal/enml"
)

// layoutTags are kept so styling on them reaches the ENML pipeline, which
// unwraps them itself.
var layoutTags = []string{
	"article", "aside", "details", "figcaption", "figure", "footer",
	"header", "main", "mark", "nav", "section", "summary", "time",
}

var (
	policy     *bluemonday.Policy
	policyOnce sync.Once
)

// Policy returns the shared policy: the ENML element set plus layout
// containers, style on every element, and links limited to http, https,
// mailto, relative references and data: images.
func Policy() *bluemonday.Policy {
	policyOnce.Do(func() {
		p := bluemonday.NewPolicy()

		p.AllowElements(enml.AllowedTags()...)
		p.AllowElements(layoutTags...)
		p.AllowNoAttrs().OnElements("big", "main")
		p.SkipElementsContent("applet", "template", "xmp")

		p.AllowAttrs("style", "title", "dir", "lang").Globally()
		p.AllowAttrs("href").OnElements("a")
		p.AllowAttrs("src", "alt", "width", "height").OnElements("img")
		p.AllowAttrs("color", "face", "size").OnElements("font")
		p.AllowAttrs("cite").OnElements("blockquote", "q", "del", "ins")
		p.AllowAttrs("datetime").OnElements("del", "ins", "time")
		p.AllowAttrs("start", "type").OnElements("ol", "ul", "li")
		p.AllowAttrs("align").OnElements("div", "p", "h1", "h2", "h3", "h4", "h5", "h6",
			"table", "tr", "td", "th", "thead", "tbody", "tfoot", "col", "colgroup", "caption", "img", "hr")
		p.AllowAttrs("valign").OnElements("tr", "td", "th", "thead", "tbody", "tfoot", "col", "colgroup")
		p.AllowAttrs("colspan", "rowspan").OnElements("td", "th")
		p.AllowAttrs("span").OnElements("col", "colgroup")
		p.AllowAttrs("border", "cellpadding", "cellspacing", "width").OnElements("table")
		p.AllowAttrs("width").OnElements("td", "th", "col", "colgroup", "hr")

		p.AllowRelativeURLs(true)
		p.AllowURLSchemes("http", "https", "mailto")
		p.AllowDataURIImages()

		policy = p
	})
	return policy
}

// ActiveContent strips script-bearing elements, event handlers and
// dangerous URLs from src.
func ActiveContent(src []byte) []byte {
	if len(src) == 0 {
		return src
	}
	return Policy().SanitizeBytes(src)
}
