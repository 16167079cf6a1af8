package enml

import "strings"

// Envelope constants. The note store validates against this exact DTD.
const (
	XMLDeclaration = `<?xml version="1.0" encoding="UTF-8"?>`
	DoctypeURI     = "http://xml.evernote.com/pub/enml2.dtd"
	Doctype        = `<!DOCTYPE en-note SYSTEM "` + DoctypeURI + `">`
	RootTag        = "en-note"
)

// Compose wraps a serialized fragment in the ENML envelope.
func Compose(fragment string) string {
	var b strings.Builder
	b.Grow(len(XMLDeclaration) + len(Doctype) + 2*len(RootTag) + 5 + len(fragment))
	b.WriteString(XMLDeclaration)
	b.WriteString(Doctype)
	b.WriteString("<" + RootTag + ">")
	b.WriteString(fragment)
	b.WriteString("</" + RootTag + ">")
	return b.String()
}
