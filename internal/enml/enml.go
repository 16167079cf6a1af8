// Package enml converts HTML fragments into ENML, the XHTML subset accepted
// by the Evernote note store.
//
// The pipeline is Parse, Sanitize, Link, Render and Compose. Transform runs
// all of them. Each call owns its tree; nothing is shared between calls, so
// concurrent transforms need no locking.
//
// Style conversion keeps the styled element and nests the legacy tags
// inside it: <span style="color:red">hi</span> becomes
// <span><font color="red">hi</font></span>. Only elements outside the
// allow-list disappear, leaving the wrappers in their place.
package enml

// Transform converts an HTML fragment and its attachments into a complete
// ENML document. Malformed markup is never an error; the only failure is a
// resource missing a required field.
func Transform(src string, resources []Resource) (string, error) {
	if err := ValidateResources(resources); err != nil {
		return "", err
	}

	t := Parse(src)
	Sanitize(t)
	Link(t, resources)
	return Compose(t.String()), nil
}
