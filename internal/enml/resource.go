package enml

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
)

// DefaultReferencePrefix is prepended to a filename to form the path that
// exported HTML uses to point at an attachment.
const DefaultReferencePrefix = "site_files/"

// Resource is a binary attachment addressed by the digest of its bytes.
type Resource struct {
	Filename      string
	ReferencePath string
	MimeType      string
	Hash          string
	Data          []byte
}

// NewResource builds a Resource referenced as DefaultReferencePrefix +
// filename.
func NewResource(filename, mimeType string, data []byte) Resource {
	return Resource{
		Filename:      filename,
		ReferencePath: DefaultReferencePrefix + filename,
		MimeType:      mimeType,
		Hash:          Digest(data),
		Data:          data,
	}
}

// Digest returns the lowercase hex MD5 of data, the identity the note
// store uses for resources.
func Digest(data []byte) string {
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}

// ValidateResources checks that every resource carries the fields the
// pipeline relies on.
func ValidateResources(resources []Resource) error {
	for i, r := range resources {
		field := ""
		switch {
		case r.Filename == "":
			field = "filename"
		case r.ReferencePath == "":
			field = "reference_path"
		case r.MimeType == "":
			field = "mime_type"
		case r.Hash == "":
			field = "hash"
		}
		if field != "" {
			return &ValidationError{
				Field:  fmt.Sprintf("resources[%d].%s", i, field),
				Reason: "required",
			}
		}
	}
	return nil
}
