package mailbody

import (
	"mime"
	"strings"
)

// Common content types recognised by the extractor.
const (
	ContentTypePlain = "text/plain"
	ContentTypeHTML  = "text/html"
)

// Part is a node of a decoded MIME message.
//
// A multipart node has no payload and at least one child. A leaf node has a
// payload, possibly empty, and no children. Payload returns the content with
// its transfer encoding already removed; nil means the part carries no body.
type Part interface {
	ContentType() string
	ContentDisposition() string
	Payload() []byte
	IsMultipart() bool
	Parts() []Part
}

// MediaType returns the lower-cased media type of a Content-Type value with
// any parameters removed. Unparseable values fall back to the text before the
// first semicolon.
func MediaType(contentType string) string {
	if contentType == "" {
		return ""
	}
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		return mediaType
	}
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}
	return strings.ToLower(strings.TrimSpace(contentType))
}

// IsAttachment reports whether a Content-Disposition value marks its part as
// an attachment.
func IsAttachment(disposition string) bool {
	return strings.Contains(strings.ToLower(disposition), "attachment")
}
