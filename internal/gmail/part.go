package gmail

import (
	"encoding/base64"
	"strings"

	gmail "google.golang.org/api/gmail/v1"

	"github.com/teemow/mailmcp/internal/mailbody"
)

// part adapts a Gmail API message part to mailbody.Part.
type part struct {
	p *gmail.MessagePart
}

// NewPart wraps a Gmail message part. It returns nil for a nil part.
func NewPart(p *gmail.MessagePart) mailbody.Part {
	if p == nil {
		return nil
	}
	return part{p: p}
}

// ContentType prefers the Content-Type header, which carries parameters,
// over the bare MimeType field.
func (w part) ContentType() string {
	if ct := HeaderValue(w.p, "Content-Type"); ct != "" {
		return ct
	}
	return w.p.MimeType
}

func (w part) ContentDisposition() string {
	return HeaderValue(w.p, "Content-Disposition")
}

// Payload decodes the base64url body data. Parts whose content lives behind
// an attachment id, and bodies that fail to decode, have no payload.
func (w part) Payload() []byte {
	if w.IsMultipart() || w.p.Body == nil {
		return nil
	}
	if w.p.Body.Data == "" {
		if w.p.Body.AttachmentId != "" {
			return nil
		}
		return []byte{}
	}
	data, err := decodeData(w.p.Body.Data)
	if err != nil {
		return nil
	}
	return data
}

func (w part) IsMultipart() bool {
	return len(w.p.Parts) > 0 || strings.HasPrefix(strings.ToLower(w.p.MimeType), "multipart/")
}

func (w part) Parts() []mailbody.Part {
	if len(w.p.Parts) == 0 {
		return nil
	}
	parts := make([]mailbody.Part, 0, len(w.p.Parts))
	for _, child := range w.p.Parts {
		if child != nil {
			parts = append(parts, part{p: child})
		}
	}
	return parts
}

// decodeData decodes Gmail body data, which is base64url with or without
// padding. Standard base64 is accepted as a last resort.
func decodeData(data string) ([]byte, error) {
	if decoded, err := base64.URLEncoding.DecodeString(data); err == nil {
		return decoded, nil
	}
	if decoded, err := base64.RawURLEncoding.DecodeString(data); err == nil {
		return decoded, nil
	}
	return base64.StdEncoding.DecodeString(data)
}
