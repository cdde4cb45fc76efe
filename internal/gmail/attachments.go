package gmail

import (
	gmail "google.golang.org/api/gmail/v1"

	"github.com/teemow/mailmcp/internal/mailbox"
)

// Attachments lists the parts of a message payload that carry a filename.
func Attachments(payload *gmail.MessagePart) []mailbox.Attachment {
	var attachments []mailbox.Attachment
	walkParts(payload, func(part *gmail.MessagePart) {
		if part.Filename == "" {
			return
		}
		var size int64
		if part.Body != nil {
			size = part.Body.Size
		}
		attachments = append(attachments, mailbox.NewAttachment(part.Filename, part.MimeType, size))
	})
	return attachments
}

// walkParts calls fn for part and every descendant, depth-first.
func walkParts(part *gmail.MessagePart, fn func(*gmail.MessagePart)) {
	if part == nil {
		return
	}

	fn(part)

	for _, subpart := range part.Parts {
		walkParts(subpart, fn)
	}
}
