package mailbody

import (
	"strings"
)

// ExtractBody returns the best readable text of a message.
//
// For a multipart root every descendant is inspected; parts disposed as
// attachments are skipped. A non-multipart root is inspected on its own.
// text/plain and text/html payloads are accumulated separately, in traversal
// order. When any HTML was found it wins over plain text, even if the HTML
// renders to nothing but whitespace. Otherwise the plain text is returned,
// which may be empty.
func ExtractBody(root Part) string {
	if root == nil {
		return ""
	}

	var acc accumulator
	if root.IsMultipart() {
		walk(root, &acc)
	} else {
		acc.add(root)
	}

	return acc.result()
}

type accumulator struct {
	plain strings.Builder
	html  strings.Builder
}

func (a *accumulator) add(p Part) {
	switch MediaType(p.ContentType()) {
	case ContentTypePlain:
		a.plain.WriteString(decodeText(p.Payload()))
	case ContentTypeHTML:
		a.html.WriteString(decodeText(p.Payload()))
	}
}

func (a *accumulator) result() string {
	html := a.html.String()
	if html == "" {
		return a.plain.String()
	}

	text, err := HTMLToText(html)
	if err != nil {
		return html
	}
	return text
}

// walk visits p and all of its descendants depth-first. Only leaves are
// checked for an attachment disposition; the children of a container are
// always visited.
func walk(p Part, acc *accumulator) {
	if p == nil {
		return
	}
	if p.IsMultipart() || len(p.Parts()) > 0 {
		for _, child := range p.Parts() {
			walk(child, acc)
		}
		return
	}
	if IsAttachment(p.ContentDisposition()) {
		return
	}
	acc.add(p)
}

// decodeText converts a payload to text, dropping byte sequences that are not
// valid UTF-8.
func decodeText(payload []byte) string {
	if len(payload) == 0 {
		return ""
	}
	return strings.ToValidUTF8(string(payload), "")
}
