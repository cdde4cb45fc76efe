package imapmail

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	"github.com/jhillyerd/enmime/v2"

	"github.com/teemow/mailmcp/internal/mailbody"
	"github.com/teemow/mailmcp/internal/mailbox"
)

// part adapts an enmime part to mailbody.Part. enmime has already removed
// the transfer encoding and converted text to UTF-8.
type part struct {
	p *enmime.Part
	// embedded is the parsed root of a message/rfc822 leaf. enmime keeps an
	// attached message as raw content, so it is parsed here.
	embedded *enmime.Part
}

// NewPart wraps an enmime part. It returns nil for a nil part.
func NewPart(p *enmime.Part) mailbody.Part {
	if p == nil {
		return nil
	}
	return newPart(p)
}

func newPart(p *enmime.Part) part {
	w := part{p: p}
	if p.FirstChild == nil && len(p.Content) > 0 && mailbody.MediaType(p.ContentType) == "message/rfc822" {
		if env, err := enmime.ReadEnvelope(bytes.NewReader(p.Content)); err == nil {
			w.embedded = env.Root
		}
	}
	return w
}

func (w part) ContentType() string        { return w.p.ContentType }
func (w part) ContentDisposition() string { return w.p.Disposition }

func (w part) IsMultipart() bool {
	return w.p.FirstChild != nil || w.embedded != nil
}

func (w part) Payload() []byte {
	if w.IsMultipart() {
		return nil
	}
	if w.p.Content == nil {
		return []byte{}
	}
	return w.p.Content
}

func (w part) Parts() []mailbody.Part {
	if w.embedded != nil {
		return []mailbody.Part{newPart(w.embedded)}
	}
	var parts []mailbody.Part
	for child := w.p.FirstChild; child != nil; child = child.NextSibling {
		parts = append(parts, newPart(child))
	}
	return parts
}

// ParseMessage parses a raw RFC 5322 message.
func ParseMessage(raw []byte) (*mailbox.Message, error) {
	env, err := enmime.ReadEnvelope(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}

	msg := &mailbox.Message{
		Subject: env.GetHeader("Subject"),
		From:    env.GetHeader("From"),
		To:      env.GetHeader("To"),
		Cc:      env.GetHeader("Cc"),
		Date:    env.GetHeader("Date"),
		Body:    mailbody.ExtractBody(NewPart(env.Root)),
	}
	for _, a := range env.Attachments {
		msg.Attachments = append(msg.Attachments, mailbox.NewAttachment(a.FileName, a.ContentType, int64(len(a.Content))))
	}
	return msg, nil
}

// summaryFromBuffer converts fetched envelope data. IMAP has no server-side
// snippet, so Snippet stays empty.
func summaryFromBuffer(buf *imapclient.FetchMessageBuffer, folder string) mailbox.Summary {
	s := mailbox.Summary{
		ID:     fmt.Sprint(uint32(buf.UID)),
		Folder: folder,
	}
	if env := buf.Envelope; env != nil {
		s.Subject = env.Subject
		s.From = formatAddresses(env.From)
		if !env.Date.IsZero() {
			s.Date = env.Date.Format(time.RFC1123Z)
		}
	}
	return s
}

func formatAddresses(addrs []imap.Address) string {
	out := make([]string, 0, len(addrs))
	for _, a := range addrs {
		addr := a.Addr()
		switch {
		case a.Name != "" && addr != "":
			out = append(out, fmt.Sprintf("%s <%s>", a.Name, addr))
		case addr != "":
			out = append(out, addr)
		case a.Name != "":
			out = append(out, a.Name)
		}
	}
	return strings.Join(out, ", ")
}
