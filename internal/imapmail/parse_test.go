package imapmail

import (
	"strings"
	"testing"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	"github.com/jhillyerd/enmime/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func crlf(s string) string {
	return strings.ReplaceAll(s, "\n", "\r\n")
}

var multipartMessage = crlf(`From: Alice <alice@example.com>
To: Jane <jane@example.com>
Cc: team@example.com
Subject: =?UTF-8?Q?Gr=C3=BC=C3=9Fe?=
Date: Mon, 02 Jun 2025 10:00:00 +0000
MIME-Version: 1.0
Content-Type: multipart/mixed; boundary="outer"

--outer
Content-Type: multipart/alternative; boundary="inner"

--inner
Content-Type: text/plain; charset=utf-8

Hello plain
--inner
Content-Type: text/html; charset=utf-8
Content-Transfer-Encoding: quoted-printable

<p>Hello <b>HTML</b><script>alert(1)</script></p>
--inner--
--outer
Content-Type: text/plain; name="notes.txt"
Content-Disposition: attachment; filename="notes.txt"

attached notes
--outer--
`)

var plainMessage = crlf(`From: bob@example.com
To: jane@example.com
Subject: Plain
Content-Type: text/plain; charset=iso-8859-1
Content-Transfer-Encoding: quoted-printable

Caf=E9 at noon.
`)

func TestParseMessage_Multipart(t *testing.T) {
	msg, err := ParseMessage([]byte(multipartMessage))
	require.NoError(t, err)

	assert.Equal(t, "Grüße", msg.Subject)
	assert.Equal(t, "Alice <alice@example.com>", msg.From)
	assert.Contains(t, msg.To, "jane@example.com")
	assert.Equal(t, "team@example.com", msg.Cc)
	assert.Equal(t, "Mon, 02 Jun 2025 10:00:00 +0000", msg.Date)

	assert.Contains(t, msg.Body, "Hello")
	assert.Contains(t, msg.Body, "HTML")
	assert.NotContains(t, msg.Body, "Hello plain", "html must win over plain text")
	assert.NotContains(t, msg.Body, "alert(1)")
	assert.NotContains(t, msg.Body, "attached notes")

	require.Len(t, msg.Attachments, 1)
	assert.Equal(t, "notes.txt", msg.Attachments[0].Filename)
	assert.Equal(t, "text/plain", msg.Attachments[0].MimeType)
	assert.NotEmpty(t, msg.Attachments[0].HumanSize)
}

func TestParseMessage_SinglePartCharset(t *testing.T) {
	msg, err := ParseMessage([]byte(plainMessage))
	require.NoError(t, err)

	assert.Equal(t, "Plain", msg.Subject)
	assert.Equal(t, "Café at noon.", strings.TrimSpace(msg.Body))
	assert.Empty(t, msg.Attachments)
}

var forwardedMessage = crlf(`From: jane@example.com
To: bob@example.com
Subject: Fwd: Lunch
MIME-Version: 1.0
Content-Type: multipart/mixed; boundary="fwd"

--fwd
Content-Type: text/plain; charset=utf-8

See below.
--fwd
Content-Type: message/rfc822
Content-Disposition: attachment; filename="lunch.eml"

From: alice@example.com
Subject: Lunch
Content-Type: text/plain; charset=utf-8

Noon at the usual place.
--fwd--
`)

func TestParseMessage_AttachedMessage(t *testing.T) {
	msg, err := ParseMessage([]byte(forwardedMessage))
	require.NoError(t, err)

	assert.Contains(t, msg.Body, "See below.")
	assert.Contains(t, msg.Body, "Noon at the usual place.")
	assert.NotContains(t, msg.Body, "Subject: Lunch", "headers of the attached message are not body text")
}

func TestNewPart_AttachedMessageHasChildren(t *testing.T) {
	inner := &enmime.Part{
		ContentType: "message/rfc822",
		Disposition: "attachment",
		Content:     []byte(crlf("Subject: Hi\nContent-Type: text/plain\n\nhello\n")),
	}
	p := NewPart(inner)
	require.True(t, p.IsMultipart())
	assert.Nil(t, p.Payload())

	children := p.Parts()
	require.Len(t, children, 1)
	assert.Equal(t, "text/plain", children[0].ContentType())
	assert.Equal(t, "hello", strings.TrimSpace(string(children[0].Payload())))
}

func TestSummaryFromBuffer(t *testing.T) {
	date := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	s := summaryFromBuffer(&imapclient.FetchMessageBuffer{
		UID: 42,
		Envelope: &imap.Envelope{
			Subject: "Lunch",
			Date:    date,
			From: []imap.Address{
				{Name: "Bob", Mailbox: "bob", Host: "example.com"},
				{Mailbox: "carol", Host: "example.com"},
			},
		},
	}, "INBOX")

	assert.Equal(t, "42", s.ID)
	assert.Equal(t, "INBOX", s.Folder)
	assert.Equal(t, "Lunch", s.Subject)
	assert.Equal(t, "Bob <bob@example.com>, carol@example.com", s.From)
	assert.Equal(t, date.Format(time.RFC1123Z), s.Date)
	assert.Empty(t, s.Snippet)
}

func TestSummaryFromBuffer_NoEnvelope(t *testing.T) {
	s := summaryFromBuffer(&imapclient.FetchMessageBuffer{UID: 7}, "Archive")
	assert.Equal(t, "7", s.ID)
	assert.Empty(t, s.Subject)
	assert.Empty(t, s.Date)
}
