package gmail

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gmail "google.golang.org/api/gmail/v1"

	"github.com/teemow/mailmcp/internal/mailbody"
)

func b64(s string) string {
	return base64.URLEncoding.EncodeToString([]byte(s))
}

func TestNewPart_Nil(t *testing.T) {
	assert.Nil(t, NewPart(nil))
	assert.Equal(t, "", mailbody.ExtractBody(NewPart(nil)))
}

func TestPart_Leaf(t *testing.T) {
	p := NewPart(&gmail.MessagePart{
		MimeType: "text/plain",
		Headers: []*gmail.MessagePartHeader{
			{Name: "content-type", Value: "text/plain; charset=UTF-8"},
			{Name: "Content-Disposition", Value: "inline"},
		},
		Body: &gmail.MessagePartBody{Data: b64("hello?"), Size: 6},
	})

	assert.Equal(t, "text/plain; charset=UTF-8", p.ContentType())
	assert.Equal(t, "inline", p.ContentDisposition())
	assert.False(t, p.IsMultipart())
	assert.Nil(t, p.Parts())
	assert.Equal(t, []byte("hello?"), p.Payload())
}

func TestPart_ContentTypeFallsBackToMimeType(t *testing.T) {
	p := NewPart(&gmail.MessagePart{MimeType: "text/html", Body: &gmail.MessagePartBody{}})
	assert.Equal(t, "text/html", p.ContentType())
	assert.Equal(t, []byte{}, p.Payload())
}

func TestPart_Payload(t *testing.T) {
	tests := []struct {
		name string
		body *gmail.MessagePartBody
		want []byte
	}{
		{name: "no body", body: nil, want: nil},
		{name: "empty data", body: &gmail.MessagePartBody{}, want: []byte{}},
		{name: "attachment id only", body: &gmail.MessagePartBody{AttachmentId: "att-1", Size: 2048}, want: nil},
		{name: "padded base64url", body: &gmail.MessagePartBody{Data: b64("a>b?")}, want: []byte("a>b?")},
		{name: "unpadded base64url", body: &gmail.MessagePartBody{Data: base64.RawURLEncoding.EncodeToString([]byte("abcd1"))}, want: []byte("abcd1")},
		{name: "undecodable", body: &gmail.MessagePartBody{Data: "!!!"}, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPart(&gmail.MessagePart{MimeType: "text/plain", Body: tt.body})
			assert.Equal(t, tt.want, p.Payload())
		})
	}
}

func TestPart_ExtractBody(t *testing.T) {
	payload := &gmail.MessagePart{
		MimeType: "multipart/mixed",
		Parts: []*gmail.MessagePart{
			{
				MimeType: "multipart/alternative",
				Parts: []*gmail.MessagePart{
					{MimeType: "text/plain", Body: &gmail.MessagePartBody{Data: b64("plain version")}},
					{MimeType: "text/html", Body: &gmail.MessagePartBody{Data: b64("<p>html <b>version</b></p>")}},
				},
			},
			{
				MimeType: "text/plain",
				Filename: "notes.txt",
				Headers: []*gmail.MessagePartHeader{
					{Name: "Content-Disposition", Value: `attachment; filename="notes.txt"`},
				},
				Body: &gmail.MessagePartBody{Data: b64("attached notes")},
			},
		},
	}

	root := NewPart(payload)
	require.True(t, root.IsMultipart())
	require.Len(t, root.Parts(), 2)

	assert.Equal(t, "html \nversion", mailbody.ExtractBody(root))
}

func TestAttachments(t *testing.T) {
	payload := &gmail.MessagePart{
		MimeType: "multipart/mixed",
		Parts: []*gmail.MessagePart{
			{MimeType: "text/plain", Body: &gmail.MessagePartBody{Data: b64("body")}},
			{MimeType: "application/pdf", Filename: "invoice.pdf", Body: &gmail.MessagePartBody{AttachmentId: "a1", Size: 2048}},
			{MimeType: "image/png", Filename: "logo.png"},
		},
	}

	got := Attachments(payload)
	require.Len(t, got, 2)
	assert.Equal(t, "invoice.pdf", got[0].Filename)
	assert.Equal(t, "application/pdf", got[0].MimeType)
	assert.Equal(t, int64(2048), got[0].Size)
	assert.Equal(t, "2.0 kB", got[0].HumanSize)
	assert.Equal(t, "logo.png", got[1].Filename)
	assert.Equal(t, int64(0), got[1].Size)

	assert.Nil(t, Attachments(nil))
}

func TestHeaderValue(t *testing.T) {
	part := &gmail.MessagePart{Headers: []*gmail.MessagePartHeader{
		{Name: "Subject", Value: "first"},
		{Name: "subject", Value: "second"},
	}}

	assert.Equal(t, "first", HeaderValue(part, "SUBJECT"))
	assert.Equal(t, "", HeaderValue(part, "From"))
	assert.Equal(t, "", HeaderValue(nil, "Subject"))
}
