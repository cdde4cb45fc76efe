package mailbox

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	gomail "github.com/emersion/go-message/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitAddresses(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []string
		wantErr bool
	}{
		{name: "empty", input: "", want: nil},
		{name: "whitespace", input: "   ", want: nil},
		{name: "single", input: "jane@example.com", want: []string{"<jane@example.com>"}},
		{
			name:  "list with display name",
			input: "Jane Doe <jane@example.com>, bob@example.com",
			want:  []string{`"Jane Doe" <jane@example.com>`, "<bob@example.com>"},
		},
		{name: "invalid", input: "not an address", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SplitAddresses(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidRecipient))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAddressOnly(t *testing.T) {
	got, err := AddressOnly(`"Jane Doe" <jane@example.com>`)
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", got)

	_, err = AddressOnly("nope")
	assert.ErrorIs(t, err, ErrInvalidRecipient)
}

func TestOutgoing_Validate(t *testing.T) {
	tests := []struct {
		name    string
		msg     Outgoing
		wantErr string
	}{
		{name: "valid", msg: Outgoing{To: []string{"a@example.com"}, Subject: "Hi", Body: "Hello"}},
		{name: "no recipient", msg: Outgoing{Subject: "Hi", Body: "Hello"}, wantErr: "at least one recipient is required"},
		{name: "no subject", msg: Outgoing{To: []string{"a@example.com"}, Subject: " ", Body: "Hello"}, wantErr: "subject is required"},
		{name: "no body", msg: Outgoing{To: []string{"a@example.com"}, Subject: "Hi"}, wantErr: "body is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.msg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestOutgoing_Recipients(t *testing.T) {
	msg := Outgoing{
		To:  []string{"a@example.com"},
		Cc:  []string{"b@example.com"},
		Bcc: []string{"c@example.com"},
	}
	assert.Equal(t, []string{"a@example.com", "b@example.com", "c@example.com"}, msg.Recipients())
}

func readComposed(t *testing.T, raw []byte) (gomail.Header, string) {
	t.Helper()
	mr, err := gomail.CreateReader(bytes.NewReader(raw))
	require.NoError(t, err)

	p, err := mr.NextPart()
	require.NoError(t, err)
	body, err := io.ReadAll(p.Body)
	require.NoError(t, err)
	return mr.Header, string(body)
}

func TestCompose(t *testing.T) {
	date := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	msg := &Outgoing{
		From:    "Me <me@example.com>",
		To:      []string{"Jane <jane@example.com>"},
		Cc:      []string{"bob@example.com"},
		Bcc:     []string{"hidden@example.com"},
		Subject: "Grüße aus Köln",
		Body:    "Hallo Jane,\nbis morgen.\n",
	}

	raw, err := Compose(msg, ComposeOptions{Date: date, MessageID: "abc@example.com"})
	require.NoError(t, err)

	h, body := readComposed(t, raw)

	subject, err := h.Subject()
	require.NoError(t, err)
	assert.Equal(t, "Grüße aus Köln", subject)

	to, err := h.AddressList("To")
	require.NoError(t, err)
	require.Len(t, to, 1)
	assert.Equal(t, "jane@example.com", to[0].Address)
	assert.Equal(t, "Jane", to[0].Name)

	from, err := h.AddressList("From")
	require.NoError(t, err)
	require.Len(t, from, 1)
	assert.Equal(t, "me@example.com", from[0].Address)

	cc, err := h.AddressList("Cc")
	require.NoError(t, err)
	require.Len(t, cc, 1)

	assert.False(t, h.Has("Bcc"), "Bcc must not leak into the header by default")

	id, err := h.MessageID()
	require.NoError(t, err)
	assert.Equal(t, "abc@example.com", id)

	gotDate, err := h.Date()
	require.NoError(t, err)
	assert.True(t, date.Equal(gotDate))

	mediaType, params, err := h.ContentType()
	require.NoError(t, err)
	assert.Equal(t, "text/plain", mediaType)
	assert.Equal(t, "utf-8", strings.ToLower(params["charset"]))

	assert.Equal(t, "Hallo Jane,\nbis morgen.\n", strings.ReplaceAll(body, "\r\n", "\n"))
}

func TestCompose_IncludeBcc(t *testing.T) {
	msg := &Outgoing{
		To:      []string{"jane@example.com"},
		Bcc:     []string{"hidden@example.com"},
		Subject: "Hi",
		Body:    "Hello",
	}

	raw, err := Compose(msg, ComposeOptions{IncludeBcc: true})
	require.NoError(t, err)

	h, _ := readComposed(t, raw)
	bcc, err := h.AddressList("Bcc")
	require.NoError(t, err)
	require.Len(t, bcc, 1)
	assert.Equal(t, "hidden@example.com", bcc[0].Address)

	id, err := h.MessageID()
	require.NoError(t, err)
	assert.NotEmpty(t, id, "a message id is generated when none is given")
}

func TestCompose_Invalid(t *testing.T) {
	_, err := Compose(&Outgoing{Subject: "Hi", Body: "Hello"}, ComposeOptions{})
	assert.ErrorIs(t, err, ErrInvalidRecipient)

	_, err = Compose(&Outgoing{To: []string{"bogus"}, Subject: "Hi", Body: "Hello"}, ComposeOptions{})
	assert.ErrorIs(t, err, ErrInvalidRecipient)
}

func TestListOptions_Normalize(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{0, DefaultMaxResults},
		{-5, DefaultMaxResults},
		{1, 1},
		{50, 50},
		{100, 100},
		{1000, MaxMaxResults},
	}
	for _, tt := range tests {
		got := ListOptions{MaxResults: tt.in}.Normalize()
		assert.Equal(t, tt.want, got.MaxResults, "MaxResults=%d", tt.in)
	}
}

func TestNewAttachment(t *testing.T) {
	a := NewAttachment("report.pdf", "application/pdf", 1500000)
	assert.Equal(t, "report.pdf", a.Filename)
	assert.Equal(t, int64(1500000), a.Size)
	assert.Equal(t, "1.5 MB", a.HumanSize)

	unknown := NewAttachment("x.bin", "application/octet-stream", -1)
	assert.Empty(t, unknown.HumanSize)
}
