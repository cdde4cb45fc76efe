package mailbox

import (
	"bytes"
	"fmt"
	"io"
	"net/mail"
	"strings"
	"time"

	gomail "github.com/emersion/go-message/mail"
)

// SplitAddresses parses a comma separated address list such as
// "Jane <jane@example.com>, bob@example.com". Empty input yields nil.
func SplitAddresses(list string) ([]string, error) {
	list = strings.TrimSpace(list)
	if list == "" {
		return nil, nil
	}

	parsed, err := mail.ParseAddressList(list)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidRecipient, list, err)
	}

	addrs := make([]string, 0, len(parsed))
	for _, a := range parsed {
		addrs = append(addrs, a.String())
	}
	return addrs, nil
}

// Validate checks that msg can be sent.
func (o *Outgoing) Validate() error {
	if len(o.To) == 0 {
		return fmt.Errorf("%w: at least one recipient is required", ErrInvalidRecipient)
	}
	if strings.TrimSpace(o.Subject) == "" {
		return fmt.Errorf("subject is required")
	}
	if o.Body == "" {
		return fmt.Errorf("body is required")
	}
	return nil
}

// ComposeOptions are the headers Compose sets beyond those of the message.
type ComposeOptions struct {
	Date time.Time
	// MessageID without angle brackets. Generated when empty.
	MessageID string
	// IncludeBcc keeps the Bcc header, which Gmail needs to deliver to blind
	// recipients. SMTP submission passes them in the envelope instead.
	IncludeBcc bool
}

// Compose renders msg as an RFC 5322 message with a single UTF-8 text/plain
// body.
func Compose(msg *Outgoing, opts ComposeOptions) ([]byte, error) {
	if err := msg.Validate(); err != nil {
		return nil, err
	}

	var h gomail.Header
	if opts.Date.IsZero() {
		opts.Date = time.Now()
	}
	h.SetDate(opts.Date)

	if opts.MessageID == "" {
		if err := h.GenerateMessageID(); err != nil {
			return nil, fmt.Errorf("generate message id: %w", err)
		}
	} else {
		h.SetMessageID(opts.MessageID)
	}

	if msg.From != "" {
		from, err := parseList([]string{msg.From})
		if err != nil {
			return nil, err
		}
		h.SetAddressList("From", from)
	}

	lists := []struct {
		key   string
		addrs []string
	}{
		{"To", msg.To},
		{"Cc", msg.Cc},
	}
	if opts.IncludeBcc {
		lists = append(lists, struct {
			key   string
			addrs []string
		}{"Bcc", msg.Bcc})
	}
	for _, l := range lists {
		if len(l.addrs) == 0 {
			continue
		}
		parsed, err := parseList(l.addrs)
		if err != nil {
			return nil, err
		}
		h.SetAddressList(l.key, parsed)
	}

	h.SetSubject(msg.Subject)
	h.SetContentType("text/plain", map[string]string{"charset": "utf-8"})

	var buf bytes.Buffer
	w, err := gomail.CreateSingleInlineWriter(&buf, h)
	if err != nil {
		return nil, fmt.Errorf("create message writer: %w", err)
	}
	if _, err := io.WriteString(w, msg.Body); err != nil {
		return nil, fmt.Errorf("write message body: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close message writer: %w", err)
	}

	return buf.Bytes(), nil
}

func parseList(addrs []string) ([]*gomail.Address, error) {
	out := make([]*gomail.Address, 0, len(addrs))
	for _, a := range addrs {
		parsed, err := gomail.ParseAddress(a)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrInvalidRecipient, a, err)
		}
		out = append(out, parsed)
	}
	return out, nil
}

// AddressOnly strips the display name from an address, returning the bare
// addr-spec for use in an SMTP envelope.
func AddressOnly(addr string) (string, error) {
	parsed, err := mail.ParseAddress(addr)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrInvalidRecipient, addr, err)
	}
	return parsed.Address, nil
}
