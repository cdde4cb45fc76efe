package mailbox

import (
	"context"
	"errors"

	"github.com/dustin/go-humanize"

	"github.com/teemow/mailmcp/internal/folders"
)

// Provider names.
const (
	ProviderGmail = "gmail"
	ProviderIMAP  = "imap"
)

// Defaults and limits for listing.
const (
	DefaultMaxResults = 10
	MaxMaxResults     = 100
	DefaultFolder     = "INBOX"
)

var (
	// ErrNotFound is returned when a message does not exist.
	ErrNotFound = errors.New("message not found")
	// ErrInvalidRecipient is returned when an address cannot be parsed or
	// no recipient is given.
	ErrInvalidRecipient = errors.New("invalid recipient")
	// ErrReadOnly is returned by write operations on a read-only mailbox.
	ErrReadOnly = errors.New("mailbox is read-only")
)

// Summary is one entry of a message listing.
type Summary struct {
	ID       string `json:"id"`
	ThreadID string `json:"threadId,omitempty"`
	Folder   string `json:"folder,omitempty"`
	Snippet  string `json:"snippet"`
	Subject  string `json:"subject"`
	From     string `json:"from"`
	Date     string `json:"date"`
}

// Attachment describes an attached file without its content.
type Attachment struct {
	Filename string `json:"filename"`
	MimeType string `json:"mimeType"`
	Size     int64  `json:"size"`
	// HumanSize is Size formatted for display, e.g. "1.2 MB".
	HumanSize string `json:"humanSize,omitempty"`
}

// NewAttachment returns an Attachment with HumanSize filled in. Negative
// sizes are treated as unknown.
func NewAttachment(filename, mimeType string, size int64) Attachment {
	a := Attachment{Filename: filename, MimeType: mimeType, Size: size}
	if size >= 0 {
		a.HumanSize = humanize.Bytes(uint64(size))
	}
	return a
}

// Message is a fully fetched message with its readable body.
type Message struct {
	ID          string       `json:"id"`
	ThreadID    string       `json:"threadId,omitempty"`
	Folder      string       `json:"folder,omitempty"`
	Subject     string       `json:"subject"`
	From        string       `json:"from"`
	To          string       `json:"to"`
	Cc          string       `json:"cc,omitempty"`
	Date        string       `json:"date"`
	Body        string       `json:"body"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// Outgoing is a plain-text message to be sent.
type Outgoing struct {
	From    string
	To      []string
	Cc      []string
	Bcc     []string
	Subject string
	Body    string
}

// Recipients returns all envelope recipients, Bcc included.
func (o *Outgoing) Recipients() []string {
	all := make([]string, 0, len(o.To)+len(o.Cc)+len(o.Bcc))
	all = append(all, o.To...)
	all = append(all, o.Cc...)
	all = append(all, o.Bcc...)
	return all
}

// SendResult identifies a sent message.
type SendResult struct {
	ID       string `json:"id"`
	ThreadID string `json:"threadId,omitempty"`
	// SentFolder is the IMAP folder the sent copy was stored in.
	SentFolder string `json:"sentFolder,omitempty"`
}

// ListOptions controls List.
type ListOptions struct {
	Query      string
	MaxResults int
	// Folder is only honoured by backends with folders. Empty means INBOX.
	Folder string
}

// Normalize applies defaults and clamps MaxResults to [1, MaxMaxResults].
func (o ListOptions) Normalize() ListOptions {
	switch {
	case o.MaxResults <= 0:
		o.MaxResults = DefaultMaxResults
	case o.MaxResults > MaxMaxResults:
		o.MaxResults = MaxMaxResults
	}
	return o
}

// Mailbox is the set of operations every backend supports.
type Mailbox interface {
	// Provider returns ProviderGmail or ProviderIMAP.
	Provider() string
	List(ctx context.Context, opts ListOptions) ([]Summary, error)
	// Get fetches one message. folder is ignored by backends without folders.
	Get(ctx context.Context, id, folder string) (*Message, error)
	Send(ctx context.Context, msg *Outgoing) (*SendResult, error)
}

// FolderBrowser is implemented by backends that expose a folder hierarchy.
type FolderBrowser interface {
	Folders(ctx context.Context) ([]folders.Record, error)
}

// Trasher is implemented by backends that can move a message to Trash. It
// returns the folder the message was moved to.
type Trasher interface {
	MoveToTrash(ctx context.Context, id, folder string) (string, error)
}
