package imapmail

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	"github.com/rs/xid"

	"github.com/teemow/mailmcp/internal/folders"
	"github.com/teemow/mailmcp/internal/instrumentation"
	"github.com/teemow/mailmcp/internal/logging"
	"github.com/teemow/mailmcp/internal/mailbox"
)

// Folder roles resolved through folders.Candidates.
const (
	RoleSent  = "sent"
	RoleTrash = "trash"
)

// Config holds the server settings of a Client.
type Config struct {
	IMAPHost string
	IMAPPort int
	SMTPHost string
	SMTPPort int
	Username string
	Password string
}

// Client is an IMAP/SMTP mailbox.
type Client struct {
	dialer    Dialer
	submitter Submitter
	from      string
	logger    *slog.Logger
	metrics   *instrumentation.Metrics
	now       func() time.Time
}

var (
	_ mailbox.Mailbox       = (*Client)(nil)
	_ mailbox.FolderBrowser = (*Client)(nil)
	_ mailbox.Trasher       = (*Client)(nil)
)

// NewClient creates a Client. from is the sender address used when an
// outgoing message has none. metrics may be nil.
func NewClient(dialer Dialer, submitter Submitter, from string, logger *slog.Logger, metrics *instrumentation.Metrics) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		dialer:    dialer,
		submitter: submitter,
		from:      from,
		logger:    logging.WithProvider(logger, mailbox.ProviderIMAP),
		metrics:   metrics,
		now:       time.Now,
	}
}

// NewClientFromConfig creates a Client that talks to real servers.
func NewClientFromConfig(cfg Config, logger *slog.Logger, metrics *instrumentation.Metrics) *Client {
	dialer := &ServerDialer{
		Host:     cfg.IMAPHost,
		Port:     cfg.IMAPPort,
		Username: cfg.Username,
		Password: cfg.Password,
		Logger:   logger,
	}
	submitter := &SMTPSubmitter{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.Username,
		Password: cfg.Password,
	}
	return NewClient(dialer, submitter, cfg.Username, logger, metrics)
}

// Provider implements mailbox.Mailbox.
func (c *Client) Provider() string {
	return mailbox.ProviderIMAP
}

// List returns the newest messages of a folder matching opts.Query. An in:
// operator in the query overrides opts.Folder.
func (c *Client) List(ctx context.Context, opts mailbox.ListOptions) (summaries []mailbox.Summary, err error) {
	opts = opts.Normalize()

	query, err := ParseQuery(opts.Query, c.now())
	if err != nil {
		return nil, err
	}
	folder := folderOrDefault(opts.Folder)
	if query.Folder != "" {
		folder = query.Folder
	}

	ctx, done := instrumentation.ObserveMailOperation(ctx, c.metrics, mailbox.ProviderIMAP, instrumentation.OperationList,
		instrumentation.NewSpanAttributeBuilder().WithFolder(folder).Build()...)
	defer func() { done(err) }()

	s, err := c.dialer.Dial(ctx)
	if err != nil {
		return nil, err
	}
	defer c.closeSession(s)

	if err := s.Select(folder, true); err != nil {
		return nil, fmt.Errorf("selecting %s: %w", folder, err)
	}

	uids, err := s.Search(query.Criteria)
	if err != nil {
		return nil, fmt.Errorf("searching %s: %w", folder, err)
	}
	uids = newestUIDs(uids, opts.MaxResults)
	if len(uids) == 0 {
		return []mailbox.Summary{}, nil
	}

	bufs, err := s.FetchEnvelopes(uids)
	if err != nil {
		return nil, fmt.Errorf("fetching envelopes: %w", err)
	}
	slices.SortFunc(bufs, func(a, b *imapclient.FetchMessageBuffer) int {
		return cmp.Compare(b.UID, a.UID)
	})

	summaries = make([]mailbox.Summary, 0, len(bufs))
	for _, buf := range bufs {
		summaries = append(summaries, summaryFromBuffer(buf, folder))
	}

	c.logger.DebugContext(ctx, "listed messages", logging.Folder(folder), slog.Int("count", len(summaries)))
	return summaries, nil
}

// Get fetches and parses one message. id is the message UID in folder.
func (c *Client) Get(ctx context.Context, id, folder string) (msg *mailbox.Message, err error) {
	folder = folderOrDefault(folder)
	ctx, done := instrumentation.ObserveMailOperation(ctx, c.metrics, mailbox.ProviderIMAP, instrumentation.OperationGet,
		instrumentation.NewSpanAttributeBuilder().WithFolder(folder).WithMessageID(id).Build()...)
	defer func() { done(err) }()

	uid, err := parseUID(id)
	if err != nil {
		return nil, err
	}

	s, err := c.dialer.Dial(ctx)
	if err != nil {
		return nil, err
	}
	defer c.closeSession(s)

	if err := s.Select(folder, true); err != nil {
		return nil, fmt.Errorf("selecting %s: %w", folder, err)
	}

	raw, err := s.FetchRaw(uid)
	if err != nil {
		return nil, fmt.Errorf("fetching message %s: %w", id, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: %s in %s", mailbox.ErrNotFound, id, folder)
	}

	msg, err = ParseMessage(raw)
	if err != nil {
		return nil, err
	}
	msg.ID = id
	msg.Folder = folder
	return msg, nil
}

// Send submits msg over SMTP, then stores a copy flagged \Seen in the Sent
// folder. Failing to store the copy is logged and leaves SentFolder empty.
func (c *Client) Send(ctx context.Context, msg *mailbox.Outgoing) (result *mailbox.SendResult, err error) {
	ctx, done := instrumentation.ObserveMailOperation(ctx, c.metrics, mailbox.ProviderIMAP, instrumentation.OperationSend)
	defer func() { done(err) }()

	if msg == nil {
		return nil, fmt.Errorf("message is required")
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}

	out := *msg
	if out.From == "" {
		out.From = c.from
	}
	from, err := mailbox.AddressOnly(out.From)
	if err != nil {
		return nil, fmt.Errorf("invalid sender: %w", err)
	}

	rcpts := make([]string, 0, len(out.Recipients()))
	for _, r := range out.Recipients() {
		addr, err := mailbox.AddressOnly(r)
		if err != nil {
			return nil, err
		}
		rcpts = append(rcpts, addr)
	}

	now := c.now()
	messageID := newMessageID(from)
	raw, err := mailbox.Compose(&out, mailbox.ComposeOptions{Date: now, MessageID: messageID})
	if err != nil {
		return nil, err
	}

	if err := c.submitter.Submit(ctx, from, rcpts, raw); err != nil {
		return nil, fmt.Errorf("failed to send email: %w", err)
	}
	c.logger.InfoContext(ctx, "email sent", logging.Operation(instrumentation.OperationSend), logging.Recipients(rcpts))

	return &mailbox.SendResult{
		ID:         messageID,
		SentFolder: c.storeSentCopy(ctx, raw, now),
	}, nil
}

func (c *Client) storeSentCopy(ctx context.Context, raw []byte, date time.Time) (folder string) {
	var err error
	ctx, done := instrumentation.ObserveMailOperation(ctx, c.metrics, mailbox.ProviderIMAP, instrumentation.OperationAppend)
	defer func() { done(err) }()

	s, err := c.dialer.Dial(ctx)
	if err != nil {
		c.logger.WarnContext(ctx, "could not store sent copy", logging.Err(err))
		return ""
	}
	defer c.closeSession(s)

	folder = c.resolveFolder(ctx, s, RoleSent)
	if err = s.Append(folder, []imap.Flag{imap.FlagSeen}, date, raw); err != nil {
		c.logger.WarnContext(ctx, "could not store sent copy", logging.Folder(folder), logging.Err(err))
		return ""
	}
	return folder
}

// Folders implements mailbox.FolderBrowser.
func (c *Client) Folders(ctx context.Context) (records []folders.Record, err error) {
	ctx, done := instrumentation.ObserveMailOperation(ctx, c.metrics, mailbox.ProviderIMAP, instrumentation.OperationFolders)
	defer func() { done(err) }()

	s, err := c.dialer.Dial(ctx)
	if err != nil {
		return nil, err
	}
	defer c.closeSession(s)

	data, err := s.List("", "*")
	if err != nil {
		return nil, fmt.Errorf("listing folders: %w", err)
	}
	return folders.ParseFolderLines(ListLines(data)), nil
}

// MoveToTrash implements mailbox.Trasher.
func (c *Client) MoveToTrash(ctx context.Context, id, folder string) (trash string, err error) {
	folder = folderOrDefault(folder)
	ctx, done := instrumentation.ObserveMailOperation(ctx, c.metrics, mailbox.ProviderIMAP, instrumentation.OperationTrash,
		instrumentation.NewSpanAttributeBuilder().WithFolder(folder).WithMessageID(id).Build()...)
	defer func() { done(err) }()

	uid, err := parseUID(id)
	if err != nil {
		return "", err
	}

	s, err := c.dialer.Dial(ctx)
	if err != nil {
		return "", err
	}
	defer c.closeSession(s)

	trash = c.resolveFolder(ctx, s, RoleTrash)
	if trash == folder {
		return "", fmt.Errorf("message %s is already in %s", id, trash)
	}

	if err := s.Select(folder, false); err != nil {
		return "", fmt.Errorf("selecting %s: %w", folder, err)
	}

	uids, err := s.Search(&imap.SearchCriteria{UID: []imap.UIDSet{imap.UIDSetNum(uid)}})
	if err != nil {
		return "", fmt.Errorf("searching %s: %w", folder, err)
	}
	if !slices.Contains(uids, uid) {
		return "", fmt.Errorf("%w: %s in %s", mailbox.ErrNotFound, id, folder)
	}

	if err := s.Move(uid, trash); err != nil {
		return "", fmt.Errorf("moving message %s to %s: %w", id, trash, err)
	}

	c.logger.InfoContext(ctx, "moved message to trash", logging.Folder(trash))
	return trash, nil
}

// resolveFolder finds the server's folder for role and records fallbacks.
func (c *Client) resolveFolder(ctx context.Context, s Session, role string) string {
	res := folders.NewResolver(sessionLister(s), c.logger).Find(ctx, folders.Candidates(role)...)
	if res.Fallback() {
		reason := instrumentation.FallbackNoMatch
		if res.Err != nil {
			reason = instrumentation.FallbackListFailed
		}
		c.metrics.RecordFolderFallback(ctx, role, reason)
	}
	return res.Name
}

func (c *Client) closeSession(s Session) {
	if err := s.Close(); err != nil {
		c.logger.Debug("closing imap session", logging.Err(err))
	}
}

func folderOrDefault(folder string) string {
	if strings.TrimSpace(folder) == "" {
		return mailbox.DefaultFolder
	}
	return folder
}

func parseUID(id string) (imap.UID, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(id), 10, 32)
	if err != nil || n == 0 {
		return 0, fmt.Errorf("%w: invalid message id %q", mailbox.ErrNotFound, id)
	}
	return imap.UID(n), nil
}

// newestUIDs returns at most n of the highest UIDs, highest first.
func newestUIDs(uids []imap.UID, n int) []imap.UID {
	sorted := slices.Clone(uids)
	slices.Sort(sorted)
	if len(sorted) > n {
		sorted = sorted[len(sorted)-n:]
	}
	slices.Reverse(sorted)
	return sorted
}

func newMessageID(from string) string {
	domain := "localhost"
	if i := strings.LastIndexByte(from, '@'); i >= 0 && i < len(from)-1 {
		domain = from[i+1:]
	}
	return xid.New().String() + "@" + domain
}
