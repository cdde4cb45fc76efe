package gmail

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/teemow/mailmcp/internal/instrumentation"
	"github.com/teemow/mailmcp/internal/logging"
	"github.com/teemow/mailmcp/internal/mailbody"
	"github.com/teemow/mailmcp/internal/mailbox"
)

// me is the special Gmail user id for the authenticated user.
const me = "me"

// Headers requested for message listings.
var summaryHeaders = []string{"Subject", "From", "Date"}

// Client wraps the Gmail Users service.
type Client struct {
	svc     *gmail.UsersService
	logger  *slog.Logger
	metrics *instrumentation.Metrics
}

var _ mailbox.Mailbox = (*Client)(nil)

// NewClient creates a Gmail client. opts must provide authentication,
// usually option.WithHTTPClient with an OAuth2 client. metrics may be nil.
func NewClient(ctx context.Context, logger *slog.Logger, metrics *instrumentation.Metrics, opts ...option.ClientOption) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}

	svc, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}

	return &Client{
		svc:     svc.Users,
		logger:  logging.WithProvider(logger, mailbox.ProviderGmail),
		metrics: metrics,
	}, nil
}

// Provider implements mailbox.Mailbox.
func (c *Client) Provider() string {
	return mailbox.ProviderGmail
}

// Address returns the email address of the authenticated account.
func (c *Client) Address(ctx context.Context) (string, error) {
	profile, err := c.svc.GetProfile(me).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to get profile: %w", err)
	}
	return profile.EmailAddress, nil
}

// List returns summaries of the messages matching opts.Query, newest first.
// opts.Folder is ignored; use "in:" or "label:" in the query instead.
func (c *Client) List(ctx context.Context, opts mailbox.ListOptions) (summaries []mailbox.Summary, err error) {
	opts = opts.Normalize()
	ctx, done := instrumentation.ObserveMailOperation(ctx, c.metrics, mailbox.ProviderGmail, instrumentation.OperationList)
	defer func() { done(err) }()

	refs, err := c.listMessageRefs(ctx, opts.Query, int64(opts.MaxResults))
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	summaries = make([]mailbox.Summary, 0, len(refs))
	for _, ref := range refs {
		msg, err := c.svc.Messages.Get(me, ref.Id).
			Format("metadata").
			MetadataHeaders(summaryHeaders...).
			Context(ctx).
			Do()
		if err != nil {
			return nil, fmt.Errorf("failed to get message %s: %w", ref.Id, err)
		}
		summaries = append(summaries, mailbox.Summary{
			ID:       msg.Id,
			ThreadID: msg.ThreadId,
			Snippet:  msg.Snippet,
			Subject:  HeaderValue(msg.Payload, "Subject"),
			From:     HeaderValue(msg.Payload, "From"),
			Date:     HeaderValue(msg.Payload, "Date"),
		})
	}

	c.logger.DebugContext(ctx, "listed messages", logging.Operation(instrumentation.OperationList), slog.Int("count", len(summaries)))
	return summaries, nil
}

// listMessageRefs pages through Messages.List until maxResults ids are
// collected or the result set is exhausted.
func (c *Client) listMessageRefs(ctx context.Context, q string, maxResults int64) ([]*gmail.Message, error) {
	var refs []*gmail.Message
	pageToken := ""

	for {
		remaining := maxResults - int64(len(refs))
		if remaining <= 0 {
			break
		}

		pageSize := remaining
		if pageSize > mailbox.MaxMaxResults {
			pageSize = mailbox.MaxMaxResults
		}

		req := c.svc.Messages.List(me).Q(q).MaxResults(pageSize).Context(ctx)
		if pageToken != "" {
			req = req.PageToken(pageToken)
		}

		res, err := req.Do()
		if err != nil {
			return nil, err
		}

		refs = append(refs, res.Messages...)

		if res.NextPageToken == "" {
			break
		}
		pageToken = res.NextPageToken
	}

	if int64(len(refs)) > maxResults {
		refs = refs[:maxResults]
	}
	return refs, nil
}

// Get fetches one message in full format. folder is ignored.
func (c *Client) Get(ctx context.Context, id, _ string) (message *mailbox.Message, err error) {
	ctx, done := instrumentation.ObserveMailOperation(ctx, c.metrics, mailbox.ProviderGmail, instrumentation.OperationGet,
		instrumentation.NewSpanAttributeBuilder().WithMessageID(id).Build()...)
	defer func() { done(err) }()

	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("message id is required")
	}

	msg, err := c.svc.Messages.Get(me, id).Format("full").Context(ctx).Do()
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %s", mailbox.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get message %s: %w", id, err)
	}

	return &mailbox.Message{
		ID:          msg.Id,
		ThreadID:    msg.ThreadId,
		Subject:     HeaderValue(msg.Payload, "Subject"),
		From:        HeaderValue(msg.Payload, "From"),
		To:          HeaderValue(msg.Payload, "To"),
		Cc:          HeaderValue(msg.Payload, "Cc"),
		Date:        HeaderValue(msg.Payload, "Date"),
		Body:        mailbody.ExtractBody(NewPart(msg.Payload)),
		Attachments: Attachments(msg.Payload),
	}, nil
}

// Send composes msg as RFC 5322 and submits it through Messages.Send.
// Bcc recipients are kept in the raw message; Gmail strips the header on
// delivery.
func (c *Client) Send(ctx context.Context, msg *mailbox.Outgoing) (result *mailbox.SendResult, err error) {
	ctx, done := instrumentation.ObserveMailOperation(ctx, c.metrics, mailbox.ProviderGmail, instrumentation.OperationSend)
	defer func() { done(err) }()

	if msg == nil {
		return nil, fmt.Errorf("message is required")
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}

	raw, err := mailbox.Compose(msg, mailbox.ComposeOptions{IncludeBcc: true})
	if err != nil {
		return nil, err
	}

	sent, err := c.svc.Messages.Send(me, &gmail.Message{
		Raw: base64.URLEncoding.EncodeToString(raw),
	}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to send email: %w", err)
	}

	c.logger.InfoContext(ctx, "email sent",
		logging.Operation(instrumentation.OperationSend),
		logging.Recipients(msg.Recipients()),
		slog.String("message_id", sent.Id))

	return &mailbox.SendResult{ID: sent.Id, ThreadID: sent.ThreadId}, nil
}

// HeaderValue returns the first header of part named header, compared
// case-insensitively, or "".
func HeaderValue(part *gmail.MessagePart, header string) string {
	if part == nil {
		return ""
	}
	for _, h := range part.Headers {
		if strings.EqualFold(h.Name, header) {
			return h.Value
		}
	}
	return ""
}

func isNotFound(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound
}
