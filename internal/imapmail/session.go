package imapmail

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"time"

	retry "github.com/StirlingMarketingGroup/go-retry"
	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	"github.com/rs/xid"

	"github.com/teemow/mailmcp/internal/logging"
)

// ImplicitTLSPort is the IMAPS port. Other ports use STARTTLS.
const ImplicitTLSPort = 993

// DefaultDialRetries is the number of connection attempts of a Dialer.
const DefaultDialRetries = 3

// Session is an authenticated IMAP connection.
type Session interface {
	List(reference, pattern string) ([]*imap.ListData, error)
	Select(mailbox string, readOnly bool) error
	Search(criteria *imap.SearchCriteria) ([]imap.UID, error)
	FetchEnvelopes(uids []imap.UID) ([]*imapclient.FetchMessageBuffer, error)
	// FetchRaw returns the full RFC 5322 message, or nil if uid does not
	// exist in the selected mailbox.
	FetchRaw(uid imap.UID) ([]byte, error)
	Append(mailbox string, flags []imap.Flag, date time.Time, raw []byte) error
	Move(uid imap.UID, mailbox string) error
	Close() error
}

// Dialer opens sessions.
type Dialer interface {
	Dial(ctx context.Context) (Session, error)
}

// ServerDialer dials an IMAP server and logs in with a password.
type ServerDialer struct {
	Host     string
	Port     int
	Username string
	Password string
	// Retries is the number of connection attempts. Zero means
	// DefaultDialRetries.
	Retries   int
	TLSConfig *tls.Config
	Logger    *slog.Logger
}

// Dial implements Dialer. The connection is closed when ctx is done.
func (d *ServerDialer) Dial(ctx context.Context) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("conn_id", xid.New().String()))

	addr := net.JoinHostPort(d.Host, strconv.Itoa(d.Port))
	retries := d.Retries
	if retries <= 0 {
		retries = DefaultDialRetries
	}

	var c *imapclient.Client
	err := retry.Retry(func() error {
		var err error
		c, err = d.dial(addr)
		return err
	}, retries, func(err error) error {
		logger.Warn("imap connect failed, retrying", slog.String("addr", addr), logging.Err(err))
		return nil
	}, func() error {
		return ctx.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to IMAP %s: %w", addr, err)
	}

	if err := c.Login(d.Username, d.Password).Wait(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("imap login failed for %s: %w", logging.AnonymizeEmail(d.Username), err)
	}

	logger.Debug("imap session opened", slog.String("addr", addr))
	return &clientSession{
		c:      c,
		stop:   context.AfterFunc(ctx, func() { _ = c.Close() }),
		logger: logger,
	}, nil
}

func (d *ServerDialer) dial(addr string) (*imapclient.Client, error) {
	opts := &imapclient.Options{TLSConfig: d.TLSConfig}
	if d.Port == ImplicitTLSPort {
		return imapclient.DialTLS(addr, opts)
	}
	return imapclient.DialStartTLS(addr, opts)
}

// clientSession implements Session with go-imap.
type clientSession struct {
	c      *imapclient.Client
	stop   func() bool
	logger *slog.Logger
}

func (s *clientSession) List(reference, pattern string) ([]*imap.ListData, error) {
	return s.c.List(reference, pattern, nil).Collect()
}

func (s *clientSession) Select(mailbox string, readOnly bool) error {
	_, err := s.c.Select(mailbox, &imap.SelectOptions{ReadOnly: readOnly}).Wait()
	return err
}

func (s *clientSession) Search(criteria *imap.SearchCriteria) ([]imap.UID, error) {
	data, err := s.c.UIDSearch(criteria, nil).Wait()
	if err != nil {
		return nil, err
	}
	return data.AllUIDs(), nil
}

func (s *clientSession) FetchEnvelopes(uids []imap.UID) ([]*imapclient.FetchMessageBuffer, error) {
	if len(uids) == 0 {
		return nil, nil
	}
	return s.c.Fetch(imap.UIDSetNum(uids...), &imap.FetchOptions{
		Envelope: true,
		Flags:    true,
		UID:      true,
	}).Collect()
}

func (s *clientSession) FetchRaw(uid imap.UID) ([]byte, error) {
	section := &imap.FetchItemBodySection{Peek: true}
	msgs, err := s.c.Fetch(imap.UIDSetNum(uid), &imap.FetchOptions{
		UID:         true,
		BodySection: []*imap.FetchItemBodySection{section},
	}).Collect()
	if err != nil {
		return nil, err
	}
	if len(msgs) == 0 {
		return nil, nil
	}
	return msgs[0].FindBodySection(section), nil
}

func (s *clientSession) Append(mailbox string, flags []imap.Flag, date time.Time, raw []byte) error {
	cmd := s.c.Append(mailbox, int64(len(raw)), &imap.AppendOptions{Flags: flags, Time: date})
	if _, err := cmd.Write(raw); err != nil {
		_ = cmd.Close()
		return err
	}
	if err := cmd.Close(); err != nil {
		return err
	}
	_, err := cmd.Wait()
	return err
}

func (s *clientSession) Move(uid imap.UID, mailbox string) error {
	_, err := s.c.Move(imap.UIDSetNum(uid), mailbox).Wait()
	return err
}

func (s *clientSession) Close() error {
	s.stop()
	if err := s.c.Logout().Wait(); err != nil {
		s.logger.Debug("imap logout failed", logging.Err(err))
	}
	return s.c.Close()
}
