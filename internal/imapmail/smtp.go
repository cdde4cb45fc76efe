package imapmail

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"time"
)

// ImplicitTLSSMTPPort is the SMTPS port. Other ports upgrade with STARTTLS
// when the server offers it.
const ImplicitTLSSMTPPort = 465

const defaultSMTPTimeout = 30 * time.Second

// Submitter hands a composed message to a mail server.
type Submitter interface {
	Submit(ctx context.Context, from string, to []string, msg []byte) error
}

// SMTPSubmitter submits messages over SMTP with PLAIN authentication.
type SMTPSubmitter struct {
	Host     string
	Port     int
	Username string
	Password string
	// TLSConfig overrides the TLS configuration. ServerName defaults to Host.
	TLSConfig *tls.Config
	Timeout   time.Duration
}

// Submit implements Submitter. from and to are bare addresses.
func (s *SMTPSubmitter) Submit(ctx context.Context, from string, to []string, msg []byte) error {
	addr := net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
	conn, err := s.dial(ctx, addr)
	if err != nil {
		return fmt.Errorf("connecting to SMTP %s: %w", addr, err)
	}
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	c, err := smtp.NewClient(conn, s.Host)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer func() { _ = c.Close() }()

	if s.Port != ImplicitTLSSMTPPort {
		if ok, _ := c.Extension("STARTTLS"); ok {
			if err := c.StartTLS(s.tlsConfig()); err != nil {
				return fmt.Errorf("smtp starttls: %w", err)
			}
		}
	}

	if s.Username != "" {
		if ok, _ := c.Extension("AUTH"); ok {
			if err := c.Auth(smtp.PlainAuth("", s.Username, s.Password, s.Host)); err != nil {
				return fmt.Errorf("smtp auth: %w", err)
			}
		}
	}

	if err := c.Mail(from); err != nil {
		return fmt.Errorf("smtp MAIL FROM: %w", err)
	}
	for _, rcpt := range to {
		if err := c.Rcpt(rcpt); err != nil {
			return fmt.Errorf("smtp RCPT TO: %w", err)
		}
	}

	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("smtp DATA: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("smtp DATA: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp DATA: %w", err)
	}

	return c.Quit()
}

func (s *SMTPSubmitter) dial(ctx context.Context, addr string) (net.Conn, error) {
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = defaultSMTPTimeout
	}
	dialer := &net.Dialer{Timeout: timeout}

	var (
		conn net.Conn
		err  error
	)
	if s.Port == ImplicitTLSSMTPPort {
		conn, err = (&tls.Dialer{NetDialer: dialer, Config: s.tlsConfig()}).DialContext(ctx, "tcp", addr)
	} else {
		conn, err = dialer.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return nil, err
	}

	deadline := time.Now().Add(timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = conn.SetDeadline(deadline)
	return conn, nil
}

func (s *SMTPSubmitter) tlsConfig() *tls.Config {
	if s.TLSConfig != nil {
		return s.TLSConfig
	}
	return &tls.Config{ServerName: s.Host, MinVersion: tls.VersionTLS12}
}
