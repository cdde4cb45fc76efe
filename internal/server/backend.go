package server

import (
	"context"
	"fmt"
	"log/slog"

	"google.golang.org/api/option"

	"github.com/teemow/mailmcp/internal/config"
	"github.com/teemow/mailmcp/internal/gmail"
	"github.com/teemow/mailmcp/internal/google"
	"github.com/teemow/mailmcp/internal/imapmail"
	"github.com/teemow/mailmcp/internal/instrumentation"
	"github.com/teemow/mailmcp/internal/mailbox"
)

// NewMailboxFactory returns a factory for the backend selected by
// cfg.MailProvider.
func NewMailboxFactory(cfg *config.Config, logger *slog.Logger) MailboxFactory {
	return func(ctx context.Context, metrics *instrumentation.Metrics) (mailbox.Mailbox, error) {
		switch cfg.MailProvider {
		case config.ProviderGmail:
			if !google.HasToken(cfg.GmailTokenFile) {
				return nil, fmt.Errorf("no Gmail token at %s, run 'mailmcp authenticate' first", cfg.GmailTokenFile)
			}
			hc, err := google.HTTPClient(ctx, cfg.GmailCredentialsFile, cfg.GmailTokenFile)
			if err != nil {
				return nil, err
			}
			return gmail.NewClient(ctx, logger, metrics, option.WithHTTPClient(hc))
		case config.ProviderIMAP:
			if err := cfg.Validate(); err != nil {
				return nil, err
			}
			return imapmail.NewClientFromConfig(IMAPConfig(cfg), logger, metrics), nil
		default:
			return nil, fmt.Errorf("unknown mail provider %q", cfg.MailProvider)
		}
	}
}

// IMAPConfig maps the server settings onto an imapmail.Config.
func IMAPConfig(cfg *config.Config) imapmail.Config {
	return imapmail.Config{
		IMAPHost: cfg.IMAPHost,
		IMAPPort: cfg.IMAPPort,
		SMTPHost: cfg.SMTPHost,
		SMTPPort: cfg.SMTPPort,
		Username: cfg.EmailUser,
		Password: cfg.EmailPass,
	}
}
