// Package config loads the server settings from an optional dotenv file and
// the process environment. Environment variables win over the file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// Setting names, as used in the environment and the dotenv file.
const (
	KeyMailProvider         = "MAIL_PROVIDER"
	KeySMTPHost             = "SMTP_HOST"
	KeySMTPPort             = "SMTP_PORT"
	KeyIMAPHost             = "IMAP_HOST"
	KeyIMAPPort             = "IMAP_PORT"
	KeyEmailUser            = "EMAIL_USER"
	KeyEmailPass            = "EMAIL_PASS"
	KeyGmailCredentialsFile = "GMAIL_CREDENTIALS_FILE"
	KeyGmailTokenFile       = "GMAIL_TOKEN_FILE"
	KeyLogLevel             = "LOG_LEVEL"
)

// Defaults.
const (
	DefaultEnvFile              = ".env"
	DefaultMailProvider         = "gmail"
	DefaultSMTPPort             = 465
	DefaultIMAPPort             = 993
	DefaultGmailCredentialsFile = "credentials.json"
	DefaultGmailTokenFile       = "token.json"
	DefaultLogLevel             = "info"
)

// Mail providers.
const (
	ProviderGmail = "gmail"
	ProviderIMAP  = "imap"
)

// ErrMissingSetting is returned by Validate when a required setting is empty.
var ErrMissingSetting = errors.New("missing required setting")

// Config holds the server settings.
type Config struct {
	MailProvider string

	SMTPHost string
	SMTPPort int
	IMAPHost string
	IMAPPort int

	EmailUser string
	EmailPass string

	GmailCredentialsFile string
	GmailTokenFile       string

	LogLevel string
}

// Load reads envFile, if it exists, and the environment. An empty envFile
// reads the environment only.
func Load(envFile string) (*Config, error) {
	v := viper.New()
	v.SetDefault(KeyMailProvider, DefaultMailProvider)
	v.SetDefault(KeySMTPPort, DefaultSMTPPort)
	v.SetDefault(KeyIMAPPort, DefaultIMAPPort)
	v.SetDefault(KeyGmailCredentialsFile, DefaultGmailCredentialsFile)
	v.SetDefault(KeyGmailTokenFile, DefaultGmailTokenFile)
	v.SetDefault(KeyLogLevel, DefaultLogLevel)

	if envFile != "" {
		v.SetConfigFile(envFile)
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil && !isNotExist(err) {
			return nil, fmt.Errorf("reading %s: %w", envFile, err)
		}
	}
	v.AutomaticEnv()

	smtpPort, err := port(v, KeySMTPPort)
	if err != nil {
		return nil, err
	}
	imapPort, err := port(v, KeyIMAPPort)
	if err != nil {
		return nil, err
	}

	return &Config{
		MailProvider:         strings.ToLower(strings.TrimSpace(v.GetString(KeyMailProvider))),
		SMTPHost:             strings.TrimSpace(v.GetString(KeySMTPHost)),
		SMTPPort:             smtpPort,
		IMAPHost:             strings.TrimSpace(v.GetString(KeyIMAPHost)),
		IMAPPort:             imapPort,
		EmailUser:            strings.TrimSpace(v.GetString(KeyEmailUser)),
		EmailPass:            v.GetString(KeyEmailPass),
		GmailCredentialsFile: v.GetString(KeyGmailCredentialsFile),
		GmailTokenFile:       v.GetString(KeyGmailTokenFile),
		LogLevel:             v.GetString(KeyLogLevel),
	}, nil
}

func isNotExist(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return errors.Is(err, fs.ErrNotExist) || errors.As(err, &notFound)
}

func port(v *viper.Viper, key string) (int, error) {
	raw := strings.TrimSpace(v.GetString(key))
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > 65535 {
		return 0, fmt.Errorf("invalid %s %q: must be a port number", key, raw)
	}
	return n, nil
}

// IMAPEnabled reports whether every setting needed for IMAP/SMTP is present.
func (c *Config) IMAPEnabled() bool {
	return c.SMTPHost != "" && c.IMAPHost != "" && c.EmailUser != "" && c.EmailPass != ""
}

// Validate checks the settings required by the selected provider.
func (c *Config) Validate() error {
	switch c.MailProvider {
	case ProviderIMAP:
		var missing []string
		for _, s := range []struct{ key, value string }{
			{KeySMTPHost, c.SMTPHost},
			{KeyIMAPHost, c.IMAPHost},
			{KeyEmailUser, c.EmailUser},
			{KeyEmailPass, c.EmailPass},
		} {
			if s.value == "" {
				missing = append(missing, s.key)
			}
		}
		if len(missing) > 0 {
			return fmt.Errorf("%w: %s", ErrMissingSetting, strings.Join(missing, ", "))
		}
	case ProviderGmail:
		if c.GmailCredentialsFile == "" {
			return fmt.Errorf("%w: %s", ErrMissingSetting, KeyGmailCredentialsFile)
		}
		if c.GmailTokenFile == "" {
			return fmt.Errorf("%w: %s", ErrMissingSetting, KeyGmailTokenFile)
		}
	default:
		return fmt.Errorf("invalid %s %q: must be %q or %q", KeyMailProvider, c.MailProvider, ProviderGmail, ProviderIMAP)
	}
	return nil
}

// SlogLevel parses LogLevel. Unknown values mean info.
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}
