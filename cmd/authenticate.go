package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/rs/xid"
	"github.com/spf13/cobra"

	"github.com/teemow/mailmcp/internal/config"
	"github.com/teemow/mailmcp/internal/google"
)

func newAuthenticateCmd() *cobra.Command {
	var (
		credentialsFile string
		tokenFile       string
		envFile         string
	)

	cmd := &cobra.Command{
		Use:   "authenticate",
		Short: "Authorize Gmail access and store the OAuth token",
		Long: `Run the one-time OAuth consent flow for the Gmail provider.

The command prints a Google consent URL. Open it, grant access, and paste the
authorization code (or the whole URL you were redirected to) back into the
terminal. The resulting token is written to the token file and refreshed
automatically by 'mailmcp serve'.

The credentials file is the OAuth client JSON downloaded from the Google
Cloud console (Desktop app).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(envFile)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("credentials") {
				credentialsFile = cfg.GmailCredentialsFile
			}
			if !cmd.Flags().Changed("token") {
				tokenFile = cfg.GmailTokenFile
			}
			return runAuthenticate(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), credentialsFile, tokenFile)
		},
	}

	cmd.Flags().StringVar(&credentialsFile, "credentials", config.DefaultGmailCredentialsFile, "OAuth client credentials file. Defaults to GMAIL_CREDENTIALS_FILE.")
	cmd.Flags().StringVar(&tokenFile, "token", config.DefaultGmailTokenFile, "File to write the token to. Defaults to GMAIL_TOKEN_FILE.")
	cmd.Flags().StringVar(&envFile, "env-file", config.DefaultEnvFile, "Dotenv file with mail settings. A missing file is ignored.")

	return cmd
}

func runAuthenticate(ctx context.Context, in io.Reader, out io.Writer, credentialsFile, tokenFile string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	conf, err := google.LoadConfig(credentialsFile)
	if err != nil {
		return err
	}

	state := xid.New().String()
	fmt.Fprintf(out, "Open the following URL in your browser and grant access:\n\n  %s\n\n", google.AuthURL(conf, state))
	fmt.Fprint(out, "Paste the authorization code: ")

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to read authorization code: %w", err)
	}
	code, err := parseAuthCode(line, state)
	if err != nil {
		return err
	}

	tok, err := google.Exchange(ctx, conf, code)
	if err != nil {
		return err
	}
	if err := google.SaveToken(tokenFile, tok); err != nil {
		return err
	}

	fmt.Fprintf(out, "\nToken saved to %s\n", tokenFile)
	return nil
}

// parseAuthCode accepts either the bare code or the redirect URL carrying it.
// A state in the URL must match the one sent.
func parseAuthCode(input, state string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", errors.New("no authorization code given")
	}
	if !strings.Contains(input, "code=") {
		return input, nil
	}

	u, err := url.Parse(input)
	if err != nil {
		return "", fmt.Errorf("invalid redirect URL: %w", err)
	}
	q := u.Query()
	if s := q.Get("state"); s != "" && s != state {
		return "", errors.New("state mismatch in redirect URL")
	}
	code := q.Get("code")
	if code == "" {
		return "", errors.New("redirect URL carries no code")
	}
	return code, nil
}
