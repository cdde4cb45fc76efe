package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the mailmcp application
var rootCmd = &cobra.Command{
	Use:   "mailmcp",
	Short: "MCP server for reading and sending email",
	Long: `mailmcp is a Model Context Protocol (MCP) server that lets AI assistants
list, read, search and send email.

It talks to either:
  - Gmail, through the Gmail API (run 'mailmcp authenticate' once)
  - any IMAP/SMTP provider, configured through environment variables or a .env file`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "mailmcp version %s\n" .Version}}`)

	// If no subcommand is provided, run the serve command by default
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newAuthenticateCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newGenerateDocsCmd())
}
