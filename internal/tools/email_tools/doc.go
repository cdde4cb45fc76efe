// Package email_tools provides the MCP tools for reading and sending mail.
//
// Available tools:
//   - list_emails: List messages matching a search query
//   - read_email: Read one message with its decoded body and attachment names
//   - send_email: Send a plain-text email (disabled in read-only mode)
//   - list_folders: List the IMAP folders of the account (IMAP only)
//   - move_to_trash: Move a message to the Trash folder (IMAP only, disabled in read-only mode)
//
// Every tool works on the backend owned by server.ServerContext, so the same
// tools serve the Gmail API and IMAP/SMTP backends.
package email_tools
