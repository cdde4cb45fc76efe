// Package mailbox defines the provider-neutral view of a mailbox that the MCP
// tools operate on.
//
// Two backends implement Mailbox: the Gmail API client (package gmail) and the
// IMAP/SMTP client (package imapmail). Capabilities only one backend has,
// such as browsing folders or moving to Trash, are separate interfaces that
// callers detect with a type assertion:
//
//	if fb, ok := mb.(mailbox.FolderBrowser); ok {
//	    records, err := fb.Folders(ctx)
//	    ...
//	}
//
// Outgoing messages for both backends are rendered by Compose.
package mailbox
