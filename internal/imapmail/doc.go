// Package imapmail implements mailbox.Mailbox over IMAP for reading and
// SMTP for sending.
//
// Every operation dials its own IMAP connection and logs out when done, so a
// Client may be shared between goroutines. Folder names that differ between
// servers (Sent, Trash) are looked up with folders.Resolver, which falls back
// to the first candidate name when the server listing does not help.
//
// Search queries use a Gmail-like syntax translated by ParseQuery:
//
//	is:unread from:alice@example.com newer_than:7d "quarterly report"
package imapmail
