// Package folders parses IMAP LIST responses and resolves well-known folders.
//
// Servers disagree on what the Sent or Trash folder is called: Gmail uses
// "[Gmail]/Sent Mail", Outlook "Sent Items", Dovecot with a namespace prefix
// "INBOX.Sent". A Resolver lists the server's folders once and picks the
// first name of a preference-ordered candidate list that actually exists.
//
// Resolution never fails. When the listing fails, or no candidate matches,
// the first candidate is returned and the Resolution says why.
package folders
