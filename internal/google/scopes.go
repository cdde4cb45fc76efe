package google

import gmail "google.golang.org/api/gmail/v1"

// DefaultOAuthScopes cover reading and sending mail. Modify is needed to move
// messages to Trash.
var DefaultOAuthScopes = []string{
	gmail.GmailReadonlyScope,
	gmail.GmailSendScope,
	gmail.GmailModifyScope,
}
