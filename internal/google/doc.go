// Package google handles the OAuth2 credentials used by the Gmail backend.
//
// The OAuth client comes from a credentials.json downloaded from the Google
// Cloud Console. The user token is obtained once with "mailmcp authenticate"
// and stored as JSON in the token file. Refreshed tokens are written back to
// the same file.
package google
