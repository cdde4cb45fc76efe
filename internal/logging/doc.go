// Package logging holds the slog attribute helpers shared by the mail
// backends and the server.
//
// Addresses never reach the logs in clear text:
//
//	logger.Info("email sent", logging.Recipients(msg.Recipients()))
//
// writes each recipient as a short SHA-256 prefix, which still lets log
// lines for the same address be correlated.
package logging
