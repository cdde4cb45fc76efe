package logging

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"strings"
)

// Attribute keys.
const (
	KeyOperation  = "operation"
	KeyProvider   = "provider"
	KeyFolder     = "folder"
	KeyRecipients = "recipients"
	KeyUserHash   = "user_hash"
	KeyError      = "error"
)

// WithOperation returns a logger with the operation attribute set.
func WithOperation(logger *slog.Logger, operation string) *slog.Logger {
	return logger.With(Operation(operation))
}

// WithProvider returns a logger with the mail provider attribute set.
func WithProvider(logger *slog.Logger, provider string) *slog.Logger {
	return logger.With(slog.String(KeyProvider, provider))
}

// Operation returns the operation attribute.
func Operation(op string) slog.Attr {
	return slog.String(KeyOperation, op)
}

// Folder returns the mailbox folder attribute.
func Folder(name string) slog.Attr {
	return slog.String(KeyFolder, name)
}

// Recipients returns the recipients attribute with every address anonymized.
func Recipients(addrs []string) slog.Attr {
	hashed := make([]string, 0, len(addrs))
	for _, a := range addrs {
		hashed = append(hashed, AnonymizeEmail(a))
	}
	return slog.Any(KeyRecipients, hashed)
}

// UserHash returns the anonymized mailbox owner.
func UserHash(email string) slog.Attr {
	return slog.String(KeyUserHash, AnonymizeEmail(email))
}

// Err returns the error attribute. A nil error yields an empty group, which
// slog drops from the output.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Group("")
	}
	return slog.String(KeyError, err.Error())
}

// AnonymizeEmail hashes an address for logging. Case and surrounding
// whitespace do not change the result.
func AnonymizeEmail(email string) string {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return ""
	}
	hash := sha256.Sum256([]byte(email))
	return "user:" + hex.EncodeToString(hash[:8])
}
