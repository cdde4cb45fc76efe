package instrumentation

import "strings"

// Cardinality management helpers for metrics.
// These functions reduce high-cardinality label values to prevent metrics explosion.
//
// Always use these helpers when recording metrics with user identifiers.

// ExtractUserDomain extracts the domain part from an email address.
//
// Example:
//
//	ExtractUserDomain("jane@example.com")  // "example.com"
//	ExtractUserDomain("invalid")           // "unknown"
//	ExtractUserDomain("")                  // "unknown"
func ExtractUserDomain(email string) string {
	if email == "" {
		return "unknown"
	}

	parts := strings.Split(email, "@")
	if len(parts) == 2 && parts[1] != "" {
		return strings.ToLower(parts[1])
	}

	return "unknown"
}

// Operation types for mailbox metrics.
const (
	OperationList    = "list"
	OperationGet     = "get"
	OperationSend    = "send"
	OperationFolders = "folders"
	OperationTrash   = "trash"
	OperationAppend  = "append"
)

// Reasons a folder resolution fell back to the default candidate.
const (
	FallbackNoMatch    = "no_match"
	FallbackListFailed = "list_failed"
)
