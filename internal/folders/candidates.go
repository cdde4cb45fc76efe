package folders

// Candidate lists for well-known folders, most specific first.
var (
	SentCandidates = []string{
		"Sent",
		"[Gmail]/Sent Mail",
		"Sent Items",
		"Sent Messages",
		"INBOX.Sent",
		"Sent Mail",
	}

	TrashCandidates = []string{
		"Trash",
		"[Gmail]/Trash",
		"[Gmail]/Bin",
		"Deleted Items",
		"Deleted Messages",
		"INBOX.Trash",
	}

	DraftsCandidates = []string{
		"Drafts",
		"[Gmail]/Drafts",
		"INBOX.Drafts",
		"Draft",
	}

	JunkCandidates = []string{
		"Junk",
		"[Gmail]/Spam",
		"Spam",
		"Junk E-mail",
		"Junk Email",
		"INBOX.Junk",
		"INBOX.Spam",
	}
)

// Candidates returns the candidate list for a well-known folder role
// ("sent", "trash", "drafts" or "junk"), or nil for an unknown role.
func Candidates(role string) []string {
	switch role {
	case "sent":
		return SentCandidates
	case "trash":
		return TrashCandidates
	case "drafts":
		return DraftsCandidates
	case "junk", "spam":
		return JunkCandidates
	default:
		return nil
	}
}
