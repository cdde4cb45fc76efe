// Package prompts registers the MCP prompts that guide a client through
// common email workflows using the email tools.
package prompts

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

const defaultTone = "professional"

// RegisterPrompts adds all prompts to s.
func RegisterPrompts(s *mcpserver.MCPServer) {
	s.AddPrompt(mcp.NewPrompt("summarize_unread",
		mcp.WithPromptDescription("Summarize all unread emails in inbox."),
		mcp.WithArgument("max_emails",
			mcp.ArgumentDescription("Maximum number of unread emails to summarize (default: 10)"),
		),
	), handler("Summarize unread emails", func(args map[string]string) (string, error) {
		maxEmails := 10
		if v := strings.TrimSpace(args["max_emails"]); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 {
				return "", fmt.Errorf("max_emails must be a positive integer, got %q", v)
			}
			maxEmails = n
		}
		return SummarizeUnread(maxEmails), nil
	}))

	s.AddPrompt(mcp.NewPrompt("draft_reply",
		mcp.WithPromptDescription("Draft a reply to a specific email."),
		mcp.WithArgument("message_id",
			mcp.ArgumentDescription("ID of the email to reply to"),
			mcp.RequiredArgument(),
		),
		mcp.WithArgument("tone",
			mcp.ArgumentDescription("Tone of the reply (default: professional)"),
		),
	), handler("Draft a reply", func(args map[string]string) (string, error) {
		id := strings.TrimSpace(args["message_id"])
		if id == "" {
			return "", fmt.Errorf("message_id is required")
		}
		return DraftReply(id, orDefault(args["tone"], defaultTone)), nil
	}))

	s.AddPrompt(mcp.NewPrompt("compose_email",
		mcp.WithPromptDescription("Help compose a new email."),
		mcp.WithArgument("to",
			mcp.ArgumentDescription("Recipient of the email"),
			mcp.RequiredArgument(),
		),
		mcp.WithArgument("purpose",
			mcp.ArgumentDescription("What the email is for"),
			mcp.RequiredArgument(),
		),
		mcp.WithArgument("tone",
			mcp.ArgumentDescription("Tone of the email (default: professional)"),
		),
	), handler("Compose an email", func(args map[string]string) (string, error) {
		to := strings.TrimSpace(args["to"])
		purpose := strings.TrimSpace(args["purpose"])
		if to == "" || purpose == "" {
			return "", fmt.Errorf("to and purpose are required")
		}
		return ComposeEmail(to, purpose, orDefault(args["tone"], defaultTone)), nil
	}))

	s.AddPrompt(mcp.NewPrompt("search_emails",
		mcp.WithPromptDescription("Find emails matching specific criteria."),
		mcp.WithArgument("criteria",
			mcp.ArgumentDescription("What to look for, in plain language"),
			mcp.RequiredArgument(),
		),
	), handler("Search emails", func(args map[string]string) (string, error) {
		criteria := strings.TrimSpace(args["criteria"])
		if criteria == "" {
			return "", fmt.Errorf("criteria is required")
		}
		return SearchEmails(criteria), nil
	}))

	s.AddPrompt(mcp.NewPrompt("daily_digest",
		mcp.WithPromptDescription("Get a daily digest of important emails."),
	), handler("Daily digest", func(map[string]string) (string, error) {
		return DailyDigest(), nil
	}))
}

func handler(description string, render func(map[string]string) (string, error)) mcpserver.PromptHandlerFunc {
	return func(_ context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		text, err := render(request.Params.Arguments)
		if err != nil {
			return nil, err
		}
		return mcp.NewGetPromptResult(description, []mcp.PromptMessage{
			mcp.NewPromptMessage(mcp.RoleUser, mcp.NewTextContent(text)),
		}), nil
	}
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return def
}

// SummarizeUnread returns the summarize_unread instructions.
func SummarizeUnread(maxEmails int) string {
	return fmt.Sprintf(`Use list_emails with query "is:unread" and max_results=%d.
For each email: show sender, subject, 1-line summary, and priority (🔴high/🟡medium/🟢low).
Group by priority and highlight any action items.`, maxEmails)
}

// DraftReply returns the draft_reply instructions.
func DraftReply(messageID, tone string) string {
	return fmt.Sprintf(`Use read_email with message_id "%s" to get the full content.
Draft a %s reply that addresses all points raised and answers any questions.
Show the complete draft with subject line and ask for confirmation before sending.`, messageID, tone)
}

// ComposeEmail returns the compose_email instructions.
func ComposeEmail(to, purpose, tone string) string {
	return fmt.Sprintf(`Compose a %s email to %s for: %s.
Include a clear subject line, proper greeting, concise body, and professional closing.
Show the complete draft and confirm with user before using send_email tool.`, tone, to, purpose)
}

// SearchEmails returns the search_emails instructions.
func SearchEmails(criteria string) string {
	return fmt.Sprintf(`Convert this search request to Gmail query syntax: "%s".
Use list_emails with the query and show results in a table: Date | From | Subject | Preview.
Offer to read any specific email if user wants more details.`, criteria)
}

// DailyDigest returns the daily_digest instructions.
func DailyDigest() string {
	return `Fetch emails using: "is:unread" and "newer_than:1d is:important".
Categorize into: 🔴 Action Required, 📬 Unread, ⭐ Important, 📋 FYI.
Present as a scannable summary with sender, subject, and 1-line preview for each.`
}
