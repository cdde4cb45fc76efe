package email_tools

import (
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/mailmcp/internal/instrumentation"
	"github.com/teemow/mailmcp/internal/mailbox"
	"github.com/teemow/mailmcp/internal/server"
	"github.com/teemow/mailmcp/internal/tools/common"
)

// RegisterEmailTools registers the email tools with the MCP server. Tools
// that change the mailbox are left out when sc is read-only.
func RegisterEmailTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	if s == nil || sc == nil {
		return fmt.Errorf("server and server context are required")
	}

	listEmailsTool := mcp.NewTool("list_emails",
		mcp.WithDescription("List emails matching a search query. Supports Gmail style queries such as 'is:unread', 'from:alice@example.com', 'newer_than:7d', 'subject:invoice' or 'in:Archive'."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("query",
			mcp.Description("Search query (default: all messages)"),
		),
		mcp.WithNumber("max_results",
			mcp.Description(fmt.Sprintf("Maximum number of messages to return (default: %d, max: %d)", mailbox.DefaultMaxResults, mailbox.MaxMaxResults)),
		),
		mcp.WithString("folder",
			mcp.Description("IMAP folder to search (default: INBOX). Ignored by Gmail, use 'in:' or 'label:' in the query instead."),
		),
	)
	s.AddTool(listEmailsTool, common.InstrumentedToolHandler("list_emails", instrumentation.OperationList, sc, listEmailsHandler(sc)))

	readEmailTool := mcp.NewTool("read_email",
		mcp.WithDescription("Read the full content of an email, including the decoded body and the names and sizes of its attachments"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("message_id",
			mcp.Required(),
			mcp.Description("ID of the message, as returned by list_emails"),
		),
		mcp.WithString("folder",
			mcp.Description("IMAP folder containing the message (default: INBOX). Ignored by Gmail."),
		),
	)
	s.AddTool(readEmailTool, common.InstrumentedToolHandler("read_email", instrumentation.OperationGet, sc, readEmailHandler(sc)))

	listFoldersTool := mcp.NewTool("list_folders",
		mcp.WithDescription("List the folders of the mailbox with their flags and hierarchy delimiter (IMAP only)"),
		mcp.WithReadOnlyHintAnnotation(true),
	)
	s.AddTool(listFoldersTool, common.InstrumentedToolHandler("list_folders", instrumentation.OperationFolders, sc, listFoldersHandler(sc)))

	if sc.ReadOnly() {
		return nil
	}

	sendEmailTool := mcp.NewTool("send_email",
		mcp.WithDescription("Send a plain-text email. WARNING: this sends a real email to real recipients. Confirm the recipients, subject and body with the user before calling it."),
		mcp.WithDestructiveHintAnnotation(true),
		mcp.WithString("to",
			mcp.Required(),
			mcp.Description("Recipient address(es), comma separated"),
		),
		mcp.WithString("subject",
			mcp.Required(),
			mcp.Description("Email subject"),
		),
		mcp.WithString("body",
			mcp.Required(),
			mcp.Description("Plain-text email body"),
		),
		mcp.WithString("cc",
			mcp.Description("CC address(es), comma separated"),
		),
		mcp.WithString("bcc",
			mcp.Description("BCC address(es), comma separated"),
		),
	)
	s.AddTool(sendEmailTool, common.InstrumentedToolHandler("send_email", instrumentation.OperationSend, sc, sendEmailHandler(sc)))

	moveToTrashTool := mcp.NewTool("move_to_trash",
		mcp.WithDescription("Move an email to the Trash folder (IMAP only). The Trash folder is detected from the server's folder list."),
		mcp.WithDestructiveHintAnnotation(true),
		mcp.WithString("message_id",
			mcp.Required(),
			mcp.Description("ID of the message, as returned by list_emails"),
		),
		mcp.WithString("folder",
			mcp.Description("Folder containing the message (default: INBOX)"),
		),
	)
	s.AddTool(moveToTrashTool, common.InstrumentedToolHandler("move_to_trash", instrumentation.OperationTrash, sc, moveToTrashHandler(sc)))

	return nil
}
