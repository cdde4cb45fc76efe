package email_tools

import (
	"context"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/mailmcp/internal/mailbox"
	"github.com/teemow/mailmcp/internal/server"
	"github.com/teemow/mailmcp/internal/tools/common"
)

// trashResult is returned by move_to_trash.
type trashResult struct {
	ID   string `json:"id"`
	From string `json:"from"`
	To   string `json:"to"`
}

func mailboxOrError(sc *server.ServerContext) (mailbox.Mailbox, *mcp.CallToolResult) {
	mb, err := sc.Mailbox()
	if err != nil {
		return nil, mcp.NewToolResultError(fmt.Sprintf("Mailbox is not available: %v", err))
	}
	return mb, nil
}

func listEmailsHandler(sc *server.ServerContext) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()

		mb, errResult := mailboxOrError(sc)
		if errResult != nil {
			return errResult, nil
		}

		opts := mailbox.ListOptions{
			Query:      common.StringArg(args, "query"),
			MaxResults: common.IntArg(args, "max_results", mailbox.DefaultMaxResults),
			Folder:     common.StringArg(args, "folder"),
		}

		summaries, err := mb.List(ctx, opts)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to list emails: %v", err)), nil
		}
		if summaries == nil {
			summaries = []mailbox.Summary{}
		}
		return common.JSONResult(summaries)
	}
}

func readEmailHandler(sc *server.ServerContext) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()

		id := common.StringArg(args, "message_id")
		if id == "" {
			return mcp.NewToolResultError("message_id is required"), nil
		}

		mb, errResult := mailboxOrError(sc)
		if errResult != nil {
			return errResult, nil
		}

		msg, err := mb.Get(ctx, id, common.StringArg(args, "folder"))
		if errors.Is(err, mailbox.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("Message %s not found", id)), nil
		}
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to read email: %v", err)), nil
		}
		return common.JSONResult(msg)
	}
}

func sendEmailHandler(sc *server.ServerContext) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if sc.ReadOnly() {
			return mcp.NewToolResultError(mailbox.ErrReadOnly.Error()), nil
		}
		args := request.GetArguments()

		toArg := common.StringArg(args, "to")
		subject := common.StringArg(args, "subject")
		body, _ := args["body"].(string)
		switch {
		case toArg == "":
			return mcp.NewToolResultError("to is required"), nil
		case subject == "":
			return mcp.NewToolResultError("subject is required"), nil
		case body == "":
			return mcp.NewToolResultError("body is required"), nil
		}

		msg := &mailbox.Outgoing{Subject: subject, Body: body}
		var err error
		if msg.To, err = mailbox.SplitAddresses(toArg); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if msg.Cc, err = mailbox.SplitAddresses(common.StringArg(args, "cc")); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if msg.Bcc, err = mailbox.SplitAddresses(common.StringArg(args, "bcc")); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		mb, errResult := mailboxOrError(sc)
		if errResult != nil {
			return errResult, nil
		}

		result, err := mb.Send(ctx, msg)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to send email: %v", err)), nil
		}
		return common.JSONResult(result)
	}
}

func listFoldersHandler(sc *server.ServerContext) common.ToolHandler {
	return func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		mb, errResult := mailboxOrError(sc)
		if errResult != nil {
			return errResult, nil
		}

		browser, ok := mb.(mailbox.FolderBrowser)
		if !ok {
			return mcp.NewToolResultError(fmt.Sprintf("list_folders is not supported by the %s provider", mb.Provider())), nil
		}

		records, err := browser.Folders(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to list folders: %v", err)), nil
		}
		return common.JSONResult(records)
	}
}

func moveToTrashHandler(sc *server.ServerContext) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if sc.ReadOnly() {
			return mcp.NewToolResultError(mailbox.ErrReadOnly.Error()), nil
		}
		args := request.GetArguments()

		id := common.StringArg(args, "message_id")
		if id == "" {
			return mcp.NewToolResultError("message_id is required"), nil
		}
		folder := common.StringArg(args, "folder")
		if folder == "" {
			folder = mailbox.DefaultFolder
		}

		mb, errResult := mailboxOrError(sc)
		if errResult != nil {
			return errResult, nil
		}

		trasher, ok := mb.(mailbox.Trasher)
		if !ok {
			return mcp.NewToolResultError(fmt.Sprintf("move_to_trash is not supported by the %s provider", mb.Provider())), nil
		}

		trash, err := trasher.MoveToTrash(ctx, id, folder)
		if errors.Is(err, mailbox.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("Message %s not found in %s", id, folder)), nil
		}
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to move email to trash: %v", err)), nil
		}
		return common.JSONResult(trashResult{ID: id, From: folder, To: trash})
	}
}
