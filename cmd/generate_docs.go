package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/spf13/cobra"

	"github.com/teemow/mailmcp/internal/instrumentation"
	"github.com/teemow/mailmcp/internal/mailbox"
	"github.com/teemow/mailmcp/internal/server"
)

// Tool categories.
const (
	categoryRead  = "Read Tools"
	categoryWrite = "Write Tools"
)

func newGenerateDocsCmd() *cobra.Command {
	var outputFile string

	cmd := &cobra.Command{
		Use:   "generate-docs",
		Short: "Generate MCP tool documentation",
		Long: `Render every tool the server can register, write tools included, as
markdown. The output is built from the live tool definitions.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			markdown, err := toolsMarkdown()
			if err != nil {
				return err
			}
			if outputFile == "" {
				_, err = io.WriteString(cmd.OutOrStdout(), markdown)
				return err
			}
			if err := os.WriteFile(outputFile, []byte(markdown), 0o644); err != nil {
				return fmt.Errorf("failed to write output file: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Documentation written to: %s\n", outputFile)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	return cmd
}

// toolsMarkdown registers every tool, write tools included, on a server
// whose backend is never created and renders their documentation.
func toolsMarkdown() (string, error) {
	noBackend := func(context.Context, *instrumentation.Metrics) (mailbox.Mailbox, error) {
		return nil, fmt.Errorf("no backend while generating docs")
	}
	serverContext, err := server.NewServerContext(context.Background(), noBackend)
	if err != nil {
		return "", fmt.Errorf("failed to create server context: %w", err)
	}
	defer func() {
		_ = serverContext.Shutdown()
	}()

	mcpSrv, err := newMCPServer(serverContext)
	if err != nil {
		return "", err
	}

	serverTools := mcpSrv.ListTools()
	tools := make([]mcp.Tool, 0, len(serverTools))
	for _, serverTool := range serverTools {
		tools = append(tools, serverTool.Tool)
	}

	return generateToolsMarkdown(tools), nil
}

// providerNotes documents how the tools differ between backends.
const providerNotes = `## Providers

The same tools serve both mail providers:

- **gmail:** ` + "`folder`" + ` arguments are ignored, use ` + "`in:`" + ` or ` + "`label:`" + ` in the query instead. ` + "`list_folders`" + ` and ` + "`move_to_trash`" + ` are not available.
- **imap:** Gmail style queries are translated to IMAP SEARCH. Message IDs are UIDs and only valid within their folder.
- **--read-only:** write tools are not registered.

`

func generateToolsMarkdown(tools []mcp.Tool) string {
	byCategory := map[string][]mcp.Tool{}
	for _, tool := range tools {
		c := toolCategory(tool)
		byCategory[c] = append(byCategory[c], tool)
	}
	categories := make([]string, 0, len(byCategory))
	for c := range byCategory {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	var sb strings.Builder
	sb.WriteString("# MCP Tools Reference\n\n")
	sb.WriteString("Tools exposed by `mailmcp serve`. Generated from the tool definitions with `mailmcp generate-docs`.\n\n")

	sb.WriteString("## Table of Contents\n\n")
	for _, c := range categories {
		fmt.Fprintf(&sb, "- [%s](#%s)\n", c, strings.ToLower(strings.ReplaceAll(c, " ", "-")))
	}
	sb.WriteString("\n")
	sb.WriteString(providerNotes)

	for _, c := range categories {
		group := byCategory[c]
		sort.Slice(group, func(i, j int) bool { return group[i].Name < group[j].Name })

		fmt.Fprintf(&sb, "## %s\n\n", c)
		for _, tool := range group {
			writeToolMarkdown(&sb, tool)
		}
	}
	return sb.String()
}

func toolCategory(tool mcp.Tool) string {
	if hint := tool.Annotations.ReadOnlyHint; hint != nil && *hint {
		return categoryRead
	}
	return categoryWrite
}

func writeToolMarkdown(sb *strings.Builder, tool mcp.Tool) {
	fmt.Fprintf(sb, "### %s\n\n", tool.Name)
	if tool.Description != "" {
		fmt.Fprintf(sb, "%s\n\n", tool.Description)
	}

	props := tool.InputSchema.Properties
	if len(props) > 0 {
		names := make([]string, 0, len(props))
		for name := range props {
			names = append(names, name)
		}
		sort.Strings(names)

		sb.WriteString("**Arguments:**\n")
		for _, name := range names {
			prop, ok := props[name].(map[string]any)
			if !ok {
				continue
			}
			typ, _ := prop["type"].(string)
			if typ == "" {
				typ = "any"
			}
			required := "optional"
			if slices.Contains(tool.InputSchema.Required, name) {
				required = "required"
			}
			desc, _ := prop["description"].(string)
			if desc == "" {
				desc = typ + " parameter"
			}
			fmt.Fprintf(sb, "- `%s` (%s, %s): %s\n", name, typ, required, desc)
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
}
