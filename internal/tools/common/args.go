package common

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/mailmcp/internal/mailbox"
)

// StringArg returns args[key] trimmed, or "" when absent or not a string.
func StringArg(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return strings.TrimSpace(s)
}

// IntArg returns args[key] as an int. JSON numbers arrive as float64;
// numeric strings are accepted too. Absent or invalid values yield def.
func IntArg(args map[string]any, key string, def int) int {
	switch v := args[key].(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return def
		}
		return int(v)
	case int:
		return v
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return def
}

// AddressListArg splits a comma separated address argument. It returns nil
// when the argument is empty or cannot be parsed.
func AddressListArg(args map[string]any, key string) []string {
	addrs, err := mailbox.SplitAddresses(StringArg(args, key))
	if err != nil {
		return nil
	}
	return addrs
}

// JSONResult returns v as indented JSON text.
func JSONResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// ResultText returns the concatenated text content of a result.
func ResultText(result *mcp.CallToolResult) string {
	if result == nil {
		return ""
	}
	var sb strings.Builder
	for _, c := range result.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			sb.WriteString(tc.Text)
		}
	}
	return sb.String()
}
