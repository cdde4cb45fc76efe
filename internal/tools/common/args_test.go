package common

import (
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringArg(t *testing.T) {
	args := map[string]any{"folder": "  Archive ", "n": 3}
	assert.Equal(t, "Archive", StringArg(args, "folder"))
	assert.Equal(t, "", StringArg(args, "n"))
	assert.Equal(t, "", StringArg(args, "missing"))
	assert.Equal(t, "", StringArg(nil, "folder"))
}

func TestIntArg(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  int
	}{
		{name: "json number", value: float64(25), want: 25},
		{name: "int", value: 7, want: 7},
		{name: "numeric string", value: " 42 ", want: 42},
		{name: "invalid string", value: "ten", want: 10},
		{name: "bool", value: true, want: 10},
		{name: "absent", value: nil, want: 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := map[string]any{}
			if tt.value != nil {
				args["max_results"] = tt.value
			}
			assert.Equal(t, tt.want, IntArg(args, "max_results", 10))
		})
	}
}

func TestAddressListArg(t *testing.T) {
	args := map[string]any{
		"to":  "Jane <jane@example.com>, bob@example.com",
		"cc":  "not an address <",
		"bcc": "",
	}
	assert.Equal(t, []string{`"Jane" <jane@example.com>`, "<bob@example.com>"}, AddressListArg(args, "to"))
	assert.Nil(t, AddressListArg(args, "cc"))
	assert.Nil(t, AddressListArg(args, "bcc"))
	assert.Equal(t, 2, countRecipients(args))
}

func TestJSONResult(t *testing.T) {
	result, err := JSONResult(map[string]string{"id": "42"})
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.Equal(t, "{\n  \"id\": \"42\"\n}", ResultText(result))

	result, err = JSONResult(func() {})
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestResultText(t *testing.T) {
	assert.Equal(t, "", ResultText(nil))
	assert.Equal(t, "boom", ResultText(mcp.NewToolResultError("boom")))
	assert.Equal(t, "ab", ResultText(&mcp.CallToolResult{Content: []mcp.Content{
		mcp.NewTextContent("a"),
		mcp.NewImageContent("data", "image/png"),
		mcp.NewTextContent("b"),
	}}))
}
