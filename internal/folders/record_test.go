package folders

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFolderLine(t *testing.T) {
	tests := []struct {
		name   string
		line   string
		want   Record
		wantOK bool
	}{
		{
			name:   "quoted delimiter and name",
			line:   `(\HasNoChildren) "/" "INBOX/Sent"`,
			want:   Record{Name: "INBOX/Sent", Flags: `\HasNoChildren`, Delimiter: "/"},
			wantOK: true,
		},
		{
			name:   "unquoted name",
			line:   `(\HasNoChildren \Trash) "." Trash`,
			want:   Record{Name: "Trash", Flags: `\HasNoChildren \Trash`, Delimiter: "."},
			wantOK: true,
		},
		{
			name:   "NIL delimiter",
			line:   `(\Noselect) NIL "Public"`,
			want:   Record{Name: "Public", Flags: `\Noselect`, Delimiter: "NIL"},
			wantOK: true,
		},
		{
			name:   "gmail folder with space",
			line:   `(\HasNoChildren \Sent) "/" "[Gmail]/Sent Mail"`,
			want:   Record{Name: "[Gmail]/Sent Mail", Flags: `\HasNoChildren \Sent`, Delimiter: "/"},
			wantOK: true,
		},
		{
			name:   "empty flags",
			line:   `() "/" INBOX`,
			want:   Record{Name: "INBOX", Flags: "", Delimiter: "/"},
			wantOK: true,
		},
		{
			name:   "trailing whitespace trimmed",
			line:   `(\HasChildren) "/" "Archive"  `,
			want:   Record{Name: "Archive", Flags: `\HasChildren`, Delimiter: "/"},
			wantOK: true,
		},
		{
			name:   "escaped quotes in name",
			line:   `(\HasNoChildren) "/" "Projects \"Q1\""`,
			want:   Record{Name: `Projects "Q1"`, Flags: `\HasNoChildren`, Delimiter: "/"},
			wantOK: true,
		},
		{
			name:   "escaped backslash delimiter and name",
			line:   `() "\\" "A\\B"`,
			want:   Record{Name: `A\B`, Flags: "", Delimiter: `\`},
			wantOK: true,
		},
		{
			name:   "escaped quote delimiter",
			line:   `() "\"" "Work"`,
			want:   Record{Name: "Work", Flags: "", Delimiter: `"`},
			wantOK: true,
		},
		{
			name:   "garbage falls back to quote split",
			line:   `garbage "Drafts" more garbage`,
			want:   Record{Name: "Drafts", Flags: "", Delimiter: "/"},
			wantOK: true,
		},
		{
			name:   "single quote uses first segment",
			line:   `Outbox"`,
			want:   Record{Name: "Outbox", Flags: "", Delimiter: "/"},
			wantOK: true,
		},
		{
			name:   "no quotes and no grammar",
			line:   `complete nonsense`,
			wantOK: false,
		},
		{
			name:   "empty line",
			line:   ``,
			wantOK: false,
		},
		{
			name:   "empty quoted name is skipped",
			line:   `garbage "" more`,
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseFolderLine(tt.line)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestParseFolderLine_Bytes(t *testing.T) {
	got, ok := ParseFolderLine([]byte(`(\HasNoChildren) "/" "INBOX/Sent"`))
	require.True(t, ok)
	assert.Equal(t, "INBOX/Sent", got.Name)
}

func TestParseFolderLine_InvalidUTF8(t *testing.T) {
	got, ok := ParseFolderLine([]byte("(\\HasNoChildren) \"/\" \"Caf\xe9\""))
	require.True(t, ok)
	assert.Equal(t, "Caf\uFFFD", got.Name)
}

func TestStrategies_Order(t *testing.T) {
	require.Len(t, Strategies, 2)
	assert.Equal(t, "structured", Strategies[0].Name)
	assert.Equal(t, "quote-split", Strategies[1].Name)

	// A well-formed line is understood by both; the structured one keeps
	// the delimiter.
	line := `(\HasNoChildren) "." "INBOX.Sent"`
	structured, ok := Strategies[0].Parse(line)
	require.True(t, ok)
	assert.Equal(t, ".", structured.Delimiter)

	split, ok := Strategies[1].Parse(line)
	require.True(t, ok)
	assert.Equal(t, "INBOX.Sent", split.Name)
	assert.Equal(t, DefaultDelimiter, split.Delimiter)
}

func TestParseFolderLines_SkipsUnparseable(t *testing.T) {
	got := ParseFolderLines([]string{
		`(\HasNoChildren) "/" "INBOX"`,
		`nonsense`,
		`(\HasNoChildren) "/" "Trash"`,
	})
	require.Len(t, got, 2)
	assert.Equal(t, "INBOX", got[0].Name)
	assert.Equal(t, "Trash", got[1].Name)
}

func TestRecord_FlagSet(t *testing.T) {
	rec := Record{Flags: `\HasNoChildren  \Sent`}
	set := rec.FlagSet()
	assert.Len(t, set, 2)
	assert.Contains(t, set, `\HasNoChildren`)
	assert.Contains(t, set, `\Sent`)

	assert.True(t, rec.HasFlag(`\sent`))
	assert.False(t, rec.HasFlag(`\Trash`))
	assert.Empty(t, Record{}.FlagSet())
}
