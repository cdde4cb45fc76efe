package folders

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// DefaultDelimiter is used when a LIST line carries no recoverable hierarchy
// delimiter.
const DefaultDelimiter = "/"

// Record is one parsed line of an IMAP LIST reply.
type Record struct {
	Name      string `json:"name"`
	Flags     string `json:"flags"`
	Delimiter string `json:"delimiter"`
}

// FlagSet returns the record's flags as a set.
func (r Record) FlagSet() map[string]struct{} {
	set := make(map[string]struct{})
	for _, f := range strings.Fields(r.Flags) {
		set[f] = struct{}{}
	}
	return set
}

// HasFlag reports whether the record carries flag, compared case-insensitively
// as IMAP requires for mailbox attributes.
func (r Record) HasFlag(flag string) bool {
	for _, f := range strings.Fields(r.Flags) {
		if strings.EqualFold(f, flag) {
			return true
		}
	}
	return false
}

// Strategy extracts a Record from one LIST line.
type Strategy struct {
	Name  string
	Parse func(line string) (Record, bool)
}

// Strategies are tried in order by ParseFolderLine; the first one yielding a
// record with a non-empty name wins.
var Strategies = []Strategy{
	{Name: "structured", Parse: parseStructured},
	{Name: "quote-split", Parse: parseQuoteSplit},
}

// ParseFolderLine parses a LIST response line such as
//
//	(\HasNoChildren) "/" "INBOX/Sent"
//
// Raw bytes are accepted as well; invalid UTF-8 is replaced. It returns false
// when no strategy can extract a folder name, in which case callers should
// skip the line.
func ParseFolderLine[T ~string | ~[]byte](line T) (Record, bool) {
	text := toText(string(line))
	for _, s := range Strategies {
		if rec, ok := s.Parse(text); ok && rec.Name != "" {
			return rec, true
		}
	}
	return Record{}, false
}

func toText(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	return strings.ToValidUTF8(s, string(utf8.RuneError))
}

var listLinePattern = regexp.MustCompile(`\((?P<flags>[^)]*)\)\s+(?P<delim>"(?:[^"\\]|\\.)+"|\S+)\s+(?P<name>.+)`)

// unquote undoes quoted-string escaping: \\ and \" stand for \ and ".
var unquote = strings.NewReplacer(`\\`, `\`, `\"`, `"`)

var (
	flagsIndex = listLinePattern.SubexpIndex("flags")
	delimIndex = listLinePattern.SubexpIndex("delim")
	nameIndex  = listLinePattern.SubexpIndex("name")
)

// parseStructured matches the LIST grammar `(<flags>) <delimiter> <name>`.
// The delimiter is either quoted or a bare token such as NIL.
func parseStructured(line string) (Record, bool) {
	m := listLinePattern.FindStringSubmatch(line)
	if m == nil {
		return Record{}, false
	}

	name, _ := stripQuotes(strings.TrimSpace(m[nameIndex]))

	delim, quoted := stripQuotes(m[delimIndex])
	if !quoted {
		delim = strings.ReplaceAll(delim, `"`, "")
	}

	return Record{
		Name:      name,
		Flags:     strings.TrimSpace(m[flagsIndex]),
		Delimiter: delim,
	}, true
}

// stripQuotes removes one pair of surrounding double quotes and unescapes
// the content. Unquoted atoms are returned unchanged.
func stripQuotes(s string) (string, bool) {
	if len(s) < 2 || !strings.HasPrefix(s, `"`) || !strings.HasSuffix(s, `"`) {
		return s, false
	}
	return unquote.Replace(s[1 : len(s)-1]), true
}

// parseQuoteSplit recovers a name from a line that does not follow the LIST
// grammar by splitting on double quotes. The delimiter cannot be recovered.
func parseQuoteSplit(line string) (Record, bool) {
	parts := strings.Split(line, `"`)
	if len(parts) < 2 {
		return Record{}, false
	}

	name := parts[0]
	if len(parts) > 2 {
		name = parts[len(parts)-2]
	}

	return Record{
		Name:      name,
		Flags:     "",
		Delimiter: DefaultDelimiter,
	}, true
}

// ParseFolderLines parses every line and drops those that cannot be parsed.
func ParseFolderLines[T ~string | ~[]byte](lines []T) []Record {
	records := make([]Record, 0, len(lines))
	for _, line := range lines {
		if rec, ok := ParseFolderLine(line); ok {
			records = append(records, rec)
		}
	}
	return records
}
