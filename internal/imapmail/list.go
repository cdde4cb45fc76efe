package imapmail

import (
	"context"
	"strings"

	"github.com/emersion/go-imap/v2"

	"github.com/teemow/mailmcp/internal/folders"
)

var quoteName = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// ListLine renders a LIST reply entry the way it appears on the wire, e.g.
//
//	(\HasNoChildren \Sent) "/" "Sent Items"
//
// A missing hierarchy delimiter is written as NIL.
func ListLine(data *imap.ListData) string {
	attrs := make([]string, 0, len(data.Attrs))
	for _, attr := range data.Attrs {
		attrs = append(attrs, string(attr))
	}

	delim := "NIL"
	if data.Delim != 0 {
		delim = `"` + quoteName.Replace(string(data.Delim)) + `"`
	}

	return "(" + strings.Join(attrs, " ") + ") " + delim + ` "` + quoteName.Replace(data.Mailbox) + `"`
}

// ListLines renders every entry of a LIST reply.
func ListLines(data []*imap.ListData) []string {
	lines := make([]string, 0, len(data))
	for _, d := range data {
		if d != nil {
			lines = append(lines, ListLine(d))
		}
	}
	return lines
}

// sessionLister exposes a session's LIST command as a folders.FolderLister.
func sessionLister(s Session) folders.FolderLister {
	return folders.FolderListerFunc(func(_ context.Context, reference, pattern string) (string, []string, error) {
		data, err := s.List(reference, pattern)
		if err != nil {
			return "NO", nil, err
		}
		return folders.StatusOK, ListLines(data), nil
	})
}
