package imapmail

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/emersion/go-imap/v2"
)

// ErrInvalidQuery is returned for malformed date operators.
var ErrInvalidQuery = errors.New("invalid search query")

var dateLayouts = []string{"2006/01/02", "2006-01-02", "2006/1/2"}

// headerKeys maps query operators to the header they search.
var headerKeys = map[string]string{
	"from":    "From",
	"to":      "To",
	"cc":      "Cc",
	"bcc":     "Bcc",
	"subject": "Subject",
}

// Query is a parsed search query.
type Query struct {
	Criteria *imap.SearchCriteria
	// Folder is set by an in: operator.
	Folder string
}

type token struct {
	text   string
	quoted bool
}

// ParseQuery translates a Gmail-style query into IMAP search criteria.
// Relative dates are computed from now. Unknown operators and bare words are
// searched as text; an empty query matches every message.
func ParseQuery(q string, now time.Time) (Query, error) {
	query := Query{Criteria: &imap.SearchCriteria{}}
	c := query.Criteria

	for _, tok := range tokenize(q) {
		if tok.quoted {
			c.Text = append(c.Text, tok.text)
			continue
		}

		key, value, ok := strings.Cut(tok.text, ":")
		if !ok || value == "" {
			c.Text = append(c.Text, tok.text)
			continue
		}
		key = strings.ToLower(key)

		if header, ok := headerKeys[key]; ok {
			c.Header = append(c.Header, imap.SearchCriteriaHeaderField{Key: header, Value: value})
			continue
		}

		switch key {
		case "is":
			switch strings.ToLower(value) {
			case "unread":
				c.NotFlag = append(c.NotFlag, imap.FlagSeen)
			case "read":
				c.Flag = append(c.Flag, imap.FlagSeen)
			case "starred", "flagged":
				c.Flag = append(c.Flag, imap.FlagFlagged)
			default:
				c.Text = append(c.Text, tok.text)
			}
		case "newer_than", "older_than":
			t, err := relativeDate(value, now)
			if err != nil {
				return Query{}, err
			}
			if key == "newer_than" {
				c.Since = t
			} else {
				c.Before = t
			}
		case "after", "before":
			t, err := absoluteDate(value, now.Location())
			if err != nil {
				return Query{}, err
			}
			if key == "after" {
				c.Since = t
			} else {
				c.Before = t
			}
		case "in":
			query.Folder = value
		default:
			c.Text = append(c.Text, tok.text)
		}
	}

	return query, nil
}

// tokenize splits on unquoted whitespace. Double quotes group words and are
// removed; a token that starts with a quote is a phrase.
func tokenize(q string) []token {
	var (
		tokens  []token
		cur     strings.Builder
		inQuote bool
		started bool
		quoted  bool
	)
	flush := func() {
		if started && cur.Len() > 0 {
			tokens = append(tokens, token{text: cur.String(), quoted: quoted})
		}
		cur.Reset()
		started, quoted = false, false
	}

	for _, r := range q {
		switch {
		case r == '"':
			if !started {
				quoted = true
			}
			started = true
			inQuote = !inQuote
		case unicode.IsSpace(r) && !inQuote:
			flush()
		default:
			started = true
			cur.WriteRune(r)
		}
	}
	flush()

	return tokens
}

// relativeDate parses Nd, Nw, Nm or Ny.
func relativeDate(value string, now time.Time) (time.Time, error) {
	if len(value) < 2 {
		return time.Time{}, fmt.Errorf("%w: %q is not a relative date", ErrInvalidQuery, value)
	}
	n, err := strconv.Atoi(value[:len(value)-1])
	if err != nil || n < 0 {
		return time.Time{}, fmt.Errorf("%w: %q is not a relative date", ErrInvalidQuery, value)
	}

	switch unicode.ToLower(rune(value[len(value)-1])) {
	case 'd':
		return now.AddDate(0, 0, -n), nil
	case 'w':
		return now.AddDate(0, 0, -7*n), nil
	case 'm':
		return now.AddDate(0, -n, 0), nil
	case 'y':
		return now.AddDate(-n, 0, 0), nil
	}
	return time.Time{}, fmt.Errorf("%w: unknown unit in %q", ErrInvalidQuery, value)
}

func absoluteDate(value string, loc *time.Location) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q is not a date (want YYYY/MM/DD)", ErrInvalidQuery, value)
}
