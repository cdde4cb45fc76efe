package mailbody

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// skippedElements hold text that is never rendered.
var skippedElements = map[string]bool{
	"script":   true,
	"style":    true,
	"template": true,
}

// HTMLToText renders an HTML document as plain text by concatenating the
// content of every text node, one node per line. Comments, doctype
// declarations and the content of script, style and template elements are
// dropped. Character references are unescaped.
func HTMLToText(doc string) (string, error) {
	z := html.NewTokenizer(strings.NewReader(doc))

	var (
		segments []string
		skip     int
	)
	for {
		switch z.Next() {
		case html.ErrorToken:
			if err := z.Err(); !errors.Is(err, io.EOF) {
				return "", fmt.Errorf("tokenize html: %w", err)
			}
			return strings.Join(segments, "\n"), nil
		case html.StartTagToken:
			name, _ := z.TagName()
			if skippedElements[string(name)] {
				skip++
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if skippedElements[string(name)] && skip > 0 {
				skip--
			}
		case html.TextToken:
			if skip > 0 {
				continue
			}
			segments = append(segments, string(z.Text()))
		}
	}
}
