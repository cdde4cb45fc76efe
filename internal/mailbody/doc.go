// Package mailbody reduces a MIME message tree to a single readable text body.
//
// The transport layers (Gmail API, IMAP) each decode their wire format into a
// tree of parts and expose it through the Part interface. ExtractBody walks
// that tree, skips attachments, collects text/plain and text/html content and
// returns the HTML rendered as text when any HTML exists, otherwise the plain
// text.
//
// Extraction never fails: undecodable bytes are dropped, and an HTML document
// that cannot be tokenized is returned as-is.
//
// Example usage:
//
//	body := mailbody.ExtractBody(part)
//	if body == "" {
//	    // message has no textual content
//	}
package mailbody
