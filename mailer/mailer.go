// Package mailer delivers rendered campaign messages. Two transports exist:
// an in-process SMTP sender and an out-of-process script delegate. The
// campaign runner only sees the Transport interface.
package mailer

import (
	"context"
	"html"
	"strings"
)

// Message is one rendered outbound email.
type Message struct {
	From           string
	To             string
	Subject        string
	Text           string
	HTML           string
	AttachmentPath string
}

// Transport delivers messages for one campaign. Verify checks the session
// credentials up front; a Verify failure aborts the campaign before any send.
type Transport interface {
	Verify(ctx context.Context) error
	Send(ctx context.Context, msg *Message) error
}

// HTMLVariant converts a plain text body into the rich variant sent alongside
// it: HTML-escaped with line breaks converted to <br> tags.
func HTMLVariant(text string) string {
	if text == "" {
		return ""
	}
	escaped := html.EscapeString(text)
	return strings.ReplaceAll(escaped, "\n", "<br>\n")
}
