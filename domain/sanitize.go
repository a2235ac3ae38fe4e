package domain

import "strings"

var htmlEscaper = strings.NewReplacer(
	`&`, "&amp;",
	`<`, "&lt;",
	`>`, "&gt;",
	`"`, "&quot;",
	`'`, "&#x27;",
)

// Sanitize trims s, drops every backslash and entity-escapes the characters
// that are significant in HTML. The result never contains a raw < > " ' and
// every & in it starts an entity.
func Sanitize(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, `\`, "")
	return htmlEscaper.Replace(s)
}
