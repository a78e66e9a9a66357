package extract

import (
	"html"
	"strings"
)

// CleanText decodes HTML entities and collapses whitespace runs (newlines,
// tabs, non-breaking spaces) to single spaces, trimming the ends. Every
// piece of text that reaches a record goes through here.
func CleanText(s string) string {
	if s == "" {
		return ""
	}
	return strings.Join(strings.Fields(html.UnescapeString(s)), " ")
}
