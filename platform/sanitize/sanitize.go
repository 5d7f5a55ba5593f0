// Package sanitize cleans free text submitted through public forms before it
// is stored and echoed back to staff screens.
package sanitize

import (
	"html"
	"regexp"
	"strings"
)

var (
	tagPattern        = regexp.MustCompile(`<[^>]*>`)
	whitespacePattern = regexp.MustCompile(`[ \t\f\v]+`)
)

// Text strips HTML tags, including entity-encoded ones, and collapses runs of
// horizontal whitespace. Line breaks are kept for multi-line descriptions.
func Text(s string) string {
	result := tagPattern.ReplaceAllString(s, "")
	result = html.UnescapeString(result)
	result = tagPattern.ReplaceAllString(result, "")
	result = whitespacePattern.ReplaceAllString(result, " ")
	return strings.TrimSpace(result)
}

// Optional sanitizes s and returns nil when nothing is left.
func Optional(s string) *string {
	result := Text(s)
	if result == "" {
		return nil
	}
	return &result
}
