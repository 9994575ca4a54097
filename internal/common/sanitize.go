package common

import (
	"regexp"
	"strings"
)

var whitespaceRuns = regexp.MustCompile(`\s+`)

// SanitizeText collapses internal whitespace runs to single spaces and
// trims the result. Empty input stays empty.
func SanitizeText(value string) string {
	return strings.TrimSpace(whitespaceRuns.ReplaceAllString(value, " "))
}

// NormalizeEmail lowercases a trimmed email address. Uniqueness is
// enforced against this normalized form.
func NormalizeEmail(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
