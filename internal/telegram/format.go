package telegram

import (
	"strings"
	"unicode/utf8"
)

var htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// EscapeHTML escapes the characters Telegram's HTML parse mode treats as markup.
func EscapeHTML(s string) string { return htmlEscaper.Replace(s) }

// Truncate shortens s to at most max runes, marking the cut with an ellipsis.
func Truncate(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max-1]) + "…"
}

// Bold wraps already-escaped text in <b>.
func Bold(escaped string) string { return "<b>" + escaped + "</b>" }

var markupErrors = []string{
	"can't parse entities",
	"unsupported start tag",
	"can't find end tag",
	"unexpected end tag",
	"unclosed start tag",
}

// IsMarkupError reports whether a provider description is a parse_mode rejection.
func IsMarkupError(description string) bool {
	d := strings.ToLower(description)
	for _, m := range markupErrors {
		if strings.Contains(d, m) {
			return true
		}
	}
	return false
}
