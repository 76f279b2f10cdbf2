// Package normalize cleans user-entered text before it is stored or searched.
package normalize

import (
	"regexp"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"golang.org/x/text/unicode/norm"
)

// htmlTagPattern matches common HTML tags to detect if a string contains HTML.
var htmlTagPattern = regexp.MustCompile(`<(p|br|div|span|b|i|strong|em|a|ul|ol|li|h[1-6]|blockquote)[\s>/]`)

// whitespace matches runs of whitespace, including newlines.
var whitespace = regexp.MustCompile(`\s+`)

// Text trims s, composes it to NFC and collapses internal whitespace runs.
// Composed form matters because titles pasted from different sources spell
// "é" either as one rune or as "e" plus a combining accent.
func Text(s string) string {
	s = norm.NFC.String(strings.TrimSpace(s))
	return whitespace.ReplaceAllString(s, " ")
}

// SearchTerm prepares a free-text query. An empty result means "no search".
func SearchTerm(q string) string {
	return Text(q)
}

// ContainsHTML checks if a string appears to contain HTML markup.
func ContainsHTML(s string) bool {
	return htmlTagPattern.MatchString(strings.ToLower(s))
}

// Summary normalizes a book summary. HTML pasted from publisher pages is
// converted to Markdown; plain text is only trimmed and composed.
func Summary(s string) string {
	s = norm.NFC.String(strings.TrimSpace(s))
	if s == "" || !ContainsHTML(s) {
		return s
	}

	markdown, err := htmltomarkdown.ConvertString(s)
	if err != nil {
		return s
	}
	return strings.TrimSpace(markdown)
}
