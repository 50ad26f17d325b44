package oadigest

import (
	"regexp"
	"strings"
	"unicode"
)

var tagRe = regexp.MustCompile(`(?s)<.*?>`)

// SanitizeText reduces a detail page to the run of visible characters the
// summarizer reads. Everything up to and including the first '}' is dropped
// (the template opens with an inline style block), tags are stripped and all
// whitespace is removed.
func SanitizeText(html string) string {
	if i := strings.IndexByte(html, '}'); i >= 0 {
		html = html[i+1:]
	}
	html = tagRe.ReplaceAllString(html, "")
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, html)
}
