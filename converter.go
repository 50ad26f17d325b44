package oadigest

// Converter converts HTML to Markdown.
type Converter interface {
	// Convert transforms rendered digest HTML into Markdown, used as the
	// plain-text alternative of the digest email.
	Convert(html string) (string, error)
}
