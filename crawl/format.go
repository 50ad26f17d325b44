package crawl

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// ArticleKey returns the summary cache key for sanitized article text.
func ArticleKey(article string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(article))
}

// TruncateTitle shortens a title for progress display, counting runes so
// CJK text is never split mid-character.
func TruncateTitle(title string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	runes := []rune(title)
	if len(runes) <= maxLen {
		return title
	}
	if maxLen < 4 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}
