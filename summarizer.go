package oadigest

import (
	"context"
	"regexp"
	"strings"
)

// Placeholder summaries. Each one names the reason enrichment failed so the
// digest reader can tell a broken item from a quiet one.
const (
	PlaceholderNotConfigured = "[AI not configured]"
	PlaceholderTimeout       = "[AI request timed out]"
	PlaceholderUnavailable   = "[AI connection failed]"
	PlaceholderStatus        = "[AI service error]"
	PlaceholderMalformed     = "[AI response malformed]"
	PlaceholderParse         = "[AI response unreadable]"
	PlaceholderFailed        = "[AI call failed]"
	PlaceholderEmpty         = "[summary generation failed]"
	PlaceholderDetailFailed  = "[failed to fetch detail]"
)

var placeholders = map[string]string{
	ENOTCONFIGURED: PlaceholderNotConfigured,
	ETIMEOUT:       PlaceholderTimeout,
	EUNAVAILABLE:   PlaceholderUnavailable,
	ESTATUS:        PlaceholderStatus,
	EMALFORMED:     PlaceholderMalformed,
	EPARSE:         PlaceholderParse,
	EEMPTY:         PlaceholderEmpty,
}

// Placeholder returns the placeholder summary for a summarization error.
// Returns "" for a nil error.
func Placeholder(err error) string {
	if err == nil {
		return ""
	}
	if p, ok := placeholders[ErrorCode(err)]; ok {
		return p
	}
	return PlaceholderFailed
}

// IsPlaceholder reports whether summary is one of the placeholder values.
func IsPlaceholder(summary string) bool {
	if summary == PlaceholderFailed || summary == PlaceholderDetailFailed {
		return true
	}
	for _, p := range placeholders {
		if summary == p {
			return true
		}
	}
	return false
}

// Summarizer produces a short summary of an announcement's article text.
type Summarizer interface {
	// Summarize returns a summary of article. On failure the returned
	// summary is the placeholder for the cause and err carries an error
	// code identifying it, so callers can always use the summary.
	Summarize(ctx context.Context, article string) (summary string, err error)

	// Configured reports whether the summarizer has the credentials it
	// needs. An unconfigured summarizer only returns the not-configured
	// placeholder, and callers must not substitute cached summaries for it.
	Configured() bool
}

// SummaryCache remembers summaries by a key derived from the article text.
type SummaryCache interface {
	// FindSummary returns the cached summary for key.
	// Returns ENOTFOUND if nothing is cached.
	FindSummary(ctx context.Context, key string) (string, error)

	// SaveSummary stores summary under key, replacing any previous value.
	SaveSummary(ctx context.Context, key, summary string) error
}

// SummaryInstruction is the system prompt sent with every summarization request.
const SummaryInstruction = "你是一个顶级新闻主编，现在给你一篇文章，请你在不改变原意的情况下" +
	"精准概括出这篇文章的的摘要，简洁明了的讲清楚事件。"

var (
	thinkRe = regexp.MustCompile(`(?s)<think>.*?</think>`)
	leadRe  = regexp.MustCompile(`(?s)^.*?【`)
	asideRe = regexp.MustCompile(`(?s)\(.*?\)`)
)

// CleanSummary strips model artifacts from a raw completion: reasoning
// blocks, any preamble up to and including the first '【', parenthesized
// asides and a leading markdown heading marker.
func CleanSummary(content string) string {
	s := strings.TrimSpace(content)
	s = strings.TrimSpace(thinkRe.ReplaceAllString(s, ""))
	s = strings.TrimSpace(leadRe.ReplaceAllString(s, ""))
	s = strings.TrimSpace(asideRe.ReplaceAllString(s, ""))
	s = strings.TrimLeft(s, "# ")
	return strings.TrimSpace(s)
}
