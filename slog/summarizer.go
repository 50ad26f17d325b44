package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/oadigest"
)

// Ensure LoggingSummarizer implements oadigest.Summarizer.
var _ oadigest.Summarizer = (*LoggingSummarizer)(nil)

// LoggingSummarizer wraps a Summarizer with logging. Failures are logged
// at warn level with their error code.
type LoggingSummarizer struct {
	next   oadigest.Summarizer
	logger *slog.Logger
}

// NewLoggingSummarizer creates a new LoggingSummarizer.
func NewLoggingSummarizer(next oadigest.Summarizer, logger *slog.Logger) *LoggingSummarizer {
	return &LoggingSummarizer{next: next, logger: logger}
}

// Summarize delegates to the wrapped summarizer and logs the call.
func (s *LoggingSummarizer) Summarize(ctx context.Context, article string) (summary string, err error) {
	defer func(begin time.Time) {
		if err != nil {
			s.logger.Warn("summarize",
				"chars", len([]rune(article)),
				"code", oadigest.ErrorCode(err),
				"duration", time.Since(begin),
				"err", err,
			)
			return
		}
		s.logger.Debug("summarize",
			"chars", len([]rune(article)),
			"summary_chars", len([]rune(summary)),
			"duration", time.Since(begin),
		)
	}(time.Now())
	return s.next.Summarize(ctx, article)
}

// Configured delegates to the wrapped summarizer.
func (s *LoggingSummarizer) Configured() bool {
	return s.next.Configured()
}
