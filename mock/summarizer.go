package mock

import (
	"context"

	"github.com/fwojciec/oadigest"
)

var _ oadigest.Summarizer = (*Summarizer)(nil)

// Summarizer is a mock implementation of oadigest.Summarizer.
type Summarizer struct {
	SummarizeFn  func(ctx context.Context, article string) (string, error)
	ConfiguredFn func() bool
}

func (s *Summarizer) Summarize(ctx context.Context, article string) (string, error) {
	return s.SummarizeFn(ctx, article)
}

// Configured returns true unless ConfiguredFn is set.
func (s *Summarizer) Configured() bool {
	if s.ConfiguredFn == nil {
		return true
	}
	return s.ConfiguredFn()
}

var _ oadigest.SummaryCache = (*SummaryCache)(nil)

// SummaryCache is a mock implementation of oadigest.SummaryCache.
type SummaryCache struct {
	FindSummaryFn func(ctx context.Context, key string) (string, error)
	SaveSummaryFn func(ctx context.Context, key, summary string) error
}

func (c *SummaryCache) FindSummary(ctx context.Context, key string) (string, error) {
	return c.FindSummaryFn(ctx, key)
}

func (c *SummaryCache) SaveSummary(ctx context.Context, key, summary string) error {
	return c.SaveSummaryFn(ctx, key, summary)
}
