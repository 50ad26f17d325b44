// Package crawl provides the crawl-and-enrich orchestration for one target
// date. It coordinates the listing fetch, cutoff filtering, per-item detail
// fetch and summarization, and persistence of the record file.
package crawl

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/fwojciec/oadigest"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Crawler orchestrates a single crawl-and-enrich run.
type Crawler struct {
	Portal     oadigest.Portal
	Extractor  oadigest.ListingExtractor
	Summarizer oadigest.Summarizer
	Records    oadigest.RecordStore

	// Cache is optional. When set, summaries are looked up by article hash
	// before calling the Summarizer and successful ones are stored. It is
	// bypassed while the Summarizer is not configured.
	Cache oadigest.SummaryCache

	// Query selects the listing page. The zero value means
	// oadigest.DefaultListingQuery().
	Query oadigest.ListingQuery

	// Concurrency bounds the number of items enriched at once.
	// Values below 1 mean sequential processing.
	Concurrency int

	Logger *slog.Logger
}

// Outcome identifies the terminal state a run reached.
type Outcome int

const (
	// OutcomeSaved means the record file was written.
	OutcomeSaved Outcome = iota
	// OutcomeNoListing means the listing page could not be fetched.
	OutcomeNoListing
	// OutcomeNoAnnouncements means no row matched the target date.
	OutcomeNoAnnouncements
	// OutcomeSaveFailed means enrichment finished but the record was not written.
	OutcomeSaveFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSaved:
		return "saved"
	case OutcomeNoListing:
		return "no listing"
	case OutcomeNoAnnouncements:
		return "no announcements"
	case OutcomeSaveFailed:
		return "save failed"
	default:
		return "unknown"
	}
}

// Result holds the outcome of a run.
type Result struct {
	Date    string
	RunID   string
	Outcome Outcome

	// Announcements in listing order, each with its summary set.
	Announcements []*oadigest.Announcement

	Summarized   int
	Placeholders int
	Cached       int

	// Err is the cause of OutcomeNoListing or OutcomeSaveFailed.
	Err error
}

// ProgressEvent reports progress during a run.
type ProgressEvent struct {
	Type      ProgressType
	Completed int
	Total     int
	Title     string
	Error     error
}

// ProgressType indicates the type of progress event.
type ProgressType int

const (
	ProgressStarted ProgressType = iota
	ProgressCompleted
	ProgressFailed
	ProgressFinished
)

// ProgressFunc is a callback for reporting run progress.
type ProgressFunc func(event ProgressEvent)

// itemResult holds the outcome of enriching a single announcement.
type itemResult struct {
	position int
	summary  string
	cached   bool
	err      error
}

// Run executes the pipeline for date. Fetch, parse, summarization and
// persistence failures are reported through the Result; the only error
// returned is for an invalid date. The progress callback may be nil.
func (c *Crawler) Run(ctx context.Context, date string, progress ProgressFunc) (*Result, error) {
	if err := oadigest.ValidateDate(date); err != nil {
		return nil, err
	}

	runID := uuid.New().String()
	logger := c.logger().With("run_id", runID, "date", date)
	result := &Result{Date: date, RunID: runID}

	query := c.Query
	if query == (oadigest.ListingQuery{}) {
		query = oadigest.DefaultListingQuery()
	}

	html, err := c.Portal.FetchListing(ctx, query)
	if err != nil {
		logger.Warn("listing unavailable", "err", err)
		result.Outcome = OutcomeNoListing
		result.Err = err
		return result, nil
	}

	items, err := c.Extractor.ExtractListing(html, date)
	if err != nil {
		logger.Warn("listing unreadable", "err", err)
		items = nil
	}
	if len(items) == 0 {
		logger.Info("no announcements for date")
		result.Outcome = OutcomeNoAnnouncements
		return result, nil
	}
	logger.Info("announcements found", "count", len(items))

	cache := c.Cache
	if cache != nil && !c.Summarizer.Configured() {
		logger.Info("summarizer not configured, summary cache bypassed")
		cache = nil
	}

	results := c.enrich(ctx, logger, cache, items, progress)
	for _, r := range results {
		items[r.position].Summary = r.summary
		switch {
		case r.cached:
			result.Cached++
		case oadigest.IsPlaceholder(r.summary):
			result.Placeholders++
		default:
			result.Summarized++
		}
	}
	result.Announcements = items

	if err := c.Records.Save(ctx, date, items); err != nil {
		logger.Error("record not saved", "err", err)
		result.Outcome = OutcomeSaveFailed
		result.Err = err
		return result, nil
	}

	logger.Info("run finished",
		"summarized", result.Summarized,
		"placeholders", result.Placeholders,
		"cached", result.Cached,
	)
	result.Outcome = OutcomeSaved
	return result, nil
}

// enrich processes every item and returns the results indexed by position.
func (c *Crawler) enrich(ctx context.Context, logger *slog.Logger, cache oadigest.SummaryCache, items []*oadigest.Announcement, progress ProgressFunc) []itemResult {
	concurrency := c.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}

	resultCh := make(chan itemResult, len(items))
	var completed atomic.Int64
	total := len(items)

	if progress != nil {
		progress(ProgressEvent{Type: ProgressStarted, Total: total})
	}

	// Item failures are carried in itemResult, so the group never cancels.
	var g errgroup.Group
	g.SetLimit(concurrency)

	go func() {
		for i, item := range items {
			g.Go(func() error {
				resultCh <- c.processItem(ctx, logger, cache, i, item)
				return nil
			})
		}
		_ = g.Wait()
		close(resultCh)
	}()

	results := make([]itemResult, len(items))
	for r := range resultCh {
		n := int(completed.Add(1))
		results[r.position] = r

		if progress == nil {
			continue
		}
		event := ProgressEvent{
			Type:      ProgressCompleted,
			Completed: n,
			Total:     total,
			Title:     items[r.position].Title,
		}
		if r.err != nil {
			event.Type = ProgressFailed
			event.Error = r.err
		}
		progress(event)
	}

	if progress != nil {
		progress(ProgressEvent{Type: ProgressFinished, Completed: total, Total: total})
	}
	return results
}

// processItem fetches, sanitizes and summarizes a single announcement.
// A nil cache disables lookups and stores.
func (c *Crawler) processItem(ctx context.Context, logger *slog.Logger, cache oadigest.SummaryCache, position int, item *oadigest.Announcement) itemResult {
	result := itemResult{position: position}

	html, err := c.Portal.FetchDetail(ctx, item.Link)
	if err != nil {
		logger.Warn("detail unavailable", "url", item.Link, "err", err)
		result.summary = oadigest.PlaceholderDetailFailed
		result.err = err
		return result
	}

	article := oadigest.SanitizeText(html)

	var key string
	if cache != nil {
		key = ArticleKey(article)
		if summary, err := cache.FindSummary(ctx, key); err == nil {
			result.summary = summary
			result.cached = true
			return result
		} else if oadigest.ErrorCode(err) != oadigest.ENOTFOUND {
			logger.Warn("summary cache lookup failed", "key", key, "err", err)
		}
	}

	summary, err := c.Summarizer.Summarize(ctx, article)
	if err != nil {
		if summary == "" {
			summary = oadigest.Placeholder(err)
		}
		result.summary = summary
		result.err = err
		return result
	}
	result.summary = summary

	if cache != nil && !oadigest.IsPlaceholder(summary) {
		if err := cache.SaveSummary(ctx, key, summary); err != nil {
			logger.Warn("summary cache write failed", "key", key, "err", err)
		}
	}
	return result
}

func (c *Crawler) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.Logger
}
