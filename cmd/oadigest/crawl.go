package main

import (
	"fmt"
	"io"

	"github.com/fwojciec/oadigest"
	"github.com/fwojciec/oadigest/crawl"
)

// Run executes the crawl command.
func (c *CrawlCmd) Run(deps *Dependencies) error {
	dates := c.Dates
	if len(dates) == 0 {
		dates = []string{oadigest.FormatDate(deps.Now())}
	}
	for _, date := range dates {
		if err := oadigest.ValidateDate(date); err != nil {
			fmt.Fprintf(deps.Stderr, "error: %s\n", oadigest.ErrorMessage(err))
			return err
		}
	}

	var failed int
	for _, date := range dates {
		result, err := crawlDate(deps, date)
		if err != nil {
			return err
		}
		if result.Outcome == crawl.OutcomeSaveFailed {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d record files could not be saved", failed, len(dates))
	}
	return nil
}

// crawlDate runs the crawler for one date and reports the outcome.
func crawlDate(deps *Dependencies, date string) (*crawl.Result, error) {
	result, err := deps.Crawler.Run(deps.Ctx, date, progressPrinter(deps.Stdout, deps.Stderr))
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", oadigest.ErrorMessage(err))
		return nil, err
	}

	switch result.Outcome {
	case crawl.OutcomeSaved:
		fmt.Fprintf(deps.Stdout, "%s: saved %d announcements (%d summarized, %d placeholders, %d cached)\n",
			date, len(result.Announcements), result.Summarized, result.Placeholders, result.Cached)
	case crawl.OutcomeNoListing:
		fmt.Fprintf(deps.Stdout, "%s: listing unavailable: %v\n", date, result.Err)
	case crawl.OutcomeNoAnnouncements:
		fmt.Fprintf(deps.Stdout, "%s: no announcements\n", date)
	case crawl.OutcomeSaveFailed:
		fmt.Fprintf(deps.Stderr, "%s: record not saved: %v\n", date, result.Err)
	}
	return result, nil
}

func progressPrinter(stdout, stderr io.Writer) crawl.ProgressFunc {
	return func(event crawl.ProgressEvent) {
		switch event.Type {
		case crawl.ProgressStarted:
			fmt.Fprintf(stdout, "  Found %d announcements\n", event.Total)
		case crawl.ProgressFailed:
			fmt.Fprintf(stderr, "  [%d/%d] %s: %v\n", event.Completed, event.Total,
				crawl.TruncateTitle(event.Title, 30), event.Error)
		}
	}
}
