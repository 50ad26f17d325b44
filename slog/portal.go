// Package slog provides logging decorators for oadigest services.
package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/oadigest"
)

// Ensure LoggingPortal implements oadigest.Portal.
var _ oadigest.Portal = (*LoggingPortal)(nil)

// LoggingPortal wraps a Portal with request logging.
type LoggingPortal struct {
	next   oadigest.Portal
	logger *slog.Logger
}

// NewLoggingPortal creates a new LoggingPortal.
func NewLoggingPortal(next oadigest.Portal, logger *slog.Logger) *LoggingPortal {
	return &LoggingPortal{next: next, logger: logger}
}

// FetchListing delegates to the wrapped portal and logs the request.
func (p *LoggingPortal) FetchListing(ctx context.Context, q oadigest.ListingQuery) (html string, err error) {
	defer func(begin time.Time) {
		p.logger.Info("fetch listing",
			"page", q.PageIndex,
			"size", q.PageSize,
			"bytes", len(html),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return p.next.FetchListing(ctx, q)
}

// FetchDetail delegates to the wrapped portal and logs the request.
func (p *LoggingPortal) FetchDetail(ctx context.Context, link string) (html string, err error) {
	defer func(begin time.Time) {
		p.logger.Debug("fetch detail",
			"url", link,
			"bytes", len(html),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return p.next.FetchDetail(ctx, link)
}
