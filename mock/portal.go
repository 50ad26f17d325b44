package mock

import (
	"context"

	"github.com/fwojciec/oadigest"
)

var _ oadigest.Portal = (*Portal)(nil)

// Portal is a mock implementation of oadigest.Portal.
type Portal struct {
	FetchListingFn func(ctx context.Context, q oadigest.ListingQuery) (string, error)
	FetchDetailFn  func(ctx context.Context, link string) (string, error)
}

func (p *Portal) FetchListing(ctx context.Context, q oadigest.ListingQuery) (string, error) {
	return p.FetchListingFn(ctx, q)
}

func (p *Portal) FetchDetail(ctx context.Context, link string) (string, error) {
	return p.FetchDetailFn(ctx, link)
}

var _ oadigest.ListingExtractor = (*ListingExtractor)(nil)

// ListingExtractor is a mock implementation of oadigest.ListingExtractor.
type ListingExtractor struct {
	ExtractListingFn func(html string, targetDate string) ([]*oadigest.Announcement, error)
}

func (e *ListingExtractor) ExtractListing(html string, targetDate string) ([]*oadigest.Announcement, error) {
	return e.ExtractListingFn(html, targetDate)
}
