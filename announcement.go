package oadigest

import (
	"context"
	"time"
)

// DateLayout is the fixed-width layout used for published and target dates.
// Dates in this layout compare correctly as plain strings.
const DateLayout = "2006-01-02"

// Announcement is a single notice from the portal listing, enriched with a
// summary once its detail page has been processed.
type Announcement struct {
	Title         string `json:"title"`
	Link          string `json:"link"`
	Unit          string `json:"unit"`
	PublishedDate string `json:"published_date"`
	Summary       string `json:"summary"`
}

// Validate returns an error if the announcement contains invalid fields.
func (a *Announcement) Validate() error {
	if a.Title == "" {
		return Errorf(EINVALID, "announcement title required")
	}
	if a.Link == "" {
		return Errorf(EINVALID, "announcement link required")
	}
	if err := ValidateDate(a.PublishedDate); err != nil {
		return err
	}
	return nil
}

// ValidateDate returns EINVALID unless date is a real calendar date in
// YYYY-MM-DD form.
func ValidateDate(date string) error {
	t, err := time.Parse(DateLayout, date)
	if err != nil || t.Format(DateLayout) != date {
		return Errorf(EINVALID, "date %q must be in YYYY-MM-DD format", date)
	}
	return nil
}

// FormatDate formats t as a target date.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ListingQuery holds the pagination parameters sent with a listing request.
type ListingQuery struct {
	PageIndex  int
	PageSize   int
	Department string
}

// DefaultListingQuery returns the query used for a normal run: the first
// page of 50 rows across all departments.
func DefaultListingQuery() ListingQuery {
	return ListingQuery{
		PageIndex:  1,
		PageSize:   50,
		Department: "-1",
	}
}

// Portal retrieves pages from the OA portal.
type Portal interface {
	// FetchListing returns the raw HTML of one listing page.
	FetchListing(ctx context.Context, q ListingQuery) (string, error)

	// FetchDetail returns the raw HTML of an announcement's detail page.
	FetchDetail(ctx context.Context, link string) (string, error)
}

// ListingExtractor turns listing HTML into announcements.
type ListingExtractor interface {
	// ExtractListing returns the announcements published on targetDate.
	// Rows are expected newest first; scanning stops at the first row older
	// than targetDate. The returned order is the page order.
	ExtractListing(html string, targetDate string) ([]*Announcement, error)
}

// RecordStore persists the announcement set for a date.
type RecordStore interface {
	// Save writes announcements as the record for date, replacing any
	// existing record. An empty slice writes nothing.
	Save(ctx context.Context, date string, announcements []*Announcement) error

	// Load reads the record for date. If no record exists for that exact
	// date, the most recently modified record is returned instead, along
	// with its own date. Returns ENOTFOUND if there are no records at all.
	Load(ctx context.Context, date string) (loadedDate string, announcements []*Announcement, err error)
}
