// Package goquery extracts announcements from OA portal listing pages using
// CSS selectors.
package goquery

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/oadigest"
)

// DefaultOrigin is prepended to the relative detail links found in listing rows.
const DefaultOrigin = "http://oa.stu.edu.cn"

// rowSelector matches listing data rows. The portal has used both class names.
const rowSelector = "tr.datalight, tr.data-highlight"

// Ensure ListingExtractor implements oadigest.ListingExtractor at compile time.
var _ oadigest.ListingExtractor = (*ListingExtractor)(nil)

// ListingExtractor parses the portal's results table.
type ListingExtractor struct {
	origin string
}

// NewListingExtractor creates a ListingExtractor that resolves detail links
// against origin. An empty origin uses DefaultOrigin.
func NewListingExtractor(origin string) *ListingExtractor {
	if origin == "" {
		origin = DefaultOrigin
	}
	return &ListingExtractor{origin: strings.TrimSuffix(origin, "/")}
}

// ExtractListing returns the rows published on targetDate.
//
// Rows newer than targetDate are skipped, matching rows are collected, and the
// scan stops at the first older row. Rows with fewer than three cells or
// without a detail link are ignored.
func (e *ListingExtractor) ExtractListing(html string, targetDate string) ([]*oadigest.Announcement, error) {
	if err := oadigest.ValidateDate(targetDate); err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, oadigest.Errorf(oadigest.EINVALID, "failed to parse HTML: %v", err)
	}

	tbody := doc.Find("tbody").First()
	if tbody.Length() == 0 {
		return nil, nil
	}

	var result []*oadigest.Announcement
	tbody.Find(rowSelector).EachWithBreak(func(_ int, row *goquery.Selection) bool {
		cells := row.Find("td")
		if cells.Length() < 3 {
			return true
		}

		link := cells.Eq(0).Find("a").First()
		if link.Length() == 0 {
			return true
		}

		date := strings.TrimSpace(cells.Eq(2).Text())
		if date > targetDate {
			return true
		}
		if date < targetDate {
			return false
		}

		href := strings.TrimSpace(link.AttrOr("href", ""))
		if href == "" {
			return true
		}
		abs, ok := e.resolve(href)
		if !ok {
			return true
		}

		title := strings.TrimSpace(link.AttrOr("title", ""))
		if title == "" {
			title = strings.TrimSpace(link.Text())
		}

		a := &oadigest.Announcement{
			Title:         title,
			Link:          abs,
			Unit:          strings.TrimSpace(cells.Eq(1).Text()),
			PublishedDate: date,
		}
		if err := a.Validate(); err != nil {
			return true
		}
		result = append(result, a)
		return true
	})

	return result, nil
}

// resolve joins a relative detail path onto the origin. Absolute http(s)
// links are kept as they are.
func (e *ListingExtractor) resolve(href string) (string, bool) {
	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	if ref.IsAbs() {
		if ref.Scheme != "http" && ref.Scheme != "https" {
			return "", false
		}
		return ref.String(), true
	}

	abs := e.origin + href
	if !strings.HasPrefix(href, "/") {
		abs = e.origin + "/" + href
	}
	u, err := url.Parse(abs)
	if err != nil || u.Host == "" {
		return "", false
	}
	return abs, true
}
