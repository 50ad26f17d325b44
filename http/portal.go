// Package http provides the net/http implementation of oadigest.Portal for
// the OA portal's form-posted listing and detail pages.
package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/fwojciec/oadigest"
	"golang.org/x/net/html/charset"
	"golang.org/x/time/rate"
)

// DefaultListingURL is the portal endpoint that serves the announcement listing.
const DefaultListingURL = "http://oa.stu.edu.cn/login/Login.jsp?logintype=1"

// DefaultFetchTimeout bounds each listing and detail request.
const DefaultFetchTimeout = 30 * time.Second

// Ensure Portal implements oadigest.Portal at compile time.
var _ oadigest.Portal = (*Portal)(nil)

// Portal posts the listing form to the OA portal and returns page HTML
// decoded to UTF-8.
type Portal struct {
	client     *http.Client
	listingURL string
	timeout    time.Duration
	limiter    *rate.Limiter
}

// Option configures a Portal.
type Option func(*Portal)

// WithTimeout sets the timeout for each request.
// Defaults to DefaultFetchTimeout (30s) if not specified.
func WithTimeout(d time.Duration) Option {
	return func(p *Portal) {
		p.timeout = d
	}
}

// WithListingURL overrides the listing endpoint.
func WithListingURL(u string) Option {
	return func(p *Portal) {
		p.listingURL = u
	}
}

// WithRateLimit limits requests to rps per second with no bursting.
// A non-positive rps disables limiting.
func WithRateLimit(rps float64) Option {
	return func(p *Portal) {
		if rps <= 0 {
			p.limiter = nil
			return
		}
		p.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// NewPortal creates a new Portal.
func NewPortal(opts ...Option) *Portal {
	p := &Portal{
		listingURL: DefaultListingURL,
		timeout:    DefaultFetchTimeout,
	}
	for _, opt := range opts {
		opt(p)
	}

	p.client = &http.Client{
		Timeout: p.timeout,
	}

	return p
}

// FetchListing posts the pagination form to the listing endpoint.
func (p *Portal) FetchListing(ctx context.Context, q oadigest.ListingQuery) (string, error) {
	return p.post(ctx, p.listingURL, EncodeQuery(q))
}

// FetchDetail posts the default listing form to the detail URL. The portal
// only serves detail pages to requests carrying that payload.
func (p *Portal) FetchDetail(ctx context.Context, link string) (string, error) {
	return p.post(ctx, link, EncodeQuery(oadigest.DefaultListingQuery()))
}

// EncodeQuery returns the form fields the portal expects for q.
func EncodeQuery(q oadigest.ListingQuery) url.Values {
	return url.Values{
		"pageindex": {strconv.Itoa(q.PageIndex)},
		"pagesize":  {strconv.Itoa(q.PageSize)},
		"fwdw":      {q.Department},
	}
}

func (p *Portal) post(ctx context.Context, target string, form url.Values) (string, error) {
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return "", oadigest.TransportError(err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, strings.NewReader(form.Encode()))
	if err != nil {
		return "", oadigest.Errorf(oadigest.EINVALID, "invalid request for %s: %v", target, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", oadigest.TransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", oadigest.Errorf(oadigest.ESTATUS, "HTTP %d for %s", resp.StatusCode, target)
	}

	body, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", target, err)
	}
	b, err := io.ReadAll(body)
	if err != nil {
		return "", oadigest.TransportError(err)
	}

	return string(b), nil
}
