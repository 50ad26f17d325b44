package crawl_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fwojciec/oadigest"
	"github.com/fwojciec/oadigest/bigmodel"
	"github.com/fwojciec/oadigest/crawl"
	"github.com/fwojciec/oadigest/fs"
	"github.com/fwojciec/oadigest/goquery"
	"github.com/fwojciec/oadigest/mock"
	"github.com/fwojciec/oadigest/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const listingHTML = `<html><body><table><tbody>
<tr class="datalight"><td><a href="/detail?id=3" title="明日讲座">x</a></td><td>图书馆</td><td>2024-01-16</td></tr>
<tr class="datalight"><td><a href="/detail?id=1" title="元旦放假通知">x</a></td><td>校长办公室</td><td>2024-01-15</td></tr>
<tr class="datalight"><td><a href="/detail?id=2" title="闭馆通知">x</a></td><td>图书馆</td><td>2024-01-15</td></tr>
<tr class="datalight"><td><a href="/detail?id=0" title="旧通知">x</a></td><td>教务处</td><td>2024-01-14</td></tr>
</tbody></table></body></html>`

func staticPortal() *mock.Portal {
	return &mock.Portal{
		FetchListingFn: func(_ context.Context, _ oadigest.ListingQuery) (string, error) {
			return listingHTML, nil
		},
		FetchDetailFn: func(_ context.Context, link string) (string, error) {
			return "<style>p{}</style><p>正文 " + link + "</p>", nil
		},
	}
}

func announcements(n int) []*oadigest.Announcement {
	items := make([]*oadigest.Announcement, n)
	for i := range items {
		items[i] = &oadigest.Announcement{
			Title:         string(rune('A' + i)),
			Link:          "http://oa.stu.edu.cn/detail?id=" + string(rune('a'+i)),
			PublishedDate: "2024-01-15",
		}
	}
	return items
}

func noSave(t *testing.T) *mock.RecordStore {
	return &mock.RecordStore{
		SaveFn: func(_ context.Context, _ string, _ []*oadigest.Announcement) error {
			t.Error("Save should not be called")
			return nil
		},
	}
}

// Story: Crawl And Enrich
// A run for a date produces a record file of that date's announcements

func TestCrawler_Run_EndToEnd(t *testing.T) {
	t.Parallel()

	// Given a listing with one newer, two matching and one older row
	dir := t.TempDir()
	var articles []string
	var mu sync.Mutex
	c := &crawl.Crawler{
		Portal:    staticPortal(),
		Extractor: goquery.NewListingExtractor(""),
		Summarizer: &mock.Summarizer{
			SummarizeFn: func(_ context.Context, article string) (string, error) {
				mu.Lock()
				articles = append(articles, article)
				mu.Unlock()
				return "摘要", nil
			},
		},
		Records: fs.NewRecordStore(dir),
	}

	// When I run for the matching date
	result, err := c.Run(context.Background(), "2024-01-15", nil)

	// Then the two matching rows are saved in page order with summaries
	require.NoError(t, err)
	assert.Equal(t, crawl.OutcomeSaved, result.Outcome)
	assert.Equal(t, 2, result.Summarized)
	assert.NotEmpty(t, result.RunID)

	_, saved, err := fs.NewRecordStore(dir).Load(context.Background(), "2024-01-15")
	require.NoError(t, err)
	require.Len(t, saved, 2)
	assert.Equal(t, &oadigest.Announcement{
		Title:         "元旦放假通知",
		Link:          "http://oa.stu.edu.cn/detail?id=1",
		Unit:          "校长办公室",
		PublishedDate: "2024-01-15",
		Summary:       "摘要",
	}, saved[0])
	assert.Equal(t, "闭馆通知", saved[1].Title)

	// And the summarizer saw sanitized article text
	require.Len(t, articles, 2)
	assert.Equal(t, "正文http://oa.stu.edu.cn/detail?id=1", articles[0])
}

func TestCrawler_Run_WithoutCredential(t *testing.T) {
	t.Parallel()

	// Given no API key is configured
	dir := t.TempDir()
	c := &crawl.Crawler{
		Portal:     staticPortal(),
		Extractor:  goquery.NewListingExtractor(""),
		Summarizer: bigmodel.NewSummarizer(),
		Records:    fs.NewRecordStore(dir),
	}

	// When I run
	result, err := c.Run(context.Background(), "2024-01-15", nil)

	// Then the run still succeeds with not-configured summaries
	require.NoError(t, err)
	assert.Equal(t, crawl.OutcomeSaved, result.Outcome)
	assert.Equal(t, 2, result.Placeholders)

	_, saved, err := fs.NewRecordStore(dir).Load(context.Background(), "2024-01-15")
	require.NoError(t, err)
	require.Len(t, saved, 2)
	for _, a := range saved {
		assert.Equal(t, oadigest.PlaceholderNotConfigured, a.Summary)
	}
}

func TestCrawler_Run_RejectsInvalidDate(t *testing.T) {
	t.Parallel()

	c := &crawl.Crawler{
		Portal: &mock.Portal{
			FetchListingFn: func(_ context.Context, _ oadigest.ListingQuery) (string, error) {
				t.Error("FetchListing should not be called")
				return "", nil
			},
		},
	}

	result, err := c.Run(context.Background(), "2024-13-01", nil)

	require.Error(t, err)
	assert.Nil(t, result)
	assert.Equal(t, oadigest.EINVALID, oadigest.ErrorCode(err))
}

// Story: Clean Aborts
// A missing listing or an empty selection ends the run without a file

func TestCrawler_Run_NoListing(t *testing.T) {
	t.Parallel()

	fetchErr := oadigest.Errorf(oadigest.ETIMEOUT, "listing timed out")
	c := &crawl.Crawler{
		Portal: &mock.Portal{
			FetchListingFn: func(_ context.Context, _ oadigest.ListingQuery) (string, error) {
				return "", fetchErr
			},
		},
		Records: noSave(t),
	}

	result, err := c.Run(context.Background(), "2024-01-15", nil)

	require.NoError(t, err)
	assert.Equal(t, crawl.OutcomeNoListing, result.Outcome)
	assert.Equal(t, fetchErr, result.Err)
}

func TestCrawler_Run_NoAnnouncements(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	c := &crawl.Crawler{
		Portal:    staticPortal(),
		Extractor: goquery.NewListingExtractor(""),
		Records:   fs.NewRecordStore(dir),
	}

	result, err := c.Run(context.Background(), "2024-01-10", nil)

	require.NoError(t, err)
	assert.Equal(t, crawl.OutcomeNoAnnouncements, result.Outcome)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCrawler_Run_SaveFailure(t *testing.T) {
	t.Parallel()

	c := &crawl.Crawler{
		Portal:    staticPortal(),
		Extractor: goquery.NewListingExtractor(""),
		Summarizer: &mock.Summarizer{
			SummarizeFn: func(_ context.Context, _ string) (string, error) {
				return "摘要", nil
			},
		},
		Records: &mock.RecordStore{
			SaveFn: func(_ context.Context, _ string, _ []*oadigest.Announcement) error {
				return errors.New("disk full")
			},
		},
	}

	result, err := c.Run(context.Background(), "2024-01-15", nil)

	require.NoError(t, err)
	assert.Equal(t, crawl.OutcomeSaveFailed, result.Outcome)
	assert.EqualError(t, result.Err, "disk full")
	assert.Len(t, result.Announcements, 2)
}

// Story: Per-Item Degradation
// One item's failure becomes a placeholder and never affects the others

func TestCrawler_Run_DetailFailure(t *testing.T) {
	t.Parallel()

	items := announcements(2)
	var summarized atomic.Int32
	var saved []*oadigest.Announcement
	c := &crawl.Crawler{
		Portal: &mock.Portal{
			FetchListingFn: func(_ context.Context, _ oadigest.ListingQuery) (string, error) {
				return "listing", nil
			},
			FetchDetailFn: func(_ context.Context, link string) (string, error) {
				if link == items[0].Link {
					return "", oadigest.Errorf(oadigest.ESTATUS, "HTTP 502")
				}
				return "<p>ok</p>", nil
			},
		},
		Extractor: &mock.ListingExtractor{
			ExtractListingFn: func(_ string, _ string) ([]*oadigest.Announcement, error) {
				return items, nil
			},
		},
		Summarizer: &mock.Summarizer{
			SummarizeFn: func(_ context.Context, _ string) (string, error) {
				summarized.Add(1)
				return "摘要", nil
			},
		},
		Records: &mock.RecordStore{
			SaveFn: func(_ context.Context, _ string, a []*oadigest.Announcement) error {
				saved = a
				return nil
			},
		},
	}

	var events []crawl.ProgressEvent
	result, err := c.Run(context.Background(), "2024-01-15", func(e crawl.ProgressEvent) {
		events = append(events, e)
	})

	require.NoError(t, err)
	assert.Equal(t, crawl.OutcomeSaved, result.Outcome)
	assert.Equal(t, int32(1), summarized.Load())
	require.Len(t, saved, 2)
	assert.Equal(t, oadigest.PlaceholderDetailFailed, saved[0].Summary)
	assert.Equal(t, "摘要", saved[1].Summary)
	assert.Equal(t, 1, result.Placeholders)
	assert.Equal(t, 1, result.Summarized)

	require.Len(t, events, 4)
	assert.Equal(t, crawl.ProgressStarted, events[0].Type)
	assert.Equal(t, crawl.ProgressFailed, events[1].Type)
	assert.Equal(t, "A", events[1].Title)
	assert.Equal(t, crawl.ProgressCompleted, events[2].Type)
	assert.Equal(t, crawl.ProgressFinished, events[3].Type)
}

func TestCrawler_Run_SummarizerFailure(t *testing.T) {
	t.Parallel()

	var saved []*oadigest.Announcement
	c := &crawl.Crawler{
		Portal:    staticPortal(),
		Extractor: goquery.NewListingExtractor(""),
		Summarizer: &mock.Summarizer{
			SummarizeFn: func(_ context.Context, _ string) (string, error) {
				return "", oadigest.Errorf(oadigest.EMALFORMED, "no choices")
			},
		},
		Records: &mock.RecordStore{
			SaveFn: func(_ context.Context, _ string, a []*oadigest.Announcement) error {
				saved = a
				return nil
			},
		},
	}

	_, err := c.Run(context.Background(), "2024-01-15", nil)

	require.NoError(t, err)
	require.Len(t, saved, 2)
	assert.Equal(t, oadigest.PlaceholderMalformed, saved[0].Summary)
}

// Story: Bounded Worker Pool
// Concurrent enrichment keeps listing order

func TestCrawler_Run_ConcurrencyPreservesOrder(t *testing.T) {
	t.Parallel()

	items := announcements(5)
	var inFlight, maxInFlight atomic.Int32
	var saved []*oadigest.Announcement
	c := &crawl.Crawler{
		Portal: &mock.Portal{
			FetchListingFn: func(_ context.Context, _ oadigest.ListingQuery) (string, error) {
				return "listing", nil
			},
			FetchDetailFn: func(_ context.Context, link string) (string, error) {
				n := inFlight.Add(1)
				defer inFlight.Add(-1)
				for {
					m := maxInFlight.Load()
					if n <= m || maxInFlight.CompareAndSwap(m, n) {
						break
					}
				}
				// Earlier items finish last.
				for i, item := range items {
					if item.Link == link {
						time.Sleep(time.Duration(len(items)-i) * 10 * time.Millisecond)
					}
				}
				return link, nil
			},
		},
		Extractor: &mock.ListingExtractor{
			ExtractListingFn: func(_ string, _ string) ([]*oadigest.Announcement, error) {
				return items, nil
			},
		},
		Summarizer: &mock.Summarizer{
			SummarizeFn: func(_ context.Context, article string) (string, error) {
				return "summary of " + article, nil
			},
		},
		Records: &mock.RecordStore{
			SaveFn: func(_ context.Context, _ string, a []*oadigest.Announcement) error {
				saved = a
				return nil
			},
		},
		Concurrency: 3,
	}

	_, err := c.Run(context.Background(), "2024-01-15", nil)

	require.NoError(t, err)
	require.Len(t, saved, 5)
	for i, a := range saved {
		assert.Equal(t, items[i].Title, a.Title)
		assert.Equal(t, "summary of "+oadigest.SanitizeText(items[i].Link), a.Summary)
	}
	assert.LessOrEqual(t, maxInFlight.Load(), int32(3))
	assert.Greater(t, maxInFlight.Load(), int32(1))
}

func TestCrawler_Run_UsesDefaultQuery(t *testing.T) {
	t.Parallel()

	var got oadigest.ListingQuery
	c := &crawl.Crawler{
		Portal: &mock.Portal{
			FetchListingFn: func(_ context.Context, q oadigest.ListingQuery) (string, error) {
				got = q
				return "", errors.New("stop")
			},
		},
	}

	_, err := c.Run(context.Background(), "2024-01-15", nil)

	require.NoError(t, err)
	assert.Equal(t, oadigest.DefaultListingQuery(), got)
}

// Story: Summary Cache
// Known articles reuse their summary, placeholders are never cached

func TestCrawler_Run_SummaryCache(t *testing.T) {
	t.Parallel()

	t.Run("hit skips the summarizer", func(t *testing.T) {
		t.Parallel()

		c := &crawl.Crawler{
			Portal:    staticPortal(),
			Extractor: goquery.NewListingExtractor(""),
			Summarizer: &mock.Summarizer{
				SummarizeFn: func(_ context.Context, _ string) (string, error) {
					t.Error("Summarize should not be called")
					return "", nil
				},
			},
			Cache: &mock.SummaryCache{
				FindSummaryFn: func(_ context.Context, key string) (string, error) {
					return "缓存摘要", nil
				},
			},
			Records: fs.NewRecordStore(t.TempDir()),
		}

		result, err := c.Run(context.Background(), "2024-01-15", nil)

		require.NoError(t, err)
		assert.Equal(t, 2, result.Cached)
		assert.Equal(t, "缓存摘要", result.Announcements[0].Summary)
	})

	t.Run("miss stores successful summaries under the article key", func(t *testing.T) {
		t.Parallel()

		var mu sync.Mutex
		stored := map[string]string{}
		c := &crawl.Crawler{
			Portal:    staticPortal(),
			Extractor: goquery.NewListingExtractor(""),
			Summarizer: &mock.Summarizer{
				SummarizeFn: func(_ context.Context, article string) (string, error) {
					return "摘要" + article, nil
				},
			},
			Cache: &mock.SummaryCache{
				FindSummaryFn: func(_ context.Context, _ string) (string, error) {
					return "", oadigest.Errorf(oadigest.ENOTFOUND, "summary not found")
				},
				SaveSummaryFn: func(_ context.Context, key, summary string) error {
					mu.Lock()
					defer mu.Unlock()
					stored[key] = summary
					return nil
				},
			},
			Records: fs.NewRecordStore(t.TempDir()),
		}

		_, err := c.Run(context.Background(), "2024-01-15", nil)

		require.NoError(t, err)
		article := "正文http://oa.stu.edu.cn/detail?id=1"
		assert.Len(t, stored, 2)
		assert.Equal(t, "摘要"+article, stored[crawl.ArticleKey(article)])
	})

	t.Run("placeholders are not stored", func(t *testing.T) {
		t.Parallel()

		c := &crawl.Crawler{
			Portal:    staticPortal(),
			Extractor: goquery.NewListingExtractor(""),
			Summarizer: &mock.Summarizer{
				SummarizeFn: func(_ context.Context, _ string) (string, error) {
					err := oadigest.Errorf(oadigest.ETIMEOUT, "deadline exceeded")
					return oadigest.Placeholder(err), err
				},
			},
			Cache: &mock.SummaryCache{
				FindSummaryFn: func(_ context.Context, _ string) (string, error) {
					return "", oadigest.Errorf(oadigest.ENOTFOUND, "summary not found")
				},
				SaveSummaryFn: func(_ context.Context, _, _ string) error {
					t.Error("SaveSummary should not be called")
					return nil
				},
			},
			Records: fs.NewRecordStore(filepath.Join(t.TempDir(), "events")),
		}

		result, err := c.Run(context.Background(), "2024-01-15", nil)

		require.NoError(t, err)
		assert.Equal(t, 2, result.Placeholders)
		assert.Equal(t, oadigest.PlaceholderTimeout, result.Announcements[0].Summary)
	})

	t.Run("is bypassed while the summarizer is not configured", func(t *testing.T) {
		t.Parallel()

		c := &crawl.Crawler{
			Portal:    staticPortal(),
			Extractor: goquery.NewListingExtractor(""),
			Summarizer: &mock.Summarizer{
				SummarizeFn: func(_ context.Context, _ string) (string, error) {
					err := oadigest.Errorf(oadigest.ENOTCONFIGURED, "API key not configured")
					return oadigest.Placeholder(err), err
				},
				ConfiguredFn: func() bool { return false },
			},
			Cache: &mock.SummaryCache{
				FindSummaryFn: func(_ context.Context, _ string) (string, error) {
					t.Error("FindSummary should not be called")
					return "缓存摘要", nil
				},
			},
			Records: fs.NewRecordStore(t.TempDir()),
		}

		result, err := c.Run(context.Background(), "2024-01-15", nil)

		require.NoError(t, err)
		assert.Equal(t, 0, result.Cached)
		assert.Equal(t, 2, result.Placeholders)
	})
}

// Story: Missing Credential After A Cached Run
// Dropping the API key yields not-configured placeholders even for articles
// summarized by an earlier run

func TestCrawler_Run_CachedSummaryWithoutCredential(t *testing.T) {
	t.Parallel()

	// Given a summary cache filled by a run with a working model
	db := sqlite.NewDB(":memory:")
	require.NoError(t, db.Open())
	t.Cleanup(func() { db.Close() })
	cache := sqlite.NewSummaryCache(db)
	dir := t.TempDir()

	first := &crawl.Crawler{
		Portal:    staticPortal(),
		Extractor: goquery.NewListingExtractor(""),
		Summarizer: &mock.Summarizer{
			SummarizeFn: func(_ context.Context, _ string) (string, error) {
				return "真摘要", nil
			},
		},
		Records: fs.NewRecordStore(dir),
		Cache:   cache,
	}
	result, err := first.Run(context.Background(), "2024-01-15", nil)
	require.NoError(t, err)
	require.Equal(t, 2, result.Summarized)

	// When the same date is crawled again without an API key
	second := &crawl.Crawler{
		Portal:     staticPortal(),
		Extractor:  goquery.NewListingExtractor(""),
		Summarizer: bigmodel.NewSummarizer(),
		Records:    fs.NewRecordStore(dir),
		Cache:      cache,
	}
	result, err = second.Run(context.Background(), "2024-01-15", nil)

	// Then both records carry the not-configured placeholder
	require.NoError(t, err)
	assert.Equal(t, 0, result.Cached)
	assert.Equal(t, 2, result.Placeholders)

	_, saved, err := fs.NewRecordStore(dir).Load(context.Background(), "2024-01-15")
	require.NoError(t, err)
	require.Len(t, saved, 2)
	for _, a := range saved {
		assert.Equal(t, oadigest.PlaceholderNotConfigured, a.Summary)
	}
}
