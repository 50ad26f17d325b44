package slog_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/fwojciec/oadigest"
	"github.com/fwojciec/oadigest/mock"
	oaslog "github.com/fwojciec/oadigest/slog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggingPortal_FetchListing(t *testing.T) {
	t.Parallel()

	t.Run("logs page and bytes", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		inner := &mock.Portal{
			FetchListingFn: func(ctx context.Context, q oadigest.ListingQuery) (string, error) {
				return "<table></table>", nil
			},
		}

		portal := oaslog.NewLoggingPortal(inner, logger)
		html, err := portal.FetchListing(context.Background(), oadigest.DefaultListingQuery())

		require.NoError(t, err)
		assert.Equal(t, "<table></table>", html)
		output := buf.String()
		assert.Contains(t, output, "fetch listing")
		assert.Contains(t, output, "page=1")
		assert.Contains(t, output, "size=50")
		assert.Contains(t, output, "bytes=15")
		assert.Contains(t, output, "duration=")
	})

	t.Run("logs error on failure", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		inner := &mock.Portal{
			FetchListingFn: func(ctx context.Context, q oadigest.ListingQuery) (string, error) {
				return "", errors.New("connection refused")
			},
		}

		portal := oaslog.NewLoggingPortal(inner, logger)
		_, err := portal.FetchListing(context.Background(), oadigest.DefaultListingQuery())

		require.Error(t, err)
		assert.Contains(t, buf.String(), "err=\"connection refused\"")
	})
}

func TestLoggingPortal_FetchDetail(t *testing.T) {
	t.Parallel()

	t.Run("logs at debug level", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
		inner := &mock.Portal{
			FetchDetailFn: func(ctx context.Context, link string) (string, error) {
				return "<p>hi</p>", nil
			},
		}

		portal := oaslog.NewLoggingPortal(inner, logger)
		_, err := portal.FetchDetail(context.Background(), "http://oa.stu.edu.cn/detail?id=1")

		require.NoError(t, err)
		output := buf.String()
		assert.Contains(t, output, "level=DEBUG")
		assert.Contains(t, output, "fetch detail")
		assert.Contains(t, output, "bytes=9")
	})

	t.Run("is silent at info level", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		inner := &mock.Portal{
			FetchDetailFn: func(ctx context.Context, link string) (string, error) {
				return "<p>hi</p>", nil
			},
		}

		portal := oaslog.NewLoggingPortal(inner, logger)
		_, err := portal.FetchDetail(context.Background(), "http://oa.stu.edu.cn/detail?id=1")

		require.NoError(t, err)
		assert.Empty(t, buf.String())
	})
}
