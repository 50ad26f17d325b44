package slog_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/fwojciec/oadigest"
	"github.com/fwojciec/oadigest/mock"
	oaslog "github.com/fwojciec/oadigest/slog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggingSummarizer_Summarize(t *testing.T) {
	t.Parallel()

	t.Run("logs failure code at warn level", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		inner := &mock.Summarizer{
			SummarizeFn: func(ctx context.Context, article string) (string, error) {
				err := oadigest.Errorf(oadigest.ETIMEOUT, "deadline exceeded")
				return oadigest.Placeholder(err), err
			},
		}

		s := oaslog.NewLoggingSummarizer(inner, logger)
		summary, err := s.Summarize(context.Background(), "文章")

		require.Error(t, err)
		assert.Equal(t, oadigest.PlaceholderTimeout, summary)
		output := buf.String()
		assert.Contains(t, output, "level=WARN")
		assert.Contains(t, output, "code=timeout")
		assert.Contains(t, output, "chars=2")
	})

	t.Run("passes through successful summaries", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
		inner := &mock.Summarizer{
			SummarizeFn: func(ctx context.Context, article string) (string, error) {
				return "学校放假", nil
			},
		}

		s := oaslog.NewLoggingSummarizer(inner, logger)
		summary, err := s.Summarize(context.Background(), "文章")

		require.NoError(t, err)
		assert.Equal(t, "学校放假", summary)
		assert.Contains(t, buf.String(), "summary_chars=4")
	})

	t.Run("reports the wrapped summarizer's configuration", func(t *testing.T) {
		t.Parallel()

		inner := &mock.Summarizer{
			ConfiguredFn: func() bool { return false },
		}

		s := oaslog.NewLoggingSummarizer(inner, slog.New(slog.DiscardHandler))

		assert.False(t, s.Configured())
	})
}
