package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/oadigest"
)

// Ensure LoggingRecordStore implements oadigest.RecordStore.
var _ oadigest.RecordStore = (*LoggingRecordStore)(nil)

// LoggingRecordStore wraps a RecordStore with logging.
type LoggingRecordStore struct {
	next   oadigest.RecordStore
	logger *slog.Logger
}

// NewLoggingRecordStore creates a new LoggingRecordStore.
func NewLoggingRecordStore(next oadigest.RecordStore, logger *slog.Logger) *LoggingRecordStore {
	return &LoggingRecordStore{next: next, logger: logger}
}

// Save delegates to the wrapped store and logs the write.
func (s *LoggingRecordStore) Save(ctx context.Context, date string, announcements []*oadigest.Announcement) (err error) {
	defer func(begin time.Time) {
		s.logger.Info("save records",
			"date", date,
			"count", len(announcements),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.Save(ctx, date, announcements)
}

// Load delegates to the wrapped store and logs which record was read.
func (s *LoggingRecordStore) Load(ctx context.Context, date string) (loaded string, announcements []*oadigest.Announcement, err error) {
	defer func(begin time.Time) {
		s.logger.Info("load records",
			"date", date,
			"loaded", loaded,
			"count", len(announcements),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.Load(ctx, date)
}
