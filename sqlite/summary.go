package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/fwojciec/oadigest"
)

// Compile-time interface verification.
var _ oadigest.SummaryCache = (*SummaryCache)(nil)

// SummaryCache implements oadigest.SummaryCache using SQLite.
type SummaryCache struct {
	db *DB
}

// NewSummaryCache creates a new SummaryCache.
func NewSummaryCache(db *DB) *SummaryCache {
	return &SummaryCache{db: db}
}

// FindSummary retrieves the summary stored under key.
func (c *SummaryCache) FindSummary(ctx context.Context, key string) (string, error) {
	var summary string
	err := c.db.QueryRowContext(ctx, "SELECT summary FROM summaries WHERE key = ?", key).Scan(&summary)
	if errors.Is(err, sql.ErrNoRows) {
		return "", oadigest.Errorf(oadigest.ENOTFOUND, "summary not found")
	}
	if err != nil {
		return "", err
	}
	return summary, nil
}

// SaveSummary stores summary under key, replacing any previous value.
func (c *SummaryCache) SaveSummary(ctx context.Context, key, summary string) error {
	if key == "" {
		return oadigest.Errorf(oadigest.EINVALID, "summary key required")
	}
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO summaries (key, summary, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET summary = excluded.summary, created_at = excluded.created_at
	`, key, summary, formatTime(time.Now()))
	return err
}
