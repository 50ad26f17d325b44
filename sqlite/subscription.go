package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/fwojciec/oadigest"
	"github.com/google/uuid"
)

// Compile-time interface verification.
var _ oadigest.SubscriptionService = (*SubscriptionService)(nil)

// SubscriptionService implements oadigest.SubscriptionService using SQLite.
type SubscriptionService struct {
	db *DB

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// NewSubscriptionService creates a new SubscriptionService.
func NewSubscriptionService(db *DB) *SubscriptionService {
	return &SubscriptionService{db: db, Now: time.Now}
}

// Subscribe creates a subscription for email ending one period from now,
// or pushes an existing subscription's end to one period from now.
func (s *SubscriptionService) Subscribe(ctx context.Context, email string) (bool, error) {
	if err := oadigest.ValidateEmail(email); err != nil {
		return false, err
	}

	now := s.Now()
	endsAt := now.Add(oadigest.SubscriptionPeriod)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	var id string
	err = tx.QueryRowContext(ctx, "SELECT id FROM subscriptions WHERE email = ?", email).Scan(&id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = tx.ExecContext(ctx, `
			INSERT INTO subscriptions (id, email, created_at, ends_at)
			VALUES (?, ?, ?, ?)
		`, uuid.New().String(), email, formatTime(now), formatTime(endsAt))
		if err != nil {
			return false, err
		}
		return true, tx.Commit()
	case err != nil:
		return false, err
	}

	if _, err := tx.ExecContext(ctx, "UPDATE subscriptions SET ends_at = ? WHERE id = ?",
		formatTime(endsAt), id); err != nil {
		return false, err
	}
	return false, tx.Commit()
}

// FindSubscriptions retrieves subscriptions matching the filter, oldest first.
func (s *SubscriptionService) FindSubscriptions(ctx context.Context, filter oadigest.SubscriptionFilter) ([]*oadigest.Subscription, error) {
	var query strings.Builder
	var args []any

	query.WriteString("SELECT id, email, created_at, ends_at FROM subscriptions WHERE 1=1")

	if filter.Email != nil {
		query.WriteString(" AND email = ?")
		args = append(args, *filter.Email)
	}
	if filter.ActiveAt != nil {
		query.WriteString(" AND ends_at > ?")
		args = append(args, formatTime(*filter.ActiveAt))
	}
	if filter.ExpiringBefore != nil {
		query.WriteString(" AND ends_at <= ?")
		args = append(args, formatTime(*filter.ExpiringBefore))
	}

	query.WriteString(" ORDER BY created_at ASC, email ASC")
	appendPagination(&query, &args, filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []*oadigest.Subscription
	for rows.Next() {
		var sub oadigest.Subscription
		var createdAt, endsAt string

		if err := rows.Scan(&sub.ID, &sub.Email, &createdAt, &endsAt); err != nil {
			return nil, err
		}
		if sub.CreatedAt, err = parseTime(createdAt, "created_at"); err != nil {
			return nil, err
		}
		if sub.EndsAt, err = parseTime(endsAt, "ends_at"); err != nil {
			return nil, err
		}
		subs = append(subs, &sub)
	}

	return subs, rows.Err()
}

// DeleteSubscription permanently removes the subscription for email.
func (s *SubscriptionService) DeleteSubscription(ctx context.Context, email string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM subscriptions WHERE email = ?", email)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return oadigest.Errorf(oadigest.ENOTFOUND, "subscription not found")
	}

	return nil
}
