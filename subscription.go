package oadigest

import (
	"context"
	"net/mail"
	"time"
)

// SubscriptionPeriod is how long a new or renewed subscription lasts.
const SubscriptionPeriod = 365 * 24 * time.Hour

// Subscription is a digest recipient with a paid-up end date.
type Subscription struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
	EndsAt    time.Time `json:"endsAt"`
}

// ValidateEmail returns EINVALID unless email is a bare address.
func ValidateEmail(email string) error {
	if email == "" {
		return Errorf(EINVALID, "email required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return Errorf(EINVALID, "invalid email %q", email)
	}
	return nil
}

// SubscriptionService manages digest subscriptions.
type SubscriptionService interface {
	// Subscribe starts a subscription for email, or extends an existing one
	// to a full period from now. Reports whether a new row was created.
	Subscribe(ctx context.Context, email string) (created bool, err error)

	// FindSubscriptions returns subscriptions matching the filter, oldest first.
	FindSubscriptions(ctx context.Context, filter SubscriptionFilter) ([]*Subscription, error)

	// DeleteSubscription removes the subscription for email.
	// Returns ENOTFOUND if there is none.
	DeleteSubscription(ctx context.Context, email string) error
}

// SubscriptionFilter represents a filter for FindSubscriptions.
type SubscriptionFilter struct {
	Email *string `json:"email"`

	// ActiveAt keeps subscriptions that have not ended at this time.
	ActiveAt *time.Time `json:"activeAt"`

	// ExpiringBefore keeps subscriptions ending at or before this time.
	ExpiringBefore *time.Time `json:"expiringBefore"`

	// Restrict to a subset of the results.
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}
