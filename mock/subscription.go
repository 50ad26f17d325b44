package mock

import (
	"context"

	"github.com/fwojciec/oadigest"
)

var _ oadigest.SubscriptionService = (*SubscriptionService)(nil)

// SubscriptionService is a mock implementation of oadigest.SubscriptionService.
type SubscriptionService struct {
	SubscribeFn          func(ctx context.Context, email string) (bool, error)
	FindSubscriptionsFn  func(ctx context.Context, filter oadigest.SubscriptionFilter) ([]*oadigest.Subscription, error)
	DeleteSubscriptionFn func(ctx context.Context, email string) error
}

func (s *SubscriptionService) Subscribe(ctx context.Context, email string) (bool, error) {
	return s.SubscribeFn(ctx, email)
}

func (s *SubscriptionService) FindSubscriptions(ctx context.Context, filter oadigest.SubscriptionFilter) ([]*oadigest.Subscription, error) {
	return s.FindSubscriptionsFn(ctx, filter)
}

func (s *SubscriptionService) DeleteSubscription(ctx context.Context, email string) error {
	return s.DeleteSubscriptionFn(ctx, email)
}
