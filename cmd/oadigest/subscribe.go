package main

import (
	"fmt"
	"time"

	"github.com/fwojciec/oadigest"
)

// Run executes the subscribe add command.
func (c *SubscribeAddCmd) Run(deps *Dependencies) error {
	created, err := deps.Subscriptions.Subscribe(deps.Ctx, c.Email)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", oadigest.ErrorMessage(err))
		return err
	}
	if created {
		fmt.Fprintf(deps.Stdout, "Subscribed %s\n", c.Email)
	} else {
		fmt.Fprintf(deps.Stdout, "Extended subscription for %s\n", c.Email)
	}
	return nil
}

// Run executes the subscribe list command.
func (c *SubscribeListCmd) Run(deps *Dependencies) error {
	var filter oadigest.SubscriptionFilter
	if c.Expiring > 0 {
		now := deps.Now()
		horizon := now.Add(time.Duration(c.Expiring) * 24 * time.Hour)
		filter.ActiveAt = &now
		filter.ExpiringBefore = &horizon
	}

	subs, err := deps.Subscriptions.FindSubscriptions(deps.Ctx, filter)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", oadigest.ErrorMessage(err))
		return err
	}

	if len(subs) == 0 {
		fmt.Fprintln(deps.Stdout, "No subscriptions found.")
		return nil
	}

	for _, s := range subs {
		fmt.Fprintf(deps.Stdout, "%s  subscribed %s  ends %s\n",
			s.Email, oadigest.FormatDate(s.CreatedAt), oadigest.FormatDate(s.EndsAt))
	}
	return nil
}

// Run executes the subscribe delete command.
func (c *SubscribeDeleteCmd) Run(deps *Dependencies) error {
	if err := deps.Subscriptions.DeleteSubscription(deps.Ctx, c.Email); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", oadigest.ErrorMessage(err))
		return err
	}
	fmt.Fprintf(deps.Stdout, "Deleted subscription for %s\n", c.Email)
	return nil
}
