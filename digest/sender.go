// Package digest mails the record file of a date to every recipient.
package digest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/fwojciec/oadigest"
)

// Sender loads a day's record and mails it as an HTML digest.
type Sender struct {
	Records oadigest.RecordStore
	Mailer  oadigest.Mailer

	// Converter renders the plain-text alternative. Optional.
	Converter oadigest.Converter

	// Subscriptions contributes active subscribers. Optional.
	Subscriptions oadigest.SubscriptionService

	// Recipients are the fixed addresses from the recipient list file.
	Recipients []string

	From   string
	Logger *slog.Logger

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// Report summarizes a Send call.
type Report struct {
	// Date is the date of the record that was mailed, which differs from
	// the requested date when Load fell back to the newest record.
	Date       string
	Recipients int
	Sent       int
	Failed     int

	// Skipped explains why nothing was sent, if so.
	Skipped string
}

// Send mails the record for date. Individual delivery failures are
// counted in the Report; a missing SMTP configuration stops the run with
// ENOTCONFIGURED.
func (s *Sender) Send(ctx context.Context, date string) (*Report, error) {
	if err := oadigest.ValidateDate(date); err != nil {
		return nil, err
	}
	logger := s.logger().With("date", date)

	loaded, items, err := s.Records.Load(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("load record: %w", err)
	}
	report := &Report{Date: loaded}
	if loaded != date {
		logger.Warn("record for date missing, using newest", "loaded", loaded)
	}
	if len(items) == 0 {
		report.Skipped = "record is empty"
		return report, nil
	}

	recipients, err := s.recipients(ctx)
	if err != nil {
		return nil, fmt.Errorf("find recipients: %w", err)
	}
	report.Recipients = len(recipients)
	if len(recipients) == 0 {
		report.Skipped = "no recipients"
		return report, nil
	}

	html, err := oadigest.RenderDigest(loaded, items)
	if err != nil {
		return nil, fmt.Errorf("render digest: %w", err)
	}
	var text string
	if s.Converter != nil {
		if text, err = s.Converter.Convert(html); err != nil {
			logger.Warn("plain-text digest unavailable", "err", err)
			text = ""
		}
	}

	for _, to := range recipients {
		err := s.Mailer.Send(ctx, &oadigest.Message{
			From:     s.From,
			To:       to,
			Subject:  oadigest.DigestSubject(loaded),
			HTMLBody: html,
			TextBody: text,
		})
		if oadigest.ErrorCode(err) == oadigest.ENOTCONFIGURED {
			return report, err
		}
		if err != nil {
			report.Failed++
			logger.Warn("digest not delivered", "to", to, "err", err)
			continue
		}
		report.Sent++
		logger.Debug("digest delivered", "to", to)
	}

	logger.Info("digest sent", "loaded", loaded, "sent", report.Sent, "failed", report.Failed)
	return report, nil
}

// recipients returns the list-file addresses followed by active
// subscribers not already listed.
func (s *Sender) recipients(ctx context.Context) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	add := func(email string) {
		if email == "" || seen[email] {
			return
		}
		seen[email] = true
		out = append(out, email)
	}

	for _, r := range s.Recipients {
		add(r)
	}
	if s.Subscriptions != nil {
		now := s.now()
		subs, err := s.Subscriptions.FindSubscriptions(ctx, oadigest.SubscriptionFilter{ActiveAt: &now})
		if err != nil {
			return nil, err
		}
		for _, sub := range subs {
			add(sub.Email)
		}
	}
	return out, nil
}

func (s *Sender) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

func (s *Sender) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return s.Logger
}
