package main

import (
	"fmt"
	"time"

	"github.com/fwojciec/oadigest"
)

// Run executes the send command.
func (c *SendCmd) Run(deps *Dependencies) error {
	date := c.Date
	if date == "" {
		date = yesterday(deps.Now())
	}
	if err := oadigest.ValidateDate(date); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", oadigest.ErrorMessage(err))
		return err
	}
	return sendDate(deps, date)
}

func sendDate(deps *Dependencies, date string) error {
	report, err := deps.Sender.Send(deps.Ctx, date)
	switch oadigest.ErrorCode(err) {
	case "":
	case oadigest.ENOTCONFIGURED:
		fmt.Fprintln(deps.Stderr, "Hint: Set SMTP_USER and SMTP_PASSWORD in the env file")
		return err
	case oadigest.ENOTFOUND:
		fmt.Fprintf(deps.Stderr, "error: no record files in %s\n", deps.Config.EventsDir)
		return err
	default:
		fmt.Fprintf(deps.Stderr, "error: %v\n", err)
		return err
	}

	if report.Skipped != "" {
		fmt.Fprintf(deps.Stdout, "%s: nothing sent: %s\n", report.Date, report.Skipped)
		return nil
	}
	fmt.Fprintf(deps.Stdout, "%s: sent digest to %d of %d recipients\n", report.Date, report.Sent, report.Recipients)
	if report.Failed > 0 {
		return fmt.Errorf("%d deliveries failed", report.Failed)
	}
	return nil
}

func yesterday(now time.Time) string {
	return oadigest.FormatDate(now.AddDate(0, 0, -1))
}
