package main

import (
	"fmt"

	"github.com/fwojciec/oadigest"
)

// Run executes the run command: crawl the date, then mail its digest if a
// record file for that date exists.
func (c *RunCmd) Run(deps *Dependencies) error {
	date := c.Date
	if date == "" {
		date = yesterday(deps.Now())
	}
	if err := oadigest.ValidateDate(date); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", oadigest.ErrorMessage(err))
		return err
	}

	if _, err := crawlDate(deps, date); err != nil {
		return err
	}

	if !deps.RecordExists(date) {
		fmt.Fprintf(deps.Stdout, "%s: no record file, digest not sent\n", date)
		return nil
	}
	return sendDate(deps, date)
}
