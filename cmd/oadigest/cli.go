package main

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/fwojciec/oadigest"
	"github.com/fwojciec/oadigest/config"
	"github.com/fwojciec/oadigest/crawl"
	"github.com/fwojciec/oadigest/digest"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx    context.Context
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger
	Config config.Config

	Crawler       *crawl.Crawler
	Sender        *digest.Sender
	Subscriptions oadigest.SubscriptionService

	// RecordExists reports whether a record file exists for a date.
	RecordExists func(date string) bool

	// Now returns the current time. Used to default dates.
	Now func() time.Time
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	EnvFile     string `name:"env-file" default:"env" env:"OADIGEST_ENV_FILE" help:"Path to the env file"`
	LogLevel    string `name:"log-level" help:"Log level (debug, info, warn, error); overrides LOG_LEVEL"`
	Concurrency int    `short:"c" default:"1" help:"Announcements enriched at once"`
	Cache       bool   `help:"Reuse and store summaries in the database"`

	Crawl     CrawlCmd     `cmd:"" help:"Crawl announcements for one or more dates"`
	Send      SendCmd      `cmd:"" help:"Mail the digest for a date"`
	Run       RunCmd       `cmd:"" help:"Crawl a date, then mail its digest"`
	Subscribe SubscribeCmd `cmd:"" help:"Manage digest subscriptions"`
}

// CrawlCmd is the "crawl" subcommand.
type CrawlCmd struct {
	Dates []string `arg:"" optional:"" help:"Target dates (YYYY-MM-DD), default today"`
}

// SendCmd is the "send" subcommand.
type SendCmd struct {
	Date string `short:"d" help:"Record date (YYYY-MM-DD), default yesterday"`
}

// RunCmd is the "run" subcommand.
type RunCmd struct {
	Date string `short:"d" help:"Target date (YYYY-MM-DD), default yesterday"`
}

// SubscribeCmd groups the subscription subcommands.
type SubscribeCmd struct {
	Add    SubscribeAddCmd    `cmd:"" help:"Subscribe an address or extend its subscription"`
	List   SubscribeListCmd   `cmd:"" help:"List subscriptions"`
	Delete SubscribeDeleteCmd `cmd:"" help:"Remove a subscription"`
}

// SubscribeAddCmd is the "subscribe add" subcommand.
type SubscribeAddCmd struct {
	Email string `arg:"" help:"Email address"`
}

// SubscribeListCmd is the "subscribe list" subcommand.
type SubscribeListCmd struct {
	Expiring int `help:"Only active subscriptions ending within this many days"`
}

// SubscribeDeleteCmd is the "subscribe delete" subcommand.
type SubscribeDeleteCmd struct {
	Email string `arg:"" help:"Email address"`
}
