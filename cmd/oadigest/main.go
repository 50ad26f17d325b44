package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/oadigest"
	"github.com/fwojciec/oadigest/bigmodel"
	"github.com/fwojciec/oadigest/config"
	"github.com/fwojciec/oadigest/crawl"
	"github.com/fwojciec/oadigest/digest"
	"github.com/fwojciec/oadigest/fs"
	"github.com/fwojciec/oadigest/gemini"
	"github.com/fwojciec/oadigest/goquery"
	"github.com/fwojciec/oadigest/htmltomarkdown"
	oahttp "github.com/fwojciec/oadigest/http"
	oaslog "github.com/fwojciec/oadigest/slog"
	"github.com/fwojciec/oadigest/smtp"
	"github.com/fwojciec/oadigest/sqlite"
	"google.golang.org/genai"
)

func main() {
	ctx := context.Background()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Lookup reads environment variables. Defaults to os.LookupEnv.
	Lookup func(string) (string, bool)

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time

	// Portal overrides the OA portal client. Used by end-to-end tests.
	Portal oadigest.Portal

	// SQLite database used by SQLite service implementations.
	DB *sqlite.DB
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{
		Lookup: os.LookupEnv,
		Now:    time.Now,
	}
}

// Close gracefully stops the program.
func (m *Main) Close() error {
	if m.DB != nil {
		return m.DB.Close()
	}
	return nil
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
		Now:    m.Now,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("oadigest"),
		kong.Description("Crawl the OA portal, summarize new announcements and mail a daily digest."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'oadigest --help' to see available commands")
	}

	cmd := args[0]
	if cmd == "help" || cmd == "--help" || cmd == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}
	cmd = strings.Fields(kongCtx.Command())[0]

	cfg, err := config.Load(cli.EnvFile, m.Lookup)
	if err != nil {
		return err
	}
	if cli.LogLevel != "" {
		if cfg.LogLevel, err = config.ParseLogLevel(cli.LogLevel); err != nil {
			return err
		}
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
	deps.Config = cfg
	deps.Logger = logger

	// Only subscriptions and the summary cache live in the database.
	if cmd == "subscribe" || cmd == "send" || cmd == "run" || cli.Cache {
		if err := m.openDB(cfg.DBPath, stderr); err != nil {
			return err
		}
		defer m.Close()
		deps.Subscriptions = sqlite.NewSubscriptionService(m.DB)
	}

	if cmd == "subscribe" {
		return kongCtx.Run(deps)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("failed to create events directory: %w", err)
	}
	store := fs.NewRecordStore(cfg.EventsDir)
	records := oaslog.NewLoggingRecordStore(store, logger)
	deps.RecordExists = func(date string) bool {
		_, err := os.Stat(store.Path(date))
		return err == nil
	}

	if cmd == "crawl" || cmd == "run" {
		summarizer, err := m.newSummarizer(ctx, cfg)
		if err != nil {
			return err
		}

		portal := m.Portal
		if portal == nil {
			portal = oahttp.NewPortal(oahttp.WithRateLimit(2))
		}

		deps.Crawler = &crawl.Crawler{
			Portal:      oaslog.NewLoggingPortal(portal, logger),
			Extractor:   goquery.NewListingExtractor(goquery.DefaultOrigin),
			Summarizer:  oaslog.NewLoggingSummarizer(summarizer, logger),
			Records:     records,
			Concurrency: cli.Concurrency,
			Logger:      logger,
		}
		if cli.Cache {
			deps.Crawler.Cache = sqlite.NewSummaryCache(m.DB)
		}
	}

	if cmd == "send" || cmd == "run" {
		recipients, err := fs.ReadRecipients(cfg.RecipientList)
		if err != nil {
			return fmt.Errorf("failed to read recipient list: %w", err)
		}
		deps.Sender = &digest.Sender{
			Records:       records,
			Mailer:        smtp.NewMailer(cfg.SMTPServer, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword),
			Converter:     htmltomarkdown.NewConverter(htmltomarkdown.WithDomain(goquery.DefaultOrigin)),
			Subscriptions: deps.Subscriptions,
			Recipients:    recipients,
			From:          cfg.SMTPUser,
			Logger:        logger,
			Now:           m.Now,
		}
	}

	return kongCtx.Run(deps)
}

// openDB opens the SQLite database at path into m.DB.
func (m *Main) openDB(path string, stderr io.Writer) error {
	m.DB = sqlite.NewDB(path)
	if err := m.DB.Open(); err != nil {
		m.DB = nil
		fmt.Fprintf(stderr, "Hint: Set OADIGEST_DB to use a different database path\n")
		return fmt.Errorf("failed to open database at %q: %w", path, err)
	}
	return nil
}

// newSummarizer builds the configured provider. Without an API key the
// summarizer is left unconfigured and yields placeholders.
func (m *Main) newSummarizer(ctx context.Context, cfg config.Config) (oadigest.Summarizer, error) {
	switch cfg.AIProvider {
	case config.ProviderGemini:
		if cfg.APIKey == "" {
			return gemini.NewSummarizer(nil, cfg.AIModel), nil
		}
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  cfg.APIKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to Gemini API: %w", err)
		}
		return gemini.NewSummarizer(client, cfg.AIModel), nil
	default:
		return bigmodel.NewSummarizer(
			bigmodel.WithHeaders(cfg.AIHeaders()),
			bigmodel.WithModel(cfg.AIModel),
		), nil
	}
}
