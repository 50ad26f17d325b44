// Package config loads runtime settings from an env file and the process
// environment. Environment variables always win over file values.
package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Validation errors.
var (
	ErrInvalidProvider = errors.New("invalid AI provider")
	ErrInvalidLogLevel = errors.New("invalid log level")
)

// Supported summarization providers.
const (
	ProviderBigModel = "bigmodel"
	ProviderGemini   = "gemini"
)

// DefaultEnvFile is the env file read when none is given.
const DefaultEnvFile = "env"

// Config holds every runtime setting. It is built once by Load and not
// modified afterwards.
type Config struct {
	EventsDir     string
	RecipientList string
	DBPath        string

	SMTPServer   string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string

	APIKey     string
	AIProvider string
	AIModel    string

	LogLevel slog.Level
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		EventsDir:     "events",
		RecipientList: "List.txt",
		DBPath:        "oadigest.db",
		SMTPServer:    "smtp.163.com",
		SMTPPort:      465,
		AIProvider:    ProviderBigModel,
		LogLevel:      slog.LevelInfo,
	}
}

// legacyKeys are assigned, in order, to bare lines in the env file.
var legacyKeys = []string{"SMTP_USER", "SMTP_PASSWORD", "API_KEY"}

// Load builds a Config from defaults, then envFile, then lookup (usually
// os.LookupEnv). A missing envFile is not an error. Relative paths are
// resolved against the directory containing envFile.
func Load(envFile string, lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()

	base := "."
	if envFile != "" {
		base = filepath.Dir(envFile)
		f, err := os.Open(envFile)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return Config{}, fmt.Errorf("read config file %s: %w", envFile, err)
		default:
			values, err := ParseEnvFile(f)
			f.Close()
			if err != nil {
				return Config{}, fmt.Errorf("read config file %s: %w", envFile, err)
			}
			for _, kv := range values {
				if err := cfg.set(kv[0], kv[1]); err != nil {
					return Config{}, err
				}
			}
		}
	}

	if lookup != nil {
		for _, key := range keys {
			if v, ok := lookup(key); ok {
				if err := cfg.set(key, v); err != nil {
					return Config{}, err
				}
			}
		}
	}

	cfg.EventsDir = resolve(base, cfg.EventsDir)
	cfg.RecipientList = resolve(base, cfg.RecipientList)
	if cfg.DBPath != ":memory:" {
		cfg.DBPath = resolve(base, cfg.DBPath)
	}
	return cfg, nil
}

// keys lists every recognized setting.
var keys = []string{
	"EVENTS_DIR", "RECIPIENT_LIST", "OADIGEST_DB",
	"SMTP_SERVER", "SMTP_PORT", "SMTP_USER", "SMTP_PASSWORD",
	"API_KEY", "AI_PROVIDER", "AI_MODEL", "LOG_LEVEL",
}

// ParseEnvFile reads KEY=VALUE lines in order, skipping blanks and '#'
// comments. Bare lines are assigned to SMTP_USER, SMTP_PASSWORD and
// API_KEY in turn; further bare lines are ignored.
func ParseEnvFile(r io.Reader) ([][2]string, error) {
	var out [][2]string
	legacy := 0
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if key, value, ok := strings.Cut(line, "="); ok {
			out = append(out, [2]string{strings.ToUpper(strings.TrimSpace(key)), unquote(strings.TrimSpace(value))})
			continue
		}
		if legacy < len(legacyKeys) {
			out = append(out, [2]string{legacyKeys[legacy], line})
			legacy++
		}
	}
	return out, scanner.Err()
}

func (c *Config) set(key, value string) error {
	switch key {
	case "EVENTS_DIR":
		if value != "" {
			c.EventsDir = value
		}
	case "RECIPIENT_LIST":
		if value != "" {
			c.RecipientList = value
		}
	case "OADIGEST_DB":
		if value != "" {
			c.DBPath = value
		}
	case "SMTP_SERVER":
		if value != "" {
			c.SMTPServer = value
		}
	case "SMTP_PORT":
		// An unparsable port keeps the previous value.
		if port, err := strconv.Atoi(value); err == nil {
			c.SMTPPort = port
		}
	case "SMTP_USER":
		c.SMTPUser = value
	case "SMTP_PASSWORD":
		c.SMTPPassword = value
	case "API_KEY":
		c.APIKey = strings.TrimPrefix(value, "Bearer ")
	case "AI_PROVIDER":
		if value == "" {
			return nil
		}
		p := strings.ToLower(value)
		if p != ProviderBigModel && p != ProviderGemini {
			return fmt.Errorf("%w: %q", ErrInvalidProvider, value)
		}
		c.AIProvider = p
	case "AI_MODEL":
		c.AIModel = value
	case "LOG_LEVEL":
		if value == "" {
			return nil
		}
		level, err := ParseLogLevel(value)
		if err != nil {
			return err
		}
		c.LogLevel = level
	}
	return nil
}

// ParseLogLevel parses debug, info, warn or error.
func ParseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidLogLevel, s)
	}
	return level, nil
}

// AIHeaders returns the headers for chat-completion requests. The
// Authorization header is present only when an API key is configured.
func (c Config) AIHeaders() map[string]string {
	h := map[string]string{"Content-Type": "application/json"}
	if c.APIKey != "" {
		h["Authorization"] = "Bearer " + c.APIKey
	}
	return h
}

// EnsureDirectories creates the directories needed at runtime.
func (c Config) EnsureDirectories() error {
	return os.MkdirAll(c.EventsDir, 0755)
}

func resolve(base, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}

func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}
