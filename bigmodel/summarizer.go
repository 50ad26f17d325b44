// Package bigmodel implements oadigest.Summarizer on top of the BigModel
// (Zhipu GLM) chat-completion API.
package bigmodel

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/fwojciec/oadigest"
)

// Defaults for the chat-completion endpoint.
const (
	DefaultEndpoint = "https://open.bigmodel.cn/api/paas/v4/chat/completions"
	DefaultModel    = "glm-4.5-flash"
	DefaultTimeout  = 60 * time.Second
)

// Sampling parameters sent with every request.
const (
	temperature = 0.7
	maxTokens   = 2000
)

// Ensure Summarizer implements oadigest.Summarizer at compile time.
var _ oadigest.Summarizer = (*Summarizer)(nil)

// Summarizer asks a chat-completion model for a short summary of an article.
type Summarizer struct {
	client   *http.Client
	headers  map[string]string
	endpoint string
	model    string
	timeout  time.Duration
}

// Option configures a Summarizer.
type Option func(*Summarizer)

// WithHeaders sets the headers sent with each request. The summarizer is
// considered unconfigured unless they include Authorization.
func WithHeaders(h map[string]string) Option {
	return func(s *Summarizer) {
		for k, v := range h {
			s.headers[k] = v
		}
	}
}

// WithAPIKey sets a bearer Authorization header from key. An empty key
// leaves the summarizer unconfigured.
func WithAPIKey(key string) Option {
	return func(s *Summarizer) {
		if key != "" {
			s.headers["Authorization"] = "Bearer " + key
		}
	}
}

// WithEndpoint overrides the chat-completion URL.
func WithEndpoint(u string) Option {
	return func(s *Summarizer) {
		s.endpoint = u
	}
}

// WithModel overrides the model name.
func WithModel(model string) Option {
	return func(s *Summarizer) {
		if model != "" {
			s.model = model
		}
	}
}

// WithTimeout sets the timeout for each request.
// Defaults to DefaultTimeout (60s) if not specified.
func WithTimeout(d time.Duration) Option {
	return func(s *Summarizer) {
		s.timeout = d
	}
}

// NewSummarizer creates a new Summarizer.
func NewSummarizer(opts ...Option) *Summarizer {
	s := &Summarizer{
		headers:  map[string]string{"Content-Type": "application/json"},
		endpoint: DefaultEndpoint,
		model:    DefaultModel,
		timeout:  DefaultTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.client = &http.Client{
		Timeout: s.timeout,
	}

	return s
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Stream      bool      `json:"stream"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
}

type completionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Configured reports whether an Authorization header is set.
func (s *Summarizer) Configured() bool {
	return s.headers["Authorization"] != ""
}

// Summarize sends article to the model and returns the cleaned content of
// the last choice.
func (s *Summarizer) Summarize(ctx context.Context, article string) (string, error) {
	if !s.Configured() {
		return fail(oadigest.Errorf(oadigest.ENOTCONFIGURED, "API key not configured"))
	}

	body, err := json.Marshal(buildRequest(s.model, article))
	if err != nil {
		return fail(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return fail(err)
	}
	for k, v := range s.headers {
		req.Header.Set(k, v)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fail(oadigest.TransportError(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fail(oadigest.Errorf(oadigest.ESTATUS, "chat completion returned HTTP %d", resp.StatusCode))
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fail(oadigest.TransportError(err))
	}

	var data completionResponse
	if err := json.Unmarshal(raw, &data); err != nil {
		return fail(oadigest.Errorf(oadigest.EPARSE, "decode chat completion: %v", err))
	}
	if len(data.Choices) == 0 {
		return fail(oadigest.Errorf(oadigest.EMALFORMED, "chat completion has no choices"))
	}

	summary := oadigest.CleanSummary(data.Choices[len(data.Choices)-1].Message.Content)
	if summary == "" {
		return fail(oadigest.Errorf(oadigest.EEMPTY, "chat completion returned no usable text"))
	}
	return summary, nil
}

// buildRequest returns the chat-completion request body for article.
func buildRequest(model, article string) completionRequest {
	return completionRequest{
		Model: model,
		Messages: []message{
			{Role: "system", Content: oadigest.SummaryInstruction},
			{Role: "user", Content: article},
		},
		Stream:      false,
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}
}

func fail(err error) (string, error) {
	return oadigest.Placeholder(err), err
}
