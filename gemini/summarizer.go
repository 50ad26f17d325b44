// Package gemini implements oadigest.Summarizer using Google Gemini.
package gemini

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/fwojciec/oadigest"
	"google.golang.org/genai"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.5-flash"

// DefaultTimeout bounds each generation request.
const DefaultTimeout = 60 * time.Second

// Ensure Summarizer implements oadigest.Summarizer at compile time.
var _ oadigest.Summarizer = (*Summarizer)(nil)

// Summarizer implements oadigest.Summarizer using Google Gemini.
type Summarizer struct {
	client *genai.Client
	model  string
}

// NewSummarizer creates a new Summarizer. A nil client yields an
// unconfigured summarizer that always returns the not-configured placeholder.
func NewSummarizer(client *genai.Client, model string) *Summarizer {
	if model == "" {
		model = DefaultModel
	}
	return &Summarizer{client: client, model: model}
}

// Configured reports whether a client is present.
func (s *Summarizer) Configured() bool {
	return s.client != nil
}

// Summarize asks Gemini for a summary of article and returns the cleaned
// text of the last candidate.
func (s *Summarizer) Summarize(ctx context.Context, article string) (string, error) {
	if !s.Configured() {
		return fail(oadigest.Errorf(oadigest.ENOTCONFIGURED, "Gemini API key not configured"))
	}

	ctx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()

	result, err := s.client.Models.GenerateContent(ctx, s.model,
		[]*genai.Content{{
			Role:  genai.RoleUser,
			Parts: []*genai.Part{{Text: article}},
		}},
		BuildConfig(),
	)
	if err != nil {
		return fail(ClassifyError(err))
	}
	if result == nil || len(result.Candidates) == 0 {
		return fail(oadigest.Errorf(oadigest.EMALFORMED, "gemini returned no candidates"))
	}

	summary := oadigest.CleanSummary(CandidateText(result.Candidates[len(result.Candidates)-1]))
	if summary == "" {
		return fail(oadigest.Errorf(oadigest.EEMPTY, "gemini returned no usable text"))
	}
	return summary, nil
}

// BuildConfig returns the GenerateContentConfig for summarization calls.
func BuildConfig() *genai.GenerateContentConfig {
	temp := float32(0.7)
	return &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: oadigest.SummaryInstruction}},
		},
		Temperature:     &temp,
		MaxOutputTokens: 2000,
	}
}

// CandidateText joins the non-thought text parts of a candidate.
func CandidateText(c *genai.Candidate) string {
	if c == nil || c.Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range c.Content.Parts {
		if part == nil || part.Thought {
			continue
		}
		sb.WriteString(part.Text)
	}
	return sb.String()
}

// ClassifyError maps a Gemini client error onto an application error code.
func ClassifyError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return oadigest.Errorf(oadigest.ESTATUS, "gemini returned HTTP %d: %s", apiErr.Code, apiErr.Message)
	}
	return oadigest.TransportError(err)
}

func fail(err error) (string, error) {
	return oadigest.Placeholder(err), err
}
