// Package summary generates meeting summaries from the recorded transcript
// via a configured LLM provider.
package summary

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/protokoll-app/protokoll/internal/note"
	"github.com/protokoll-app/protokoll/internal/observe"
	"github.com/protokoll-app/protokoll/internal/state"
	"github.com/protokoll-app/protokoll/pkg/provider/llm"
)

// DefaultSystemPrompt is used when no prompt template is configured. The
// placeholders {title}, {date}, {duration} and {participants} are replaced
// with the meeting's details before the request is sent.
const DefaultSystemPrompt = `You are an assistant that writes concise meeting summaries.

Meeting: {title}
Date: {date}
Duration: {duration}
Participants: {participants}

Summarize the transcript the user provides. Structure the summary as:
1. a short overview paragraph,
2. the key discussion points,
3. decisions made,
4. action items with owners where they can be inferred.

Write in the language of the transcript.`

var (
	// ErrNoMeeting is returned when no meeting note is available to
	// summarize.
	ErrNoMeeting = errors.New("summary: no meeting to summarize")

	// ErrEmptyTranscript is returned when the meeting has no recorded
	// transcript yet.
	ErrEmptyTranscript = errors.New("summary: meeting has no transcript")

	// ErrBusy is returned when a summary request is already in flight.
	ErrBusy = errors.New("summary: generation already in progress")
)

// Service turns a meeting transcript into a summary and stores it on the
// note. At most one generation runs at a time, gated through [state.App].
type Service struct {
	provider llm.Provider
	store    *note.Store
	app      *state.App

	prompt      string
	temperature float64
	maxTokens   int
	metrics     *observe.Metrics
}

// Option configures a [Service].
type Option func(*Service)

// WithSystemPrompt overrides [DefaultSystemPrompt]. The same placeholders
// apply.
func WithSystemPrompt(tmpl string) Option {
	return func(s *Service) {
		if tmpl != "" {
			s.prompt = tmpl
		}
	}
}

// WithTemperature sets the sampling temperature. Default 0.7.
func WithTemperature(t float64) Option {
	return func(s *Service) { s.temperature = t }
}

// WithMaxTokens caps the completion length. Default 1000.
func WithMaxTokens(n int) Option {
	return func(s *Service) { s.maxTokens = n }
}

// WithMetrics sets the metrics instance. Defaults to
// [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// NewService creates a summary service backed by the given provider.
func NewService(provider llm.Provider, store *note.Store, app *state.App, opts ...Option) *Service {
	s := &Service{
		provider:    provider,
		store:       store,
		app:         app,
		prompt:      DefaultSystemPrompt,
		temperature: 0.7,
		maxTokens:   1000,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = observe.DefaultMetrics()
	}
	return s
}

// GenerateCurrent summarizes the currently open meeting note.
func (s *Service) GenerateCurrent(ctx context.Context) (string, error) {
	return s.Generate(ctx, s.store.Current())
}

// Generate produces a summary for the given note, stores it on the note,
// and persists it. Returns [ErrBusy] when another generation is in flight;
// the busy flag is always released, including on error.
func (s *Service) Generate(ctx context.Context, n *note.Note) (string, error) {
	if n == nil {
		return "", ErrNoMeeting
	}
	if strings.TrimSpace(n.RawText) == "" {
		return "", ErrEmptyTranscript
	}
	if !s.app.BeginSummarize() {
		return "", ErrBusy
	}
	defer s.app.EndSummarize()

	slog.Info("generating summary", "title", n.Title, "transcript_words", n.WordCount())

	req := llm.CompletionRequest{
		SystemPrompt: s.renderPrompt(n),
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: n.RawText},
		},
		Temperature: s.temperature,
		MaxTokens:   s.maxTokens,
	}

	start := time.Now()
	resp, err := s.provider.Complete(ctx, req)
	s.metrics.SummaryDuration.Record(ctx, time.Since(start).Seconds())
	if err != nil {
		return "", fmt.Errorf("summary: generate: %w", err)
	}
	if strings.TrimSpace(resp.Content) == "" {
		return "", fmt.Errorf("summary: generate: provider returned an empty completion")
	}

	n.Summary = resp.Content
	if err := s.store.Save(n); err != nil {
		return "", fmt.Errorf("summary: save note: %w", err)
	}

	slog.Info("summary stored", "title", n.Title,
		"summary_chars", len(resp.Content),
		"duration", time.Since(start).Round(time.Millisecond))
	return resp.Content, nil
}

// renderPrompt fills the prompt template with the note's details.
func (s *Service) renderPrompt(n *note.Note) string {
	duration := ""
	if d := n.Duration(); d > 0 {
		duration = d.Round(time.Second).String()
	}
	return strings.NewReplacer(
		"{title}", n.Title,
		"{date}", n.StartTime.Format("2006-01-02"),
		"{duration}", duration,
		"{participants}", strings.Join(n.Participants, ", "),
	).Replace(s.prompt)
}
