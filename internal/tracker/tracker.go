// Package tracker approximates how much of a conversation's context window
// has been consumed by built prompts.
package tracker

import (
	"sync"
	"unicode/utf8"

	"github.com/lumix-labs/swift-prompter/internal/models"
	"github.com/rs/zerolog"
)

const (
	// CharsPerToken is the character-to-token ratio of the estimate.
	CharsPerToken = 4

	// DefaultCapacity is the assumed context window when none is configured.
	DefaultCapacity int64 = 100000

	// DefaultOptimalRemaining is the threshold below which a new chat is recommended.
	DefaultOptimalRemaining = 0.3
)

// Tracker keeps a running token usage counter against a fixed capacity.
// It is safe for concurrent use.
type Tracker struct {
	logger zerolog.Logger
	total  int64

	mu   sync.Mutex
	used int64
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithCapacity sets the total capacity. Values <= 0 keep the default.
func WithCapacity(tokens int64) Option {
	return func(t *Tracker) {
		if tokens > 0 {
			t.total = tokens
		}
	}
}

// WithInitialUsage seeds the used counter.
func WithInitialUsage(tokens int64) Option {
	return func(t *Tracker) {
		if tokens > 0 {
			t.used = tokens
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(t *Tracker) {
		t.logger = logger
	}
}

// New creates a tracker with DefaultCapacity unless overridden.
func New(opts ...Option) *Tracker {
	t := &Tracker{
		logger: zerolog.Nop(),
		total:  DefaultCapacity,
	}
	for _, opt := range opts {
		opt(t)
	}

	t.logger.Info().
		Int64("total_capacity", t.total).
		Int64("initial_usage", t.used).
		Msg("context tracker initialized")

	return t
}

// EstimateTokens approximates the token count of text as ceil(chars/4).
// It is a heuristic, not a tokenizer.
func EstimateTokens(text string) int64 {
	chars := int64(utf8.RuneCountInString(text))
	return (chars + CharsPerToken - 1) / CharsPerToken
}

// EstimateTokens is the method form of the package-level estimate.
func (t *Tracker) EstimateTokens(text string) int64 {
	return EstimateTokens(text)
}

// RecordUsage adds tokens to the used counter. Usage may exceed capacity.
// Negative values are ignored.
func (t *Tracker) RecordUsage(tokens int64) {
	if tokens < 0 {
		t.logger.Debug().Int64("tokens", tokens).Msg("ignoring negative usage")
		return
	}

	t.mu.Lock()
	t.used += tokens
	used := t.used
	t.mu.Unlock()

	t.logger.Info().
		Int64("added_tokens", tokens).
		Int64("total_used", used).
		Float64("remaining_percentage", remainingPercentage(used, t.total)).
		Msg("context usage recorded")
}

// RecordTextUsage estimates the tokens in text, records them and returns the count.
func (t *Tracker) RecordTextUsage(text string) int64 {
	tokens := EstimateTokens(text)
	t.RecordUsage(tokens)
	return tokens
}

// TotalCapacity returns the fixed capacity.
func (t *Tracker) TotalCapacity() int64 {
	return t.total
}

// Used returns the current used counter.
func (t *Tracker) Used() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.used
}

// RemainingPercentage returns 1 - used/total. It goes negative when over capacity.
func (t *Tracker) RemainingPercentage() float64 {
	return remainingPercentage(t.Used(), t.total)
}

// Status snapshots the counter. RecommendedAction is new_chat iff the
// remaining percentage is strictly below optimalRemaining.
func (t *Tracker) Status(optimalRemaining float64) models.ContextStatus {
	used := t.Used()
	usedPct := float64(used) / float64(t.total)
	remainingPct := 1 - usedPct

	action := models.ActionContinue
	if remainingPct < optimalRemaining {
		action = models.ActionNewChat
	}

	return models.ContextStatus{
		TotalCapacity:       t.total,
		UsedCapacity:        used,
		RemainingCapacity:   t.total - used,
		UsedPercentage:      usedPct,
		RemainingPercentage: remainingPct,
		RecommendedAction:   action,
	}
}

// Reset zeroes the used counter.
func (t *Tracker) Reset() {
	t.mu.Lock()
	t.used = 0
	t.mu.Unlock()

	t.logger.Info().Msg("context usage reset")
}

func remainingPercentage(used, total int64) float64 {
	return 1 - float64(used)/float64(total)
}
