// Package recycle fans one source text out to several platform formats,
// running the platform requests concurrently and assembling whatever
// succeeded into a single bundle.
package recycle

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/alnah/go-contentflow/internal/content"
	"github.com/alnah/go-contentflow/internal/cost"
	"github.com/alnah/go-contentflow/internal/lang"
	"github.com/alnah/go-contentflow/internal/llm"
	"github.com/alnah/go-contentflow/internal/normalize"
	"github.com/alnah/go-contentflow/internal/platform"
	"github.com/alnah/go-contentflow/internal/prompt"
)

// Recycling parameters sent to the provider.
const (
	defaultMaxTokens   = 2000
	defaultTemperature = 0.7
)

var tracer = otel.Tracer("contentflow/recycle")

// Completer performs single-shot completions. *llm.OpenAIClient implements it.
type Completer interface {
	Complete(ctx context.Context, req llm.Request) (llm.Completion, error)
	Model() string
}

// Request is the wire form of a recycling request.
// Empty Platforms means every recycling platform; empty Tone means professional.
type Request struct {
	Content   string   `json:"content"`
	Platforms []string `json:"platforms,omitempty"`
	Tone      string   `json:"tone,omitempty"`
	Industry  string   `json:"industry,omitempty"`
}

// FailedPlatform records a platform dropped from the bundle.
type FailedPlatform struct {
	Platform platform.Platform
	Err      error
}

// Result is a completed recycling run.
type Result struct {
	Bundle   content.Bundle
	Cost     cost.Breakdown
	Failed   []FailedPlatform
	Duration time.Duration
}

// Service runs recycling requests. It keeps no state between calls and is
// safe for concurrent use.
type Service struct {
	client      Completer
	calc        *cost.Calculator
	estimate    cost.Estimator
	normalizer  *normalize.Normalizer
	ledger      *cost.Ledger
	language    lang.Language
	log         *zap.Logger
	observe     func(State)
	now         func() time.Time
	newID       func() string
	maxTokens   int
	temperature float32
}

// Option configures a Service.
type Option func(*Service)

// WithCalculator sets the pricing table.
func WithCalculator(c *cost.Calculator) Option {
	return func(s *Service) {
		if c != nil {
			s.calc = c
		}
	}
}

// WithEstimator replaces the token estimator.
func WithEstimator(e cost.Estimator) Option {
	return func(s *Service) {
		if e != nil {
			s.estimate = e
		}
	}
}

// WithNormalizer sets the normalizer applied to every reply.
func WithNormalizer(n *normalize.Normalizer) Option {
	return func(s *Service) {
		if n != nil {
			s.normalizer = n
		}
	}
}

// WithLedger records the aggregate cost of every run.
func WithLedger(l *cost.Ledger) Option {
	return func(s *Service) {
		s.ledger = l
	}
}

// WithLanguage sets the output language stated in prompts.
func WithLanguage(l lang.Language) Option {
	return func(s *Service) {
		s.language = l
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// WithStateObserver receives every state transition of every run.
// It is called from the goroutine running Recycle.
func WithStateObserver(fn func(State)) Option {
	return func(s *Service) {
		if fn != nil {
			s.observe = fn
		}
	}
}

// WithClock sets the time source for timestamps and durations.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator sets the generator of bundle and record IDs.
// fn must be safe for concurrent use.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// WithSampling overrides max tokens and temperature.
func WithSampling(maxTokens int, temperature float32) Option {
	return func(s *Service) {
		if maxTokens > 0 {
			s.maxTokens = maxTokens
		}
		if temperature >= 0 {
			s.temperature = temperature
		}
	}
}

// New creates a Service.
func New(client Completer, opts ...Option) *Service {
	s := &Service{
		client:      client,
		calc:        cost.NewCalculator(cost.DefaultTable()),
		estimate:    cost.EstimateTokens,
		normalizer:  normalize.New(),
		log:         zap.NewNop(),
		observe:     func(State) {},
		now:         time.Now,
		newID:       uuid.NewString,
		maxTokens:   defaultMaxTokens,
		temperature: defaultTemperature,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// job is a validated request.
type job struct {
	content   string
	platforms []platform.Platform
	tone      platform.Tone
	industry  string
}

// validate checks req. Errors wrap prompt.ErrValidation.
func validate(req Request) (job, error) {
	if err := prompt.ValidateContent("content", req.Content); err != nil {
		return job{}, err
	}

	tone := platform.DefaultTone
	if strings.TrimSpace(req.Tone) != "" {
		t, err := platform.ParseTone(req.Tone)
		if err != nil {
			return job{}, fmt.Errorf("invalid tone: %v: %w", err, prompt.ErrValidation)
		}
		tone = t
	}

	var platforms []platform.Platform
	if len(req.Platforms) == 0 {
		platforms = platform.Recyclable()
	} else {
		seen := make(map[platform.Platform]bool, len(req.Platforms))
		for _, name := range req.Platforms {
			p, err := platform.ParseRecycling(name)
			if err != nil {
				return job{}, fmt.Errorf("invalid platform: %v: %w", err, prompt.ErrValidation)
			}
			if !seen[p] {
				seen[p] = true
				platforms = append(platforms, p)
			}
		}
	}

	return job{
		content:   req.Content,
		platforms: platforms,
		tone:      tone,
		industry:  strings.TrimSpace(req.Industry),
	}, nil
}
