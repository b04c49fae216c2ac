package generate

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/alnah/go-contentflow/internal/cost"
	"github.com/alnah/go-contentflow/internal/lang"
	"github.com/alnah/go-contentflow/internal/llm"
	"github.com/alnah/go-contentflow/internal/metrics"
	"github.com/alnah/go-contentflow/internal/prompt"
)

// Generation parameters sent to the provider.
const (
	defaultMaxTokens   = 1000
	defaultTemperature = 0.7
)

// Streamer opens streamed completions. *llm.OpenAIClient implements it.
type Streamer interface {
	Stream(ctx context.Context, req llm.Request) (*llm.Stream, error)
	Model() string
}

// Generator runs single-document generations.
type Generator struct {
	client      Streamer
	calc        *cost.Calculator
	ledger      *cost.Ledger
	language    lang.Language
	log         *zap.Logger
	maxTokens   int
	temperature float32
}

// Option configures a Generator.
type Option func(*Generator)

// WithCalculator sets the pricing used for the final cost.
func WithCalculator(c *cost.Calculator) Option {
	return func(g *Generator) {
		if c != nil {
			g.calc = c
		}
	}
}

// WithLedger records the cost of every successful generation.
func WithLedger(l *cost.Ledger) Option {
	return func(g *Generator) {
		g.ledger = l
	}
}

// WithLanguage sets the output language stated in prompts.
func WithLanguage(l lang.Language) Option {
	return func(g *Generator) {
		g.language = l
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(g *Generator) {
		if l != nil {
			g.log = l
		}
	}
}

// WithSampling overrides max tokens and temperature.
func WithSampling(maxTokens int, temperature float32) Option {
	return func(g *Generator) {
		if maxTokens > 0 {
			g.maxTokens = maxTokens
		}
		if temperature >= 0 {
			g.temperature = temperature
		}
	}
}

// New creates a Generator.
func New(client Streamer, opts ...Option) *Generator {
	g := &Generator{
		client:      client,
		calc:        cost.NewCalculator(cost.DefaultTable()),
		log:         zap.NewNop(),
		maxTokens:   defaultMaxTokens,
		temperature: defaultTemperature,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate streams the document for req to emit.
//
// Validation errors are returned before anything is emitted. Any other
// failure is emitted as an UpdateFailure and returned, unless ctx was
// cancelled. The cost is added to the ledger only after completion.
func (g *Generator) Generate(ctx context.Context, req Request, emit Emitter) (*Result, error) {
	p, err := prompt.Generation(prompt.GenerationInput{
		Topic:    req.Topic,
		Audience: req.TargetAudience,
		Context:  req.AdditionalContext,
		Tone:     req.Tone,
		Platform: req.Platform,
		Language: g.language,
	})
	if err != nil {
		return nil, err
	}

	model := g.client.Model()
	if !g.calc.Supports(model) {
		return nil, fmt.Errorf("model %q: %w", model, cost.ErrUnknownModel)
	}

	src, err := g.client.Stream(ctx, llm.Request{
		System:      p.System,
		User:        p.User,
		Platform:    req.Platform.String(),
		MaxTokens:   g.maxTokens,
		Temperature: g.temperature,
	})
	if err != nil {
		if ctx.Err() == nil {
			_ = emit(Update{Kind: UpdateFailure, Err: err})
		}
		return nil, err
	}

	agg := &Aggregator{
		Model:       model,
		InputTokens: cost.EstimateTokens(req.inputText()),
		Calculator:  g.calc,
	}
	res, err := agg.Run(ctx, src, emit)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			g.log.Warn("generation failed",
				zap.String("platform", req.Platform.String()),
				zap.Error(err))
		}
		return nil, err
	}

	metrics.LLMTokensUsed.WithLabelValues(model, "input").Add(float64(res.InputTokens))
	metrics.LLMTokensUsed.WithLabelValues(model, "output").Add(float64(res.OutputTokens))
	metrics.CostUSDTotal.WithLabelValues(model, "generate").Add(res.Cost.TotalCost)
	g.record(ctx, res.Cost)

	g.log.Info("generation complete",
		zap.String("platform", req.Platform.String()),
		zap.Int("input_tokens", res.InputTokens),
		zap.Int("output_tokens", res.OutputTokens),
		zap.Float64("total_cost", res.Cost.TotalCost))
	return res, nil
}

// record appends to the ledger. Ledger durability is best-effort:
// failures are logged, never returned.
func (g *Generator) record(ctx context.Context, b cost.Breakdown) {
	if g.ledger == nil {
		return
	}
	summary, err := g.ledger.Append(context.WithoutCancel(ctx), b)
	if err != nil {
		g.log.Error("failed to record cost", zap.Error(err))
		return
	}
	metrics.CostDailyUSD.Set(summary.TotalCost)
	if alert := g.ledger.Alert(summary.TotalCost); alert.ShouldAlert {
		g.log.Warn(alert.Message, zap.Float64("daily_total", summary.TotalCost), zap.String("level", alert.Level.String()))
	}
}
