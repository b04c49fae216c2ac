package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/alnah/go-contentflow/internal/apierr"
	"github.com/alnah/go-contentflow/internal/metrics"
)

// OpenAI configuration defaults.
const (
	DefaultModel = "gpt-4o-mini"

	defaultTimeout    = 60 * time.Second
	defaultMaxRetries = 0
	defaultBaseDelay  = 1 * time.Second
	defaultMaxDelay   = 10 * time.Second
)

var tracer = otel.Tracer("contentflow/llm")

// chatCompleter is the subset of *openai.Client used here.
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
	CreateChatCompletionStream(ctx context.Context, req openai.ChatCompletionRequest) (*openai.ChatCompletionStream, error)
}

// Compile-time interface compliance checks.
var (
	_ chatCompleter = (*openai.Client)(nil)
	_ Client        = (*OpenAIClient)(nil)
)

// OpenAIClient talks to the OpenAI chat completion API.
type OpenAIClient struct {
	api        chatCompleter
	model      string
	timeout    time.Duration
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
	log        *zap.Logger

	baseURL    string
	httpClient *http.Client
}

// Option configures an OpenAIClient.
type Option func(*OpenAIClient)

// WithModel sets the model for every call.
func WithModel(model string) Option {
	return func(c *OpenAIClient) {
		if model != "" {
			c.model = model
		}
	}
}

// WithTimeout bounds each call. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(c *OpenAIClient) {
		if d >= 0 {
			c.timeout = d
		}
	}
}

// WithMaxRetries sets how many times opening a call is retried on
// transient errors. The default is 0.
func WithMaxRetries(n int) Option {
	return func(c *OpenAIClient) {
		if n >= 0 {
			c.maxRetries = n
		}
	}
}

// WithRetryDelays sets the base and max delays for exponential backoff.
func WithRetryDelays(base, max time.Duration) Option {
	return func(c *OpenAIClient) {
		if base > 0 {
			c.baseDelay = base
		}
		if max > 0 {
			c.maxDelay = max
		}
	}
}

// WithBaseURL sets a custom API base URL, including the /v1 suffix.
func WithBaseURL(url string) Option {
	return func(c *OpenAIClient) {
		c.baseURL = strings.TrimSuffix(url, "/")
	}
}

// WithHTTPClient sets the HTTP client used by the SDK.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *OpenAIClient) {
		c.httpClient = hc
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *OpenAIClient) {
		if l != nil {
			c.log = l
		}
	}
}

// withChatCompleter replaces the SDK client. Used by tests.
func withChatCompleter(api chatCompleter) Option {
	return func(c *OpenAIClient) {
		c.api = api
	}
}

// NewOpenAIClient creates a client. apiKey may only be empty when a
// chat completer is injected.
func NewOpenAIClient(apiKey string, opts ...Option) (*OpenAIClient, error) {
	c := &OpenAIClient{
		model:      DefaultModel,
		timeout:    defaultTimeout,
		maxRetries: defaultMaxRetries,
		baseDelay:  defaultBaseDelay,
		maxDelay:   defaultMaxDelay,
		log:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.api == nil {
		if apiKey == "" {
			return nil, ErrEmptyAPIKey
		}
		cfg := openai.DefaultConfig(apiKey)
		if c.baseURL != "" {
			cfg.BaseURL = c.baseURL
		}
		if c.httpClient != nil {
			cfg.HTTPClient = c.httpClient
		}
		c.api = openai.NewClientWithConfig(cfg)
	}
	return c, nil
}

// Model returns the model every call is made with.
func (c *OpenAIClient) Model() string {
	return c.model
}

// Complete performs a single round trip.
func (c *OpenAIClient) Complete(ctx context.Context, req Request) (_ Completion, err error) {
	ctx, span := c.startSpan(ctx, "llm.Complete", req)
	defer func() { endSpan(span, err) }()

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	defer func() {
		metrics.LLMCallTotal.WithLabelValues("complete", c.model, metrics.Status(err)).Inc()
		metrics.LLMCallDuration.WithLabelValues("complete", c.model).Observe(time.Since(start).Seconds())
	}()

	oreq := c.buildRequest(req, false)
	resp, err := apierr.RetryWithBackoff(ctx, c.retryConfig(req), func() (openai.ChatCompletionResponse, error) {
		r, err := c.api.CreateChatCompletion(ctx, oreq)
		if err != nil {
			return openai.ChatCompletionResponse{}, classifyError(err)
		}
		return r, nil
	}, isRetryable)
	if err != nil {
		return Completion{}, c.fail("complete", req, err)
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return Completion{}, c.fail("complete", req, fmt.Errorf("no choices in response: %w", apierr.ErrEmptyResponse))
	}

	out := Completion{Text: resp.Choices[0].Message.Content, Model: c.model}
	if resp.Usage.TotalTokens > 0 {
		out.Usage = &Usage{PromptTokens: resp.Usage.PromptTokens, CompletionTokens: resp.Usage.CompletionTokens}
	}
	return out, nil
}

// Stream opens a streamed completion. The caller must Close the stream.
// Errors opening the stream are returned here; errors after that arrive
// as a Failure event.
func (c *OpenAIClient) Stream(ctx context.Context, req Request) (*Stream, error) {
	ctx, span := c.startSpan(ctx, "llm.Stream", req)

	// The stream outlives this call: cancel and span end on Close.
	ctx, cancel := c.withTimeout(ctx)
	ctx, abort := context.WithCancel(ctx)

	oreq := c.buildRequest(req, true)
	raw, err := apierr.RetryWithBackoff(ctx, c.retryConfig(req), func() (*openai.ChatCompletionStream, error) {
		s, err := c.api.CreateChatCompletionStream(ctx, oreq)
		if err != nil {
			return nil, classifyError(err)
		}
		return s, nil
	}, isRetryable)
	if err != nil {
		abort()
		cancel()
		perr := c.fail("stream", req, err)
		metrics.LLMCallTotal.WithLabelValues("stream", c.model, metrics.StatusError).Inc()
		endSpan(span, perr)
		return nil, perr
	}

	return newStream(raw, streamMeta{
		model:    c.model,
		platform: req.Platform,
		started:  time.Now(),
		abort:    abort,
		cancel:   cancel,
		span:     span,
		log:      c.log,
	}), nil
}

func (c *OpenAIClient) buildRequest(req Request, stream bool) openai.ChatCompletionRequest {
	oreq := openai.ChatCompletionRequest{
		Model:       c.model,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		Stream:      stream,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.System},
			{Role: openai.ChatMessageRoleUser, Content: req.User},
		},
	}
	if req.ExpectJSON && SupportsJSONMode(c.model) {
		oreq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}
	return oreq
}

func (c *OpenAIClient) retryConfig(req Request) apierr.RetryConfig {
	return apierr.RetryConfig{
		MaxRetries: c.maxRetries,
		BaseDelay:  c.baseDelay,
		MaxDelay:   c.maxDelay,
		OnRetry: func(attempt int, err error) {
			c.log.Warn("retrying llm call",
				zap.Int("attempt", attempt),
				zap.String("platform", req.Platform),
				zap.Error(err))
		},
	}
}

func (c *OpenAIClient) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

func (c *OpenAIClient) fail(op string, req Request, err error) *ProviderError {
	c.log.Error("llm call failed",
		zap.String("op", op),
		zap.String("model", c.model),
		zap.String("platform", req.Platform),
		zap.Error(err))
	return &ProviderError{Op: op, Platform: req.Platform, Model: c.model, Err: err}
}

func (c *OpenAIClient) startSpan(ctx context.Context, name string, req Request) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(
		attribute.String("llm.model", c.model),
		attribute.String("llm.platform", req.Platform),
		attribute.Bool("llm.json_mode", req.ExpectJSON && SupportsJSONMode(c.model)),
	))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
