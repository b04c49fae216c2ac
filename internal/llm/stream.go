package llm

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/alnah/go-contentflow/internal/metrics"
)

// EventKind tags an Event.
type EventKind int

// Event kinds. Complete and Failure are terminal.
const (
	EventDelta EventKind = iota + 1
	EventComplete
	EventFailure
)

func (k EventKind) String() string {
	switch k {
	case EventDelta:
		return "delta"
	case EventComplete:
		return "complete"
	case EventFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// Event is one step of a streamed completion.
type Event struct {
	Kind  EventKind
	Text  string // EventDelta
	Usage *Usage // EventComplete, when the provider reports it
	Err   error  // EventFailure
}

// Source is a pull-based sequence of events ending with exactly one
// Complete or Failure. *Stream implements it.
type Source interface {
	Next(ctx context.Context) Event
	Close() error
}

var _ Source = (*Stream)(nil)

// chunkReceiver is the subset of *openai.ChatCompletionStream used here.
type chunkReceiver interface {
	Recv() (openai.ChatCompletionStreamResponse, error)
	Close() error
}

type streamMeta struct {
	model    string
	platform string
	started  time.Time
	abort    context.CancelFunc
	cancel   context.CancelFunc
	span     trace.Span
	log      *zap.Logger
}

// Stream is a finite, non-restartable streamed completion. It is meant for
// a single consumer goroutine.
type Stream struct {
	recv     chunkReceiver
	meta     streamMeta
	usage    *Usage
	finished bool // a chunk carried a finish reason

	done      bool
	closeOnce sync.Once
	closeErr  error
}

func newStream(recv chunkReceiver, meta streamMeta) *Stream {
	return &Stream{recv: recv, meta: meta}
}

// Next blocks until the next event. Cancelling ctx closes the connection;
// the Failure returned then carries ctx.Err() and nothing follows it.
// Empty deltas are skipped.
func (s *Stream) Next(ctx context.Context) Event {
	if s.done {
		return Event{Kind: EventFailure, Err: ErrStreamClosed}
	}

	for {
		if err := ctx.Err(); err != nil {
			return s.terminate(Event{Kind: EventFailure, Err: err}, "canceled")
		}

		stop := context.AfterFunc(ctx, s.meta.abort)
		chunk, err := s.recv.Recv()
		stop()

		switch {
		case ctx.Err() != nil:
			return s.terminate(Event{Kind: EventFailure, Err: ctx.Err()}, "canceled")
		case errors.Is(err, io.EOF) && s.finished:
			return s.terminate(Event{Kind: EventComplete, Usage: s.usage}, metrics.StatusSuccess)
		case errors.Is(err, io.EOF):
			// The body ended without a finish reason: the connection dropped.
			err = io.ErrUnexpectedEOF
			fallthrough
		case err != nil:
			perr := &ProviderError{Op: "stream", Platform: s.meta.platform, Model: s.meta.model, Err: classifyError(err)}
			s.meta.log.Error("llm stream failed",
				zap.String("model", s.meta.model),
				zap.String("platform", s.meta.platform),
				zap.Error(err))
			s.meta.span.RecordError(perr)
			return s.terminate(Event{Kind: EventFailure, Err: perr}, metrics.StatusError)
		}

		for _, ch := range chunk.Choices {
			if ch.FinishReason != "" {
				s.finished = true
			}
		}
		if chunk.Usage != nil {
			s.usage = &Usage{PromptTokens: chunk.Usage.PromptTokens, CompletionTokens: chunk.Usage.CompletionTokens}
		}
		if text := deltaText(chunk); text != "" {
			return Event{Kind: EventDelta, Text: text}
		}
	}
}

// Close releases the connection. It is safe to call more than once and
// after a terminal event.
func (s *Stream) Close() error {
	s.closeOnce.Do(func() {
		if !s.done {
			s.record("canceled")
			s.done = true
		}
		s.closeErr = s.recv.Close()
		s.meta.abort()
		s.meta.cancel()
		s.meta.span.End()
	})
	return s.closeErr
}

func (s *Stream) terminate(ev Event, status string) Event {
	s.record(status)
	s.done = true
	_ = s.Close()
	return ev
}

func (s *Stream) record(status string) {
	metrics.LLMCallTotal.WithLabelValues("stream", s.meta.model, status).Inc()
	metrics.LLMCallDuration.WithLabelValues("stream", s.meta.model).Observe(time.Since(s.meta.started).Seconds())
}

func deltaText(chunk openai.ChatCompletionStreamResponse) string {
	if len(chunk.Choices) == 1 {
		return chunk.Choices[0].Delta.Content
	}
	var b strings.Builder
	for _, ch := range chunk.Choices {
		b.WriteString(ch.Delta.Content)
	}
	return b.String()
}
