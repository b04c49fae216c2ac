package generate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/alnah/go-contentflow/internal/cost"
	"github.com/alnah/go-contentflow/internal/llm"
)

// Progress reporting.
const (
	progressStep = 2
	progressCap  = 95 // reserved until the provider confirms completion
	progressDone = 100
)

// UpdateKind tags an Update.
type UpdateKind int

// Update kinds, in the order a successful run emits them:
// any number of deltas, one cost, one complete.
const (
	UpdateDelta UpdateKind = iota + 1
	UpdateCost
	UpdateComplete
	UpdateFailure
)

func (k UpdateKind) String() string {
	switch k {
	case UpdateDelta:
		return "delta"
	case UpdateCost:
		return "cost"
	case UpdateComplete:
		return "complete"
	case UpdateFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// Update is one message for the caller.
type Update struct {
	Kind     UpdateKind
	Text     string          // UpdateDelta
	Progress int             // UpdateDelta, UpdateComplete
	Cost     *cost.Breakdown // UpdateCost
	Err      error           // UpdateFailure
}

// Emitter delivers updates. An error stops the run.
type Emitter func(Update) error

// Result is a completed generation.
type Result struct {
	Text         string
	Cost         cost.Breakdown
	InputTokens  int
	OutputTokens int
	Usage        *llm.Usage // provider-reported, when present
}

// Aggregator folds a stream into progress updates and a final cost.
type Aggregator struct {
	Model       string
	InputTokens int
	Calculator  *cost.Calculator
	Estimate    cost.Estimator
}

// Run consumes src until a terminal event, emitting updates as it goes.
// src is closed on return.
//
// A provider failure is emitted and returned. Cancellation of ctx, or an
// error from emit, stops the run without emitting anything further.
func (a *Aggregator) Run(ctx context.Context, src llm.Source, emit Emitter) (*Result, error) {
	defer src.Close()

	estimate := a.Estimate
	if estimate == nil {
		estimate = cost.EstimateTokens
	}
	calc := a.Calculator
	if calc == nil {
		calc = cost.NewCalculator(cost.DefaultTable())
	}

	var buf strings.Builder
	progress := 0

	for {
		ev := src.Next(ctx)

		switch ev.Kind {
		case llm.EventDelta:
			buf.WriteString(ev.Text)
			progress = min(progress+progressStep, progressCap)
			if err := emit(Update{Kind: UpdateDelta, Text: ev.Text, Progress: progress}); err != nil {
				return nil, fmt.Errorf("emit delta: %w", err)
			}

		case llm.EventComplete:
			text := buf.String()
			out := estimate(text)
			breakdown, err := calc.Calculate(a.InputTokens, out, a.Model)
			if err != nil {
				_ = emit(Update{Kind: UpdateFailure, Err: err})
				return nil, err
			}
			if err := emit(Update{Kind: UpdateCost, Cost: &breakdown}); err != nil {
				return nil, fmt.Errorf("emit cost: %w", err)
			}
			if err := emit(Update{Kind: UpdateComplete, Progress: progressDone}); err != nil {
				return nil, fmt.Errorf("emit complete: %w", err)
			}
			return &Result{
				Text:         text,
				Cost:         breakdown,
				InputTokens:  a.InputTokens,
				OutputTokens: out,
				Usage:        ev.Usage,
			}, nil

		default:
			err := ev.Err
			if err == nil {
				err = fmt.Errorf("unexpected event %v", ev.Kind)
			}
			if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
				return nil, err
			}
			if emitErr := emit(Update{Kind: UpdateFailure, Err: err}); emitErr != nil {
				return nil, errors.Join(err, emitErr)
			}
			return nil, err
		}
	}
}
