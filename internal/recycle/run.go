package recycle

import (
	"context"
	"fmt"
	"runtime/debug"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/alnah/go-contentflow/internal/content"
	"github.com/alnah/go-contentflow/internal/cost"
	"github.com/alnah/go-contentflow/internal/llm"
	"github.com/alnah/go-contentflow/internal/metrics"
	"github.com/alnah/go-contentflow/internal/platform"
	"github.com/alnah/go-contentflow/internal/prompt"
)

// outcome is the slot filled by one platform task.
type outcome struct {
	record       content.FormatRecord
	inputTokens  int
	outputTokens int
	priced       cost.Breakdown
	err          error
}

// Recycle runs req. Only validation errors and an unpriced model are
// returned: a platform that fails is dropped from the bundle and listed in
// Result.Failed.
func (s *Service) Recycle(ctx context.Context, req Request) (_ *Result, err error) {
	start := s.now()
	ctx, span := tracer.Start(ctx, "recycle.Recycle")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	s.observe(StateValidating)
	j, err := validate(req)
	if err != nil {
		s.observe(StateRejected)
		return nil, err
	}
	span.SetAttributes(attribute.Int("recycle.platforms", len(j.platforms)))

	model := s.client.Model()
	if !s.calc.Supports(model) {
		s.observe(StateRejected)
		return nil, fmt.Errorf("model %q: %w", model, cost.ErrUnknownModel)
	}

	s.observe(StateDispatching)
	slots := make([]outcome, len(j.platforms))

	// Tasks never return an error, so one failure cannot cancel the others.
	var g errgroup.Group
	for i, p := range j.platforms {
		g.Go(func() error {
			slots[i] = s.runPlatform(ctx, j, p, model)
			return nil
		})
	}

	s.observe(StateAwaitingAll)
	_ = g.Wait()

	s.observe(StateAssembling)
	res := s.assemble(j, slots, model)
	res.Duration = s.now().Sub(start)
	s.record(ctx, res)

	metrics.RecycleDuration.Observe(res.Duration.Seconds())
	s.log.Info("recycling complete",
		zap.Int("requested", len(j.platforms)),
		zap.Int("succeeded", len(res.Bundle.Formats)),
		zap.Float64("total_cost", res.Cost.TotalCost),
		zap.Duration("duration", res.Duration))

	s.observe(StateDone)
	return res, nil
}

// runPlatform produces one platform's record. Panics become errors.
func (s *Service) runPlatform(ctx context.Context, j job, p platform.Platform, model string) (out outcome) {
	ctx, span := tracer.Start(ctx, "recycle.platform",
		trace.WithAttributes(attribute.String("recycle.platform", p.String())))
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("platform task panicked",
				zap.String("platform", p.String()),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()))
			out = outcome{err: fmt.Errorf("panic: %v", r)}
		}
		if out.err != nil {
			span.RecordError(out.err)
			span.SetStatus(codes.Error, out.err.Error())
		}
		metrics.RecyclePlatformTotal.WithLabelValues(p.String(), metrics.Status(out.err)).Inc()
		span.End()
	}()

	pr, err := prompt.Recycling(prompt.RecyclingInput{
		Content:  j.content,
		Platform: p,
		Tone:     j.tone,
		Industry: j.industry,
		Language: s.language,
	})
	if err != nil {
		return outcome{err: err}
	}

	comp, err := s.client.Complete(ctx, llm.Request{
		System:      pr.System,
		User:        pr.User,
		Platform:    p.String(),
		MaxTokens:   s.maxTokens,
		Temperature: s.temperature,
		ExpectJSON:  true,
	})
	if err != nil {
		return outcome{err: err}
	}

	in := s.estimate(pr.System + pr.User)
	outTokens := s.estimate(comp.Text)
	priced, err := s.calc.Calculate(in, outTokens, model)
	if err != nil {
		return outcome{err: err}
	}

	rec := s.normalizer.Normalize(comp.Text, p)
	rec.ID = s.newID()

	return outcome{
		record:       rec,
		inputTokens:  in,
		outputTokens: outTokens,
		priced:       priced,
	}
}

// assemble builds the bundle and aggregate cost from succeeded slots,
// keeping request order.
func (s *Service) assemble(j job, slots []outcome, model string) *Result {
	now := s.now()
	res := &Result{
		Bundle: content.Bundle{
			ID:              s.newID(),
			OriginalContent: j.content,
			Formats:         make([]content.FormatRecord, 0, len(slots)),
			CreatedAt:       now,
			UpdatedAt:       now,
		},
	}

	// Amounts are sums of the rounded per-platform amounts.
	total := cost.Breakdown{Model: model, Timestamp: now}
	perPlatform := make(map[string]cost.PlatformCost, len(slots))
	for i, o := range slots {
		p := j.platforms[i]
		if o.err != nil {
			s.log.Warn("platform dropped from bundle",
				zap.String("platform", p.String()),
				zap.Error(o.err))
			res.Failed = append(res.Failed, FailedPlatform{Platform: p, Err: o.err})
			continue
		}
		res.Bundle.Formats = append(res.Bundle.Formats, o.record)
		total.InputTokens += o.inputTokens
		total.OutputTokens += o.outputTokens
		total.InputCost += o.priced.InputCost
		total.OutputCost += o.priced.OutputCost
		total.TotalCost += o.priced.TotalCost
		perPlatform[p.String()] = cost.PlatformCost{
			Tokens: o.inputTokens + o.outputTokens,
			Cost:   o.priced.TotalCost,
		}
	}
	total.InputCost = cost.Round(total.InputCost)
	total.OutputCost = cost.Round(total.OutputCost)
	total.TotalCost = cost.Round(total.TotalCost)
	total.Platforms = perPlatform
	res.Cost = total
	res.Bundle.Cost = &res.Cost
	return res
}

// record updates metrics and the ledger. The ledger is best-effort.
func (s *Service) record(ctx context.Context, res *Result) {
	if len(res.Bundle.Formats) == 0 {
		return
	}
	metrics.LLMTokensUsed.WithLabelValues(res.Cost.Model, "input").Add(float64(res.Cost.InputTokens))
	metrics.LLMTokensUsed.WithLabelValues(res.Cost.Model, "output").Add(float64(res.Cost.OutputTokens))
	metrics.CostUSDTotal.WithLabelValues(res.Cost.Model, "recycle").Add(res.Cost.TotalCost)

	if s.ledger == nil {
		return
	}
	summary, err := s.ledger.Append(context.WithoutCancel(ctx), res.Cost)
	if err != nil {
		s.log.Error("failed to record cost", zap.Error(err))
		return
	}
	metrics.CostDailyUSD.Set(summary.TotalCost)
	if alert := s.ledger.Alert(summary.TotalCost); alert.ShouldAlert {
		s.log.Warn(alert.Message, zap.Float64("daily_total", summary.TotalCost), zap.String("level", alert.Level.String()))
	}
}
