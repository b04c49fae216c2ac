// Package cost prices LLM usage and keeps a per-day ledger of what was spent.
//
// Token counts are estimates (see EstimateTokens); prices are per 1,000 tokens
// and every monetary amount is rounded to 4 decimal places.
package cost

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"
	"unicode/utf8"
)

// ErrUnknownModel indicates a model missing from the pricing table.
// Pricing is never assumed, so this is a configuration error.
var ErrUnknownModel = errors.New("unknown model")

// Pricing is the USD price per 1,000 tokens for one model.
type Pricing struct {
	Name        string  `json:"name" mapstructure:"name"`
	InputPer1K  float64 `json:"inputPricePer1K" mapstructure:"input"`
	OutputPer1K float64 `json:"outputPricePer1K" mapstructure:"output"`
}

// Table maps model identifiers to their pricing.
type Table map[string]Pricing

// DefaultTable returns the built-in pricing table.
func DefaultTable() Table {
	return Table{
		"gpt-4o-mini": {Name: "GPT-4o-Mini", InputPer1K: 0.15, OutputPer1K: 0.075},
		"gpt-4o":      {Name: "GPT-4o", InputPer1K: 2.50, OutputPer1K: 1.25},
	}
}

// Models returns the priced model identifiers, sorted.
func (t Table) Models() []string {
	models := make([]string, 0, len(t))
	for m := range t {
		models = append(models, m)
	}
	slices.Sort(models)
	return models
}

// Breakdown is the priced usage of one request.
// Platforms is set only for recycling bundles.
type Breakdown struct {
	Model        string                  `json:"model"`
	InputTokens  int                     `json:"inputTokens"`
	OutputTokens int                     `json:"outputTokens"`
	InputCost    float64                 `json:"inputCost"`
	OutputCost   float64                 `json:"outputCost"`
	TotalCost    float64                 `json:"totalCost"`
	Timestamp    time.Time               `json:"timestamp"`
	Platforms    map[string]PlatformCost `json:"platformBreakdown,omitempty"`
}

// PlatformCost is one platform's share of a recycling bundle.
type PlatformCost struct {
	Tokens int     `json:"tokens"`
	Cost   float64 `json:"cost"`
}

// Calculator prices token counts against a Table.
type Calculator struct {
	table Table
	now   func() time.Time
}

// CalculatorOption configures a Calculator.
type CalculatorOption func(*Calculator)

// WithClock sets the time source used for Breakdown timestamps.
func WithClock(now func() time.Time) CalculatorOption {
	return func(c *Calculator) {
		if now != nil {
			c.now = now
		}
	}
}

// NewCalculator creates a Calculator. A nil or empty table uses DefaultTable.
func NewCalculator(table Table, opts ...CalculatorOption) *Calculator {
	if len(table) == 0 {
		table = DefaultTable()
	}
	c := &Calculator{table: table, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Calculate prices inputTokens and outputTokens for model.
// Returns ErrUnknownModel when model is not in the table.
func (c *Calculator) Calculate(inputTokens, outputTokens int, model string) (Breakdown, error) {
	p, ok := c.table[model]
	if !ok {
		return Breakdown{}, fmt.Errorf("no pricing for %q (priced: %s): %w",
			model, strings.Join(c.table.Models(), ", "), ErrUnknownModel)
	}

	inputCost := float64(inputTokens) / 1000 * p.InputPer1K
	outputCost := float64(outputTokens) / 1000 * p.OutputPer1K

	return Breakdown{
		Model:        model,
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		InputCost:    Round(inputCost),
		OutputCost:   Round(outputCost),
		TotalCost:    Round(inputCost + outputCost),
		Timestamp:    c.now(),
	}, nil
}

// Supports reports whether model has pricing.
func (c *Calculator) Supports(model string) bool {
	_, ok := c.table[model]
	return ok
}

// Calculate prices usage with the default table.
func Calculate(inputTokens, outputTokens int, model string) (Breakdown, error) {
	return NewCalculator(nil).Calculate(inputTokens, outputTokens, model)
}

// Round rounds v to 4 decimal places.
func Round(v float64) float64 {
	return math.Round(v*10000) / 10000
}

// Estimator returns a token count for text.
type Estimator func(text string) int

// EstimateTokens approximates tokens as ceil(characters/4).
// Characters are runes, so accented text is not over-counted.
func EstimateTokens(text string) int {
	return (utf8.RuneCountInString(text) + 3) / 4
}
