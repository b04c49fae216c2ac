package cost_test

// Notes:
// - Calculator tests pin the published per-1K prices and 4-decimal rounding.
// - EstimateTokens counts runes, so multi-byte text is not over-estimated.

import (
	"errors"
	"testing"
	"time"

	"github.com/alnah/go-contentflow/internal/cost"
)

// ---------------------------------------------------------------------------
// TestCalculate
// ---------------------------------------------------------------------------

func TestCalculate(t *testing.T) {
	t.Parallel()

	fixed := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	calc := cost.NewCalculator(nil, cost.WithClock(func() time.Time { return fixed }))

	tests := []struct {
		name       string
		in, out    int
		model      string
		wantInput  float64
		wantOutput float64
		wantTotal  float64
	}{
		{"mini 1K/1K", 1000, 1000, "gpt-4o-mini", 0.15, 0.075, 0.225},
		{"4o 1K/1K", 1000, 1000, "gpt-4o", 2.5, 1.25, 3.75},
		{"zero tokens", 0, 0, "gpt-4o-mini", 0, 0, 0},
		{"rounds to 4 decimals", 10, 13, "gpt-4o-mini", 0.0015, 0.001, 0.0025},
		{"small generation", 25, 250, "gpt-4o", 0.0625, 0.3125, 0.375},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := calc.Calculate(tt.in, tt.out, tt.model)
			if err != nil {
				t.Fatalf("Calculate() unexpected error: %v", err)
			}
			if got.InputCost != tt.wantInput || got.OutputCost != tt.wantOutput || got.TotalCost != tt.wantTotal {
				t.Errorf("Calculate(%d, %d, %q) = in %v out %v total %v, want %v %v %v",
					tt.in, tt.out, tt.model, got.InputCost, got.OutputCost, got.TotalCost,
					tt.wantInput, tt.wantOutput, tt.wantTotal)
			}
			if got.Model != tt.model || got.InputTokens != tt.in || got.OutputTokens != tt.out {
				t.Errorf("Calculate() echoed %+v", got)
			}
			if !got.Timestamp.Equal(fixed) {
				t.Errorf("Timestamp = %v, want %v", got.Timestamp, fixed)
			}
		})
	}
}

func TestCalculate_UnknownModel(t *testing.T) {
	t.Parallel()

	_, err := cost.Calculate(10, 10, "gpt-5-ultra")
	if !errors.Is(err, cost.ErrUnknownModel) {
		t.Fatalf("error = %v, want ErrUnknownModel", err)
	}
}

func TestCalculator_CustomTable(t *testing.T) {
	t.Parallel()

	calc := cost.NewCalculator(cost.Table{"local": {InputPer1K: 1, OutputPer1K: 2}})
	if calc.Supports("gpt-4o") {
		t.Error("custom table should replace defaults")
	}
	got, err := calc.Calculate(500, 500, "local")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.TotalCost != 1.5 {
		t.Errorf("TotalCost = %v, want 1.5", got.TotalCost)
	}
}

// ---------------------------------------------------------------------------
// TestEstimateTokens
// ---------------------------------------------------------------------------

func TestEstimateTokens(t *testing.T) {
	t.Parallel()

	tests := []struct {
		text string
		want int
	}{
		{"", 0},
		{"a", 1},
		{"abcd", 1},
		{"abcde", 2},
		{"ñandú", 2},
		{"12345678", 2},
	}

	for _, tt := range tests {
		if got := cost.EstimateTokens(tt.text); got != tt.want {
			t.Errorf("EstimateTokens(%q) = %d, want %d", tt.text, got, tt.want)
		}
	}
}

func TestRound(t *testing.T) {
	t.Parallel()

	if got := cost.Round(0.12345); got != 0.1235 && got != 0.1234 {
		t.Errorf("Round(0.12345) = %v", got)
	}
	if got := cost.Round(1.00004); got != 1 {
		t.Errorf("Round(1.00004) = %v, want 1", got)
	}
}

// ---------------------------------------------------------------------------
// TestThresholds
// ---------------------------------------------------------------------------

func TestThresholds(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		thresholds cost.Thresholds
		total      float64
		want       cost.Level
		wantLimit  float64
	}{
		{"below warning", cost.DefaultThresholds, 19.99, cost.LevelNone, 0},
		{"at warning", cost.DefaultThresholds, 20, cost.LevelWarning, 20},
		{"at danger", cost.DefaultThresholds, 50, cost.LevelDanger, 50},
		{"dev warning", cost.DevelopmentThresholds, 2.5, cost.LevelWarning, 2},
		{"dev danger", cost.DevelopmentThresholds, 7, cost.LevelDanger, 5},
		{"disabled", cost.Thresholds{}, 1000, cost.LevelNone, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := tt.thresholds.Check(tt.total)
			if got.Level != tt.want {
				t.Errorf("Check(%v).Level = %v, want %v", tt.total, got.Level, tt.want)
			}
			if got.ShouldAlert != (tt.want != cost.LevelNone) {
				t.Errorf("Check(%v).ShouldAlert = %v", tt.total, got.ShouldAlert)
			}
			if got.ShouldAlert && got.Message == "" {
				t.Error("alert without message")
			}
			if got.Limit != tt.wantLimit {
				t.Errorf("Check(%v).Limit = %v, want %v", tt.total, got.Limit, tt.wantLimit)
			}
		})
	}
}
