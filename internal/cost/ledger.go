package cost

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// DateLayout is the format of ledger day keys.
const DateLayout = "2006-01-02"

// ErrInvalidDate indicates a day key that is not in DateLayout.
var ErrInvalidDate = errors.New("invalid date")

// DaySummary is the ledger for one calendar day.
type DaySummary struct {
	Date         string      `json:"date"`
	TotalCost    float64     `json:"totalCost"`
	RequestCount int         `json:"requestCount"`
	Model        string      `json:"model,omitempty"`
	Entries      []Breakdown `json:"breakdown"`
}

// Store persists day summaries. Implementations need not be safe for
// concurrent writers; the Ledger serializes access.
type Store interface {
	// Load returns the summary for date, or found=false when none exists.
	Load(ctx context.Context, date string) (summary DaySummary, found bool, err error)
	Save(ctx context.Context, summary DaySummary) error
	Delete(ctx context.Context, date string) error
}

// Ledger accumulates breakdowns per local calendar day.
// All methods are safe for concurrent use.
type Ledger struct {
	mu         sync.Mutex
	store      Store
	now        func() time.Time
	loc        *time.Location
	thresholds Thresholds
}

// LedgerOption configures a Ledger.
type LedgerOption func(*Ledger)

// WithLedgerClock sets the time source that decides "today".
func WithLedgerClock(now func() time.Time) LedgerOption {
	return func(l *Ledger) {
		if now != nil {
			l.now = now
		}
	}
}

// WithLocation sets the time zone that defines calendar days.
func WithLocation(loc *time.Location) LedgerOption {
	return func(l *Ledger) {
		if loc != nil {
			l.loc = loc
		}
	}
}

// WithThresholds sets the alert thresholds.
func WithThresholds(t Thresholds) LedgerOption {
	return func(l *Ledger) {
		l.thresholds = t
	}
}

// NewLedger creates a Ledger backed by store. A nil store keeps entries in memory.
func NewLedger(store Store, opts ...LedgerOption) *Ledger {
	if store == nil {
		store = NewMemoryStore()
	}
	l := &Ledger{
		store:      store,
		now:        time.Now,
		loc:        time.Local,
		thresholds: DefaultThresholds,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Today returns the current day key.
func (l *Ledger) Today() string {
	return l.now().In(l.loc).Format(DateLayout)
}

// Append adds b to today's summary and returns the updated summary.
// Each call adds one entry; callers must not replay a breakdown.
func (l *Ledger) Append(ctx context.Context, b Breakdown) (DaySummary, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	date := l.Today()
	summary, found, err := l.store.Load(ctx, date)
	if err != nil {
		return DaySummary{}, fmt.Errorf("load ledger %s: %w", date, err)
	}
	if !found {
		summary = DaySummary{Date: date, Model: b.Model}
	}

	summary.Entries = append(summary.Entries, b)
	summary.RequestCount++
	summary.TotalCost = Round(summary.TotalCost + b.TotalCost)

	if err := l.store.Save(ctx, summary); err != nil {
		return DaySummary{}, fmt.Errorf("save ledger %s: %w", date, err)
	}
	return summary, nil
}

// Summary returns today's summary; an empty summary when nothing was recorded.
func (l *Ledger) Summary(ctx context.Context) (DaySummary, error) {
	return l.Day(ctx, l.Today())
}

// Day returns the summary for date (DateLayout).
func (l *Ledger) Day(ctx context.Context, date string) (DaySummary, error) {
	if _, err := time.Parse(DateLayout, date); err != nil {
		return DaySummary{}, fmt.Errorf("%q is not YYYY-MM-DD: %w", date, ErrInvalidDate)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	summary, found, err := l.store.Load(ctx, date)
	if err != nil {
		return DaySummary{}, fmt.Errorf("load ledger %s: %w", date, err)
	}
	if !found {
		return DaySummary{Date: date, Entries: []Breakdown{}}, nil
	}
	return summary, nil
}

// Reset clears today's summary. Other days are untouched.
func (l *Ledger) Reset(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	date := l.Today()
	if err := l.store.Delete(ctx, date); err != nil {
		return fmt.Errorf("reset ledger %s: %w", date, err)
	}
	return nil
}

// Alert classifies a daily total against the ledger's thresholds.
func (l *Ledger) Alert(dailyTotal float64) Alert {
	return l.thresholds.Check(dailyTotal)
}
