package cost_test

// Notes:
// - Ledger tests run against every Store implementation through one table.
// - Redis is replaced by an in-memory fake of the narrow client interface;
//   wire-level behavior of go-redis is not under test here.
// - The clock is injected so "today" and day rollover are deterministic.

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/redis/go-redis/v9"

	"github.com/alnah/go-contentflow/internal/cost"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// fakeRedis is a map-backed stand-in for *redis.Client.
type fakeRedis struct {
	mu   sync.Mutex
	data map[string]string
	ttls map[string]time.Duration
	err  error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return redis.NewStringResult("", f.err)
	}
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return redis.NewStatusResult("", f.err)
	}
	switch v := value.(type) {
	case []byte:
		f.data[key] = string(v)
	case string:
		f.data[key] = v
	}
	f.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, k := range keys {
		if _, ok := f.data[k]; ok {
			delete(f.data, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

// clock is a settable time source.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func breakdown(t *testing.T, in, out int) cost.Breakdown {
	t.Helper()
	b, err := cost.Calculate(in, out, "gpt-4o-mini")
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	return b
}

func stores(t *testing.T) map[string]cost.Store {
	t.Helper()
	return map[string]cost.Store{
		"memory": cost.NewMemoryStore(),
		"file":   cost.NewFileStore(filepath.Join(t.TempDir(), "ledger.json")),
		"redis":  cost.NewRedisStoreWithKV(newFakeRedis()),
	}
}

// ---------------------------------------------------------------------------
// TestLedger - behavior shared by every store
// ---------------------------------------------------------------------------

func TestLedger(t *testing.T) {
	t.Parallel()

	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			ctx := context.Background()
			clk := &clock{now: time.Date(2026, 5, 2, 10, 0, 0, 0, time.UTC)}
			ledger := cost.NewLedger(store,
				cost.WithLedgerClock(clk.Now),
				cost.WithLocation(time.UTC))

			entries := []cost.Breakdown{
				breakdown(t, 1000, 1000),
				breakdown(t, 120, 800),
				breakdown(t, 40, 333),
			}
			var want float64
			var last cost.DaySummary
			for _, b := range entries {
				want = cost.Round(want + b.TotalCost)
				var err error
				last, err = ledger.Append(ctx, b)
				if err != nil {
					t.Fatalf("Append: %v", err)
				}
			}

			if last.RequestCount != 3 {
				t.Errorf("RequestCount = %d, want 3", last.RequestCount)
			}
			if last.TotalCost != want {
				t.Errorf("TotalCost = %v, want %v", last.TotalCost, want)
			}

			got, err := ledger.Summary(ctx)
			if err != nil {
				t.Fatalf("Summary: %v", err)
			}
			if got.Date != "2026-05-02" || len(got.Entries) != 3 {
				t.Fatalf("Summary = %s with %d entries", got.Date, len(got.Entries))
			}
			if diff := cmp.Diff(entries[1].TotalCost, got.Entries[1].TotalCost); diff != "" {
				t.Errorf("entry order changed (-want +got):\n%s", diff)
			}

			// Next day starts fresh; reset only clears that day.
			clk.Set(clk.Now().Add(24 * time.Hour))
			if _, err := ledger.Append(ctx, breakdown(t, 10, 10)); err != nil {
				t.Fatalf("Append next day: %v", err)
			}
			if err := ledger.Reset(ctx); err != nil {
				t.Fatalf("Reset: %v", err)
			}

			today, err := ledger.Summary(ctx)
			if err != nil {
				t.Fatalf("Summary after reset: %v", err)
			}
			if today.RequestCount != 0 || today.TotalCost != 0 {
				t.Errorf("today after reset = %+v, want empty", today)
			}

			yesterday, err := ledger.Day(ctx, "2026-05-02")
			if err != nil {
				t.Fatalf("Day: %v", err)
			}
			if yesterday.RequestCount != 3 {
				t.Errorf("previous day RequestCount = %d, want 3", yesterday.RequestCount)
			}
		})
	}
}

func TestLedger_ConcurrentAppends(t *testing.T) {
	t.Parallel()

	ledger := cost.NewLedger(nil)
	b := breakdown(t, 100, 100)

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := ledger.Append(context.Background(), b); err != nil {
				t.Errorf("Append: %v", err)
			}
		}()
	}
	wg.Wait()

	got, err := ledger.Summary(context.Background())
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if got.RequestCount != 50 || len(got.Entries) != 50 {
		t.Errorf("RequestCount = %d, entries = %d, want 50", got.RequestCount, len(got.Entries))
	}
}

func TestLedger_LocalCalendarDay(t *testing.T) {
	t.Parallel()

	tokyo := time.FixedZone("JST", 9*60*60)
	// 20:00 UTC on May 2 is already May 3 in Tokyo.
	at := time.Date(2026, 5, 2, 20, 0, 0, 0, time.UTC)
	ledger := cost.NewLedger(nil,
		cost.WithLedgerClock(func() time.Time { return at }),
		cost.WithLocation(tokyo))

	if got := ledger.Today(); got != "2026-05-03" {
		t.Errorf("Today() = %q, want 2026-05-03", got)
	}
}

func TestLedger_Day_InvalidDate(t *testing.T) {
	t.Parallel()

	_, err := cost.NewLedger(nil).Day(context.Background(), "02/05/2026")
	if !errors.Is(err, cost.ErrInvalidDate) {
		t.Errorf("error = %v, want ErrInvalidDate", err)
	}
}

func TestLedger_StoreErrorsPropagate(t *testing.T) {
	t.Parallel()

	fake := newFakeRedis()
	fake.err = errors.New("connection refused")
	ledger := cost.NewLedger(cost.NewRedisStoreWithKV(fake))

	if _, err := ledger.Append(context.Background(), breakdown(t, 1, 1)); err == nil {
		t.Error("Append should fail when the store fails")
	}
}

func TestRedisStore_KeysAndRetention(t *testing.T) {
	t.Parallel()

	fake := newFakeRedis()
	store := cost.NewRedisStoreWithKV(fake,
		cost.WithKeyPrefix("test:"),
		cost.WithRetention(48*time.Hour))

	if err := store.Save(context.Background(), cost.DaySummary{Date: "2026-01-01", RequestCount: 1}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, ok := fake.data["test:2026-01-01"]; !ok {
		t.Errorf("keys = %v, want test:2026-01-01", fake.data)
	}
	if fake.ttls["test:2026-01-01"] != 48*time.Hour {
		t.Errorf("ttl = %v, want 48h", fake.ttls["test:2026-01-01"])
	}
}

func TestLedger_Alert(t *testing.T) {
	t.Parallel()

	ledger := cost.NewLedger(nil, cost.WithThresholds(cost.DevelopmentThresholds))
	if got := ledger.Alert(3).Level; got != cost.LevelWarning {
		t.Errorf("Alert(3) = %v, want warning", got)
	}
}
