package cost

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("contentflow/cost")

// DefaultKeyPrefix prefixes every ledger key in Redis.
const DefaultKeyPrefix = "contentflow:costs:"

// redisKV is the subset of redis.Cmdable used by RedisStore.
// *redis.Client implements it.
type redisKV interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisStore keeps one JSON document per day under prefix+date.
type RedisStore struct {
	rdb    redisKV
	prefix string
	ttl    time.Duration
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithKeyPrefix overrides DefaultKeyPrefix.
func WithKeyPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// WithRetention expires day keys after d. Zero keeps them forever.
func WithRetention(d time.Duration) RedisOption {
	return func(s *RedisStore) {
		if d >= 0 {
			s.ttl = d
		}
	}
}

// withRedisKV swaps the client (for testing).
func withRedisKV(kv redisKV) RedisOption {
	return func(s *RedisStore) {
		s.rdb = kv
	}
}

// NewRedisStore wraps an existing client.
func NewRedisStore(rdb *redis.Client, opts ...RedisOption) *RedisStore {
	s := &RedisStore{rdb: rdb, prefix: DefaultKeyPrefix}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DialRedis connects to addr and verifies the connection with PING.
func DialRedis(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", addr, err)
	}
	return rdb, nil
}

func (s *RedisStore) key(date string) string {
	return s.prefix + date
}

// Load implements Store.
func (s *RedisStore) Load(ctx context.Context, date string) (DaySummary, bool, error) {
	ctx, span := tracer.Start(ctx, "ledger.Load",
		trace.WithAttributes(attribute.String("ledger.date", date)))
	defer span.End()

	raw, err := s.rdb.Get(ctx, s.key(date)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return DaySummary{}, false, nil
		}
		span.RecordError(err)
		return DaySummary{}, false, fmt.Errorf("redis get: %w", err)
	}

	var d DaySummary
	if err := json.Unmarshal(raw, &d); err != nil {
		span.RecordError(err)
		return DaySummary{}, false, fmt.Errorf("decode %s: %w", s.key(date), err)
	}
	return d, true, nil
}

// Save implements Store.
func (s *RedisStore) Save(ctx context.Context, summary DaySummary) error {
	ctx, span := tracer.Start(ctx, "ledger.Save",
		trace.WithAttributes(
			attribute.String("ledger.date", summary.Date),
			attribute.Int("ledger.requests", summary.RequestCount),
		))
	defer span.End()

	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}
	if err := s.rdb.Set(ctx, s.key(summary.Date), data, s.ttl).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Delete implements Store.
func (s *RedisStore) Delete(ctx context.Context, date string) error {
	ctx, span := tracer.Start(ctx, "ledger.Delete",
		trace.WithAttributes(attribute.String("ledger.date", date)))
	defer span.End()

	if err := s.rdb.Del(ctx, s.key(date)).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
