package cost

// Exports for testing.

// RedisKV exposes the narrow client interface so tests can provide a fake.
type RedisKV = redisKV

// NewRedisStoreWithKV creates a RedisStore over a fake client.
func NewRedisStoreWithKV(kv RedisKV, opts ...RedisOption) *RedisStore {
	return NewRedisStore(nil, append([]RedisOption{withRedisKV(kv)}, opts...)...)
}
