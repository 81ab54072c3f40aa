package mem

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const redisKeyPrefix = "payments:verification:"

// RedisVerificationStore keeps verification outcomes in redis so every API
// replica shares them. Expiry is delegated to redis.
type RedisVerificationStore struct {
	client *redis.Client
	ttl    time.Duration
	clock  func() time.Time
	log    *zap.Logger
}

func NewRedisVerificationStore(client *redis.Client, ttl time.Duration, clock func() time.Time, log *zap.Logger) *RedisVerificationStore {
	if ttl <= 0 {
		ttl = DefaultCacheConfig().TTL
	}
	if clock == nil {
		clock = time.Now
	}
	return &RedisVerificationStore{client: client, ttl: ttl, clock: clock, log: log}
}

// Get treats any redis failure as a miss so confirmation falls through to the gateway.
func (r *RedisVerificationStore) Get(ctx context.Context, reference string) (*VerificationEntry, bool) {
	raw, err := r.client.Get(ctx, redisKeyPrefix+reference).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.log.Warn("verification cache read failed", zap.String("reference", reference), zap.Error(err))
		}
		return nil, false
	}

	var e VerificationEntry
	if err := json.Unmarshal(raw, &e); err != nil {
		r.log.Warn("verification cache entry corrupt", zap.String("reference", reference), zap.Error(err))
		return nil, false
	}
	return &e, true
}

func (r *RedisVerificationStore) Put(ctx context.Context, reference string, outcome Outcome, payload json.RawMessage) error {
	b, err := json.Marshal(VerificationEntry{
		Reference:  reference,
		Outcome:    outcome,
		Payload:    payload,
		RecordedAt: r.clock(),
	})
	if err != nil {
		return err
	}
	return r.client.Set(ctx, redisKeyPrefix+reference, b, r.ttl).Err()
}

func (r *RedisVerificationStore) Sweep() int { return 0 }
