package quota

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kampusgratis/assistant/internal/identity"
)

// RedisTracker counts day buckets with INCR on date-suffixed keys.
// Keys expire on their own, so no purge job is needed for this driver
type RedisTracker struct {
	client *redis.Client
	limits Limits
}

// NewRedisTracker creates a tracker backed by the given redis URL
func NewRedisTracker(redisURL string, limits Limits) (*RedisTracker, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	return &RedisTracker{client: redis.NewClient(opt), limits: limits}, nil
}

func (t *RedisTracker) key(identifier string, now time.Time) string {
	return fmt.Sprintf("quota:%s:%s", identifier, dayKey(now))
}

// Check implements Tracker
func (t *RedisTracker) Check(ctx context.Context, identifier string, kind identity.Kind) (Snapshot, error) {
	now := time.Now()

	if kind == identity.KindAdmin {
		return snapshot(t.limits, kind, 0, now), nil
	}

	used, err := t.client.Get(ctx, t.key(identifier, now)).Int()
	if err != nil && !errors.Is(err, redis.Nil) {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return snapshot(t.limits, kind, used, now), nil
}

// Increment implements Tracker. INCR is atomic on the server, so concurrent
// requests for the same identifier are counted exactly once each
func (t *RedisTracker) Increment(ctx context.Context, identifier string, kind identity.Kind) error {
	now := time.Now()
	key := t.key(identifier, now)

	count, err := t.client.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	// First write of the day sets the expiry; day buckets only matter until
	// the retention window passes
	if count == 1 {
		t.client.Expire(ctx, key, 48*time.Hour)
	}

	return nil
}

// Reset implements Tracker
func (t *RedisTracker) Reset(ctx context.Context, identifier string) error {
	if err := t.client.Del(ctx, t.key(identifier, time.Now())).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// Close releases the redis connection
func (t *RedisTracker) Close() error {
	return t.client.Close()
}
