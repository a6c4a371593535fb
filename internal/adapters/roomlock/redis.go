package roomlock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/luan-vieira-er/28-BYTCHE-sub000/internal/app"
	"github.com/luan-vieira-er/28-BYTCHE-sub000/internal/domain"
)

const (
	defaultRetry   = 25 * time.Millisecond
	releaseTimeout = 2 * time.Second
)

// releaseScript deletes the key only while it still holds our token, so an
// expired lease never releases the next holder.
const releaseScript = `if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`

// redisAPI is the subset of *redis.Client used here.
type redisAPI interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
	Ping(ctx context.Context) *redis.StatusCmd
	Close() error
}

// RedisLocks is a RoomLocker shared by every instance pointing at the same
// Redis. A lock is a lease under lock:room:{id} that expires after ttl even
// if the holder dies.
type RedisLocks struct {
	client  redisAPI
	ttl     time.Duration
	timeout time.Duration
	retry   time.Duration
}

func NewRedisLocks(ctx context.Context, redisURL string, ttl, timeout time.Duration) (*RedisLocks, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("roomlock: parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("roomlock: ping redis: %w", err)
	}
	return newRedisLocks(client, ttl, timeout), nil
}

func newRedisLocks(client redisAPI, ttl, timeout time.Duration) *RedisLocks {
	return &RedisLocks{client: client, ttl: ttl, timeout: timeout, retry: defaultRetry}
}

func lockKey(id domain.RoomID) string {
	return fmt.Sprintf("lock:room:%s", id)
}

// Acquire polls for the lease until it is free or the context (bounded by
// the lock timeout) ends.
func (l *RedisLocks) Acquire(ctx context.Context, id domain.RoomID) (func(), error) {
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	key := lockKey(id)
	token := uuid.NewString()
	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				err = ctxErr
			}
			return nil, fmt.Errorf("roomlock: lock room %s: %w", id, err)
		}
		if ok {
			break
		}
		t := time.NewTimer(l.retry)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, fmt.Errorf("roomlock: lock room %s: %w", id, ctx.Err())
		case <-t.C:
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() { l.release(key, token) })
	}, nil
}

// release runs on its own context: the caller's may already be done.
func (l *RedisLocks) release(key, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
	defer cancel()
	n, err := l.client.Eval(ctx, releaseScript, []string{key}, token).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		log.Error().Err(err).Str("module", "roomlock").Str("key", key).Msg("release lease")
		return
	}
	if n == 0 {
		log.Warn().Str("module", "roomlock").Str("key", key).Dur("ttl", l.ttl).Msg("lease expired before release")
	}
}

func (l *RedisLocks) Close() error {
	return l.client.Close()
}

var _ app.RoomLocker = (*RedisLocks)(nil)
