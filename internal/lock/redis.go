package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// releaseScript удаляет ключ, только если он всё ещё наш.
var releaseScript = redis.NewScript(`
	if redis.call('GET', KEYS[1]) == ARGV[1] then
		return redis.call('DEL', KEYS[1])
	end
	return 0
`)

type RedisOptions struct {
	TTL     time.Duration
	Retries int
	Backoff time.Duration
}

// RedisLocker — SET NX PX со случайным токеном; при занятом ключе ждёт
// Backoff и пробует снова, всего Retries раз.
type RedisLocker struct {
	rdb    *redis.Client
	opts   RedisOptions
	logger *zap.Logger
}

func NewRedisLocker(rdb *redis.Client, opts RedisOptions, logger *zap.Logger) *RedisLocker {
	if opts.TTL <= 0 {
		opts.TTL = 5 * time.Second
	}
	if opts.Retries <= 0 {
		opts.Retries = 20
	}
	if opts.Backoff <= 0 {
		opts.Backoff = 50 * time.Millisecond
	}
	return &RedisLocker{rdb: rdb, opts: opts, logger: logger}
}

func (l *RedisLocker) Acquire(ctx context.Context, keys ...string) (func(), error) {
	keys = normalize(keys)
	token := uuid.NewString()
	held := make([]string, 0, len(keys))

	release := func() {
		// отпускаем даже если ctx запроса уже отменён
		rctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		for _, k := range held {
			if err := releaseScript.Run(rctx, l.rdb, []string{k}, token).Err(); err != nil {
				l.logger.Warn("failed to release calendar lock", zap.String("key", k), zap.Error(err))
			}
		}
	}

	for _, k := range keys {
		if err := l.acquireOne(ctx, k, token); err != nil {
			release()
			return nil, err
		}
		held = append(held, k)
	}

	var once sync.Once
	return func() { once.Do(release) }, nil
}

func (l *RedisLocker) acquireOne(ctx context.Context, key, token string) error {
	for attempt := 0; attempt < l.opts.Retries; attempt++ {
		ok, err := l.rdb.SetNX(ctx, key, token, l.opts.TTL).Result()
		if err != nil {
			l.logger.Error("failed to acquire calendar lock", zap.String("key", key), zap.Error(err))
			return fmt.Errorf("acquire %s: %w", key, err)
		}
		if ok {
			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %w", ErrBusy, ctx.Err())
		case <-time.After(l.opts.Backoff):
		}
	}
	return ErrBusy
}
