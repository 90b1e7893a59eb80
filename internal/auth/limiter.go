package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/smartrestaurant/backoffice.git/internal/redisx"
)

// RedisLimiter keeps the failed-attempt counter in Redis so it is shared by
// every server process. The key expires after the lockout window.
type RedisLimiter struct{ RDB *redis.Client }

func (l *RedisLimiter) key(accountID uuid.UUID) string {
	return fmt.Sprintf(redisx.KeyOTPFails, accountID)
}

func (l *RedisLimiter) Attempts(ctx context.Context, accountID uuid.UUID) (int, error) {
	n, err := l.RDB.Get(ctx, l.key(accountID)).Int()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return n, err
}

func (l *RedisLimiter) RecordFailure(ctx context.Context, accountID uuid.UUID) (int, error) {
	key := l.key(accountID)
	n, err := l.RDB.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if n == 1 {
		_ = l.RDB.Expire(ctx, key, redisx.TTLOTPFails).Err()
	}
	return int(n), nil
}

func (l *RedisLimiter) Reset(ctx context.Context, accountID uuid.UUID) error {
	return l.RDB.Del(ctx, l.key(accountID)).Err()
}
