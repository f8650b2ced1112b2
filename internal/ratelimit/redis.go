package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisLimiter - общие счетчики для нескольких инстансов
type RedisLimiter struct {
	client *redis.Client
	prefix string
}

func NewRedisLimiter(client *redis.Client, prefix string) *RedisLimiter {
	if prefix == "" {
		prefix = "ratelimit"
	}
	return &RedisLimiter{client: client, prefix: prefix}
}

// Allow - INCR + EXPIRE только для нового ключа, окно не продлевается
func (l *RedisLimiter) Allow(ctx context.Context, tier Tier, key string) (Result, error) {
	redisKey := fmt.Sprintf("%s:%s", l.prefix, bucketKey(tier, key))

	count, err := l.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return Result{Allowed: true, Limit: tier.Limit, Remaining: tier.Limit}, fmt.Errorf("redis error: %w", err)
	}
	if count == 1 {
		if err := l.client.Expire(ctx, redisKey, tier.Window).Err(); err != nil {
			return Result{Allowed: true, Limit: tier.Limit, Remaining: tier.Limit}, fmt.Errorf("redis error: %w", err)
		}
	}

	ttl, err := l.client.TTL(ctx, redisKey).Result()
	if err != nil {
		ttl = tier.Window
	}
	if ttl < 0 {
		// Ключ без срока (сбой между INCR и EXPIRE) - ставим заново
		_ = l.client.Expire(ctx, redisKey, tier.Window).Err()
		ttl = tier.Window
	}

	return newResult(tier, int(count), ttl), nil
}

// Reset удаляет счетчик ключа
func (l *RedisLimiter) Reset(ctx context.Context, tier Tier, key string) error {
	return l.client.Del(ctx, fmt.Sprintf("%s:%s", l.prefix, bucketKey(tier, key))).Err()
}

// Ping проверяет соединение (для health)
func (l *RedisLimiter) Ping(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}

// NewRedisClient разбирает redis:// URL
func NewRedisClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	opts.DialTimeout = 5 * time.Second
	return redis.NewClient(opts), nil
}
