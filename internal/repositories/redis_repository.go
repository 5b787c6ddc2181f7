package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisRepository struct {
	rdb *redis.Client
}

func NewRedisRepository(rdb *redis.Client) *RedisRepository {
	return &RedisRepository{rdb: rdb}
}

func (r *RedisRepository) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	key := "blacklist:" + jti
	exists, err := r.rdb.Exists(ctx, key).Result()
	return exists == 1, err
}

// Blacklist keeps the token id revoked until the token would have expired anyway.
func (r *RedisRepository) Blacklist(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	key := "blacklist:" + jti
	return r.rdb.Set(ctx, key, "true", ttl).Err()
}

// CacheGet reports found=false on a cache miss.
func (r *RedisRepository) CacheGet(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := r.rdb.Get(ctx, "cache:"+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return val, true, nil
}

func (r *RedisRepository) CacheSet(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.rdb.Set(ctx, "cache:"+key, value, ttl).Err()
}

func (r *RedisRepository) CacheDelete(ctx context.Context, key string) error {
	return r.rdb.Del(ctx, "cache:"+key).Err()
}

func (r *RedisRepository) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}
