package keyvalue

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

type Redis struct {
	rdb   *redis.Client
	sugar *zap.SugaredLogger
}

func NewRedis(rdb *redis.Client, sugar *zap.SugaredLogger) *Redis {
	return &Redis{rdb: rdb, sugar: sugar}
}

func (r *Redis) Get(ctx context.Context, key string) (string, error) {
	r.sugar.Debugf("Getting value of key [%s] from redis", key)

	value, err := r.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	} else if err != nil {
		return "", err
	}
	return value, nil
}

func (r *Redis) Exists(ctx context.Context, key string) (bool, error) {
	n, err := r.rdb.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *Redis) Set(ctx context.Context, key, value string, expires time.Duration) error {
	r.sugar.Debugf("Setting key [%s] in redis for %s", key, expires)
	return r.rdb.Set(ctx, key, value, expires).Err()
}

func (r *Redis) Del(ctx context.Context, key string) error {
	return r.rdb.Del(ctx, key).Err()
}
