package store

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
)

type RedisConfig struct {
	Host          string
	Port          int
	DB            int
	SocketTimeout time.Duration
}

// Redis is the production Store backend. The client pools connections and is
// shared by all in-flight requests; every call is bounded by the socket
// timeout, after which it falls under the retry policy.
type Redis struct {
	client *redis.Client
	log    *zerolog.Logger
	read   retryPolicy
	write  retryPolicy
}

func NewRedis(cfg RedisConfig, log *zerolog.Logger) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:         net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		DB:           cfg.DB,
		DialTimeout:  cfg.SocketTimeout,
		ReadTimeout:  cfg.SocketTimeout,
		WriteTimeout: cfg.SocketTimeout,
	})
	return &Redis{
		client: client,
		log:    log,
		read:   retryPolicy{attempts: readAttempts, log: log},
		write:  retryPolicy{attempts: writeAttempts, log: log},
	}
}

func (r *Redis) CacheGet(ctx context.Context, key string) (any, error) {
	raw, found, err := r.fetch(ctx, key)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	var value any
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		return nil, fmt.Errorf("malformed payload at key %s: %w", key, err)
	}
	r.log.Debug().Str("key", key).Msg("key read from cache")
	return value, nil
}

func (r *Redis) CacheSet(ctx context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode value for key %s: %w", key, err)
	}
	err = r.write.do("cache_set", func() error {
		return r.client.Set(ctx, key, raw, ttl).Err()
	})
	if err != nil {
		return err
	}
	r.log.Debug().Str("key", key).Msg("key stored in cache")
	return nil
}

func (r *Redis) Get(ctx context.Context, key string) (any, error) {
	raw, found, err := r.fetch(ctx, key)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrKeyNotSet, key)
	}
	var value any
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		return nil, fmt.Errorf("malformed payload at key %s: %w", key, err)
	}
	return value, nil
}

func (r *Redis) fetch(ctx context.Context, key string) (raw string, found bool, err error) {
	err = r.read.do("get", func() error {
		val, err := r.client.Get(ctx, key).Result()
		if err == redis.Nil {
			found = false
			return nil
		}
		if err != nil {
			return err
		}
		raw, found = val, true
		return nil
	})
	return raw, found, err
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *Redis) Close() error {
	return r.client.Close()
}
