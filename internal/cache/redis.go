package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces every key written by RedisStore.
const DefaultRedisPrefix = "notequiz:cache:"

const (
	fieldValue     = "value"
	fieldCreatedAt = "created_at"
	scanBatch      = 100
)

// RedisOptions configures DialRedis.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// RedisStore keeps each entry in a hash with the JSON value and its
// creation time.
type RedisStore struct {
	rdb    redis.UniversalClient
	prefix string
}

var _ Store = (*RedisStore)(nil)

// DialRedis connects and pings the server.
func DialRedis(ctx context.Context, opts RedisOptions) (*RedisStore, error) {
	if opts.Addr == "" {
		return nil, fmt.Errorf("redis cache: missing address")
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:        opts.Addr,
		Password:    opts.Password,
		DB:          opts.DB,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewRedisStore(rdb, opts.Prefix), nil
}

// NewRedisStore wraps an existing client. An empty prefix uses
// DefaultRedisPrefix.
func NewRedisStore(rdb redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisStore{rdb: rdb, prefix: prefix}
}

// Close closes the underlying client.
func (r *RedisStore) Close() error {
	return r.rdb.Close()
}

func (r *RedisStore) key(k string) (string, error) {
	if k == "" {
		return "", ErrInvalidKey
	}
	return r.prefix + k, nil
}

func (r *RedisStore) Exists(ctx context.Context, key string) (bool, error) {
	k, err := r.key(key)
	if err != nil {
		return false, err
	}
	n, err := r.rdb.Exists(ctx, k).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists: %w", err)
	}
	return n > 0, nil
}

func (r *RedisStore) Load(ctx context.Context, key string) ([]byte, error) {
	k, err := r.key(key)
	if err != nil {
		return nil, err
	}
	data, err := r.rdb.HGet(ctx, k, fieldValue).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis load: %w", err)
	}
	return data, nil
}

func (r *RedisStore) Save(ctx context.Context, key string, value any) error {
	k, err := r.key(key)
	if err != nil {
		return err
	}
	data, err := encodeValue(value)
	if err != nil {
		return err
	}
	err = r.rdb.HSet(ctx, k,
		fieldValue, data,
		fieldCreatedAt, time.Now().UnixMilli(),
	).Err()
	if err != nil {
		return fmt.Errorf("redis save: %w", err)
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, key string) (bool, error) {
	k, err := r.key(key)
	if err != nil {
		return false, err
	}
	n, err := r.rdb.Del(ctx, k).Result()
	if err != nil {
		return false, fmt.Errorf("redis delete: %w", err)
	}
	return n > 0, nil
}

func (r *RedisStore) Clear(ctx context.Context, maxAge time.Duration) (int, error) {
	removed := 0
	err := r.scan(ctx, func(k string) error {
		if maxAge > 0 {
			age, err := r.age(ctx, k)
			if err != nil {
				return err
			}
			if age <= maxAge {
				return nil
			}
		}
		n, err := r.rdb.Del(ctx, k).Result()
		if err != nil {
			return fmt.Errorf("redis delete: %w", err)
		}
		removed += int(n)
		return nil
	})
	return removed, err
}

func (r *RedisStore) Stats(ctx context.Context) (Stats, error) {
	st := Stats{Backend: "redis"}
	now := time.Now()
	err := r.scan(ctx, func(k string) error {
		size, err := r.rdb.HStrLen(ctx, k, fieldValue).Result()
		if err != nil {
			return fmt.Errorf("redis strlen: %w", err)
		}
		age, err := r.age(ctx, k)
		if err != nil {
			return err
		}
		created := now.Add(-age)

		st.Entries++
		st.SizeBytes += size
		if st.Oldest.IsZero() || created.Before(st.Oldest) {
			st.Oldest = created
		}
		if created.After(st.Newest) {
			st.Newest = created
		}
		return nil
	})
	return st, err
}

// age prefers the stored created_at field and falls back to the object's
// idle time for entries written by something else.
func (r *RedisStore) age(ctx context.Context, k string) (time.Duration, error) {
	raw, err := r.rdb.HGet(ctx, k, fieldCreatedAt).Result()
	if err == nil {
		if ms, perr := strconv.ParseInt(raw, 10, 64); perr == nil {
			return time.Since(time.UnixMilli(ms)), nil
		}
	} else if !errors.Is(err, redis.Nil) {
		return 0, fmt.Errorf("redis created_at: %w", err)
	}

	idle, err := r.rdb.ObjectIdleTime(ctx, k).Result()
	if err != nil {
		return 0, fmt.Errorf("redis idle time: %w", err)
	}
	return idle, nil
}

func (r *RedisStore) scan(ctx context.Context, fn func(key string) error) error {
	var cursor uint64
	for {
		keys, next, err := r.rdb.Scan(ctx, cursor, r.prefix+"*", scanBatch).Result()
		if err != nil {
			return fmt.Errorf("redis scan: %w", err)
		}
		for _, k := range keys {
			if err := fn(k); err != nil {
				return err
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}
