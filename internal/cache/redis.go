package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrCacheMiss is returned when a key is absent or already expired.
	ErrCacheMiss = errors.New("cache: key not found")
	// ErrContended is returned when Mutate keeps losing the key to other writers.
	ErrContended = errors.New("cache: too much contention on key")
)

// maxMutateRetries bounds how often Mutate restarts after a concurrent write.
const maxMutateRetries = 16

// MutationOp is what Mutate does with the key after the callback decided.
type MutationOp int

const (
	OpNone MutationOp = iota
	OpSet
	OpDelete
)

// Mutation is the write a MutateFunc asks for. Value and TTL apply to OpSet.
type Mutation struct {
	Op    MutationOp
	Value string
	TTL   time.Duration
}

// MutateFunc inspects the current value of a key (found is false when it is
// absent) and returns the write to apply.
type MutateFunc func(value string, found bool) (Mutation, error)

// Cache is a small key-value abstraction over redis used for state that must
// be shared between API instances.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, expiration time.Duration) error
	Delete(ctx context.Context, key string) error
	// Mutate applies fn to key atomically: the write only lands if nobody
	// changed the key since fn read it, otherwise fn runs again.
	Mutate(ctx context.Context, key string, fn MutateFunc) error
	SetJSON(ctx context.Context, key string, value any, expiration time.Duration) error
	GetJSON(ctx context.Context, key string, dest any) error
	Close() error
}

type redisCache struct {
	client *redis.Client
}

// NewRedisCache connects to redisURL and pings it before returning.
func NewRedisCache(ctx context.Context, redisURL string) (Cache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		// plain host:port
		opt = &redis.Options{Addr: redisURL}
	}

	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewFromClient(client), nil
}

// NewFromClient wraps an existing redis client.
func NewFromClient(client *redis.Client) Cache {
	return &redisCache{client: client}
}

func (r *redisCache) Get(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrCacheMiss
	}
	if err != nil {
		return "", fmt.Errorf("redis get %s: %w", key, err)
	}
	return val, nil
}

func (r *redisCache) Set(ctx context.Context, key string, value string, expiration time.Duration) error {
	if err := r.client.Set(ctx, key, value, expiration).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (r *redisCache) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

func (r *redisCache) Mutate(ctx context.Context, key string, fn MutateFunc) error {
	txf := func(tx *redis.Tx) error {
		value, err := tx.Get(ctx, key).Result()
		found := true
		if errors.Is(err, redis.Nil) {
			found = false
		} else if err != nil {
			return fmt.Errorf("redis get %s: %w", key, err)
		}

		m, err := fn(value, found)
		if err != nil {
			return err
		}
		if m.Op == OpNone {
			return nil
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			switch m.Op {
			case OpSet:
				pipe.Set(ctx, key, m.Value, m.TTL)
			case OpDelete:
				pipe.Del(ctx, key)
			}
			return nil
		})
		return err
	}

	for i := 0; i < maxMutateRetries; i++ {
		err := r.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return fmt.Errorf("redis mutate %s: %w", key, err)
		}
		return nil
	}
	return fmt.Errorf("redis mutate %s: %w", key, ErrContended)
}

// SetJSON stores a JSON-serializable value in cache
func (r *redisCache) SetJSON(ctx context.Context, key string, value any, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return r.Set(ctx, key, string(data), expiration)
}

// GetJSON retrieves and unmarshals a JSON value from cache
func (r *redisCache) GetJSON(ctx context.Context, key string, dest any) error {
	data, err := r.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(data), dest); err != nil {
		return fmt.Errorf("failed to unmarshal JSON: %w", err)
	}
	return nil
}

func (r *redisCache) Close() error {
	return r.client.Close()
}
