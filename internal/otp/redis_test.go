package otp

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"notely-be/internal/cache"
)

// fakeCache is an in-process cache.Cache that records the TTLs it was given.
type fakeCache struct {
	mu   sync.Mutex
	data map[string]string
	ttls map[string]time.Duration
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeCache) Get(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	if !ok {
		return "", cache.ErrCacheMiss
	}
	return v, nil
}

func (f *fakeCache) Set(_ context.Context, key, value string, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = value
	f.ttls[key] = ttl
	return nil
}

func (f *fakeCache) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.data, key)
	delete(f.ttls, key)
	return nil
}

func (f *fakeCache) Mutate(_ context.Context, key string, fn cache.MutateFunc) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	m, err := fn(v, ok)
	if err != nil {
		return err
	}
	switch m.Op {
	case cache.OpSet:
		f.data[key] = m.Value
		f.ttls[key] = m.TTL
	case cache.OpDelete:
		delete(f.data, key)
		delete(f.ttls, key)
	}
	return nil
}

func (f *fakeCache) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return f.Set(ctx, key, string(b), ttl)
}

func (f *fakeCache) GetJSON(ctx context.Context, key string, dest any) error {
	v, err := f.Get(ctx, key)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(v), dest)
}

func (f *fakeCache) Close() error { return nil }

func TestRedisStore_RoundTripAndTTL(t *testing.T) {
	fc := newFakeCache()
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	s := NewRedisStore(fc)
	s.now = func() time.Time { return now }
	ctx := context.Background()

	entry := Entry{Email: "a@b.com", Code: "123456", ExpiresAt: now.Add(10 * time.Minute), Attempts: 1}
	require.NoError(t, s.Set(ctx, "otp:a@b.com", entry))
	assert.Equal(t, 10*time.Minute, fc.ttls["otp:a@b.com"])

	got, ok, err := s.Get(ctx, "otp:a@b.com")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, entry.Code, got.Code)
	assert.Equal(t, 1, got.Attempts)
	assert.True(t, entry.ExpiresAt.Equal(got.ExpiresAt))

	require.NoError(t, s.Delete(ctx, "otp:a@b.com"))
	_, ok, err = s.Get(ctx, "otp:a@b.com")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisStore_PastExpiryGetsMinimumTTL(t *testing.T) {
	fc := newFakeCache()
	s := NewRedisStore(fc)
	require.NoError(t, s.Set(context.Background(), "k", Entry{ExpiresAt: time.Now().Add(-time.Minute)}))
	assert.Equal(t, minTTL, fc.ttls["k"])
}

func TestRedisStore_SweepIsNoop(t *testing.T) {
	s := NewRedisStore(newFakeCache())
	n, err := s.Sweep(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestManager_OverRedisStore(t *testing.T) {
	fc := newFakeCache()
	m := NewManager(NewRedisStore(fc), 10*time.Minute, 3, zap.NewNop())
	ctx := context.Background()

	code, err := m.Issue(ctx, "a@b.com")
	require.NoError(t, err)

	var mismatch *MismatchError
	require.ErrorAs(t, m.Verify(ctx, "a@b.com", "000000"), &mismatch)
	assert.Equal(t, 2, mismatch.Remaining)

	require.NoError(t, m.Verify(ctx, "a@b.com", code))
	assert.ErrorIs(t, m.Verify(ctx, "a@b.com", code), ErrCodeNotFound)
}

func TestRedisStore_UpdateKeepsTTLFromExpiry(t *testing.T) {
	fc := newFakeCache()
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	s := NewRedisStore(fc)
	s.now = func() time.Time { return now }
	ctx := context.Background()
	require.NoError(t, s.Set(ctx, "k", Entry{Code: "123456", ExpiresAt: now.Add(10 * time.Minute)}))

	now = now.Add(4 * time.Minute)
	require.NoError(t, s.Update(ctx, "k", func(e *Entry) Action {
		e.Attempts++
		return Save
	}))
	assert.Equal(t, 6*time.Minute, fc.ttls["k"])

	got, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, got.Attempts)

	var sawNil bool
	require.NoError(t, s.Update(ctx, "missing", func(e *Entry) Action {
		sawNil = e == nil
		return Keep
	}))
	assert.True(t, sawNil)
}

func TestManager_ConcurrentGuessesOverRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	c := cache.NewFromClient(client)
	t.Cleanup(func() { _ = c.Close() })

	m := NewManager(NewRedisStore(c), 10*time.Minute, 3, zap.NewNop(), WithGenerator(func() (string, error) { return "123456", nil }))
	ctx := context.Background()
	_, err := m.Issue(ctx, "a@b.com")
	require.NoError(t, err)

	errs := verifyConcurrently(m, 8, "a@b.com", "000000")
	mismatches := 0
	for _, err := range errs {
		var mismatch *MismatchError
		if errors.As(err, &mismatch) {
			mismatches++
		}
	}
	assert.Equal(t, 3, mismatches)
	assert.Error(t, m.Verify(ctx, "a@b.com", "123456"))
}
