package otp

import (
	"context"
	"time"
)

// Entry is one active code for an email address.
type Entry struct {
	Email     string    `json:"email"`
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expiresAt"`
	Attempts  int       `json:"attempts"`
}

// Expired reports whether the entry is past its expiry at now.
func (e Entry) Expired(now time.Time) bool {
	return now.After(e.ExpiresAt)
}

// Action tells Store.Update what to do with the entry once fn returns.
type Action int

const (
	// Keep leaves the stored entry untouched.
	Keep Action = iota
	// Save writes the entry fn modified back under the same key.
	Save
	// Remove deletes the key.
	Remove
)

// Store is the key-value backing for one-time codes. Implementations must be
// safe for concurrent use.
type Store interface {
	// Get returns the entry for key; ok is false when there is none.
	Get(ctx context.Context, key string) (entry Entry, ok bool, err error)
	Set(ctx context.Context, key string, entry Entry) error
	Delete(ctx context.Context, key string) error
	// Update reads, changes and writes back the entry for key as one atomic
	// step. fn receives nil when the key is absent, in which case only Keep
	// is meaningful. fn may run more than once if a concurrent writer wins.
	Update(ctx context.Context, key string, fn func(e *Entry) Action) error
	// Sweep removes every entry expired at now and reports how many went.
	Sweep(ctx context.Context, now time.Time) (int, error)
}
