package otp

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"go.uber.org/zap"

	"notely-be/internal/metrics"
)

const (
	// CodeLength is the number of digits in a code.
	CodeLength = 6

	codeMin = 100000
	codeMax = 999999

	codePrefix  = "otp:"
	grantPrefix = "grant:"
)

var (
	ErrCodeNotFound      = errors.New("no active verification code")
	ErrCodeExpired       = errors.New("verification code has expired")
	ErrAttemptsExhausted = errors.New("too many failed attempts, request a new code")
)

// MismatchError is returned for a wrong code that still leaves attempts.
type MismatchError struct {
	Remaining int
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("invalid verification code, %d attempts remaining", e.Remaining)
}

// IsCodeError reports whether err is one of the verification outcomes
// callers may show to the user.
func IsCodeError(err error) bool {
	var mismatch *MismatchError
	return errors.Is(err, ErrCodeNotFound) ||
		errors.Is(err, ErrCodeExpired) ||
		errors.Is(err, ErrAttemptsExhausted) ||
		errors.As(err, &mismatch)
}

// Manager drives the per-email code lifecycle on top of a Store.
type Manager struct {
	store       Store
	ttl         time.Duration
	maxAttempts int
	logger      *zap.Logger
	now         func() time.Time
	generate    func() (string, error)
}

type Option func(*Manager)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithGenerator replaces the random code source.
func WithGenerator(gen func() (string, error)) Option {
	return func(m *Manager) { m.generate = gen }
}

func NewManager(store Store, ttl time.Duration, maxAttempts int, logger *zap.Logger, opts ...Option) *Manager {
	m := &Manager{
		store:       store,
		ttl:         ttl,
		maxAttempts: maxAttempts,
		logger:      logger,
		now:         time.Now,
		generate:    GenerateCode,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// GenerateCode returns a uniformly random six digit code.
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeMax-codeMin+1))
	if err != nil {
		return "", fmt.Errorf("failed to generate code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+codeMin), nil
}

// normalize trims surrounding whitespace. Case is significant, matching how
// addresses are stored.
func normalize(email string) string {
	return strings.TrimSpace(email)
}

// Issue creates a fresh code for email, replacing any previous one.
func (m *Manager) Issue(ctx context.Context, email string) (string, error) {
	email = normalize(email)
	code, err := m.generate()
	if err != nil {
		return "", err
	}

	entry := Entry{
		Email:     email,
		Code:      code,
		ExpiresAt: m.now().Add(m.ttl),
	}
	if err := m.store.Set(ctx, codePrefix+email, entry); err != nil {
		return "", fmt.Errorf("failed to store code: %w", err)
	}
	// a new code supersedes any grant from an earlier verification
	if err := m.store.Delete(ctx, grantPrefix+email); err != nil {
		return "", fmt.Errorf("failed to clear reset grant: %w", err)
	}
	return code, nil
}

// Verify checks candidate against the active code for email. A match
// consumes the code.
func (m *Manager) Verify(ctx context.Context, email, candidate string) error {
	_, err := m.verify(ctx, codePrefix+normalize(email), candidate)
	metrics.TrackOTPVerification(resultLabel(err))
	return err
}

// verify checks candidate against the entry under key in one atomic store
// update, so concurrent guesses are each counted and a match is accepted once.
// On success it returns the consumed entry.
func (m *Manager) verify(ctx context.Context, key, candidate string) (Entry, error) {
	var (
		outcome  error
		consumed Entry
	)
	now := m.now()

	err := m.store.Update(ctx, key, func(e *Entry) Action {
		consumed = Entry{}
		switch {
		case e == nil:
			outcome = ErrCodeNotFound
			return Keep
		case e.Expired(now):
			outcome = ErrCodeExpired
			return Remove
		case e.Attempts >= m.maxAttempts:
			outcome = ErrAttemptsExhausted
			return Remove
		case subtle.ConstantTimeCompare([]byte(e.Code), []byte(candidate)) != 1:
			e.Attempts++
			outcome = &MismatchError{Remaining: m.maxAttempts - e.Attempts}
			return Save
		default:
			outcome = nil
			consumed = *e
			return Remove
		}
	})
	if err != nil {
		return Entry{}, fmt.Errorf("failed to check code: %w", err)
	}
	return consumed, outcome
}

// VerifyAndGrant verifies candidate like Verify and, on success, leaves a
// reset grant so the following reset request may present the same code once
// more. The grant keeps the code's expiry and its count of wrong guesses.
func (m *Manager) VerifyAndGrant(ctx context.Context, email, candidate string) error {
	email = normalize(email)
	entry, err := m.verify(ctx, codePrefix+email, candidate)
	metrics.TrackOTPVerification(resultLabel(err))
	if err != nil {
		return err
	}

	if err := m.store.Set(ctx, grantPrefix+email, entry); err != nil {
		return fmt.Errorf("failed to store reset grant: %w", err)
	}
	return nil
}

// ConsumeReset accepts the grant left by VerifyAndGrant or, when there is
// none, an active code. Wrong guesses count against whichever is present.
func (m *Manager) ConsumeReset(ctx context.Context, email, candidate string) error {
	email = normalize(email)

	_, err := m.verify(ctx, grantPrefix+email, candidate)
	if errors.Is(err, ErrCodeNotFound) {
		return m.Verify(ctx, email, candidate)
	}
	if err == nil {
		metrics.TrackOTPVerification("grant")
		return nil
	}
	metrics.TrackOTPVerification(resultLabel(err))
	return err
}

// Clear drops every code and grant for email.
func (m *Manager) Clear(ctx context.Context, email string) error {
	email = normalize(email)
	if err := m.store.Delete(ctx, codePrefix+email); err != nil {
		return fmt.Errorf("failed to delete code: %w", err)
	}
	if err := m.store.Delete(ctx, grantPrefix+email); err != nil {
		return fmt.Errorf("failed to delete reset grant: %w", err)
	}
	return nil
}

// Sweep purges expired entries once.
func (m *Manager) Sweep(ctx context.Context) (int, error) {
	removed, err := m.store.Sweep(ctx, m.now())
	if err != nil {
		return 0, fmt.Errorf("failed to sweep codes: %w", err)
	}
	metrics.OTPSwept.Add(float64(removed))
	return removed, nil
}

// RunSweeper sweeps every interval until ctx is cancelled.
func (m *Manager) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := m.Sweep(ctx)
			if err != nil {
				m.logger.Warn("otp sweep failed", zap.Error(err))
				continue
			}
			if removed > 0 {
				m.logger.Debug("otp sweep", zap.Int("removed", removed))
			}
		}
	}
}

func resultLabel(err error) string {
	var mismatch *MismatchError
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrCodeNotFound):
		return "not_found"
	case errors.Is(err, ErrCodeExpired):
		return "expired"
	case errors.Is(err, ErrAttemptsExhausted):
		return "exhausted"
	case errors.As(err, &mismatch):
		return "mismatch"
	default:
		return "error"
	}
}
