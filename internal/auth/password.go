package auth

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

// ErrPasswordTooLong is returned when a password exceeds bcrypt's input limit.
var ErrPasswordTooLong = errors.New("auth: password longer than 72 bytes")

const maxPasswordBytes = 72

// PasswordHasher hashes and verifies passwords with bcrypt. Concurrent
// bcrypt work is capped so a burst of logins cannot take every CPU.
type PasswordHasher struct {
	cost int
	sem  *semaphore.Weighted
}

// NewPasswordHasher builds a hasher with the given bcrypt cost and concurrency cap.
func NewPasswordHasher(cost, concurrency int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	if concurrency <= 0 {
		concurrency = 1
	}
	return &PasswordHasher{cost: cost, sem: semaphore.NewWeighted(int64(concurrency))}
}

// Hash returns the bcrypt hash of plain.
func (h *PasswordHasher) Hash(ctx context.Context, plain string) (string, error) {
	if len(plain) > maxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return "", fmt.Errorf("auth: hash: %w", err)
	}
	defer h.sem.Release(1)
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hash: %w", err)
	}
	return string(hashed), nil
}

// Verify reports whether plain matches the stored hash. A malformed hash is
// a mismatch, not an error; errors only come from context cancellation.
func (h *PasswordHasher) Verify(ctx context.Context, plain, hashed string) (bool, error) {
	if hashed == "" || len(plain) > maxPasswordBytes {
		return false, nil
	}
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return false, fmt.Errorf("auth: verify: %w", err)
	}
	defer h.sem.Release(1)
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain)) == nil, nil
}
