package security

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

// Hasher hashes and verifies passwords with bcrypt. The salt is generated per
// call and embedded in the returned hash.
//
// bcrypt is deliberately slow, so the number of hashes computed at once is
// capped by a semaphore. Callers wait for a slot (or for ctx to end) instead
// of piling CPU work onto the request-serving goroutines.
type Hasher struct {
	cost  int
	slots *semaphore.Weighted
	dummy []byte
}

func NewHasher(cost, workers int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	h := &Hasher{
		cost:  cost,
		slots: semaphore.NewWeighted(int64(workers)),
	}

	// used by VerifyMissing so an unknown account costs the same as a wrong password
	dummy, err := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), cost)
	if err == nil {
		h.dummy = dummy
	}

	return h
}

// Hash returns the bcrypt hash of plain. An error means the entropy source
// failed or ctx ended while waiting for a slot.
func (h *Hasher) Hash(ctx context.Context, plain string) (string, error) {
	if err := h.slots.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer h.slots.Release(1)

	hash, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	return string(hash), nil
}

// Verify reports whether plain matches hash. A mismatch, a malformed hash or a
// cancelled ctx are all just false.
func (h *Hasher) Verify(ctx context.Context, plain, hash string) bool {
	if err := h.slots.Acquire(ctx, 1); err != nil {
		return false
	}
	defer h.slots.Release(1)

	return CheckPassword(hash, plain) == nil
}

// VerifyMissing burns one comparison against a throwaway hash and always
// returns false.
func (h *Hasher) VerifyMissing(ctx context.Context, plain string) bool {
	if h.dummy != nil {
		_ = h.Verify(ctx, plain, string(h.dummy))
	}
	return false
}

// CheckPassword compares a bcrypt hash with a plaintext password.
func CheckPassword(hash, plain string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrPasswordMismatch
	}
	return err
}

var (
	ErrPasswordMismatch = errors.New("password does not match")
	// bcrypt only reads the first 72 bytes and refuses longer input
	ErrPasswordTooLong = bcrypt.ErrPasswordTooLong
)
