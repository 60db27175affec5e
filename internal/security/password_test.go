package security

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestHasher() *Hasher {
	return NewHasher(bcrypt.MinCost, 2)
}

func TestHasher_RoundTrip(t *testing.T) {
	h := newTestHasher()
	ctx := context.Background()

	for _, pw := range []string{"secret1", "p@ss w0rd", "ünïcødé-pass", strings.Repeat("x", 60)} {
		hash, err := h.Hash(ctx, pw)
		require.NoError(t, err)
		require.NotEqual(t, pw, hash)
		require.NotContains(t, hash, pw)
		require.True(t, h.Verify(ctx, pw, hash), "password %q should verify", pw)
	}
}

func TestHasher_WrongPasswordIsFalse(t *testing.T) {
	h := newTestHasher()
	ctx := context.Background()

	hash, err := h.Hash(ctx, "secret1")
	require.NoError(t, err)

	require.False(t, h.Verify(ctx, "secret2", hash))
	require.False(t, h.Verify(ctx, "", hash))
}

func TestHasher_SaltedPerCall(t *testing.T) {
	h := newTestHasher()
	ctx := context.Background()

	a, err := h.Hash(ctx, "same-password")
	require.NoError(t, err)
	b, err := h.Hash(ctx, "same-password")
	require.NoError(t, err)

	require.NotEqual(t, a, b)
	require.True(t, h.Verify(ctx, "same-password", a))
	require.True(t, h.Verify(ctx, "same-password", b))
}

func TestHasher_MalformedHashIsFalse(t *testing.T) {
	h := newTestHasher()

	require.False(t, h.Verify(context.Background(), "secret1", "not-a-bcrypt-hash"))
	require.False(t, h.Verify(context.Background(), "secret1", ""))
}

func TestHasher_CancelledContext(t *testing.T) {
	h := NewHasher(bcrypt.MinCost, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// hold the only slot so Acquire must observe ctx
	require.NoError(t, h.slots.Acquire(context.Background(), 1))
	defer h.slots.Release(1)

	_, err := h.Hash(ctx, "secret1")
	require.ErrorIs(t, err, context.Canceled)
	require.False(t, h.Verify(ctx, "secret1", "whatever"))
}

func TestHasher_ConcurrentUse(t *testing.T) {
	h := newTestHasher()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			hash, err := h.Hash(ctx, "parallel")
			if err != nil {
				t.Errorf("hash: %v", err)
				return
			}
			if !h.Verify(ctx, "parallel", hash) {
				t.Errorf("verify failed")
			}
		}()
	}
	wg.Wait()
}

func TestHasher_VerifyMissingAlwaysFalse(t *testing.T) {
	h := newTestHasher()
	require.False(t, h.VerifyMissing(context.Background(), "not-a-real-password"))
}

func TestCheckPassword(t *testing.T) {
	hash, err := newTestHasher().Hash(context.Background(), "secret1")
	require.NoError(t, err)

	require.NoError(t, CheckPassword(hash, "secret1"))
	require.ErrorIs(t, CheckPassword(hash, "nope"), ErrPasswordMismatch)
}
