package deadline

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestRegistry_StartAndComplete(t *testing.T) {
	r := NewRegistry()
	id := uuid.New()

	dctx := r.Start(context.Background(), id, true, 1)
	require.False(t, dctx.IsExpired())

	got, ok := r.Get(id)
	require.True(t, ok)
	require.Equal(t, dctx, got)

	r.Complete(id)
	_, ok = r.Get(id)
	require.False(t, ok)

	// Complete is idempotent.
	r.Complete(id)
}

func TestContext_ExpiresAndIsMonotonic(t *testing.T) {
	r := NewRegistry()
	id := uuid.New()

	dctx := r.Start(context.Background(), id, true, 0.01) // 10ms
	require.False(t, dctx.IsExpired())

	select {
	case <-dctx.Done():
	case <-time.After(time.Second):
		t.Fatal("deadline never fired")
	}

	require.True(t, dctx.IsExpired())
	require.Equal(t, int64(0), dctx.RemainingMs())

	r.Complete(id)
	require.True(t, dctx.IsExpired(), "expiry must remain true after completion")
}

func TestContext_NeverExpiresWhenDisabled(t *testing.T) {
	r := NewRegistry()
	id := uuid.New()

	dctx := r.Start(context.Background(), id, false, 0)
	select {
	case <-dctx.Done():
		t.Fatal("context with enabled=false must not expire")
	case <-time.After(30 * time.Millisecond):
	}
	require.False(t, dctx.IsExpired())
	r.Complete(id)
}

func TestContext_ExpiredImmediatelyWhenEnabledWithZeroTimeout(t *testing.T) {
	r := NewRegistry()
	id := uuid.New()

	// spec §8: "Deadline = 0: every answer equals the timeout placeholder".
	// This is the enabled-but-zero case, distinct from disabled above.
	dctx := r.Start(context.Background(), id, true, 0)
	require.True(t, dctx.IsExpired())
	require.Equal(t, int64(0), dctx.RemainingMs())
	r.Complete(id)
}
