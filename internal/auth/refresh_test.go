package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ops-kit/opsconsole/internal/domain"
)

func TestMemoryRefreshStoreSingleUse(t *testing.T) {
	store := NewMemoryRefreshStore(time.Hour)
	ctx := context.Background()
	identity := domain.Identity{SubjectID: "user-1", Username: "admin", Role: domain.UserRoleAdmin}

	token, err := store.Issue(ctx, identity)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	got, err := store.Consume(ctx, token)
	require.NoError(t, err)
	require.Equal(t, identity, *got)

	// Second consume of the same token must fail.
	_, err = store.Consume(ctx, token)
	require.ErrorIs(t, err, ErrRefreshTokenInvalid)
}

func TestMemoryRefreshStoreUnknownToken(t *testing.T) {
	store := NewMemoryRefreshStore(time.Hour)
	_, err := store.Consume(context.Background(), "no-such-token")
	require.ErrorIs(t, err, ErrRefreshTokenInvalid)
}

func TestMemoryRefreshStoreExpiry(t *testing.T) {
	store := NewMemoryRefreshStore(time.Minute).(*memoryRefreshStore)
	ctx := context.Background()

	token, err := store.Issue(ctx, domain.Identity{SubjectID: "user-1"})
	require.NoError(t, err)

	store.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = store.Consume(ctx, token)
	require.ErrorIs(t, err, ErrRefreshTokenInvalid)
}

func TestMemoryRefreshStoreRevoke(t *testing.T) {
	store := NewMemoryRefreshStore(time.Hour)
	ctx := context.Background()

	token, err := store.Issue(ctx, domain.Identity{SubjectID: "user-1"})
	require.NoError(t, err)

	require.NoError(t, store.Revoke(ctx, token))
	_, err = store.Consume(ctx, token)
	require.ErrorIs(t, err, ErrRefreshTokenInvalid)
}
