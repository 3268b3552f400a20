package sessions

import (
	"context"
	"testing"
	"time"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestRevoke_IsRevoked(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	defer m.Close()

	r := NewRevoker(redis.NewClient(&redis.Options{Addr: m.Addr()}))

	ctx := context.Background()
	token := "login-token-1"
	require.NoError(t, r.Revoke(ctx, token, 2*time.Second))

	ok, err := r.IsRevoked(ctx, token)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = r.IsRevoked(ctx, "other-token")
	require.NoError(t, err)
	require.False(t, ok)

	// advance past TTL
	m.FastForward(3 * time.Second)

	ok2, err := r.IsRevoked(ctx, token)
	require.NoError(t, err)
	require.False(t, ok2)
}

func TestRevoke_ExpiredTokenNotStored(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	defer m.Close()

	r := NewRevoker(redis.NewClient(&redis.Options{Addr: m.Addr()}))
	require.NoError(t, r.Revoke(context.Background(), "t", 0))
	require.Empty(t, m.Keys())
}

// Revocation is a no-op when no Redis client configured
func TestRevoker_NoClient_Noop(t *testing.T) {
	r := NewRevoker(nil)
	ctx := context.Background()
	require.NoError(t, r.Revoke(ctx, "no-client-token", time.Second))
	ok, err := r.IsRevoked(ctx, "no-client-token")
	require.NoError(t, err)
	require.False(t, ok)

	var nilRevoker *Revoker
	ok, err = nilRevoker.IsRevoked(ctx, "x")
	require.NoError(t, err)
	require.False(t, ok)
}
