package shared_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/tripflow/tripflow/internal/shared"
)

func newTokenStore(t *testing.T) (*shared.TokenStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return shared.NewTokenStore(client, "test:token", time.Hour), mr
}

func TestTokenIssueResolve(t *testing.T) {
	store, _ := newTokenStore(t)

	token, err := store.Issue(context.Background(), shared.Identity{UserID: "u-1", Name: "Sarah Sales", Role: "salesperson"})
	require.NoError(t, err)
	require.NotEmpty(t, token)

	id, err := store.Resolve(context.Background(), token)
	require.NoError(t, err)
	require.Equal(t, "u-1", id.UserID)
	require.Equal(t, "salesperson", id.Role)
}

func TestTokenResolveUnknown(t *testing.T) {
	store, _ := newTokenStore(t)

	_, err := store.Resolve(context.Background(), "bogus")
	require.True(t, errors.Is(err, shared.ErrUnauthorized))
}

func TestTokenExpiry(t *testing.T) {
	store, mr := newTokenStore(t)

	token, err := store.Issue(context.Background(), shared.Identity{UserID: "u-2", Role: "customer"})
	require.NoError(t, err)

	mr.FastForward(2 * time.Hour)

	_, err = store.Resolve(context.Background(), token)
	require.True(t, errors.Is(err, shared.ErrUnauthorized))
}

func TestTokenRevoke(t *testing.T) {
	store, _ := newTokenStore(t)

	token, err := store.Issue(context.Background(), shared.Identity{UserID: "u-3", Role: "admin"})
	require.NoError(t, err)
	require.NoError(t, store.Revoke(context.Background(), token))

	_, err = store.Resolve(context.Background(), token)
	require.True(t, errors.Is(err, shared.ErrUnauthorized))
}
