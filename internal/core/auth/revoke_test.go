package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foodshare/internal/core/cache"
	"foodshare/internal/domain"
)

func TestDenylist(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	d := NewDenylist(cache.NewFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()})))

	j := &JWTer{Secret: []byte("k"), Issuer: "foodshare", TTL: 10 * time.Minute}
	_, claims, err := j.Issue(domain.User{ID: "u1", Role: domain.RoleDonor})
	require.NoError(t, err)

	revoked, err := d.Revoked(ctx, claims.ID)
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, d.Revoke(ctx, claims))
	revoked, err = d.Revoked(ctx, claims.ID)
	require.NoError(t, err)
	assert.True(t, revoked)

	mr.FastForward(12 * time.Minute)
	revoked, err = d.Revoked(ctx, claims.ID)
	require.NoError(t, err)
	assert.False(t, revoked, "entry lives only as long as the token")
}

func TestDenylist_NilIsDisabled(t *testing.T) {
	var d *Denylist
	revoked, err := d.Revoked(context.Background(), "x")
	require.NoError(t, err)
	assert.False(t, revoked)
	assert.NoError(t, d.Revoke(context.Background(), &Claims{}))
}
