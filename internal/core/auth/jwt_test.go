package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foodshare/internal/domain"
)

func TestIssueParse_CarriesIdentity(t *testing.T) {
	j := &JWTer{Secret: []byte("k"), Issuer: "foodshare", TTL: time.Hour}
	created := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	u := domain.User{ID: "u1", Name: "Rae", Email: "rae@recipient.org", Role: domain.RoleRecipient, CreatedAt: created}

	tok, issued, err := j.Issue(u)
	require.NoError(t, err)
	require.NotEmpty(t, issued.ID)

	c, err := j.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, issued.ID, c.ID)
	assert.Equal(t, u, c.Identity())
}

func TestParse_Rejects(t *testing.T) {
	j := &JWTer{Secret: []byte("k"), Issuer: "foodshare", TTL: time.Hour}
	tok, _, err := j.Issue(domain.User{ID: "u1", Role: domain.RoleDonor})
	require.NoError(t, err)

	other := &JWTer{Secret: []byte("other"), Issuer: "foodshare", TTL: time.Hour}
	_, err = other.Parse(tok)
	assert.Error(t, err, "wrong secret")

	wrongIss := &JWTer{Secret: []byte("k"), Issuer: "someone", TTL: time.Hour}
	_, err = wrongIss.Parse(tok)
	assert.Error(t, err, "wrong issuer")

	expired := &JWTer{Secret: []byte("k"), Issuer: "foodshare", TTL: -2 * time.Minute}
	tok, _, err = expired.Issue(domain.User{ID: "u1"})
	require.NoError(t, err)
	_, err = j.Parse(tok)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}
