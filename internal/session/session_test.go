package session

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/crypto/bcrypt"

	"foodshare/internal/core/cache"
	"foodshare/internal/core/database"
	"foodshare/internal/domain"
	"foodshare/internal/repo"
)

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func mockStore(t *testing.T, p Persister) *Store {
	t.Helper()
	return NewStore(MockProvider{Now: func() time.Time { return fixedNow }}, p, nil)
}

func TestRoleFromEmail(t *testing.T) {
	cases := map[string]domain.Role{
		"alice@donor.org":          domain.RoleDonor,
		"Bob.Recipient@x.io":       domain.RoleRecipient,
		"vic@volunteers.net":       domain.RoleVolunteer,
		"root@example.com":         domain.RoleAdmin,
		"donor-volunteer@test.com": domain.RoleDonor,
	}
	for email, want := range cases {
		assert.Equal(t, want, RoleFromEmail(email), email)
	}
}

func TestMockProvider_LoginDeterministic(t *testing.T) {
	ctx := context.Background()
	p := MockProvider{Now: func() time.Time { return fixedNow }}

	a, err := p.Login(ctx, "Alice@Donor.org", "whatever")
	require.NoError(t, err)
	b, err := p.Login(ctx, "alice@donor.org ", "")
	require.NoError(t, err)

	assert.Equal(t, a.ID, b.ID)
	assert.Len(t, a.ID, 32)
	assert.Equal(t, "alice", a.Name)
	assert.Equal(t, "alice@donor.org", a.Email)
	assert.Equal(t, domain.RoleDonor, a.Role)

	blank, err := p.Login(ctx, "  ", "")
	require.NoError(t, err, "mock login always succeeds")
	assert.Equal(t, domain.RoleAdmin, blank.Role)
	assert.Equal(t, "user", blank.Name)
}

func TestRequireEmail(t *testing.T) {
	assert.NoError(t, RequireEmail("a@b.c"))
	assert.ErrorIs(t, RequireEmail(" "), domain.ErrValidation)
}

func TestStore_LoginPersistsAndRestores(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "session.json")

	s := mockStore(t, NewFilePersister(path))
	_, ok := s.Current()
	require.False(t, ok)

	u, err := s.Login(ctx, "vic@volunteer.org", "pw")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleVolunteer, u.Role)
	assert.FileExists(t, path)

	restarted := mockStore(t, NewFilePersister(path))
	require.NoError(t, restarted.Restore(ctx))
	got, ok := restarted.Current()
	require.True(t, ok)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, u.Role, got.Role)
	assert.True(t, got.CreatedAt.Equal(fixedNow))

	require.NoError(t, restarted.Logout(ctx))
	_, ok = restarted.Current()
	assert.False(t, ok)
	assert.NoFileExists(t, path)

	// 重复登出不报错
	require.NoError(t, restarted.Logout(ctx))
	_, err = restarted.Require()
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestStore_RestoreCorruptRecord(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	core, logs := observer.New(zapcore.WarnLevel)
	s := NewStore(MockProvider{}, NewFilePersister(path), zap.New(core))
	require.NoError(t, s.Restore(ctx))

	_, ok := s.Current()
	assert.False(t, ok)
	assert.NoFileExists(t, path)
	assert.Equal(t, 1, logs.FilterMessage("discarding corrupt session record").Len())
}

func TestStore_RestoreRejectsUnknownRole(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"id":"1","role":"chef"}`), 0o600))

	s := mockStore(t, NewFilePersister(path))
	require.NoError(t, s.Restore(ctx))
	_, ok := s.Current()
	assert.False(t, ok)
}

func TestStore_RegisterWithRedisPersister(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	c := cache.NewFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = c.Close() })

	s := mockStore(t, NewRedisPersister(c, "fs:session"))
	u, err := s.Register(ctx, " Rita ", "rita@x.org", "pw", domain.RoleRecipient)
	require.NoError(t, err)
	assert.Equal(t, "Rita", u.Name)
	assert.Equal(t, domain.RoleRecipient, u.Role)
	assert.True(t, mr.Exists("fs:session"))

	_, err = s.Register(ctx, "x", "x@x.org", "pw", domain.Role("chef"))
	assert.ErrorIs(t, err, domain.ErrValidation)
	cur, _ := s.Current()
	assert.Equal(t, u.ID, cur.ID, "failed registration keeps the previous identity")

	other := mockStore(t, NewRedisPersister(c, "fs:session"))
	require.NoError(t, other.Restore(ctx))
	got, ok := other.Current()
	require.True(t, ok)
	assert.Equal(t, u.ID, got.ID)

	require.NoError(t, other.Logout(ctx))
	assert.False(t, mr.Exists("fs:session"))
}

func TestPasswordProvider(t *testing.T) {
	ctx := context.Background()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := database.NewGorm(database.Opts{Driver: "sqlite", DSN: dsn, LogLevel: "silent"})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))

	p := NewPasswordProvider(repo.NewUserRepo(db))
	p.Cost = bcrypt.MinCost
	s := NewStore(p, NewFilePersister(filepath.Join(t.TempDir(), "s.json")), nil)

	u, err := s.Register(ctx, "Dana", "Dana@Donor.org", "s3cret", domain.RoleDonor)
	require.NoError(t, err)
	assert.Equal(t, "dana@donor.org", u.Email)

	_, err = s.Register(ctx, "Dana2", "dana@donor.org", "other", domain.RoleDonor)
	assert.ErrorIs(t, err, domain.ErrEmailTaken)

	require.NoError(t, s.Logout(ctx))

	_, err = s.Login(ctx, "dana@donor.org", "wrong")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	_, ok := s.Current()
	assert.False(t, ok)

	_, err = s.Login(ctx, "nobody@donor.org", "s3cret")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	got, err := s.Login(ctx, "DANA@donor.org", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = p.Register(ctx, "n", "n@x.org", "", domain.RoleDonor)
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = p.Register(ctx, "n", "n@x.org", strings.Repeat("x", 80), domain.RoleDonor)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestCheckConfirmation(t *testing.T) {
	assert.NoError(t, CheckConfirmation("a", "a"))
	assert.ErrorIs(t, CheckConfirmation("a", "b"), domain.ErrValidation)
}
