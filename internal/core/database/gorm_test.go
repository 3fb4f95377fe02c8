package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"foodshare/internal/feature/user"
)

func TestNormalizeMySQLDSN(t *testing.T) {
	tests := []struct {
		name       string
		in         string
		user, pass string
		want       string
	}{
		{"empty", "", "", "", ""},
		{"native dsn untouched", "u:p@tcp(db:3306)/app?parseTime=true", "x", "y", "u:p@tcp(db:3306)/app?parseTime=true"},
		{
			"jdbc url with overrides",
			"jdbc:mysql://db:3306/app?useSSL=false&characterEncoding=utf8&serverTimezone=UTC",
			"root", "secret",
			"root:secret@tcp(db:3306)/app?charset=utf8&loc=UTC&parseTime=true&tls=false",
		},
		{
			"url credentials and defaults",
			"mysql://bob:pw@localhost:3306/foods",
			"", "",
			"bob:pw@tcp(localhost:3306)/foods?charset=utf8mb4&parseTime=true",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeMySQLDSN(tt.in, tt.user, tt.pass))
		})
	}
}

func TestNewGorm_SQLiteAndMigrate(t *testing.T) {
	db, err := NewGorm(Opts{Driver: "sqlite", DSN: "file:dbtest?mode=memory&cache=shared", LogLevel: "silent"})
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))
	assert.True(t, db.Migrator().HasTable("listings"))
	assert.True(t, db.Migrator().HasTable("users"))
}

func TestNewGorm_UnsupportedDriver(t *testing.T) {
	_, err := NewGorm(Opts{Driver: "oracle"})
	assert.ErrorIs(t, err, ErrUnsupportedDriver)
}

func TestMaskDSN(t *testing.T) {
	assert.Equal(t, "root:****@tcp(db:3306)/app", maskDSN("root:secret@tcp(db:3306)/app"))
	assert.Equal(t, "root@tcp(db:3306)/app", maskDSN("root@tcp(db:3306)/app"))
	assert.Equal(t, "file::memory:", maskDSN("file::memory:"))
}

func TestNewGorm_DuplicateKeyIsTranslated(t *testing.T) {
	db, err := NewGorm(Opts{Driver: "sqlite", DSN: "file:duptest?mode=memory&cache=shared", LogLevel: "silent", Log: zap.NewNop()})
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))

	require.NoError(t, db.Create(&user.UserModel{ID: "u1", Email: "a@b.c", Name: "a", Role: "donor"}).Error)
	err = db.Create(&user.UserModel{ID: "u2", Email: "a@b.c", Name: "b", Role: "donor"}).Error
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}
