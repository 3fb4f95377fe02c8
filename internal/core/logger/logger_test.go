package logger

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestToWriter_TrimsNewlines(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	w := ToWriter(zap.New(core), zapcore.InfoLevel)

	n, err := w.Write([]byte("[GIN-debug] GET /health\n"))
	require.NoError(t, err)
	assert.Equal(t, 24, n)

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "[GIN-debug] GET /health", entries[0].Message)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
}

func TestNew_OutputAndRotate(t *testing.T) {
	var buf bytes.Buffer
	p := filepath.Join(t.TempDir(), "app.log")
	l, cleanup := New(Options{
		Name:   "foodshare",
		Level:  "info",
		JSON:   true,
		Output: &buf,
		Rotate: FileRotate{Enable: true, Filename: p, MaxSizeMB: 1},
	})
	l.Info("listing created", zap.String("id", "1"))
	l.Debug("dropped below level")
	cleanup()

	assert.Contains(t, buf.String(), `"app":"foodshare"`)
	b, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"msg":"listing created"`)
	assert.NotContains(t, string(b), "dropped below level")
}

func TestNew_BadLevelFallsBackToInfo(t *testing.T) {
	l, cleanup := New(Options{Level: "loud", Output: &bytes.Buffer{}})
	defer cleanup()
	assert.True(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, l.Core().Enabled(zapcore.DebugLevel))
}

func TestLevels(t *testing.T) {
	lvl, err := ParseLevel(" WARNING ")
	require.NoError(t, err)
	assert.Equal(t, zapcore.WarnLevel, lvl)

	assert.Equal(t, "warn", AtLeast("debug", zapcore.WarnLevel))
	assert.Equal(t, "error", AtLeast("error", zapcore.WarnLevel))
	assert.Equal(t, "warn", AtLeast("???", zapcore.WarnLevel))

	assert.Equal(t, gormlogger.Silent, GormLevel("silent"))
	assert.Equal(t, gormlogger.Warn, GormLevel(""))
}

func TestGorm_Trace(t *testing.T) {
	ctx := context.Background()
	core, logs := observer.New(zapcore.DebugLevel)
	g := NewGorm(zap.New(core), gormlogger.Warn, 50*time.Millisecond)
	sql := func() (string, int64) { return "SELECT 1", 1 }

	g.Trace(ctx, time.Now(), sql, nil)
	assert.Zero(t, logs.Len(), "fast queries are not logged at warn")

	g.Trace(ctx, time.Now(), sql, gorm.ErrRecordNotFound)
	assert.Zero(t, logs.Len(), "record not found is not an error")

	g.Trace(ctx, time.Now().Add(-time.Second), sql, nil)
	assert.Equal(t, 1, logs.FilterMessage("slow sql").Len())

	g.Trace(ctx, time.Now(), sql, errors.New("no such table"))
	assert.Equal(t, 1, logs.FilterMessage("sql failed").Len())

	g.LogMode(gormlogger.Silent).Trace(ctx, time.Now(), sql, errors.New("ignored"))
	assert.Equal(t, 2, logs.Len())
}
