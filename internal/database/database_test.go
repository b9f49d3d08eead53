package database

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/IqraJilani-aai/open-simulation-interface/internal/model"
)

func TestOpenSQLite_MigrateAndDump(t *testing.T) {
	dir := t.TempDir()
	db, err := OpenSQLite(filepath.Join(dir, "live.db"), zerolog.Nop())
	require.NoError(t, err)

	require.NoError(t, Migrate(db, zerolog.Nop()))
	for _, m := range model.DatabaseModels {
		assert.True(t, db.Migrator().HasTable(m))
	}

	require.NoError(t, db.Create(&model.Session{ID: "s-1", StartedAt: time.Now()}).Error)

	dump := filepath.Join(dir, "dump.db")
	require.NoError(t, os.WriteFile(dump, []byte("stale"), 0644))
	require.NoError(t, DumpSQLiteToDisk(db, dump))

	copyDB, err := OpenSQLite(dump, zerolog.Nop())
	require.NoError(t, err)
	var n int64
	require.NoError(t, copyDB.Model(&model.Session{}).Count(&n).Error)
	assert.Equal(t, int64(1), n)
}

func TestDumpSQLiteToDisk_NoPath(t *testing.T) {
	assert.Error(t, DumpSQLiteToDisk(nil, ""))
}

func TestGormLogger(t *testing.T) {
	var buf bytes.Buffer
	l := NewGormLogger(zerolog.New(&buf))
	ctx := context.Background()
	query := func() (string, int64) { return "SELECT 1", 1 }

	l.Info(ctx, "hidden %d", 1)
	l.Trace(ctx, time.Now(), query, nil)
	assert.Empty(t, buf.String(), "info and fast queries are off by default")

	l.Trace(ctx, time.Now(), query, gorm.ErrRecordNotFound)
	assert.Empty(t, buf.String(), "not found is not an error")

	l.Trace(ctx, time.Now(), query, errors.New("boom"))
	assert.Contains(t, buf.String(), "query failed")
	assert.Contains(t, buf.String(), "boom")

	buf.Reset()
	l.Trace(ctx, time.Now().Add(-time.Second), query, nil)
	assert.Contains(t, buf.String(), "slow query")

	buf.Reset()
	l.LogMode(logger.Silent).Error(ctx, "muted")
	assert.Empty(t, buf.String())

	verbose := l.LogMode(logger.Info)
	verbose.Info(ctx, "shown %d", 2)
	assert.Contains(t, buf.String(), "shown 2")
}
