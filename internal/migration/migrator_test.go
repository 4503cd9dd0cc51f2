package migration

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"go.uber.org/zap"

	"github.com/drxagencia/dashboards/internal/config"
	"github.com/drxagencia/dashboards/internal/database"
)

func openSQLite(t *testing.T) *bun.DB {
	t.Helper()
	sqldb, err := sql.Open(sqliteshim.ShimName, "file:"+filepath.Join(t.TempDir(), "painel.db"))
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)
	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func sqliteMigrator(t *testing.T) (*Migrator, *bun.DB) {
	t.Helper()
	db := openSQLite(t)
	cfg := config.Config{Database: config.Database{Driver: "sqlite"}}
	m, err := New(cfg, &database.Connections{Writer: db, Reader: db}, zap.NewNop())
	require.NoError(t, err)
	return m, db
}

func tableExists(t *testing.T, db *bun.DB) bool {
	t.Helper()
	var n int
	require.NoError(t, db.NewRaw(
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'store_nodes'",
	).Scan(context.Background(), &n))
	return n == 1
}

func TestUpDownOnSQLite(t *testing.T) {
	ctx := context.Background()
	m, db := sqliteMigrator(t)

	require.NoError(t, m.Up(ctx))
	assert.True(t, tableExists(t, db))
	version, err := m.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)

	require.NoError(t, m.Up(ctx))

	require.NoError(t, m.Down(ctx, 0, true))
	assert.False(t, tableExists(t, db))
	version, err = m.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), version)
}

func TestNewWithoutDatabase(t *testing.T) {
	_, err := New(config.Config{}, nil, zap.NewNop())
	assert.ErrorIs(t, err, ErrNoDatabase)
}

func TestNewRejectsUnknownDriver(t *testing.T) {
	db := openSQLite(t)
	_, err := New(config.Config{Database: config.Database{Driver: "oracle"}}, &database.Connections{Writer: db}, zap.NewNop())
	assert.Error(t, err)
}
