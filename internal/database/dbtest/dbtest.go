// Package dbtest opens migrated sqlite databases for tests.
package dbtest

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/orgchart-api/internal/config"
	"github.com/orgchart-api/internal/database"
)

// Open returns a gorm handle on a fresh sqlite file with all migrations applied.
// The database lives in t.TempDir and is closed on cleanup.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := config.DatabaseConfig{
		Driver:     config.DriverSQLite,
		Path:       filepath.Join(t.TempDir(), "orgchart.db"),
		MaxRetries: 1,
	}

	db, err := database.Connect(context.Background(), cfg, logger)
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(sqlDB, config.DriverSQLite, database.MigrateUp, logger))

	return db
}
