package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskey/taskey-api/internal/config"
	"github.com/taskey/taskey-api/internal/models"
)

func TestMigrateDatabase_Idempotent(t *testing.T) {
	db, err := Connect(&config.Config{DBDriver: "sqlite", DBPath: ":memory:", DBLogLevel: "silent"})
	require.NoError(t, err)

	require.NoError(t, MigrateDatabase(db))
	require.NoError(t, MigrateDatabase(db))

	migrator := db.Migrator()
	for _, m := range models.All() {
		assert.True(t, migrator.HasTable(m))
	}
	for _, idx := range indexes {
		assert.True(t, migrator.HasIndex(idx.table, idx.name), idx.name)
	}
}

func TestConnect_UnsupportedDriver(t *testing.T) {
	_, err := Connect(&config.Config{DBDriver: "oracle"})
	assert.Error(t, err)
}
