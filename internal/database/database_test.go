package database

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/aerocade/flightcore/internal/config"
	"github.com/aerocade/flightcore/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresDSN(t *testing.T) {
	cfg := config.PostgresConfig{Host: "db", Port: "5432", Username: "pilot", Password: "pw", Database: "flights"}
	assert.Equal(t, "host=db port=5432 user=pilot password=pw dbname=flights sslmode=disable", PostgresDSN(cfg))

	cfg.SSLMode = "require"
	assert.Contains(t, PostgresDSN(cfg), "sslmode=require")
}

func TestGetSqliteDB_MemoryIsPrivate(t *testing.T) {
	a, err := GetSqliteDB("")
	require.NoError(t, err)
	b, err := GetSqliteDB("")
	require.NoError(t, err)

	require.NoError(t, Migrate(a))
	assert.True(t, a.Migrator().HasTable(&model.Session{}))
	assert.False(t, b.Migrator().HasTable(&model.Session{}), "second in-memory db must not see the first")
}

func TestDumpMemoryDBToDisk(t *testing.T) {
	db, err := GetSqliteDB("")
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	require.NoError(t, db.Create(&model.Session{Aircraft: "trainer", StartTime: time.Now()}).Error)

	path := filepath.Join(t.TempDir(), "dump.db")
	require.NoError(t, DumpMemoryDBToDisk(db, path))
	// a second dump replaces the first
	require.NoError(t, DumpMemoryDBToDisk(db, path))

	disk, err := GetSqliteDB(path)
	require.NoError(t, err)

	var sessions []model.Session
	require.NoError(t, disk.Find(&sessions).Error)
	require.Len(t, sessions, 1)
	assert.Equal(t, "trainer", sessions[0].Aircraft)
}

func TestDumpMemoryDBToDisk_NoPath(t *testing.T) {
	db, err := GetSqliteDB("")
	require.NoError(t, err)
	assert.Error(t, DumpMemoryDBToDisk(db, ""))
}
