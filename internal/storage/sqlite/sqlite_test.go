package sqlitestorage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/aerocade/flightcore/internal/config"
	"github.com/aerocade/flightcore/internal/database"
	"github.com/aerocade/flightcore/internal/model"
	"github.com/aerocade/flightcore/internal/storage"
	"github.com/aerocade/flightcore/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ storage.Backend  = (*Backend)(nil)
	_ storage.Exporter = (*Backend)(nil)
)

func readDump(t *testing.T, path string) []model.Session {
	t.Helper()
	db, err := database.GetSqliteDB(path)
	require.NoError(t, err)
	var sessions []model.Session
	require.NoError(t, db.Find(&sessions).Error)
	return sessions
}

func TestEndSession_DumpsToDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flight.db")
	b, err := New(config.SQLiteConfig{Path: path}, time.Hour, nil, nil)
	require.NoError(t, err)
	require.NoError(t, b.Init())
	defer b.Close()

	s := &core.Session{Aircraft: "trainer", StartTime: time.Now()}
	require.NoError(t, b.StartSession(s))
	require.NoError(t, b.RecordTelemetry(&core.Telemetry{Tick: 1}))
	require.NoError(t, b.EndSession())

	assert.Equal(t, path, b.ExportedFilePath())
	sessions := readDump(t, path)
	require.Len(t, sessions, 1)
	assert.Equal(t, uint64(1), sessions[0].FrameCount)
}

func TestDumpLoop_WritesPeriodically(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flight.db")
	b, err := New(config.SQLiteConfig{Path: path, DumpInterval: 10 * time.Millisecond}, time.Hour, nil, nil)
	require.NoError(t, err)
	require.NoError(t, b.Init())
	defer b.Close()

	require.NoError(t, b.StartSession(&core.Session{Aircraft: "trainer", StartTime: time.Now()}))

	// the file may be mid-rewrite while polled, so errors just mean not yet
	assert.Eventually(t, func() bool {
		db, err := database.GetSqliteDB(path)
		if err != nil {
			return false
		}
		var n int64
		if err := db.Model(&model.Session{}).Count(&n).Error; err != nil {
			return false
		}
		return n == 1
	}, 2*time.Second, 20*time.Millisecond)
}

func TestNoPath_NoDump(t *testing.T) {
	b, err := New(config.SQLiteConfig{}, time.Hour, nil, nil)
	require.NoError(t, err)
	require.NoError(t, b.Init())

	require.NoError(t, b.StartSession(&core.Session{Aircraft: "trainer", StartTime: time.Now()}))
	require.NoError(t, b.EndSession())
	assert.NoError(t, b.Close())
	assert.NoError(t, b.Close())
	assert.Empty(t, b.ExportedFilePath())
}
