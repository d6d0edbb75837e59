package gormstorage

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aerocade/flightcore/internal/database"
	"github.com/aerocade/flightcore/internal/geo"
	"github.com/aerocade/flightcore/internal/logging"
	"github.com/aerocade/flightcore/internal/model"
	"github.com/aerocade/flightcore/internal/storage"
	"github.com/aerocade/flightcore/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Compile-time interface check
var _ storage.Backend = (*Backend)(nil)

// newTestBackend creates a Backend on a private in-memory sqlite database.
// The writer ticks slowly so tests flush explicitly.
func newTestBackend(t *testing.T, proj *geo.Projector) *Backend {
	t.Helper()
	db, err := database.GetSqliteDB("")
	require.NoError(t, err)

	b := New(Dependencies{
		DB:            db,
		LogManager:    logging.NewSlogManager(),
		Projector:     proj,
		FlushInterval: time.Hour,
	})
	require.NoError(t, b.Init())
	t.Cleanup(func() { b.Close() })
	return b
}

func newSession() *core.Session {
	return &core.Session{
		Aircraft:  "trainer",
		StartTime: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		TickRate:  50,
		SpawnPose: core.NewPose(core.Vec3{Y: 500}, core.QuatFromEuler(0, 1, 0)),
	}
}

func TestInit_NoDB(t *testing.T) {
	b := New(Dependencies{})
	assert.ErrorIs(t, b.Init(), ErrNoDB)
	assert.NoError(t, b.Close())
}

func TestClose_Idempotent(t *testing.T) {
	b := newTestBackend(t, nil)
	assert.NoError(t, b.Close())
	assert.NoError(t, b.Close())
}

func TestStartSession_AssignsID(t *testing.T) {
	b := newTestBackend(t, nil)

	s := newSession()
	require.NoError(t, b.StartSession(s))
	assert.NotZero(t, s.ID)

	sessions, err := b.Sessions()
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "trainer", sessions[0].Aircraft)
	assert.True(t, sessions[0].SpawnPose.Data().Equal(s.SpawnPose))
	assert.False(t, sessions[0].EndTime.Valid)
}

func TestRecord_WithoutSession(t *testing.T) {
	b := newTestBackend(t, nil)

	assert.ErrorIs(t, b.RecordTelemetry(&core.Telemetry{}), ErrNoSession)
	assert.ErrorIs(t, b.RecordLifecycleEvent(&core.LifecycleEvent{}), ErrNoSession)
	assert.ErrorIs(t, b.RecordThrottleEvent(&core.ThrottleEvent{}), ErrNoSession)
	assert.ErrorIs(t, b.EndSession(), ErrNoSession)
}

func TestRecord_QueuesUntilFlush(t *testing.T) {
	b := newTestBackend(t, nil)
	s := newSession()
	require.NoError(t, b.StartSession(s))

	for i := uint64(1); i <= 5; i++ {
		require.NoError(t, b.RecordTelemetry(&core.Telemetry{Tick: i, Thrust: 0.5}))
	}
	require.NoError(t, b.RecordThrottleEvent(&core.ThrottleEvent{Tick: 2, Kind: core.ThrottleOverride, Thrust: 1, Duration: -1}))
	require.NoError(t, b.RecordLifecycleEvent(&core.LifecycleEvent{Tick: 4, Kind: core.LifecycleKilled}))
	assert.Equal(t, 7, b.Pending())

	frames, err := b.Telemetry(s.ID)
	require.NoError(t, err)
	assert.Empty(t, frames)

	require.NoError(t, b.Flush())
	assert.Zero(t, b.Pending())

	frames, err = b.Telemetry(s.ID)
	require.NoError(t, err)
	require.Len(t, frames, 5)
	assert.Equal(t, uint64(5), frames[4].Tick)

	throttle, err := b.ThrottleEvents(s.ID)
	require.NoError(t, err)
	require.Len(t, throttle, 1)
	assert.Equal(t, time.Duration(-1), throttle[0].Duration)

	lifecycle, err := b.LifecycleEvents(s.ID)
	require.NoError(t, err)
	require.Len(t, lifecycle, 1)
	assert.Equal(t, "killed", lifecycle[0].Kind)
}

func TestEndSession_FinalizesRow(t *testing.T) {
	proj, err := geo.NewProjector(13.405, 52.52)
	require.NoError(t, err)
	b := newTestBackend(t, proj)

	s := newSession()
	require.NoError(t, b.StartSession(s))
	for i := uint64(1); i <= 3; i++ {
		require.NoError(t, b.RecordTelemetry(&core.Telemetry{Tick: i, Position: core.Vec3{Y: 500, Z: float64(i) * 50}}))
	}
	require.NoError(t, b.EndSession())

	sessions, err := b.Sessions()
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.True(t, sessions[0].EndTime.Valid)
	assert.Equal(t, uint64(3), sessions[0].FrameCount)
	assert.True(t, strings.HasPrefix(sessions[0].Track, "LINESTRING Z"), sessions[0].Track)

	frames, err := b.Telemetry(s.ID)
	require.NoError(t, err)
	assert.Len(t, frames, 3)

	assert.ErrorIs(t, b.RecordTelemetry(&core.Telemetry{}), ErrNoSession, "session closed")
}

func TestSessions_AreSeparated(t *testing.T) {
	b := newTestBackend(t, nil)

	first := newSession()
	require.NoError(t, b.StartSession(first))
	require.NoError(t, b.RecordTelemetry(&core.Telemetry{Tick: 1}))
	require.NoError(t, b.EndSession())

	second := newSession()
	require.NoError(t, b.StartSession(second))
	require.NoError(t, b.RecordTelemetry(&core.Telemetry{Tick: 1}))
	require.NoError(t, b.RecordTelemetry(&core.Telemetry{Tick: 2}))
	require.NoError(t, b.EndSession())

	assert.NotEqual(t, first.ID, second.ID)

	a, err := b.Telemetry(first.ID)
	require.NoError(t, err)
	c, err := b.Telemetry(second.ID)
	require.NoError(t, err)
	assert.Len(t, a, 1)
	assert.Len(t, c, 2)
}

func TestWriter_FlushesInBackground(t *testing.T) {
	db, err := database.GetSqliteDB("")
	require.NoError(t, err)
	b := New(Dependencies{DB: db, FlushInterval: 10 * time.Millisecond})
	require.NoError(t, b.Init())
	defer b.Close()

	s := newSession()
	require.NoError(t, b.StartSession(s))
	require.NoError(t, b.RecordTelemetry(&core.Telemetry{Tick: 1}))

	assert.Eventually(t, func() bool {
		frames, err := b.Telemetry(s.ID)
		return err == nil && len(frames) == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestClose_FlushesPending(t *testing.T) {
	db, err := database.GetSqliteDB("")
	require.NoError(t, err)
	b := New(Dependencies{DB: db, FlushInterval: time.Hour})
	require.NoError(t, b.Init())

	s := newSession()
	require.NoError(t, b.StartSession(s))
	require.NoError(t, b.RecordTelemetry(&core.Telemetry{Tick: 1}))
	require.NoError(t, b.Close())

	frames, err := b.Telemetry(s.ID)
	require.NoError(t, err)
	assert.Len(t, frames, 1)
}

// lockedBuffer is written by the writer goroutine while the test reads it.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (l *lockedBuffer) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.buf.Write(p)
}

func (l *lockedBuffer) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.buf.String()
}

func TestWriter_LogsFailedFlush(t *testing.T) {
	db, err := database.GetSqliteDB("")
	require.NoError(t, err)

	var out lockedBuffer
	lm := logging.NewSlogManager()
	lm.Setup(&out, "info", nil)

	b := New(Dependencies{DB: db, LogManager: lm, FlushInterval: 10 * time.Millisecond})
	require.NoError(t, b.Init())
	defer b.Close()

	require.NoError(t, b.StartSession(newSession()))
	require.NoError(t, db.Migrator().DropTable(&model.TelemetryFrame{}))
	require.NoError(t, b.RecordTelemetry(&core.Telemetry{Tick: 1}))

	assert.Eventually(t, func() bool {
		return strings.Contains(out.String(), "Flush failed")
	}, 2*time.Second, 10*time.Millisecond)
	assert.Contains(t, out.String(), "telemetry frames")
}
