// Package gormstorage implements the storage.Backend interface on GORM
// with internal queues and a background DB writer goroutine.
package gormstorage

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aerocade/flightcore/internal/database"
	"github.com/aerocade/flightcore/internal/geo"
	"github.com/aerocade/flightcore/internal/logging"
	"github.com/aerocade/flightcore/internal/model"
	"github.com/aerocade/flightcore/internal/model/convert"
	"github.com/aerocade/flightcore/internal/queue"
	"github.com/aerocade/flightcore/pkg/core"

	"gorm.io/gorm"
)

var (
	// ErrNoDB is returned by Init when no database was injected.
	ErrNoDB = errors.New("no database configured")
	// ErrNoSession is returned when recording outside a session.
	ErrNoSession = errors.New("no active session")
)

// DefaultFlushInterval is used when Dependencies.FlushInterval is zero.
const DefaultFlushInterval = 2 * time.Second

// Dependencies holds all dependencies for the GORM storage backend.
type Dependencies struct {
	DB            *gorm.DB
	LogManager    *logging.SlogManager
	Projector     *geo.Projector // optional, fills frame locations and the session track
	FlushInterval time.Duration
}

// queues holds all the write queues for batch DB insertion.
type queues struct {
	Frames    *queue.Queue[model.TelemetryFrame]
	Lifecycle *queue.Queue[model.LifecycleEvent]
	Throttle  *queue.Queue[model.ThrottleEvent]
}

func newQueues() *queues {
	return &queues{
		Frames:    queue.New[model.TelemetryFrame](),
		Lifecycle: queue.New[model.LifecycleEvent](),
		Throttle:  queue.New[model.ThrottleEvent](),
	}
}

// Backend implements storage.Backend using GORM with queue-based batch writes.
type Backend struct {
	deps      Dependencies
	queues    *queues
	sessionID atomic.Uint64
	frames    atomic.Uint64

	trackMu sync.Mutex
	track   []core.Vec3

	writeMu   sync.Mutex
	stopChan  chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// New creates a new GORM storage backend.
func New(deps Dependencies) *Backend {
	if deps.LogManager == nil {
		deps.LogManager = logging.NewSlogManager()
	}
	if deps.FlushInterval <= 0 {
		deps.FlushInterval = DefaultFlushInterval
	}
	return &Backend{
		deps:   deps,
		queues: newQueues(),
	}
}

// Init runs schema migration and starts the DB writer goroutine.
func (b *Backend) Init() error {
	if b.deps.DB == nil {
		return ErrNoDB
	}

	b.deps.LogManager.WriteLog("setupDB", "Migrating schema", "INFO")
	if err := database.Migrate(b.deps.DB); err != nil {
		return fmt.Errorf("failed to setup DB: %w", err)
	}
	b.deps.LogManager.WriteLog("setupDB", "Database setup complete", "INFO")

	b.stopChan = make(chan struct{})
	b.done = make(chan struct{})
	b.startDBWriter()
	return nil
}

// DB returns the underlying connection.
func (b *Backend) DB() *gorm.DB {
	return b.deps.DB
}

// Close stops the DB writer goroutine after a final flush.
func (b *Backend) Close() error {
	b.closeOnce.Do(func() {
		if b.stopChan != nil {
			close(b.stopChan)
			<-b.done
		}
	})
	return nil
}

// StartSession inserts the session row and assigns its ID.
func (b *Backend) StartSession(s *core.Session) error {
	if b.deps.DB == nil {
		return ErrNoDB
	}

	gormSession := convert.CoreToSession(*s)
	gormSession.ID = 0
	if err := b.deps.DB.Create(&gormSession).Error; err != nil {
		return fmt.Errorf("failed to insert new session: %w", err)
	}

	s.ID = gormSession.ID
	b.sessionID.Store(uint64(gormSession.ID))
	b.frames.Store(0)

	b.trackMu.Lock()
	b.track = b.track[:0]
	b.trackMu.Unlock()

	b.deps.LogManager.WriteLog("StartSession", fmt.Sprintf("Session %d started for %s", s.ID, s.Aircraft), "INFO")
	return nil
}

// EndSession flushes pending rows and stamps end time, frame count and track.
func (b *Backend) EndSession() error {
	id := uint(b.sessionID.Load())
	if id == 0 {
		return ErrNoSession
	}

	if err := b.Flush(); err != nil {
		return err
	}

	updates := map[string]any{
		"end_time":    sql.NullTime{Time: time.Now(), Valid: true},
		"frame_count": b.frames.Load(),
	}

	b.trackMu.Lock()
	if b.deps.Projector != nil && len(b.track) >= 2 {
		if wkt, err := b.deps.Projector.TrackWKT(b.track); err == nil {
			updates["track"] = wkt
		}
	}
	b.trackMu.Unlock()

	if err := b.deps.DB.Model(&model.Session{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to finalize session %d: %w", id, err)
	}

	b.sessionID.Store(0)
	return nil
}

// RecordTelemetry converts and queues a telemetry frame.
func (b *Backend) RecordTelemetry(t *core.Telemetry) error {
	if b.sessionID.Load() == 0 {
		return ErrNoSession
	}
	b.queues.Frames.Push(convert.CoreToTelemetryFrame(0, *t, b.deps.Projector))
	b.frames.Add(1)

	b.trackMu.Lock()
	b.track = append(b.track, t.Position)
	b.trackMu.Unlock()
	return nil
}

// RecordLifecycleEvent converts and queues a lifecycle event.
func (b *Backend) RecordLifecycleEvent(e *core.LifecycleEvent) error {
	if b.sessionID.Load() == 0 {
		return ErrNoSession
	}
	b.queues.Lifecycle.Push(convert.CoreToLifecycleEvent(0, *e))
	return nil
}

// RecordThrottleEvent converts and queues a throttle event.
func (b *Backend) RecordThrottleEvent(e *core.ThrottleEvent) error {
	if b.sessionID.Load() == 0 {
		return ErrNoSession
	}
	b.queues.Throttle.Push(convert.CoreToThrottleEvent(0, *e))
	return nil
}

// Flush writes all queued rows now.
func (b *Backend) Flush() error {
	b.writeMu.Lock()
	defer b.writeMu.Unlock()

	sessionID := uint(b.sessionID.Load())
	log := b.deps.LogManager.WriteLog

	return errors.Join(
		writeQueue(b.deps.DB, b.queues.Frames, "telemetry frames", log, func(items []model.TelemetryFrame) {
			for i := range items {
				items[i].SessionID = sessionID
			}
		}),
		writeQueue(b.deps.DB, b.queues.Lifecycle, "lifecycle events", log, func(items []model.LifecycleEvent) {
			for i := range items {
				items[i].SessionID = sessionID
			}
		}),
		writeQueue(b.deps.DB, b.queues.Throttle, "throttle events", log, func(items []model.ThrottleEvent) {
			for i := range items {
				items[i].SessionID = sessionID
			}
		}),
	)
}

// Pending returns the number of queued rows.
func (b *Backend) Pending() int {
	return b.queues.Frames.Len() + b.queues.Lifecycle.Len() + b.queues.Throttle.Len()
}

// writeQueue writes all items from a queue to the database in a transaction.
// On failure the items go back on the queue.
func writeQueue[T any](db *gorm.DB, q *queue.Queue[T], name string, log func(string, string, string), prepare func([]T)) error {
	if q.Empty() {
		return nil
	}

	tx := db.Begin()
	items := q.GetAndEmpty()
	if prepare != nil {
		prepare(items)
	}
	if err := tx.Create(&items).Error; err != nil {
		log(":DB:WRITER:", fmt.Sprintf("Error creating %s: %v", name, err), "ERROR")
		tx.Rollback()
		q.Push(items...)
		return fmt.Errorf("failed to write %s: %w", name, err)
	}

	return tx.Commit().Error
}

// startDBWriter starts the background goroutine that periodically drains queues into the DB.
func (b *Backend) startDBWriter() {
	go func() {
		defer close(b.done)

		ticker := time.NewTicker(b.deps.FlushInterval)
		defer ticker.Stop()

		for {
			select {
			case <-b.stopChan:
				if b.sessionID.Load() != 0 {
					b.flushLogged()
				}
				return
			case <-ticker.C:
				if b.sessionID.Load() == 0 {
					continue
				}
				b.flushLogged()
			}
		}
	}()
}

// flushLogged flushes from the writer goroutine, which has no caller to
// return the error to. Failed batches stay queued for the next tick.
func (b *Backend) flushLogged() {
	if err := b.Flush(); err != nil {
		b.deps.LogManager.WriteLog(":DB:WRITER:", fmt.Sprintf("Flush failed: %v", err), "ERROR")
	}
}

// Sessions returns all stored sessions, oldest first.
func (b *Backend) Sessions() ([]model.Session, error) {
	var sessions []model.Session
	err := b.deps.DB.Order("id").Find(&sessions).Error
	return sessions, err
}

// Telemetry returns the stored frames of a session in tick order.
func (b *Backend) Telemetry(sessionID uint) ([]core.Telemetry, error) {
	var frames []model.TelemetryFrame
	if err := b.deps.DB.Where("session_id = ?", sessionID).Order("tick").Find(&frames).Error; err != nil {
		return nil, err
	}
	out := make([]core.Telemetry, len(frames))
	for i, f := range frames {
		out[i] = convert.TelemetryFrameToCore(f)
	}
	return out, nil
}

// ThrottleEvents returns the stored throttle events of a session in tick order.
func (b *Backend) ThrottleEvents(sessionID uint) ([]core.ThrottleEvent, error) {
	var events []model.ThrottleEvent
	if err := b.deps.DB.Where("session_id = ?", sessionID).Order("tick, id").Find(&events).Error; err != nil {
		return nil, err
	}
	out := make([]core.ThrottleEvent, len(events))
	for i, e := range events {
		out[i] = convert.ThrottleEventToCore(e)
	}
	return out, nil
}

// LifecycleEvents returns the stored lifecycle events of a session in tick order.
func (b *Backend) LifecycleEvents(sessionID uint) ([]model.LifecycleEvent, error) {
	var events []model.LifecycleEvent
	err := b.deps.DB.Where("session_id = ?", sessionID).Order("tick, id").Find(&events).Error
	return events, err
}
