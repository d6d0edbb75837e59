// internal/storage/memory/memory.go
package memory

import (
	"errors"
	"sync"

	"github.com/aerocade/flightcore/internal/config"
	"github.com/aerocade/flightcore/internal/geo"
	"github.com/aerocade/flightcore/pkg/core"
)

// ErrNoSession is returned when recording outside a session.
var ErrNoSession = errors.New("no active session")

// Backend stores session data in memory and exports to JSON
type Backend struct {
	cfg       config.MemoryConfig
	projector *geo.Projector

	session   *core.Session
	telemetry []core.Telemetry
	lifecycle []core.LifecycleEvent
	throttle  []core.ThrottleEvent

	sessionCounter uint
	idCounter      uint
	lastExportPath string
	mu             sync.RWMutex
}

// New creates a new memory backend. A nil projector exports without a track.
func New(cfg config.MemoryConfig, projector *geo.Projector) *Backend {
	return &Backend{
		cfg:       cfg,
		projector: projector,
	}
}

// Init initializes the backend
func (b *Backend) Init() error {
	return nil
}

// Close cleans up resources
func (b *Backend) Close() error {
	return nil
}

// StartSession begins recording a new session
func (b *Backend) StartSession(s *core.Session) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.sessionCounter++
	s.ID = b.sessionCounter
	b.session = s

	b.telemetry = nil
	b.lifecycle = nil
	b.throttle = nil
	b.idCounter = 0

	return nil
}

// EndSession finalizes and exports the session data
func (b *Backend) EndSession() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.session == nil {
		return ErrNoSession
	}
	return b.exportJSON()
}

// RecordTelemetry appends one frame
func (b *Backend) RecordTelemetry(t *core.Telemetry) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.session == nil {
		return ErrNoSession
	}
	b.telemetry = append(b.telemetry, *t)
	return nil
}

// RecordLifecycleEvent records a kill or respawn and assigns its ID
func (b *Backend) RecordLifecycleEvent(e *core.LifecycleEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.session == nil {
		return ErrNoSession
	}
	b.idCounter++
	e.ID = b.idCounter
	b.lifecycle = append(b.lifecycle, *e)
	return nil
}

// RecordThrottleEvent records a throttle change and assigns its ID
func (b *Backend) RecordThrottleEvent(e *core.ThrottleEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.session == nil {
		return ErrNoSession
	}
	b.idCounter++
	e.ID = b.idCounter
	b.throttle = append(b.throttle, *e)
	return nil
}

// Telemetry returns a copy of the recorded frames.
func (b *Backend) Telemetry() []core.Telemetry {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]core.Telemetry(nil), b.telemetry...)
}

// LifecycleEvents returns a copy of the recorded lifecycle events.
func (b *Backend) LifecycleEvents() []core.LifecycleEvent {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]core.LifecycleEvent(nil), b.lifecycle...)
}

// ThrottleEvents returns a copy of the recorded throttle events.
func (b *Backend) ThrottleEvents() []core.ThrottleEvent {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]core.ThrottleEvent(nil), b.throttle...)
}

// ExportedFilePath returns the path of the last export, empty before one.
func (b *Backend) ExportedFilePath() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastExportPath
}
