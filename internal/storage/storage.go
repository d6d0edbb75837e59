// internal/storage/storage.go
package storage

import "github.com/aerocade/flightcore/pkg/core"

// Backend is the interface all storage implementations must satisfy
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// Session management (StartSession assigns ID to the passed pointer)
	StartSession(s *core.Session) error
	EndSession() error

	// Recording
	RecordTelemetry(t *core.Telemetry) error
	RecordLifecycleEvent(e *core.LifecycleEvent) error
	RecordThrottleEvent(e *core.ThrottleEvent) error
}

// Exporter is an optional interface for backends that write a file when a
// session ends.
type Exporter interface {
	ExportedFilePath() string
}
