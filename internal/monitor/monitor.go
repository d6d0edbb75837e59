// Package monitor periodically reports recorder and storage health to a
// status file and the log.
package monitor

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/aerocade/flightcore/internal/logging"
	"github.com/aerocade/flightcore/internal/session"
	"github.com/shirou/gopsutil/cpu"
)

// StatusFileName is written inside Dependencies.StatusDir.
const StatusFileName = "status.json"

// DefaultInterval is used when Dependencies.Interval is zero.
const DefaultInterval = time.Second

// RecorderStats is implemented by *recorder.Recorder.
type RecorderStats interface {
	Pending() int
	Dropped() uint64
	Written() uint64
}

// PendingCounter is implemented by queue-backed storage backends.
type PendingCounter interface {
	Pending() int
}

// Dependencies holds all dependencies for the monitor service
type Dependencies struct {
	LogManager     *logging.SlogManager
	SessionContext *session.Context
	Recorder       RecorderStats
	Backend        any // checked for PendingCounter
	StatusDir      string
	Interval       time.Duration
}

// RecorderStatus is the recorder section of a Status.
type RecorderStatus struct {
	Pending int    `json:"pending"`
	Dropped uint64 `json:"dropped"`
	Written uint64 `json:"written"`
}

// RuntimeStatus is the process section of a Status. Memory is in MiB.
type RuntimeStatus struct {
	Goroutines  int    `json:"goroutines"`
	AllocMemory uint64 `json:"allocMemory"`
	SysMemory   uint64 `json:"sysMemory"`
	NumGC       uint32 `json:"numGC"`
	CPUUsage    int    `json:"cpuUsage"`
}

// Status is one health snapshot.
type Status struct {
	Time           time.Time      `json:"time"`
	SessionID      uint           `json:"sessionId"`
	Aircraft       string         `json:"aircraft"`
	Tick           uint64         `json:"tick"`
	Thrust         float64        `json:"thrust"`
	Override       bool           `json:"override"`
	Destroyed      bool           `json:"destroyed"`
	Recorder       RecorderStatus `json:"recorder"`
	BackendPending int            `json:"backendPending"`
	Runtime        RuntimeStatus  `json:"runtime"`
}

// Service manages status monitoring
type Service struct {
	deps      Dependencies
	isRunning bool
	mu        sync.RWMutex
	stopChan  chan struct{}
	done      chan struct{}
}

// NewService creates a new monitor service
func NewService(deps Dependencies) *Service {
	if deps.LogManager == nil {
		deps.LogManager = logging.NewSlogManager()
	}
	if deps.SessionContext == nil {
		deps.SessionContext = session.NewContext()
	}
	if deps.Interval <= 0 {
		deps.Interval = DefaultInterval
	}
	return &Service{deps: deps}
}

// IsRunning returns whether the status monitor is running
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetStatus collects the current status.
func (s *Service) GetStatus() Status {
	sess := s.deps.SessionContext.GetSession()
	last := s.deps.SessionContext.Last()

	st := Status{
		Time:      time.Now(),
		SessionID: sess.ID,
		Aircraft:  sess.Aircraft,
		Tick:      last.Tick,
		Thrust:    last.Thrust,
		Override:  last.Override,
		Destroyed: last.Destroyed,
	}
	if r := s.deps.Recorder; r != nil {
		st.Recorder = RecorderStatus{
			Pending: r.Pending(),
			Dropped: r.Dropped(),
			Written: r.Written(),
		}
	}
	if b, ok := s.deps.Backend.(PendingCounter); ok {
		st.BackendPending = b.Pending()
	}
	st.Runtime = runtimeStatus()
	return st
}

// runtimeStatus samples the process. CPU usage is measured since the
// previous call, so the first sample may read 0.
func runtimeStatus() RuntimeStatus {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	rs := RuntimeStatus{
		Goroutines:  runtime.NumGoroutine(),
		AllocMemory: m.Alloc / (1024 * 1024),
		SysMemory:   m.Sys / (1024 * 1024),
		NumGC:       m.NumGC,
	}
	if usage, err := cpu.Percent(0, false); err == nil && len(usage) > 0 {
		rs.CPUUsage = int(math.Round(usage[0]))
	}
	return rs
}

// StatusPath returns where the status file is written, or "" when disabled.
func (s *Service) StatusPath() string {
	if s.deps.StatusDir == "" {
		return ""
	}
	return filepath.Join(s.deps.StatusDir, StatusFileName)
}

// WriteStatus writes st to the status file, replacing the previous one.
func (s *Service) WriteStatus(st Status) error {
	path := s.StatusPath()
	if path == "" {
		return nil
	}
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding status: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing status: %w", err)
	}
	return os.Rename(tmp, path)
}

// Start starts the status monitor goroutine
func (s *Service) Start() error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.stopChan = make(chan struct{})
	s.done = make(chan struct{})
	s.mu.Unlock()

	go func() {
		defer func() {
			s.mu.Lock()
			s.isRunning = false
			s.mu.Unlock()
			close(s.done)
		}()

		logger := s.deps.LogManager.Component("monitor")
		logger.Debug("Starting status monitor goroutine", "interval", s.deps.Interval)

		ticker := time.NewTicker(s.deps.Interval)
		defer ticker.Stop()

		var lastDropped uint64
		for {
			select {
			case <-s.stopChan:
				return
			case <-ticker.C:
				if s.deps.SessionContext.GetSession().ID == 0 {
					continue
				}

				st := s.GetStatus()
				if err := s.WriteStatus(st); err != nil {
					logger.Error("Error writing status file", "error", err)
				}
				if st.Recorder.Dropped > lastDropped {
					logger.Warn("Recorder dropping telemetry",
						"dropped", st.Recorder.Dropped-lastDropped,
						"pending", st.Recorder.Pending)
					lastDropped = st.Recorder.Dropped
				}
				logger.Debug("status",
					"tick", st.Tick,
					"goroutines", st.Runtime.Goroutines,
					"cpu", st.Runtime.CPUUsage,
					"recorderPending", st.Recorder.Pending,
					"backendPending", st.BackendPending)
			}
		}
	}()

	return nil
}

// Stop stops the status monitor and waits for it to exit.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	close(s.stopChan)
	done := s.done
	s.mu.Unlock()
	<-done
}
