package session

import (
	"log/slog"
	"sync"

	"github.com/aerocade/flightcore/pkg/core"
)

// Context holds the current session and the latest tick seen by the host.
// It is written from the tick goroutine and read by log handlers and the
// monitor from any goroutine.
type Context struct {
	mu      sync.RWMutex
	session *core.Session
	last    core.Telemetry
}

// NewContext creates a new Context with default values
func NewContext() *Context {
	return &Context{
		session: &core.Session{Aircraft: "No aircraft loaded"},
	}
}

// GetSession returns the current session
func (c *Context) GetSession() *core.Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

// SetSession sets the current session and resets the tick
func (c *Context) SetSession(s *core.Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = s
	c.last = core.Telemetry{}
}

// Tick returns the last presented tick
func (c *Context) Tick() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.last.Tick
}

// Last returns the last presented frame.
func (c *Context) Last() core.Telemetry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.last
}

// Present keeps a copy of the frame.
func (c *Context) Present(t core.Telemetry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.last = t
}

// LogAttrs returns the attributes stamped on every log record.
func (c *Context) LogAttrs() []slog.Attr {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return []slog.Attr{
		slog.Uint64("session", uint64(c.session.ID)),
		slog.String("aircraft", c.session.Aircraft),
		slog.Uint64("tick", c.last.Tick),
		slog.Bool("destroyed", c.last.Destroyed),
		slog.Bool("override", c.last.Override),
	}
}
