package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// swapped by tests
var (
	osStdout = os.Stdout
	osPipe   = os.Pipe
)

// instrumentationScope names the OTel log bridge.
const instrumentationScope = "flightcore"

// SlogManager manages slog-based logging with optional OTel integration.
type SlogManager struct {
	logger *slog.Logger
	sinks  *Fanout

	// OTel provider for flushing
	logProvider *sdklog.LoggerProvider
}

// NewSlogManager creates a new slog-based logging manager.
func NewSlogManager() *SlogManager {
	return &SlogManager{}
}

// Option configures extra sinks for Setup.
type Option func(*setupOptions)

type setupOptions struct {
	console bool
	graylog io.Writer
	session Stamper
}

// WithConsole writes to stdout even when a file is given.
func WithConsole() Option {
	return func(o *setupOptions) { o.console = true }
}

// WithGraylog adds a JSON handler writing to w, typically a GELF writer.
func WithGraylog(w io.Writer) Option {
	return func(o *setupOptions) { o.graylog = w }
}

// WithSession stamps every record with the session's attributes.
func WithSession(s Stamper) Option {
	return func(o *setupOptions) { o.session = s }
}

// parseLevel converts a string log level to slog.Level.
func parseLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Setup initializes the logging system with file and optional OTel output.
// Without a file, or with WithConsole, records also go to stdout; the
// console never shows debug lines. If provider is nil, OTel logging is
// disabled.
func (m *SlogManager) Setup(file io.Writer, level string, provider *sdklog.LoggerProvider, opts ...Option) {
	var o setupOptions
	for _, opt := range opts {
		opt(&o)
	}

	lvl := parseLevel(level)
	m.logProvider = provider

	// Levels are applied per sink by the Fanout.
	handlerOpts := &slog.HandlerOptions{
		Level: slog.LevelDebug,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				if t, ok := a.Value.Any().(time.Time); ok {
					a.Value = slog.StringValue(t.UTC().Format(time.RFC3339))
				}
			}
			return a
		},
	}

	var sinks []Sink

	if file == nil || o.console {
		sinks = append(sinks, Sink{Name: "console", Handler: slog.NewTextHandler(osStdout, handlerOpts), Level: max(lvl, slog.LevelInfo)})
	}

	if file != nil {
		sinks = append(sinks, Sink{Name: "file", Handler: slog.NewTextHandler(file, handlerOpts), Level: lvl})
	}

	if o.graylog != nil {
		sinks = append(sinks, Sink{Name: "graylog", Handler: slog.NewJSONHandler(o.graylog, handlerOpts), Level: lvl})
	}

	if provider != nil {
		otelHandler := otelslog.NewHandler(instrumentationScope, otelslog.WithLoggerProvider(provider))
		sinks = append(sinks, Sink{Name: "otel", Handler: otelHandler, Level: lvl})
	}

	m.sinks = NewFanout(sinks...)
	var h slog.Handler = m.sinks
	if o.session != nil {
		h = NewSessionHandler(h, o.session)
	}

	m.logger = slog.New(h)
	m.logger.Info("Logging initialized", "level", level)
}

// Logger returns the configured slog.Logger.
func (m *SlogManager) Logger() *slog.Logger {
	if m.logger == nil {
		// Return a default logger if Setup hasn't been called
		return slog.Default()
	}
	return m.logger
}

// Sinks names the active log destinations, empty before Setup.
func (m *SlogManager) Sinks() []string {
	if m.sinks == nil {
		return nil
	}
	return m.sinks.Sinks()
}

// Component returns the logger tagged with a component name.
func (m *SlogManager) Component(name string) *slog.Logger {
	return m.Logger().With("component", name)
}

// Flush forces a flush of OTel logs if available.
func (m *SlogManager) Flush(ctx context.Context) error {
	if m.logProvider != nil {
		return m.logProvider.ForceFlush(ctx)
	}
	return nil
}

// WriteLog writes a log entry with the specified function name, data, and level.
func (m *SlogManager) WriteLog(functionName, data, level string) {
	if m.logger == nil {
		return
	}

	switch parseLevel(level) {
	case slog.LevelDebug:
		m.logger.Debug(data, "function", functionName)
	case slog.LevelWarn:
		m.logger.Warn(data, "function", functionName)
	case slog.LevelError:
		m.logger.Error(data, "function", functionName)
	default:
		m.logger.Info(data, "function", functionName)
	}
}
