// Package postgres implements the storage.Backend interface on PostgreSQL
// through the GORM backend.
package postgres

import (
	"fmt"
	"time"

	"github.com/aerocade/flightcore/internal/config"
	"github.com/aerocade/flightcore/internal/database"
	"github.com/aerocade/flightcore/internal/geo"
	"github.com/aerocade/flightcore/internal/logging"
	gormstorage "github.com/aerocade/flightcore/internal/storage/gorm"
)

// maxOpenConns caps the pool; the writer goroutine is the main user.
const maxOpenConns = 10

// Backend is the GORM backend bound to a PostgreSQL connection.
type Backend struct {
	*gormstorage.Backend
	cfg config.PostgresConfig
}

// New connects to PostgreSQL and validates the connection.
func New(cfg config.PostgresConfig, flushInterval time.Duration, logManager *logging.SlogManager, projector *geo.Projector) (*Backend, error) {
	db, err := database.GetPostgresDB(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres at %s:%s: %w", cfg.Host, cfg.Port, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access sql interface: %w", err)
	}
	if err = sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to validate connection: %w", err)
	}
	sqlDB.SetMaxOpenConns(maxOpenConns)

	return &Backend{
		Backend: gormstorage.New(gormstorage.Dependencies{
			DB:            db,
			LogManager:    logManager,
			Projector:     projector,
			FlushInterval: flushInterval,
		}),
		cfg: cfg,
	}, nil
}

// Close flushes and closes the connection pool.
func (b *Backend) Close() error {
	if err := b.Backend.Close(); err != nil {
		return err
	}
	sqlDB, err := b.DB().DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
