package main

import (
	"fmt"

	"github.com/aerocade/flightcore/internal/config"
	"github.com/aerocade/flightcore/internal/geo"
	"github.com/aerocade/flightcore/internal/logging"
	"github.com/aerocade/flightcore/internal/storage"
	"github.com/aerocade/flightcore/internal/storage/memory"
	pgstorage "github.com/aerocade/flightcore/internal/storage/postgres"
	sqlitestorage "github.com/aerocade/flightcore/internal/storage/sqlite"
)

func createStorageBackend(storageCfg config.StorageConfig, logManager *logging.SlogManager, projector *geo.Projector) (storage.Backend, error) {
	logger := logManager.Logger()

	switch storageCfg.Type {
	case "postgres":
		backend, err := pgstorage.New(storageCfg.Postgres, storageCfg.FlushInterval, logManager, projector)
		if err != nil {
			return nil, fmt.Errorf("failed to create Postgres backend: %w", err)
		}
		logger.Info("Postgres storage backend initialized", "host", storageCfg.Postgres.Host, "database", storageCfg.Postgres.Database)
		return backend, nil

	case "sqlite":
		backend, err := sqlitestorage.New(storageCfg.SQLite, storageCfg.FlushInterval, logManager, projector)
		if err != nil {
			return nil, fmt.Errorf("failed to create SQLite backend: %w", err)
		}
		logger.Info("SQLite storage backend initialized", "path", storageCfg.SQLite.Path)
		return backend, nil

	case "memory", "":
		logger.Info("Memory storage backend initialized", "outputDir", storageCfg.Memory.OutputDir)
		return memory.New(storageCfg.Memory, projector), nil

	default:
		return nil, fmt.Errorf("unknown storage type %q", storageCfg.Type)
	}
}
