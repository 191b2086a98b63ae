// Package backend opens the storage.Storage implementation named by
// configuration. It is the only package that imports every backend.
package backend

import (
	"context"
	"fmt"

	"github.com/aanand-mishra/student-records-api/internal/config"
	"github.com/aanand-mishra/student-records-api/internal/storage"
	"github.com/aanand-mishra/student-records-api/internal/storage/dynamo"
	"github.com/aanand-mishra/student-records-api/internal/storage/memory"
	"github.com/aanand-mishra/student-records-api/internal/storage/mongodb"
	"github.com/aanand-mishra/student-records-api/internal/storage/sqlite"
)

// Open connects to the configured store. It does not migrate.
func Open(ctx context.Context, cfg config.Storage) (storage.Storage, error) {
	var (
		store storage.Storage
		err   error
	)

	// store stays a nil interface when a constructor fails.
	switch cfg.Driver {
	case config.DriverMongo:
		var m *mongodb.Mongo
		if m, err = mongodb.New(ctx, cfg.Mongo); err == nil {
			store = m
		}
	case config.DriverDynamoDB:
		var d *dynamo.Dynamo
		if d, err = dynamo.New(ctx, cfg.DynamoDB); err == nil {
			store = d
		}
	case config.DriverSQLite:
		var s *sqlite.SQLite
		if s, err = sqlite.New(cfg.SQLite); err == nil {
			store = s
		}
	case config.DriverMemory:
		store = memory.New()
	default:
		err = fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}

	if err != nil {
		return nil, fmt.Errorf("backend.Open: %w", err)
	}
	return store, nil
}
