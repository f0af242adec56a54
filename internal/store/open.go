package store

import (
	"context"
	"fmt"

	"labcatalog/internal/common/config"
	"labcatalog/internal/common/database"
)

// Backends accepted by Open.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

// Open builds the configured DocumentStore and makes sure its schema exists.
func Open(ctx context.Context, backend string, pg *config.DatabaseConfig, lite *config.SQLiteConfig) (DocumentStore, error) {
	switch backend {
	case "", BackendMemory:
		return NewMemoryStore(), nil
	case BackendPostgres:
		db, err := database.NewPostgresDB(pg)
		if err != nil {
			return nil, err
		}
		s := NewPostgresStore(db)
		if err := s.EnsureSchema(ctx); err != nil {
			database.Close(db)
			return nil, err
		}
		return s, nil
	case BackendSQLite:
		db, err := database.NewSQLiteDB(lite)
		if err != nil {
			return nil, err
		}
		s := NewSQLiteStore(db)
		if err := s.EnsureSchema(ctx); err != nil {
			database.Close(db)
			return nil, err
		}
		return s, nil
	}
	return nil, fmt.Errorf("unknown store backend %q", backend)
}
