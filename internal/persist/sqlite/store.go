// Package sqlite implements persist.Store on an embedded SQLite database.
// It carries the same schema and semantics as the postgres backend and is
// the default for single-machine setups.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/fusiongo/server/internal/config"
	"github.com/fusiongo/server/internal/persist"
)

// Store wraps a database/sql handle over the modernc sqlite driver.
type Store struct {
	db  *sql.DB
	log *zap.Logger
}

var _ persist.Store = (*Store)(nil)

// Open opens the database file, applies pending migrations, and returns the
// store. The file is created on first open.
func Open(ctx context.Context, cfg config.DatabaseConfig, log *zap.Logger) (*Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	// Pragmas apply per connection; foreign_keys must be on for the
	// cascade semantics of the schema.
	dsn := filepath.Clean(cfg.Path) +
		"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping: %v: %w", err, persist.ErrConnectivity)
	}
	if err := RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	log.Info("sqlite store ready", zap.String("path", cfg.Path))

	return &Store{db: db, log: log}, nil
}

func (s *Store) Close() {
	if s.db != nil {
		s.db.Close()
	}
}
