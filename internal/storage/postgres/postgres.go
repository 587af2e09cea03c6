// Package postgres stores projects in PostgreSQL through the GORM backend.
// Bodies are kept in a JSONB column.
package postgres

import (
	"fmt"
	"log/slog"

	"github.com/rs/zerolog"

	"github.com/tmcoach/board/internal/config"
	"github.com/tmcoach/board/internal/database"
	gormstorage "github.com/tmcoach/board/internal/storage/gorm"
)

// Backend connects to PostgreSQL on Init
type Backend struct {
	*gormstorage.Backend
	cfg config.PostgresConfig
	db  *database.Manager
	log *slog.Logger
}

// New creates a PostgreSQL backend. No connection is made until Init.
func New(cfg config.PostgresConfig, log *slog.Logger, dbLog zerolog.Logger) *Backend {
	if log == nil {
		log = slog.Default()
	}
	return &Backend{
		cfg: cfg,
		db:  database.NewManager(dbLog),
		log: log,
	}
}

// DSN returns the connection string used by Init
func (b *Backend) DSN() string {
	return database.PostgresDSN(b.cfg)
}

// Init connects and migrates the schema.
func (b *Backend) Init() error {
	if err := b.db.OpenPostgres(b.cfg); err != nil {
		return fmt.Errorf("failed to connect to postgres: %w", err)
	}
	b.Backend = gormstorage.New(gormstorage.Dependencies{DB: b.db.DB, Logger: b.log})
	if err := b.Backend.Init(); err != nil {
		_ = b.db.Close()
		return err
	}
	b.log.Info("Database setup complete", "component", "postgres", "host", b.cfg.Host, "database", b.cfg.Database)
	return nil
}

// Close closes the connection pool.
func (b *Backend) Close() error {
	return b.db.Close()
}
