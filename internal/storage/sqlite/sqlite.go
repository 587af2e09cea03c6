// Package sqlitestorage stores projects in SQLite. With no path configured
// the database lives in memory and is dumped to disk periodically via
// VACUUM INTO.
package sqlitestorage

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tmcoach/board/internal/config"
	"github.com/tmcoach/board/internal/database"
	gormstorage "github.com/tmcoach/board/internal/storage/gorm"
)

// Backend wraps the GORM backend for SQLite-specific behavior.
type Backend struct {
	*gormstorage.Backend
	db       *database.Manager
	cfg      config.SQLiteConfig
	log      *slog.Logger
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// New opens the SQLite database described by cfg.
func New(cfg config.SQLiteConfig, log *slog.Logger, dbLog zerolog.Logger) (*Backend, error) {
	if log == nil {
		log = slog.Default()
	}
	m := database.NewManager(dbLog)
	if err := m.OpenSqlite(cfg.Path); err != nil {
		return nil, fmt.Errorf("failed to open SQLite DB: %w", err)
	}

	return &Backend{
		Backend:  gormstorage.New(gormstorage.Dependencies{DB: m.DB, Logger: log}),
		db:       m,
		cfg:      cfg,
		log:      log,
		stopChan: make(chan struct{}),
	}, nil
}

// dumps reports whether the in-memory database is periodically persisted
func (b *Backend) dumps() bool {
	return b.db.InMemory && b.cfg.DumpPath != ""
}

// Init initializes the embedded GORM backend and starts the dump goroutine.
func (b *Backend) Init() error {
	if err := b.Backend.Init(); err != nil {
		return err
	}

	if b.dumps() && b.cfg.DumpInterval > 0 {
		b.wg.Add(1)
		go b.dumpLoop()
	}
	return nil
}

// Close stops the dump goroutine, writes a final dump and closes the database.
func (b *Backend) Close() error {
	select {
	case <-b.stopChan:
		return nil
	default:
		close(b.stopChan)
	}
	b.wg.Wait()

	var dumpErr error
	if b.dumps() {
		dumpErr = b.db.DumpToDisk(b.cfg.DumpPath)
	}
	if err := b.db.Close(); err != nil {
		return err
	}
	return dumpErr
}

// dumpLoop periodically dumps the in-memory SQLite database to disk.
// VACUUM INTO creates a point-in-time snapshot, so no pause mechanism is needed.
func (b *Backend) dumpLoop() {
	defer b.wg.Done()
	ticker := time.NewTicker(b.cfg.DumpInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopChan:
			return
		case <-ticker.C:
			start := time.Now()
			if err := b.db.DumpToDisk(b.cfg.DumpPath); err != nil {
				b.log.Error("Error dumping to disk", "component", "sqlite:dumpLoop", "error", err)
			} else {
				b.log.Debug("Dumped to disk", "component", "sqlite:dumpLoop", "duration", time.Since(start))
			}
		}
	}
}
