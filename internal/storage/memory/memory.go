// Package memory keeps projects in process memory. Projects can be exported
// to a directory as project files when the backend is closed.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/tmcoach/board/internal/config"
	"github.com/tmcoach/board/internal/storage"
	filestore "github.com/tmcoach/board/internal/storage/file"
)

type entry struct {
	data []byte
	info storage.ProjectInfo
}

// Backend stores projects in memory and exports them on Close
type Backend struct {
	cfg      config.MemoryConfig
	projects map[string]entry
	exported []string
	now      func() time.Time
	mu       sync.RWMutex
}

// New creates a new memory backend
func New(cfg config.MemoryConfig) *Backend {
	return &Backend{
		cfg:      cfg,
		projects: make(map[string]entry),
		now:      time.Now,
	}
}

// Init initializes the backend
func (b *Backend) Init() error {
	return nil
}

// Close exports every project to OutputDir when one is configured
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.cfg.OutputDir == "" {
		return nil
	}
	return b.export()
}

func (b *Backend) export() error {
	b.exported = b.exported[:0]
	for name, e := range b.projects {
		if err := filestore.WriteProject(b.cfg.OutputDir, name, e.data, b.cfg.CompressOutput); err != nil {
			return fmt.Errorf("export %s: %w", name, err)
		}
		b.exported = append(b.exported, filestore.ProjectPath(b.cfg.OutputDir, name, b.cfg.CompressOutput))
	}
	slices.Sort(b.exported)
	return nil
}

// ExportedPaths returns the files written by the last Close
func (b *Backend) ExportedPaths() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return slices.Clone(b.exported)
}

// Save stores a copy of data
func (b *Backend) Save(_ context.Context, name string, data []byte) error {
	if err := storage.ValidateName(name); err != nil {
		return err
	}
	cp := slices.Clone(data)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.projects[name] = entry{data: cp, info: storage.NewInfo(name, cp, b.now())}
	return nil
}

// Load returns a copy of the stored bytes
func (b *Backend) Load(_ context.Context, name string) ([]byte, error) {
	if err := storage.ValidateName(name); err != nil {
		return nil, err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	e, ok := b.projects[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, name)
	}
	return slices.Clone(e.data), nil
}

// Delete removes a project
func (b *Backend) Delete(_ context.Context, name string) error {
	if err := storage.ValidateName(name); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.projects[name]; !ok {
		return fmt.Errorf("%w: %s", storage.ErrNotFound, name)
	}
	delete(b.projects, name)
	return nil
}

// List returns the info of every project sorted by name
func (b *Backend) List(_ context.Context) ([]storage.ProjectInfo, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	infos := make([]storage.ProjectInfo, 0, len(b.projects))
	for _, e := range b.projects {
		infos = append(infos, e.info)
	}
	return storage.SortInfos(infos), nil
}
