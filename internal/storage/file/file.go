// Package filestore keeps each project as a "<name>.tmc.json" file in one
// directory, optionally gzip-compressed as "<name>.tmc.json.gz".
package filestore

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/tmcoach/board/internal/config"
	"github.com/tmcoach/board/internal/document"
	"github.com/tmcoach/board/internal/storage"
)

// GzipExtension is appended to compressed project files
const GzipExtension = ".gz"

// Backend stores projects as files
type Backend struct {
	cfg config.FileConfig
	mu  sync.RWMutex
}

// New creates a file backend
func New(cfg config.FileConfig) *Backend {
	return &Backend{cfg: cfg}
}

// Init creates the project directory
func (b *Backend) Init() error {
	if b.cfg.Dir == "" {
		return fmt.Errorf("file storage: no directory configured")
	}
	if err := os.MkdirAll(b.cfg.Dir, 0o755); err != nil {
		return fmt.Errorf("file storage: %w", err)
	}
	return nil
}

// Close is a no-op
func (b *Backend) Close() error {
	return nil
}

// Path returns the file a project is written to
func (b *Backend) Path(name string) string {
	return ProjectPath(b.cfg.Dir, name, b.cfg.Compress)
}

// ProjectPath returns the file name used for a project in dir
func ProjectPath(dir, name string, compress bool) string {
	p := filepath.Join(dir, document.FileName(name))
	if compress {
		p += GzipExtension
	}
	return p
}

// Save writes the project file, replacing any previous version in either
// compression mode.
func (b *Backend) Save(_ context.Context, name string, data []byte) error {
	if err := storage.ValidateName(name); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if err := WriteProject(b.cfg.Dir, name, data, b.cfg.Compress); err != nil {
		return err
	}
	// drop a stale copy saved under the other compression mode
	other := ProjectPath(b.cfg.Dir, name, !b.cfg.Compress)
	if err := os.Remove(other); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove stale %s: %w", other, err)
	}
	return nil
}

// Load reads a project file, plain or compressed
func (b *Backend) Load(_ context.Context, name string) ([]byte, error) {
	if err := storage.ValidateName(name); err != nil {
		return nil, err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, compressed := range []bool{b.cfg.Compress, !b.cfg.Compress} {
		data, err := readProject(ProjectPath(b.cfg.Dir, name, compressed), compressed)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		return data, err
	}
	return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, name)
}

// Delete removes the project file
func (b *Backend) Delete(_ context.Context, name string) error {
	if err := storage.ValidateName(name); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	removed := false
	for _, compressed := range []bool{false, true} {
		err := os.Remove(ProjectPath(b.cfg.Dir, name, compressed))
		switch {
		case err == nil:
			removed = true
		case !errors.Is(err, fs.ErrNotExist):
			return fmt.Errorf("delete %s: %w", name, err)
		}
	}
	if !removed {
		return fmt.Errorf("%w: %s", storage.ErrNotFound, name)
	}
	return nil
}

// List reads every project file in the directory
func (b *Backend) List(_ context.Context) ([]storage.ProjectInfo, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	entries, err := os.ReadDir(b.cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", b.cfg.Dir, err)
	}

	infos := []storage.ProjectInfo{}
	seen := make(map[string]bool)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		file := e.Name()
		compressed := strings.HasSuffix(file, GzipExtension)
		name, ok := document.ProjectName(strings.TrimSuffix(file, GzipExtension))
		if !ok || seen[name] {
			continue
		}

		fi, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", file, err)
		}
		data, err := readProject(filepath.Join(b.cfg.Dir, file), compressed)
		if err != nil {
			return nil, err
		}
		seen[name] = true
		infos = append(infos, storage.NewInfo(name, data, fi.ModTime()))
	}
	return storage.SortInfos(infos), nil
}

// ExportedPaths lists the project files on disk
func (b *Backend) ExportedPaths() []string {
	infos, err := b.List(context.Background())
	if err != nil {
		return nil
	}
	paths := make([]string, 0, len(infos))
	for _, info := range infos {
		paths = append(paths, b.Path(info.Name))
	}
	return paths
}

// WriteProject writes data for name into dir through a temporary file so
// readers never observe a partial document.
func WriteProject(dir, name string, data []byte, compress bool) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	path := ProjectPath(dir, name, compress)

	tmp, err := os.CreateTemp(dir, ".tmc-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if compress {
		err = writeGzip(tmp, data)
	} else {
		_, err = tmp.Write(data)
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func writeGzip(w io.Writer, data []byte) error {
	gz := gzip.NewWriter(w)
	if _, err := gz.Write(data); err != nil {
		gz.Close()
		return err
	}
	return gz.Close()
}

func readProject(path string, compressed bool) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if !compressed {
		return raw, nil
	}
	gz, err := gzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	defer gz.Close()
	data, err := io.ReadAll(gz)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}
