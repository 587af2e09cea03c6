// Package storage defines the project store contract shared by every backend.
// Backends store serialized documents as opaque bytes keyed by project name;
// encoding and migration belong to the document codec.
package storage

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode"

	"github.com/zeebo/blake3"
)

// MaxNameLength bounds project names so they fit file names and keys
const MaxNameLength = 200

var (
	// ErrNotFound is returned by Load and Delete for unknown projects
	ErrNotFound = errors.New("project not found")
	// ErrInvalidName is returned for names that cannot be stored
	ErrInvalidName = errors.New("invalid project name")
)

// ProjectInfo describes one stored project
type ProjectInfo struct {
	Name      string    `json:"name"`
	Size      int64     `json:"size"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Backend is the interface all storage implementations must satisfy
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// Save creates or replaces the stored bytes of a project
	Save(ctx context.Context, name string, data []byte) error
	// Load returns the stored bytes, or ErrNotFound
	Load(ctx context.Context, name string) ([]byte, error)
	// Delete removes a project, or returns ErrNotFound
	Delete(ctx context.Context, name string) error
	// List returns every stored project sorted by name
	List(ctx context.Context) ([]ProjectInfo, error)
}

// Exporter is an optional interface for backends that leave files on disk
// which can be handed to other tools.
type Exporter interface {
	ExportedPaths() []string
}

// ValidateName checks that name can be stored by every backend
func ValidateName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("%w: empty", ErrInvalidName)
	case strings.TrimSpace(name) != name:
		return fmt.Errorf("%w: %q has surrounding spaces", ErrInvalidName, name)
	case len(name) > MaxNameLength:
		return fmt.Errorf("%w: longer than %d bytes", ErrInvalidName, MaxNameLength)
	case name == "." || name == "..":
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	case strings.ContainsAny(name, `/\`):
		return fmt.Errorf("%w: %q contains a path separator", ErrInvalidName, name)
	case strings.IndexFunc(name, unicode.IsControl) >= 0:
		return fmt.Errorf("%w: %q contains control characters", ErrInvalidName, name)
	}
	return nil
}

// Checksum is the hex blake3-256 digest backends record for stored bytes
func Checksum(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// NewInfo builds the ProjectInfo for data stored at time at
func NewInfo(name string, data []byte, at time.Time) ProjectInfo {
	return ProjectInfo{
		Name:      name,
		Size:      int64(len(data)),
		Checksum:  Checksum(data),
		UpdatedAt: at.UTC(),
	}
}

// SortInfos orders infos by name in place and returns them
func SortInfos(infos []ProjectInfo) []ProjectInfo {
	slices.SortFunc(infos, func(a, b ProjectInfo) int {
		return strings.Compare(a.Name, b.Name)
	})
	return infos
}
