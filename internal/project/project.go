// Package project saves and loads board documents through a storage
// backend. It owns encoding, migration and the document-level operations
// the CLI and HTTP API expose.
package project

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/tmcoach/board/internal/animation"
	"github.com/tmcoach/board/internal/document"
	"github.com/tmcoach/board/internal/orientation"
	"github.com/tmcoach/board/internal/storage"
	"github.com/tmcoach/board/pkg/core"
)

var (
	// ErrExists is returned by Create when the name is taken
	ErrExists = errors.New("project already exists")
	// ErrInvalidOrientation is returned by Rotate for unknown orientations
	ErrInvalidOrientation = errors.New("invalid orientation")
)

// Dependencies holds everything a Service needs
type Dependencies struct {
	Store  storage.Backend
	Codec  *document.Codec
	Logger *slog.Logger
}

// Service is the project store seen as documents
type Service struct {
	store   storage.Backend
	codec   *document.Codec
	log     *slog.Logger
	metrics metrics
}

// New creates a Service. A nil codec uses default settings.
func New(deps Dependencies) (*Service, error) {
	if deps.Store == nil {
		return nil, fmt.Errorf("project service: no store")
	}
	if deps.Codec == nil {
		deps.Codec = document.NewCodec(document.Dependencies{})
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	m, err := newMetrics()
	if err != nil {
		return nil, err
	}
	return &Service{
		store:   deps.Store,
		codec:   deps.Codec,
		log:     deps.Logger.With("component", "project"),
		metrics: m,
	}, nil
}

// Codec returns the document codec used by the service
func (s *Service) Codec() *document.Codec {
	return s.codec
}

// Create stores a new document with one empty step
func (s *Service) Create(ctx context.Context, name string) (core.BoardDocument, error) {
	if err := storage.ValidateName(name); err != nil {
		return core.BoardDocument{}, err
	}
	_, err := s.store.Load(ctx, name)
	switch {
	case err == nil:
		return core.BoardDocument{}, fmt.Errorf("%w: %s", ErrExists, name)
	case !errors.Is(err, storage.ErrNotFound):
		return core.BoardDocument{}, err
	}

	def := s.codec.Defaults()
	doc := s.codec.CreateDocument(name, def.Pitch, def.Teams)
	if err := s.Save(ctx, doc); err != nil {
		return core.BoardDocument{}, err
	}
	s.log.InfoContext(ctx, "Project created", "name", name)
	return doc, nil
}

// Save serializes doc and stores it under doc.Name
func (s *Service) Save(ctx context.Context, doc core.BoardDocument) error {
	if err := storage.ValidateName(doc.Name); err != nil {
		return err
	}
	data, err := s.codec.Serialize(doc)
	if err != nil {
		return fmt.Errorf("serialize %s: %w", doc.Name, err)
	}
	if err := s.store.Save(ctx, doc.Name, data); err != nil {
		s.log.ErrorContext(ctx, "Save failed", "name", doc.Name, "error", err)
		return err
	}
	s.metrics.saves.Add(ctx, 1)
	s.log.DebugContext(ctx, "Project saved", "name", doc.Name, "bytes", len(data))
	return nil
}

// Import decodes an uploaded document, migrates it and stores it as name.
// The stored document takes the project name.
func (s *Service) Import(ctx context.Context, name string, data []byte) (core.BoardDocument, error) {
	if err := storage.ValidateName(name); err != nil {
		return core.BoardDocument{}, err
	}
	doc, err := s.decode(ctx, name, data, "import")
	if err != nil {
		return core.BoardDocument{}, err
	}
	doc.Name = name
	if err := s.Save(ctx, doc); err != nil {
		return core.BoardDocument{}, err
	}
	return doc, nil
}

// Load reads and migrates a stored document
func (s *Service) Load(ctx context.Context, name string) (core.BoardDocument, error) {
	data, err := s.store.Load(ctx, name)
	if err != nil {
		return core.BoardDocument{}, err
	}
	s.metrics.loads.Add(ctx, 1)
	return s.decode(ctx, name, data, "load")
}

func (s *Service) decode(ctx context.Context, name string, data []byte, source string) (core.BoardDocument, error) {
	doc, err := s.codec.Deserialize(data)
	if err != nil {
		s.metrics.decodeFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("source", source)))
		s.log.WarnContext(ctx, "Document rejected", "name", name, "source", source, "error", err)
		return core.BoardDocument{}, fmt.Errorf("%s %s: %w", source, name, err)
	}
	return doc, nil
}

// Export returns the stored document re-encoded at the current version
func (s *Service) Export(ctx context.Context, name string) ([]byte, error) {
	doc, err := s.Load(ctx, name)
	if err != nil {
		return nil, err
	}
	return s.codec.Serialize(doc)
}

// Delete removes a project
func (s *Service) Delete(ctx context.Context, name string) error {
	if err := s.store.Delete(ctx, name); err != nil {
		return err
	}
	s.log.InfoContext(ctx, "Project deleted", "name", name)
	return nil
}

// List returns every stored project
func (s *Service) List(ctx context.Context) ([]storage.ProjectInfo, error) {
	return s.store.List(ctx)
}

// Rotate lays the whole project out for orientation to and stores it. A
// project already in that orientation is returned unchanged and not written.
func (s *Service) Rotate(ctx context.Context, name string, to core.Orientation) (core.BoardDocument, error) {
	if to != core.Landscape && to != core.Portrait {
		return core.BoardDocument{}, fmt.Errorf("%w: %q", ErrInvalidOrientation, to)
	}
	doc, err := s.Load(ctx, name)
	if err != nil {
		return core.BoardDocument{}, err
	}
	if doc.PitchConfig.Orientation == to {
		return doc, nil
	}

	rotated := orientation.TransformDocument(doc, to)
	if err := s.Save(ctx, rotated); err != nil {
		return core.BoardDocument{}, err
	}
	s.log.InfoContext(ctx, "Project rotated", "name", name, "orientation", string(to))
	return rotated, nil
}

// Frame is the board as shown at one moment of playback
type Frame struct {
	StepIndex int            `json:"stepIndex"`
	StepName  string         `json:"stepName"`
	Progress  float64        `json:"progress"`
	Elements  []core.Element `json:"elements"`
}

// FrameAt interpolates the project at elapsed playback time
func (s *Service) FrameAt(ctx context.Context, name string, elapsed time.Duration) (Frame, error) {
	doc, err := s.Load(ctx, name)
	if err != nil {
		return Frame{}, err
	}
	return FrameOf(doc, elapsed), nil
}

// FrameOf interpolates doc at elapsed playback time
func FrameOf(doc core.BoardDocument, elapsed time.Duration) Frame {
	index, progress := animation.Locate(doc.Steps, elapsed)
	interp := animation.New(animation.Playback{
		IsPlaying:        true,
		Progress:         progress,
		CurrentStepIndex: index,
		Steps:            doc.Steps,
	})

	f := Frame{StepIndex: index, Progress: progress, Elements: interp.Frame()}
	if index < len(doc.Steps) {
		f.StepName = doc.Steps[index].Name
	}
	if f.Elements == nil {
		f.Elements = []core.Element{}
	}
	return f
}

// MigrateAll rewrites every stored project at the current version. Projects
// that fail to decode are skipped and counted in failed.
func (s *Service) MigrateAll(ctx context.Context) (migrated, failed int, err error) {
	infos, err := s.store.List(ctx)
	if err != nil {
		return 0, 0, err
	}
	for _, info := range infos {
		doc, err := s.Load(ctx, info.Name)
		if errors.Is(err, document.ErrInvalidDocument) {
			failed++
			continue
		}
		if err != nil {
			return migrated, failed, err
		}
		if err := s.Save(ctx, doc); err != nil {
			return migrated, failed, err
		}
		migrated++
	}
	s.log.InfoContext(ctx, "Projects migrated", "migrated", migrated, "failed", failed)
	return migrated, failed, nil
}
