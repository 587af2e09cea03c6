// Package gormstorage implements storage.Backend on any GORM dialect. The
// SQLite and Postgres backends wrap it with their connection handling.
package gormstorage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tmcoach/board/internal/storage"
)

// Project is one stored project document
type Project struct {
	ID        uint           `gorm:"primaryKey"`
	Name      string         `gorm:"size:200;not null;uniqueIndex"`
	Body      datatypes.JSON `gorm:"not null"`
	Checksum  string         `gorm:"size:64;not null"`
	Size      int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName pins the table name
func (Project) TableName() string {
	return "projects"
}

// Models lists every table the backend needs
var Models = []any{&Project{}}

// Dependencies holds all dependencies for the GORM storage backend.
type Dependencies struct {
	DB     *gorm.DB
	Logger *slog.Logger
}

// Backend implements storage.Backend using GORM.
type Backend struct {
	deps Dependencies
}

// New creates a new GORM storage backend.
func New(deps Dependencies) *Backend {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Backend{deps: deps}
}

// DB returns the underlying connection
func (b *Backend) DB() *gorm.DB {
	return b.deps.DB
}

// Init migrates the schema
func (b *Backend) Init() error {
	if b.deps.DB == nil {
		return fmt.Errorf("gorm storage: no database")
	}
	if err := b.deps.DB.AutoMigrate(Models...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	b.deps.Logger.Debug("Project schema ready", "dialect", b.deps.DB.Name())
	return nil
}

// Close is a no-op; the connection belongs to the caller.
func (b *Backend) Close() error {
	return nil
}

// Save upserts the project. A body identical to the stored one is not
// written again.
func (b *Backend) Save(ctx context.Context, name string, data []byte) error {
	if err := storage.ValidateName(name); err != nil {
		return err
	}
	db := b.deps.DB.WithContext(ctx)
	sum := storage.Checksum(data)

	var existing Project
	err := db.Select("checksum").Where("name = ?", name).Take(&existing).Error
	switch {
	case err == nil && existing.Checksum == sum:
		b.deps.Logger.Debug("Project unchanged", "name", name)
		return nil
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("save %s: %w", name, err)
	}

	p := Project{
		Name:     name,
		Body:     datatypes.JSON(data),
		Checksum: sum,
		Size:     int64(len(data)),
	}
	err = db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"body", "checksum", "size", "updated_at"}),
	}).Create(&p).Error
	if err != nil {
		return fmt.Errorf("save %s: %w", name, err)
	}
	return nil
}

// Load returns the stored body
func (b *Backend) Load(ctx context.Context, name string) ([]byte, error) {
	if err := storage.ValidateName(name); err != nil {
		return nil, err
	}

	var p Project
	err := b.deps.DB.WithContext(ctx).Where("name = ?", name).Take(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", name, err)
	}
	return []byte(p.Body), nil
}

// Delete removes the project row
func (b *Backend) Delete(ctx context.Context, name string) error {
	if err := storage.ValidateName(name); err != nil {
		return err
	}

	res := b.deps.DB.WithContext(ctx).Where("name = ?", name).Delete(&Project{})
	if res.Error != nil {
		return fmt.Errorf("delete %s: %w", name, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", storage.ErrNotFound, name)
	}
	return nil
}

// List returns every project without loading bodies
func (b *Backend) List(ctx context.Context) ([]storage.ProjectInfo, error) {
	var rows []Project
	err := b.deps.DB.WithContext(ctx).
		Select("name", "size", "checksum", "updated_at").
		Order("name").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}

	infos := make([]storage.ProjectInfo, 0, len(rows))
	for _, r := range rows {
		infos = append(infos, storage.ProjectInfo{
			Name:      r.Name,
			Size:      r.Size,
			Checksum:  r.Checksum,
			UpdatedAt: r.UpdatedAt.UTC(),
		})
	}
	return storage.SortInfos(infos), nil
}
