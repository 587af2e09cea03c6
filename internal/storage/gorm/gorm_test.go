package gormstorage

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmcoach/board/internal/database"
	"github.com/tmcoach/board/internal/storage"
	"github.com/tmcoach/board/internal/storage/storagetest"
)

// Compile-time interface check
var _ storage.Backend = (*Backend)(nil)

func newTestBackend(t *testing.T) *Backend {
	t.Helper()
	m := database.NewManager(zerolog.Nop())
	require.NoError(t, m.OpenSqlite(""))
	t.Cleanup(func() { _ = m.Close() })

	b := New(Dependencies{DB: m.DB})
	require.NoError(t, b.Init())
	return b
}

func TestContract(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Backend { return newTestBackend(t) })
}

func TestInit_WithoutDB(t *testing.T) {
	assert.Error(t, New(Dependencies{}).Init())
}

func TestSave_UnchangedBodyKeepsTimestamp(t *testing.T) {
	ctx := context.Background()
	b := newTestBackend(t)

	require.NoError(t, b.Save(ctx, "p", []byte(`{"v":1}`)))
	first, err := b.List(ctx)
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, b.Save(ctx, "p", []byte(`{"v":1}`)))
	second, err := b.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, first[0].UpdatedAt, second[0].UpdatedAt)

	require.NoError(t, b.Save(ctx, "p", []byte(`{"v":2}`)))
	third, err := b.List(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, first[0].Checksum, third[0].Checksum)
}

func TestSave_KeepsSingleRow(t *testing.T) {
	ctx := context.Background()
	b := newTestBackend(t)

	require.NoError(t, b.Save(ctx, "p", []byte(`{"v":1}`)))
	require.NoError(t, b.Save(ctx, "p", []byte(`{"v":2}`)))

	var count int64
	require.NoError(t, b.DB().Model(&Project{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
