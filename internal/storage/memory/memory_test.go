package memory

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmcoach/board/internal/config"
	"github.com/tmcoach/board/internal/storage"
	"github.com/tmcoach/board/internal/storage/storagetest"
)

// Verify Backend implements storage.Backend interface
var _ storage.Backend = (*Backend)(nil)

// Verify Backend implements storage.Exporter interface
var _ storage.Exporter = (*Backend)(nil)

func TestContract(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Backend {
		b := New(config.MemoryConfig{})
		require.NoError(t, b.Init())
		return b
	})
}

func TestNew(t *testing.T) {
	b := New(config.MemoryConfig{OutputDir: "/tmp/test", CompressOutput: true})

	require.NotNil(t, b)
	assert.Equal(t, "/tmp/test", b.cfg.OutputDir)
	assert.True(t, b.cfg.CompressOutput)
	assert.NotNil(t, b.projects)
}

func TestSave_CopiesInput(t *testing.T) {
	ctx := context.Background()
	b := New(config.MemoryConfig{})

	data := []byte(`{"v":1}`)
	require.NoError(t, b.Save(ctx, "p", data))
	data[0] = 'X'

	got, err := b.Load(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, `{"v":1}`, string(got))

	got[0] = 'Y'
	again, err := b.Load(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, `{"v":1}`, string(again))
}

func TestList_UsesSaveTime(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	b := New(config.MemoryConfig{})
	b.now = func() time.Time { return at }

	require.NoError(t, b.Save(context.Background(), "p", []byte(`{}`)))
	infos, err := b.List(context.Background())
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, at, infos[0].UpdatedAt)
}

func TestClose_WithoutOutputDir(t *testing.T) {
	b := New(config.MemoryConfig{})
	require.NoError(t, b.Save(context.Background(), "p", []byte(`{}`)))
	require.NoError(t, b.Close())
	assert.Empty(t, b.ExportedPaths())
}

func TestClose_ExportsProjects(t *testing.T) {
	for _, compress := range []bool{false, true} {
		dir := filepath.Join(t.TempDir(), "out")
		b := New(config.MemoryConfig{OutputDir: dir, CompressOutput: compress})
		require.NoError(t, b.Save(context.Background(), "b", []byte(`{"name":"b"}`)))
		require.NoError(t, b.Save(context.Background(), "a", []byte(`{"name":"a"}`)))

		require.NoError(t, b.Close())

		ext := ".tmc.json"
		if compress {
			ext += ".gz"
		}
		assert.Equal(t, []string{
			filepath.Join(dir, "a"+ext),
			filepath.Join(dir, "b"+ext),
		}, b.ExportedPaths())
		for _, p := range b.ExportedPaths() {
			_, err := os.Stat(p)
			assert.NoError(t, err)
		}
	}
}
