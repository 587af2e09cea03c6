// Package storagetest holds the behaviour every storage.Backend must share.
// Backend tests call Run with a constructor for a fresh, initialized backend.
package storagetest

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmcoach/board/internal/storage"
)

// Run exercises b against the storage.Backend contract. newBackend must
// return an initialized, empty backend; Run closes it.
func Run(t *testing.T, newBackend func(t *testing.T) storage.Backend) {
	t.Helper()
	ctx := context.Background()

	t.Run("save and load", func(t *testing.T) {
		b := open(t, newBackend)

		require.NoError(t, b.Save(ctx, "Counter press", []byte(`{"version":3}`)))
		got, err := b.Load(ctx, "Counter press")
		require.NoError(t, err)
		assert.JSONEq(t, `{"version":3}`, string(got))
	})

	t.Run("save replaces", func(t *testing.T) {
		b := open(t, newBackend)

		require.NoError(t, b.Save(ctx, "p", []byte(`{"v":1}`)))
		require.NoError(t, b.Save(ctx, "p", []byte(`{"v":2}`)))
		got, err := b.Load(ctx, "p")
		require.NoError(t, err)
		assert.JSONEq(t, `{"v":2}`, string(got))

		infos, err := b.List(ctx)
		require.NoError(t, err)
		assert.Len(t, infos, 1)
	})

	t.Run("load missing", func(t *testing.T) {
		b := open(t, newBackend)

		_, err := b.Load(ctx, "nope")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		b := open(t, newBackend)

		require.NoError(t, b.Save(ctx, "p", []byte(`{}`)))
		require.NoError(t, b.Delete(ctx, "p"))
		_, err := b.Load(ctx, "p")
		assert.ErrorIs(t, err, storage.ErrNotFound)
		assert.ErrorIs(t, b.Delete(ctx, "p"), storage.ErrNotFound)
	})

	t.Run("list sorted with info", func(t *testing.T) {
		b := open(t, newBackend)

		infos, err := b.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, infos)

		body := []byte(`{"name":"b"}`)
		require.NoError(t, b.Save(ctx, "b", body))
		require.NoError(t, b.Save(ctx, "a", []byte(`{"name":"a"}`)))

		infos, err = b.List(ctx)
		require.NoError(t, err)
		require.Len(t, infos, 2)
		assert.Equal(t, "a", infos[0].Name)
		assert.Equal(t, "b", infos[1].Name)
		assert.Equal(t, int64(len(body)), infos[1].Size)
		assert.Equal(t, storage.Checksum(body), infos[1].Checksum)
		assert.False(t, infos[1].UpdatedAt.IsZero())
	})

	t.Run("invalid name", func(t *testing.T) {
		b := open(t, newBackend)

		assert.ErrorIs(t, b.Save(ctx, "../escape", []byte(`{}`)), storage.ErrInvalidName)
		_, err := b.Load(ctx, "")
		assert.ErrorIs(t, err, storage.ErrInvalidName)
	})

	t.Run("concurrent saves", func(t *testing.T) {
		b := open(t, newBackend)

		var wg sync.WaitGroup
		for i := range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				assert.NoError(t, b.Save(ctx, fmt.Sprintf("p%d", i), []byte(`{}`)))
			}()
		}
		wg.Wait()

		infos, err := b.List(ctx)
		require.NoError(t, err)
		assert.Len(t, infos, 8)
	})
}

func open(t *testing.T, newBackend func(t *testing.T) storage.Backend) storage.Backend {
	t.Helper()
	b := newBackend(t)
	t.Cleanup(func() { assert.NoError(t, b.Close()) })
	return b
}
