package storage_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/tmcoach/board/internal/storage"
)

func TestValidateName(t *testing.T) {
	valid := []string{"Counter press", "U12 set pieces", "a.b", strings.Repeat("x", storage.MaxNameLength)}
	for _, name := range valid {
		assert.NoError(t, storage.ValidateName(name), name)
	}

	invalid := []string{"", " padded", "trailing ", ".", "..", "a/b", `a\b`, "tab\there", strings.Repeat("x", storage.MaxNameLength+1)}
	for _, name := range invalid {
		assert.ErrorIs(t, storage.ValidateName(name), storage.ErrInvalidName, name)
	}
}

func TestChecksum(t *testing.T) {
	a := storage.Checksum([]byte("board"))
	assert.Len(t, a, 64)
	assert.Equal(t, a, storage.Checksum([]byte("board")))
	assert.NotEqual(t, a, storage.Checksum([]byte("board!")))
}

func TestNewInfo(t *testing.T) {
	at := time.Date(2026, 1, 1, 12, 0, 0, 0, time.FixedZone("CET", 3600))
	info := storage.NewInfo("p", []byte("12345"), at)

	assert.Equal(t, "p", info.Name)
	assert.Equal(t, int64(5), info.Size)
	assert.Equal(t, storage.Checksum([]byte("12345")), info.Checksum)
	assert.Equal(t, time.UTC, info.UpdatedAt.Location())
	assert.True(t, info.UpdatedAt.Equal(at))
}

func TestSortInfos(t *testing.T) {
	infos := storage.SortInfos([]storage.ProjectInfo{{Name: "b"}, {Name: "a"}, {Name: "c"}})
	assert.Equal(t, "a", infos[0].Name)
	assert.Equal(t, "c", infos[2].Name)
}
