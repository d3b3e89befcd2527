package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/genc-murat/kmersketch/internal/core/models"
	"github.com/genc-murat/kmersketch/internal/core/ports"
	"github.com/genc-murat/kmersketch/pkg/utils/hash"
	"github.com/gofrs/flock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ ports.Storage = (*Store)(nil)

func newHLL(t *testing.T) *models.HyperLogLog[hash.XXHash] {
	t.Helper()
	h, err := models.NewHyperLogLog(hash.NewXXHash(3), 10)
	require.NoError(t, err)
	return h
}

func TestSaveLoad(t *testing.T) {
	store, err := NewStore(t.TempDir(), 0)
	require.NoError(t, err)

	h := newHLL(t)
	for _, s := range []string{"AAA", "AAC", "ACG", "TTT"} {
		h.Insert([]byte(s))
	}
	require.NoError(t, store.Save("sample", h))

	loaded := newHLL(t)
	require.NoError(t, store.Load("sample", loaded))
	assert.Equal(t, h.Registers(), loaded.Registers())

	// Saving again replaces the file.
	h.Insert([]byte("GGG"))
	require.NoError(t, store.Save("sample", h))
	require.NoError(t, store.Load("sample", loaded))
	assert.Equal(t, h.Registers(), loaded.Registers())
}

func TestLoadMissing(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir, 0)
	require.NoError(t, err)

	err = store.Load("nope", newHLL(t))
	assert.ErrorIs(t, err, ErrNotFound)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "no lock file left behind")
}

func TestLoadWrongKind(t *testing.T) {
	store, err := NewStore(t.TempDir(), 0)
	require.NoError(t, err)

	require.NoError(t, store.Save("exact", models.NewExactCounter(hash.NewXXHash(3))))
	err = store.Load("exact", newHLL(t))
	assert.ErrorIs(t, err, models.ErrCorruptSketch)
}

func TestInvalidNames(t *testing.T) {
	store, err := NewStore(t.TempDir(), 0)
	require.NoError(t, err)

	for _, name := range []string{"", ".hidden", "a/b", `a\b`} {
		assert.ErrorIs(t, store.Save(name, newHLL(t)), ErrInvalidName, name)
	}
}

func TestListAndRemove(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir, 0)
	require.NoError(t, err)

	for _, name := range []string{"b", "a", "c"} {
		require.NoError(t, store.Save(name, newHLL(t)))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	names, err := store.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, names)

	require.NoError(t, store.Remove("b"))
	assert.ErrorIs(t, store.Remove("b"), ErrNotFound)

	names, err = store.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, names)
}

func TestLockTimeout(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir, 50*time.Millisecond)
	require.NoError(t, err)
	require.NoError(t, store.Save("held", newHLL(t)))

	other := flock.New(filepath.Join(dir, "held"+Extension+lockSuffix))
	require.NoError(t, other.Lock())
	defer other.Unlock()

	assert.ErrorIs(t, store.Load("held", newHLL(t)), ErrLockTimeout)
	assert.ErrorIs(t, store.Save("held", newHLL(t)), ErrLockTimeout)

	require.NoError(t, other.Unlock())
	assert.NoError(t, store.Load("held", newHLL(t)))
}
