package recent

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaths_MissingStore(t *testing.T) {
	store := NewStoreAt(filepath.Join(t.TempDir(), "recent.json"))

	assert.Empty(t, store.Paths())
}

func TestPaths_CorruptStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recent.json")
	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0o644))

	store := NewStoreAt(path)

	assert.Empty(t, store.Paths())
}

func TestRemember_AppendsAndPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "recent.json")
	store := NewStoreAt(path)

	require.NoError(t, store.Remember("/home/dev/project-a"))
	require.NoError(t, store.Remember("/home/dev/project-b"))

	assert.Equal(t, []string{"/home/dev/project-a", "/home/dev/project-b"}, store.Paths())

	// A fresh store over the same file sees the persisted list.
	assert.Equal(t, []string{"/home/dev/project-a", "/home/dev/project-b"}, NewStoreAt(path).Paths())
}

func TestRemember_DeduplicatesCleanedPaths(t *testing.T) {
	store := NewStoreAt(filepath.Join(t.TempDir(), "recent.json"))

	require.NoError(t, store.Remember("/home/dev/project"))
	require.NoError(t, store.Remember("/home/dev/project/"))
	require.NoError(t, store.Remember("/home/dev/./project"))

	assert.Equal(t, []string{"/home/dev/project"}, store.Paths())
}

func TestNewStore_UsesXDGConfigHome(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	store, err := NewStore()

	require.NoError(t, err)
	assert.Contains(t, store.path, filepath.Join("gitbrief", "recent.json"))
}
