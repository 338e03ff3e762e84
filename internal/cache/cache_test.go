package cache

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entry struct {
	Name  string   `msgpack:"name"`
	Types []string `msgpack:"types"`
}

func setupSQLiteStorage(t *testing.T) *SQLiteStorage {
	t.Helper()

	storage, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "nested", "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = storage.Close() })
	return storage
}

func TestCacheBackends(t *testing.T) {
	backends := map[string]func(t *testing.T) Storage{
		"memory": func(t *testing.T) Storage { return NewMemoryStorage() },
		"sqlite": func(t *testing.T) Storage { return setupSQLiteStorage(t) },
	}

	for name, create := range backends {
		t.Run(name, func(t *testing.T) {
			c := New(create(t))

			var out entry
			assert.False(t, c.Load("missing", &out))

			require.NoError(t, c.Save("key", entry{Name: "foo", Types: []string{"int", "string"}}))
			require.True(t, c.Load("key", &out))
			assert.Equal(t, entry{Name: "foo", Types: []string{"int", "string"}}, out)

			require.NoError(t, c.Save("key", entry{Name: "bar"}))
			var replaced entry
			require.True(t, c.Load("key", &replaced))
			assert.Equal(t, "bar", replaced.Name)
			assert.Empty(t, replaced.Types)
		})
	}
}

func TestCacheUndecodableEntryIsMiss(t *testing.T) {
	storage := NewMemoryStorage()
	require.NoError(t, storage.Save("broken", []byte{0xc1}))

	var out entry
	assert.False(t, New(storage).Load("broken", &out))
}

func TestSQLiteStoragePersists(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "cache.db")

	storage, err := NewSQLiteStorage(dbPath)
	require.NoError(t, err)
	require.NoError(t, storage.Save("key", []byte("value")))
	require.NoError(t, storage.Close())

	reopened, err := NewSQLiteStorage(dbPath)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	data, ok := reopened.Load("key")
	require.True(t, ok)
	assert.Equal(t, []byte("value"), data)

	require.NoError(t, reopened.Clear())
	_, ok = reopened.Load("key")
	assert.False(t, ok)
}

func TestMemoryStorageLen(t *testing.T) {
	storage := NewMemoryStorage()
	require.NoError(t, storage.Save("a", []byte("1")))
	require.NoError(t, storage.Save("a", []byte("2")))
	require.NoError(t, storage.Save("b", []byte("3")))
	assert.Equal(t, 2, storage.Len())
}
