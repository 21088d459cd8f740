package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageRoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "records")
	store, err := NewLocalStorage(dir)
	require.NoError(t, err)

	_, found, err := store.Read("college_users.json")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.Save("college_users.json", []byte(`[]`)))
	require.NoError(t, store.Save("college_users.json", []byte(`[{"id":"superadmin"}]`)))

	data, found, err := store.Read("college_users.json")
	require.NoError(t, err)
	assert.True(t, found)
	assert.JSONEq(t, `[{"id":"superadmin"}]`, string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")

	require.NoError(t, store.Delete("college_users.json"))
	require.NoError(t, store.Delete("college_users.json"))
	_, found, err = store.Read("college_users.json")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestLocalStorageRejectsEscapingNames(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	for _, name := range []string{"../outside.json", "/etc/passwd", "", "."} {
		assert.Error(t, store.Save(name, []byte("x")), name)
		_, _, err := store.Read(name)
		assert.Error(t, err, name)
	}
}
