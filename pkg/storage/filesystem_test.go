package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageSaveReadReplace(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Save("groups/grp-1.json", []byte(`{"v":1}`)))
	require.NoError(t, store.Save("groups/grp-1.json", []byte(`{"v":2}`)))

	data, err := store.Read("groups/grp-1.json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"v":2}`, string(data))

	names, err := store.List(".json")
	require.NoError(t, err)
	assert.Equal(t, []string{"groups/grp-1.json"}, names)
}

func TestLocalStorageReadMissing(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	_, err = store.Read("missing.json")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotExist))
}

func TestLocalStorageAppend(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Append("audit.jsonl", []byte("a\n")))
	require.NoError(t, store.Append("audit.jsonl", []byte("b\n")))
	data, err := store.Read("audit.jsonl")
	require.NoError(t, err)
	assert.Equal(t, "a\nb\n", string(data))
}

func TestLocalStorageKeepsTraversalInsideBase(t *testing.T) {
	base := t.TempDir()
	store, err := NewLocalStorage(base)
	require.NoError(t, err)

	require.NoError(t, store.Save("../../escape.json", []byte("{}")))
	_, err = os.Stat(filepath.Join(base, "escape.json"))
	assert.NoError(t, err)
}
