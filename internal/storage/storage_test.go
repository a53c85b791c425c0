package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type doc struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store := New(t.TempDir())

	in := doc{Name: "test", Count: 7}
	require.NoError(t, store.Save(OrdersFile, in))

	var out doc
	found, err := store.Load(OrdersFile, &out)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, in, out)
}

func TestLoadMissingFile(t *testing.T) {
	store := New(t.TempDir())

	out := doc{Name: "untouched"}
	found, err := store.Load(OrdersFile, &out)
	require.NoError(t, err)
	require.False(t, found)
	require.Equal(t, "untouched", out.Name, "значение не должно меняться")
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store := New(dir)

	require.NoError(t, store.Save(SettingsFile, doc{Name: "a"}))
	require.NoError(t, store.Save(SettingsFile, doc{Name: "b"}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, SettingsFile, entries[0].Name())
}

func TestSaveCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "storage")
	store := New(dir)

	require.NoError(t, store.Save(OrdersFile, doc{}))

	_, err := os.Stat(filepath.Join(dir, OrdersFile))
	require.NoError(t, err)
}

func TestLoadCorruptedFileBacksUp(t *testing.T) {
	dir := t.TempDir()
	store := New(dir)

	path := filepath.Join(dir, OrdersFile)
	require.NoError(t, os.WriteFile(path, []byte("{broken json"), 0o644))

	var out doc
	found, err := store.Load(OrdersFile, &out)
	require.NoError(t, err)
	require.False(t, found)

	// исходный файл ушёл в бэкап
	_, err = os.Stat(path)
	require.True(t, os.IsNotExist(err))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Contains(t, entries[0].Name(), ".corrupted_")

	// повторная запись после бэкапа работает как обычно
	require.NoError(t, store.Save(OrdersFile, doc{Name: "fresh"}))
	found, err = store.Load(OrdersFile, &out)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "fresh", out.Name)
}

func TestSaveOverwritesAtomically(t *testing.T) {
	store := New(t.TempDir())

	require.NoError(t, store.Save(OrdersFile, map[string]doc{"1": {Name: "old"}}))
	require.NoError(t, store.Save(OrdersFile, map[string]doc{"2": {Name: "new"}}))

	out := map[string]doc{}
	found, err := store.Load(OrdersFile, &out)
	require.NoError(t, err)
	require.True(t, found)
	require.Len(t, out, 1)
	require.Equal(t, "new", out["2"].Name)
}
