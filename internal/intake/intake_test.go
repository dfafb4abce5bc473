package intake

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSave_PreservesOrder(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir, false)

	paths, err := store.Save([]Upload{
		{Name: "front.jpg", Data: []byte("front")},
		{Name: "back.png", Data: []byte("back")},
		{Name: "side.jpg", Data: []byte("side")},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(dir, "front.jpg"),
		filepath.Join(dir, "back.png"),
		filepath.Join(dir, "side.jpg"),
	}, paths)

	images, err := store.Load(paths)
	require.NoError(t, err)
	assert.Equal(t, [][]byte{[]byte("front"), []byte("back"), []byte("side")}, images)
}

func TestSave_SameNameOverwrites(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir, false)

	paths, err := store.Save([]Upload{
		{Name: "photo.jpg", Data: []byte("first")},
		{Name: "photo.jpg", Data: []byte("second")},
	})
	require.NoError(t, err)
	assert.Equal(t, paths[0], paths[1])

	images, err := store.Load(paths)
	require.NoError(t, err)
	assert.Equal(t, [][]byte{[]byte("second"), []byte("second")}, images)
}

func TestSave_UnnamedUploads(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir, false)

	paths, err := store.Save([]Upload{
		{Name: "front.jpg", Data: []byte("front")},
		{Data: []byte("anon")},
	})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "upload-2.jpg"), paths[1])
}

func TestSave_UniqueNames(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir, true)

	paths, err := store.Save([]Upload{
		{Name: "photo.jpg", Data: []byte("first")},
		{Name: "photo.jpg", Data: []byte("second")},
	})
	require.NoError(t, err)
	assert.NotEqual(t, paths[0], paths[1])
	assert.True(t, strings.HasSuffix(paths[0], "_photo.jpg"))

	images, err := store.Load(paths)
	require.NoError(t, err)
	assert.Equal(t, [][]byte{[]byte("first"), []byte("second")}, images)
}

func TestSave_StripsDirectories(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir, false)

	paths, err := store.Save([]Upload{
		{Name: "../../etc/evil.jpg", Data: []byte("x")},
		{Name: "photos/file_12.jpg", Data: []byte("y")},
		{Name: "", Data: []byte("z")},
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "evil.jpg"), paths[0])
	assert.Equal(t, filepath.Join(dir, "file_12.jpg"), paths[1])
	assert.Equal(t, filepath.Join(dir, "upload-3.jpg"), paths[2])
}

func TestSave_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "uploads")
	paths, err := NewStore(dir, false).Save([]Upload{{Name: "a.jpg", Data: []byte("a")}})
	require.NoError(t, err)

	_, err = os.Stat(paths[0])
	assert.NoError(t, err)
}

func TestSave_WriteFailure(t *testing.T) {
	dir := t.TempDir()
	// A directory occupying the target name makes the write fail.
	require.NoError(t, os.Mkdir(filepath.Join(dir, "taken.jpg"), 0755))

	_, err := NewStore(dir, false).Save([]Upload{
		{Name: "ok.jpg", Data: []byte("a")},
		{Name: "taken.jpg", Data: []byte("b")},
	})
	assert.ErrorContains(t, err, "failed to save upload")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := NewStore(t.TempDir(), false).Load([]string{"/nonexistent/file.jpg"})
	assert.ErrorContains(t, err, "failed to read upload")
}
