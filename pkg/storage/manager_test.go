package storage

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"imgscraper/pkg/metadata"
)

func TestManager(t *testing.T) {
	tempDir := t.TempDir()

	manager, err := NewManager(tempDir)
	require.NoError(t, err)
	assert.Equal(t, tempDir, manager.GetOutputDir())

	data := []byte("test image data")
	n, err := manager.SaveImage(0, bytes.NewReader(data))
	require.NoError(t, err)
	assert.EqualValues(t, len(data), n)

	content, err := os.ReadFile(filepath.Join(tempDir, "image_0.jpg"))
	require.NoError(t, err)
	assert.Equal(t, data, content)

	require.NoError(t, manager.SaveCaption(0, "Ein schönes Bild"))
	caption, err := os.ReadFile(filepath.Join(tempDir, "caption_0.txt"))
	require.NoError(t, err)
	assert.Equal(t, "Ein schönes Bild", string(caption))

	_, err = os.Stat(filepath.Join(tempDir, "image_0.jpg.tmp"))
	assert.True(t, os.IsNotExist(err), "temporary file should be gone")
}

func TestNewManagerCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "scraped_images")

	_, err := NewManager(dir)
	require.NoError(t, err)
	assert.DirExists(t, dir)

	// Idempotent.
	_, err = NewManager(dir)
	require.NoError(t, err)
}

func TestNewManagerFailsOnFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "occupied")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))

	_, err := NewManager(path)
	assert.Error(t, err)
}

func TestSaveImageOverwrites(t *testing.T) {
	manager, err := NewManager(t.TempDir())
	require.NoError(t, err)

	_, err = manager.SaveImage(3, bytes.NewReader([]byte("old")))
	require.NoError(t, err)
	_, err = manager.SaveImage(3, bytes.NewReader([]byte("new")))
	require.NoError(t, err)

	content, err := os.ReadFile(manager.ImagePath(3))
	require.NoError(t, err)
	assert.Equal(t, "new", string(content))
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("stream broken") }

func TestSaveImageReaderError(t *testing.T) {
	manager, err := NewManager(t.TempDir())
	require.NoError(t, err)

	_, err = manager.SaveImage(0, failingReader{})
	assert.ErrorContains(t, err, "stream broken")
	assert.NoFileExists(t, manager.ImagePath(0))
	assert.NoFileExists(t, manager.ImagePath(0)+".tmp")
}

func TestRemoveImage(t *testing.T) {
	manager, err := NewManager(t.TempDir())
	require.NoError(t, err)

	_, err = manager.SaveImage(1, bytes.NewReader([]byte("x")))
	require.NoError(t, err)
	require.NoError(t, manager.RemoveImage(1))
	assert.NoFileExists(t, manager.ImagePath(1))

	assert.NoError(t, manager.RemoveImage(42))
}

func TestSaveManifest(t *testing.T) {
	manager, err := NewManager(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, manager.SaveManifest(&metadata.Manifest{RunID: "abc", Mode: "page"}))

	loaded, err := metadata.Load(manager.GetOutputDir())
	require.NoError(t, err)
	assert.Equal(t, "abc", loaded.RunID)
}
