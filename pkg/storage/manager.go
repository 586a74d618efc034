package storage

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"imgscraper/pkg/metadata"
)

// Manager writes numbered images and captions into one output directory
type Manager struct {
	outputDir string
}

// NewManager creates the output directory if needed. Existing files are
// left in place and overwritten index by index.
func NewManager(outputDir string) (*Manager, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	return &Manager{outputDir: outputDir}, nil
}

// ImagePath returns the path of image_<index>.jpg
func (m *Manager) ImagePath(index int) string {
	return filepath.Join(m.outputDir, fmt.Sprintf("image_%d.jpg", index))
}

// CaptionPath returns the path of caption_<index>.txt
func (m *Manager) CaptionPath(index int) string {
	return filepath.Join(m.outputDir, fmt.Sprintf("caption_%d.txt", index))
}

// SaveImage writes the bytes from r to image_<index>.jpg and returns the
// number of bytes written.
func (m *Manager) SaveImage(index int, r io.Reader) (int64, error) {
	n, err := writeAtomic(m.ImagePath(index), r)
	if err != nil {
		return 0, fmt.Errorf("failed to save image %d: %w", index, err)
	}
	return n, nil
}

// SaveCaption writes text to caption_<index>.txt
func (m *Manager) SaveCaption(index int, text string) error {
	if _, err := writeAtomic(m.CaptionPath(index), bytes.NewReader([]byte(text))); err != nil {
		return fmt.Errorf("failed to save caption %d: %w", index, err)
	}
	return nil
}

// RemoveImage deletes image_<index>.jpg, used when a record could not be
// completed and its slot will be reused.
func (m *Manager) RemoveImage(index int) error {
	if err := os.Remove(m.ImagePath(index)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// SaveManifest writes the run manifest next to the images
func (m *Manager) SaveManifest(manifest *metadata.Manifest) error {
	return manifest.Save(m.outputDir)
}

// GetOutputDir returns the output directory path
func (m *Manager) GetOutputDir() string {
	return m.outputDir
}

// writeAtomic copies r into a temporary file and renames it over path
func writeAtomic(path string, r io.Reader) (int64, error) {
	tempFile := path + ".tmp"
	out, err := os.Create(tempFile)
	if err != nil {
		return 0, fmt.Errorf("failed to create temporary file: %w", err)
	}

	n, err := io.Copy(out, r)
	closeErr := out.Close()

	if err != nil {
		os.Remove(tempFile)
		return 0, fmt.Errorf("failed to write data: %w", err)
	}

	if closeErr != nil {
		os.Remove(tempFile)
		return 0, fmt.Errorf("failed to close file: %w", closeErr)
	}

	if err := os.Rename(tempFile, path); err != nil {
		os.Remove(tempFile)
		return 0, fmt.Errorf("failed to rename temporary file: %w", err)
	}

	return n, nil
}
