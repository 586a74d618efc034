package metadata

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ManifestFile is the name of the run manifest inside the output directory
const ManifestFile = "manifest.json"

// Record describes one saved image. Index is its quota slot and names the
// files image_<index>.jpg and caption_<index>.txt.
type Record struct {
	Index        int       `json:"index"`
	SourceURL    string    `json:"source_url"`
	PageURL      string    `json:"page_url"`
	Caption      string    `json:"caption,omitempty"`
	HasCaption   bool      `json:"has_caption"`
	Size         int64     `json:"size"`
	DownloadedAt time.Time `json:"downloaded_at"`
}

// ErrorEntry is a page or item failure recorded during a run
type ErrorEntry struct {
	Kind    string `json:"kind"` // "page" or "item"
	URL     string `json:"url"`
	Seed    string `json:"seed,omitempty"`
	Message string `json:"message"`
}

// Manifest summarises a run
type Manifest struct {
	RunID      string       `json:"run_id"`
	Mode       string       `json:"mode"`
	Seeds      []string     `json:"seeds"`
	NumImages  int          `json:"num_images"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	Records    []Record     `json:"records"`
	Errors     []ErrorEntry `json:"errors,omitempty"`
}

// Save writes the manifest to dir/manifest.json
func (m *Manifest) Save(dir string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, ManifestFile), data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest file: %w", err)
	}

	return nil
}

// Load reads dir/manifest.json
func Load(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest file: %w", err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to unmarshal manifest: %w", err)
	}

	return &m, nil
}

// Duration returns how long the run took
func (m *Manifest) Duration() time.Duration {
	if m.FinishedAt.IsZero() {
		return 0
	}
	return m.FinishedAt.Sub(m.StartedAt)
}

// GetFormattedCaption returns the caption truncated to maxLength runes
func (r *Record) GetFormattedCaption(maxLength int) string {
	runes := []rune(r.Caption)
	if maxLength <= 3 || len(runes) <= maxLength {
		return r.Caption
	}
	return string(runes[:maxLength-3]) + "..."
}
