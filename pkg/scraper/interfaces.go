package scraper

import (
	"context"
	"io"
	"net/url"

	"imgscraper/pkg/metadata"
	"imgscraper/pkg/ui"
	"imgscraper/pkg/web"
)

// Fetcher retrieves pages and image bytes
type Fetcher interface {
	FetchPage(ctx context.Context, url string) (*web.Page, error)
	FetchImage(ctx context.Context, url string) ([]byte, error)
}

// Store persists records
type Store interface {
	SaveImage(index int, r io.Reader) (int64, error)
	SaveCaption(index int, text string) error
	RemoveImage(index int) error
	SaveManifest(m *metadata.Manifest) error
	GetOutputDir() string
}

// RobotsPolicy decides whether a page may be fetched
type RobotsPolicy interface {
	Allowed(ctx context.Context, u *url.URL) bool
}

// Reporter prints the user-facing report
type Reporter interface {
	Downloaded(url, caption string, withCaption bool)
	DownloadError(url string, err error)
	PageError(url string, err error)
	Summary(n int, dir string)
}

// ProgressReporter is a Reporter that also follows the run as it
// happens. The scraper feeds it when the reporter implements it.
type ProgressReporter interface {
	Reporter
	RunStarted(tracker *ui.StatusTracker)
	Visiting(url string, depth int)
	Fetching(index int, url string)
	Saved(rec metadata.Record)
}
