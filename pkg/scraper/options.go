package scraper

import (
	"imgscraper/pkg/frontier"
	"imgscraper/pkg/logger"
	"imgscraper/pkg/metrics"
)

// Option customises a Scraper
type Option func(*Scraper)

// WithFetcher replaces the HTTP client
func WithFetcher(f Fetcher) Option {
	return func(s *Scraper) { s.client = f }
}

// WithStore replaces the storage manager. Without it Run creates one for
// output.base_directory.
func WithStore(st Store) Option {
	return func(s *Scraper) { s.store = st }
}

// WithVisitedStore replaces the visited-set backend
func WithVisitedStore(v frontier.Store) Option {
	return func(s *Scraper) { s.visited = v }
}

// WithRobots enables a robots.txt policy regardless of configuration
func WithRobots(r RobotsPolicy) Option {
	return func(s *Scraper) { s.robots = r }
}

// WithMetrics records into m instead of a private instance
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Scraper) { s.metrics = m }
}

// WithLogger sets the logger
func WithLogger(l logger.Logger) Option {
	return func(s *Scraper) { s.logger = l }
}

// WithReporter sets where report lines are printed
func WithReporter(r Reporter) Option {
	return func(s *Scraper) { s.console = r }
}

// WithRunID fixes the run identifier
func WithRunID(id string) Option {
	return func(s *Scraper) { s.runID = id }
}
