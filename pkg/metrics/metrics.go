package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Fetch kinds used as the "kind" label
const (
	KindPage  = "page"
	KindImage = "image"
)

// Metrics holds the crawler's Prometheus collectors on a private registry
type Metrics struct {
	registry *prometheus.Registry

	PagesFetched  *prometheus.CounterVec
	ImagesSaved   prometheus.Counter
	Errors        *prometheus.CounterVec
	FetchDuration *prometheus.HistogramVec
	FrontierSize  prometheus.Gauge
	RobotsBlocked prometheus.Counter
}

// New registers all collectors on a fresh registry
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		PagesFetched: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "imgscraper_pages_fetched_total",
				Help: "Pages requested, by outcome.",
			},
			[]string{"status"},
		),
		ImagesSaved: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "imgscraper_images_saved_total",
				Help: "Images written to the output directory.",
			},
		),
		Errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "imgscraper_errors_total",
				Help: "Page and item failures, by error type.",
			},
			[]string{"type"},
		),
		FetchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "imgscraper_fetch_duration_seconds",
				Help:    "Time taken by HTTP fetches.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"kind"},
		),
		FrontierSize: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "imgscraper_frontier_size",
				Help: "Tasks waiting in the crawl queue of the current seed.",
			},
		),
		RobotsBlocked: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "imgscraper_robots_blocked_total",
				Help: "Pages skipped because robots.txt disallows them.",
			},
		),
	}

	reg.MustRegister(
		m.PagesFetched,
		m.ImagesSaved,
		m.Errors,
		m.FetchDuration,
		m.FrontierSize,
		m.RobotsBlocked,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Registry returns the registry the collectors live on
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObservePage records a page fetch outcome ("ok" or an error type)
func (m *Metrics) ObservePage(status string, d time.Duration) {
	m.PagesFetched.WithLabelValues(status).Inc()
	m.FetchDuration.WithLabelValues(KindPage).Observe(d.Seconds())
}

// ObserveImage records the duration of an image fetch
func (m *Metrics) ObserveImage(d time.Duration) {
	m.FetchDuration.WithLabelValues(KindImage).Observe(d.Seconds())
}

// IncImagesSaved counts a saved record
func (m *Metrics) IncImagesSaved() {
	m.ImagesSaved.Inc()
}

// IncErrors counts a failure of the given type
func (m *Metrics) IncErrors(errorType string) {
	m.Errors.WithLabelValues(errorType).Inc()
}

// SetFrontierSize reports the queue length
func (m *Metrics) SetFrontierSize(n int) {
	m.FrontierSize.Set(float64(n))
}

// IncRobotsBlocked counts a page skipped by robots.txt
func (m *Metrics) IncRobotsBlocked() {
	m.RobotsBlocked.Inc()
}
