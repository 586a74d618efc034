package scraper

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"imgscraper/pkg/config"
	"imgscraper/pkg/errors"
	"imgscraper/pkg/logger"
	"imgscraper/pkg/metadata"
	"imgscraper/pkg/storage"
	"imgscraper/pkg/ui"
	"imgscraper/pkg/web"
)

// testSite serves /wiki/<name> pages from a map and /img/<name> images.
// Images whose name contains "missing" return 404.
type testSite struct {
	server *httptest.Server
	pages  map[string]string
	robots string

	mu   sync.Mutex
	hits map[string]int
}

func newTestSite(t *testing.T, pages map[string]string) *testSite {
	t.Helper()
	s := &testSite{pages: pages, hits: make(map[string]int)}

	mux := http.NewServeMux()
	mux.HandleFunc("/wiki/", func(w http.ResponseWriter, r *http.Request) {
		s.hit(r.URL.Path)
		body, ok := s.pages[strings.TrimPrefix(r.URL.Path, "/wiki/")]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = io.WriteString(w, "<html><body>"+body+"</body></html>")
	})
	mux.HandleFunc("/img/", func(w http.ResponseWriter, r *http.Request) {
		s.hit(r.URL.Path)
		if strings.Contains(r.URL.Path, "missing") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = io.WriteString(w, "IMG:"+strings.TrimPrefix(r.URL.Path, "/img/"))
	})
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		if s.robots == "" {
			http.NotFound(w, r)
			return
		}
		_, _ = io.WriteString(w, s.robots)
	})

	s.server = httptest.NewServer(mux)
	t.Cleanup(s.server.Close)
	return s
}

func (s *testSite) hit(path string) {
	s.mu.Lock()
	s.hits[path]++
	s.mu.Unlock()
}

func (s *testSite) Hits(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[path]
}

func (s *testSite) URL(path string) string {
	return s.server.URL + path
}

func figure(src, caption string) string {
	out := `<figure class="mw-default-size mw-halign-right" typeof="mw:File/Thumb"><img src="` + src + `">`
	if caption != "" {
		out += "<figcaption>" + caption + "</figcaption>"
	}
	return out + "</figure>"
}

func link(href string) string {
	return `<a href="` + href + `">link</a>`
}

// wikiPages is a three page site: A has two figures (the second without a
// caption), C has a broken image before a working one.
func wikiPages(otherOrigin string) map[string]string {
	return map[string]string{
		"A": figure("/img/a1.jpg", "Alpha caption") +
			figure("/img/a2.jpg", "") +
			link("/wiki/B") + link("/wiki/C") + link(otherOrigin+"/wiki/X") +
			link("/wiki/A") + link("/wiki/B#History") + link("relative/page") + link("mailto:x@example.org"),
		"B": figure("/img/b1.jpg", "Beta") + link("/wiki/A") + link("/wiki/C"),
		"C": figure("/img/missing.jpg", "Broken") + figure("/img/c1.jpg", "Gamma") + link("/wiki/B"),
	}
}

func testConfig(t *testing.T, n int) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Crawl.NumImages = n
	cfg.Output.BaseDirectory = filepath.Join(t.TempDir(), "scraped_images")
	cfg.HTTP.Timeout = 5 * time.Second
	return cfg
}

type harness struct {
	scraper *Scraper
	out     *bytes.Buffer
	log     *logger.TestLogger
	cfg     *config.Config
}

func newHarness(t *testing.T, cfg *config.Config, opts ...Option) *harness {
	t.Helper()
	out := &bytes.Buffer{}
	tl := logger.NewTestLogger()

	base := []Option{
		WithLogger(tl),
		WithReporter(ui.NewConsole(out, false, false)),
		WithFetcher(web.NewClient(&cfg.HTTP, tl)),
		WithRunID("test-run"),
	}
	s, err := New(cfg, append(base, opts...)...)
	require.NoError(t, err)
	return &harness{scraper: s, out: out, log: tl, cfg: cfg}
}

func (h *harness) lines() []string {
	return strings.Split(strings.TrimRight(h.out.String(), "\n"), "\n")
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestCrawlStopsWhenQuotaReached(t *testing.T) {
	other := newTestSite(t, map[string]string{"X": figure("/img/x.jpg", "X")})
	site := newTestSite(t, wikiPages(other.server.URL))

	cfg := testConfig(t, 2)
	h := newHarness(t, cfg)

	sum, err := h.scraper.Run(context.Background(), []string{site.URL("/wiki/A")})
	require.NoError(t, err)

	assert.Equal(t, 2, sum.Scraped)
	assert.True(t, sum.QuotaReached)
	assert.Equal(t, 1, sum.PagesVisited)
	assert.Equal(t, 0, site.Hits("/wiki/B"))
	assert.Equal(t, 0, site.Hits("/wiki/C"))
	assert.Equal(t, 0, other.Hits("/wiki/X"))

	dir := cfg.Output.BaseDirectory
	assert.Equal(t, "IMG:a1.jpg", readFile(t, filepath.Join(dir, "image_0.jpg")))
	assert.Equal(t, "Alpha caption", readFile(t, filepath.Join(dir, "caption_0.txt")))
	assert.Equal(t, "IMG:a2.jpg", readFile(t, filepath.Join(dir, "image_1.jpg")))
	assert.Equal(t, "N/A", readFile(t, filepath.Join(dir, "caption_1.txt")))
	assert.NoFileExists(t, filepath.Join(dir, "image_2.jpg"))

	assert.Equal(t, []string{
		"Downloaded image: " + site.URL("/img/a1.jpg") + ", Caption: Alpha caption",
		"Downloaded image: " + site.URL("/img/a2.jpg") + ", Caption: N/A",
		"Scraped 2 images and saved them in " + dir + " folder.",
	}, h.lines())
}

func TestCrawlBreadthFirstWithItemFailure(t *testing.T) {
	other := newTestSite(t, map[string]string{"X": figure("/img/x.jpg", "X")})
	site := newTestSite(t, wikiPages(other.server.URL))

	cfg := testConfig(t, 10)
	h := newHarness(t, cfg)

	sum, err := h.scraper.Run(context.Background(), []string{site.URL("/wiki/A")})
	require.NoError(t, err)

	assert.Equal(t, 4, sum.Scraped)
	assert.False(t, sum.QuotaReached)
	assert.Equal(t, 3, sum.PagesVisited)

	for _, page := range []string{"/wiki/A", "/wiki/B", "/wiki/C"} {
		assert.Equal(t, 1, site.Hits(page), "page %s fetched once", page)
	}
	assert.Equal(t, 0, other.Hits("/wiki/X"), "cross-origin links are never followed")
	assert.Equal(t, 0, site.Hits("/wiki/relative/page"))

	for i, rec := range sum.Records {
		assert.Equal(t, i, rec.Index)
	}
	assert.Equal(t, site.URL("/img/c1.jpg"), sum.Records[3].SourceURL)
	assert.Equal(t, site.URL("/wiki/C"), sum.Records[3].PageURL)

	require.Len(t, sum.ItemErrors, 1)
	assert.Equal(t, site.URL("/img/missing.jpg"), sum.ItemErrors[0].URL)
	assert.Equal(t, 3, sum.ItemErrors[0].Index)
	assert.Equal(t, errors.ErrorTypeNotFound, errors.TypeOf(sum.ItemErrors[0]))
	assert.Empty(t, sum.PageErrors)

	dir := cfg.Output.BaseDirectory
	assert.Equal(t, "Gamma", readFile(t, filepath.Join(dir, "caption_3.txt")))
	assert.NoFileExists(t, filepath.Join(dir, "image_4.jpg"))

	assert.Equal(t, []string{
		"Downloaded image: " + site.URL("/img/a1.jpg") + ", Caption: Alpha caption",
		"Downloaded image: " + site.URL("/img/a2.jpg") + ", Caption: N/A",
		"Downloaded image: " + site.URL("/img/b1.jpg") + ", Caption: Beta",
		"Error downloading image: " + site.URL("/img/missing.jpg") + ", not_found error (code 404): Not Found",
		"Downloaded image: " + site.URL("/img/c1.jpg") + ", Caption: Gamma",
		"Scraped 4 images and saved them in " + dir + " folder.",
	}, h.lines())
}

func TestCrawlSeedNotFound(t *testing.T) {
	site := newTestSite(t, wikiPages("https://other.invalid"))

	cfg := testConfig(t, 1)
	h := newHarness(t, cfg)

	missing := site.URL("/wiki/Nope")
	sum, err := h.scraper.Run(context.Background(), []string{missing, site.URL("/wiki/B")})
	require.NoError(t, err)

	require.Len(t, sum.PageErrors, 1)
	assert.Equal(t, missing, sum.PageErrors[0].URL)
	assert.Equal(t, missing, sum.PageErrors[0].Seed)
	assert.Equal(t, 1, sum.Scraped)
	assert.True(t, h.log.HasMessage("Page fetch failed"))

	assert.Equal(t, []string{
		"Error scraping website: " + missing + ", not_found error (code 404): Not Found",
		"Downloaded image: " + site.URL("/img/b1.jpg") + ", Caption: Beta",
		"Scraped 1 images and saved them in " + cfg.Output.BaseDirectory + " folder.",
	}, h.lines())
}

func TestCrawlFewerImagesThanQuota(t *testing.T) {
	site := newTestSite(t, map[string]string{
		"A": figure("/img/a1.jpg", "one") + figure("/img/a2.jpg", "") + link("/wiki/D"),
		"D": figure("/img/d1.jpg", "three"),
	})

	cfg := testConfig(t, 5)
	h := newHarness(t, cfg)

	sum, err := h.scraper.Run(context.Background(), []string{site.URL("/wiki/A")})
	require.NoError(t, err)

	assert.Equal(t, 3, sum.Scraped)
	assert.False(t, sum.QuotaReached)
	assert.Len(t, sum.Records, 3)
	assert.Contains(t, h.out.String(), "Scraped 3 images and saved them in")
}

func TestCrawlZeroQuota(t *testing.T) {
	site := newTestSite(t, wikiPages("https://other.invalid"))

	cfg := testConfig(t, 0)
	h := newHarness(t, cfg)

	sum, err := h.scraper.Run(context.Background(), []string{site.URL("/wiki/A")})
	require.NoError(t, err)

	assert.Equal(t, 0, sum.Scraped)
	assert.Equal(t, 0, site.Hits("/wiki/A"))
	assert.DirExists(t, cfg.Output.BaseDirectory)
	assert.Equal(t, []string{
		"Scraped 0 images and saved them in " + cfg.Output.BaseDirectory + " folder.",
	}, h.lines())
}

func TestVisitedSetIsPerSeed(t *testing.T) {
	site := newTestSite(t, wikiPages("https://other.invalid"))

	cfg := testConfig(t, 100)
	h := newHarness(t, cfg)

	sum, err := h.scraper.Run(context.Background(), []string{site.URL("/wiki/A"), site.URL("/wiki/B")})
	require.NoError(t, err)

	assert.Equal(t, 2, site.Hits("/wiki/A"))
	assert.Equal(t, 2, site.Hits("/wiki/B"))
	assert.Equal(t, 8, sum.Scraped)
	assert.Equal(t, 6, sum.PagesVisited)
}

func TestPageErrorPolicy(t *testing.T) {
	pages := map[string]string{
		"A": figure("/img/a1.jpg", "one") + link("/wiki/Gone") + link("/wiki/B"),
		"B": figure("/img/b1.jpg", "two"),
	}

	t.Run("abort seed", func(t *testing.T) {
		site := newTestSite(t, pages)
		h := newHarness(t, testConfig(t, 10))

		sum, err := h.scraper.Run(context.Background(), []string{site.URL("/wiki/A")})
		require.NoError(t, err)

		assert.Equal(t, 1, sum.Scraped)
		assert.Equal(t, 0, site.Hits("/wiki/B"))
		require.Len(t, sum.PageErrors, 1)
		assert.Equal(t, site.URL("/wiki/Gone"), sum.PageErrors[0].URL)
		assert.Contains(t, h.out.String(), "Error scraping website: "+site.URL("/wiki/A")+", ")
	})

	t.Run("skip page", func(t *testing.T) {
		site := newTestSite(t, pages)
		cfg := testConfig(t, 10)
		cfg.Crawl.OnPageError = config.OnPageErrorSkipPage
		h := newHarness(t, cfg)

		sum, err := h.scraper.Run(context.Background(), []string{site.URL("/wiki/A")})
		require.NoError(t, err)

		assert.Equal(t, 2, sum.Scraped)
		assert.Equal(t, 1, site.Hits("/wiki/B"))
		assert.Len(t, sum.PageErrors, 1)
	})
}

func TestCrawlLimits(t *testing.T) {
	chain := map[string]string{
		"P0": figure("/img/p0.jpg", "0") + link("/wiki/P1"),
		"P1": figure("/img/p1.jpg", "1") + link("/wiki/P2"),
		"P2": figure("/img/p2.jpg", "2"),
	}

	t.Run("max depth", func(t *testing.T) {
		site := newTestSite(t, chain)
		cfg := testConfig(t, 10)
		cfg.Crawl.MaxDepth = 1
		h := newHarness(t, cfg)

		sum, err := h.scraper.Run(context.Background(), []string{site.URL("/wiki/P0")})
		require.NoError(t, err)
		assert.Equal(t, 2, sum.Scraped)
		assert.Equal(t, 0, site.Hits("/wiki/P2"))
	})

	t.Run("max pages", func(t *testing.T) {
		site := newTestSite(t, chain)
		cfg := testConfig(t, 10)
		cfg.Crawl.MaxPages = 2
		h := newHarness(t, cfg)

		sum, err := h.scraper.Run(context.Background(), []string{site.URL("/wiki/P0")})
		require.NoError(t, err)
		assert.Equal(t, 2, sum.PagesVisited)
		assert.Equal(t, 0, site.Hits("/wiki/P2"))
	})
}

func TestCrawlRespectsRobots(t *testing.T) {
	site := newTestSite(t, wikiPages("https://other.invalid"))
	site.robots = "User-agent: *\nDisallow: /wiki/B\n"

	cfg := testConfig(t, 10)
	cfg.Crawl.RespectRobots = true
	h := newHarness(t, cfg, WithRobots(web.NewRobotsChecker(cfg.HTTP.UserAgent, nil, logger.NewNopLogger())))

	sum, err := h.scraper.Run(context.Background(), []string{site.URL("/wiki/A")})
	require.NoError(t, err)

	assert.Equal(t, 0, site.Hits("/wiki/B"))
	assert.Equal(t, 1, site.Hits("/wiki/C"))
	assert.Equal(t, 3, sum.Scraped)
}

func TestPageMode(t *testing.T) {
	site := newTestSite(t, map[string]string{
		"P": `<img src="/img/p1.jpg"><p><img src="../img/missing.jpg"></p>` +
			figure("/img/p2.jpg", "ignored in page mode") + `<img src="/img/p3.jpg">` + link("/wiki/Q"),
		"Q": `<img src="/img/q1.jpg">`,
	})

	cfg := testConfig(t, 2)
	cfg.Crawl.Mode = config.ModePage
	h := newHarness(t, cfg)

	sum, err := h.scraper.Run(context.Background(), []string{site.URL("/wiki/P"), site.URL("/wiki/Q")})
	require.NoError(t, err)

	assert.Equal(t, 2, sum.Scraped)
	assert.Equal(t, 0, site.Hits("/wiki/Q"), "links are not followed and the quota is met")
	assert.Equal(t, 0, site.Hits("/img/p3.jpg"))

	dir := cfg.Output.BaseDirectory
	assert.Equal(t, "IMG:p2.jpg", readFile(t, filepath.Join(dir, "image_1.jpg")))
	assert.NoFileExists(t, filepath.Join(dir, "caption_0.txt"))

	assert.Equal(t, []string{
		"Downloaded image: " + site.URL("/img/p1.jpg"),
		"Error downloading image: " + site.URL("/img/missing.jpg") + ", not_found error (code 404): Not Found",
		"Downloaded image: " + site.URL("/img/p2.jpg"),
		"Scraped 2 images and saved them in " + dir + " folder.",
	}, h.lines())
}

func TestPageModeSeedFailure(t *testing.T) {
	site := newTestSite(t, map[string]string{"Q": `<img src="/img/q1.jpg">`})

	cfg := testConfig(t, 5)
	cfg.Crawl.Mode = config.ModePage
	h := newHarness(t, cfg)

	sum, err := h.scraper.Run(context.Background(), []string{site.URL("/wiki/Nope"), site.URL("/wiki/Q")})
	require.NoError(t, err)

	assert.Equal(t, 1, sum.Scraped)
	assert.Len(t, sum.PageErrors, 1)
	assert.True(t, errors.IsPageFetch(sum.PageErrors[0]))
}

func TestManifestWritten(t *testing.T) {
	site := newTestSite(t, wikiPages("https://other.invalid"))

	cfg := testConfig(t, 10)
	h := newHarness(t, cfg)

	_, err := h.scraper.Run(context.Background(), []string{site.URL("/wiki/A")})
	require.NoError(t, err)

	m, err := metadata.Load(cfg.Output.BaseDirectory)
	require.NoError(t, err)
	assert.Equal(t, "test-run", m.RunID)
	assert.Equal(t, config.ModeCrawl, m.Mode)
	assert.Len(t, m.Records, 4)
	require.Len(t, m.Errors, 1)
	assert.Equal(t, "item", m.Errors[0].Kind)
	assert.False(t, m.FinishedAt.Before(m.StartedAt))
}

func TestManifestDisabled(t *testing.T) {
	site := newTestSite(t, wikiPages("https://other.invalid"))

	cfg := testConfig(t, 1)
	cfg.Output.WriteManifest = false
	h := newHarness(t, cfg)

	_, err := h.scraper.Run(context.Background(), []string{site.URL("/wiki/A")})
	require.NoError(t, err)
	assert.NoFileExists(t, filepath.Join(cfg.Output.BaseDirectory, metadata.ManifestFile))
}

// captionFailStore saves images but cannot write captions
type captionFailStore struct {
	*storage.Manager
	removed []int
}

func (s *captionFailStore) SaveCaption(index int, text string) error {
	return stderrors.New("disk full")
}

func (s *captionFailStore) RemoveImage(index int) error {
	s.removed = append(s.removed, index)
	return s.Manager.RemoveImage(index)
}

func TestCaptionWriteFailureIsItemError(t *testing.T) {
	site := newTestSite(t, wikiPages("https://other.invalid"))

	cfg := testConfig(t, 1)
	mgr, err := storage.NewManager(cfg.Output.BaseDirectory)
	require.NoError(t, err)
	store := &captionFailStore{Manager: mgr}
	h := newHarness(t, cfg, WithStore(store))

	sum, err := h.scraper.Run(context.Background(), []string{site.URL("/wiki/A")})
	require.NoError(t, err)

	assert.Equal(t, 0, sum.Scraped)
	assert.NotEmpty(t, sum.ItemErrors)
	for _, ie := range sum.ItemErrors {
		assert.Equal(t, 0, ie.Index, "failed items never advance the quota")
		if !strings.Contains(ie.URL, "missing") {
			assert.Equal(t, errors.ErrorTypeIO, errors.TypeOf(ie))
		}
	}
	assert.Contains(t, store.removed, 0)
	assert.NoFileExists(t, filepath.Join(cfg.Output.BaseDirectory, "image_0.jpg"))
}

func TestRunCancelled(t *testing.T) {
	site := newTestSite(t, wikiPages("https://other.invalid"))

	cfg := testConfig(t, 10)
	h := newHarness(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sum, err := h.scraper.Run(ctx, []string{site.URL("/wiki/A")})
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, sum)
	assert.Equal(t, 0, sum.Scraped)
	assert.Equal(t, 0, site.Hits("/wiki/A"))
	assert.Contains(t, h.out.String(), "Scraped 0 images")
}

func TestRunSeedsFromConfig(t *testing.T) {
	site := newTestSite(t, wikiPages("https://other.invalid"))

	cfg := testConfig(t, 1)
	cfg.Crawl.Seeds = []string{" ", site.URL("/wiki/B")}
	h := newHarness(t, cfg)

	sum, err := h.scraper.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Scraped)
	assert.Equal(t, 1, site.Hits("/wiki/B"))
}

func TestRunSetupErrors(t *testing.T) {
	t.Run("no seeds", func(t *testing.T) {
		h := newHarness(t, testConfig(t, 1))
		_, err := h.scraper.Run(context.Background(), []string{"  "})
		assert.ErrorIs(t, err, ErrNoSeeds)
	})

	t.Run("unknown mode", func(t *testing.T) {
		cfg := testConfig(t, 1)
		cfg.Crawl.Mode = "spider"
		h := newHarness(t, cfg)
		_, err := h.scraper.Run(context.Background(), []string{"http://a.test/"})
		assert.ErrorContains(t, err, "unknown mode")
	})

	t.Run("output directory blocked", func(t *testing.T) {
		cfg := testConfig(t, 1)
		blocker := filepath.Join(t.TempDir(), "file")
		require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))
		cfg.Output.BaseDirectory = blocker
		h := newHarness(t, cfg)
		_, err := h.scraper.Run(context.Background(), []string{"http://a.test/"})
		assert.Error(t, err)
	})

	t.Run("invalid selector", func(t *testing.T) {
		cfg := testConfig(t, 1)
		cfg.Extraction.FigureSelector = "figure["
		_, err := New(cfg)
		assert.Error(t, err)
	})
}

func TestUnsupportedSeedIsPageError(t *testing.T) {
	h := newHarness(t, testConfig(t, 1))

	sum, err := h.scraper.Run(context.Background(), []string{"ftp://files.example.org/"})
	require.NoError(t, err)
	require.Len(t, sum.PageErrors, 1)
	assert.Equal(t, errors.ErrorTypeParsing, errors.TypeOf(sum.PageErrors[0]))
	assert.True(t, strings.HasPrefix(h.lines()[0], "Error scraping website: ftp://files.example.org/, "))
}

func TestMetricsRecorded(t *testing.T) {
	site := newTestSite(t, wikiPages("https://other.invalid"))

	h := newHarness(t, testConfig(t, 10))
	_, err := h.scraper.Run(context.Background(), []string{site.URL("/wiki/A")})
	require.NoError(t, err)

	m := h.scraper.Metrics()
	families, err := m.Registry().Gather()
	require.NoError(t, err)

	found := map[string]bool{}
	for _, f := range families {
		found[f.GetName()] = true
	}
	for _, name := range []string{
		"imgscraper_pages_fetched_total",
		"imgscraper_images_saved_total",
		"imgscraper_errors_total",
		"imgscraper_fetch_duration_seconds",
	} {
		assert.True(t, found[name], fmt.Sprintf("metric %s gathered", name))
	}
	assert.Equal(t, 4, h.scraper.Tracker().Downloaded)
	assert.Equal(t, 1, h.scraper.Tracker().Failed)
}

func TestCrawlSeedFragmentIsNotFetchedTwice(t *testing.T) {
	site := newTestSite(t, map[string]string{
		"A": figure("/img/a1.jpg", "one") + link("/wiki/A") + link("/wiki/A#History"),
	})

	cfg := testConfig(t, 5)
	h := newHarness(t, cfg)

	sum, err := h.scraper.Run(context.Background(), []string{site.URL("/wiki/A#top")})
	require.NoError(t, err)

	assert.Equal(t, 1, site.Hits("/wiki/A"))
	assert.Equal(t, 1, sum.PagesVisited)
	assert.Equal(t, 1, sum.Scraped)
	assert.Equal(t, []string{
		"Downloaded image: " + site.URL("/img/a1.jpg") + ", Caption: one",
		"Scraped 1 images and saved them in " + cfg.Output.BaseDirectory + " folder.",
	}, h.lines())
}

// recordingReporter is a console that also keeps the progress events
type recordingReporter struct {
	*ui.Console
	tracker *ui.StatusTracker
	events  []string
}

func (r *recordingReporter) RunStarted(tracker *ui.StatusTracker) {
	r.tracker = tracker
	r.events = append(r.events, "start")
}

func (r *recordingReporter) Visiting(url string, depth int) {
	r.events = append(r.events, fmt.Sprintf("page %s %d", url, depth))
}

func (r *recordingReporter) Fetching(index int, url string) {
	r.events = append(r.events, fmt.Sprintf("image %d %s", index, url))
}

func (r *recordingReporter) Saved(rec metadata.Record) {
	r.events = append(r.events, fmt.Sprintf("saved %d %q", rec.Index, rec.Caption))
}

func TestProgressReporterFollowsRun(t *testing.T) {
	site := newTestSite(t, map[string]string{
		"A": figure("/img/a1.jpg", "one") + link("/wiki/B"),
		"B": figure("/img/b1.jpg", ""),
	})

	cfg := testConfig(t, 2)
	out := &bytes.Buffer{}
	rec := &recordingReporter{Console: ui.NewConsole(out, false, false)}
	h := newHarness(t, cfg, WithReporter(rec))

	_, err := h.scraper.Run(context.Background(), []string{site.URL("/wiki/A")})
	require.NoError(t, err)

	assert.Same(t, h.scraper.Tracker(), rec.tracker)
	assert.Equal(t, []string{
		"start",
		"page " + site.URL("/wiki/A") + " 0",
		"image 0 " + site.URL("/img/a1.jpg"),
		`saved 0 "one"`,
		"page " + site.URL("/wiki/B") + " 1",
		"image 1 " + site.URL("/img/b1.jpg"),
		`saved 1 "N/A"`,
	}, rec.events)
	assert.Contains(t, out.String(), "Scraped 2 images")
}
