package scraper

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"

	"imgscraper/pkg/config"
	"imgscraper/pkg/errors"
	"imgscraper/pkg/extract"
	"imgscraper/pkg/frontier"
	"imgscraper/pkg/logger"
	"imgscraper/pkg/metadata"
	"imgscraper/pkg/metrics"
	"imgscraper/pkg/ratelimit"
	"imgscraper/pkg/storage"
	"imgscraper/pkg/ui"
	"imgscraper/pkg/web"
)

// ErrNoSeeds is returned by Run when neither the arguments nor the
// configuration name a seed URL.
var ErrNoSeeds = stderrors.New("no seed URLs given")

// Summary is the outcome of a run
type Summary struct {
	RunID        string
	Mode         string
	Scraped      int
	OutputDir    string
	PagesVisited int
	Records      []metadata.Record
	PageErrors   []*errors.PageFetchError
	ItemErrors   []*errors.ItemFetchError
	QuotaReached bool
	Duration     time.Duration
}

// Scraper runs a bounded image crawl
type Scraper struct {
	config   *config.Config
	client   Fetcher
	store    Store
	visited  frontier.Store
	robots   RobotsPolicy
	metrics  *metrics.Metrics
	logger   logger.Logger
	console  Reporter
	progress ProgressReporter
	tracker  *ui.StatusTracker
	figures  goquery.Matcher
	runID    string
}

// New creates a Scraper for cfg. Collaborators not supplied through
// options are built from the configuration.
func New(cfg *config.Config, opts ...Option) (*Scraper, error) {
	figures, err := extract.CompileSelector(cfg.Extraction.FigureSelector)
	if err != nil {
		return nil, err
	}

	s := &Scraper{
		config:  cfg,
		figures: figures,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = logger.GetLogger()
	}
	if s.runID == "" {
		s.runID = uuid.NewString()
	}
	if s.metrics == nil {
		s.metrics = metrics.New()
	}
	if s.console == nil {
		s.console = ui.NewStdoutConsole(cfg.Output.NoColor, cfg.Output.Quiet)
	}
	if pr, ok := s.console.(ProgressReporter); ok {
		s.progress = pr
	}

	if s.client == nil {
		s.client = web.NewClient(&cfg.HTTP, s.logger,
			web.WithLimiter(ratelimit.New(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst)))
	}
	if s.robots == nil && cfg.Crawl.RespectRobots {
		var checker *web.RobotsChecker
		if wc, ok := s.client.(*web.Client); ok {
			checker = web.NewRobotsChecker(cfg.HTTP.UserAgent, wc.HTTPClient(), s.logger)
		} else {
			checker = web.NewRobotsChecker(cfg.HTTP.UserAgent, nil, s.logger)
		}
		s.robots = checker
	}

	return s, nil
}

// RunID returns the identifier of this scraper's run
func (s *Scraper) RunID() string { return s.runID }

// Metrics returns the collectors the scraper records into
func (s *Scraper) Metrics() *metrics.Metrics { return s.metrics }

// Tracker returns the progress tracker of the last run
func (s *Scraper) Tracker() *ui.StatusTracker { return s.tracker }

// Run processes seeds in order against one shared image quota. Page and
// item failures are reported and collected in the Summary; the returned
// error is non-nil only when the run could not be set up or ctx ended it.
func (s *Scraper) Run(ctx context.Context, seeds []string) (*Summary, error) {
	seeds = normalizeSeeds(seeds)
	if len(seeds) == 0 {
		seeds = normalizeSeeds(s.config.Crawl.Seeds)
	}
	if len(seeds) == 0 {
		return nil, ErrNoSeeds
	}

	mode := s.config.Crawl.Mode
	if mode == "" {
		mode = config.ModeCrawl
	}
	if mode != config.ModeCrawl && mode != config.ModePage {
		return nil, fmt.Errorf("unknown mode %q", mode)
	}

	if s.store == nil {
		mgr, err := storage.NewManager(s.config.Output.BaseDirectory)
		if err != nil {
			return nil, err
		}
		s.store = mgr
	}

	if s.visited == nil {
		v, err := frontier.New(ctx, &s.config.Frontier, s.runID, s.logger)
		if err != nil {
			return nil, err
		}
		s.visited = v
		defer func() {
			if err := v.Close(); err != nil {
				s.logger.WithError(err).Warn("Failed to close visited store")
			}
			s.visited = nil
		}()
	}

	started := time.Now()
	s.tracker = ui.NewStatusTracker(s.config.Crawl.NumImages)
	if s.progress != nil {
		s.progress.RunStarted(s.tracker)
	}
	summary := &Summary{
		RunID:     s.runID,
		Mode:      mode,
		OutputDir: s.store.GetOutputDir(),
	}

	log := s.logger.WithField("run_id", s.runID)
	logger.LogComponentStart(log, "scraper", map[string]interface{}{
		"mode":       mode,
		"seeds":      seeds,
		"num_images": s.config.Crawl.NumImages,
		"output_dir": summary.OutputDir,
	})

	var runErr error
	for _, seed := range seeds {
		if s.quotaReached(summary) {
			break
		}
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}

		var err error
		if mode == config.ModePage {
			err = s.scrapePage(ctx, seed, summary)
		} else {
			err = s.crawlSeed(ctx, seed, summary)
		}
		if err != nil {
			runErr = err
			break
		}
	}

	summary.QuotaReached = s.quotaReached(summary)
	summary.Duration = time.Since(started)
	s.console.Summary(summary.Scraped, summary.OutputDir)

	if s.config.Output.WriteManifest {
		if err := s.store.SaveManifest(s.manifest(summary, seeds, started)); err != nil {
			log.WithError(err).Warn("Failed to write manifest")
		}
	}

	reason := "completed"
	if runErr != nil {
		reason = runErr.Error()
	}
	logger.LogComponentStop(log.WithFields(map[string]interface{}{
		"scraped":     summary.Scraped,
		"pages":       summary.PagesVisited,
		"page_errors": len(summary.PageErrors),
		"item_errors": len(summary.ItemErrors),
	}), "scraper", reason)

	return summary, runErr
}

// crawlSeed runs the breadth-first crawl rooted at seed. It returns an
// error only for cancellation or a visited-store failure.
func (s *Scraper) crawlSeed(ctx context.Context, seed string, sum *Summary) error {
	visited, err := s.visited.ForSeed(ctx, seed)
	if err != nil {
		return fmt.Errorf("failed to create visited set for %s: %w", seed, err)
	}

	log := s.logger.WithField("seed", seed)
	start := seed
	if u, err := url.Parse(seed); err == nil {
		start = extract.Normalize(u).String()
	}
	queue := frontier.NewQueue(frontier.Task{URL: start})
	enqueued := map[string]bool{start: true}
	maxPages, maxDepth := s.config.Crawl.MaxPages, s.config.Crawl.MaxDepth
	pages := 0

	for queue.Len() > 0 && !s.quotaReached(sum) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if maxPages > 0 && pages >= maxPages {
			log.WithField("max_pages", maxPages).Info("Page limit reached for seed")
			break
		}

		task, _ := queue.Pop()
		s.metrics.SetFrontierSize(queue.Len())

		added, err := visited.Add(ctx, task.URL)
		if err != nil {
			return fmt.Errorf("visited set: %w", err)
		}
		if !added {
			continue
		}

		if !s.allowedByRobots(ctx, task.URL) {
			log.WithField("url", task.URL).Debug("Disallowed by robots.txt")
			continue
		}

		pages++
		if s.progress != nil {
			s.progress.Visiting(task.URL, task.Depth)
		}
		doc, page, err := s.fetchPage(ctx, seed, task.URL, sum)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if s.config.Crawl.OnPageError == config.OnPageErrorSkipPage {
				continue
			}
			return nil
		}

		for _, media := range doc.Figures(s.figures, page.URL) {
			if s.quotaReached(sum) {
				return nil
			}
			s.saveItem(ctx, media, page.URL.String(), true, sum)
			if err := ctx.Err(); err != nil {
				return err
			}
		}

		if maxDepth == 0 || task.Depth < maxDepth {
			for _, link := range doc.Links(page.URL) {
				if enqueued[link] {
					continue
				}
				enqueued[link] = true
				queue.Push(frontier.Task{URL: link, Depth: task.Depth + 1})
			}
		}
		s.metrics.SetFrontierSize(queue.Len())
		logger.LogCrawlProgress(log, seed, sum.Scraped, s.config.Crawl.NumImages, queue.Len())
	}

	return nil
}

// scrapePage downloads the <img> elements of the seed page itself
func (s *Scraper) scrapePage(ctx context.Context, seed string, sum *Summary) error {
	if !s.allowedByRobots(ctx, seed) {
		s.logger.WithField("seed", seed).Info("Seed disallowed by robots.txt")
		return nil
	}

	if s.progress != nil {
		s.progress.Visiting(seed, 0)
	}
	doc, page, err := s.fetchPage(ctx, seed, seed, sum)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return nil
	}

	for _, media := range doc.Images(page.URL) {
		if s.quotaReached(sum) {
			break
		}
		s.saveItem(ctx, media, page.URL.String(), false, sum)
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return nil
}

// fetchPage fetches and parses one page. A failure is reported as a
// PageFetchError against seed and returned.
func (s *Scraper) fetchPage(ctx context.Context, seed, pageURL string, sum *Summary) (*extract.Document, *web.Page, error) {
	start := time.Now()
	page, err := s.client.FetchPage(ctx, pageURL)
	if err == nil {
		s.metrics.ObservePage("ok", time.Since(start))
		sum.PagesVisited++
		s.tracker.IncrementPages()

		var doc *extract.Document
		doc, err = extract.Parse(bytes.NewReader(page.Body))
		if err == nil {
			return doc, page, nil
		}
		err = &errors.Error{Type: errors.ErrorTypeParsing, Message: err.Error()}
	} else if ctx.Err() == nil {
		s.metrics.ObservePage(string(errors.TypeOf(err)), time.Since(start))
	}

	if ctx.Err() != nil {
		return nil, nil, err
	}

	pfe := &errors.PageFetchError{URL: pageURL, Seed: seed, Err: err}
	sum.PageErrors = append(sum.PageErrors, pfe)
	s.metrics.IncErrors(string(errors.TypeOf(err)))
	s.logger.WithError(err).WithFields(map[string]interface{}{
		"seed": seed,
		"url":  pageURL,
	}).Warn("Page fetch failed")
	s.console.PageError(seed, err)

	return nil, nil, pfe
}

// saveItem downloads one image into the next quota slot. Failures are
// reported and leave the quota unchanged.
func (s *Scraper) saveItem(ctx context.Context, media extract.Media, pageURL string, withCaption bool, sum *Summary) {
	index := sum.Scraped
	caption := media.Caption
	if !media.HasCaption {
		caption = s.config.Extraction.MissingCaption
	}

	if s.progress != nil {
		s.progress.Fetching(index, media.URL)
	}
	start := time.Now()
	data, err := s.client.FetchImage(ctx, media.URL)
	s.metrics.ObserveImage(time.Since(start))

	var size int64
	if err == nil {
		size, err = s.store.SaveImage(index, bytes.NewReader(data))
		if err == nil && withCaption {
			if err = s.store.SaveCaption(index, caption); err != nil {
				if rmErr := s.store.RemoveImage(index); rmErr != nil {
					s.logger.WithError(rmErr).WithField("index", index).Warn("Failed to remove partial record")
				}
			}
		}
		if err != nil {
			err = &errors.Error{Type: errors.ErrorTypeIO, Message: err.Error()}
		}
	}

	if err != nil {
		if ctx.Err() != nil {
			return
		}
		sum.ItemErrors = append(sum.ItemErrors, &errors.ItemFetchError{URL: media.URL, Index: index, Err: err})
		s.metrics.IncErrors(string(errors.TypeOf(err)))
		s.tracker.IncrementFailed()
		logger.LogDownload(s.logger, index, media.URL, err)
		s.console.DownloadError(media.URL, err)
		return
	}

	rec := metadata.Record{
		Index:        index,
		SourceURL:    media.URL,
		PageURL:      pageURL,
		HasCaption:   media.HasCaption,
		Size:         size,
		DownloadedAt: time.Now(),
	}
	if withCaption {
		rec.Caption = caption
	}
	sum.Records = append(sum.Records, rec)
	sum.Scraped++

	s.metrics.IncImagesSaved()
	s.tracker.IncrementDownloaded()
	logger.LogDownload(s.logger, index, media.URL, nil)
	if s.progress != nil {
		s.progress.Saved(rec)
	}
	s.console.Downloaded(media.URL, caption, withCaption)
}

func (s *Scraper) allowedByRobots(ctx context.Context, rawURL string) bool {
	if s.robots == nil {
		return true
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return true
	}
	if s.robots.Allowed(ctx, u) {
		return true
	}
	s.metrics.IncRobotsBlocked()
	return false
}

func (s *Scraper) quotaReached(sum *Summary) bool {
	return sum.Scraped >= s.config.Crawl.NumImages
}

func (s *Scraper) manifest(sum *Summary, seeds []string, started time.Time) *metadata.Manifest {
	m := &metadata.Manifest{
		RunID:      sum.RunID,
		Mode:       sum.Mode,
		Seeds:      seeds,
		NumImages:  s.config.Crawl.NumImages,
		StartedAt:  started,
		FinishedAt: started.Add(sum.Duration),
		Records:    sum.Records,
	}
	for _, pe := range sum.PageErrors {
		m.Errors = append(m.Errors, metadata.ErrorEntry{Kind: "page", URL: pe.URL, Seed: pe.Seed, Message: pe.Err.Error()})
	}
	for _, ie := range sum.ItemErrors {
		m.Errors = append(m.Errors, metadata.ErrorEntry{Kind: "item", URL: ie.URL, Message: ie.Err.Error()})
	}
	return m
}

func normalizeSeeds(seeds []string) []string {
	var out []string
	for _, seed := range seeds {
		if seed = strings.TrimSpace(seed); seed != "" {
			out = append(out, seed)
		}
	}
	return out
}
