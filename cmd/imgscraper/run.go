package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"imgscraper/pkg/config"
	"imgscraper/pkg/logger"
	"imgscraper/pkg/metrics"
	"imgscraper/pkg/scraper"
	"imgscraper/pkg/ui"
	"imgscraper/pkg/ui/tui"
)

const (
	modeCrawl = config.ModeCrawl
	modePage  = config.ModePage
)

// runOptions holds the flags of the crawl and scrape commands
type runOptions struct {
	numImages     int
	outputDir     string
	maxPages      int
	maxDepth      int
	selector      string
	onPageError   string
	respectRobots bool
	rateLimit     int
	rateBurst     int
	timeout       time.Duration
	metricsAddr   string
	tui           bool
}

// newRunCmd builds the command running the scraper in the given mode
func newRunCmd(global *globalOptions, mode string) *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScraper(cmd, global, opts, mode, args)
		},
	}

	switch mode {
	case modePage:
		cmd.Use = "scrape [url...]"
		cmd.Short = "Download every <img> on the given pages"
		cmd.Long = `Download every image on each seed page without following links.

Seeds are processed in order and share one image quota. Captions are
not written in this mode.`
		cmd.Example = `  # First 5 images of a single page
  imgscraper scrape https://example.com/gallery -n 5

  # Several pages into one folder
  imgscraper scrape https://example.com/a https://example.com/b -o ./images`
	default:
		cmd.Use = "crawl [url...]"
		cmd.Short = "Crawl same-origin pages and download figure images with captions"
		cmd.Long = `Crawl breadth-first from each seed URL, staying on the seed's origin.

Every figure matching the selector contributes its first image and the
text of its figcaption. Captions are saved next to the images as
caption_<i>.txt; figures without a caption get "N/A".

Seeds come from the arguments or, when none are given, from the
configuration (crawl.seeds or IMGSCRAPER_SEEDS).`
		cmd.Example = `  # Ten images from a wiki, following same-site links
  imgscraper crawl https://en.wikipedia.org/wiki/Go_(programming_language) -n 10

  # Stay within two link hops and honour robots.txt
  imgscraper crawl https://example.com --max-depth 2 --respect-robots

  # Expose Prometheus metrics while crawling
  imgscraper crawl https://example.com --metrics-addr :9090 -v`
	}

	cmd.Flags().IntVarP(&opts.numImages, "num-images", "n", 10, "number of images to download across all seeds")
	cmd.Flags().StringVarP(&opts.outputDir, "output", "o", "scraped_images", "output directory")
	cmd.Flags().StringVar(&opts.onPageError, "on-page-error", config.OnPageErrorAbortSeed, "what to do when a page fails (abort_seed, skip_page)")
	cmd.Flags().BoolVar(&opts.respectRobots, "respect-robots", false, "skip URLs disallowed by robots.txt")
	cmd.Flags().IntVar(&opts.rateLimit, "rate-limit", 0, "requests per minute (0 disables limiting)")
	cmd.Flags().IntVar(&opts.rateBurst, "rate-burst", 0, "requests allowed at once before the rate limit applies (0 spreads them evenly)")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "HTTP request timeout")
	cmd.Flags().StringVar(&opts.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	cmd.Flags().BoolVar(&opts.tui, "tui", false, "follow the run in a full-screen terminal UI")
	if mode == modeCrawl {
		cmd.Flags().IntVar(&opts.maxPages, "max-pages", 0, "maximum pages visited per seed (0 means unlimited)")
		cmd.Flags().IntVar(&opts.maxDepth, "max-depth", 0, "maximum link depth from the seed (0 means unlimited)")
		cmd.Flags().StringVar(&opts.selector, "selector", config.DefaultFigureSelector, "CSS selector for figure elements")
	}

	return cmd
}

// buildFlags collects the flags the user actually set, so that unset
// flags do not override the config file or environment.
func buildFlags(cmd *cobra.Command, global *globalOptions, mode string, args []string) map[string]interface{} {
	flags := map[string]interface{}{"mode": mode}
	if len(args) > 0 {
		flags["seeds"] = args
	}

	changed := func(name string) bool { return cmd.Flags().Changed(name) }
	set := func(name string) {
		if !changed(name) {
			return
		}
		f := cmd.Flags().Lookup(name)
		switch f.Value.Type() {
		case "int":
			if n, err := strconv.Atoi(f.Value.String()); err == nil {
				flags[name] = n
			}
		case "bool":
			flags[name] = f.Value.String() == "true"
		case "duration":
			if d, err := time.ParseDuration(f.Value.String()); err == nil {
				flags[name] = d
			}
		default:
			flags[name] = f.Value.String()
		}
	}

	for _, name := range []string{
		"num-images", "output", "max-pages", "max-depth", "selector",
		"on-page-error", "respect-robots", "rate-limit", "rate-burst", "timeout", "metrics-addr",
		"log-level", "no-color", "quiet",
	} {
		if cmd.Flags().Lookup(name) != nil {
			set(name)
		}
	}

	if global.verbose && !changed("log-level") {
		flags["log-level"] = "debug"
	}
	return flags
}

func runScraper(cmd *cobra.Command, global *globalOptions, opts *runOptions, mode string, args []string) error {
	flags := buildFlags(cmd, global, mode, args)

	cfg, err := config.Load(global.configFile, flags)
	if err != nil {
		return err
	}

	// Logs would interleave with the console report, so keep them to
	// errors unless asked for.
	if !global.verbose && !cmd.Flags().Changed("log-level") && os.Getenv("IMGSCRAPER_LOG_LEVEL") == "" {
		cfg.Logging.Level = "error"
	}
	// The TUI owns the screen; logs only go to a file.
	if opts.tui && cfg.Logging.File == "" {
		cfg.Logging.Level = "disabled"
	}
	if err := logger.Initialize(&cfg.Logging); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.GetLogger().WithField("version", version)

	out := cmd.OutOrStdout()
	color := !cfg.Output.NoColor
	if f, ok := out.(*os.File); !ok || !ui.IsTerminal(f) {
		color = false
	}
	console := ui.NewConsole(out, color, cfg.Output.Quiet)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var reporter scraper.Reporter = console
	var view *tui.TUI
	if opts.tui {
		view = tui.New(cfg.Crawl.NumImages,
			tui.WithQuit(cancel),
			tui.WithProgramOptions(tea.WithInput(cmd.InOrStdin()), tea.WithOutput(out)),
		)
		reporter = view
	}

	s, err := scraper.New(cfg,
		scraper.WithLogger(log),
		scraper.WithReporter(reporter),
	)
	if err != nil {
		return err
	}

	if global.verbose {
		console.Info("Run", s.RunID())
		console.Info("Mode", cfg.Crawl.Mode)
		console.Info("Output", cfg.Output.BaseDirectory)
	}

	if cfg.Metrics.Enabled {
		srv := metrics.NewServer(cfg.Metrics.Addr, s.Metrics(), log)
		if err := srv.Start(); err != nil {
			return err
		}
		if global.verbose {
			console.Info("Metrics", "http://"+srv.Addr()+"/metrics")
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.WithError(err).Warn("Failed to stop metrics server")
			}
		}()
	}

	var summary *scraper.Summary
	if view != nil {
		summary, err = runWithTUI(ctx, cancel, s, view, args)
		if summary != nil {
			console.Summary(summary.Scraped, summary.OutputDir)
		}
	} else {
		summary, err = s.Run(ctx, args)
	}
	switch {
	case errors.Is(err, context.Canceled):
		console.Warning("Interrupted, partial results kept")
	case err != nil:
		return err
	}

	if global.verbose && s.Tracker() != nil {
		console.Stats(s.Tracker())
	}
	if summary != nil && len(summary.PageErrors)+len(summary.ItemErrors) > 0 {
		log.WithFields(map[string]interface{}{
			"page_errors": len(summary.PageErrors),
			"item_errors": len(summary.ItemErrors),
		}).Warn("Run finished with errors")
	}
	return nil
}

// runWithTUI runs the scraper while the TUI holds the terminal. The TUI
// returns when the run finishes or the user quits; quitting cancels the
// run, which keeps what was already saved.
func runWithTUI(ctx context.Context, cancel context.CancelFunc, s *scraper.Scraper, view *tui.TUI, args []string) (*scraper.Summary, error) {
	type result struct {
		summary *scraper.Summary
		err     error
	}
	done := make(chan result, 1)
	go func() {
		summary, err := s.Run(ctx, args)
		done <- result{summary, err}
		view.Finish()
	}()

	if err := view.Start(); err != nil {
		cancel()
		<-done
		return nil, fmt.Errorf("terminal UI failed: %w", err)
	}
	cancel()
	res := <-done
	return res.summary, res.err
}
