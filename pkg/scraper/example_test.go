package scraper_test

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"

	"imgscraper/pkg/config"
	"imgscraper/pkg/logger"
	"imgscraper/pkg/scraper"
)

func ExampleScraper_Run() {
	mux := http.NewServeMux()
	mux.HandleFunc("/wiki/Home", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `<figure class="mw-default-size mw-halign-right" typeof="mw:File/Thumb">
			<img src="/logo.png"><figcaption>Project logo</figcaption></figure>`)
	})
	mux.HandleFunc("/logo.png", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "png bytes")
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	dir, _ := os.MkdirTemp("", "imgscraper-example")
	defer os.RemoveAll(dir)

	cfg := config.DefaultConfig()
	cfg.Crawl.NumImages = 1
	cfg.Output.BaseDirectory = filepath.Join(dir, "out")
	cfg.Output.WriteManifest = false

	var report discardURLs
	s, err := scraper.New(cfg,
		scraper.WithLogger(logger.NewNopLogger()),
		scraper.WithReporter(&report),
	)
	if err != nil {
		fmt.Println(err)
		return
	}

	summary, err := s.Run(context.Background(), []string{server.URL + "/wiki/Home"})
	if err != nil {
		fmt.Println(err)
		return
	}

	caption, _ := os.ReadFile(filepath.Join(cfg.Output.BaseDirectory, "caption_0.txt"))
	fmt.Println(summary.Scraped, string(caption))
	// Output: 1 Project logo
}

// discardURLs is a Reporter that hides the server's random port
type discardURLs struct{}

func (*discardURLs) Downloaded(url, caption string, withCaption bool) {}

func (*discardURLs) DownloadError(url string, err error) {}

func (*discardURLs) PageError(url string, err error) {}

func (*discardURLs) Summary(n int, dir string) {}
