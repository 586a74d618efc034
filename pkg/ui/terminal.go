package ui

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
)

// Color functions for terminal output
var (
	Cyan    = colorize("\033[36m%s\033[0m")
	Yellow  = colorize("\033[33m%s\033[0m")
	Red     = colorize("\033[31m%s\033[0m")
	Green   = colorize("\033[32m%s\033[0m")
	Magenta = colorize("\033[35m%s\033[0m")
	Dim     = colorize("\033[2m%s\033[0m")
)

// colorize returns a function that wraps text with ANSI color codes
func colorize(colorString string) func(string) string {
	return func(text string) string {
		return fmt.Sprintf(colorString, text)
	}
}

func plain(text string) string { return text }

// IsTerminal reports whether f is attached to a terminal
func IsTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Console prints the user-facing report of a run. Each report line is
// written whole, so the text stays greppable with colour turned off.
type Console struct {
	out   io.Writer
	color bool
	quiet bool
	mu    sync.Mutex
}

// NewConsole creates a console writing to out
func NewConsole(out io.Writer, color, quiet bool) *Console {
	return &Console{out: out, color: color, quiet: quiet}
}

// NewStdoutConsole creates a console on stdout, coloured only on a terminal
func NewStdoutConsole(noColor, quiet bool) *Console {
	return NewConsole(os.Stdout, !noColor && IsTerminal(os.Stdout), quiet)
}

func (c *Console) paint(fn func(string) string) func(string) string {
	if c.color {
		return fn
	}
	return plain
}

func (c *Console) println(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, text)
}

// Downloaded reports a saved image. Crawl mode includes the caption.
func (c *Console) Downloaded(url, caption string, withCaption bool) {
	if c.quiet {
		return
	}
	line := fmt.Sprintf("Downloaded image: %s", url)
	if withCaption {
		line = fmt.Sprintf("Downloaded image: %s, Caption: %s", url, caption)
	}
	c.println(c.paint(Green)(line))
}

// DownloadError reports an image that could not be fetched or saved
func (c *Console) DownloadError(url string, err error) {
	c.println(c.paint(Red)(fmt.Sprintf("Error downloading image: %s, %v", url, err)))
}

// PageError reports a page failure against its seed
func (c *Console) PageError(url string, err error) {
	c.println(c.paint(Red)(fmt.Sprintf("Error scraping website: %s, %v", url, err)))
}

// Summary prints the final count
func (c *Console) Summary(n int, dir string) {
	c.println(fmt.Sprintf("Scraped %d images and saved them in %s folder.", n, dir))
}

// Info prints a labelled value
func (c *Console) Info(label, value string) {
	if c.quiet {
		return
	}
	c.println(fmt.Sprintf("%s: %s", c.paint(Cyan)(label), c.paint(Yellow)(value)))
}

// Warning prints a message in yellow
func (c *Console) Warning(msg string) {
	if c.quiet {
		return
	}
	c.println(c.paint(Yellow)(msg))
}

// Stats prints the tracker's progress line
func (c *Console) Stats(t *StatusTracker) {
	if c.quiet {
		return
	}
	c.println(fmt.Sprintf("%s %s | %.1f images/min | %s elapsed",
		c.paint(Magenta)("[QUOTA]"),
		t.GetQuotaProgress(),
		t.GetDownloadRate(),
		t.GetElapsedTime().Round(100*time.Millisecond)))
}
