package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"imgscraper/pkg/metadata"
	"imgscraper/pkg/ui"
)

// TUI is a full-screen view of a running crawl. It implements the
// scraper's progress reporter; every call is forwarded to the program as
// a message.
type TUI struct {
	program *tea.Program
	model   *Model
}

type options struct {
	onQuit  func()
	program []tea.ProgramOption
}

// Option configures a TUI
type Option func(*options)

// WithQuit sets the function called when the user stops the crawl
func WithQuit(fn func()) Option {
	return func(o *options) { o.onQuit = fn }
}

// WithProgramOptions appends bubbletea program options
func WithProgramOptions(opts ...tea.ProgramOption) Option {
	return func(o *options) { o.program = append(o.program, opts...) }
}

// New creates a TUI for a run with the given image quota
func New(quota int, opts ...Option) *TUI {
	o := options{program: []tea.ProgramOption{tea.WithAltScreen()}}
	for _, opt := range opts {
		opt(&o)
	}

	model := NewModel(quota, o.onQuit)
	return &TUI{
		program: tea.NewProgram(model, o.program...),
		model:   model,
	}
}

// Start runs the program until the run finishes or the user quits
func (t *TUI) Start() error {
	_, err := t.program.Run()
	return err
}

// Stop stops the TUI
func (t *TUI) Stop() {
	t.program.Quit()
}

// Send sends a message to the TUI. It is a no-op once the program exited.
func (t *TUI) Send(msg tea.Msg) {
	if t.program != nil {
		t.program.Send(msg)
	}
}

// Finish marks the run as done and closes the program
func (t *TUI) Finish() {
	t.Send(DoneMsg{})
}

// Model returns the underlying model. Read it only after Start returned.
func (t *TUI) Model() *Model {
	return t.model
}

// Log sends a log message to the TUI
func (t *TUI) Log(level, format string, args ...interface{}) {
	t.Send(LogMsg{Level: level, Message: fmt.Sprintf(format, args...)})
}

// RunStarted hands the run's tracker to the view
func (t *TUI) RunStarted(tracker *ui.StatusTracker) {
	t.Send(RunStartedMsg{Tracker: tracker})
}

// Visiting shows the page about to be fetched
func (t *TUI) Visiting(url string, depth int) {
	t.Send(PageMsg{URL: url, Depth: depth})
}

// Fetching shows the image about to be fetched
func (t *TUI) Fetching(index int, url string) {
	t.Send(ImageMsg{Index: index, URL: url})
}

// Saved adds a written record to the recent panel
func (t *TUI) Saved(rec metadata.Record) {
	t.Send(SavedMsg{Record: rec})
}

// Downloaded is covered by Saved, which carries the full record
func (t *TUI) Downloaded(url, caption string, withCaption bool) {}

// DownloadError logs an image failure
func (t *TUI) DownloadError(url string, err error) {
	t.Send(DownloadErrorMsg{URL: url, Error: err})
}

// PageError logs a page failure
func (t *TUI) PageError(url string, err error) {
	t.Send(PageErrorMsg{URL: url, Error: err})
}

// Summary records the final summary line
func (t *TUI) Summary(n int, dir string) {
	t.Send(SummaryMsg{Count: n, Dir: dir})
}
