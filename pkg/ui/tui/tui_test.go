package tui

import (
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"imgscraper/pkg/metadata"
	"imgscraper/pkg/ui"
)

func TestModel(t *testing.T) {
	model := NewModel(3, nil)
	model.Update(tea.WindowSizeMsg{Width: 160, Height: 50})

	if got := model.View(); got == "Initializing..." {
		t.Errorf("Expected a rendered view after the window size is known")
	}

	tracker := ui.NewStatusTracker(3)
	model.Update(RunStartedMsg{Tracker: tracker})
	model.Update(PageMsg{URL: "https://a.test/wiki/A", Depth: 1})
	model.Update(ImageMsg{Index: 0, URL: "https://a.test/img/a.jpg"})

	if url, depth := model.CurrentPage(); url != "https://a.test/wiki/A" || depth != 1 {
		t.Errorf("Expected current page https://a.test/wiki/A at depth 1, got %s at %d", url, depth)
	}
	if index, url := model.CurrentImage(); index != 0 || url != "https://a.test/img/a.jpg" {
		t.Errorf("Expected current image 0, got %d %s", index, url)
	}

	tracker.IncrementPages()
	tracker.IncrementDownloaded()
	model.Update(SavedMsg{Record: metadata.Record{
		Index:      0,
		SourceURL:  "https://a.test/img/a.jpg",
		Caption:    strings.Repeat("x", 60),
		HasCaption: true,
	}})

	if index, url := model.CurrentImage(); index != -1 || url != "" {
		t.Errorf("Expected no current image after save, got %d %s", index, url)
	}
	if len(model.Recent()) != 1 {
		t.Fatalf("Expected 1 recent record, got %d", len(model.Recent()))
	}
	if downloaded, _, pages := model.Counts(); downloaded != 1 || pages != 1 {
		t.Errorf("Expected 1 image and 1 page, got %d and %d", downloaded, pages)
	}

	model.Update(PageErrorMsg{URL: "https://a.test/wiki/B", Error: errors.New("status 404")})
	logs := model.Logs()
	if last := logs[len(logs)-1]; last.Level != LevelError || !strings.Contains(last.Message, "wiki/B") {
		t.Errorf("Expected a page error log, got %+v", last)
	}

	view := model.View()
	for _, want := range []string{"Images:", "1/3", "Pages visited:", "https://a.test/wiki/A", "image_0", strings.Repeat("x", 37) + "..."} {
		if !strings.Contains(view, want) {
			t.Errorf("Expected view to contain %q", want)
		}
	}
	if strings.Contains(view, strings.Repeat("x", 38)) {
		t.Errorf("Expected caption to be truncated in the view")
	}
}

func TestRecentIsBounded(t *testing.T) {
	model := NewModel(10, nil)
	for i := 0; i < maxRecent+3; i++ {
		model.Update(SavedMsg{Record: metadata.Record{Index: i}})
	}

	recent := model.Recent()
	if len(recent) != maxRecent {
		t.Fatalf("Expected %d recent records, got %d", maxRecent, len(recent))
	}
	if recent[0].Index != 3 {
		t.Errorf("Expected oldest kept record to be 3, got %d", recent[0].Index)
	}
}

func TestLogMessagesAreBounded(t *testing.T) {
	model := NewModel(1, nil)
	for i := 0; i < maxLogMessages+10; i++ {
		model.Update(LogMsg{Level: LevelInfo, Message: "tick"})
	}
	if len(model.Logs()) != maxLogMessages {
		t.Errorf("Expected %d log messages, got %d", maxLogMessages, len(model.Logs()))
	}

	model.Update(tea.KeyMsg{Type: tea.KeyCtrlL})
	if len(model.Logs()) != 0 {
		t.Errorf("Expected ctrl+l to clear the log, got %d messages", len(model.Logs()))
	}
}

func TestQuitKeyStopsRun(t *testing.T) {
	stopped := false
	model := NewModel(1, func() { stopped = true })

	_, cmd := model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if !stopped {
		t.Errorf("Expected quit callback to be called")
	}
	if cmd == nil {
		t.Fatalf("Expected a quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Errorf("Expected tea.QuitMsg")
	}
}

func TestDoneQuits(t *testing.T) {
	model := NewModel(1, nil)
	_, cmd := model.Update(DoneMsg{})
	if !model.Done() {
		t.Errorf("Expected model to be done")
	}
	if cmd == nil {
		t.Fatalf("Expected a quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Errorf("Expected tea.QuitMsg")
	}
}

func TestTUIFollowsRun(t *testing.T) {
	view := New(2, WithProgramOptions(
		tea.WithInput(nil),
		tea.WithOutput(io.Discard),
		tea.WithoutSignalHandler(),
	))

	errc := make(chan error, 1)
	go func() { errc <- view.Start() }()

	tracker := ui.NewStatusTracker(2)
	view.RunStarted(tracker)
	view.Visiting("https://a.test/wiki/A", 0)
	view.Fetching(0, "https://a.test/img/a.jpg")
	tracker.IncrementDownloaded()
	view.Saved(metadata.Record{Index: 0, Caption: "First", HasCaption: true})
	view.DownloadError("https://a.test/img/b.jpg", errors.New("status 500"))
	view.Summary(1, "out")
	view.Finish()

	select {
	case err := <-errc:
		if err != nil {
			t.Fatalf("Start returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("TUI did not stop after Finish")
	}

	model := view.Model()
	if !model.Done() {
		t.Errorf("Expected model to be done")
	}
	if model.Summary() != "Scraped 1 images and saved them in out folder." {
		t.Errorf("Unexpected summary: %q", model.Summary())
	}
	if downloaded, _, _ := model.Counts(); downloaded != 1 {
		t.Errorf("Expected 1 downloaded, got %d", downloaded)
	}

	// Calls after the program exited must not block.
	view.Visiting("https://a.test/wiki/B", 1)
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{-time.Second, "00:00"},
		{75 * time.Second, "01:15"},
		{2*time.Hour + 3*time.Minute + 4*time.Second, "02:03:04"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.in); got != tt.want {
			t.Errorf("formatDuration(%v) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("Expected short string unchanged, got %s", got)
	}
	if got := truncate("héllo wörld", 8); got != "héllo..." {
		t.Errorf("Expected rune-aware truncation, got %s", got)
	}
}
