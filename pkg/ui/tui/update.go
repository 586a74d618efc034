package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"imgscraper/pkg/metadata"
	"imgscraper/pkg/ui"
)

// RunStartedMsg hands the run's tracker to the model
type RunStartedMsg struct {
	Tracker *ui.StatusTracker
}

// PageMsg is sent when a page is about to be fetched
type PageMsg struct {
	URL   string
	Depth int
}

// ImageMsg is sent when an image is about to be fetched
type ImageMsg struct {
	Index int
	URL   string
}

// SavedMsg is sent when a record has been written
type SavedMsg struct {
	Record metadata.Record
}

// DownloadErrorMsg is sent when an image could not be saved
type DownloadErrorMsg struct {
	URL   string
	Error error
}

// PageErrorMsg is sent when a page could not be fetched
type PageErrorMsg struct {
	URL   string
	Error error
}

// SummaryMsg carries the final count and output directory
type SummaryMsg struct {
	Count int
	Dir   string
}

// DoneMsg ends the program once the run has returned
type DoneMsg struct{}

// LogMsg is sent to add a log message
type LogMsg struct {
	Level   string
	Message string
}

// TickMsg is sent periodically to refresh elapsed time and rate
type TickMsg time.Time

// Update handles all messages and updates the model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case TickMsg:
		if m.done {
			return m, nil
		}
		return m, tickCmd()

	case RunStartedMsg:
		m.tracker = msg.Tracker
		m.addLog(LevelInfo, fmt.Sprintf("Run started, quota %d images", m.quota))
		return m, nil

	case PageMsg:
		m.currentPage = msg.URL
		m.currentDepth = msg.Depth
		return m, nil

	case ImageMsg:
		m.currentIndex = msg.Index
		m.currentImage = msg.URL
		return m, nil

	case SavedMsg:
		m.addRecord(msg.Record)
		m.addLog(LevelSuccess, fmt.Sprintf("Saved image_%d.jpg", msg.Record.Index))
		return m, nil

	case DownloadErrorMsg:
		m.currentIndex, m.currentImage = -1, ""
		m.addLog(LevelError, fmt.Sprintf("Error downloading image: %s, %v", msg.URL, msg.Error))
		return m, nil

	case PageErrorMsg:
		m.addLog(LevelError, fmt.Sprintf("Error scraping website: %s, %v", msg.URL, msg.Error))
		return m, nil

	case SummaryMsg:
		m.summary = fmt.Sprintf("Scraped %d images and saved them in %s folder.", msg.Count, msg.Dir)
		m.addLog(LevelInfo, m.summary)
		return m, nil

	case LogMsg:
		m.addLog(msg.Level, msg.Message)
		return m, nil

	case DoneMsg:
		m.done = true
		m.currentIndex, m.currentImage = -1, ""
		return m, tea.Quit
	}

	return m, nil
}

// handleKeyPress handles keyboard input
func (m *Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "Q", "ctrl+c":
		if m.onQuit != nil {
			m.onQuit()
		}
		m.addLog(LevelWarn, "Stopped by user, partial results kept")
		return m, tea.Quit

	case "?":
		m.showHelp = !m.showHelp
		return m, nil

	case "ctrl+l":
		m.logMessages = nil
		return m, nil
	}

	return m, nil
}

// tickCmd returns a command that sends a tick message
func tickCmd() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}
