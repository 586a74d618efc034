package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"imgscraper/pkg/metadata"
	"imgscraper/pkg/ui"
)

// Log levels shown in the log panel
const (
	LevelInfo    = "INFO"
	LevelSuccess = "SUCCESS"
	LevelWarn    = "WARN"
	LevelError   = "ERROR"
)

const (
	maxRecent      = 5
	maxLogMessages = 50
)

// LogMessage represents a log entry
type LogMessage struct {
	Time    time.Time
	Level   string
	Message string
}

// Model is the bubbletea model of a running crawl. It is only mutated
// from Update, on the program's goroutine.
type Model struct {
	spinner spinner.Model
	bar     progress.Model

	quota   int
	tracker *ui.StatusTracker

	currentPage  string
	currentDepth int
	currentImage string
	currentIndex int

	recent      []metadata.Record
	logMessages []LogMessage
	summary     string
	done        bool

	width    int
	height   int
	showHelp bool
	onQuit   func()
}

// NewModel creates a model for a run with the given image quota. onQuit,
// if set, is called when the user leaves the UI.
func NewModel(quota int, onQuit func()) *Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(neonCyan)

	return &Model{
		spinner:      s,
		bar:          progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		quota:        quota,
		currentIndex: -1,
		onQuit:       onQuit,
	}
}

// Init starts the spinner
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tickCmd())
}

// Counts returns the saved, failed and visited-page counters
func (m *Model) Counts() (downloaded, failed, pages int) {
	if m.tracker == nil {
		return 0, 0, 0
	}
	return m.tracker.Counts()
}

// CurrentPage returns the page being crawled and its link depth
func (m *Model) CurrentPage() (string, int) {
	return m.currentPage, m.currentDepth
}

// CurrentImage returns the index and URL of the image being fetched, or
// -1 and "" between images.
func (m *Model) CurrentImage() (int, string) {
	return m.currentIndex, m.currentImage
}

// Recent returns the last saved records, oldest first
func (m *Model) Recent() []metadata.Record {
	return m.recent
}

// Logs returns the retained log messages
func (m *Model) Logs() []LogMessage {
	return m.logMessages
}

// Summary returns the final summary line once the run has reported it
func (m *Model) Summary() string {
	return m.summary
}

// Done reports whether the run has finished
func (m *Model) Done() bool {
	return m.done
}

func (m *Model) addRecord(rec metadata.Record) {
	m.recent = append(m.recent, rec)
	if len(m.recent) > maxRecent {
		m.recent = m.recent[len(m.recent)-maxRecent:]
	}
	if rec.Index == m.currentIndex {
		m.currentIndex, m.currentImage = -1, ""
	}
}

func (m *Model) addLog(level, message string) {
	m.logMessages = append(m.logMessages, LogMessage{
		Time:    time.Now(),
		Level:   level,
		Message: message,
	})
	if len(m.logMessages) > maxLogMessages {
		m.logMessages = m.logMessages[len(m.logMessages)-maxLogMessages:]
	}
}

// quotaFraction returns progress towards the quota in [0, 1]
func (m *Model) quotaFraction() float64 {
	downloaded, _, _ := m.Counts()
	if m.quota <= 0 {
		return 1
	}
	f := float64(downloaded) / float64(m.quota)
	if f > 1 {
		f = 1
	}
	return f
}
