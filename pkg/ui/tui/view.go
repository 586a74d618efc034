package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

const captionWidth = 40

// View renders the entire TUI
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	var sections []string
	sections = append(sections, m.renderHeader())

	width := (m.width - 4) / 2
	left := lipgloss.JoinVertical(lipgloss.Left,
		m.renderStatsPanel(width),
		m.renderCurrentPanel(width),
	)
	right := lipgloss.JoinVertical(lipgloss.Left,
		m.renderRecentPanel(width),
		m.renderLogsPanel(width),
	)
	sections = append(sections, lipgloss.JoinHorizontal(lipgloss.Top, left, "  ", right))

	if m.showHelp {
		sections = append(sections, m.renderHelp())
	} else {
		sections = append(sections, helpStyle.Render("Press ? for help, q to stop"))
	}

	return baseStyle.Width(m.width).Height(m.height).Render(
		lipgloss.JoinVertical(lipgloss.Left, sections...),
	)
}

func (m *Model) renderHeader() string {
	status := m.spinner.View() + " crawling"
	if m.done {
		status = successStyle.Render("done")
	}
	return headerStyle.Render("imgscraper  " + status)
}

// renderStatsPanel renders quota progress and run counters
func (m *Model) renderStatsPanel(width int) string {
	title := titleStyle.Render(" QUOTA ")

	downloaded, failed, pages := m.Counts()
	var elapsed time.Duration
	var rate float64
	if m.tracker != nil {
		elapsed = m.tracker.GetElapsedTime()
		rate = m.tracker.GetDownloadRate()
	}

	m.bar.Width = max(width-4, 10)
	stats := []string{
		fmt.Sprintf("%s %s", statsLabelStyle.Render("Images:"), statsValueStyle.Render(fmt.Sprintf("%d/%d", downloaded, m.quota))),
		m.bar.ViewAs(m.quotaFraction()),
		fmt.Sprintf("%s %s", statsLabelStyle.Render("Pages visited:"), statsValueStyle.Render(fmt.Sprintf("%d", pages))),
		fmt.Sprintf("%s %s", statsLabelStyle.Render("Failed:"), statsValueStyle.Render(fmt.Sprintf("%d", failed))),
		fmt.Sprintf("%s %s", statsLabelStyle.Render("Elapsed:"), statsValueStyle.Render(formatDuration(elapsed))),
		fmt.Sprintf("%s %s", statsLabelStyle.Render("Rate:"), statsValueStyle.Render(fmt.Sprintf("%.1f img/min", rate))),
	}

	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, strings.Join(stats, "\n")),
	)
}

// renderCurrentPanel renders the page and image being fetched
func (m *Model) renderCurrentPanel(width int) string {
	title := titleStyle.Render(" CURRENT ")

	page := dimStyle.Render("none")
	if m.currentPage != "" {
		page = statsValueStyle.Render(truncate(m.currentPage, width-4)) +
			dimStyle.Render(fmt.Sprintf(" (depth %d)", m.currentDepth))
	}
	image := dimStyle.Render("none")
	if m.currentImage != "" {
		image = statsValueStyle.Render(truncate(fmt.Sprintf("#%d %s", m.currentIndex, m.currentImage), width-4))
	}

	content := []string{
		statsLabelStyle.Render("Page:"), page,
		statsLabelStyle.Render("Image:"), image,
	}
	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, strings.Join(content, "\n")),
	)
}

// renderRecentPanel renders the last saved records with their captions
func (m *Model) renderRecentPanel(width int) string {
	title := titleStyle.Render(" RECENT ")

	if len(m.recent) == 0 {
		return panelStyle.Width(width).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, dimStyle.Render("Nothing saved yet")),
		)
	}

	var items []string
	for i := range m.recent {
		rec := &m.recent[i]
		caption := dimStyle.Render("(no caption)")
		if rec.HasCaption {
			caption = rec.GetFormattedCaption(captionWidth)
		}
		items = append(items, fmt.Sprintf("%s %s", successStyle.Render(fmt.Sprintf("image_%d", rec.Index)), caption))
	}

	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, strings.Join(items, "\n")),
	)
}

// renderLogsPanel renders the logs panel
func (m *Model) renderLogsPanel(width int) string {
	title := titleStyle.Render(" LOG ")

	start := len(m.logMessages) - 10
	if start < 0 {
		start = 0
	}

	var logs []string
	for _, log := range m.logMessages[start:] {
		timestamp := logTimestampStyle.Render(log.Time.Format("15:04:05"))
		level := lipgloss.NewStyle().Foreground(levelColor(log.Level)).Bold(true).Render(fmt.Sprintf("[%-7s]", log.Level))
		logs = append(logs, fmt.Sprintf("%s %s %s", timestamp, level, truncate(log.Message, width-25)))
	}

	content := strings.Join(logs, "\n")
	if content == "" {
		content = dimStyle.Render("No logs yet...")
	}

	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, content),
	)
}

// renderHelp renders the help panel
func (m *Model) renderHelp() string {
	help := `
  Keys:
    q/Q, ctrl+c  - Stop the crawl, keeping what was saved
    ctrl+l       - Clear the log
    ?            - Toggle this help

  Status:
    ` + successStyle.Render("Green") + `    - Saved
    ` + warningStyle.Render("Orange") + `   - Warning
    ` + lipgloss.NewStyle().Foreground(errorRed).Render("Red") + `      - Page or image error
`
	return panelStyle.Width(m.width).Render(help)
}

// truncate shortens s to at most n runes
func truncate(s string, n int) string {
	if n < 4 {
		n = 4
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	if d < 0 {
		return "00:00"
	}

	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60

	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
