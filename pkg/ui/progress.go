package ui

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

const (
	ProgressBar   = "█"
	ProgressEmpty = "░"
)

// StatusTracker keeps track of progress towards the image quota
type StatusTracker struct {
	Quota      int
	Downloaded int
	Failed     int
	Pages      int
	StartTime  time.Time
	mu         sync.Mutex
}

// NewStatusTracker creates a tracker for the given quota
func NewStatusTracker(quota int) *StatusTracker {
	return &StatusTracker{
		Quota:     quota,
		StartTime: time.Now(),
	}
}

// IncrementDownloaded counts a saved image
func (st *StatusTracker) IncrementDownloaded() {
	st.mu.Lock()
	st.Downloaded++
	st.mu.Unlock()
}

// IncrementFailed counts a failed item
func (st *StatusTracker) IncrementFailed() {
	st.mu.Lock()
	st.Failed++
	st.mu.Unlock()
}

// IncrementPages counts a visited page
func (st *StatusTracker) IncrementPages() {
	st.mu.Lock()
	st.Pages++
	st.mu.Unlock()
}

// Counts returns the downloaded, failed and page counters at once
func (st *StatusTracker) Counts() (downloaded, failed, pages int) {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.Downloaded, st.Failed, st.Pages
}

// GetQuotaProgress returns a formatted progress bar for the quota
func (st *StatusTracker) GetQuotaProgress() string {
	const width = 20
	st.mu.Lock()
	done, quota := st.Downloaded, st.Quota
	st.mu.Unlock()

	filled := width
	if quota > 0 {
		filled = done * width / quota
	}
	if filled > width {
		filled = width
	}

	bar := strings.Repeat(ProgressBar, filled) +
		strings.Repeat(ProgressEmpty, width-filled)

	return fmt.Sprintf("[%s] %d/%d", bar, done, quota)
}

// GetElapsedTime returns the elapsed time since tracking started
func (st *StatusTracker) GetElapsedTime() time.Duration {
	return time.Since(st.StartTime)
}

// GetDownloadRate returns the average download rate (items per minute)
func (st *StatusTracker) GetDownloadRate() float64 {
	elapsed := st.GetElapsedTime().Minutes()
	if elapsed == 0 {
		return 0
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	return float64(st.Downloaded) / elapsed
}

// IsQuotaReached reports whether the quota has been met
func (st *StatusTracker) IsQuotaReached() bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.Downloaded >= st.Quota
}
