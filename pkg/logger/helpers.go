package logger

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// LogRequest logs HTTP request information at a level matching the status.
func LogRequest(l Logger, method, url string, statusCode int, duration time.Duration) {
	fields := map[string]interface{}{
		"method":      method,
		"url":         url,
		"status_code": statusCode,
		"duration_ms": duration.Milliseconds(),
	}

	switch {
	case statusCode >= 500:
		l.ErrorWithFields("HTTP request server error", fields)
	case statusCode >= 400:
		l.WarnWithFields("HTTP request client error", fields)
	default:
		l.DebugWithFields("HTTP request completed", fields)
	}
}

// LogDownload logs the outcome of a single media download
func LogDownload(l Logger, index int, sourceURL string, err error) {
	entry := l.WithFields(map[string]interface{}{
		"index":  index,
		"source": sourceURL,
	})

	if err != nil {
		entry.WithError(err).Error("Download failed")
		return
	}
	entry.Info("Download completed")
}

// LogCrawlProgress logs quota progress for a seed
func LogCrawlProgress(l Logger, seed string, scraped, quota, frontier int) {
	percentage := 0.0
	if quota > 0 {
		percentage = float64(scraped) / float64(quota) * 100
	}

	l.WithFields(map[string]interface{}{
		"seed":       seed,
		"scraped":    scraped,
		"quota":      quota,
		"frontier":   frontier,
		"percentage": fmt.Sprintf("%.1f%%", percentage),
	}).Debug("Crawl progress")
}

// LogComponentStart logs when a component starts
func LogComponentStart(l Logger, component string, settings map[string]interface{}) {
	entry := l.WithField("component", component)
	if len(settings) > 0 {
		entry = entry.WithFields(settings)
	}
	entry.Info("Component started")
}

// LogComponentStop logs when a component stops
func LogComponentStop(l Logger, component string, reason string) {
	l.WithFields(map[string]interface{}{
		"component": component,
		"reason":    reason,
	}).Info("Component stopped")
}

// NewNopLogger creates a no-operation logger for testing
func NewNopLogger() Logger {
	return &nopLogger{}
}

type nopLogger struct{}

func (n *nopLogger) Debug(msg string)                                          {}
func (n *nopLogger) Info(msg string)                                           {}
func (n *nopLogger) Warn(msg string)                                           {}
func (n *nopLogger) Error(msg string)                                          {}
func (n *nopLogger) Fatal(msg string)                                          {}
func (n *nopLogger) WithField(key string, value interface{}) Logger            { return n }
func (n *nopLogger) WithFields(fields map[string]interface{}) Logger           { return n }
func (n *nopLogger) WithError(err error) Logger                                { return n }
func (n *nopLogger) WithContext(ctx context.Context) Logger                    { return n }
func (n *nopLogger) DebugWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) InfoWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) WarnWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) ErrorWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) FatalWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) GetZerolog() *zerolog.Logger                               { return nil }
