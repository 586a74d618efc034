// Package logger provides a structured logging interface for imgscraper.
//
// It wraps zerolog behind the Logger interface:
//   - levelled logging (Debug, Info, Warn, Error, Fatal)
//   - structured fields via WithField/WithFields/WithError
//   - coloured console output on stderr, optional file output
//   - a process-wide logger through Initialize/GetLogger
//
// Basic usage:
//
//	if err := logger.Initialize(&cfg.Logging); err != nil {
//	    return err
//	}
//	logger.WithField("seed", seed).Info("Crawl started")
//
// Tests should use NewNopLogger or NewTestLogger, which captures messages
// for assertions.
package logger
