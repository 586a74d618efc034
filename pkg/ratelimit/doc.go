// Package ratelimit provides request pacing for the crawler.
//
// Two algorithms implement the Limiter interface:
//
// Token Bucket:
//   - Fixed capacity bucket that refills after a specified period
//   - Used when rate_limit.burst is set
//
// Sliding Window:
//   - Tracks requests within a moving time window
//   - Used for the requests_per_minute setting
//
// Wait takes a context so a cancelled crawl never blocks on the limiter.
// New(0, 0) returns Unlimited, which keeps the default crawl undelayed.
//
// Usage:
//
//	limiter := ratelimit.New(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst)
//	if err := limiter.Wait(ctx); err != nil {
//	    return err
//	}
package ratelimit
