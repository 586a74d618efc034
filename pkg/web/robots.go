package web

import (
	"context"
	"net/http"
	"net/url"
	"sync"

	"github.com/temoto/robotstxt"

	"imgscraper/pkg/logger"
)

// RobotsChecker answers whether a URL may be crawled, caching one
// robots.txt group per origin. A missing or unreadable robots.txt allows
// everything.
type RobotsChecker struct {
	userAgent string
	client    *http.Client
	logger    logger.Logger

	mu    sync.RWMutex
	cache map[string]*robotstxt.Group
}

// NewRobotsChecker creates a checker that fetches robots.txt with client
func NewRobotsChecker(userAgent string, client *http.Client, log logger.Logger) *RobotsChecker {
	if client == nil {
		client = http.DefaultClient
	}
	if log == nil {
		log = logger.GetLogger()
	}
	return &RobotsChecker{
		userAgent: userAgent,
		client:    client,
		logger:    log,
		cache:     make(map[string]*robotstxt.Group),
	}
}

// Allowed reports whether u may be fetched by this user agent
func (r *RobotsChecker) Allowed(ctx context.Context, u *url.URL) bool {
	origin := u.Scheme + "://" + u.Host

	r.mu.RLock()
	group, exists := r.cache[origin]
	r.mu.RUnlock()

	if !exists {
		group = r.fetch(ctx, origin)

		r.mu.Lock()
		r.cache[origin] = group
		r.mu.Unlock()
	}

	if group == nil {
		return true
	}

	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	return group.Test(path)
}

func (r *RobotsChecker) fetch(ctx context.Context, origin string) *robotstxt.Group {
	robotsURL := origin + "/robots.txt"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil
	}
	if r.userAgent != "" {
		req.Header.Set("User-Agent", r.userAgent)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		r.logger.WithError(err).WithField("url", robotsURL).Debug("robots.txt unavailable")
		return nil
	}
	defer resp.Body.Close()

	data, err := robotstxt.FromResponse(resp)
	if err != nil {
		r.logger.WithError(err).WithField("url", robotsURL).Warn("robots.txt unparseable")
		return nil
	}

	return data.FindGroup(r.userAgent)
}
