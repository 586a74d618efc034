package web

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"imgscraper/pkg/config"
	"imgscraper/pkg/errors"
	"imgscraper/pkg/logger"
	"imgscraper/pkg/ratelimit"
)

const (
	acceptPage  = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
	acceptImage = "image/avif,image/webp,image/apng,image/*,*/*;q=0.8"
)

// Page is a fetched HTML document. URL is the address that was requested
// and serves as the base for resolving relative references.
type Page struct {
	URL         *url.URL
	StatusCode  int
	ContentType string
	Body        []byte
}

// Client performs the crawler's HTTP GETs
type Client struct {
	httpClient   *http.Client
	headers      map[string]string
	maxBodySize  int64
	maxImageSize int64
	limiter      ratelimit.Limiter
	logger       logger.Logger
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLimiter paces every request through l
func WithLimiter(l ratelimit.Limiter) Option {
	return func(c *Client) { c.limiter = l }
}

// NewClient creates a client from the http configuration section
func NewClient(cfg *config.HTTPConfig, log logger.Logger, opts ...Option) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	c := &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		headers: map[string]string{
			"User-Agent":      cfg.UserAgent,
			"Accept-Language": "en-US,en;q=0.9",
			"Cache-Control":   "no-cache",
		},
		maxBodySize:  cfg.MaxBodySize,
		maxImageSize: cfg.MaxImageSize,
		limiter:      ratelimit.Unlimited{},
		logger:       log,
	}
	for key, value := range cfg.Headers {
		c.SetHeader(key, value)
	}

	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetHeader sets a header sent with every request, replacing a default
// of the same name.
func (c *Client) SetHeader(key, value string) {
	c.headers[http.CanonicalHeaderKey(key)] = value
}

// HTTPClient exposes the underlying client for collaborators such as the
// robots checker.
func (c *Client) HTTPClient() *http.Client {
	return c.httpClient
}

// FetchPage GETs rawURL and returns its body. Any transport failure or
// non-2xx status is returned as an *errors.Error.
func (c *Client) FetchPage(ctx context.Context, rawURL string) (*Page, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, &errors.Error{
			Type:    errors.ErrorTypeParsing,
			Message: fmt.Sprintf("invalid URL %q: %v", rawURL, err),
		}
	}

	body, resp, err := c.get(ctx, u, acceptPage, c.maxBodySize)
	if err != nil {
		return nil, err
	}

	return &Page{
		URL:         u,
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}

// FetchImage GETs the image at rawURL and returns its bytes unchanged.
// No content-type check is made on the payload. Images are capped by
// max_image_size only, not by the page body limit.
func (c *Client) FetchImage(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, &errors.Error{
			Type:    errors.ErrorTypeParsing,
			Message: fmt.Sprintf("invalid URL %q: %v", rawURL, err),
		}
	}

	body, _, err := c.get(ctx, u, acceptImage, c.maxImageSize)
	return body, err
}

func (c *Client) get(ctx context.Context, u *url.URL, accept string, limit int64) ([]byte, *http.Response, error) {
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, nil, &errors.Error{
			Type:    errors.ErrorTypeParsing,
			Message: fmt.Sprintf("unsupported URL scheme %q", u.Scheme),
		}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, nil, &errors.Error{
			Type:    errors.ErrorTypeUnknown,
			Message: fmt.Sprintf("failed to create request: %v", err),
		}
	}
	for key, value := range c.headers {
		if value != "" {
			req.Header.Set(key, value)
		}
	}
	req.Header.Set("Accept", accept)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WithError(err).DebugWithFields("HTTP request failed", map[string]interface{}{
			"url":         u.String(),
			"duration_ms": time.Since(start).Milliseconds(),
		})
		return nil, nil, &errors.Error{
			Type:    errors.ErrorTypeNetwork,
			Message: fmt.Sprintf("network error: %v", err),
		}
	}
	defer resp.Body.Close()

	logger.LogRequest(c.logger, req.Method, u.String(), resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return nil, resp, errors.FromStatus(resp.StatusCode)
	}

	body, err := readBody(resp.Body, limit)
	if err != nil {
		return nil, resp, err
	}
	return body, resp, nil
}

func readBody(r io.Reader, limit int64) ([]byte, error) {
	if limit > 0 {
		r = io.LimitReader(r, limit+1)
	}

	body, err := io.ReadAll(r)
	if err != nil {
		return nil, &errors.Error{
			Type:    errors.ErrorTypeNetwork,
			Message: fmt.Sprintf("failed to read response body: %v", err),
		}
	}
	if limit > 0 && int64(len(body)) > limit {
		return nil, &errors.Error{
			Type:    errors.ErrorTypeIO,
			Message: fmt.Sprintf("response body exceeds %d bytes", limit),
		}
	}
	return body, nil
}
