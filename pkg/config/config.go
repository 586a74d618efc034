package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Crawl modes
const (
	ModeCrawl = "crawl" // breadth-first same-origin crawl over figure elements
	ModePage  = "page"  // every <img> on each seed page, no traversal
)

// Page error policies
const (
	OnPageErrorAbortSeed = "abort_seed"
	OnPageErrorSkipPage  = "skip_page"
)

// DefaultFigureSelector matches right-aligned thumbnail figures as rendered by MediaWiki.
const DefaultFigureSelector = `figure.mw-default-size.mw-halign-right[typeof="mw:File/Thumb"]`

// Config holds all configuration options for the image scraper
type Config struct {
	// What to fetch and how far to go
	Crawl CrawlConfig `yaml:"crawl" json:"crawl"`

	// HTTP client settings
	HTTP HTTPConfig `yaml:"http" json:"http"`

	// Output settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Media extraction
	Extraction ExtractionConfig `yaml:"extraction" json:"extraction"`

	// Visited-set backend
	Frontier FrontierConfig `yaml:"frontier" json:"frontier"`

	// Rate limiting configuration
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Prometheus endpoint
	Metrics MetricsConfig `yaml:"metrics" json:"metrics"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// CrawlConfig holds the run inputs and traversal bounds
type CrawlConfig struct {
	Mode          string   `yaml:"mode" json:"mode"`
	NumImages     int      `yaml:"num_images" json:"num_images"`
	Seeds         []string `yaml:"seeds" json:"seeds"`
	MaxPages      int      `yaml:"max_pages" json:"max_pages"` // per seed, 0 means unlimited
	MaxDepth      int      `yaml:"max_depth" json:"max_depth"` // 0 means unlimited
	OnPageError   string   `yaml:"on_page_error" json:"on_page_error"`
	RespectRobots bool     `yaml:"respect_robots" json:"respect_robots"`
}

// HTTPConfig holds HTTP client configuration
type HTTPConfig struct {
	UserAgent    string            `yaml:"user_agent" json:"user_agent"`
	Headers      map[string]string `yaml:"headers,omitempty" json:"headers,omitempty"` // extra request headers
	Timeout      time.Duration     `yaml:"timeout" json:"timeout"`
	MaxBodySize  int64             `yaml:"max_body_size" json:"max_body_size"`   // HTML pages, 0 means no cap
	MaxImageSize int64             `yaml:"max_image_size" json:"max_image_size"` // images, 0 means no cap
}

// OutputConfig holds output directory configuration
type OutputConfig struct {
	BaseDirectory string `yaml:"base_directory" json:"base_directory"`
	WriteManifest bool   `yaml:"write_manifest" json:"write_manifest"`
	NoColor       bool   `yaml:"no_color" json:"no_color"`
	Quiet         bool   `yaml:"quiet" json:"quiet"`
}

// ExtractionConfig holds media extraction configuration
type ExtractionConfig struct {
	FigureSelector string `yaml:"figure_selector" json:"figure_selector"`
	MissingCaption string `yaml:"missing_caption" json:"missing_caption"`
}

// FrontierConfig holds visited-set configuration
type FrontierConfig struct {
	Backend   string        `yaml:"backend" json:"backend"`
	RedisAddr string        `yaml:"redis_addr" json:"redis_addr"`
	KeyPrefix string        `yaml:"key_prefix" json:"key_prefix"`
	TTL       time.Duration `yaml:"ttl" json:"ttl"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute" json:"requests_per_minute"` // 0 disables limiting
	Burst             int `yaml:"burst" json:"burst"`                             // >0 selects a token bucket of this size
}

// MetricsConfig holds the metrics endpoint configuration
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Addr    string `yaml:"addr" json:"addr"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Crawl: CrawlConfig{
			Mode:        ModeCrawl,
			NumImages:   10,
			MaxPages:    0,
			MaxDepth:    0,
			OnPageError: OnPageErrorAbortSeed,
		},
		HTTP: HTTPConfig{
			UserAgent:   "imgscraper/1.0 (+https://github.com/imgscraper/imgscraper)",
			Timeout:     30 * time.Second,
			MaxBodySize: 20 * 1024 * 1024,
		},
		Output: OutputConfig{
			BaseDirectory: "scraped_images",
			WriteManifest: true,
		},
		Extraction: ExtractionConfig{
			FigureSelector: DefaultFigureSelector,
			MissingCaption: "N/A",
		},
		Frontier: FrontierConfig{
			Backend:   "memory",
			RedisAddr: "localhost:6379",
			KeyPrefix: "imgscraper",
			TTL:       24 * time.Hour,
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 0,
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Addr:    ":9090",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	var errs []error

	if mode := os.Getenv("IMGSCRAPER_MODE"); mode != "" {
		c.Crawl.Mode = mode
	}
	if n := os.Getenv("IMGSCRAPER_NUM_IMAGES"); n != "" {
		val, err := strconv.Atoi(n)
		if err != nil {
			errs = append(errs, fmt.Errorf("IMGSCRAPER_NUM_IMAGES: %w", err))
		} else {
			c.Crawl.NumImages = val
		}
	}
	if seeds := os.Getenv("IMGSCRAPER_SEEDS"); seeds != "" {
		c.Crawl.Seeds = splitList(seeds)
	}
	if maxPages := os.Getenv("IMGSCRAPER_MAX_PAGES"); maxPages != "" {
		val, err := strconv.Atoi(maxPages)
		if err != nil {
			errs = append(errs, fmt.Errorf("IMGSCRAPER_MAX_PAGES: %w", err))
		} else {
			c.Crawl.MaxPages = val
		}
	}
	if ua := os.Getenv("IMGSCRAPER_USER_AGENT"); ua != "" {
		c.HTTP.UserAgent = ua
	}
	if timeout := os.Getenv("IMGSCRAPER_TIMEOUT"); timeout != "" {
		d, err := time.ParseDuration(timeout)
		if err != nil {
			errs = append(errs, fmt.Errorf("IMGSCRAPER_TIMEOUT: %w", err))
		} else {
			c.HTTP.Timeout = d
		}
	}
	if outputDir := os.Getenv("IMGSCRAPER_OUTPUT_DIR"); outputDir != "" {
		c.Output.BaseDirectory = outputDir
	}
	if selector := os.Getenv("IMGSCRAPER_FIGURE_SELECTOR"); selector != "" {
		c.Extraction.FigureSelector = selector
	}
	if backend := os.Getenv("IMGSCRAPER_FRONTIER_BACKEND"); backend != "" {
		c.Frontier.Backend = backend
	}
	if addr := os.Getenv("IMGSCRAPER_REDIS_ADDR"); addr != "" {
		c.Frontier.RedisAddr = addr
	}
	if rpm := os.Getenv("IMGSCRAPER_REQUESTS_PER_MINUTE"); rpm != "" {
		val, err := strconv.Atoi(rpm)
		if err != nil {
			errs = append(errs, fmt.Errorf("IMGSCRAPER_REQUESTS_PER_MINUTE: %w", err))
		} else {
			c.RateLimit.RequestsPerMinute = val
		}
	}
	if burst := os.Getenv("IMGSCRAPER_RATE_LIMIT_BURST"); burst != "" {
		val, err := strconv.Atoi(burst)
		if err != nil {
			errs = append(errs, fmt.Errorf("IMGSCRAPER_RATE_LIMIT_BURST: %w", err))
		} else {
			c.RateLimit.Burst = val
		}
	}
	if addr := os.Getenv("IMGSCRAPER_METRICS_ADDR"); addr != "" {
		c.Metrics.Enabled = true
		c.Metrics.Addr = addr
	}
	if logLevel := os.Getenv("IMGSCRAPER_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}

	return errors.Join(errs...)
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		".imgscraper.yaml",
		".imgscraper.yml",
		filepath.Join(home, ".config", "imgscraper", "config.yaml"),
		filepath.Join(home, ".config", "imgscraper", "config.yml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	switch c.Crawl.Mode {
	case ModeCrawl, ModePage:
	default:
		errs = append(errs, fmt.Errorf("unknown crawl mode %q", c.Crawl.Mode))
	}
	if c.Crawl.NumImages < 0 {
		errs = append(errs, errors.New("num images cannot be negative"))
	}
	if c.Crawl.MaxPages < 0 {
		errs = append(errs, errors.New("max pages cannot be negative"))
	}
	if c.Crawl.MaxDepth < 0 {
		errs = append(errs, errors.New("max depth cannot be negative"))
	}
	switch c.Crawl.OnPageError {
	case OnPageErrorAbortSeed, OnPageErrorSkipPage:
	default:
		errs = append(errs, fmt.Errorf("unknown page error policy %q", c.Crawl.OnPageError))
	}

	if c.HTTP.Timeout < 0 {
		errs = append(errs, errors.New("http timeout cannot be negative"))
	}
	if c.HTTP.MaxBodySize < 0 {
		errs = append(errs, errors.New("max body size cannot be negative"))
	}
	if c.HTTP.MaxImageSize < 0 {
		errs = append(errs, errors.New("max image size cannot be negative"))
	}

	if c.Output.BaseDirectory == "" {
		errs = append(errs, errors.New("output directory is required"))
	}
	if c.Crawl.Mode == ModeCrawl && strings.TrimSpace(c.Extraction.FigureSelector) == "" {
		errs = append(errs, errors.New("figure selector is required in crawl mode"))
	}
	// An empty marker would be indistinguishable from an empty figcaption.
	if strings.TrimSpace(c.Extraction.MissingCaption) == "" {
		errs = append(errs, errors.New("missing caption marker cannot be empty"))
	}

	switch c.Frontier.Backend {
	case "memory":
	case "redis":
		if c.Frontier.RedisAddr == "" {
			errs = append(errs, errors.New("redis address is required for the redis frontier"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown frontier backend %q", c.Frontier.Backend))
	}

	if c.RateLimit.RequestsPerMinute < 0 {
		errs = append(errs, errors.New("requests per minute cannot be negative"))
	}
	if c.RateLimit.Burst < 0 {
		errs = append(errs, errors.New("rate limit burst cannot be negative"))
	}
	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		errs = append(errs, errors.New("metrics address is required when metrics are enabled"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "disabled": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	return errors.Join(errs...)
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration.
// Only flags present in the map are applied.
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if mode, ok := flags["mode"].(string); ok && mode != "" {
		c.Crawl.Mode = mode
	}
	if n, ok := flags["num-images"].(int); ok {
		c.Crawl.NumImages = n
	}
	if seeds, ok := flags["seeds"].([]string); ok && len(seeds) > 0 {
		c.Crawl.Seeds = seeds
	}
	if maxPages, ok := flags["max-pages"].(int); ok {
		c.Crawl.MaxPages = maxPages
	}
	if maxDepth, ok := flags["max-depth"].(int); ok {
		c.Crawl.MaxDepth = maxDepth
	}
	if policy, ok := flags["on-page-error"].(string); ok && policy != "" {
		c.Crawl.OnPageError = policy
	}
	if robots, ok := flags["respect-robots"].(bool); ok {
		c.Crawl.RespectRobots = robots
	}
	if timeout, ok := flags["timeout"].(time.Duration); ok {
		c.HTTP.Timeout = timeout
	}
	if outputDir, ok := flags["output"].(string); ok && outputDir != "" {
		c.Output.BaseDirectory = outputDir
	}
	if noColor, ok := flags["no-color"].(bool); ok {
		c.Output.NoColor = noColor
	}
	if quiet, ok := flags["quiet"].(bool); ok {
		c.Output.Quiet = quiet
	}
	if selector, ok := flags["selector"].(string); ok && selector != "" {
		c.Extraction.FigureSelector = selector
	}
	if rpm, ok := flags["rate-limit"].(int); ok {
		c.RateLimit.RequestsPerMinute = rpm
	}
	if burst, ok := flags["rate-burst"].(int); ok {
		c.RateLimit.Burst = burst
	}
	if addr, ok := flags["metrics-addr"].(string); ok && addr != "" {
		c.Metrics.Enabled = true
		c.Metrics.Addr = addr
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".imgscraper.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' || r == '\n' }) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
