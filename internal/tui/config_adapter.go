package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/wwt-image-collection/hashgen/internal/config"
)

// ConfigValues holds form values that map to Config struct.
// Numeric and duration fields are stored as strings for form editing.
type ConfigValues struct {
	Root   string
	Marker string

	Extensions      string
	FingerprintFile string
	Algorithm       string

	Workers  string
	MaxDepth string

	Timeout    string
	MaxRetries string
	UserAgent  string
	ProxyURL   string

	CacheEnabled   bool
	CacheTTL       string
	CacheDirectory string

	TokenFile string
	Channel   string
	Header    string
	BaseURL   string
	// APIURL has no form field and is carried through unchanged
	APIURL string

	LogLevel  string
	LogFormat string

	Report   string
	Progress bool
}

// FromConfig converts a Config to ConfigValues for form editing
func FromConfig(cfg *config.Config) *ConfigValues {
	return &ConfigValues{
		Root:   cfg.Root,
		Marker: cfg.Marker,

		Extensions:      strings.Join(cfg.Manifest.Extensions, " "),
		FingerprintFile: cfg.Manifest.FingerprintFile,
		Algorithm:       cfg.Manifest.Algorithm,

		Workers:  strconv.Itoa(cfg.Resolver.Workers),
		MaxDepth: strconv.Itoa(cfg.Resolver.MaxDepth),

		Timeout:    formatDuration(cfg.Fetch.Timeout),
		MaxRetries: strconv.Itoa(cfg.Fetch.MaxRetries),
		UserAgent:  cfg.Fetch.UserAgent,
		ProxyURL:   cfg.Fetch.ProxyURL,

		CacheEnabled:   cfg.Cache.Enabled,
		CacheTTL:       formatDuration(cfg.Cache.TTL),
		CacheDirectory: cfg.Cache.Directory,

		TokenFile: cfg.Notify.TokenFile,
		Channel:   cfg.Notify.Channel,
		Header:    cfg.Notify.Header,
		BaseURL:   cfg.Notify.BaseURL,
		APIURL:    cfg.Notify.APIURL,

		LogLevel:  cfg.Logging.Level,
		LogFormat: cfg.Logging.Format,

		Report:   cfg.Output.Report,
		Progress: cfg.Output.Progress,
	}
}

// ToConfig converts ConfigValues back to a validated Config struct
func (v *ConfigValues) ToConfig() (*config.Config, error) {
	workers, err := parseIntOrDefault(v.Workers, config.DefaultWorkers)
	if err != nil {
		return nil, fmt.Errorf("invalid workers: %w", err)
	}

	maxDepth, err := parseIntOrDefault(v.MaxDepth, config.DefaultMaxDepth)
	if err != nil {
		return nil, fmt.Errorf("invalid max_depth: %w", err)
	}

	timeout, err := parseDurationOrDefault(v.Timeout, config.DefaultFetchTimeout)
	if err != nil {
		return nil, fmt.Errorf("invalid timeout: %w", err)
	}

	maxRetries, err := parseIntOrDefault(v.MaxRetries, config.DefaultMaxRetries)
	if err != nil {
		return nil, fmt.Errorf("invalid max_retries: %w", err)
	}

	cacheTTL, err := parseDurationOrDefault(v.CacheTTL, config.DefaultCacheTTL)
	if err != nil {
		return nil, fmt.Errorf("invalid cache_ttl: %w", err)
	}

	cfg := &config.Config{
		Root:   strings.TrimSpace(v.Root),
		Marker: strings.TrimSpace(v.Marker),
		Manifest: config.ManifestConfig{
			Extensions:      strings.Fields(strings.ReplaceAll(v.Extensions, ",", " ")),
			FingerprintFile: strings.TrimSpace(v.FingerprintFile),
			Algorithm:       v.Algorithm,
		},
		Resolver: config.ResolverConfig{
			Workers:  workers,
			MaxDepth: maxDepth,
		},
		Fetch: config.FetchConfig{
			Timeout:    timeout,
			MaxRetries: maxRetries,
			UserAgent:  strings.TrimSpace(v.UserAgent),
			ProxyURL:   strings.TrimSpace(v.ProxyURL),
		},
		Cache: config.CacheConfig{
			Enabled:   v.CacheEnabled,
			TTL:       cacheTTL,
			Directory: strings.TrimSpace(v.CacheDirectory),
		},
		Notify: config.NotifyConfig{
			TokenFile: strings.TrimSpace(v.TokenFile),
			Channel:   strings.TrimSpace(v.Channel),
			Header:    v.Header,
			BaseURL:   strings.TrimSpace(v.BaseURL),
			APIURL:    v.APIURL,
		},
		Logging: config.LoggingConfig{
			Level:  v.LogLevel,
			Format: v.LogFormat,
		},
		Output: config.OutputConfig{
			Report:   strings.TrimSpace(v.Report),
			Progress: v.Progress,
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func formatDuration(d time.Duration) string {
	if d == 0 {
		return ""
	}
	return d.String()
}

func parseDurationOrDefault(s string, defaultVal time.Duration) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return defaultVal, nil
	}
	return time.ParseDuration(s)
}

func parseIntOrDefault(s string, defaultVal int) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return defaultVal, nil
	}
	return strconv.Atoi(s)
}
