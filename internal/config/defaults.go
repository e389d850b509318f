package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/wwt-image-collection/hashgen/internal/fingerprint"
	"github.com/wwt-image-collection/hashgen/internal/notify"
	"github.com/wwt-image-collection/hashgen/internal/state"
)

// Default values
const (
	// Layout defaults
	DefaultRoot            = "."
	DefaultMarker          = "hashgen"
	DefaultFingerprintFile = state.DefaultFileName
	DefaultAlgorithm       = string(fingerprint.Default)

	// Resolver defaults
	DefaultWorkers  = 1
	DefaultMaxDepth = 0

	// Fetch defaults
	DefaultFetchTimeout = 60 * time.Second
	DefaultMaxRetries   = 0

	// Cache defaults
	DefaultCacheEnabled = false
	DefaultCacheTTL     = time.Hour

	// Notify defaults
	DefaultTokenFile = notify.DefaultTokenFile
	DefaultChannel   = notify.DefaultChannel
	DefaultHeader    = notify.DefaultHeader
	DefaultBaseURL   = notify.DefaultBaseURL

	// Logging defaults
	DefaultLogLevel  = "info"
	DefaultLogFormat = "pretty"

	// ProjectConfigName is looked up inside the root
	ProjectConfigName = "hashgen.yaml"
)

// DefaultExtensions are the manifest file extensions of a version directory
var DefaultExtensions = []string{".wtml"}

// ConfigDir returns the config directory path
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".hashgen"
	}
	return filepath.Join(home, ".hashgen")
}

// CacheDir returns the cache directory path
func CacheDir() string {
	return filepath.Join(ConfigDir(), "cache")
}

// ConfigFilePath returns the user config file path
func ConfigFilePath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Root:   DefaultRoot,
		Marker: DefaultMarker,
		Manifest: ManifestConfig{
			Extensions:      append([]string(nil), DefaultExtensions...),
			FingerprintFile: DefaultFingerprintFile,
			Algorithm:       DefaultAlgorithm,
		},
		Resolver: ResolverConfig{
			Workers:  DefaultWorkers,
			MaxDepth: DefaultMaxDepth,
		},
		Fetch: FetchConfig{
			Timeout:    DefaultFetchTimeout,
			MaxRetries: DefaultMaxRetries,
		},
		Cache: CacheConfig{
			Enabled:   DefaultCacheEnabled,
			TTL:       DefaultCacheTTL,
			Directory: CacheDir(),
		},
		Notify: NotifyConfig{
			TokenFile: DefaultTokenFile,
			Channel:   DefaultChannel,
			Header:    DefaultHeader,
			BaseURL:   DefaultBaseURL,
		},
		Logging: LoggingConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
