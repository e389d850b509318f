package config

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/wwt-image-collection/hashgen/internal/fingerprint"
	"github.com/wwt-image-collection/hashgen/internal/utils"
)

// Config represents the application configuration
type Config struct {
	// Root is the directory holding the marker entry and the version directories
	Root   string `mapstructure:"root" yaml:"root"`
	Marker string `mapstructure:"marker" yaml:"marker"`
	// Versions restricts the run to these versions; empty means all
	Versions []int          `mapstructure:"versions" yaml:"versions"`
	DryRun   bool           `mapstructure:"dry_run" yaml:"dry_run"`
	Manifest ManifestConfig `mapstructure:"manifest" yaml:"manifest"`
	Resolver ResolverConfig `mapstructure:"resolver" yaml:"resolver"`
	Fetch    FetchConfig    `mapstructure:"fetch" yaml:"fetch"`
	Cache    CacheConfig    `mapstructure:"cache" yaml:"cache"`
	Notify   NotifyConfig   `mapstructure:"notify" yaml:"notify"`
	Logging  LoggingConfig  `mapstructure:"logging" yaml:"logging"`
	Output   OutputConfig   `mapstructure:"output" yaml:"output"`
}

// ManifestConfig contains version directory layout settings
type ManifestConfig struct {
	Extensions      []string `mapstructure:"extensions" yaml:"extensions"`
	FingerprintFile string   `mapstructure:"fingerprint_file" yaml:"fingerprint_file"`
	Algorithm       string   `mapstructure:"algorithm" yaml:"algorithm"`
}

// ResolverConfig contains manifest tree traversal settings
type ResolverConfig struct {
	Workers  int `mapstructure:"workers" yaml:"workers"`
	MaxDepth int `mapstructure:"max_depth" yaml:"max_depth"`
}

// FetchConfig contains network settings for remote manifests
type FetchConfig struct {
	Timeout    time.Duration `mapstructure:"timeout" yaml:"timeout"`
	MaxRetries int           `mapstructure:"max_retries" yaml:"max_retries"`
	UserAgent  string        `mapstructure:"user_agent" yaml:"user_agent"`
	ProxyURL   string        `mapstructure:"proxy_url" yaml:"proxy_url"`
}

// CacheConfig contains cache settings
type CacheConfig struct {
	Enabled   bool          `mapstructure:"enabled" yaml:"enabled"`
	TTL       time.Duration `mapstructure:"ttl" yaml:"ttl"`
	Directory string        `mapstructure:"directory" yaml:"directory"`
}

// NotifyConfig contains change notification settings
type NotifyConfig struct {
	TokenFile string `mapstructure:"token_file" yaml:"token_file"`
	Channel   string `mapstructure:"channel" yaml:"channel"`
	Header    string `mapstructure:"header" yaml:"header"`
	BaseURL   string `mapstructure:"base_url" yaml:"base_url"`
	APIURL    string `mapstructure:"api_url" yaml:"api_url"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// OutputConfig contains run output settings
type OutputConfig struct {
	// Report is a file the run report is written to; empty disables it
	Report   string `mapstructure:"report" yaml:"report"`
	Progress bool   `mapstructure:"progress" yaml:"progress"`
}

// Validate validates the configuration and fills in defaults for unset values
func (c *Config) Validate() error {
	if c.Root == "" {
		c.Root = DefaultRoot
	}
	root, err := filepath.Abs(utils.ExpandPath(c.Root))
	if err != nil {
		return fmt.Errorf("invalid root: %w", err)
	}
	c.Root = root

	if c.Marker == "" {
		c.Marker = DefaultMarker
	}
	if strings.ContainsRune(c.Marker, filepath.Separator) {
		return fmt.Errorf("invalid marker %q: must be a name inside root", c.Marker)
	}

	for _, v := range c.Versions {
		if v <= 0 {
			return fmt.Errorf("invalid version %d: versions are positive integers", v)
		}
	}
	sort.Ints(c.Versions)

	if err := c.validateManifest(); err != nil {
		return err
	}

	if c.Resolver.Workers < 1 {
		c.Resolver.Workers = DefaultWorkers
	}
	if c.Resolver.MaxDepth < 0 {
		c.Resolver.MaxDepth = DefaultMaxDepth
	}

	if c.Fetch.Timeout <= 0 {
		c.Fetch.Timeout = DefaultFetchTimeout
	}
	if c.Fetch.MaxRetries < 0 {
		c.Fetch.MaxRetries = DefaultMaxRetries
	}

	if c.Cache.TTL < time.Minute {
		c.Cache.TTL = DefaultCacheTTL
	}
	if c.Cache.Directory == "" {
		c.Cache.Directory = CacheDir()
	}

	if c.Notify.TokenFile == "" {
		c.Notify.TokenFile = DefaultTokenFile
	}
	if c.Notify.Channel == "" {
		c.Notify.Channel = DefaultChannel
	}
	if c.Notify.Header == "" {
		c.Notify.Header = DefaultHeader
	}
	if c.Notify.BaseURL == "" {
		c.Notify.BaseURL = DefaultBaseURL
	}

	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
	if c.Logging.Format == "" {
		c.Logging.Format = DefaultLogFormat
	}
	return nil
}

func (c *Config) validateManifest() error {
	if len(c.Manifest.Extensions) == 0 {
		c.Manifest.Extensions = append([]string(nil), DefaultExtensions...)
	}
	exts := make([]string, 0, len(c.Manifest.Extensions))
	for _, ext := range c.Manifest.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts = append(exts, ext)
	}
	if len(exts) == 0 {
		return fmt.Errorf("manifest.extensions must name at least one extension")
	}
	c.Manifest.Extensions = exts

	if c.Manifest.FingerprintFile == "" {
		c.Manifest.FingerprintFile = DefaultFingerprintFile
	}
	if filepath.Base(c.Manifest.FingerprintFile) != c.Manifest.FingerprintFile {
		return fmt.Errorf("invalid manifest.fingerprint_file %q: must be a file name", c.Manifest.FingerprintFile)
	}

	algo, err := fingerprint.ParseAlgorithm(c.Manifest.Algorithm)
	if err != nil {
		return fmt.Errorf("invalid manifest.algorithm: %w", err)
	}
	c.Manifest.Algorithm = string(algo)
	return nil
}

// TokenPath returns the notification token file, resolved against the root
func (c *Config) TokenPath() string {
	path := utils.ExpandPath(c.Notify.TokenFile)
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.Root, path)
}

// HasManifestExtension reports whether a file name carries a manifest extension
func (c *Config) HasManifestExtension(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, want := range c.Manifest.Extensions {
		if ext == want {
			return true
		}
	}
	return false
}
