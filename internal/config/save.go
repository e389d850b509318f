package config

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// fileConfig is the on-disk form written by Save. Durations are kept as
// strings and per-run settings (versions, dry_run) are left out.
type fileConfig struct {
	Root     string         `yaml:"root"`
	Marker   string         `yaml:"marker"`
	Manifest ManifestConfig `yaml:"manifest"`
	Resolver ResolverConfig `yaml:"resolver"`
	Fetch    struct {
		Timeout    string `yaml:"timeout"`
		MaxRetries int    `yaml:"max_retries"`
		UserAgent  string `yaml:"user_agent,omitempty"`
		ProxyURL   string `yaml:"proxy_url,omitempty"`
	} `yaml:"fetch"`
	Cache struct {
		Enabled   bool   `yaml:"enabled"`
		TTL       string `yaml:"ttl"`
		Directory string `yaml:"directory"`
	} `yaml:"cache"`
	Notify  NotifyConfig  `yaml:"notify"`
	Logging LoggingConfig `yaml:"logging"`
	Output  OutputConfig  `yaml:"output"`
}

// Marshal encodes the configuration as a YAML config file
func Marshal(cfg *Config) ([]byte, error) {
	fc := fileConfig{
		Root:     cfg.Root,
		Marker:   cfg.Marker,
		Manifest: cfg.Manifest,
		Resolver: cfg.Resolver,
		Notify:   cfg.Notify,
		Logging:  cfg.Logging,
		Output:   cfg.Output,
	}
	fc.Fetch.Timeout = cfg.Fetch.Timeout.String()
	fc.Fetch.MaxRetries = cfg.Fetch.MaxRetries
	fc.Fetch.UserAgent = cfg.Fetch.UserAgent
	fc.Fetch.ProxyURL = cfg.Fetch.ProxyURL
	fc.Cache.Enabled = cfg.Cache.Enabled
	fc.Cache.TTL = cfg.Cache.TTL.String()
	fc.Cache.Directory = cfg.Cache.Directory

	return yaml.Marshal(&fc)
}

// Save writes the configuration to path, creating parent directories
func Save(fs afero.Fs, path string, cfg *Config) error {
	data, err := Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return afero.WriteFile(fs, path, data, 0644)
}
