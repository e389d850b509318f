package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/viper"
	"github.com/wwt-image-collection/hashgen/internal/utils"
)

// KeyConfigFile is the viper key of an explicit config file path
const KeyConfigFile = "config_file"

// LoadWithViper loads configuration through v, reading config files from fs.
// The config file is, in order: the explicit KeyConfigFile, hashgen.yaml in
// the root, then the user config file. Missing implicit files are ignored.
func LoadWithViper(v *viper.Viper, fs afero.Fs) (*Config, error) {
	setDefaults(v)

	// Environment variables (HASHGEN_*)
	v.SetEnvPrefix("HASHGEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetFs(fs)
	v.SetConfigType("yaml")

	if path := configFile(v, fs); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// configFile picks the config file to read, or "" for none
func configFile(v *viper.Viper, fs afero.Fs) string {
	if explicit := v.GetString(KeyConfigFile); explicit != "" {
		return utils.ExpandPath(explicit)
	}

	root := utils.ExpandPath(v.GetString("root"))
	for _, candidate := range []string{filepath.Join(root, ProjectConfigName), ConfigFilePath()} {
		if ok, _ := afero.Exists(fs, candidate); ok {
			return candidate
		}
	}
	return ""
}

// setDefaults sets default values in viper
func setDefaults(v *viper.Viper) {
	// Layout defaults
	v.SetDefault("root", DefaultRoot)
	v.SetDefault("marker", DefaultMarker)
	v.SetDefault("versions", []int{})
	v.SetDefault("dry_run", false)

	// Manifest defaults
	v.SetDefault("manifest.extensions", DefaultExtensions)
	v.SetDefault("manifest.fingerprint_file", DefaultFingerprintFile)
	v.SetDefault("manifest.algorithm", DefaultAlgorithm)

	// Resolver defaults
	v.SetDefault("resolver.workers", DefaultWorkers)
	v.SetDefault("resolver.max_depth", DefaultMaxDepth)

	// Fetch defaults
	v.SetDefault("fetch.timeout", DefaultFetchTimeout)
	v.SetDefault("fetch.max_retries", DefaultMaxRetries)
	v.SetDefault("fetch.user_agent", "")
	v.SetDefault("fetch.proxy_url", "")

	// Cache defaults
	v.SetDefault("cache.enabled", DefaultCacheEnabled)
	v.SetDefault("cache.ttl", DefaultCacheTTL)
	v.SetDefault("cache.directory", CacheDir())

	// Notify defaults
	v.SetDefault("notify.token_file", DefaultTokenFile)
	v.SetDefault("notify.channel", DefaultChannel)
	v.SetDefault("notify.header", DefaultHeader)
	v.SetDefault("notify.base_url", DefaultBaseURL)
	v.SetDefault("notify.api_url", "")

	// Logging defaults
	v.SetDefault("logging.level", DefaultLogLevel)
	v.SetDefault("logging.format", DefaultLogFormat)

	// Output defaults
	v.SetDefault("output.report", "")
	v.SetDefault("output.progress", false)
}

// EnsureCacheDir creates the cache directory if it doesn't exist
func EnsureCacheDir(dir string) error {
	if dir == "" {
		dir = CacheDir()
	}
	return os.MkdirAll(dir, 0755)
}
