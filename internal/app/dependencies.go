package app

import (
	"errors"
	"fmt"

	"github.com/spf13/afero"
	"github.com/wwt-image-collection/hashgen/internal/cache"
	"github.com/wwt-image-collection/hashgen/internal/config"
	"github.com/wwt-image-collection/hashgen/internal/domain"
	"github.com/wwt-image-collection/hashgen/internal/fetcher"
	"github.com/wwt-image-collection/hashgen/internal/manifest"
	"github.com/wwt-image-collection/hashgen/internal/notify"
	"github.com/wwt-image-collection/hashgen/internal/state"
	"github.com/wwt-image-collection/hashgen/internal/utils"
)

// Dependencies holds the collaborators of a run
type Dependencies struct {
	Fs       afero.Fs
	Fetcher  domain.Fetcher
	Cache    domain.Cache
	Resolver *manifest.Resolver
	Store    domain.FingerprintStore
	Notifier domain.Notifier
	Logger   *utils.Logger
}

// DependencyOptions contains options for creating dependencies.
// Non-nil collaborators are used as given instead of being built from Config.
type DependencyOptions struct {
	Config   *config.Config
	Fs       afero.Fs
	Logger   *utils.Logger
	Fetcher  domain.Fetcher
	Cache    domain.Cache
	Store    domain.FingerprintStore
	Notifier domain.Notifier
}

// NewDependencies creates all collaborators of a run from the configuration
func NewDependencies(opts DependencyOptions) (*Dependencies, error) {
	cfg := opts.Config
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	deps := &Dependencies{
		Fs:     opts.Fs,
		Logger: opts.Logger,
	}
	if deps.Fs == nil {
		deps.Fs = afero.NewOsFs()
	}
	if deps.Logger == nil {
		deps.Logger = utils.NewNopLogger()
	}

	// Create cache if enabled
	deps.Cache = opts.Cache
	if deps.Cache == nil && cfg.Cache.Enabled {
		badgerCache, err := cache.NewBadgerCache(cache.Options{
			Directory: utils.ExpandPath(cfg.Cache.Directory),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open cache: %w", err)
		}
		deps.Cache = badgerCache
	}

	// Create fetcher
	deps.Fetcher = opts.Fetcher
	if deps.Fetcher == nil {
		client, err := fetcher.NewClient(fetcher.ClientOptions{
			Timeout:     cfg.Fetch.Timeout,
			MaxRetries:  cfg.Fetch.MaxRetries,
			EnableCache: deps.Cache != nil,
			CacheTTL:    cfg.Cache.TTL,
			Cache:       deps.Cache,
			UserAgent:   cfg.Fetch.UserAgent,
			ProxyURL:    cfg.Fetch.ProxyURL,
		})
		if err != nil {
			deps.Close()
			return nil, fmt.Errorf("failed to create fetcher: %w", err)
		}
		deps.Fetcher = client
	}

	deps.Resolver = manifest.NewResolver(manifest.Options{
		Fs:       deps.Fs,
		Root:     cfg.Root,
		Fetcher:  deps.Fetcher,
		Workers:  cfg.Resolver.Workers,
		MaxDepth: cfg.Resolver.MaxDepth,
		Logger:   deps.Logger,
	})

	deps.Store = opts.Store
	if deps.Store == nil {
		deps.Store = state.NewStore(state.StoreOptions{
			Fs:       deps.Fs,
			Root:     cfg.Root,
			FileName: cfg.Manifest.FingerprintFile,
			Logger:   deps.Logger,
		})
	}

	deps.Notifier = opts.Notifier
	if deps.Notifier == nil {
		n, err := notify.New(notify.Options{
			Fs:        deps.Fs,
			TokenFile: cfg.TokenPath(),
			Channel:   cfg.Notify.Channel,
			Header:    cfg.Notify.Header,
			APIURL:    cfg.Notify.APIURL,
			Logger:    deps.Logger,
		})
		if err != nil {
			deps.Close()
			return nil, err
		}
		deps.Notifier = n
	}

	return deps, nil
}

// Close releases the fetcher and cache
func (d *Dependencies) Close() error {
	var errs []error
	if d.Fetcher != nil {
		errs = append(errs, d.Fetcher.Close())
	}
	if d.Cache != nil {
		errs = append(errs, d.Cache.Close())
	}
	return errors.Join(errs...)
}
