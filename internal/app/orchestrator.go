package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/wwt-image-collection/hashgen/internal/config"
	"github.com/wwt-image-collection/hashgen/internal/domain"
	"github.com/wwt-image-collection/hashgen/internal/fingerprint"
	"github.com/wwt-image-collection/hashgen/internal/notify"
	"github.com/wwt-image-collection/hashgen/internal/utils"
)

// Orchestrator fingerprints every version of a collection root
type Orchestrator struct {
	config   *config.Config
	deps     *Dependencies
	logger   *utils.Logger
	progress io.Writer
}

// OrchestratorOptions contains options for creating an orchestrator
type OrchestratorOptions struct {
	Config  *config.Config
	Verbose bool
	// Dependencies overrides the collaborators built from Config
	Dependencies *Dependencies
	// Progress receives the progress bar when Config.Output.Progress is set
	Progress io.Writer
	// LogOutput overrides the log destination (stderr)
	LogOutput io.Writer
}

// NewOrchestrator creates a new orchestrator with the given configuration
func NewOrchestrator(opts OrchestratorOptions) (*Orchestrator, error) {
	cfg := opts.Config

	// Validate config
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	// Create logger
	logLevel := "info"
	logFormat := "pretty"
	if cfg.Logging.Level != "" {
		logLevel = cfg.Logging.Level
	}
	if cfg.Logging.Format != "" {
		logFormat = cfg.Logging.Format
	}
	if opts.Verbose {
		logLevel = "debug"
	}

	logger := utils.NewLogger(utils.LoggerOptions{
		Level:   logLevel,
		Format:  logFormat,
		Output:  opts.LogOutput,
		Verbose: opts.Verbose,
	})

	deps := opts.Dependencies
	if deps == nil {
		var err error
		deps, err = NewDependencies(DependencyOptions{
			Config: cfg,
			Logger: logger,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create dependencies: %w", err)
		}
	}

	return &Orchestrator{
		config:   cfg,
		deps:     deps,
		logger:   logger.WithComponent("orchestrator"),
		progress: opts.Progress,
	}, nil
}

// Run processes every discovered version in numeric order. The first error
// stops the run; the report then holds the versions completed before it.
func (o *Orchestrator) Run(ctx context.Context) (*domain.RunReport, error) {
	report := &domain.RunReport{
		Root:      o.config.Root,
		DryRun:    o.config.DryRun,
		StartedAt: time.Now(),
	}
	finish := func(err error) (*domain.RunReport, error) {
		report.FinishedAt = time.Now()
		return report, err
	}

	if err := CheckMarker(o.deps.Fs, o.config); err != nil {
		return finish(err)
	}

	versions, err := DiscoverVersions(o.deps.Fs, o.config)
	if err != nil {
		return finish(err)
	}

	o.logger.Info().
		Str("root", o.config.Root).
		Int("versions", len(versions)).
		Bool("dry_run", o.config.DryRun).
		Msg("Starting fingerprint run")

	var bar *progressbar.ProgressBar
	if o.config.Output.Progress && o.progress != nil && len(versions) > 0 {
		bar = utils.NewProgressBar(len(versions), utils.DescFingerprinting, o.progress)
		defer func() {
			if err := bar.Finish(); err != nil {
				o.logger.Debug().Err(err).Msg("Progress bar finish failed")
			}
		}()
	}

	for _, v := range versions {
		result, err := o.ProcessVersion(ctx, v)
		if err != nil {
			if ctx.Err() != nil {
				o.logger.Warn().Msg("Run cancelled")
			}
			return finish(fmt.Errorf("version %s: %w", v, err))
		}
		report.Versions = append(report.Versions, *result)
		if bar != nil {
			if err := bar.Add(1); err != nil {
				o.logger.Debug().Err(err).Msg("Progress bar update failed")
			}
		}
	}

	report.FinishedAt = time.Now()
	o.logger.Info().
		Int("versions", len(report.Versions)).
		Int("changed", len(report.Changed())).
		Dur("duration", report.FinishedAt.Sub(report.StartedAt)).
		Msg("Fingerprint run completed")

	return report, nil
}

// ProcessVersion fingerprints one version and, when the fingerprint
// changed, notifies and then persists it. A failed notification leaves the
// stored fingerprint untouched so the next run reports the change again.
func (o *Orchestrator) ProcessVersion(ctx context.Context, v domain.Version) (*domain.VersionResult, error) {
	logger := o.logger.WithVersion(v.String())

	files, err := ManifestFiles(o.deps.Fs, o.config, v)
	if err != nil {
		return nil, err
	}

	result := &domain.VersionResult{Version: v}

	var content strings.Builder
	for _, file := range files {
		resolved, err := o.deps.Resolver.ResolveFile(ctx, file)
		if err != nil {
			return nil, err
		}
		content.WriteString(resolved.Content)
		result.Documents += resolved.Documents
		result.Files = append(result.Files, o.relative(file))
	}
	result.Bytes = content.Len()

	fp, err := fingerprint.Compute(content.String(), fingerprint.Algorithm(o.config.Manifest.Algorithm))
	if err != nil {
		return nil, err
	}
	result.Fingerprint = fp

	previous, err := o.deps.Store.Read(v)
	if err != nil {
		return nil, err
	}
	result.Previous = previous
	result.Changed = fp != previous

	logger.Debug().
		Int("files", len(files)).
		Int("documents", result.Documents).
		Str("fingerprint", fp).
		Str("previous", previous).
		Msg("Version fingerprinted")

	if !result.Changed {
		return result, nil
	}

	if o.config.DryRun {
		logger.Info().
			Str("fingerprint", fp).
			Str("previous", previous).
			Msg("Fingerprint changed (dry run, not notifying or persisting)")
		return result, nil
	}

	note := domain.Notification{
		Version:      v,
		Fingerprint:  fp,
		Previous:     previous,
		ReferenceURL: notify.ReferenceURL(o.config.Notify.BaseURL, v),
	}
	if err := o.deps.Notifier.Notify(ctx, note); err != nil {
		var notifyErr *domain.NotificationError
		if !errors.As(err, &notifyErr) {
			err = &domain.NotificationError{Version: v, Err: err}
		}
		return nil, err
	}
	result.Notified = true

	if err := o.deps.Store.Write(v, fp); err != nil {
		return nil, err
	}
	result.Persisted = true

	logger.Info().
		Str("fingerprint", fp).
		Str("previous", previous).
		Msg("Fingerprint updated")

	return result, nil
}

// relative returns a path relative to the root for reporting
func (o *Orchestrator) relative(path string) string {
	rel, err := filepath.Rel(o.config.Root, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}

// Close releases all resources held by the orchestrator
func (o *Orchestrator) Close() error {
	if o.deps != nil {
		return o.deps.Close()
	}
	return nil
}
