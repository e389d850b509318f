package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/wwt-image-collection/hashgen/internal/app"
	"github.com/wwt-image-collection/hashgen/internal/cache"
	"github.com/wwt-image-collection/hashgen/internal/config"
	"github.com/wwt-image-collection/hashgen/internal/domain"
	"github.com/wwt-image-collection/hashgen/internal/notify"
	"github.com/wwt-image-collection/hashgen/internal/output"
	"github.com/wwt-image-collection/hashgen/internal/tui"
	"github.com/wwt-image-collection/hashgen/internal/utils"
	"github.com/wwt-image-collection/hashgen/pkg/version"
)

// Dependencies for testing
var (
	osStat = os.Stat
	appFs  = afero.NewOsFs()
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newRootCmd builds the command tree around its own viper instance
func newRootCmd() *cobra.Command {
	v := viper.New()
	var verbose bool

	rootCmd := &cobra.Command{
		Use:   "hashgen [root]",
		Short: "Fingerprint the WWT image collection manifests",
		Long: `hashgen walks every numbered version directory of an image collection,
expands the WTML manifest tree of each version, and records an MD5 fingerprint
of the expanded content in the version's hash.md5 file.

When a fingerprint changes, a message is posted to Slack before the new
fingerprint is stored.`,
		Version:       version.Short(),
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				v.Set("root", args[0])
			}
			return run(cmd, v, verbose)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "config file (default is <root>/hashgen.yaml, then ~/.hashgen/config.yaml)")
	flags.StringP("root", "r", config.DefaultRoot, "Collection root directory")
	flags.String("marker", config.DefaultMarker, "Entry that must exist in the root")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	flags.Bool("dry-run", false, "Report changes without notifying or writing fingerprints")

	rootCmd.Flags().IntSlice("versions", nil, "Only process these versions")
	rootCmd.Flags().String("algorithm", config.DefaultAlgorithm, "Fingerprint algorithm (md5, sha256)")
	rootCmd.Flags().IntP("workers", "j", config.DefaultWorkers, "Concurrent manifest loads per document")
	rootCmd.Flags().IntP("max-depth", "d", config.DefaultMaxDepth, "Max manifest nesting depth (0=unlimited)")
	rootCmd.Flags().Duration("timeout", config.DefaultFetchTimeout, "Request timeout")
	rootCmd.Flags().Int("retries", config.DefaultMaxRetries, "Retries for failed requests")
	rootCmd.Flags().String("user-agent", "", "Custom User-Agent")
	rootCmd.Flags().Bool("cache", config.DefaultCacheEnabled, "Cache fetched manifests")
	rootCmd.Flags().Duration("cache-ttl", config.DefaultCacheTTL, "Cache TTL")
	rootCmd.Flags().String("report", "", "Write a run report (.json, .yaml)")
	rootCmd.Flags().Bool("progress", false, "Show a progress bar")

	// Bind flags to viper
	_ = v.BindPFlag(config.KeyConfigFile, flags.Lookup("config"))
	_ = v.BindPFlag("root", flags.Lookup("root"))
	_ = v.BindPFlag("marker", flags.Lookup("marker"))
	_ = v.BindPFlag("dry_run", flags.Lookup("dry-run"))
	_ = v.BindPFlag("manifest.algorithm", rootCmd.Flags().Lookup("algorithm"))
	_ = v.BindPFlag("resolver.workers", rootCmd.Flags().Lookup("workers"))
	_ = v.BindPFlag("resolver.max_depth", rootCmd.Flags().Lookup("max-depth"))
	_ = v.BindPFlag("fetch.timeout", rootCmd.Flags().Lookup("timeout"))
	_ = v.BindPFlag("fetch.max_retries", rootCmd.Flags().Lookup("retries"))
	_ = v.BindPFlag("fetch.user_agent", rootCmd.Flags().Lookup("user-agent"))
	_ = v.BindPFlag("cache.enabled", rootCmd.Flags().Lookup("cache"))
	_ = v.BindPFlag("cache.ttl", rootCmd.Flags().Lookup("cache-ttl"))
	_ = v.BindPFlag("output.report", rootCmd.Flags().Lookup("report"))
	_ = v.BindPFlag("output.progress", rootCmd.Flags().Lookup("progress"))

	// Add subcommands
	rootCmd.AddCommand(newDoctorCmd(v))
	rootCmd.AddCommand(newCacheCmd(v))
	rootCmd.AddCommand(newConfigCmd(v))
	rootCmd.AddCommand(versionCmd)

	return rootCmd
}

// loadConfig loads configuration through v and applies flags viper cannot decode
func loadConfig(cmd *cobra.Command, v *viper.Viper) (*config.Config, error) {
	cfg, err := config.LoadWithViper(v, appFs)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if f := cmd.Flags().Lookup("versions"); f != nil && f.Changed {
		cfg.Versions, _ = cmd.Flags().GetIntSlice("versions")
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}
	return cfg, nil
}

func run(cmd *cobra.Command, v *viper.Viper, verbose bool) error {
	cfg, err := loadConfig(cmd, v)
	if err != nil {
		return err
	}

	// Cancel the run on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	orchestrator, err := app.NewOrchestrator(app.OrchestratorOptions{
		Config:    cfg,
		Verbose:   verbose,
		Progress:  cmd.ErrOrStderr(),
		LogOutput: cmd.ErrOrStderr(),
	})
	if err != nil {
		return fmt.Errorf("failed to create orchestrator: %w", err)
	}
	defer orchestrator.Close()

	report, runErr := orchestrator.Run(ctx)
	if report != nil {
		if err := finishReport(cmd.OutOrStdout(), cfg, report); err != nil && runErr == nil {
			runErr = err
		}
	}
	return runErr
}

// finishReport prints the summary and saves the report file when configured
func finishReport(out io.Writer, cfg *config.Config, report *domain.RunReport) error {
	if err := output.WriteSummary(out, report); err != nil {
		return err
	}
	if cfg.Output.Report == "" {
		return nil
	}
	if err := output.NewWriter(output.WriterOptions{Fs: appFs}).WriteReport(cfg.Output.Report, report); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

func newDoctorCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check the collection root and configuration",
		Long:  "Verifies that the configuration loads, the collection root is usable, and notifications can be sent.",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Checking environment...")
			allPassed := true

			// Check 1: Config
			fmt.Fprint(out, "  Config: ")
			cfg, err := loadConfig(cmd, v)
			if err != nil {
				fmt.Fprintf(out, "FAILED (%v)\n", err)
				return nil
			}
			fmt.Fprintln(out, "OK")

			// Check 2: Marker
			fmt.Fprint(out, "  Root marker: ")
			if err := app.CheckMarker(appFs, cfg); err != nil {
				fmt.Fprintf(out, "FAILED (%v)\n", err)
				allPassed = false
			} else {
				fmt.Fprintf(out, "OK (%s)\n", cfg.Root)
			}

			// Check 3: Versions
			fmt.Fprint(out, "  Versions: ")
			if versions, err := app.DiscoverVersions(appFs, cfg); err != nil {
				fmt.Fprintf(out, "FAILED (%v)\n", err)
				allPassed = false
			} else if len(versions) == 0 {
				fmt.Fprintln(out, "WARN (no version directories)")
			} else {
				fmt.Fprintf(out, "OK (%v)\n", versions)
			}

			// Check 4: Notification token
			fmt.Fprint(out, "  Notification token: ")
			if token, err := notify.LoadToken(appFs, cfg.TokenPath()); err != nil {
				fmt.Fprintf(out, "FAILED (%v)\n", err)
				allPassed = false
			} else if token == "" {
				fmt.Fprintf(out, "WARN (%s missing, changes will only be logged)\n", cfg.TokenPath())
			} else {
				fmt.Fprintln(out, "OK")
			}

			// Check 5: Cache directory
			fmt.Fprint(out, "  Cache directory: ")
			if !cfg.Cache.Enabled {
				fmt.Fprintln(out, "SKIPPED (cache disabled)")
			} else if checkCacheDir(cfg.Cache.Directory) {
				fmt.Fprintf(out, "OK (%s)\n", cfg.Cache.Directory)
			} else {
				fmt.Fprintln(out, "WARN (will be created on first use)")
			}

			fmt.Fprintln(out)
			if allPassed {
				fmt.Fprintln(out, "All critical checks passed!")
			} else {
				fmt.Fprintln(out, "Some checks failed. Please resolve the issues above.")
			}
			return nil
		},
	}
}

// checkCacheDir checks if the cache directory exists
func checkCacheDir(path string) bool {
	info, err := osStat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}

func newCacheCmd(v *viper.Viper) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the manifest fetch cache",
	}

	open := func(cmd *cobra.Command) (*cache.BadgerCache, error) {
		cfg, err := loadConfig(cmd, v)
		if err != nil {
			return nil, err
		}
		if err := config.EnsureCacheDir(cfg.Cache.Directory); err != nil {
			return nil, err
		}
		return cache.NewBadgerCache(cache.Options{Directory: cfg.Cache.Directory})
	}

	cacheCmd.AddCommand(&cobra.Command{
		Use:   "info",
		Short: "Show the number of cached manifests",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := open(cmd)
			if err != nil {
				return err
			}
			defer c.Close()
			fmt.Fprintf(cmd.OutOrStdout(), "%d cached entries\n", c.Size())
			return nil
		},
	})

	cacheCmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove all cached manifests",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := open(cmd)
			if err != nil {
				return err
			}
			defer c.Close()

			start := time.Now()
			if err := c.Clear(); err != nil {
				return fmt.Errorf("failed to clear cache: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cache cleared in %s\n", time.Since(start).Round(time.Millisecond))
			return nil
		},
	})

	return cacheCmd
}

// runEditor starts the interactive editor; replaced in tests
var runEditor = tui.Run

func newConfigCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Edit the configuration file interactively",
		Long: `Opens an editor for the configuration file. The file given with --config is
edited when set, otherwise the user config file (~/.hashgen/config.yaml).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, v)
			if err != nil {
				return err
			}

			path := utils.ExpandPath(v.GetString(config.KeyConfigFile))
			if path == "" {
				path = config.ConfigFilePath()
			}
			accessible, _ := cmd.Flags().GetBool("accessible")

			saved, err := runEditor(tui.Options{
				Config:     cfg,
				Path:       path,
				Accessible: accessible,
				SaveFunc: func(c *config.Config) error {
					return config.Save(appFs, path, c)
				},
			})
			if err != nil {
				return err
			}
			if saved != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Configuration written to %s\n", path)
			}
			return nil
		},
	}
	cmd.Flags().Bool("accessible", false, "Use screen reader friendly prompts")
	return cmd
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version.Full())
	},
}
