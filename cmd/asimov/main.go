// Package main implements the asimov backup-exclusion scanner.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/kaorukobo/asimov/internal/config"
	"github.com/kaorukobo/asimov/internal/tmutil"
	"github.com/kaorukobo/asimov/internal/walker"
)

var (
	flagConfigDir string
	flagDryRun    bool
	flagLogLevel  string
)

func main() {
	cmd := &cobra.Command{
		Use:   "asimov [root]",
		Short: "Exclude dependency directories from Time Machine backups",
		Long: `asimov scans a directory tree for dependency directories that a
package manager can rebuild (node_modules, target, vendor, ...) and
marks them as excluded from Time Machine backups, so reproducible
artifacts never take up space in a backup.

The rules are plain-text files under the configuration directory and
are created with built-in defaults on the first run. The scan root
defaults to your home directory.`,
		Example: `asimov
asimov --dry-run ~/src`,
		Args: cobra.MaximumNArgs(1),
		RunE: run,
	}

	cmd.Flags().StringVar(&flagConfigDir, "config-dir", "",
		"directory holding the rule files (default ~/.config/asimov)")
	cmd.Flags().BoolVarP(&flagDryRun, "dry-run", "n", false,
		"report matches without changing exclusion state")
	cmd.Flags().StringVar(&flagLogLevel, "log-level", "",
		"log level: debug, info, warn, error (default info)")

	if err := fang.Execute(
		context.Background(),
		cmd,
		fang.WithVersion(version),
		fang.WithoutCompletions(),
		fang.WithoutManpage(),
	); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	configDir := flagConfigDir
	if configDir == "" {
		var err error
		configDir, err = config.Dir()
		if err != nil {
			return err
		}
	}

	settings, err := config.LoadSettings(configDir)
	if err != nil {
		return err
	}

	root := settings.Root
	if len(args) > 0 {
		root = args[0]
	}
	if root == "" {
		root, err = os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("resolve home directory: %w", err)
		}
	}
	// Skip paths are resolved against the root, so it must be absolute
	// before the rules are loaded.
	root, err = filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("resolve root: %w", err)
	}

	logger, err := newLogger(settings)
	if err != nil {
		return err
	}
	dryRun := flagDryRun || settings.DryRun

	cfg, err := config.Load(configDir, root)
	if err != nil {
		return err
	}

	w := walker.New(cfg, logger)
	applier := tmutil.New()

	start := time.Now()
	var excluded, already, failed int
	var reclaimed uint64

	// Matches are consumed serially: tmutil is not documented as safe
	// for concurrent invocation.
	stats, err := w.Walk(ctx, root, func(m walker.Match) error {
		if dryRun {
			logger.Info("would exclude",
				"path", m.Path,
				"rule", m.Rule,
				"size", humanize.IBytes(tmutil.DiskUsage(m.Path)))
			return nil
		}

		outcome, err := tmutil.Exclude(ctx, applier, m.Path)
		if err != nil {
			failed++
			logger.Error("exclusion failed", "path", m.Path, "err", err)
			return nil
		}
		switch outcome {
		case tmutil.OutcomeAlreadyExcluded:
			already++
			logger.Info("already excluded", "path", m.Path)
		case tmutil.OutcomeExcluded:
			size := tmutil.DiskUsage(m.Path)
			excluded++
			reclaimed += size
			logger.Info("excluded",
				"path", m.Path,
				"rule", m.Rule,
				"size", humanize.IBytes(size))
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Warn("scan interrupted",
				"scanned", stats.Scanned, "matched", stats.Matched)
		}
		return err
	}

	logger.Info("scan complete",
		"scanned", stats.Scanned,
		"pruned", stats.Pruned,
		"matched", stats.Matched,
		"excluded", excluded,
		"already_excluded", already,
		"failed", failed,
		"access_errors", stats.AccessErrors,
		"reclaimed", humanize.IBytes(reclaimed),
		"elapsed", time.Since(start).Round(time.Millisecond))
	return nil
}

// newLogger builds the stderr logger. The flag wins over config.yaml.
func newLogger(settings config.Settings) (*log.Logger, error) {
	level := flagLogLevel
	if level == "" {
		level = settings.LogLevel
	}
	if level == "" {
		level = "info"
	}
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{Level: lvl})
	return logger, nil
}
