package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"github.com/conneroisu/symgen/internal/config"
	"github.com/conneroisu/symgen/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:     "watch",
	Aliases: []string{"w"},
	Short:   "Regenerate the headers whenever a source file changes",
	Long: `Generate once, then watch the interpreter source tree and regenerate
whenever a scanned C source or header changes.

Change bursts are debounced, and events whose file content is unchanged
(touch, checkout of identical bytes) are ignored. A failed regeneration
is logged and the previous output is left in place; watching continues.

Stop with Ctrl-C.`,
	RunE: runWatchCommand,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().Int("debounce", 0, "debounce window in milliseconds")
	bindFlag("watch.debounce_ms", watchCmd.Flags().Lookup("debounce"))
}

func runWatchCommand(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger := newLogger(cfg)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initial generation before watching, so the output tree exists.
	if err := generateOnce(ctx, cfg, logger); err != nil {
		return err
	}

	fw, err := watcher.New(time.Duration(cfg.Watch.DebounceMs)*time.Millisecond, logger)
	if err != nil {
		return err
	}
	fw.AddFilter(watchFilter(cfg))
	fw.SetHandler(func(ctx context.Context, paths []string) error {
		return generateOnce(ctx, cfg, logger)
	})
	if err := fw.AddRecursive(cfg.Source.Root); err != nil {
		return err
	}

	logger.Info(ctx, "watching for changes",
		"root", cfg.Source.Root,
		"debounce_ms", cfg.Watch.DebounceMs,
	)

	return fw.Start(ctx)
}

// watchFilter accepts C sources, plus anything matching the configured extra
// watch patterns (e.g. data file overrides).
func watchFilter(cfg *config.Config) watcher.FileFilter {
	if len(cfg.Watch.Patterns) == 0 {
		return watcher.CSourceFilter
	}

	return func(path string) bool {
		if watcher.CSourceFilter(path) {
			return true
		}
		rel, err := filepath.Rel(cfg.Source.Root, path)
		if err != nil {
			return false
		}
		rel = filepath.ToSlash(rel)
		for _, pattern := range cfg.Watch.Patterns {
			if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
				return true
			}
		}
		return false
	}
}
