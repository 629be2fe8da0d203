package main

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/delorenj/vaultsync/internal/reconcile"
	"github.com/delorenj/vaultsync/internal/vault"
	"github.com/delorenj/vaultsync/internal/watch"
	"github.com/spf13/cobra"
)

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Sync once, then again whenever the vault changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			cmd.SilenceUsage = true

			app, err := newApp(cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			ctx := cmd.Context()
			runAndLog(ctx, app.runner)

			w := watch.New(app.vault.Root, cfg.WatchDebounce)
			w.FilterPaths(ignoredPathFilter(app.vault, cfg.IgnoredDirectories))

			defer slog.Info("Bye!")
			return w.Run(ctx, func(ctx context.Context) {
				runAndLog(ctx, app.runner)
			})
		},
	}

	cmd.Flags().Duration("debounce", watch.DefaultDebounce, "Quiet period before a change triggers a sync")
	return cmd
}

func runAndLog(ctx context.Context, runner *reconcile.Runner) {
	report, err := runner.Run(ctx)
	switch {
	case errors.Is(err, context.Canceled):
	case err != nil:
		slog.Error("sync", "error", err)
	default:
		slog.Info("sync done", "uploaded", report.Uploaded, "deleted", report.Deleted, "failed", report.Failed())
	}
}

// ignoredPathFilter drops events for the lock file and ignored directories,
// which editors like Obsidian rewrite constantly
func ignoredPathFilter(v *vault.Vault, ignoredDirs []string) watch.FilterCallback {
	return func(path string) bool {
		if path == v.LockPath() {
			return true
		}
		rel, err := v.Rel(path)
		if err != nil || strings.HasPrefix(rel, "..") {
			return true
		}
		for _, part := range strings.Split(rel, "/") {
			for _, dir := range ignoredDirs {
				if part == dir {
					return true
				}
			}
		}
		return filepath.Base(path) == vault.LockFileName
	}
}
