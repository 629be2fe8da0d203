package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/delorenj/vaultsync/internal/version"
	"github.com/spf13/cobra"
)

var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "vaultsync",
		Short:   "Mirror a local vault to an object store",
		Version: version.Detailed(),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogger(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			closeLogFile()
		},
		// without a subcommand vaultsync runs a single sync
		RunE: runSync,
	}

	pf := cmd.PersistentFlags()
	pf.SortFlags = false
	pf.StringP("vault", "p", "", "Vault directory (env VAULT_PATH)")
	pf.StringP("endpoint", "e", "", "Storage facade URL (env REMOTE_ENDPOINT)")
	pf.String("token", "", "Bearer token for the storage facade (env VAULTSYNC_TOKEN)")
	pf.StringP("config", "c", "", "Config file (default ~/.config/vaultsync/config.yaml)")
	pf.String("log-file", "", "Also write logs to this file")
	pf.BoolP("verbose", "v", false, "Debug logging")
	pf.Bool("fail-on-errors", false, "Exit non-zero when any file fails")

	addSyncFlags(cmd)

	cmd.AddCommand(
		newSyncCmd(),
		newDeletePrefixCmd(),
		newDeleteAllCmd(),
		newWebhookCmd(),
		newWatchCmd(),
		newVersionCmd(),
	)
	return cmd
}

func main() {
	slog.SetDefault(slog.New(newConsoleHandler(os.Stdout, slog.LevelInfo)))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
