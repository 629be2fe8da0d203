package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/delorenj/vaultsync/internal/reconcile"
	"github.com/delorenj/vaultsync/internal/scanner"
	"github.com/delorenj/vaultsync/internal/utils"
	"github.com/delorenj/vaultsync/internal/vault"
	"github.com/delorenj/vaultsync/internal/vaultsdk"
	"github.com/spf13/cobra"
)

var errRunFailures = errors.New("some files failed to sync")

func addSyncFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.BoolP("dry-run", "n", false, "Plan only, change nothing remotely")
	f.String("compare", reconcile.CompareMetadata, "Change detection: metadata or hash")
	f.Int("batch-size", reconcile.DefaultBatchSize, "Files per upload request")
	f.String("prefix", "", "Only reconcile keys under this prefix")
	f.StringSlice("include", nil, "Only sync paths matching these glob patterns")
	f.String("format", formatText, "Report format: text, json or yaml")
}

func newSyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Reconcile the remote store with the vault once",
		Args:  cobra.NoArgs,
		RunE:  runSync,
	}
	addSyncFlags(cmd)
	return cmd
}

func runSync(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	if err := validateFormat(format); err != nil {
		return err
	}

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

	report, err := app.runner.Run(cmd.Context())
	if err != nil {
		return err
	}

	if err := renderReport(cmd.OutOrStdout(), report, format); err != nil {
		return err
	}
	return checkFailures(cmd, report.Failed())
}

// checkFailures turns per file failures into an error only with --fail-on-errors.
// They are already logged and listed in the report either way.
func checkFailures(cmd *cobra.Command, failed int) error {
	if failed == 0 {
		return nil
	}
	if strict, _ := cmd.Flags().GetBool("fail-on-errors"); !strict {
		return nil
	}
	return fmt.Errorf("%w: %d", errRunFailures, failed)
}

// app wires a locked vault to the runner
type app struct {
	cfg    *Config
	vault  *vault.Vault
	client *vaultsdk.Client
	runner *reconcile.Runner
}

func newApp(cfg *Config) (*app, error) {
	v, err := vault.New(cfg.VaultRoot)
	if err != nil {
		return nil, err
	}
	if err := v.Lock(); err != nil {
		return nil, err
	}

	client, err := newClient(cfg)
	if err != nil {
		v.Unlock()
		return nil, err
	}

	sc, err := scanner.New(&cfg.Config)
	if err != nil {
		v.Unlock()
		return nil, err
	}

	slog.Debug("config",
		"vault", v.Root,
		"endpoint", cfg.Endpoint,
		"token", utils.MaskSecret(cfg.Token),
		"compare", cfg.Compare,
		"batch", cfg.BatchSize,
		"dryRun", cfg.DryRun,
		"file", cfg.Path,
	)

	remote := reconcile.NewSDKRemote(client)
	runner := reconcile.NewRunner(&cfg.Config, sc, remote, nil, nil)

	return &app{cfg: cfg, vault: v, client: client, runner: runner}, nil
}

func (a *app) Close() {
	if err := a.vault.Unlock(); err != nil {
		slog.Warn("vault unlock", "error", err)
	}
}

func newClient(cfg *Config) (*vaultsdk.Client, error) {
	opts := vaultsdk.DefaultOptions()
	opts.Token = cfg.Token
	if cfg.RequestTimeout > 0 {
		opts.Timeout = cfg.RequestTimeout
	}
	return vaultsdk.New(cfg.Endpoint, opts)
}
