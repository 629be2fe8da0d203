package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
)

var errNotConfirmed = errors.New("refusing to delete every remote file without --yes")

func newDeletePrefixCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete-prefix <prefix>",
		Short: "Delete every remote file under a prefix",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			if err := validateFormat(format); err != nil {
				return err
			}
			prefix := args[0]
			if prefix == "" {
				return fmt.Errorf("prefix must not be empty, use delete-all instead")
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

			report, err := app.runner.DeletePrefix(cmd.Context(), prefix)
			if err != nil {
				return err
			}
			if err := renderReport(cmd.OutOrStdout(), report, format); err != nil {
				return err
			}
			return checkFailures(cmd, report.Failed())
		},
	}

	cmd.Flags().BoolP("dry-run", "n", false, "List matching files without deleting")
	cmd.Flags().String("format", formatText, "Report format: text, json or yaml")
	return cmd
}

func newDeleteAllCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete-all",
		Short: "Delete every remote file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if yes, _ := cmd.Flags().GetBool("yes"); !yes {
				return errNotConfirmed
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cfg.Endpoint == "" {
				return ErrNoEndpoint
			}
			cmd.SilenceUsage = true

			client, err := newClient(cfg)
			if err != nil {
				return err
			}

			res, err := client.DeleteAll(cmd.Context(), "")
			if err != nil {
				return err
			}
			slog.Info("delete all", "deleted", res.Deleted, "failed", res.Failed)

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, green.Render(fmt.Sprintf("deleted %d", res.Deleted)))
			for _, msg := range res.Errors {
				fmt.Fprintln(out, red.Render("  "+msg))
			}
			return checkFailures(cmd, res.Failed)
		},
	}

	cmd.Flags().BoolP("yes", "y", false, "Confirm deleting every remote file")
	return cmd
}
