package main

import (
	"log/slog"

	"github.com/delorenj/vaultsync/internal/webhook"
	"github.com/spf13/cobra"
)

func newWebhookCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "webhook",
		Short: "Serve an HTTP endpoint that triggers a sync",
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

			if cfg.Webhook.Secret == "" {
				slog.Warn("webhook secret not set, the trigger route is open")
			}

			app, err := newApp(cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			srv, err := webhook.New(&webhook.Config{
				Addr:      cfg.Webhook.Addr,
				Secret:    cfg.Webhook.Secret,
				RateLimit: cfg.Webhook.RateLimit,
			}, app.runner)
			if err != nil {
				return err
			}

			defer slog.Info("Bye!")
			return srv.Start(cmd.Context())
		},
	}

	cmd.Flags().String("addr", webhook.DefaultAddr, "Address to bind the webhook server")
	cmd.Flags().String("secret", "", "Bearer token required to trigger (env WEBHOOK_SECRET)")
	return cmd
}
