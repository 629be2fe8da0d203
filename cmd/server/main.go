package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/delorenj/vaultsync/internal/server"
	"github.com/delorenj/vaultsync/internal/server/blob"
	"github.com/delorenj/vaultsync/internal/utils"
	"github.com/delorenj/vaultsync/internal/version"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const envPrefix = "VAULTSYNC_SERVER"

var rootCmd = &cobra.Command{
	Use:     "vaultsync-server",
	Short:   "Object store facade for vaultsync",
	Version: version.Detailed(),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		cmd.SilenceUsage = true

		slog.Info("config",
			"addr", cfg.HTTP.Addr,
			"data_dir", cfg.DataDir,
			"blob_driver", cfg.Blob.Driver,
			"blob_endpoint", cfg.Blob.Endpoint,
			"blob_access_key", utils.MaskSecret(cfg.Blob.AccessKey),
		)

		srv, err := server.New(cfg)
		if err != nil {
			return err
		}
		defer slog.Info("Bye!")
		return srv.Start(cmd.Context())
	},
}

func init() {
	rootCmd.Flags().SortFlags = false
	rootCmd.Flags().StringP("bind", "b", server.DefaultAddr, "Address to bind the server")
	rootCmd.Flags().String("cert", "", "Path to the TLS certificate file")
	rootCmd.Flags().String("key", "", "Path to the TLS key file")
	rootCmd.Flags().StringP("data-dir", "d", ".data", "Directory for the blob index")
	rootCmd.Flags().StringP("config", "f", "", "Path to a yaml or json config file")
}

func main() {
	logger := slog.New(tint.NewHandler(os.Stdout, &tint.Options{
		Level:      slog.LevelDebug,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
		NoColor:    !isatty.IsTerminal(os.Stdout.Fd()),
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command) (*server.Config, error) {
	v := viper.New()

	if path, _ := cmd.Flags().GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config read %q: %w", path, err)
		}
	}

	v.SetDefault("http.addr", server.DefaultAddr)
	v.SetDefault("http.rate_limit", server.DefaultRateLimit)
	v.SetDefault("blob.driver", blob.DriverS3)
	v.SetDefault("blob.region", "us-east-1")
	v.SetDefault("index_interval", server.DefaultIndexInterval)

	// explicit flags win over file and env
	bindFlag(v, cmd, "http.addr", "bind")
	bindFlag(v, cmd, "http.cert_file", "cert")
	bindFlag(v, cmd, "http.key_file", "key")
	bindFlag(v, cmd, "data_dir", "data-dir")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv only applies to known keys, register the rest so Unmarshal sees them
	for _, key := range []string{
		"blob.bucket_name", "blob.access_key", "blob.secret_key", "blob.endpoint",
		"blob.use_accelerate", "api_token",
	} {
		v.BindEnv(key)
	}

	cfg := &server.Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config unmarshal: %w", err)
	}
	return cfg, nil
}

func bindFlag(v *viper.Viper, cmd *cobra.Command, key, flag string) {
	if f := cmd.Flags().Lookup(flag); f != nil {
		v.BindPFlag(key, f)
	}
}
