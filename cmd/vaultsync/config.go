package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/delorenj/vaultsync/internal/reconcile"
	"github.com/delorenj/vaultsync/internal/utils"
	"github.com/delorenj/vaultsync/internal/watch"
	"github.com/delorenj/vaultsync/internal/webhook"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	envPrefix   = "VAULTSYNC"
	envFileName = ".env"
)

var (
	home, _           = os.UserHomeDir()
	defaultConfigPath = filepath.Join(home, ".config", "vaultsync", "config.yaml")
)

var ErrNoEndpoint = errors.New("remote endpoint required (--endpoint or REMOTE_ENDPOINT)")

type WebhookConfig struct {
	Addr      string `mapstructure:"addr"`
	Secret    string `mapstructure:"secret"`
	RateLimit string `mapstructure:"rate_limit"`
}

// Config is everything the CLI reads from flags, env and the config file
type Config struct {
	reconcile.Config `mapstructure:",squash"`

	Token         string        `mapstructure:"token"`
	WatchDebounce time.Duration `mapstructure:"watch_debounce"`
	Webhook       WebhookConfig `mapstructure:"webhook"`
	Path          string        `mapstructure:"-"`
}

func (c *Config) Validate() error {
	if err := c.Config.Validate(); err != nil {
		return err
	}
	if c.Endpoint == "" {
		return ErrNoEndpoint
	}
	if !utils.IsValidURL(c.Endpoint) {
		return fmt.Errorf("%w: invalid remote endpoint %q", reconcile.ErrInvalidConfig, c.Endpoint)
	}
	return nil
}

// loadConfig resolves flags > env (.env files included) > config file > defaults
func loadConfig(cmd *cobra.Command) (*Config, error) {
	// existing env always wins over .env files
	loadEnvFile(envFileName)

	v := viper.New()

	path, _ := cmd.Flags().GetString("config")
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config read %q: %w", path, err)
		}
	} else if utils.FileExists(defaultConfigPath) {
		v.SetConfigFile(defaultConfigPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config read %q: %w", defaultConfigPath, err)
		}
	}

	defaults := reconcile.DefaultConfig()
	v.SetDefault("batch_size", defaults.BatchSize)
	v.SetDefault("max_file_size", defaults.MaxFileSizeBytes)
	v.SetDefault("allowed_extensions", defaults.AllowedExtensions)
	v.SetDefault("ignored_directories", defaults.IgnoredDirectories)
	v.SetDefault("include_patterns", []string{})
	v.SetDefault("compare", defaults.Compare)
	v.SetDefault("read_concurrency", defaults.ReadConcurrency)
	v.SetDefault("upload_concurrency", defaults.UploadConcurrency)
	v.SetDefault("delete_concurrency", defaults.DeleteConcurrency)
	v.SetDefault("request_timeout", defaults.RequestTimeout)
	v.SetDefault("dry_run", false)
	v.SetDefault("prefix", "")
	v.SetDefault("token", "")
	v.SetDefault("watch_debounce", watch.DefaultDebounce)
	v.SetDefault("webhook.addr", webhook.DefaultAddr)
	v.SetDefault("webhook.rate_limit", webhook.DefaultRateLimit)

	bindFlag(v, cmd, "vault_path", "vault")
	bindFlag(v, cmd, "remote_endpoint", "endpoint")
	bindFlag(v, cmd, "token", "token")
	bindFlag(v, cmd, "dry_run", "dry-run")
	bindFlag(v, cmd, "compare", "compare")
	bindFlag(v, cmd, "batch_size", "batch-size")
	bindFlag(v, cmd, "prefix", "prefix")
	bindFlag(v, cmd, "include_patterns", "include")
	bindFlag(v, cmd, "watch_debounce", "debounce")
	bindFlag(v, cmd, "webhook.addr", "addr")
	bindFlag(v, cmd, "webhook.secret", "secret")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// the unprefixed names the original scripts used
	v.BindEnv("vault_path", "VAULTSYNC_VAULT_PATH", "VAULT_PATH")
	v.BindEnv("remote_endpoint", "VAULTSYNC_REMOTE_ENDPOINT", "REMOTE_ENDPOINT", "WORKER_URL")
	v.BindEnv("webhook.secret", "VAULTSYNC_WEBHOOK_SECRET", "WEBHOOK_SECRET")

	// a .env inside the vault applies too, once the vault is known
	if vaultPath := v.GetString("vault_path"); vaultPath != "" {
		if root, err := utils.ResolvePath(vaultPath); err == nil {
			loadEnvFile(filepath.Join(root, envFileName))
		}
	}

	cfg := &Config{Path: v.ConfigFileUsed()}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config unmarshal: %w", err)
	}

	if cfg.VaultRoot != "" {
		root, err := utils.ResolvePath(cfg.VaultRoot)
		if err != nil {
			return nil, err
		}
		cfg.VaultRoot = root
	}
	cfg.Endpoint = strings.TrimRight(cfg.Endpoint, "/")

	return cfg, nil
}

func loadEnvFile(path string) {
	if utils.FileExists(path) {
		// Load never overrides variables that are already set
		_ = godotenv.Load(path)
	}
}

func bindFlag(v *viper.Viper, cmd *cobra.Command, key, flag string) {
	if f := cmd.Flags().Lookup(flag); f != nil {
		v.BindPFlag(key, f)
	}
}
