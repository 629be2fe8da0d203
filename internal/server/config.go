package server

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/delorenj/vaultsync/internal/server/blob"
)

const (
	DefaultAddr          = "127.0.0.1:8787"
	DefaultRateLimit     = "600-M"
	DefaultIndexInterval = 15 * time.Minute
)

type Config struct {
	HTTP          HTTPConfig    `mapstructure:"http"`
	Blob          blob.S3Config `mapstructure:"blob"`
	DataDir       string        `mapstructure:"data_dir"`
	IndexInterval time.Duration `mapstructure:"index_interval"`
	// APIToken protects every facade route when set
	APIToken string `mapstructure:"api_token"`
}

type HTTPConfig struct {
	Addr      string `mapstructure:"addr"`
	CertFile  string `mapstructure:"cert_file"`
	KeyFile   string `mapstructure:"key_file"`
	RateLimit string `mapstructure:"rate_limit"`
}

func (c *HTTPConfig) TLS() bool {
	return c.CertFile != "" && c.KeyFile != ""
}

func (c *Config) Validate() error {
	if c.HTTP.Addr == "" {
		return fmt.Errorf("http.addr required")
	}
	if (c.HTTP.CertFile == "") != (c.HTTP.KeyFile == "") {
		return fmt.Errorf("http.cert_file and http.key_file must be set together")
	}
	if err := c.Blob.Validate(); err != nil {
		return fmt.Errorf("blob: %w", err)
	}
	return nil
}

// IndexPath is where the blob index database lives
func (c *Config) IndexPath() string {
	return filepath.Join(c.DataDir, "index.db")
}
