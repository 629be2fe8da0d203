package blob

import (
	"fmt"

	"github.com/delorenj/vaultsync/internal/utils"
)

const (
	DriverS3     = "s3"
	DriverMemory = "memory"
)

type S3Config struct {
	Driver        string `mapstructure:"driver"`
	BucketName    string `mapstructure:"bucket_name"`
	Region        string `mapstructure:"region"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	Endpoint      string `mapstructure:"endpoint"`
	UseAccelerate bool   `mapstructure:"use_accelerate"`
}

func (c *S3Config) Validate() error {
	switch c.Driver {
	case DriverMemory:
		return nil
	case DriverS3, "":
	default:
		return fmt.Errorf("unknown blob driver %q", c.Driver)
	}

	if c.BucketName == "" {
		return fmt.Errorf("bucket_name required")
	}
	if c.Region == "" {
		return fmt.Errorf("region required")
	}
	if c.AccessKey == "" {
		return fmt.Errorf("access_key required")
	}
	if c.SecretKey == "" {
		return fmt.Errorf("secret_key required")
	}
	if c.Endpoint != "" && !utils.IsValidURL(c.Endpoint) {
		return fmt.Errorf("invalid endpoint URL %q", c.Endpoint)
	}
	return nil
}

// NewBackend builds the backend selected by cfg.Driver
func NewBackend(cfg *S3Config) (Backend, error) {
	if cfg.Driver == DriverMemory {
		return NewMemoryBackend(), nil
	}
	return NewS3BackendWithConfig(cfg)
}
