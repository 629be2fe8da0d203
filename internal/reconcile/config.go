package reconcile

import (
	"errors"
	"fmt"
	"time"
)

const (
	DefaultBatchSize         = 50
	DefaultMaxFileSize       = 10 * 1024 * 1024
	DefaultReadConcurrency   = 8
	DefaultUploadConcurrency = 1
	DefaultDeleteConcurrency = 8
	DefaultRequestTimeout    = 30 * time.Second
)

const (
	CompareMetadata = "metadata"
	CompareHash     = "hash"
)

var (
	DefaultAllowedExtensions = []string{
		".md", ".txt", ".json", ".yml", ".yaml",
		".png", ".jpg", ".jpeg", ".gif", ".svg", ".webp",
		".pdf", ".csv", ".excalidraw",
	}
	DefaultIgnoredDirectories = []string{".obsidian", ".trash", "node_modules", ".git"}
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	VaultRoot          string        `mapstructure:"vault_path" json:"vaultPath"`
	Endpoint           string        `mapstructure:"remote_endpoint" json:"remoteEndpoint"`
	Prefix             string        `mapstructure:"prefix" json:"prefix,omitempty"`
	BatchSize          int           `mapstructure:"batch_size" json:"batchSize"`
	MaxFileSizeBytes   int64         `mapstructure:"max_file_size" json:"maxFileSize"`
	AllowedExtensions  []string      `mapstructure:"allowed_extensions" json:"allowedExtensions"`
	IgnoredDirectories []string      `mapstructure:"ignored_directories" json:"ignoredDirectories"`
	IncludePatterns    []string      `mapstructure:"include_patterns" json:"includePatterns,omitempty"`
	Compare            string        `mapstructure:"compare" json:"compare"`
	ReadConcurrency    int           `mapstructure:"read_concurrency" json:"readConcurrency"`
	UploadConcurrency  int           `mapstructure:"upload_concurrency" json:"uploadConcurrency"`
	DeleteConcurrency  int           `mapstructure:"delete_concurrency" json:"deleteConcurrency"`
	RequestTimeout     time.Duration `mapstructure:"request_timeout" json:"requestTimeout"`
	DryRun             bool          `mapstructure:"dry_run" json:"dryRun"`
}

func DefaultConfig() *Config {
	return &Config{
		BatchSize:          DefaultBatchSize,
		MaxFileSizeBytes:   DefaultMaxFileSize,
		AllowedExtensions:  append([]string(nil), DefaultAllowedExtensions...),
		IgnoredDirectories: append([]string(nil), DefaultIgnoredDirectories...),
		Compare:            CompareMetadata,
		ReadConcurrency:    DefaultReadConcurrency,
		UploadConcurrency:  DefaultUploadConcurrency,
		DeleteConcurrency:  DefaultDeleteConcurrency,
		RequestTimeout:     DefaultRequestTimeout,
	}
}

// Validate fills zero values with defaults and rejects impossible settings
func (c *Config) Validate() error {
	if c.VaultRoot == "" {
		return fmt.Errorf("%w: vault path required", ErrInvalidConfig)
	}

	if c.BatchSize == 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.MaxFileSizeBytes == 0 {
		c.MaxFileSizeBytes = DefaultMaxFileSize
	}
	if c.ReadConcurrency == 0 {
		c.ReadConcurrency = DefaultReadConcurrency
	}
	if c.UploadConcurrency == 0 {
		c.UploadConcurrency = DefaultUploadConcurrency
	}
	if c.DeleteConcurrency == 0 {
		c.DeleteConcurrency = DefaultDeleteConcurrency
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = DefaultRequestTimeout
	}
	if c.Compare == "" {
		c.Compare = CompareMetadata
	}

	switch {
	case c.BatchSize < 0:
		return fmt.Errorf("%w: batch size must be positive", ErrInvalidConfig)
	case c.MaxFileSizeBytes < 0:
		return fmt.Errorf("%w: max file size must be positive", ErrInvalidConfig)
	case c.ReadConcurrency < 0, c.UploadConcurrency < 0, c.DeleteConcurrency < 0:
		return fmt.Errorf("%w: concurrency must be positive", ErrInvalidConfig)
	case c.RequestTimeout < 0:
		return fmt.Errorf("%w: request timeout must be positive", ErrInvalidConfig)
	case c.Compare != CompareMetadata && c.Compare != CompareHash:
		return fmt.Errorf("%w: unknown compare strategy %q", ErrInvalidConfig, c.Compare)
	}

	return nil
}
