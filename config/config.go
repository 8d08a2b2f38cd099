package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
)

// AppConfig holds the runtime configuration, populated from environment
// variables by Load.
type AppConfig struct {
	PortalURL string `env:"ENCODE_PORTAL_URL" envDefault:"https://www.encodeproject.org"`
	CacheDir  string `env:"ENCODE_CACHE_DIR"`
	FilesDir  string `env:"ENCODE_FILES_DIR" envDefault:"files"`
	LogLevel  string `env:"ENCODE_LOG_LEVEL" envDefault:"info"`

	Persistence PersistenceConfig `envPrefix:"ENCODE_PERSISTENCE_"`

	// Per-call request deadlines: metadata lookups are short, the bulk
	// listing and file transfers are long.
	MetadataTimeout time.Duration `env:"ENCODE_METADATA_TIMEOUT" envDefault:"30s"`
	ListingTimeout  time.Duration `env:"ENCODE_LISTING_TIMEOUT"  envDefault:"120s"`
	TransferTimeout time.Duration `env:"ENCODE_TRANSFER_TIMEOUT" envDefault:"300s"`

	Transport string `env:"ENCODE_MCP_TRANSPORT" envDefault:"stdio"`
	HTTPAddr  string `env:"ENCODE_MCP_HTTP_ADDR" envDefault:"localhost:8080"`
}

// PersistenceConfig selects the metadata cache backend.
type PersistenceConfig struct {
	Type string   `env:"TYPE" envDefault:"filesystem"`
	S3   S3Config `envPrefix:"S3_"`
}

// S3Config configures the s3 cache backend.
type S3Config struct {
	Endpoint  string        `env:"ENDPOINT"`
	Region    string        `env:"REGION"`
	Bucket    string        `env:"BUCKET"`
	KeyID     string        `env:"KEY_ID"`
	AccessKey string        `env:"ACCESS_KEY"`
	Timeout   time.Duration `env:"TIMEOUT" envDefault:"30s"`
}

// Load parses the environment into an AppConfig. The cache directory
// defaults to ~/.encode_cache when unset.
func Load() (*AppConfig, error) {
	cfg := &AppConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if cfg.CacheDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home directory: %w", err)
		}
		cfg.CacheDir = filepath.Join(homeDir, ".encode_cache")
	}

	return cfg, nil
}
