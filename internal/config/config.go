package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Storage and blob drivers
const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"

	BlobDriverS3     = "s3"
	BlobDriverLocal  = "local"
	BlobDriverMemory = "memory"
)

type Config struct {
	Port          string
	Environment   string
	DatabaseURL   string
	StorageDriver string
	TablePrefix   string
	JWKSURL       string
	CORSOrigins   string
	PublicBaseURL string

	// Byte storage
	BlobDriver        string
	BlobLocalDir      string
	S3Bucket          string
	S3Region          string
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string
	BlobFetchTimeout  time.Duration
	MaxUploadBytes    int64

	// Notifications
	RedisURL      string
	NotifyChannel string

	// Domain limits
	MaxShareDays   int
	AuditRetention int

	// Logging
	LogDir      string
	LogMaxFiles int
}

// Load reads configuration from the environment. When CONFIG_FILE points at a
// YAML file its keys (same names as the environment variables) provide
// defaults; real environment variables always win.
func Load() (*Config, error) {
	src := source{}
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := src.loadFile(path); err != nil {
			return nil, err
		}
	}

	env := src.get("ENVIRONMENT", "dev")

	cfg := &Config{
		Port:              src.get("PORT", "8080"),
		Environment:       env,
		DatabaseURL:       src.get("DATABASE_URL", ""),
		StorageDriver:     src.get("STORAGE_DRIVER", StorageDriverPostgres),
		TablePrefix:       src.get("TABLE_PREFIX", getTablePrefix(env)),
		JWKSURL:           src.get("JWKS_URL", ""),
		CORSOrigins:       src.get("CORS_ORIGINS", "http://localhost:3000"),
		PublicBaseURL:     strings.TrimRight(src.get("PUBLIC_BASE_URL", "http://localhost:8080"), "/"),
		BlobDriver:        src.get("BLOB_DRIVER", BlobDriverLocal),
		BlobLocalDir:      src.get("BLOB_LOCAL_DIR", "./data/blobs"),
		S3Bucket:          src.get("S3_BUCKET", ""),
		S3Region:          src.get("S3_REGION", "us-east-1"),
		S3Endpoint:        src.get("S3_ENDPOINT", ""),
		S3AccessKeyID:     src.get("S3_ACCESS_KEY_ID", ""),
		S3SecretAccessKey: src.get("S3_SECRET_ACCESS_KEY", ""),
		RedisURL:          src.get("REDIS_URL", ""),
		NotifyChannel:     src.get("NOTIFY_CHANNEL", "campusdocs.notifications"),
		LogDir:            src.get("LOG_DIR", ""),
	}

	var err error
	if cfg.BlobFetchTimeout, err = time.ParseDuration(src.get("BLOB_FETCH_TIMEOUT", "15s")); err != nil {
		return nil, fmt.Errorf("BLOB_FETCH_TIMEOUT: %w", err)
	}
	if cfg.MaxUploadBytes, err = strconv.ParseInt(src.get("MAX_UPLOAD_BYTES", strconv.Itoa(DefaultMaxUploadBytes)), 10, 64); err != nil {
		return nil, fmt.Errorf("MAX_UPLOAD_BYTES: %w", err)
	}
	if cfg.MaxShareDays, err = strconv.Atoi(src.get("MAX_SHARE_DAYS", strconv.Itoa(DefaultMaxShareDays))); err != nil {
		return nil, fmt.Errorf("MAX_SHARE_DAYS: %w", err)
	}
	if cfg.AuditRetention, err = strconv.Atoi(src.get("AUDIT_RETENTION", "0")); err != nil {
		return nil, fmt.Errorf("AUDIT_RETENTION: %w", err)
	}
	if cfg.LogMaxFiles, err = strconv.Atoi(src.get("LOG_MAX_FILES", "10")); err != nil {
		return nil, fmt.Errorf("LOG_MAX_FILES: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field requirements
func (c *Config) Validate() error {
	switch c.StorageDriver {
	case StorageDriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORAGE_DRIVER=%s", StorageDriverPostgres)
		}
	case StorageDriverMemory:
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}

	switch c.BlobDriver {
	case BlobDriverS3:
		if c.S3Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required when BLOB_DRIVER=%s", BlobDriverS3)
		}
	case BlobDriverLocal, BlobDriverMemory:
	default:
		return fmt.Errorf("unknown BLOB_DRIVER %q", c.BlobDriver)
	}

	if c.MaxShareDays < 1 {
		return fmt.Errorf("MAX_SHARE_DAYS must be at least 1")
	}
	if c.AuditRetention < 0 {
		return fmt.Errorf("AUDIT_RETENTION cannot be negative")
	}
	return nil
}

// IsDev reports whether the service runs in the dev environment
func (c *Config) IsDev() bool {
	return c.Environment == "dev"
}

// getTablePrefix returns the table prefix based on environment
func getTablePrefix(env string) string {
	switch env {
	case "prod":
		return "prod_"
	case "test":
		return "test_"
	default:
		return "dev_"
	}
}

// source resolves a key from the environment first, then the config file
type source map[string]string

func (s source) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	raw := map[string]any{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	for k, v := range raw {
		s[strings.ToUpper(k)] = fmt.Sprint(v)
	}
	return nil
}

func (s source) get(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	if value, ok := s[key]; ok && value != "" {
		return value
	}
	return defaultValue
}
