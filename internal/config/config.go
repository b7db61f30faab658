// Package config loads server settings from the environment, an optional .env
// file and an optional config.yaml.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Store drivers.
const (
	DriverFile   = "file"
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
	DriverS3     = "s3"
)

type Config struct {
	Port            int           `mapstructure:"SUBSPLIT_PORT"`
	LogLevel        string        `mapstructure:"SUBSPLIT_LOG_LEVEL"`
	LogFormat       string        `mapstructure:"SUBSPLIT_LOG_FORMAT"`
	ShutdownTimeout time.Duration `mapstructure:"SUBSPLIT_SHUTDOWN_TIMEOUT"`

	StoreDriver string `mapstructure:"SUBSPLIT_STORE_DRIVER"`
	DataFile    string `mapstructure:"SUBSPLIT_DATA_FILE"`
	DBPath      string `mapstructure:"SUBSPLIT_DB_PATH"`
	RedisURL    string `mapstructure:"SUBSPLIT_REDIS_URL"`
	RedisKey    string `mapstructure:"SUBSPLIT_REDIS_KEY"`

	S3Region    string `mapstructure:"SUBSPLIT_S3_REGION"`
	S3Bucket    string `mapstructure:"SUBSPLIT_S3_BUCKET"`
	S3Key       string `mapstructure:"SUBSPLIT_S3_KEY"`
	S3Endpoint  string `mapstructure:"SUBSPLIT_S3_ENDPOINT"`
	S3AccessKey string `mapstructure:"SUBSPLIT_S3_ACCESS_KEY"`
	S3SecretKey string `mapstructure:"SUBSPLIT_S3_SECRET_KEY"`

	JWTSecret   string        `mapstructure:"SUBSPLIT_JWT_SECRET"`
	TokenTTL    time.Duration `mapstructure:"SUBSPLIT_TOKEN_TTL"`
	APIKeyHash  string        `mapstructure:"SUBSPLIT_API_KEY_HASH"`
	CORSOrigins []string      `mapstructure:"SUBSPLIT_CORS_ORIGINS"`
}

var defaults = map[string]interface{}{
	"SUBSPLIT_PORT":             8080,
	"SUBSPLIT_LOG_LEVEL":        "info",
	"SUBSPLIT_LOG_FORMAT":       "text",
	"SUBSPLIT_SHUTDOWN_TIMEOUT": "10s",
	"SUBSPLIT_STORE_DRIVER":     DriverFile,
	"SUBSPLIT_DATA_FILE":        "./data/subscriptions_data.json",
	"SUBSPLIT_DB_PATH":          "./data/subsplit.db",
	"SUBSPLIT_REDIS_URL":        "redis://localhost:6379/0",
	"SUBSPLIT_REDIS_KEY":        "subsplit:ledger",
	"SUBSPLIT_S3_REGION":        "",
	"SUBSPLIT_S3_BUCKET":        "",
	"SUBSPLIT_S3_KEY":           "subsplit/subscriptions_data.json",
	"SUBSPLIT_S3_ENDPOINT":      "",
	"SUBSPLIT_S3_ACCESS_KEY":    "",
	"SUBSPLIT_S3_SECRET_KEY":    "",
	"SUBSPLIT_JWT_SECRET":       "",
	"SUBSPLIT_TOKEN_TTL":        "24h",
	"SUBSPLIT_API_KEY_HASH":     "",
	"SUBSPLIT_CORS_ORIGINS":     []string{"*"},
}

// Load reads dir/.env into the environment (existing variables win), then
// resolves every setting from the environment, dir/config.yaml and defaults,
// in that order of precedence.
func Load(dir string) (*Config, error) {
	if err := godotenv.Load(filepath.Join(dir, ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	v.AutomaticEnv()

	// AutomaticEnv only resolves keys viper already knows about.
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config.yaml: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(cfg.StoreDriver))
	return &cfg, nil
}

// Validate reports the first setting that would keep the server from starting.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format %q: want text or json", c.LogFormat)
	}

	switch c.StoreDriver {
	case DriverFile:
		if c.DataFile == "" {
			return errors.New("SUBSPLIT_DATA_FILE is required for the file store")
		}
	case DriverSQLite:
		if c.DBPath == "" {
			return errors.New("SUBSPLIT_DB_PATH is required for the sqlite store")
		}
	case DriverRedis:
		if c.RedisURL == "" {
			return errors.New("SUBSPLIT_REDIS_URL is required for the redis store")
		}
	case DriverS3:
		if c.S3Bucket == "" || c.S3Region == "" {
			return errors.New("SUBSPLIT_S3_BUCKET and SUBSPLIT_S3_REGION are required for the s3 store")
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.StoreDriver)
	}

	if c.JWTSecret == "" {
		return errors.New("SUBSPLIT_JWT_SECRET is required")
	}
	if c.APIKeyHash == "" {
		return errors.New("SUBSPLIT_API_KEY_HASH is required (generate one with cmd/keyhash)")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("invalid token ttl %s", c.TokenTTL)
	}
	return nil
}
