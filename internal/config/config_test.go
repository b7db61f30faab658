package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// unsetenv clears key for the duration of the test.
func unsetenv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	os.Unsetenv(key)
}

func clearEnv(t *testing.T) {
	t.Helper()
	for key := range defaults {
		unsetenv(t, key)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Port != 8080 {
		t.Errorf("Port: expected 8080, got %d", cfg.Port)
	}
	if cfg.StoreDriver != DriverFile {
		t.Errorf("StoreDriver: expected file, got %s", cfg.StoreDriver)
	}
	if cfg.DataFile != "./data/subscriptions_data.json" {
		t.Errorf("DataFile: got %s", cfg.DataFile)
	}
	if cfg.TokenTTL != 24*time.Hour {
		t.Errorf("TokenTTL: expected 24h, got %s", cfg.TokenTTL)
	}
	if cfg.ShutdownTimeout != 10*time.Second {
		t.Errorf("ShutdownTimeout: expected 10s, got %s", cfg.ShutdownTimeout)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "*" {
		t.Errorf("CORSOrigins: expected [*], got %v", cfg.CORSOrigins)
	}
}

func TestLoad_Precedence(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	yaml := "subsplit_port: 9090\nsubsplit_store_driver: sqlite\nsubsplit_redis_key: from-yaml\n"
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}
	dotenv := "SUBSPLIT_REDIS_KEY=from-dotenv\nSUBSPLIT_JWT_SECRET=dotenv-secret\n"
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(dotenv), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SUBSPLIT_PORT", "7070")
	t.Setenv("SUBSPLIT_TOKEN_TTL", "90m")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Port != 7070 {
		t.Errorf("env should override yaml: expected 7070, got %d", cfg.Port)
	}
	if cfg.StoreDriver != DriverSQLite {
		t.Errorf("yaml should override default: expected sqlite, got %s", cfg.StoreDriver)
	}
	if cfg.RedisKey != "from-dotenv" {
		t.Errorf(".env should override yaml: expected from-dotenv, got %s", cfg.RedisKey)
	}
	if cfg.JWTSecret != "dotenv-secret" {
		t.Errorf("JWTSecret: expected dotenv-secret, got %s", cfg.JWTSecret)
	}
	if cfg.TokenTTL != 90*time.Minute {
		t.Errorf("TokenTTL: expected 90m, got %s", cfg.TokenTTL)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("port: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(dir); err == nil {
		t.Error("expected an error for malformed config.yaml")
	}
}

func validConfig() *Config {
	return &Config{
		Port:        8080,
		LogFormat:   "text",
		StoreDriver: DriverFile,
		DataFile:    "data.json",
		JWTSecret:   "secret",
		APIKeyHash:  "$2a$10$hash",
		TokenTTL:    time.Hour,
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"bad port", func(c *Config) { c.Port = 0 }, "invalid port"},
		{"bad log format", func(c *Config) { c.LogFormat = "xml" }, "invalid log format"},
		{"unknown driver", func(c *Config) { c.StoreDriver = "mongo" }, "unknown store driver"},
		{"missing data file", func(c *Config) { c.DataFile = "" }, "SUBSPLIT_DATA_FILE"},
		{"sqlite without path", func(c *Config) { c.StoreDriver = DriverSQLite }, "SUBSPLIT_DB_PATH"},
		{"redis without url", func(c *Config) { c.StoreDriver = DriverRedis }, "SUBSPLIT_REDIS_URL"},
		{"s3 without bucket", func(c *Config) { c.StoreDriver = DriverS3; c.S3Region = "eu-west-1" }, "SUBSPLIT_S3_BUCKET"},
		{"missing jwt secret", func(c *Config) { c.JWTSecret = "" }, "SUBSPLIT_JWT_SECRET"},
		{"missing api key hash", func(c *Config) { c.APIKeyHash = "" }, "SUBSPLIT_API_KEY_HASH"},
		{"zero ttl", func(c *Config) { c.TokenTTL = 0 }, "invalid token ttl"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("expected no error, got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}
