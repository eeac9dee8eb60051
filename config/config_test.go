package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "HTTP_PORT"},
		{"bad mode", func(c *Config) { c.Server.Mode = "prod" }, "GIN_MODE"},
		{"bad driver", func(c *Config) { c.Database.Driver = "mysql" }, "DB_DRIVER"},
		{"empty dsn", func(c *Config) { c.Database.DSN = " " }, "DB_DSN"},
		{"redis without addr", func(c *Config) { c.Redis.Enabled = true; c.Redis.Addr = "" }, "REDIS_ADDR"},
		{"media url", func(c *Config) { c.Media.URL = "media" }, "MEDIA_URL"},
		{"bcrypt cost", func(c *Config) { c.Security.BcryptCost = 1 }, "BCRYPT_COST"},
		{"page size", func(c *Config) { c.API.MaxPageSize = 1 }, "page sizes"},
		{"log format", func(c *Config) { c.Logging.Format = "xml" }, "LOG_FORMAT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(c)
			err := c.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q should mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := "server:\n  port: 8080\ndatabase:\n  dsn: from-file.db\nredis:\n  cache_ttl: 1m\n"
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}

	// .env 在工作目录查找，切换到临时目录避免读到仓库文件
	wd, _ := os.Getwd()
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })

	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("DB_DSN", "from-env.db")
	t.Setenv("CORS_ORIGINS", "http://a.example, http://b.example")
	t.Setenv("LOGIN_RATE_WINDOW", "30s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("port from file: got %d", cfg.Server.Port)
	}
	if cfg.Database.DSN != "from-env.db" {
		t.Errorf("env should override file: got %q", cfg.Database.DSN)
	}
	if cfg.Redis.CacheTTL != time.Minute {
		t.Errorf("cache ttl: got %v", cfg.Redis.CacheTTL)
	}
	if cfg.Security.LoginRateWindow != 30*time.Second {
		t.Errorf("rate window: got %v", cfg.Security.LoginRateWindow)
	}
	if len(cfg.Security.CORSOrigins) != 2 || cfg.Security.CORSOrigins[1] != "http://b.example" {
		t.Errorf("cors origins: got %v", cfg.Security.CORSOrigins)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("driver default: got %q", cfg.Database.Driver)
	}
}
