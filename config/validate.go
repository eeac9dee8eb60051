package config

import (
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Validate 检查配置是否完整、合法
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("GIN_MODE must be debug, release or test, got %q", c.Server.Mode)
	}

	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("DB_DRIVER must be sqlite or postgres, got %q", c.Database.Driver)
	}
	if strings.TrimSpace(c.Database.DSN) == "" {
		return fmt.Errorf("DB_DSN is required")
	}

	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("REDIS_ADDR is required when REDIS_ENABLED=true")
	}
	if c.Redis.CacheTTL <= 0 {
		return fmt.Errorf("REDIS_CACHE_TTL must be positive")
	}

	if c.Media.Root == "" {
		return fmt.Errorf("MEDIA_ROOT is required")
	}
	if !strings.HasPrefix(c.Media.URL, "/") || !strings.HasSuffix(c.Media.URL, "/") {
		return fmt.Errorf("MEDIA_URL must start and end with '/', got %q", c.Media.URL)
	}
	if c.Media.MaxImageSide < 16 {
		return fmt.Errorf("MEDIA_MAX_IMAGE_SIDE must be at least 16")
	}

	if c.Security.BcryptCost < bcrypt.MinCost || c.Security.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	if c.Security.LoginRateEnabled && (c.Security.LoginRateLimit <= 0 || c.Security.LoginRateWindow <= 0) {
		return fmt.Errorf("LOGIN_RATE_LIMIT and LOGIN_RATE_WINDOW must be positive")
	}

	if c.API.DefaultPageSize <= 0 || c.API.MaxPageSize < c.API.DefaultPageSize {
		return fmt.Errorf("invalid page sizes: default=%d max=%d", c.API.DefaultPageSize, c.API.MaxPageSize)
	}

	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
	return nil
}
