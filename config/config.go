// Package config 负责加载服务配置：默认值 -> YAML 文件 -> .env / 环境变量。
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ConfigPathEnvVar 可覆盖配置文件路径
const ConfigPathEnvVar = "CONFIG_PATH"

// DefaultConfigPaths 按顺序查找，第一个存在的文件生效
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/foodgram/config.yaml",
}

type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Redis    RedisConfig    `koanf:"redis"`
	Media    MediaConfig    `koanf:"media"`
	Report   ReportConfig   `koanf:"report"`
	Security SecurityConfig `koanf:"security"`
	API      APIConfig      `koanf:"api"`
	Logging  LoggingConfig  `koanf:"logging"`
}

type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	Mode            string        `koanf:"mode"` // gin 模式: debug, release, test
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// Addr 返回监听地址
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type DatabaseConfig struct {
	Driver       string `koanf:"driver"` // sqlite | postgres
	DSN          string `koanf:"dsn"`
	MaxOpenConns int    `koanf:"max_open_conns"`
	MaxIdleConns int    `koanf:"max_idle_conns"`
	LogQueries   bool   `koanf:"log_queries"`
}

type RedisConfig struct {
	Enabled  bool          `koanf:"enabled"`
	Addr     string        `koanf:"addr"`
	Password string        `koanf:"password"`
	DB       int           `koanf:"db"`
	CacheTTL time.Duration `koanf:"cache_ttl"`
}

type MediaConfig struct {
	Root         string `koanf:"root"`
	URL          string `koanf:"url"`
	MaxImageSide int    `koanf:"max_image_side"`
}

type ReportConfig struct {
	// FontPath 为空时使用内置 Go Regular 字体
	FontPath string `koanf:"font_path"`
}

type SecurityConfig struct {
	CORSOrigins      []string      `koanf:"cors_origins"`
	BcryptCost       int           `koanf:"bcrypt_cost"`
	LoginRateLimit   int           `koanf:"login_rate_limit"`
	LoginRateWindow  time.Duration `koanf:"login_rate_window"`
	LoginRateEnabled bool          `koanf:"login_rate_enabled"`
}

type APIConfig struct {
	DefaultPageSize int `koanf:"default_page_size"`
	MaxPageSize     int `koanf:"max_page_size"`
}

type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Default 返回全部默认值
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            1234,
			Mode:            "release",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			Driver:       "sqlite",
			DSN:          "foodgram.db",
			MaxOpenConns: 10,
			MaxIdleConns: 5,
		},
		Redis: RedisConfig{
			Enabled:  false,
			Addr:     "127.0.0.1:6379",
			CacheTTL: 5 * time.Minute,
		},
		Media: MediaConfig{
			Root:         "media",
			URL:          "/media/",
			MaxImageSide: 1280,
		},
		Security: SecurityConfig{
			CORSOrigins:      []string{"*"},
			BcryptCost:       12,
			LoginRateLimit:   10,
			LoginRateWindow:  time.Minute,
			LoginRateEnabled: true,
		},
		API: APIConfig{
			DefaultPageSize: 6,
			MaxPageSize:     100,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load 加载配置，优先级：环境变量 > 配置文件 > 默认值
func Load() (*Config, error) {
	// .env 不存在不是错误
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	k := koanf.New(".")
	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// envMappings 环境变量 -> koanf 路径；未列出的变量被忽略
var envMappings = map[string]string{
	"http_host":             "server.host",
	"http_port":             "server.port",
	"gin_mode":              "server.mode",
	"http_read_timeout":     "server.read_timeout",
	"http_write_timeout":    "server.write_timeout",
	"http_shutdown_timeout": "server.shutdown_timeout",

	"db_driver":         "database.driver",
	"db_dsn":            "database.dsn",
	"db_max_open_conns": "database.max_open_conns",
	"db_max_idle_conns": "database.max_idle_conns",
	"db_log_queries":    "database.log_queries",

	"redis_enabled":   "redis.enabled",
	"redis_addr":      "redis.addr",
	"redis_password":  "redis.password",
	"redis_db":        "redis.db",
	"redis_cache_ttl": "redis.cache_ttl",

	"media_root":           "media.root",
	"media_url":            "media.url",
	"media_max_image_side": "media.max_image_side",

	"report_font_path": "report.font_path",

	"cors_origins":       "security.cors_origins",
	"bcrypt_cost":        "security.bcrypt_cost",
	"login_rate_limit":   "security.login_rate_limit",
	"login_rate_window":  "security.login_rate_window",
	"login_rate_enabled": "security.login_rate_enabled",

	"api_default_page_size": "api.default_page_size",
	"api_max_page_size":     "api.max_page_size",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}

var sliceConfigPaths = []string{"security.cors_origins"}

// processSliceFields 把逗号分隔的环境变量转换为切片
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		s, ok := k.Get(path).(string)
		if !ok || s == "" {
			continue
		}
		var parts []string
		for _, p := range strings.Split(s, ",") {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		if err := k.Set(path, parts); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}
