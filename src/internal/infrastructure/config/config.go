package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// 環境變數覆寫（機密不寫入設定檔）
const (
	EnvDBDSN           = "QUEST_DB_DSN"
	EnvJWTSecret       = "QUEST_JWT_SECRET"
	EnvFacebookBaseURL = "QUEST_FACEBOOK_BASE_URL"
)

// Config 服務設定
type Config struct {
	Server ServerConfig `toml:"server"`
	DB     DBConfig     `toml:"db"`
	Log    LogConfig    `toml:"log"`
	Auth   AuthConfig   `toml:"auth"`
	Social SocialConfig `toml:"social"`
	Engine EngineConfig `toml:"engine"`
}

type ServerConfig struct {
	Addr                   string `toml:"addr"`
	ShutdownTimeoutSeconds int    `toml:"shutdown_timeout_seconds"`
}

// ShutdownTimeout 優雅關閉的時間上限
func (c ServerConfig) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSeconds) * time.Second
}

type DBConfig struct {
	// Driver sqlite 或 postgres
	Driver                 string `toml:"driver"`
	DSN                    string `toml:"dsn"`
	MaxOpenConns           int    `toml:"max_open_conns"`
	MaxIdleConns           int    `toml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `toml:"conn_max_lifetime_minutes"`
	SlowQueryMillis        int    `toml:"slow_query_millis"`
	LogSQL                 bool   `toml:"log_sql"`
	AutoMigrate            bool   `toml:"auto_migrate"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

type AuthConfig struct {
	JWTSecret string `toml:"jwt_secret"`
	Issuer    string `toml:"issuer"`
}

type SocialConfig struct {
	BaseURL        string `toml:"base_url"`
	APIVersion     string `toml:"api_version"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	LookbackDays   int    `toml:"lookback_days"`
	MaxConcurrent  int64  `toml:"max_concurrent"`
}

// Timeout 單次社群驗證的時間上限
func (c SocialConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Lookback 社群驗證查詢區間
func (c SocialConfig) Lookback() time.Duration {
	return time.Duration(c.LookbackDays) * 24 * time.Hour
}

type EngineConfig struct {
	// BusinessUTCOffsetHours 營業日時區（泰國 UTC+7）
	BusinessUTCOffsetHours  int `toml:"business_utc_offset_hours"`
	SettingsCacheSize       int `toml:"settings_cache_size"`
	SettingsCacheTTLSeconds int `toml:"settings_cache_ttl_seconds"`
}

// SettingsCacheTTL 設定快取有效期
func (c EngineConfig) SettingsCacheTTL() time.Duration {
	return time.Duration(c.SettingsCacheTTLSeconds) * time.Second
}

// Load 讀取 TOML 設定檔、套用環境變數與預設值
//
// path 為空字串時只使用預設值與環境變數。
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open config: %w", err)
		}
		defer file.Close()

		if err := toml.NewDecoder(file).DisallowUnknownFields().Decode(&cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config: %w", err)
		}
	}

	cfg.applyEnv(os.Getenv)
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	if v := getenv(EnvDBDSN); v != "" {
		c.DB.DSN = v
	}
	if v := getenv(EnvJWTSecret); v != "" {
		c.Auth.JWTSecret = v
	}
	if v := getenv(EnvFacebookBaseURL); v != "" {
		c.Social.BaseURL = v
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.ShutdownTimeoutSeconds <= 0 {
		c.Server.ShutdownTimeoutSeconds = 15
	}

	if c.DB.Driver == "" {
		c.DB.Driver = "sqlite"
	}
	if c.DB.DSN == "" && c.DB.Driver == "sqlite" {
		c.DB.DSN = "file:quest.db?_busy_timeout=5000&_journal_mode=WAL&_txlock=immediate"
	}
	if c.DB.MaxOpenConns <= 0 {
		c.DB.MaxOpenConns = 20
	}
	if c.DB.MaxIdleConns <= 0 {
		c.DB.MaxIdleConns = 5
	}
	if c.DB.ConnMaxLifetimeMinutes <= 0 {
		c.DB.ConnMaxLifetimeMinutes = 30
	}
	if c.DB.SlowQueryMillis <= 0 {
		c.DB.SlowQueryMillis = 200
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}

	if c.Auth.Issuer == "" {
		c.Auth.Issuer = "quest-crm"
	}

	if c.Social.TimeoutSeconds <= 0 {
		c.Social.TimeoutSeconds = 10
	}
	if c.Social.LookbackDays <= 0 {
		c.Social.LookbackDays = 7
	}
	if c.Social.MaxConcurrent <= 0 {
		c.Social.MaxConcurrent = 16
	}

	if c.Engine.BusinessUTCOffsetHours == 0 {
		c.Engine.BusinessUTCOffsetHours = 7
	}
	if c.Engine.SettingsCacheSize <= 0 {
		c.Engine.SettingsCacheSize = 64
	}
	if c.Engine.SettingsCacheTTLSeconds <= 0 {
		c.Engine.SettingsCacheTTLSeconds = 60
	}
}

// Validate 檢查必要欄位
func (c *Config) Validate() error {
	switch strings.ToLower(c.DB.Driver) {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported db driver %q", c.DB.Driver)
	}
	if c.DB.DSN == "" {
		return fmt.Errorf("db dsn is required (set %s)", EnvDBDSN)
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("jwt secret is required (set %s)", EnvJWTSecret)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("unsupported log format %q", c.Log.Format)
	}
	if c.Engine.BusinessUTCOffsetHours < -12 || c.Engine.BusinessUTCOffsetHours > 14 {
		return fmt.Errorf("business_utc_offset_hours out of range: %d", c.Engine.BusinessUTCOffsetHours)
	}
	return nil
}
