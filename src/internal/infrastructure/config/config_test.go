package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_DecodesAndAppliesDefaults(t *testing.T) {
	// Arrange
	path := writeConfig(t, `
[server]
addr = ":9090"

[db]
driver = "postgres"
dsn = "host=localhost user=quest dbname=quest sslmode=disable"

[auth]
jwt_secret = "secret"

[social]
timeout_seconds = 5
`)

	// Act
	cfg, err := Load(path)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 15*time.Second, cfg.Server.ShutdownTimeout())
	assert.Equal(t, "postgres", cfg.DB.Driver)
	assert.Equal(t, 5*time.Second, cfg.Social.Timeout())
	assert.Equal(t, 7*24*time.Hour, cfg.Social.Lookback())
	assert.Equal(t, 7, cfg.Engine.BusinessUTCOffsetHours)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv(EnvDBDSN, "file:override.db")
	t.Setenv(EnvJWTSecret, "from-env")
	t.Setenv(EnvFacebookBaseURL, "http://graph.local")

	cfg, err := Load("")

	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.DB.Driver)
	assert.Equal(t, "file:override.db", cfg.DB.DSN)
	assert.Equal(t, "from-env", cfg.Auth.JWTSecret)
	assert.Equal(t, "http://graph.local", cfg.Social.BaseURL)
}

func TestLoad_MissingSecret(t *testing.T) {
	t.Setenv(EnvJWTSecret, "")

	_, err := Load(writeConfig(t, "[db]\ndriver = \"sqlite\"\n"))

	assert.Error(t, err)
}

func TestLoad_UnknownField(t *testing.T) {
	t.Setenv(EnvJWTSecret, "s")

	_, err := Load(writeConfig(t, "[db]\ndrvier = \"sqlite\"\n"))

	assert.Error(t, err)
}

func TestLoad_UnsupportedDriver(t *testing.T) {
	t.Setenv(EnvJWTSecret, "s")

	_, err := Load(writeConfig(t, "[db]\ndriver = \"mysql\"\ndsn = \"x\"\n"))

	assert.Error(t, err)
}

func TestLoad_ExampleFile(t *testing.T) {
	t.Setenv(EnvDBDSN, "postgres://quest@localhost/quest")
	t.Setenv(EnvJWTSecret, "from-env")

	cfg, err := Load(filepath.Join("..", "..", "..", "..", "configs", "config.example.toml"))

	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.DB.Driver)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.True(t, cfg.DB.AutoMigrate)
	assert.Equal(t, time.Minute, cfg.Engine.SettingsCacheTTL())
}
