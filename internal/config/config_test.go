package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWithEnvSecret(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("GITCORD_AUTH_JWT_SECRET", "test-secret-at-least-16-chars!!")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "https://api.github.com", cfg.GitHub.APIURL)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, "http://localhost:8080/auth/github/callback", cfg.GitHub.CallbackURL)
	assert.Empty(t, cfg.Redis.Addr)
	assert.Zero(t, cfg.GitHub.MaxCommitPages)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	path := filepath.Join(dir, "gitcord.yaml")
	yaml := []byte("server:\n  port: 9000\nauth:\n  jwt_secret: file-secret-long-enough\nlog:\n  level: debug\n")
	require.NoError(t, os.WriteFile(path, yaml, 0o600))

	t.Setenv("GITCORD_SERVER_PORT", "9100")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "file-secret-long-enough", cfg.Auth.JWTSecret)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
		[]byte("GITCORD_AUTH_JWT_SECRET=dotenv-secret-long-enough\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("GITCORD_AUTH_JWT_SECRET") })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "dotenv-secret-long-enough", cfg.Auth.JWTSecret)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Server:   ServerConfig{Port: 8080},
			Database: DatabaseConfig{Driver: "sqlite"},
			Auth:     AuthConfig{JWTSecret: "0123456789abcdef"},
			GitHub:   GitHubConfig{RequestsPerSecond: 5},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"short secret", func(c *Config) { c.Auth.JWTSecret = "short" }, true},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }, true},
		{"unknown driver", func(c *Config) { c.Database.Driver = "postgres" }, true},
		{"mongo driver", func(c *Config) { c.Database.Driver = "mongo" }, false},
		{"zero rate", func(c *Config) { c.GitHub.RequestsPerSecond = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
