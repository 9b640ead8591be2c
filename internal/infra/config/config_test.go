package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWithSecretFromEnv(t *testing.T) {
	t.Setenv("SESSION_SECRET", "unit-test-secret")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":3000", cfg.HTTP.Address)
	require.Equal(t, "connect_session", cfg.Session.CookieName)
	require.Equal(t, time.Hour, cfg.Session.AccessTokenTTL)
	require.Equal(t, 24*time.Hour, cfg.Session.MaxAge)
	require.Equal(t, StoreCookie, cfg.Session.Store)
}

func TestLoad_FileAndEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
http:
  address: ":4000"
backend:
  baseUrl: "http://backend:9000"
session:
  secret: "file-secret"
  maxAge: 12h
`), 0o600))

	t.Setenv("CONFIG_PATH", path)
	t.Setenv("SESSION_COOKIE_NAME", "gateway_session")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":4000", cfg.HTTP.Address)
	require.Equal(t, "http://backend:9000", cfg.Backend.BaseURL)
	require.Equal(t, "file-secret", cfg.Session.Secret)
	require.Equal(t, 12*time.Hour, cfg.Session.MaxAge)
	require.Equal(t, "gateway_session", cfg.Session.CookieName, "env override wins over file")
}

func TestValidate_Rejections(t *testing.T) {
	base := func() *Config {
		cfg := defaultConfig()
		cfg.Session.Secret = "s"
		return cfg
	}

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing secret", func(c *Config) { c.Session.Secret = " " }},
		{"missing backend url", func(c *Config) { c.Backend.BaseURL = "" }},
		{"max age shorter than token ttl", func(c *Config) { c.Session.MaxAge = 30 * time.Minute }},
		{"unknown store", func(c *Config) { c.Session.Store = "memcached" }},
		{"valkey store without addr", func(c *Config) { c.Session.Store = StoreValkey }},
		{"oidc without issuer", func(c *Config) { c.OIDC.Enabled = true; c.OIDC.RedirectURL = "http://x/cb" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base()
			tc.mutate(cfg)
			require.Error(t, cfg.Validate())
		})
	}
}
