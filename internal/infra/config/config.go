package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config aggregates runtime configuration used across the gateway.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Backend  BackendConfig  `yaml:"backend"`
	Session  SessionConfig  `yaml:"session"`
	Frontend FrontendConfig `yaml:"frontend"`
	OIDC     OIDCConfig     `yaml:"oidc"`
}

// HTTPConfig controls server level behavior.
type HTTPConfig struct {
	Address        string          `yaml:"address"`
	ReadTimeout    time.Duration   `yaml:"readTimeout"`
	WriteTimeout   time.Duration   `yaml:"writeTimeout"`
	AllowedOrigins []string        `yaml:"allowedOrigins"`
	RateLimit      RateLimitConfig `yaml:"rateLimit"`
}

// RateLimitConfig drives the request limiting middleware.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requestsPerMinute"`
	Burst             int  `yaml:"burst"`
}

// BackendConfig points the gateway at the document API it fronts.
type BackendConfig struct {
	BaseURL    string        `yaml:"baseUrl"`
	Timeout    time.Duration `yaml:"timeout"`
	RetryCount int           `yaml:"retryCount"`
	RetryWait  time.Duration `yaml:"retryWait"`
}

// SessionConfig controls the session artifact and its lifetimes.
type SessionConfig struct {
	Secret         string        `yaml:"secret"`
	CookieName     string        `yaml:"cookieName"`
	AccessTokenTTL time.Duration `yaml:"accessTokenTtl"`
	MaxAge         time.Duration `yaml:"maxAge"`
	Store          string        `yaml:"store"`
	Valkey         ValkeyConfig  `yaml:"valkey"`
}

// ValkeyConfig contains connection information for the server-side session store.
type ValkeyConfig struct {
	Addr string `yaml:"addr"`
}

// FrontendConfig optionally points page navigations at the UI origin.
type FrontendConfig struct {
	UpstreamURL string `yaml:"upstreamUrl"`
}

// OIDCConfig enables the provider-managed sign-in alternative.
type OIDCConfig struct {
	Enabled      bool     `yaml:"enabled"`
	IssuerURL    string   `yaml:"issuerUrl"`
	ClientID     string   `yaml:"clientId"`
	ClientSecret string   `yaml:"clientSecret"`
	RedirectURL  string   `yaml:"redirectUrl"`
	Scopes       []string `yaml:"scopes"`
}

const (
	// StoreCookie seals the whole session into the cookie itself.
	StoreCookie = "cookie"
	// StoreValkey keeps the session server-side, the cookie carries an id.
	StoreValkey = "valkey"
)

// Load reads configuration from a YAML file and environment variables.
func Load() (*Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := hydrateFromFile(cfg, path); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat("configs/config.yaml"); err == nil {
		if err := hydrateFromFile(cfg, "configs/config.yaml"); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func hydrateFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HTTP_ADDRESS"); v != "" {
		cfg.HTTP.Address = v
	}
	if v := os.Getenv("HTTP_ALLOWED_ORIGINS"); v != "" {
		cfg.HTTP.AllowedOrigins = splitAndTrim(v)
	}
	if v := os.Getenv("BACKEND_BASE_URL"); v != "" {
		cfg.Backend.BaseURL = v
	}
	if v := os.Getenv("BACKEND_TIMEOUT"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Backend.Timeout = parsed
		}
	}
	if v := os.Getenv("BACKEND_RETRY_COUNT"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Backend.RetryCount = parsed
		}
	}
	if v := os.Getenv("SESSION_SECRET"); v != "" {
		cfg.Session.Secret = v
	}
	if v := os.Getenv("SESSION_COOKIE_NAME"); v != "" {
		cfg.Session.CookieName = v
	}
	if v := os.Getenv("SESSION_ACCESS_TOKEN_TTL"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Session.AccessTokenTTL = parsed
		}
	}
	if v := os.Getenv("SESSION_MAX_AGE"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Session.MaxAge = parsed
		}
	}
	if v := os.Getenv("SESSION_STORE"); v != "" {
		cfg.Session.Store = strings.ToLower(strings.TrimSpace(v))
	}
	if v := os.Getenv("SESSION_VALKEY_ADDR"); v != "" {
		cfg.Session.Valkey.Addr = v
	}
	if v := os.Getenv("FRONTEND_UPSTREAM_URL"); v != "" {
		cfg.Frontend.UpstreamURL = v
	}
	if v := os.Getenv("OIDC_ENABLED"); v != "" {
		cfg.OIDC.Enabled = v == "1" || strings.EqualFold(v, "true")
	}
	if v := os.Getenv("OIDC_ISSUER_URL"); v != "" {
		cfg.OIDC.IssuerURL = v
	}
	if v := os.Getenv("OIDC_CLIENT_ID"); v != "" {
		cfg.OIDC.ClientID = v
	}
	if v := os.Getenv("OIDC_CLIENT_SECRET"); v != "" {
		cfg.OIDC.ClientSecret = v
	}
	if v := os.Getenv("OIDC_REDIRECT_URL"); v != "" {
		cfg.OIDC.RedirectURL = v
	}
	if v := os.Getenv("OIDC_SCOPES"); v != "" {
		cfg.OIDC.Scopes = splitAndTrim(v)
	}
}

// Validate checks the aggregate configuration for consistency.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.HTTP.Address) == "" {
		return errors.New("http address cannot be empty")
	}
	if strings.TrimSpace(c.Backend.BaseURL) == "" {
		return errors.New("backend base url cannot be empty")
	}
	if strings.TrimSpace(c.Session.Secret) == "" {
		return errors.New("session secret cannot be empty")
	}
	if c.Session.AccessTokenTTL <= 0 {
		return errors.New("session access token ttl must be positive")
	}
	if c.Session.MaxAge <= 0 {
		return errors.New("session max age must be positive")
	}
	if c.Session.MaxAge < c.Session.AccessTokenTTL {
		return errors.New("session max age must not be shorter than the access token ttl")
	}
	switch c.Session.Store {
	case StoreCookie:
	case StoreValkey:
		if strings.TrimSpace(c.Session.Valkey.Addr) == "" {
			return errors.New("valkey session store requires an address")
		}
	default:
		return fmt.Errorf("unknown session store %q", c.Session.Store)
	}
	if c.OIDC.Enabled {
		if strings.TrimSpace(c.OIDC.IssuerURL) == "" || strings.TrimSpace(c.OIDC.ClientID) == "" {
			return errors.New("oidc requires issuer url and client id")
		}
		if strings.TrimSpace(c.OIDC.RedirectURL) == "" {
			return errors.New("oidc requires a redirect url")
		}
	}
	return nil
}

func defaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Address:      ":3000",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
			RateLimit: RateLimitConfig{
				Enabled:           true,
				RequestsPerMinute: 120,
				Burst:             30,
			},
		},
		Backend: BackendConfig{
			BaseURL:    "http://localhost:8080",
			Timeout:    30 * time.Second,
			RetryCount: 2,
			RetryWait:  500 * time.Millisecond,
		},
		Session: SessionConfig{
			CookieName:     "connect_session",
			AccessTokenTTL: time.Hour,
			MaxAge:         24 * time.Hour,
			Store:          StoreCookie,
		},
		OIDC: OIDCConfig{
			Scopes: []string{"openid", "email", "profile"},
		},
	}
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
