package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

const (
	AuthModeLive = "live"
	AuthModeMock = "mock"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	API    APIConfig
	Auth   AuthConfig
	JWT    JWTConfig
	Retry  RetryConfig
	Mongo  MongoConfig
	Redis  RedisConfig
	Upload UploadConfig
	Draft  DraftConfig
}

type APIConfig struct {
	BaseURL string `env:"API_BASE_URL"`
	// Names kept from the browser build; used when API_BASE_URL is unset.
	PublicBaseURL string        `env:"NEXT_PUBLIC_API_BASE_URL"`
	PublicBase    string        `env:"NEXT_PUBLIC_API_BASE"`
	BackendOrigin string        `env:"BACKEND_ORIGIN, default=http://localhost:5000"`
	Timeout       time.Duration `env:"API_TIMEOUT,    default=30s"`
}

type AuthConfig struct {
	CookieName       string `env:"AUTH_COOKIE_NAME"`
	PublicCookieName string `env:"NEXT_PUBLIC_AUTH_COOKIE_NAME"`
	Mode             string `env:"AUTH_MODE,         default=live"`
	PublicMode       string `env:"NEXT_PUBLIC_AUTH_MODE"`
	DevRole          string `env:"AUTH_DEV_ROLE,     default=admin"`
	LoginPath        string `env:"AUTH_LOGIN_PATH,   default=/auth/login"`
	UnauthorizedPath string `env:"AUTH_DENIED_PATH,  default=/unauthorized"`
	MigrateLegacy    bool   `env:"AUTH_MIGRATE_LEGACY_TOKENS, default=true"`
}

type JWTConfig struct {
	Alg     string `env:"JWT_ALG, default=HS256"`
	Secret  string `env:"JWT_SECRET"`
	JWKSURL string `env:"JWT_JWKS_URL"`
}

type RetryConfig struct {
	Attempts  int           `env:"RETRY_ATTEMPTS,   default=3"`
	BaseDelay time.Duration `env:"RETRY_BASE_DELAY, default=400ms"`
	MaxDelay  time.Duration `env:"RETRY_MAX_DELAY,  default=5s"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=rosterweb"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

type UploadConfig struct {
	BaseURL   string `env:"UPLOAD_BASE_URL"`
	PublicURL string `env:"UPLOAD_PUBLIC_URL"`
	Token     string `env:"UPLOAD_TOKEN"`
}

type DraftConfig struct {
	Debounce time.Duration `env:"DRAFT_DEBOUNCE, default=800ms"`
	TTL      time.Duration `env:"DRAFT_TTL,      default=168h"`
}

// Load reads the gateway configuration from environment variables using
// go-envconfig.
func Load() *Config {
	cfg, err := LoadFrom(context.Background(), envconfig.OsLookuper())
	if err == nil {
		err = cfg.RequireVerifier()
	}
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

// LoadFrom processes configuration from an arbitrary lookuper and resolves
// the legacy variable names.
func LoadFrom(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, err
	}

	cfg.API.BaseURL = firstNonEmpty(cfg.API.BaseURL, cfg.API.PublicBaseURL, cfg.API.PublicBase, "/api/v2")
	cfg.Auth.CookieName = firstNonEmpty(cfg.Auth.CookieName, cfg.Auth.PublicCookieName, "access_token")
	if cfg.Auth.PublicMode != "" {
		cfg.Auth.Mode = cfg.Auth.PublicMode
	}
	cfg.Auth.Mode = strings.ToLower(strings.TrimSpace(cfg.Auth.Mode))
	return &cfg, nil
}

// RequireVerifier fails when tokens must be verified locally but no key
// source is configured. The CLI never verifies tokens and skips this.
func (c *Config) RequireVerifier() error {
	if c.MockAuth() || c.JWT.Secret != "" || c.JWT.JWKSURL != "" {
		return nil
	}
	return fmt.Errorf("config: JWT_SECRET or JWT_JWKS_URL is required unless AUTH_MODE=mock")
}

// IsDevelopment reports whether development-only behaviour (request tracing,
// pretty logs) is enabled.
func (c *Config) IsDevelopment() bool { return c.Env == "development" }

// IsProduction decides the Secure flag on session cookies.
func (c *Config) IsProduction() bool { return c.Env == "production" }

// MockAuth reports whether authentication is bypassed with a fixed dev user.
func (c *Config) MockAuth() bool { return c.Auth.Mode == AuthModeMock }

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
