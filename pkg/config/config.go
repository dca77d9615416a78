package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// AuthProvider selects the identity backend implementation. It is read once
// at startup; the selected backend is constructed a single time and injected
// into the rest of the stack.
type AuthProvider string

const (
	// AuthProviderDevelopment selects the all-mock backend with a fixed,
	// always-authenticated principal. Intended for local development only.
	AuthProviderDevelopment AuthProvider = "development"
	// AuthProviderREST selects the hosted identity platform REST backend.
	AuthProviderREST AuthProvider = "rest"
	// AuthProviderOIDC selects a generic OpenID Connect backend.
	AuthProviderOIDC AuthProvider = "oidc"
)

// Config holds all console configuration
type Config struct {
	// API configuration
	API APIConfig

	// Identity provider configuration
	Identity IdentityConfig

	// Session configuration
	Session SessionConfig

	// Feature flags
	Flags FlagsConfig

	// Observability configuration
	Observability ObservabilityConfig
}

// APIConfig holds GraphQL API configuration
type APIConfig struct {
	// Region selects one of the fixed regional endpoints ("us", "eu").
	Region string

	// EndpointOverride, when set, replaces the regional endpoint entirely.
	EndpointOverride string

	RequestTimeout time.Duration
}

// IdentityConfig holds identity provider configuration
type IdentityConfig struct {
	Provider AuthProvider

	// REST backend (hosted identity platform)
	APIKey     string
	AuthDomain string

	// OIDC backend
	OIDCIssuerURL    string
	OIDCClientID     string
	OIDCClientSecret string
	OIDCRedirectURL  string

	// CallbackAddr is the loopback listen address for interactive
	// OAuth/SSO flows.
	CallbackAddr string
}

// SessionConfig holds session lifetime and persistence configuration
type SessionConfig struct {
	// MaxDuration bounds the total session age; the session is signed out
	// once it is exceeded.
	MaxDuration time.Duration

	// RefreshInterval is how often the token refresher checks for a stale
	// bearer credential.
	RefreshInterval time.Duration

	// RedisURL enables the Redis-backed session store when non-empty.
	RedisURL      string
	RedisPassword string
	RedisDB       int
}

// FlagsConfig holds feature-flag sources
type FlagsConfig struct {
	// EnvFlags is the raw "flag=enabled;flag=disabled" override string
	// from the environment.
	EnvFlags string

	// OverridePath is the per-user local override file, merged over the
	// environment flags key-by-key.
	OverridePath string
}

// ObservabilityConfig holds logging and tracing settings
type ObservabilityConfig struct {
	LogLevel string

	// MetricsAddr, when non-empty, serves the Prometheus registry on
	// this listen address.
	MetricsAddr string

	OTelEnabled        bool
	OTelEndpoint       string
	OTelServiceName    string
	OTelServiceVersion string
	OTelInsecure       bool
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		API: APIConfig{
			Region:           getEnv("CONSOLE_REGION", DefaultRegion.ID),
			EndpointOverride: getEnv("CONSOLE_GRAPHQL_ENDPOINT", ""),
			RequestTimeout:   getEnvDuration("CONSOLE_REQUEST_TIMEOUT", 30*time.Second),
		},
		Identity: IdentityConfig{
			Provider:         AuthProvider(getEnv("CONSOLE_AUTH_PROVIDER", string(AuthProviderDevelopment))),
			APIKey:           getEnv("CONSOLE_IDENTITY_API_KEY", ""),
			AuthDomain:       getEnv("CONSOLE_IDENTITY_AUTH_DOMAIN", ""),
			OIDCIssuerURL:    getEnv("CONSOLE_OIDC_AUTHORITY", ""),
			OIDCClientID:     getEnv("CONSOLE_OIDC_CLIENT_ID", ""),
			OIDCClientSecret: getEnv("CONSOLE_OIDC_CLIENT_SECRET", ""),
			OIDCRedirectURL:  getEnv("CONSOLE_OIDC_REDIRECT_URI", ""),
			CallbackAddr:     getEnv("CONSOLE_CALLBACK_ADDR", "127.0.0.1:8085"),
		},
		Session: SessionConfig{
			MaxDuration:     getEnvDuration("CONSOLE_SESSION_MAX_DURATION", time.Hour),
			RefreshInterval: getEnvDuration("CONSOLE_TOKEN_REFRESH_INTERVAL", time.Minute),
			RedisURL:        getEnv("CONSOLE_REDIS_URL", ""),
			RedisPassword:   getEnv("CONSOLE_REDIS_PASSWORD", ""),
			RedisDB:         getEnvInt("CONSOLE_REDIS_DB", 0),
		},
		Flags: FlagsConfig{
			EnvFlags:     getEnv("CONSOLE_FEATURE_FLAGS", ""),
			OverridePath: getEnv("CONSOLE_FEATURE_FLAGS_FILE", defaultOverridePath()),
		},
		Observability: ObservabilityConfig{
			LogLevel:           getEnv("CONSOLE_LOG_LEVEL", "info"),
			MetricsAddr:        getEnv("CONSOLE_METRICS_ADDR", ""),
			OTelEnabled:        getEnvBool("CONSOLE_OTEL_ENABLED", false),
			OTelEndpoint:       getEnv("CONSOLE_OTEL_ENDPOINT", "localhost:4317"),
			OTelServiceName:    getEnv("CONSOLE_OTEL_SERVICE_NAME", "console-core"),
			OTelServiceVersion: getEnv("CONSOLE_OTEL_SERVICE_VERSION", "1.0.0"),
			OTelInsecure:       getEnvBool("CONSOLE_OTEL_INSECURE", true),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.API.EndpointOverride == "" {
		if _, ok := RegionByID(c.API.Region); !ok {
			return fmt.Errorf("unknown region: %s", c.API.Region)
		}
	}

	switch c.Identity.Provider {
	case AuthProviderDevelopment:
		// No credentials required.
	case AuthProviderREST:
		if c.Identity.APIKey == "" {
			return fmt.Errorf("identity API key is required for the rest auth provider")
		}
	case AuthProviderOIDC:
		if c.Identity.OIDCIssuerURL == "" {
			return fmt.Errorf("OIDC authority is required for the oidc auth provider")
		}
		if c.Identity.OIDCClientID == "" {
			return fmt.Errorf("OIDC client ID is required for the oidc auth provider")
		}
	default:
		return fmt.Errorf("invalid auth provider: %s (must be development, rest, or oidc)", c.Identity.Provider)
	}

	if c.Session.MaxDuration <= 0 {
		return fmt.Errorf("session max duration must be positive")
	}
	if c.Session.RefreshInterval <= 0 {
		return fmt.Errorf("token refresh interval must be positive")
	}

	return nil
}

// Endpoint returns the GraphQL endpoint after applying the override and
// regional selection rules.
func (c *APIConfig) Endpoint() string {
	if c.EndpointOverride != "" {
		return c.EndpointOverride
	}
	return RegionEndpoint(c.Region)
}

// defaultOverridePath returns the per-user feature-flag override file path
func defaultOverridePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return home + "/.config/console/feature-flags"
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default.
// Plain integers are interpreted as milliseconds for compatibility with the
// session-duration convention.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}
	if ms, err := strconv.Atoi(value); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	return defaultValue
}
