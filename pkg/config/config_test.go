package config

import (
	"os"
	"testing"
	"time"
)

// TestGetEnvDuration tests duration parsing including the bare-millisecond
// compatibility form.
func TestGetEnvDuration(t *testing.T) {
	tests := []struct {
		name         string
		envValue     string
		defaultValue time.Duration
		want         time.Duration
	}{
		{
			name:         "go duration string",
			envValue:     "45s",
			defaultValue: time.Minute,
			want:         45 * time.Second,
		},
		{
			name:         "bare integer is milliseconds",
			envValue:     "3600000",
			defaultValue: time.Minute,
			want:         time.Hour,
		},
		{
			name:         "unset returns default",
			envValue:     "",
			defaultValue: time.Minute,
			want:         time.Minute,
		},
		{
			name:         "garbage returns default",
			envValue:     "soon",
			defaultValue: time.Minute,
			want:         time.Minute,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := "CONSOLE_TEST_DURATION"
			if tt.envValue != "" {
				os.Setenv(key, tt.envValue)
				defer os.Unsetenv(key)
			} else {
				os.Unsetenv(key)
			}

			got := getEnvDuration(key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnvDuration() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConfigValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			API: APIConfig{Region: "us"},
			Identity: IdentityConfig{
				Provider: AuthProviderDevelopment,
			},
			Session: SessionConfig{
				MaxDuration:     time.Hour,
				RefreshInterval: time.Minute,
			},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid development config",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "unknown region",
			mutate:  func(c *Config) { c.API.Region = "mars" },
			wantErr: true,
		},
		{
			name: "endpoint override skips region check",
			mutate: func(c *Config) {
				c.API.Region = "mars"
				c.API.EndpointOverride = "https://api.example.com/query"
			},
			wantErr: false,
		},
		{
			name: "rest provider requires API key",
			mutate: func(c *Config) {
				c.Identity.Provider = AuthProviderREST
			},
			wantErr: true,
		},
		{
			name: "rest provider with API key",
			mutate: func(c *Config) {
				c.Identity.Provider = AuthProviderREST
				c.Identity.APIKey = "key-123"
			},
			wantErr: false,
		},
		{
			name: "oidc provider requires issuer and client",
			mutate: func(c *Config) {
				c.Identity.Provider = AuthProviderOIDC
			},
			wantErr: true,
		},
		{
			name: "invalid provider",
			mutate: func(c *Config) {
				c.Identity.Provider = "ldap"
			},
			wantErr: true,
		},
		{
			name: "zero session duration",
			mutate: func(c *Config) {
				c.Session.MaxDuration = 0
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestAPIConfigEndpoint(t *testing.T) {
	tests := []struct {
		name string
		cfg  APIConfig
		want string
	}{
		{
			name: "override wins",
			cfg:  APIConfig{Region: "us", EndpointOverride: "https://api.example.com/query"},
			want: "https://api.example.com/query",
		},
		{
			name: "eu region",
			cfg:  APIConfig{Region: "eu"},
			want: "https://eu.api.mondoo.com/query",
		},
		{
			name: "unknown region falls back to default",
			cfg:  APIConfig{Region: "mars"},
			want: DefaultRegion.Endpoint,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.Endpoint(); got != tt.want {
				t.Errorf("Endpoint() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRegionByID(t *testing.T) {
	r, ok := RegionByID("eu")
	if !ok {
		t.Fatal("expected eu region to exist")
	}
	if r.Name != "EU" {
		t.Errorf("region name = %v, want EU", r.Name)
	}

	if _, ok := RegionByID("mars"); ok {
		t.Error("expected mars region to be unknown")
	}
}
