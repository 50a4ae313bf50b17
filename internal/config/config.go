// Package config handles application configuration and environment loading.
package config

import (
	"bufio"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"
)

// Fixed application constants. The redirect path must match the app
// registration in the Entra portal exactly.
const (
	RedirectPath       = "/getAToken"
	DownstreamEndpoint = "https://graph.microsoft.com/v1.0/me"

	defaultAuthority  = "https://login.microsoftonline.com/common"
	defaultListenAddr = ":8080"
	defaultDBPort     = "5432"

	b2cAuthorityTemplate = "https://%s.b2clogin.com/%s.onmicrosoft.com/%s"
)

// Scopes requested during login and again when acquiring the downstream token.
var Scopes = []string{"User.Read"}

// Config holds everything the server needs, resolved from the environment.
type Config struct {
	ClientID     string
	ClientSecret string

	// Authority is the issuer URL used for OIDC discovery. Derived from the
	// B2C variables when those are set, otherwise AUTHORITY or the common
	// Entra endpoint.
	Authority string

	// B2C user-flow authorities; empty unless B2C_TENANT_NAME is configured.
	B2CProfileAuthority       string
	B2CResetPasswordAuthority string

	// ExternalURL is the public base URL of this app, used to build the
	// absolute redirect URI. Defaults to http://localhost{ListenAddr}.
	ExternalURL string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	RedisURL string // empty: fall back to the in-memory session store

	ListenAddr string
	LogLevel   string
	Env        string

	// Warnings collects non-fatal issues found during loading. They are
	// logged by the caller once the logger exists.
	Warnings []string
}

// LoadFromEnv loads configuration from environment variables. Missing client
// credentials are not an error here: the index route surfaces a config-error
// page instead, so the server must still start.
func LoadFromEnv() *Config {
	cfg := &Config{
		ClientID:     os.Getenv("CLIENT_ID"),
		ClientSecret: os.Getenv("CLIENT_SECRET"),
		ExternalURL:  os.Getenv("EXTERNAL_URL"),
		DBHost:       os.Getenv("DB_HOST"),
		DBPort:       os.Getenv("DB_PORT"),
		DBUser:       os.Getenv("DB_USER"),
		DBPassword:   os.Getenv("DB_PASSWORD"),
		DBName:       os.Getenv("DB_NAME"),
		RedisURL:     os.Getenv("REDIS_URL"),
		ListenAddr:   os.Getenv("LISTEN_ADDR"),
		LogLevel:     os.Getenv("LOG_LEVEL"),
		Env:          os.Getenv("ENV"),
	}

	// B2C authorities take precedence over a plain AUTHORITY when the tenant
	// and sign-in user flow are both present.
	tenant := os.Getenv("B2C_TENANT_NAME")
	signIn := os.Getenv("SIGNUPSIGNIN_USER_FLOW")
	if tenant != "" && signIn != "" {
		cfg.Authority = fmt.Sprintf(b2cAuthorityTemplate, tenant, tenant, signIn)
		if flow := os.Getenv("EDITPROFILE_USER_FLOW"); flow != "" {
			cfg.B2CProfileAuthority = fmt.Sprintf(b2cAuthorityTemplate, tenant, tenant, flow)
		}
		if flow := os.Getenv("RESETPASSWORD_USER_FLOW"); flow != "" {
			cfg.B2CResetPasswordAuthority = fmt.Sprintf(b2cAuthorityTemplate, tenant, tenant, flow)
		}
	} else {
		if tenant != "" || signIn != "" {
			cfg.Warnings = append(cfg.Warnings,
				"incomplete B2C configuration: both B2C_TENANT_NAME and SIGNUPSIGNIN_USER_FLOW are required; falling back to AUTHORITY")
		}
		cfg.Authority = os.Getenv("AUTHORITY")
		if cfg.Authority == "" {
			cfg.Authority = defaultAuthority
		}
	}

	if cfg.ListenAddr == "" {
		cfg.ListenAddr = defaultListenAddr
	}
	if cfg.DBPort == "" {
		cfg.DBPort = defaultDBPort
	}
	if cfg.ExternalURL == "" {
		cfg.ExternalURL = "http://localhost" + cfg.ListenAddr
	}
	cfg.ExternalURL = strings.TrimRight(cfg.ExternalURL, "/")

	if !cfg.HasClientCredentials() {
		cfg.Warnings = append(cfg.Warnings,
			"CLIENT_ID/CLIENT_SECRET not set: login is disabled until configured")
	}
	if !cfg.HasDBConfig() {
		cfg.Warnings = append(cfg.Warnings,
			"DB_HOST/DB_USER/DB_NAME not fully set: login audit recording is disabled")
	}

	return cfg
}

// HasClientCredentials reports whether the app registration is configured.
func (c *Config) HasClientCredentials() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// HasDBConfig reports whether enough database settings exist to record logins.
func (c *Config) HasDBConfig() bool {
	return c.DBHost != "" && c.DBUser != "" && c.DBName != ""
}

// RedirectURL returns the absolute OAuth redirect URI.
func (c *Config) RedirectURL() string {
	return c.ExternalURL + RedirectPath
}

// PostgresDSN builds a keyword/value DSN for the audit database.
func (c *Config) PostgresDSN() string {
	parts := []string{
		"host=" + c.DBHost,
		"port=" + c.DBPort,
		"user=" + c.DBUser,
		"dbname=" + c.DBName,
		"sslmode=prefer",
	}
	if c.DBPassword != "" {
		parts = append(parts, "password="+c.DBPassword)
	}
	return strings.Join(parts, " ")
}

// SlogLevel maps the LogLevel string to an slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// IsProduction returns true when the server is running in production mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// Validate checks settings that would make the server misbehave silently.
func (c *Config) Validate() error {
	if _, err := url.ParseRequestURI(c.Authority); err != nil {
		return fmt.Errorf("invalid authority %q: %w", c.Authority, err)
	}
	return nil
}

// LoadDotEnv reads a .env file and sets any variables not already in the environment.
// Lines must be in KEY=VALUE format. Comments (#) and blank lines are skipped.
func LoadDotEnv(path string) error {
	f, err := os.Open(path) //nolint:gosec // path is caller-controlled
	if err != nil {
		if os.IsNotExist(err) {
			return nil // .env not found is not an error
		}
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		value = stripQuotes(value)
		// Only set if not already in the environment (env vars take precedence)
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("setenv %s: %w", key, err)
			}
		}
	}
	return scanner.Err()
}

// stripQuotes removes surrounding double or single quotes from a value.
// Only strips if both the first and last characters are matching quotes.
func stripQuotes(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
