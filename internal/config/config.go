// Package config loads linkboard settings from environment variables,
// applying defaults and validating everything up front so a bad deployment
// fails at start rather than on first request.
package config

import (
	"net"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	GitHub   GitHubConfig
	Upload   UploadConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Session  SessionConfig
	Logging  LoggingConfig
	Audit    AuditConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `env:"SERVER_HOST" default:"0.0.0.0"`
	Port            int           `env:"SERVER_PORT" envAlt:"PORT" default:"8080"`
	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"60s"`
	IdleTimeout     time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
	RequestTimeout  time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// GitHubConfig points at the repository that stores links, users and
// staged uploads.
type GitHubConfig struct {
	APIBase string `env:"GITHUB_API_BASE" default:"https://api.github.com"`
	RawBase string `env:"GITHUB_RAW_BASE" default:"https://raw.githubusercontent.com"`
	Owner   string `env:"GITHUB_OWNER" required:"true"`
	Repo    string `env:"GITHUB_REPO" required:"true"`
	Branch  string `env:"GITHUB_BRANCH" default:"main"`

	// TokenURL answers with {"githubToken": "..."}. Token, when set, is
	// used directly and TokenURL is ignored.
	TokenURL string        `env:"GITHUB_TOKEN_URL"`
	Token    string        `env:"GITHUB_TOKEN"`
	TokenTTL time.Duration `env:"GITHUB_TOKEN_TTL" default:"10m"`

	DataDir   string `env:"GITHUB_DATA_DIR" default:"Data"`
	LinksFile string `env:"GITHUB_LINKS_FILE" default:"Data.json"`
	UsersFile string `env:"GITHUB_USERS_FILE" default:"Login.json"`

	Timeout           time.Duration `env:"GITHUB_TIMEOUT" default:"30s"`
	RequestsPerSecond float64       `env:"GITHUB_REQUESTS_PER_SECOND" default:"10"`
	Burst             int           `env:"GITHUB_BURST" default:"5"`
	LinkCacheTTL      time.Duration `env:"GITHUB_LINK_CACHE_TTL" default:"1m"`
}

// UploadConfig holds dataset upload settings.
type UploadConfig struct {
	MaxFileSize   int64         `env:"UPLOAD_MAX_FILE_SIZE" default:"10485760"`
	MaxConcurrent int           `env:"UPLOAD_MAX_CONCURRENT" default:"5"`
	MaxWaitTime   time.Duration `env:"UPLOAD_MAX_WAIT_TIME" default:"30s"`
	Timeout       time.Duration `env:"UPLOAD_TIMEOUT" default:"2m"`
}

// RateLimitConfig holds per-IP request limits.
type RateLimitConfig struct {
	Enabled           bool `env:"RATE_LIMIT_ENABLED" default:"true"`
	RequestsPerMinute int  `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`
	Burst             int  `env:"RATE_LIMIT_BURST" default:"20"`
	UploadLimit       int  `env:"RATE_LIMIT_UPLOAD" default:"10"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	TrustedProxies []string `env:"TRUSTED_PROXIES"`
	EnableCSP      bool     `env:"SECURITY_ENABLE_CSP" default:"true"`
}

// SessionConfig controls login sessions.
type SessionConfig struct {
	TTL          time.Duration `env:"SESSION_TTL" default:"12h"`
	CookieName   string        `env:"SESSION_COOKIE_NAME" default:"linkboard_session"`
	SecureCookie bool          `env:"SESSION_SECURE_COOKIE" default:"false"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `env:"LOG_LEVEL" default:"info"`
	Format string `env:"LOG_FORMAT" default:"text"`
}

// AuditConfig controls the audit trail. Without a database URL entries go
// to the application log.
type AuditConfig struct {
	DatabaseURL   string        `env:"DATABASE_URL" envAlt:"DB_URL"`
	MaxConns      int           `env:"DB_MAX_CONNS" default:"10"`
	MinConns      int           `env:"DB_MIN_CONNS" default:"1"`
	RetentionDays int           `env:"AUDIT_RETENTION_DAYS" default:"90"`
	CheckInterval time.Duration `env:"AUDIT_CHECK_INTERVAL" default:"24h"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Persistent reports whether audit entries go to Postgres.
func (c *AuditConfig) Persistent() bool {
	return c.DatabaseURL != ""
}
