// Package config provides application configuration management with support
// for command-line flags, environment variables and .env files.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds the application configuration.
type Config struct {
	App       AppConfig
	Logger    LoggerConfig
	Database  DatabaseConfig
	Server    ServerConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Search    SearchConfig
	Notifier  NotifierConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// DatabaseConfig selects the Entity Store backend.
type DatabaseConfig struct {
	Driver  string // sqlite (default) or postgres
	DSN     string // postgres connection string
	DataDir string // holds the sqlite file, search index, auth key and lock
}

// SQLitePath is the database file used by the sqlite driver.
func (d DatabaseConfig) SQLitePath() string {
	return filepath.Join(d.DataDir, "todosync.db")
}

// LockPath is the file locked for the lifetime of the process.
func (d DatabaseConfig) LockPath() string {
	return filepath.Join(d.DataDir, "todosync.lock")
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Port            string        // default: 8080
	ReadTimeout     time.Duration // default: 15s
	WriteTimeout    time.Duration // default: 0, the SSE stream is long-lived
	IdleTimeout     time.Duration // default: 60s
	ShutdownTimeout time.Duration // default: 10s
	CORSOrigins     []string      // default: *
}

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	KeyPath             string        // hex PASETO v4 key, generated on first start
	AccessTokenDuration time.Duration // default: 24h
}

// RateLimitConfig holds the per-IP limit applied to /api.
type RateLimitConfig struct {
	Enabled  bool
	Requests int           // default: 100
	Window   time.Duration // default: 15m
	Burst    int           // default: Requests
}

// SearchConfig holds full-text index configuration.
type SearchConfig struct {
	Enabled bool
	Path    string // default: {data}/search; empty keeps the index in memory
}

// NotifierConfig tunes the SSE fan-out.
type NotifierConfig struct {
	EventBuffer       int
	ClientBuffer      int
	HeartbeatInterval time.Duration
}

// LoadConfig loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func LoadConfig(args []string) (*Config, error) {
	fs := flag.NewFlagSet("todosync", flag.ContinueOnError)

	env := fs.String("env", "", "Environment (development, staging, production)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")

	dbDriver := fs.String("db-driver", "", "Database driver (sqlite, postgres)")
	dbDSN := fs.String("db-dsn", "", "PostgreSQL connection string")
	dataDir := fs.String("data-dir", "", "Directory for the database, search index and auth key")

	serverPort := fs.String("port", "", "Server port (default: 8080)")
	readTimeout := fs.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := fs.String("write-timeout", "", "HTTP write timeout (default: 0, disabled)")
	idleTimeout := fs.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")
	shutdownTimeout := fs.String("shutdown-timeout", "", "Graceful shutdown timeout (default: 10s)")
	corsOrigins := fs.String("cors-origins", "", "Comma separated allowed origins (default: *)")

	authKeyPath := fs.String("auth-key-path", "", "Path to the PASETO key file")
	accessTokenDuration := fs.String("access-token-duration", "", "Access token lifetime (default: 24h)")

	rateLimitEnabled := fs.String("rate-limit-enabled", "", "Enable per-IP rate limiting (default: true)")
	rateLimitRequests := fs.String("rate-limit-requests", "", "Requests allowed per window (default: 100)")
	rateLimitWindow := fs.String("rate-limit-window", "", "Rate limit window (default: 15m)")
	rateLimitBurst := fs.String("rate-limit-burst", "", "Rate limit burst (default: requests)")

	searchEnabled := fs.String("search-enabled", "", "Enable the full-text search index (default: true)")
	searchPath := fs.String("search-path", "", "Search index directory")

	heartbeat := fs.String("sse-heartbeat", "", "SSE heartbeat interval (default: 30s)")

	envFile := fs.String("env-file", ".env", "Path to .env file")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	// A missing .env file is fine.
	if err := loadEnvFile(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load env file: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Database: DatabaseConfig{
			Driver:  getConfigValue(*dbDriver, "DB_DRIVER", "sqlite"),
			DSN:     getConfigValue(*dbDSN, "DB_DSN", ""),
			DataDir: getConfigValue(*dataDir, "DATA_DIR", ""),
		},
		Server: ServerConfig{
			Port:        getConfigValue(*serverPort, "SERVER_PORT", "8080"),
			CORSOrigins: splitList(getConfigValue(*corsOrigins, "CORS_ORIGINS", "*")),
		},
		Auth: AuthConfig{
			KeyPath: getConfigValue(*authKeyPath, "AUTH_KEY_PATH", ""),
		},
		RateLimit: RateLimitConfig{
			Enabled:  getBoolConfigValue(*rateLimitEnabled, "RATE_LIMIT_ENABLED", true),
			Requests: getIntConfigValue(*rateLimitRequests, "RATE_LIMIT_REQUESTS", 100),
			Burst:    getIntConfigValue(*rateLimitBurst, "RATE_LIMIT_BURST", 0),
		},
		Search: SearchConfig{
			Enabled: getBoolConfigValue(*searchEnabled, "SEARCH_ENABLED", true),
			Path:    getConfigValue(*searchPath, "SEARCH_PATH", ""),
		},
		Notifier: NotifierConfig{
			EventBuffer:  getIntConfigValue("", "SSE_EVENT_BUFFER", 1000),
			ClientBuffer: getIntConfigValue("", "SSE_CLIENT_BUFFER", 100),
		},
	}

	durations := []struct {
		flagValue, envKey, def string
		dst                    *time.Duration
	}{
		{*readTimeout, "SERVER_READ_TIMEOUT", "15s", &cfg.Server.ReadTimeout},
		{*writeTimeout, "SERVER_WRITE_TIMEOUT", "0s", &cfg.Server.WriteTimeout},
		{*idleTimeout, "SERVER_IDLE_TIMEOUT", "60s", &cfg.Server.IdleTimeout},
		{*shutdownTimeout, "SERVER_SHUTDOWN_TIMEOUT", "10s", &cfg.Server.ShutdownTimeout},
		{*accessTokenDuration, "ACCESS_TOKEN_DURATION", "24h", &cfg.Auth.AccessTokenDuration},
		{*rateLimitWindow, "RATE_LIMIT_WINDOW", "15m", &cfg.RateLimit.Window},
		{*heartbeat, "SSE_HEARTBEAT_INTERVAL", "30s", &cfg.Notifier.HeartbeatInterval},
	}
	for _, d := range durations {
		raw := getConfigValue(d.flagValue, d.envKey, d.def)
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", d.envKey, raw, err)
		}
		*d.dst = parsed
	}

	if err := cfg.expandPaths(); err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %q (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	switch c.Database.Driver {
	case "sqlite":
	case "postgres":
		if c.Database.DSN == "" {
			return errors.New("DB_DSN is required for the postgres driver")
		}
	default:
		return fmt.Errorf("invalid database driver: %q (must be sqlite or postgres)", c.Database.Driver)
	}
	if c.Database.DataDir == "" {
		return errors.New("data directory cannot be empty after expansion")
	}

	if port, err := strconv.Atoi(c.Server.Port); err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("invalid server port: %q", c.Server.Port)
	}
	if c.Auth.AccessTokenDuration <= 0 {
		return errors.New("access token duration must be positive")
	}

	if c.RateLimit.Enabled {
		if c.RateLimit.Requests <= 0 {
			return errors.New("rate limit requests must be positive")
		}
		if c.RateLimit.Window <= 0 {
			return errors.New("rate limit window must be positive")
		}
		if c.RateLimit.Burst < 0 {
			return errors.New("rate limit burst cannot be negative")
		}
	}

	if c.Notifier.HeartbeatInterval <= 0 {
		return errors.New("SSE heartbeat interval must be positive")
	}
	if c.Notifier.ClientBuffer <= 0 || c.Notifier.EventBuffer <= 0 {
		return errors.New("SSE buffers must be positive")
	}

	return nil
}

// IsProduction reports whether the app runs in production.
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// expandPaths resolves the data directory and the paths derived from it.
func (c *Config) expandPaths() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	dataDir, err := expandPath(c.Database.DataDir, filepath.Join(homeDir, ".todosync"))
	if err != nil {
		return err
	}
	c.Database.DataDir = dataDir

	if c.Auth.KeyPath, err = expandPath(c.Auth.KeyPath, filepath.Join(dataDir, "auth.key")); err != nil {
		return err
	}
	if c.Search.Path, err = expandPath(c.Search.Path, filepath.Join(dataDir, "search")); err != nil {
		return err
	}
	return nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty, defaultPath is returned unchanged.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}
	return defaultValue
}

// getBoolConfigValue returns a bool from flag, env var, or default.
// Accepts: "true", "1", "yes" (case-insensitive) as true; anything else is false.
func getBoolConfigValue(flagValue, envKey string, defaultValue bool) bool {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	strValue = strings.ToLower(strValue)
	return strValue == "true" || strValue == "1" || strValue == "yes"
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	result, err := strconv.Atoi(strValue)
	if err != nil {
		return defaultValue
	}
	return result
}

// splitList splits a comma separated list, dropping blanks.
func splitList(v string) []string {
	var out []string
	for part := range strings.SplitSeq(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// loadEnvFile loads environment variables from a .env file.
// Format: KEY=value (one per line, # for comments).
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- Config file path from user input is expected
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}
		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)

		// Real environment variables win over the file.
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
