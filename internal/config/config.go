// Package config provides application configuration management using environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig
	Discord  DiscordConfig
	Presence PresenceConfig
	Storage  StorageConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port string
	Host string
	Env  string
}

// DiscordConfig holds Discord OAuth configuration
type DiscordConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Scopes       []string
}

// PresenceConfig holds presence service configuration
type PresenceConfig struct {
	SocketURL          string
	RESTBaseURL        string
	ProfileRefreshSecs int
}

// StorageConfig holds key-value store configuration.
// Backend is "memory" or "redis". MaxValueBytes caps any single stored value,
// which is what makes oversized media degrade to memory-only storage.
type StorageConfig struct {
	Backend       string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	MaxValueBytes int
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// Load loads configuration from environment variables
// It optionally loads from a .env file if it exists
func Load() (*Config, error) {
	// Try to load .env file (optional, ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{}

	cfg.Server = ServerConfig{
		Port: getEnv("HTTP_PORT", "3000"),
		Host: getEnv("SERVER_HOST", "localhost"),
		Env:  getEnv("ENVIRONMENT", "development"),
	}

	cfg.Discord = DiscordConfig{
		ClientID:     getEnv("DISCORD_CLIENT_ID", ""),
		ClientSecret: getEnv("DISCORD_CLIENT_SECRET", ""),
		RedirectURI:  getEnv("DISCORD_REDIRECT_URI", ""),
		Scopes:       strings.Split(getEnv("DISCORD_OAUTH_SCOPES", "identify email"), " "),
	}

	refreshSecs, _ := strconv.Atoi(getEnv("PRESENCE_PROFILE_REFRESH_SECONDS", "3"))
	cfg.Presence = PresenceConfig{
		SocketURL:          getEnv("PRESENCE_SOCKET_URL", "wss://api.lanyard.rest/socket"),
		RESTBaseURL:        getEnv("PRESENCE_REST_BASE_URL", "https://api.lanyard.rest"),
		ProfileRefreshSecs: refreshSecs,
	}

	maxValueBytes, _ := strconv.Atoi(getEnv("STORE_MAX_VALUE_BYTES", "5242880"))
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	cfg.Storage = StorageConfig{
		Backend:       getEnv("STORE_BACKEND", "memory"),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       redisDB,
		MaxValueBytes: maxValueBytes,
	}

	cfg.Logging = LoggingConfig{
		Level:  getEnv("LOG_LEVEL", "info"),
		Format: getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Discord.ClientID == "" {
		return fmt.Errorf("DISCORD_CLIENT_ID is required")
	}
	if c.Discord.ClientSecret == "" {
		return fmt.Errorf("DISCORD_CLIENT_SECRET is required")
	}
	if c.Discord.RedirectURI == "" {
		return fmt.Errorf("DISCORD_REDIRECT_URI is required")
	}

	if c.Storage.Backend != "memory" && c.Storage.Backend != "redis" {
		return fmt.Errorf("STORE_BACKEND must be one of: memory, redis")
	}
	if c.Storage.MaxValueBytes <= 0 {
		return fmt.Errorf("STORE_MAX_VALUE_BYTES must be positive")
	}
	if c.Storage.Backend == "redis" && c.Storage.RedisAddr == "" {
		return fmt.Errorf("REDIS_ADDR is required when STORE_BACKEND is redis")
	}

	if c.Presence.SocketURL == "" {
		return fmt.Errorf("PRESENCE_SOCKET_URL is required")
	}
	if c.Presence.RESTBaseURL == "" {
		return fmt.Errorf("PRESENCE_REST_BASE_URL is required")
	}
	if c.Presence.ProfileRefreshSecs <= 0 {
		return fmt.Errorf("PRESENCE_PROFILE_REFRESH_SECONDS must be positive")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("LOG_LEVEL must be one of: debug, info, warn, error")
	}
	validLogFormats := map[string]bool{"json": true, "console": true}
	if !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}

	return nil
}

// getEnv retrieves an environment variable with a fallback default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
