package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestEnv sets up environment variables for testing and returns a cleanup function
func setupTestEnv(t *testing.T, envVars map[string]string) func() {
	// Store original values
	original := make(map[string]string)
	for key := range envVars {
		original[key] = os.Getenv(key)
	}

	// Set test values
	for key, value := range envVars {
		if value == "" {
			err := os.Unsetenv(key)
			if err != nil {
				t.Error(err)
			}
		} else {
			err := os.Setenv(key, value)
			if err != nil {
				t.Error(err)
			}
		}
	}

	return func() {
		for key, value := range original {
			if value == "" {
				err := os.Unsetenv(key)
				if err != nil {
					t.Error(err)
				}
			} else {
				err := os.Setenv(key, value)
				if err != nil {
					t.Error(err)
				}
			}
		}
	}
}

func validTestEnv() map[string]string {
	return map[string]string{
		"DISCORD_CLIENT_ID":     "1473422909610655927",
		"DISCORD_CLIENT_SECRET": "test_secret",
		"DISCORD_REDIRECT_URI":  "http://localhost:3000/callback",
		"HTTP_PORT":             "",
		"STORE_BACKEND":         "",
		"STORE_MAX_VALUE_BYTES": "",
		"LOG_LEVEL":             "",
		"LOG_FORMAT":            "",
	}
}

func TestLoad_Defaults(t *testing.T) {
	cleanup := setupTestEnv(t, validTestEnv())
	defer cleanup()

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.Server.Port)
	assert.Equal(t, "memory", cfg.Storage.Backend)
	assert.Equal(t, 5242880, cfg.Storage.MaxValueBytes)
	assert.Equal(t, []string{"identify", "email"}, cfg.Discord.Scopes)
	assert.Equal(t, "wss://api.lanyard.rest/socket", cfg.Presence.SocketURL)
	assert.Equal(t, "https://api.lanyard.rest", cfg.Presence.RESTBaseURL)
	assert.Equal(t, 3, cfg.Presence.ProfileRefreshSecs)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoad_MissingRequired(t *testing.T) {
	tests := []struct {
		name    string
		unset   string
		wantErr string
	}{
		{"missing client id", "DISCORD_CLIENT_ID", "DISCORD_CLIENT_ID is required"},
		{"missing client secret", "DISCORD_CLIENT_SECRET", "DISCORD_CLIENT_SECRET is required"},
		{"missing redirect uri", "DISCORD_REDIRECT_URI", "DISCORD_REDIRECT_URI is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := validTestEnv()
			env[tt.unset] = ""
			cleanup := setupTestEnv(t, env)
			defer cleanup()

			cfg, err := Load()

			assert.Error(t, err)
			assert.Nil(t, cfg)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_InvalidStorageBackend(t *testing.T) {
	env := validTestEnv()
	env["STORE_BACKEND"] = "postgres"
	cleanup := setupTestEnv(t, env)
	defer cleanup()

	cfg, err := Load()

	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "STORE_BACKEND")
}

func TestLoad_InvalidLogLevel(t *testing.T) {
	env := validTestEnv()
	env["LOG_LEVEL"] = "verbose"
	cleanup := setupTestEnv(t, env)
	defer cleanup()

	cfg, err := Load()

	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "LOG_LEVEL")
}

func TestLoad_CustomScopes(t *testing.T) {
	env := validTestEnv()
	env["DISCORD_OAUTH_SCOPES"] = "identify email guilds"
	cleanup := setupTestEnv(t, env)
	defer cleanup()

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"identify", "email", "guilds"}, cfg.Discord.Scopes)
}

func TestValidate_RedisBackendRequiresAddr(t *testing.T) {
	cfg := &Config{
		Discord: DiscordConfig{
			ClientID:     "id",
			ClientSecret: "secret",
			RedirectURI:  "http://localhost/callback",
		},
		Storage: StorageConfig{
			Backend:       "redis",
			RedisAddr:     "",
			MaxValueBytes: 1024,
		},
		Presence: PresenceConfig{
			SocketURL:          "wss://example.test/socket",
			RESTBaseURL:        "https://example.test",
			ProfileRefreshSecs: 3,
		},
		Logging: LoggingConfig{Level: "info", Format: "json"},
	}

	err := cfg.Validate()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "REDIS_ADDR")
}
