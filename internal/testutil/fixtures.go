package testutil

import (
	"github.com/cardsmith/profilecard/internal/auth"
	"github.com/cardsmith/profilecard/internal/config"
)

// GenerateTestConfig creates a valid configuration for tests. The Discord
// endpoints still point at the real service; tests that exchange codes or
// fetch profiles must redirect the client at a mock server.
func GenerateTestConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port: "3000",
			Host: "localhost",
			Env:  "test",
		},
		Discord: config.DiscordConfig{
			ClientID:     "1473422909610655927",
			ClientSecret: "test_client_secret",
			RedirectURI:  "http://localhost:3000/callback",
			Scopes:       []string{"identify", "email"},
		},
		Presence: config.PresenceConfig{
			SocketURL:          "wss://api.lanyard.rest/socket",
			RESTBaseURL:        "https://api.lanyard.rest",
			ProfileRefreshSecs: 3,
		},
		Storage: config.StorageConfig{
			Backend:       "memory",
			MaxValueBytes: 5242880,
		},
		Logging: config.LoggingConfig{
			Level:  "debug",
			Format: "console",
		},
	}
}

// GenerateIdentity creates a test user identity with the given Discord id.
func GenerateIdentity(id string) *auth.DiscordUser {
	return &auth.DiscordUser{
		ID:            id,
		Username:      "testuser",
		GlobalName:    "Test User",
		Discriminator: "0",
		Avatar:        "abc123hash",
		Email:         "testuser@example.com",
	}
}

// GenerateLegacyIdentity creates a test identity that still has a non-zero
// discriminator and an animated avatar hash.
func GenerateLegacyIdentity(id string) *auth.DiscordUser {
	return &auth.DiscordUser{
		ID:            id,
		Username:      "legacyuser",
		Discriminator: "1234",
		Avatar:        "a_animatedhash",
	}
}
