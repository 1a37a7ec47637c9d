package auth_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cardsmith/profilecard/internal/auth"
	"github.com/cardsmith/profilecard/internal/testutil"
)

func TestNewDiscordClient(t *testing.T) {
	cfg := testutil.GenerateTestConfig()
	logger, _ := zap.NewDevelopment()

	client := auth.NewDiscordClient(cfg, logger)

	assert.NotNil(t, client)
	assert.Equal(t, cfg.Discord.ClientID, client.OAuthConfig().ClientID)
	assert.Equal(t, cfg.Discord.ClientSecret, client.OAuthConfig().ClientSecret)
	assert.Equal(t, cfg.Discord.RedirectURI, client.OAuthConfig().RedirectURL)
}

func TestLoginURL(t *testing.T) {
	cfg := testutil.GenerateTestConfig()
	logger, _ := zap.NewDevelopment()
	client := auth.NewDiscordClient(cfg, logger)

	loginURL := client.LoginURL()

	assert.Contains(t, loginURL, "discord.com/api/oauth2/authorize")
	assert.Contains(t, loginURL, "client_id="+cfg.Discord.ClientID)
	assert.Contains(t, loginURL, "redirect_uri=")
	assert.Contains(t, loginURL, "response_type=code")
	// Scopes are space-joined; url.Values encodes the space as +
	assert.Contains(t, loginURL, "scope=identify+email")
}

func TestExchangeCode_Success(t *testing.T) {
	mockServer := testutil.NewMockDiscordServer()
	defer mockServer.Close()

	cfg := testutil.GenerateTestConfig()
	logger, _ := zap.NewDevelopment()
	client := auth.NewDiscordClient(cfg, logger)
	client.OAuthConfig().Endpoint.TokenURL = mockServer.GetTokenURL()

	token, err := client.ExchangeCode(context.Background(), "valid_code")

	require.NoError(t, err)
	assert.Equal(t, "mock_access_token_123", token.AccessToken)
	assert.Equal(t, "Bearer", token.TokenType)
	assert.Equal(t, 1, mockServer.TokenCalls())
}

func TestExchangeCode_InvalidCode(t *testing.T) {
	mockServer := testutil.NewMockDiscordServer()
	defer mockServer.Close()

	cfg := testutil.GenerateTestConfig()
	logger, _ := zap.NewDevelopment()
	client := auth.NewDiscordClient(cfg, logger)
	client.OAuthConfig().Endpoint.TokenURL = mockServer.GetTokenURL()

	token, err := client.ExchangeCode(context.Background(), "bad_code")

	assert.Error(t, err)
	assert.Nil(t, token)
}

func TestFetchCurrentUser_Success(t *testing.T) {
	mockServer := testutil.NewMockDiscordServer()
	defer mockServer.Close()

	cfg := testutil.GenerateTestConfig()
	logger, _ := zap.NewDevelopment()
	client := auth.NewDiscordClient(cfg, logger)
	client.SetBaseURL(mockServer.GetAPIBaseURL())

	user, err := client.FetchCurrentUser(context.Background(), "mock_access_token_123")

	require.NoError(t, err)
	assert.Equal(t, "175928847299117063", user.ID)
	assert.Equal(t, "testuser", user.Username)
	assert.Equal(t, "Test User", user.GlobalName)
	assert.Equal(t, 1, mockServer.UserInfoCalls())
}

func TestFetchCurrentUser_Unauthorized(t *testing.T) {
	mockServer := testutil.NewMockDiscordServer()
	defer mockServer.Close()

	cfg := testutil.GenerateTestConfig()
	logger, _ := zap.NewDevelopment()
	client := auth.NewDiscordClient(cfg, logger)
	client.SetBaseURL(mockServer.GetAPIBaseURL())

	user, err := client.FetchCurrentUser(context.Background(), "invalid_token")

	assert.Error(t, err)
	assert.Nil(t, user)
	assert.Contains(t, err.Error(), "401")
}

func TestFetchCurrentUser_AvatarDecoration(t *testing.T) {
	mockServer := testutil.NewMockDiscordServer()
	defer mockServer.Close()
	mockServer.User["avatar_decoration_data"] = map[string]interface{}{
		"asset":  "deco_asset_hash",
		"sku_id": "9999",
	}

	cfg := testutil.GenerateTestConfig()
	logger, _ := zap.NewDevelopment()
	client := auth.NewDiscordClient(cfg, logger)
	client.SetBaseURL(mockServer.GetAPIBaseURL())

	user, err := client.FetchCurrentUser(context.Background(), "mock_access_token_123")

	require.NoError(t, err)
	require.NotNil(t, user.AvatarDecoration)
	assert.Equal(t, "deco_asset_hash", user.AvatarDecoration.Asset)
}
