// Package auth provides the Discord OAuth2 client: login URL construction,
// authorization-code exchange, and bearer-authenticated profile fetches.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/cardsmith/profilecard/internal/config"
	"github.com/cardsmith/profilecard/internal/ratelimit"
)

const (
	discordAPIEndpoint = "https://discord.com/api/v10"
	discordAuthURL     = "https://discord.com/api/oauth2/authorize"
	discordTokenURL    = "https://discord.com/api/oauth2/token" //nolint:gosec // Not a hardcoded credential, just an API endpoint URL
)

// AvatarDecoration is the Discord avatar decoration attached to a profile.
type AvatarDecoration struct {
	Asset string `json:"asset"`
	SkuID string `json:"sku_id"`
}

// DiscordUser represents a Discord user from the API.
type DiscordUser struct {
	ID               string            `json:"id"`
	Username         string            `json:"username"`
	GlobalName       string            `json:"global_name"`
	Discriminator    string            `json:"discriminator"`
	Avatar           string            `json:"avatar"`
	AvatarDecoration *AvatarDecoration `json:"avatar_decoration_data"`
	Email            string            `json:"email"`
}

// DiscordClient handles Discord OAuth and profile operations
type DiscordClient struct {
	config      *oauth2.Config
	logger      *zap.Logger
	baseURL     string // Discord API base URL (configurable for testing)
	rateLimiter *ratelimit.RateLimiter
	httpClient  *http.Client
}

// NewDiscordClient creates a new Discord OAuth client
func NewDiscordClient(cfg *config.Config, logger *zap.Logger) *DiscordClient {
	oauthConfig := &oauth2.Config{
		ClientID:     cfg.Discord.ClientID,
		ClientSecret: cfg.Discord.ClientSecret,
		RedirectURL:  cfg.Discord.RedirectURI,
		Scopes:       cfg.Discord.Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  discordAuthURL,
			TokenURL: discordTokenURL,
		},
	}

	return &DiscordClient{
		config:     oauthConfig,
		logger:     logger,
		baseURL:    discordAPIEndpoint,
		httpClient: &http.Client{},
	}
}

// LoginURL constructs the Discord OAuth authorization URL with
// client_id, redirect_uri, response_type=code and the space-joined scopes.
func (dc *DiscordClient) LoginURL() string {
	params := url.Values{}
	params.Set("client_id", dc.config.ClientID)
	params.Set("redirect_uri", dc.config.RedirectURL)
	params.Set("response_type", "code")
	params.Set("scope", strings.Join(dc.config.Scopes, " "))
	return dc.config.Endpoint.AuthURL + "?" + params.Encode()
}

// ExchangeCode exchanges an authorization code for an access token
func (dc *DiscordClient) ExchangeCode(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := dc.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code for token: %w", err)
	}

	dc.logger.Debug("successfully exchanged code for token",
		zap.String("token_type", token.TokenType),
	)

	return token, nil
}

// FetchCurrentUser fetches the authenticated user's profile from Discord.
// It serves both the initial login and the periodic profile refresh.
func (dc *DiscordClient) FetchCurrentUser(ctx context.Context, accessToken string) (*DiscordUser, error) {
	resp, err := dc.makeAPIRequest(ctx, http.MethodGet, "/users/@me", accessToken)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			dc.logger.Warn("failed to close response body", zap.Error(err))
		}
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("discord API returned status %d: %s", resp.StatusCode, string(body))
	}

	var user DiscordUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("failed to decode user info: %w", err)
	}

	dc.logger.Debug("fetched user info from Discord",
		zap.String("discord_id", user.ID),
		zap.String("username", user.Username),
	)

	return &user, nil
}

// makeAPIRequest makes a rate-limited HTTP request to Discord API
func (dc *DiscordClient) makeAPIRequest(ctx context.Context, method, endpoint, accessToken string) (*http.Response, error) {
	if dc.rateLimiter != nil {
		if err := dc.rateLimiter.Wait(endpoint); err != nil {
			return nil, fmt.Errorf("rate limit wait failed: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, dc.baseURL+endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := dc.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}

	if dc.rateLimiter != nil {
		dc.rateLimiter.UpdateFromHeaders(endpoint, resp.Header)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		defer func() { _ = resp.Body.Close() }()
		if dc.rateLimiter != nil {
			_ = dc.rateLimiter.HandleRateLimitResponse(endpoint, resp.Header)
		}
		return nil, fmt.Errorf("rate limited by Discord API")
	}

	return resp, nil
}

// SetRateLimiter sets the rate limiter for the Discord client
func (dc *DiscordClient) SetRateLimiter(rl *ratelimit.RateLimiter) {
	dc.rateLimiter = rl
}

// SetBaseURL sets the base URL for the Discord API (used for testing)
func (dc *DiscordClient) SetBaseURL(url string) {
	dc.baseURL = url
	// Also update OAuth token endpoint for testing
	dc.config.Endpoint.TokenURL = url + "/oauth2/token"
}
