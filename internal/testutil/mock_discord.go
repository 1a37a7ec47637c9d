// Package testutil provides shared test fixtures and mock external services.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
)

// MockDiscordServer represents a mock Discord API server for testing.
type MockDiscordServer struct {
	Server *httptest.Server

	mu            sync.Mutex
	tokenCalls    int
	userInfoCalls int

	// User is the profile returned by /users/@me. Tests may mutate it to
	// simulate profile changes between refreshes.
	User map[string]interface{}
}

// DiscordTokenResponse represents the OAuth token response from Discord.
type DiscordTokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	Scope       string `json:"scope"`
}

// DiscordErrorResponse represents an error response from Discord.
type DiscordErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// NewMockDiscordServer creates a new mock Discord API server.
// The server handles token exchange and user info endpoints.
func NewMockDiscordServer() *MockDiscordServer {
	mds := &MockDiscordServer{
		User: map[string]interface{}{
			"id":            "175928847299117063",
			"username":      "testuser",
			"global_name":   "Test User",
			"discriminator": "0",
			"avatar":        "abc123hash",
			"email":         "testuser@example.com",
		},
	}

	mux := http.NewServeMux()

	// Token exchange endpoint. Registered under both paths so clients that
	// derive the token URL from the API base resolve it too.
	tokenHandler := func(w http.ResponseWriter, r *http.Request) {
		mds.mu.Lock()
		mds.tokenCalls++
		mds.mu.Unlock()

		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		if err := r.ParseForm(); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		// Simulate different responses based on the code
		switch r.FormValue("code") {
		case "valid_code":
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(DiscordTokenResponse{
				AccessToken: "mock_access_token_123",
				TokenType:   "Bearer",
				ExpiresIn:   604800,
				Scope:       "identify email",
			})

		case "server_error":
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte("Internal Server Error"))

		default:
			w.WriteHeader(http.StatusBadRequest)
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(DiscordErrorResponse{
				Error:            "invalid_grant",
				ErrorDescription: "Invalid authorization code",
			})
		}
	}
	mux.HandleFunc("/api/oauth2/token", tokenHandler)
	mux.HandleFunc("/api/v10/oauth2/token", tokenHandler)

	// User info endpoint
	mux.HandleFunc("/api/v10/users/@me", func(w http.ResponseWriter, r *http.Request) {
		mds.mu.Lock()
		mds.userInfoCalls++
		mds.mu.Unlock()

		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") || strings.TrimPrefix(authHeader, "Bearer ") == "invalid_token" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(DiscordErrorResponse{
				Error:            "unauthorized",
				ErrorDescription: "Missing or invalid authorization header",
			})
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(mds.User)
	})

	mds.Server = httptest.NewServer(mux)
	return mds
}

// TokenCalls returns how many token exchanges the server has handled.
func (mds *MockDiscordServer) TokenCalls() int {
	mds.mu.Lock()
	defer mds.mu.Unlock()
	return mds.tokenCalls
}

// UserInfoCalls returns how many /users/@me requests the server has handled.
func (mds *MockDiscordServer) UserInfoCalls() int {
	mds.mu.Lock()
	defer mds.mu.Unlock()
	return mds.userInfoCalls
}

// GetTokenURL returns the mock token exchange endpoint URL.
func (mds *MockDiscordServer) GetTokenURL() string {
	return mds.Server.URL + "/api/oauth2/token"
}

// GetAPIBaseURL returns the mock Discord API base URL.
func (mds *MockDiscordServer) GetAPIBaseURL() string {
	return mds.Server.URL + "/api/v10"
}

// Close shuts down the mock server.
func (mds *MockDiscordServer) Close() {
	mds.Server.Close()
}
