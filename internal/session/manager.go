// Package session holds the OAuth bearer token and cached user profile for
// the dashboard, with derived views (tag, avatar URL) over the identity.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/cardsmith/profilecard/internal/auth"
	"github.com/cardsmith/profilecard/internal/store"
)

const (
	cdnBaseURL       = "https://cdn.discordapp.com"
	defaultAvatarURL = cdnBaseURL + "/embed/avatars/0.png"
)

// ErrNoSession is returned by operations that need an authenticated session.
var ErrNoSession = errors.New("no active session")

// Manager is the explicitly constructed session object. Init loads from the
// store; Logout clears fields and removes the persisted keys. The token never
// expires client-side; there is no refresh-token flow.
type Manager struct {
	settings *store.Settings
	client   *auth.DiscordClient
	logger   *zap.Logger

	mu          sync.RWMutex
	accessToken string
	identity    *auth.DiscordUser
}

// NewManager creates a Manager and restores any persisted session. Malformed
// persisted user data is logged and treated as no session.
func NewManager(ctx context.Context, settings *store.Settings, client *auth.DiscordClient, logger *zap.Logger) *Manager {
	m := &Manager{settings: settings, client: client, logger: logger}

	token, err := settings.Store().Get(ctx, store.KeyAccessToken)
	if err != nil {
		return m
	}
	m.accessToken = token

	raw, err := settings.Store().Get(ctx, store.KeyUserData)
	if err != nil {
		return m
	}
	var identity auth.DiscordUser
	if err := json.Unmarshal([]byte(raw), &identity); err != nil {
		logger.Warn("malformed persisted user data, ignoring stored session", zap.Error(err))
		return m
	}
	m.identity = &identity

	return m
}

// Establish stores a new session created from a successful OAuth callback.
// Both keys persist before the in-memory session becomes live, so a failed
// write leaves no session behind, in memory or in the store.
func (m *Manager) Establish(ctx context.Context, accessToken string, identity *auth.DiscordUser) error {
	raw, err := json.Marshal(identity)
	if err != nil {
		return err
	}

	if err := m.settings.Store().Set(ctx, store.KeyAccessToken, accessToken); err != nil {
		return err
	}
	if err := m.settings.Store().Set(ctx, store.KeyUserData, string(raw)); err != nil {
		if removeErr := m.settings.Store().Remove(ctx, store.KeyAccessToken); removeErr != nil {
			m.logger.Warn("failed to roll back persisted access token", zap.Error(removeErr))
		}
		return err
	}

	m.mu.Lock()
	m.accessToken = accessToken
	m.identity = identity
	m.mu.Unlock()

	return nil
}

// Logout destroys the session and removes the persisted keys.
func (m *Manager) Logout(ctx context.Context) {
	m.mu.Lock()
	m.accessToken = ""
	m.identity = nil
	m.mu.Unlock()

	if err := m.settings.Store().Remove(ctx, store.KeyAccessToken); err != nil {
		m.logger.Warn("failed to remove persisted access token", zap.Error(err))
	}
	if err := m.settings.Store().Remove(ctx, store.KeyUserData); err != nil {
		m.logger.Warn("failed to remove persisted user data", zap.Error(err))
	}
}

// IsAuthenticated reports whether both a token and an identity are present.
func (m *Manager) IsAuthenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.accessToken != "" && m.identity != nil
}

// AccessToken returns the raw bearer token, empty when logged out.
func (m *Manager) AccessToken() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.accessToken
}

// Identity returns a snapshot copy of the cached profile, or nil.
// Mutating the copy never affects the session.
func (m *Manager) Identity() *auth.DiscordUser {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.identity == nil {
		return nil
	}
	snapshot := *m.identity
	if m.identity.AvatarDecoration != nil {
		decoration := *m.identity.AvatarDecoration
		snapshot.AvatarDecoration = &decoration
	}
	return &snapshot
}

// Tag returns username#discriminator, or just the username for accounts
// migrated off discriminators (absent or "0").
func (m *Manager) Tag() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.identity == nil {
		return ""
	}
	if m.identity.Discriminator != "" && m.identity.Discriminator != "0" {
		return m.identity.Username + "#" + m.identity.Discriminator
	}
	return m.identity.Username
}

// DisplayName returns the global display name, falling back to the username.
func (m *Manager) DisplayName() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.identity == nil {
		return ""
	}
	if m.identity.GlobalName != "" {
		return m.identity.GlobalName
	}
	return m.identity.Username
}

// AvatarURL returns the CDN avatar URL for the cached identity. Animated
// avatar hashes (a_ prefix) use gif; accounts without an avatar get the
// default embed avatar.
func (m *Manager) AvatarURL() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.identity == nil {
		return ""
	}
	return AvatarURLFor(m.identity)
}

// AvatarURLFor derives the CDN avatar URL for any identity snapshot.
func AvatarURLFor(identity *auth.DiscordUser) string {
	if identity.Avatar == "" {
		return defaultAvatarURL
	}
	format := "png"
	if strings.HasPrefix(identity.Avatar, "a_") {
		format = "gif"
	}
	return cdnBaseURL + "/avatars/" + identity.ID + "/" + identity.Avatar + "." + format + "?size=256"
}

// Refresh re-fetches the profile from Discord and replaces the cached
// identity wholesale, persisting the new copy.
func (m *Manager) Refresh(ctx context.Context) (*auth.DiscordUser, error) {
	m.mu.RLock()
	token := m.accessToken
	m.mu.RUnlock()

	if token == "" {
		return nil, ErrNoSession
	}

	identity, err := m.client.FetchCurrentUser(ctx, token)
	if err != nil {
		return nil, err
	}

	raw, err := json.Marshal(identity)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.identity = identity
	m.mu.Unlock()

	if err := m.settings.Store().Set(ctx, store.KeyUserData, string(raw)); err != nil {
		m.logger.Warn("failed to persist refreshed user data", zap.Error(err))
	}

	return m.Identity(), nil
}
