// Package web provides the HTTP surface: the dashboard API, the OAuth
// callback and the generated profile documents.
package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/cardsmith/profilecard/internal/artifact"
	"github.com/cardsmith/profilecard/internal/auth"
	"github.com/cardsmith/profilecard/internal/catalog"
	"github.com/cardsmith/profilecard/internal/config"
	"github.com/cardsmith/profilecard/internal/dashboard"
	"github.com/cardsmith/profilecard/internal/media"
	"github.com/cardsmith/profilecard/internal/presence"
	"github.com/cardsmith/profilecard/internal/session"
)

// maxUploadBytes caps a single media upload request body.
const maxUploadBytes = 50 << 20

// Handlers contains all HTTP handlers.
type Handlers struct {
	controller *dashboard.Controller
	sessions   *session.Manager
	discord    *auth.DiscordClient
	cfg        *config.Config
	logger     *zap.Logger
}

// NewHandlers creates a new handlers instance.
func NewHandlers(controller *dashboard.Controller, sessions *session.Manager, discord *auth.DiscordClient, cfg *config.Config, logger *zap.Logger) *Handlers {
	return &Handlers{
		controller: controller,
		sessions:   sessions,
		discord:    discord,
		cfg:        cfg,
		logger:     logger,
	}
}

// HealthHandler handles health check requests.
func (h *Handlers) HealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("OK")); err != nil {
		h.logger.Error("failed to write health check response", zap.Error(err))
	}
}

type dashboardState struct {
	LoggedIn    bool                 `json:"logged_in"`
	Username    string               `json:"username,omitempty"`
	DisplayName string               `json:"display_name,omitempty"`
	Tag         string               `json:"tag,omitempty"`
	AvatarURL   string               `json:"avatar_url,omitempty"`
	Appearance  interface{}          `json:"appearance"`
	Badges      interface{}          `json:"badges"`
	Catalog     []catalog.Decoration `json:"catalog"`
}

// DashboardHandler returns the current dashboard state.
func (h *Handlers) DashboardHandler(w http.ResponseWriter, r *http.Request) {
	state := dashboardState{
		LoggedIn:   h.sessions.IsAuthenticated(),
		Appearance: h.controller.Draft(),
		Badges:     h.controller.Badges(),
		Catalog:    catalog.All(),
	}

	if identity := h.sessions.Identity(); identity != nil {
		state.Username = identity.Username
		state.DisplayName = h.sessions.DisplayName()
		state.Tag = h.sessions.Tag()
		state.AvatarURL = h.sessions.AvatarURL()
	}

	h.writeJSON(w, http.StatusOK, state)
}

// LoginURLHandler returns the Discord authorization URL.
func (h *Handlers) LoginURLHandler(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"url": h.discord.LoginURL()})
}

// ConfigHandler exposes the public OAuth client settings.
func (h *Handlers) ConfigHandler(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"client_id":    h.cfg.Discord.ClientID,
		"redirect_uri": h.cfg.Discord.RedirectURI,
	})
}

// CallbackHandler handles the OAuth callback from Discord. On any failure a
// failure page renders and no session state is written.
func (h *Handlers) CallbackHandler(w http.ResponseWriter, r *http.Request) {
	if errParam := r.URL.Query().Get("error"); errParam != "" {
		errDesc := r.URL.Query().Get("error_description")
		h.logger.Error("oauth error from discord",
			zap.String("error", errParam),
			zap.String("description", errDesc),
		)
		h.renderError(w, "Authentication failed", fmt.Sprintf("Discord returned an error: %s", errParam))
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		h.logger.Error("missing authorization code")
		h.renderError(w, "Invalid request", "Missing authorization code")
		return
	}

	token, err := h.discord.ExchangeCode(r.Context(), code)
	if err != nil {
		h.logger.Error("failed to exchange authorization code", zap.Error(err))
		h.renderError(w, "Authentication failed", "Failed to complete authentication. Please try again.")
		return
	}

	identity, err := h.discord.FetchCurrentUser(r.Context(), token.AccessToken)
	if err != nil {
		h.logger.Error("failed to fetch user profile", zap.Error(err))
		h.renderError(w, "Authentication failed", "Failed to load your Discord profile. Please try again.")
		return
	}

	if err := h.sessions.Establish(r.Context(), token.AccessToken, identity); err != nil {
		h.logger.Error("failed to establish session", zap.Error(err))
		h.renderError(w, "Authentication failed", "Failed to store your session. Please try again.")
		return
	}

	h.logger.Info("user authenticated", zap.String("user_id", identity.ID))
	h.renderSuccess(w)
}

// ToggleOwnershipHandler flips ownership of a decoration.
func (h *Handlers) ToggleOwnershipHandler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, ok := catalog.Lookup(id); !ok {
		h.writeError(w, http.StatusNotFound, "unknown decoration")
		return
	}

	owned, err := h.controller.ToggleOwnership(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to toggle decoration ownership", zap.String("id", id), zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "failed to persist decoration state")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"id":     id,
		"owned":  owned,
		"badges": h.controller.Badges(),
	})
}

// ToggleVisibilityHandler flips draft visibility of a decoration.
func (h *Handlers) ToggleVisibilityHandler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, ok := catalog.Lookup(id); !ok {
		h.writeError(w, http.StatusNotFound, "unknown decoration")
		return
	}

	visible := h.controller.ToggleVisibility(id)
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"id":      id,
		"visible": visible,
		"badges":  h.controller.Badges(),
	})
}

// AppearanceHandler merges partial appearance edits into the draft.
func (h *Handlers) AppearanceHandler(w http.ResponseWriter, r *http.Request) {
	var patch dashboard.AppearancePatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid appearance payload")
		return
	}

	h.writeJSON(w, http.StatusOK, h.controller.ApplyDraft(patch))
}

// SaveHandler commits the draft.
func (h *Handlers) SaveHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.controller.Save(r.Context()); err != nil {
		h.logger.Error("failed to save settings", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "failed to save settings")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "saved"})
}

// CancelHandler discards the draft and returns the restored state.
func (h *Handlers) CancelHandler(w http.ResponseWriter, r *http.Request) {
	h.controller.Cancel(r.Context())
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"appearance": h.controller.Draft(),
		"badges":     h.controller.Badges(),
	})
}

// UploadMediaHandler stores a background video or audio upload.
func (h *Handlers) UploadMediaHandler(w http.ResponseWriter, r *http.Request) {
	kind := media.Kind(r.PathValue("kind"))

	body := http.MaxBytesReader(w, r.Body, maxUploadBytes)
	asset, err := h.controller.UploadMedia(r.Context(), kind, body)
	if err != nil {
		if errors.Is(err, media.ErrUnknownKind) {
			h.writeError(w, http.StatusNotFound, "unknown media kind")
			return
		}
		h.logger.Error("media upload failed", zap.String("kind", string(kind)), zap.Error(err))
		h.writeError(w, http.StatusBadRequest, "failed to read uploaded media")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"kind": asset.Kind,
		"size": len(asset.DataURI),
	})
}

// RemoveMediaHandler clears a media slot.
func (h *Handlers) RemoveMediaHandler(w http.ResponseWriter, r *http.Request) {
	kind := media.Kind(r.PathValue("kind"))

	if err := h.controller.RemoveMedia(r.Context(), kind); err != nil {
		if errors.Is(err, media.ErrUnknownKind) {
			h.writeError(w, http.StatusNotFound, "unknown media kind")
			return
		}
		h.logger.Error("media removal failed", zap.String("kind", string(kind)), zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "failed to remove media")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

// ViewProfileHandler generates a profile document and returns its URL.
func (h *Handlers) ViewProfileHandler(w http.ResponseWriter, r *http.Request) {
	doc, err := h.controller.ViewProfile(r.Context())
	if err != nil {
		if errors.Is(err, artifact.ErrNoSession) {
			h.writeError(w, http.StatusUnauthorized, "login with Discord first to view your profile")
			return
		}
		h.logger.Error("profile generation failed", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "failed to generate profile")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"id":  doc.ID,
		"url": "/p/" + doc.ID,
	})
}

// ServeDocumentHandler serves a generated profile document. The document
// stays claimable only for a short grace window after the first claim.
func (h *Handlers) ServeDocumentHandler(w http.ResponseWriter, r *http.Request) {
	doc, err := h.controller.ClaimDocument(r.PathValue("id"))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := io.WriteString(w, doc.HTML); err != nil {
		h.logger.Error("failed to write profile document", zap.Error(err))
	}
}

// ReleaseDocumentHandler drops a published document without serving it.
// The dashboard calls this when the viewing window could not be opened.
func (h *Handlers) ReleaseDocumentHandler(w http.ResponseWriter, r *http.Request) {
	h.controller.ReleaseDocument(r.PathValue("id"))
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "released"})
}

// PresenceHandler returns a one-shot presence snapshot for the logged-in
// user. Fetch failures degrade to the blank offline snapshot.
func (h *Handlers) PresenceHandler(w http.ResponseWriter, r *http.Request) {
	identity := h.sessions.Identity()
	if identity == nil {
		h.writeError(w, http.StatusUnauthorized, "no active session")
		return
	}

	client := presence.NewClient(h.cfg.Presence.SocketURL, h.cfg.Presence.RESTBaseURL, identity.ID, h.logger)
	snapshot, err := client.FetchOnce(r.Context())
	if err != nil {
		h.logger.Debug("presence fetch failed", zap.Error(err))
	}

	h.writeJSON(w, http.StatusOK, snapshot)
}

// LogoutHandler tears down the session.
func (h *Handlers) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	h.controller.Logout(r.Context())
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
