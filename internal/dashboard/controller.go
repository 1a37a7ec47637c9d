// Package dashboard orchestrates the customization surface: draft edits,
// the save/cancel transaction, media uploads and profile generation.
package dashboard

import (
	"context"
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"

	"github.com/cardsmith/profilecard/internal/artifact"
	"github.com/cardsmith/profilecard/internal/media"
	"github.com/cardsmith/profilecard/internal/selection"
	"github.com/cardsmith/profilecard/internal/session"
	"github.com/cardsmith/profilecard/internal/store"
)

// AppearancePatch carries partial appearance edits; nil fields are left
// untouched. Every field is independent.
type AppearancePatch struct {
	EffectRain  *bool `json:"effect_rain,omitempty"`
	EffectNight *bool `json:"effect_night,omitempty"`
	EffectBlur  *bool `json:"effect_blur,omitempty"`
	EffectRetro *bool `json:"effect_retro,omitempty"`

	CardColor       *string `json:"card_color,omitempty"`
	CardOpacity     *string `json:"card_opacity,omitempty"`
	CardBorderColor *string `json:"card_border_color,omitempty"`
	NameColor       *string `json:"name_color,omitempty"`
	BoxColor        *string `json:"box_color,omitempty"`
	BoxBlur         *string `json:"box_blur,omitempty"`

	WidgetInvisible       *bool `json:"widget_invisible,omitempty"`
	ShowDiscordDecoration *bool `json:"show_discord_decoration,omitempty"`
}

// Controller mediates between the HTTP surface and the state components.
// Appearance and decoration visibility are edited as an in-memory draft;
// Save commits the draft, Cancel reloads from the store. Decoration
// ownership bypasses the draft and commits on every toggle.
type Controller struct {
	settings *store.Settings
	engine   *selection.Engine
	sessions *session.Manager
	vault    *media.Vault
	gen      *artifact.Generator
	registry *artifact.Registry
	logger   *zap.Logger

	mu    sync.Mutex
	draft store.Appearance
}

// NewController creates a Controller with the draft initialized from the
// persisted appearance.
func NewController(
	ctx context.Context,
	settings *store.Settings,
	engine *selection.Engine,
	sessions *session.Manager,
	vault *media.Vault,
	gen *artifact.Generator,
	registry *artifact.Registry,
	logger *zap.Logger,
) *Controller {
	return &Controller{
		settings: settings,
		engine:   engine,
		sessions: sessions,
		vault:    vault,
		gen:      gen,
		registry: registry,
		logger:   logger,
		draft:    settings.LoadAppearance(ctx),
	}
}

// Draft returns a copy of the current appearance draft.
func (c *Controller) Draft() store.Appearance {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

// ApplyDraft merges a patch into the in-memory draft. Nothing is persisted
// until Save.
func (c *Controller) ApplyDraft(patch AppearancePatch) store.Appearance {
	c.mu.Lock()
	defer c.mu.Unlock()

	if patch.EffectRain != nil {
		c.draft.EffectRain = *patch.EffectRain
	}
	if patch.EffectNight != nil {
		c.draft.EffectNight = *patch.EffectNight
	}
	if patch.EffectBlur != nil {
		c.draft.EffectBlur = *patch.EffectBlur
	}
	if patch.EffectRetro != nil {
		c.draft.EffectRetro = *patch.EffectRetro
	}
	if patch.CardColor != nil {
		c.draft.CardColor = *patch.CardColor
	}
	if patch.CardOpacity != nil {
		c.draft.CardOpacity = *patch.CardOpacity
	}
	if patch.CardBorderColor != nil {
		c.draft.CardBorderColor = *patch.CardBorderColor
	}
	if patch.NameColor != nil {
		c.draft.NameColor = *patch.NameColor
	}
	if patch.BoxColor != nil {
		c.draft.BoxColor = *patch.BoxColor
	}
	if patch.BoxBlur != nil {
		c.draft.BoxBlur = *patch.BoxBlur
	}
	if patch.WidgetInvisible != nil {
		c.draft.WidgetInvisible = *patch.WidgetInvisible
	}
	if patch.ShowDiscordDecoration != nil {
		c.draft.ShowDiscordDecoration = *patch.ShowDiscordDecoration
	}

	return c.draft
}

// ToggleOwnership flips ownership of a decoration; the change is committed
// immediately, outside the draft cycle.
func (c *Controller) ToggleOwnership(ctx context.Context, id string) (bool, error) {
	return c.engine.ToggleOwnership(ctx, id)
}

// ToggleVisibility flips draft visibility of a decoration.
func (c *Controller) ToggleVisibility(id string) bool {
	return c.engine.ToggleVisibility(id)
}

// Badges returns the owned decorations with their draft visibility.
func (c *Controller) Badges() []selection.Badge {
	return c.engine.RenderableBadges()
}

// Save commits the appearance draft and the visibility draft. Writes are
// sequential, last-write-wins; a failure partway leaves earlier keys
// committed.
func (c *Controller) Save(ctx context.Context) error {
	c.mu.Lock()
	draft := c.draft
	c.mu.Unlock()

	if err := c.settings.SaveAppearance(ctx, draft); err != nil {
		return fmt.Errorf("failed to save appearance: %w", err)
	}
	if err := c.engine.CommitDraft(ctx); err != nil {
		return fmt.Errorf("failed to save decoration visibility: %w", err)
	}

	c.logger.Info("settings saved")
	return nil
}

// Cancel discards unsaved draft edits, reloading appearance and visibility
// from the store. Ownership is untouched; it was never part of the draft.
func (c *Controller) Cancel(ctx context.Context) {
	c.mu.Lock()
	c.draft = c.settings.LoadAppearance(ctx)
	c.mu.Unlock()

	c.engine.DiscardDraft(ctx)
	c.logger.Info("draft changes discarded")
}

// UploadMedia stores a background asset. Persistence failures below the
// vault degrade silently, so a returned error means the upload itself
// failed.
func (c *Controller) UploadMedia(ctx context.Context, kind media.Kind, content io.Reader) (media.Asset, error) {
	return c.vault.Upload(ctx, kind, content)
}

// RemoveMedia clears both tiers for a media slot.
func (c *Controller) RemoveMedia(ctx context.Context, kind media.Kind) error {
	return c.vault.Remove(ctx, kind)
}

// ViewProfile freezes the current state into a profile document and
// registers it for one viewing. The identity refresh beforehand is best
// effort; a stale profile still generates. Without a session no document is
// produced and the dashboard state is unaffected.
func (c *Controller) ViewProfile(ctx context.Context) (*artifact.Document, error) {
	if !c.sessions.IsAuthenticated() {
		return nil, artifact.ErrNoSession
	}

	if _, err := c.sessions.Refresh(ctx); err != nil {
		c.logger.Debug("identity refresh before generation failed", zap.Error(err))
	}

	doc, err := c.gen.Generate(ctx, c.sessions, c.Draft(), c.engine.RenderableBadges(), c.vault)
	if err != nil {
		return nil, err
	}

	c.registry.Publish(doc)
	return doc, nil
}

// ReleaseDocument drops a generated document immediately, for callers that
// failed to open it.
func (c *Controller) ReleaseDocument(id string) {
	c.registry.Release(id)
}

// ClaimDocument resolves a generated document for serving.
func (c *Controller) ClaimDocument(id string) (*artifact.Document, error) {
	return c.registry.Claim(id)
}

// Logout tears the session down.
func (c *Controller) Logout(ctx context.Context) {
	c.sessions.Logout(ctx)
}
