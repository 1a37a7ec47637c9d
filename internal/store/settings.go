package store

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"

	"go.uber.org/zap"
)

// Appearance default values, used whenever a key is absent from the store.
const (
	DefaultCardColor       = "#ffffff"
	DefaultCardOpacity     = "85"
	DefaultCardBorderColor = "#ffffff"
	DefaultNameColor       = "#ffffff"
	DefaultBoxColor        = "#1a1a2e"
	DefaultBoxBlur         = "10"
)

// Appearance is the flat record of card customization fields. Every field is
// independent; see Settings for the per-field default semantics.
type Appearance struct {
	EffectRain  bool `json:"effect_rain"`
	EffectNight bool `json:"effect_night"`
	EffectBlur  bool `json:"effect_blur"`
	EffectRetro bool `json:"effect_retro"`

	CardColor       string `json:"card_color"`
	CardOpacity     string `json:"card_opacity"`
	CardBorderColor string `json:"card_border_color"`
	NameColor       string `json:"name_color"`
	BoxColor        string `json:"box_color"`
	BoxBlur         string `json:"box_blur"`

	WidgetInvisible       bool `json:"widget_invisible"`
	ShowDiscordDecoration bool `json:"show_discord_decoration"`
}

// DefaultAppearance returns an Appearance with every field at its default.
func DefaultAppearance() Appearance {
	return Appearance{
		CardColor:             DefaultCardColor,
		CardOpacity:           DefaultCardOpacity,
		CardBorderColor:       DefaultCardBorderColor,
		NameColor:             DefaultNameColor,
		BoxColor:              DefaultBoxColor,
		BoxBlur:               DefaultBoxBlur,
		ShowDiscordDecoration: true,
	}
}

// Settings is the typed layer over the raw key space. Booleans are persisted
// as the literal strings "true"/"false"; on read only the exact string "true"
// enables a flag, except show_discord_decoration where only the exact string
// "false" disables it (absence means on).
type Settings struct {
	store  Store
	logger *zap.Logger
}

// NewSettings creates a Settings layer over the given store.
func NewSettings(s Store, logger *zap.Logger) *Settings {
	return &Settings{store: s, logger: logger}
}

// Store exposes the underlying raw store.
func (s *Settings) Store() Store {
	return s.store
}

// GetString returns the stored value for key, or fallback when absent.
func (s *Settings) GetString(ctx context.Context, key, fallback string) string {
	value, err := s.store.Get(ctx, key)
	if err != nil {
		return fallback
	}
	// An empty stored string also falls back, matching the original
	// "stored || default" read semantics.
	if value == "" {
		return fallback
	}
	return value
}

// GetBool returns true only when the stored value is exactly "true".
func (s *Settings) GetBool(ctx context.Context, key string) bool {
	value, err := s.store.Get(ctx, key)
	return err == nil && value == "true"
}

// GetBoolDefaultTrue returns false only when the stored value is exactly
// "false"; absence and any other value mean true.
func (s *Settings) GetBoolDefaultTrue(ctx context.Context, key string) bool {
	value, err := s.store.Get(ctx, key)
	if err != nil {
		return true
	}
	return value != "false"
}

// SetBool persists a boolean as the literal string "true" or "false".
func (s *Settings) SetBool(ctx context.Context, key string, value bool) error {
	return s.store.Set(ctx, key, strconv.FormatBool(value))
}

// GetIDList reads a JSON array of decoration ids. A missing key yields an
// empty list; malformed JSON is logged and recovered as an empty list.
func (s *Settings) GetIDList(ctx context.Context, key string) []string {
	raw, err := s.store.Get(ctx, key)
	if err != nil {
		return []string{}
	}

	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		s.logger.Warn("malformed id list in store, recovering as empty",
			zap.String("key", key),
			zap.Error(err),
		)
		return []string{}
	}
	if ids == nil {
		return []string{}
	}
	return ids
}

// SetIDList persists a JSON array of decoration ids.
func (s *Settings) SetIDList(ctx context.Context, key string, ids []string) error {
	if ids == nil {
		ids = []string{}
	}
	raw, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	return s.store.Set(ctx, key, string(raw))
}

// HasKey reports whether key is present in the store.
func (s *Settings) HasKey(ctx context.Context, key string) bool {
	_, err := s.store.Get(ctx, key)
	return !errors.Is(err, ErrNotFound) && err == nil
}

// LoadAppearance reads every appearance field, substituting defaults for
// absent keys.
func (s *Settings) LoadAppearance(ctx context.Context) Appearance {
	return Appearance{
		EffectRain:  s.GetBool(ctx, KeyEffectRain),
		EffectNight: s.GetBool(ctx, KeyEffectNight),
		EffectBlur:  s.GetBool(ctx, KeyEffectBlur),
		EffectRetro: s.GetBool(ctx, KeyEffectRetro),

		CardColor:       s.GetString(ctx, KeyCardColor, DefaultCardColor),
		CardOpacity:     s.GetString(ctx, KeyCardOpacity, DefaultCardOpacity),
		CardBorderColor: s.GetString(ctx, KeyCardBorderColor, DefaultCardBorderColor),
		NameColor:       s.GetString(ctx, KeyNameColor, DefaultNameColor),
		BoxColor:        s.GetString(ctx, KeyBoxColor, DefaultBoxColor),
		BoxBlur:         s.GetString(ctx, KeyBoxBlur, DefaultBoxBlur),

		WidgetInvisible:       s.GetBool(ctx, KeyWidgetInvisible),
		ShowDiscordDecoration: s.GetBoolDefaultTrue(ctx, KeyShowDiscordDecoration),
	}
}

// SaveAppearance persists every appearance field. Writes are sequential and
// last-write-wins; there is no cross-key transaction.
func (s *Settings) SaveAppearance(ctx context.Context, a Appearance) error {
	writes := []struct {
		key   string
		value string
	}{
		{KeyEffectRain, strconv.FormatBool(a.EffectRain)},
		{KeyEffectNight, strconv.FormatBool(a.EffectNight)},
		{KeyEffectBlur, strconv.FormatBool(a.EffectBlur)},
		{KeyEffectRetro, strconv.FormatBool(a.EffectRetro)},
		{KeyCardColor, a.CardColor},
		{KeyCardOpacity, a.CardOpacity},
		{KeyCardBorderColor, a.CardBorderColor},
		{KeyNameColor, a.NameColor},
		{KeyBoxColor, a.BoxColor},
		{KeyBoxBlur, a.BoxBlur},
		{KeyWidgetInvisible, strconv.FormatBool(a.WidgetInvisible)},
		{KeyShowDiscordDecoration, strconv.FormatBool(a.ShowDiscordDecoration)},
	}

	for _, w := range writes {
		if err := s.store.Set(ctx, w.key, w.value); err != nil {
			return err
		}
	}
	return nil
}
