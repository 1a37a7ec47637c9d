// Package store provides the persistent key-value store backing all profile
// card state, plus a typed settings layer over the raw key space.
package store

import "context"

// Fixed key space. Every persisted value is a string; booleans are stored as
// the literal strings "true"/"false" and JSON lists as serialized arrays.
const (
	KeyAccessToken = "discord_access_token"
	KeyUserData    = "discord_user_data"

	KeySelectedDecorations = "selected_decorations"
	KeyActiveDecorations   = "active_decorations"

	KeyCustomBgVideo = "custom_bg_video"
	KeyCustomBgAudio = "custom_bg_audio"

	KeyEffectRain  = "effect_rain"
	KeyEffectNight = "effect_night"
	KeyEffectBlur  = "effect_blur"
	KeyEffectRetro = "effect_retro"

	KeyCardColor       = "card_color"
	KeyCardOpacity     = "card_opacity"
	KeyCardBorderColor = "card_border_color"
	KeyNameColor       = "name_color"
	KeyBoxColor        = "box_color"
	KeyBoxBlur         = "box_blur"

	KeyWidgetInvisible       = "widget_invisible"
	KeyShowDiscordDecoration = "show_discord_decoration"
)

// Store is a string-valued key-value store with a per-value capacity limit.
// Implementations return ErrNotFound for absent keys and ErrCapacityExceeded
// when a value exceeds the configured limit.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}
