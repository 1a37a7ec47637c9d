// Package artifact synthesizes the standalone profile document: a
// point-in-time snapshot of session, appearance, selection and media state
// with an embedded live-presence client.
package artifact

import (
	"fmt"
	"html/template"
	"math"
	"strconv"
	"time"

	"github.com/cardsmith/profilecard/internal/store"
)

// discordEpochMS is the offset of Discord snowflake timestamps from the Unix
// epoch, in milliseconds.
const discordEpochMS = 1420070400000

// widgetBoxAlpha is the fixed alpha applied to the widget box background.
const widgetBoxAlpha = "0.25"

// BadgeView is one visible decoration rendered on the widget.
type BadgeView struct {
	ID   string
	Icon string
}

// ViewModel is the structured input to the document template. Conditional
// fragments (video, audio, effect overlays) are explicit optional fields.
type ViewModel struct {
	Title       string
	AvatarURL   string
	Decoration  string
	DisplayName string
	Username    string
	Tag         string
	GlobalName  string
	CreatedAt   string

	CardBackground  template.CSS
	CardBorderColor template.CSS
	NameColor       template.CSS
	BoxBackground   template.CSS
	BoxBlur         template.CSS
	WidgetStyle     template.CSS

	VideoSource template.URL
	VideoBlur   bool
	AudioSource template.URL

	EffectRain  bool
	EffectNight bool
	EffectRetro bool

	Badges []BadgeView

	UserID        string
	AccessToken   string
	SocketURL     string
	PresenceBase  string
	IdentityBase  string
	RefreshMillis int64
}

// AlphaHex converts a 0-100 opacity value to a two-digit hex alpha suffix.
// The scale factor and rounding match the card's original color math:
// round(opacity * 2.55), clamped to a byte. Malformed input falls back to
// the default opacity.
func AlphaHex(opacity string) string {
	v, err := strconv.ParseFloat(opacity, 64)
	if err != nil {
		v, _ = strconv.ParseFloat(store.DefaultCardOpacity, 64)
	}

	alpha := int(math.Round(v * 2.55))
	if alpha < 0 {
		alpha = 0
	}
	if alpha > 255 {
		alpha = 255
	}
	return fmt.Sprintf("%02x", alpha)
}

// CardBackground renders the card background as base color plus alpha suffix.
func CardBackground(color, opacity string) string {
	return color + AlphaHex(opacity)
}

// BoxBackground renders a #rrggbb color as an rgba() string with the fixed
// widget box alpha. Malformed colors fall back to the default box color.
func BoxBackground(color string) string {
	r, g, b, err := splitRGB(color)
	if err != nil {
		r, g, b, _ = splitRGB(store.DefaultBoxColor)
	}
	return fmt.Sprintf("rgba(%d, %d, %d, %s)", r, g, b, widgetBoxAlpha)
}

func splitRGB(color string) (int, int, int, error) {
	if len(color) != 7 || color[0] != '#' {
		return 0, 0, 0, fmt.Errorf("invalid color %q", color)
	}

	r, err := strconv.ParseUint(color[1:3], 16, 8)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid color %q: %w", color, err)
	}
	g, err := strconv.ParseUint(color[3:5], 16, 8)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid color %q: %w", color, err)
	}
	b, err := strconv.ParseUint(color[5:7], 16, 8)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid color %q: %w", color, err)
	}
	return int(r), int(g), int(b), nil
}

// CreationTime decodes a Discord snowflake id into its creation timestamp.
func CreationTime(id string) (time.Time, error) {
	n, err := strconv.ParseUint(id, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid snowflake %q: %w", id, err)
	}

	ms := int64(n>>22) + discordEpochMS
	return time.UnixMilli(ms).UTC(), nil
}
