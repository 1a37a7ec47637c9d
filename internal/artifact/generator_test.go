package artifact

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cardsmith/profilecard/internal/auth"
	"github.com/cardsmith/profilecard/internal/media"
	"github.com/cardsmith/profilecard/internal/selection"
	"github.com/cardsmith/profilecard/internal/session"
	"github.com/cardsmith/profilecard/internal/store"
	"github.com/cardsmith/profilecard/internal/testutil"
)

func newTestGenerator() *Generator {
	return NewGenerator(
		"wss://presence.example/socket",
		"https://presence.example",
		"https://discord.example/api/v10",
		3*time.Second,
		zap.NewNop(),
	)
}

func newAuthenticatedSession(t *testing.T) (*session.Manager, *media.Vault) {
	t.Helper()

	memory := store.NewMemoryStore(1 << 20)
	settings := store.NewSettings(memory, zap.NewNop())
	sessions := session.NewManager(context.Background(), settings, nil, zap.NewNop())

	identity := testutil.GenerateIdentity("175928847299117063")
	require.NoError(t, sessions.Establish(context.Background(), "test_token_abc", identity))

	return sessions, media.NewVault(memory, zap.NewNop())
}

func TestGenerateWithoutSession(t *testing.T) {
	memory := store.NewMemoryStore(1 << 20)
	settings := store.NewSettings(memory, zap.NewNop())
	sessions := session.NewManager(context.Background(), settings, nil, zap.NewNop())
	vault := media.NewVault(memory, zap.NewNop())

	doc, err := newTestGenerator().Generate(context.Background(), sessions, store.DefaultAppearance(), nil, vault)
	assert.ErrorIs(t, err, ErrNoSession)
	assert.Nil(t, doc)
}

func TestGenerateBasicDocument(t *testing.T) {
	sessions, vault := newAuthenticatedSession(t)

	doc, err := newTestGenerator().Generate(context.Background(), sessions, store.DefaultAppearance(), nil, vault)
	require.NoError(t, err)
	require.NotNil(t, doc)

	assert.NotEmpty(t, doc.ID)
	assert.Contains(t, doc.HTML, "<h1>Test User</h1>")
	assert.Contains(t, doc.HTML, "@testuser")
	assert.Contains(t, doc.HTML, "background: #ffffffd9;")
	assert.Contains(t, doc.HTML, "rgba(26, 26, 46, 0.25)")
	assert.Contains(t, doc.HTML, "blur(10px)")

	// Creation date decoded from the snowflake id.
	assert.Contains(t, doc.HTML, "Apr 30, 2016")

	// The embedded client carries the id, token and service endpoints.
	assert.Contains(t, doc.HTML, "175928847299117063")
	assert.Contains(t, doc.HTML, "test_token_abc")
	assert.Contains(t, doc.HTML, "presence.example")
	assert.Contains(t, doc.HTML, "REFRESH_MS")
	assert.Contains(t, doc.HTML, "3000")

	// No media uploaded: no video element, music bar hidden.
	assert.NotContains(t, doc.HTML, `<video class="profile-bg-video`)
	assert.NotContains(t, doc.HTML, `<audio id="profileAudio"`)
	assert.Contains(t, doc.HTML, "music-control no-music")
}

func TestGenerateVisibleBadgesOnly(t *testing.T) {
	sessions, vault := newAuthenticatedSession(t)

	badges := []selection.Badge{
		{ID: "snow", Icon: "❄️", Label: "Snow", IsVisible: true},
		{ID: "stars", Icon: "⭐", Label: "Stars", IsVisible: false},
		{ID: "hearts", Icon: "❤️", Label: "Hearts", IsVisible: true},
	}

	doc, err := newTestGenerator().Generate(context.Background(), sessions, store.DefaultAppearance(), badges, vault)
	require.NoError(t, err)

	assert.Contains(t, doc.HTML, `<span class="badge">❄️</span>`)
	assert.Contains(t, doc.HTML, `<span class="badge">❤️</span>`)
	assert.NotContains(t, doc.HTML, "⭐")

	// Owned order is preserved among the visible badges.
	assert.Less(t, strings.Index(doc.HTML, "❄️"), strings.Index(doc.HTML, "❤️"))
}

func TestGenerateMediaFragments(t *testing.T) {
	sessions, vault := newAuthenticatedSession(t)

	_, err := vault.Upload(context.Background(), media.KindVideo, strings.NewReader("video-bytes"))
	require.NoError(t, err)
	_, err = vault.Upload(context.Background(), media.KindAudio, strings.NewReader("audio-bytes"))
	require.NoError(t, err)

	appearance := store.DefaultAppearance()
	appearance.EffectBlur = true

	doc, err := newTestGenerator().Generate(context.Background(), sessions, appearance, nil, vault)
	require.NoError(t, err)

	assert.Contains(t, doc.HTML, `class="profile-bg-video blur-effect"`)
	assert.Contains(t, doc.HTML, "data:video/mp4;base64,")
	assert.Contains(t, doc.HTML, `<audio id="profileAudio" autoplay loop>`)
	assert.Contains(t, doc.HTML, "data:audio/mpeg;base64,")
	assert.NotContains(t, doc.HTML, "music-control no-music")
}

func TestGenerateEffectOverlays(t *testing.T) {
	sessions, vault := newAuthenticatedSession(t)

	appearance := store.DefaultAppearance()
	appearance.EffectRain = true
	appearance.EffectNight = true
	appearance.EffectRetro = true

	doc, err := newTestGenerator().Generate(context.Background(), sessions, appearance, nil, vault)
	require.NoError(t, err)

	assert.Contains(t, doc.HTML, `<div class="rain-container"></div>`)
	assert.Contains(t, doc.HTML, `<div class="night-overlay"></div>`)
	assert.Contains(t, doc.HTML, `<div class="retro-overlay"><div class="scanlines"></div></div>`)
}

func TestGenerateWidgetInvisible(t *testing.T) {
	sessions, vault := newAuthenticatedSession(t)

	appearance := store.DefaultAppearance()
	appearance.WidgetInvisible = true

	doc, err := newTestGenerator().Generate(context.Background(), sessions, appearance, nil, vault)
	require.NoError(t, err)

	assert.Contains(t, doc.HTML, "background: transparent; border: none;")
}

func TestGenerateCustomAppearance(t *testing.T) {
	sessions, vault := newAuthenticatedSession(t)

	appearance := store.DefaultAppearance()
	appearance.CardColor = "#123456"
	appearance.CardOpacity = "100"
	appearance.CardBorderColor = "#ff0000"
	appearance.NameColor = "#00ff00"
	appearance.BoxColor = "#336699"
	appearance.BoxBlur = "4"

	doc, err := newTestGenerator().Generate(context.Background(), sessions, appearance, nil, vault)
	require.NoError(t, err)

	assert.Contains(t, doc.HTML, "background: #123456ff;")
	assert.Contains(t, doc.HTML, "border: 2px solid #ff0000;")
	assert.Contains(t, doc.HTML, "color: #00ff00;")
	assert.Contains(t, doc.HTML, "rgba(51, 102, 153, 0.25)")
	assert.Contains(t, doc.HTML, "blur(4px)")
}

func TestGenerateAvatarDecorationToggle(t *testing.T) {
	memory := store.NewMemoryStore(1 << 20)
	settings := store.NewSettings(memory, zap.NewNop())
	sessions := session.NewManager(context.Background(), settings, nil, zap.NewNop())
	vault := media.NewVault(memory, zap.NewNop())

	identity := testutil.GenerateIdentity("175928847299117063")
	identity.AvatarDecoration = &auth.AvatarDecoration{Asset: "deco123", SkuID: "sku1"}
	require.NoError(t, sessions.Establish(context.Background(), "tok", identity))

	gen := newTestGenerator()

	doc, err := gen.Generate(context.Background(), sessions, store.DefaultAppearance(), nil, vault)
	require.NoError(t, err)
	assert.Contains(t, doc.HTML, "avatar-decoration-presets/deco123.png")

	appearance := store.DefaultAppearance()
	appearance.ShowDiscordDecoration = false
	doc, err = gen.Generate(context.Background(), sessions, appearance, nil, vault)
	require.NoError(t, err)
	assert.NotContains(t, doc.HTML, "avatar-decoration-presets")
}

func TestGenerateIsSnapshot(t *testing.T) {
	sessions, vault := newAuthenticatedSession(t)
	gen := newTestGenerator()

	appearance := store.DefaultAppearance()
	doc1, err := gen.Generate(context.Background(), sessions, appearance, nil, vault)
	require.NoError(t, err)

	// Later edits produce a new document; the first one is untouched.
	appearance.CardColor = "#000000"
	doc2, err := gen.Generate(context.Background(), sessions, appearance, nil, vault)
	require.NoError(t, err)

	assert.NotEqual(t, doc1.ID, doc2.ID)
	assert.Contains(t, doc1.HTML, "#ffffffd9")
	assert.Contains(t, doc2.HTML, "#000000d9")
}
