package artifact

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cardsmith/profilecard/internal/media"
	"github.com/cardsmith/profilecard/internal/selection"
	"github.com/cardsmith/profilecard/internal/session"
	"github.com/cardsmith/profilecard/internal/store"
)

// ErrNoSession is returned when document generation is attempted without an
// authenticated session.
var ErrNoSession = errors.New("no active session to generate a profile for")

const decorationPresetBase = "https://cdn.discordapp.com/avatar-decoration-presets"

// Document is one generated profile artifact. It is a frozen snapshot; later
// dashboard edits do not propagate into it.
type Document struct {
	ID        string
	HTML      string
	CreatedAt time.Time
}

// Generator builds standalone profile documents.
type Generator struct {
	socketURL    string
	presenceBase string
	identityBase string
	refresh      time.Duration
	logger       *zap.Logger
}

// NewGenerator creates a Generator. socketURL and presenceBase point at the
// presence service, identityBase at the Discord REST API used by the
// embedded profile refresher.
func NewGenerator(socketURL, presenceBase, identityBase string, refresh time.Duration, logger *zap.Logger) *Generator {
	return &Generator{
		socketURL:    socketURL,
		presenceBase: presenceBase,
		identityBase: identityBase,
		refresh:      refresh,
		logger:       logger,
	}
}

// Generate snapshots the four inputs and renders the document. The returned
// Document embeds the raw bearer token so the artifact can refresh identity
// fields on its own; anyone holding the document content can use that token
// for its lifetime. That trust boundary is accepted, not hidden.
func (g *Generator) Generate(ctx context.Context, sessions *session.Manager, appearance store.Appearance, badges []selection.Badge, vault *media.Vault) (*Document, error) {
	identity := sessions.Identity()
	if identity == nil {
		return nil, ErrNoSession
	}

	vm := ViewModel{
		Title:       identity.Username + " - Discord Profile",
		AvatarURL:   sessions.AvatarURL(),
		DisplayName: sessions.DisplayName(),
		Username:    identity.Username,
		Tag:         sessions.Tag(),

		CardBackground:  template.CSS(CardBackground(appearance.CardColor, appearance.CardOpacity)),
		CardBorderColor: template.CSS(appearance.CardBorderColor),
		NameColor:       template.CSS(appearance.NameColor),
		BoxBackground:   template.CSS(BoxBackground(appearance.BoxColor)),
		BoxBlur:         template.CSS(appearance.BoxBlur + "px"),

		EffectRain:  appearance.EffectRain,
		EffectNight: appearance.EffectNight,
		EffectRetro: appearance.EffectRetro,

		UserID:        identity.ID,
		AccessToken:   sessions.AccessToken(),
		SocketURL:     g.socketURL,
		PresenceBase:  g.presenceBase,
		IdentityBase:  g.identityBase,
		RefreshMillis: g.refresh.Milliseconds(),
	}

	if identity.GlobalName != "" && identity.GlobalName != identity.Username {
		vm.GlobalName = identity.GlobalName
	}

	if identity.AvatarDecoration != nil && appearance.ShowDiscordDecoration {
		vm.Decoration = fmt.Sprintf("%s/%s.png", decorationPresetBase, identity.AvatarDecoration.Asset)
	}

	if created, err := CreationTime(identity.ID); err == nil {
		vm.CreatedAt = created.Format("Jan 2, 2006")
	} else {
		g.logger.Warn("failed to decode account creation time", zap.Error(err))
	}

	if appearance.WidgetInvisible {
		vm.WidgetStyle = "background: transparent; border: none; backdrop-filter: none; -webkit-backdrop-filter: none; box-shadow: none; padding: 0;"
	}

	if asset, ok := vault.Asset(ctx, media.KindVideo); ok {
		vm.VideoSource = template.URL(asset.DataURI)
		vm.VideoBlur = appearance.EffectBlur
	}
	if asset, ok := vault.Asset(ctx, media.KindAudio); ok {
		vm.AudioSource = template.URL(asset.DataURI)
	}

	for _, b := range badges {
		if b.IsVisible {
			vm.Badges = append(vm.Badges, BadgeView{ID: b.ID, Icon: b.Icon})
		}
	}

	var buf bytes.Buffer
	if err := documentTemplate.Execute(&buf, vm); err != nil {
		return nil, fmt.Errorf("failed to render profile document: %w", err)
	}

	doc := &Document{
		ID:        uuid.New().String(),
		HTML:      buf.String(),
		CreatedAt: time.Now(),
	}

	g.logger.Info("profile document generated",
		zap.String("document_id", doc.ID),
		zap.String("user_id", identity.ID),
		zap.Int("badges", len(vm.Badges)),
	)

	return doc, nil
}

var documentTemplate = template.Must(template.New("profile").Parse(documentHTML))

const documentHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Title}}</title>
<style>
* { margin: 0; padding: 0; box-sizing: border-box; }
body {
    font-family: 'Noto Sans', 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif;
    background: linear-gradient(135deg, #667eea 0%, #764ba2 100%);
    min-height: 100vh;
    display: flex;
    align-items: center;
    justify-content: center;
    padding: 20px;
    overflow: hidden;
    position: relative;
}
.profile-bg-video {
    position: fixed;
    top: 0; left: 0;
    width: 100%; height: 100%;
    object-fit: cover;
    z-index: 0;
    opacity: 0.6;
}
.blur-effect { filter: blur(5px); }
.night-overlay {
    position: fixed;
    top: 0; left: 0;
    width: 100%; height: 100%;
    background: rgba(0, 0, 0, 0.6);
    z-index: 1;
    pointer-events: none;
}
.rain-container {
    position: fixed;
    top: 0; left: 0;
    width: 100%; height: 100%;
    z-index: 2;
    pointer-events: none;
    overflow: hidden;
}
.rain-container::before {
    content: '';
    position: absolute;
    top: -50%; left: 0;
    width: 100%; height: 200%;
    background: repeating-linear-gradient(
        transparent,
        transparent 4px,
        rgba(150, 180, 255, 0.15) 4px,
        rgba(150, 180, 255, 0.15) 5px
    );
    animation: rain 0.4s linear infinite;
}
@keyframes rain {
    0% { transform: translateY(0); }
    100% { transform: translateY(25%); }
}
.retro-overlay {
    position: fixed;
    top: 0; left: 0;
    width: 100%; height: 100%;
    z-index: 3;
    pointer-events: none;
    background: rgba(18, 16, 16, 0.1);
}
.scanlines {
    position: absolute;
    top: 0; bottom: 0; left: 0; right: 0;
    z-index: 3;
    background: linear-gradient(0deg, rgba(0,0,0,0) 50%, rgba(255, 255, 255, 0.15) 50%);
    opacity: 0.15;
    background-size: 100% 4px;
    animation: scanlines 5s linear infinite;
    pointer-events: none;
}
@keyframes scanlines {
    0% { background-position: 0 0; }
    100% { background-position: 0 100%; }
}
.profile-card {
    background: {{.CardBackground}};
    backdrop-filter: blur(10px);
    border-radius: 20px;
    padding: 40px;
    max-width: 500px;
    width: 100%;
    box-shadow: 0 20px 60px rgba(0, 0, 0, 0.3);
    border: 2px solid {{.CardBorderColor}};
    text-align: center;
    position: relative;
    animation: float 6s ease-in-out infinite;
    z-index: 10;
}
@keyframes float {
    0% { transform: translateY(0px); }
    50% { transform: translateY(-20px); }
    100% { transform: translateY(0px); }
}
.avatar-container {
    position: relative;
    display: inline-block;
    margin-bottom: 20px;
}
.avatar {
    width: 150px;
    height: 150px;
    border-radius: 50%;
    border: 4px solid #7289da;
    box-shadow: 0 10px 30px rgba(114, 137, 218, 0.5);
}
.avatar-decoration {
    position: absolute;
    top: -15px; left: -15px;
    width: 180px; height: 180px;
    pointer-events: none;
    z-index: 2;
}
h1 {
    color: {{.NameColor}};
    margin-bottom: 10px;
    font-size: 2.5em;
    text-shadow: 2px 2px 4px rgba(0,0,0,0.3);
    word-break: break-word;
}
.user-tag {
    color: #5865f2;
    font-size: 1.2em;
    margin-bottom: 20px;
    font-weight: 600;
}
.user-widget {
    display: flex;
    align-items: center;
    gap: 12px;
    background: {{.BoxBackground}};
    backdrop-filter: blur({{.BoxBlur}});
    -webkit-backdrop-filter: blur({{.BoxBlur}});
    padding: 12px 16px;
    border-radius: 14px;
    border: 1px solid rgba(255,255,255,0.1);
    margin: 15px auto;
    max-width: 320px;
}
.widget-avatar {
    width: 45px;
    height: 45px;
    border-radius: 50%;
    border: 2px solid #5865f2;
}
.widget-info {
    display: flex;
    flex-direction: column;
    gap: 2px;
    text-align: left;
}
.widget-name {
    display: flex;
    align-items: center;
    gap: 6px;
    font-weight: 600;
    font-size: 0.95em;
    color: #fff;
}
.widget-detail {
    font-size: 0.75em;
    color: #999;
    font-family: monospace;
}
.badge {
    background: rgba(88, 101, 242, 0.3);
    padding: 2px 5px;
    border-radius: 4px;
    font-size: 0.8em;
}
.status-dot {
    width: 8px;
    height: 8px;
    border-radius: 50%;
    display: inline-block;
}
.status-online { background: #43b581; box-shadow: 0 0 6px #43b581; }
.status-idle { background: #faa61a; box-shadow: 0 0 6px #faa61a; }
.status-dnd { background: #f04747; box-shadow: 0 0 6px #f04747; }
.status-offline { background: #747f8d; box-shadow: 0 0 6px #747f8d; }
.mini-info {
    display: flex;
    justify-content: center;
    gap: 8px;
    font-size: 0.8em;
    margin: 6px 0;
    color: #aaa;
}
.mini-label { color: #888; }
.mini-value { color: #ccc; font-weight: 500; }
.music-control {
    position: fixed;
    bottom: 20px;
    left: 50%;
    transform: translateX(-50%);
    background: rgba(30, 30, 50, 0.85);
    backdrop-filter: blur(15px);
    -webkit-backdrop-filter: blur(15px);
    border: 1px solid rgba(255,255,255,0.1);
    border-radius: 50px;
    padding: 10px 20px;
    display: flex;
    align-items: center;
    gap: 12px;
    z-index: 100;
    box-shadow: 0 8px 32px rgba(0,0,0,0.4);
}
.music-icon {
    font-size: 1.3em;
    cursor: pointer;
    user-select: none;
}
.music-icon.playing { animation: pulse 1.5s ease-in-out infinite; }
@keyframes pulse {
    0%, 100% { transform: scale(1); }
    50% { transform: scale(1.15); }
}
.volume-bar-container {
    display: flex;
    align-items: center;
    gap: 8px;
    min-width: 160px;
}
.volume-label {
    font-size: 0.7em;
    color: #888;
    min-width: 30px;
    text-align: center;
}
.volume-bar {
    -webkit-appearance: none;
    appearance: none;
    width: 120px;
    height: 5px;
    border-radius: 5px;
    background: linear-gradient(to right, #5865f2 0%, #5865f2 50%, #444 50%, #444 100%);
    outline: none;
    cursor: pointer;
}
.no-music { display: none; }
#activityContainer {
    margin-top: 4px;
    font-size: 0.85em;
    color: #bbb;
    display: flex;
    align-items: center;
    gap: 6px;
    max-width: 100%;
    overflow: hidden;
    text-overflow: ellipsis;
    white-space: nowrap;
}
#activityText { font-weight: 500; }
</style>
</head>
<body>
{{if .VideoSource}}<video class="profile-bg-video{{if .VideoBlur}} blur-effect{{end}}" autoplay muted loop>
    <source src="{{.VideoSource}}" type="video/mp4">
</video>
{{end}}{{if .AudioSource}}<audio id="profileAudio" autoplay loop>
    <source src="{{.AudioSource}}" type="audio/mpeg">
</audio>
{{end}}{{if .EffectRain}}<div class="rain-container"></div>
{{end}}{{if .EffectNight}}<div class="night-overlay"></div>
{{end}}{{if .EffectRetro}}<div class="retro-overlay"><div class="scanlines"></div></div>
{{end}}<div class="profile-card">
    <div class="avatar-container">
        <img src="{{.AvatarURL}}" alt="Avatar" class="avatar">
        {{if .Decoration}}<img src="{{.Decoration}}" class="avatar-decoration" alt="decoration">{{end}}
    </div>
    <h1>{{.DisplayName}}</h1>
    <div class="user-tag">@{{.Tag}}</div>

    <div class="user-widget" style="{{.WidgetStyle}}">
        <img src="{{.AvatarURL}}" class="widget-avatar" alt="" id="widgetAvatar">
        <div class="widget-info">
            <div class="widget-name">
                <span id="widgetUsername">{{.Username}}</span>
                {{range .Badges}}<span class="badge">{{.Icon}}</span>{{end}}
                <span class="status-dot status-offline" id="statusDot"></span>
            </div>
            <div id="activityContainer" class="widget-detail">
                <span id="activityText">Loading activity...</span>
            </div>
        </div>
    </div>

    {{if .GlobalName}}<div class="mini-info" id="displayInfo">
        <span class="mini-label">Display</span>
        <span class="mini-value">{{.GlobalName}}</span>
    </div>
    {{end}}{{if .CreatedAt}}<div class="mini-info">
        <span class="mini-label">📅 Created</span>
        <span class="mini-value">{{.CreatedAt}}</span>
    </div>
    {{end}}
</div>

<div class="music-control{{if not .AudioSource}} no-music{{end}}">
    <span class="music-icon playing" id="musicToggle">🎵</span>
    <div class="volume-bar-container">
        <span class="volume-label" id="volLabel">50%</span>
        <input type="range" class="volume-bar" id="volumeSlider" min="0" max="100" value="50">
        <span class="volume-label">🔊</span>
    </div>
</div>

<script>
document.addEventListener('DOMContentLoaded', () => {
    const USER_ID = '{{.UserID}}';
    const ACCESS_TOKEN = '{{.AccessToken}}';
    const SOCKET_URL = '{{.SocketURL}}';
    const PRESENCE_BASE = '{{.PresenceBase}}';
    const IDENTITY_BASE = '{{.IdentityBase}}';
    const REFRESH_MS = {{.RefreshMillis}};

    const statusDot = document.getElementById('statusDot');
    const activityText = document.getElementById('activityText');
    const widgetAvatar = document.getElementById('widgetAvatar');

    const statusColors = {
        online: '#43b581',
        idle: '#faa61a',
        dnd: '#f04747',
        offline: '#747f8d'
    };

    function updateStatus(discordStatus) {
        statusDot.className = 'status-dot';
        let color = statusColors.offline;
        switch (discordStatus) {
            case 'online':
                statusDot.classList.add('status-online');
                color = statusColors.online;
                break;
            case 'idle':
                statusDot.classList.add('status-idle');
                color = statusColors.idle;
                break;
            case 'dnd':
                statusDot.classList.add('status-dnd');
                color = statusColors.dnd;
                break;
            default:
                statusDot.classList.add('status-offline');
        }
        if (widgetAvatar) {
            widgetAvatar.style.borderColor = color;
        }
    }

    function updateActivity(data) {
        if (!data || !data.activities || data.activities.length === 0) {
            activityText.textContent = '';
            return;
        }
        let activity = data.activities.find(a => a.type === 0) ||
                       data.activities.find(a => a.type === 2) ||
                       data.activities.find(a => a.type === 4);
        if (!activity) {
            activityText.textContent = '';
            return;
        }
        if (activity.type === 4) {
            activityText.textContent = activity.state || activity.name;
        } else if (activity.type === 2 && activity.assets && activity.assets.large_image && activity.name === 'Spotify') {
            activityText.textContent = '🎧 ' + activity.details + ' - ' + activity.state;
        } else {
            let text = '🎮 Playing ' + activity.name;
            if (activity.state) text += ': ' + activity.state;
            activityText.textContent = text;
        }
    }

    const ws = new WebSocket(SOCKET_URL);

    ws.onopen = () => {
        ws.send(JSON.stringify({
            op: 2,
            d: { subscribe_to_id: USER_ID }
        }));
    };

    ws.onmessage = (event) => {
        const message = JSON.parse(event.data);
        const { t, d } = message;
        if (t === 'INIT_STATE' || t === 'PRESENCE_UPDATE') {
            updateStatus(d.discord_status);
            updateActivity(d);
        }
    };

    fetch(PRESENCE_BASE + '/v1/users/' + USER_ID)
        .then(res => res.json())
        .then(res => {
            if (res.success && res.data) {
                updateStatus(res.data.discord_status);
                updateActivity(res.data);
            }
        })
        .catch(() => {});

    async function refreshUserData() {
        try {
            const res = await fetch(IDENTITY_BASE + '/users/@me', {
                headers: { 'Authorization': 'Bearer ' + ACCESS_TOKEN }
            });
            if (!res.ok) return;
            const user = await res.json();
            const h1 = document.querySelector('h1');
            if (h1) h1.textContent = user.global_name || user.username;
            const wName = document.getElementById('widgetUsername');
            if (wName) wName.textContent = user.username;
            if (user.avatar) {
                const ext = user.avatar.startsWith('a_') ? 'gif' : 'png';
                const avatarUrl = 'https://cdn.discordapp.com/avatars/' + user.id + '/' + user.avatar + '.' + ext + '?size=256';
                const mainAvatar = document.querySelector('.avatar');
                if (mainAvatar) mainAvatar.src = avatarUrl;
                if (widgetAvatar) widgetAvatar.src = avatarUrl;
            }
        } catch (e) {}
    }

    setInterval(refreshUserData, REFRESH_MS);

    const audio = document.getElementById('profileAudio');
    const musicToggle = document.getElementById('musicToggle');
    const volumeSlider = document.getElementById('volumeSlider');
    const volLabel = document.getElementById('volLabel');

    if (audio && musicToggle && volumeSlider) {
        audio.volume = 0.5;

        musicToggle.addEventListener('click', () => {
            if (audio.paused) {
                audio.play();
                musicToggle.textContent = '🎵';
                musicToggle.classList.add('playing');
            } else {
                audio.pause();
                musicToggle.textContent = '⏸️';
                musicToggle.classList.remove('playing');
            }
        });

        volumeSlider.addEventListener('input', (e) => {
            audio.volume = e.target.value / 100;
            volLabel.textContent = e.target.value + '%';
            const pct = e.target.value;
            e.target.style.background = 'linear-gradient(to right, #5865f2 0%, #5865f2 ' + pct + '%, #444 ' + pct + '%, #444 100%)';
        });
    }
});
</script>
</body>
</html>
`
