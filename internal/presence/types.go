// Package presence implements the client for the external real-time presence
// service: a websocket subscription with a one-shot REST fallback, plus the
// periodic profile refresher that keeps identity fields fresh.
package presence

// Status is the four-way Discord presence status.
type Status string

const (
	StatusOnline  Status = "online"
	StatusIdle    Status = "idle"
	StatusDnd     Status = "dnd"
	StatusOffline Status = "offline"
)

// statusColors maps each status to its indicator color.
var statusColors = map[Status]string{
	StatusOnline:  "#43b581",
	StatusIdle:    "#faa61a",
	StatusDnd:     "#f04747",
	StatusOffline: "#747f8d",
}

// ParseStatus normalizes a wire status string; anything unknown is offline.
func ParseStatus(s string) Status {
	switch Status(s) {
	case StatusOnline, StatusIdle, StatusDnd:
		return Status(s)
	default:
		return StatusOffline
	}
}

// Color returns the indicator color for the status.
func (s Status) Color() string {
	if c, ok := statusColors[s]; ok {
		return c
	}
	return statusColors[StatusOffline]
}

// Activity type discriminators from the presence payload.
const (
	activityGame      = 0
	activityListening = 2
	activityCustom    = 4
)

// Activity is a single entry in the presence activity list.
type Activity struct {
	Type    int    `json:"type"`
	Name    string `json:"name"`
	State   string `json:"state"`
	Details string `json:"details"`
	Assets  struct {
		LargeImage string `json:"large_image"`
	} `json:"assets"`
}

// Data is the presence payload carried by both socket events and the REST
// fallback response.
type Data struct {
	DiscordStatus string     `json:"discord_status"`
	Activities    []Activity `json:"activities"`
}

// Snapshot is the rendered view of a presence payload.
type Snapshot struct {
	Status       Status `json:"status"`
	StatusColor  string `json:"status_color"`
	ActivityLine string `json:"activity_line"`
}

// SnapshotOf renders a presence payload into a Snapshot.
func SnapshotOf(d Data) Snapshot {
	status := ParseStatus(d.DiscordStatus)
	return Snapshot{
		Status:       status,
		StatusColor:  status.Color(),
		ActivityLine: ActivityLine(d.Activities),
	}
}

// ActivityLine picks the activity to display, by priority: primary game
// activity, then a music-listening activity with track detail, then custom
// status text, then blank.
func ActivityLine(activities []Activity) string {
	a := findActivity(activities, activityGame)
	if a == nil {
		a = findActivity(activities, activityListening)
	}
	if a == nil {
		a = findActivity(activities, activityCustom)
	}
	if a == nil {
		return ""
	}

	switch {
	case a.Type == activityCustom:
		if a.State != "" {
			return a.State
		}
		return a.Name

	case a.Type == activityListening && a.Name == "Spotify" && a.Assets.LargeImage != "":
		return "🎧 " + a.Details + " - " + a.State

	default:
		// Game or any other app activity.
		line := "🎮 Playing " + a.Name
		if a.State != "" {
			line += ": " + a.State
		}
		return line
	}
}

func findActivity(activities []Activity, activityType int) *Activity {
	for i := range activities {
		if activities[i].Type == activityType {
			return &activities[i]
		}
	}
	return nil
}
