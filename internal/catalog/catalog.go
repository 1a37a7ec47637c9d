// Package catalog defines the static set of decorations users can add to
// their profile card.
package catalog

// Decoration is a single decoration definition. The catalog is read-only;
// ids are unique and stable across releases.
type Decoration struct {
	ID    string `json:"id"`
	Icon  string `json:"icon"`
	Label string `json:"name"`
}

// decorations lists every available decoration in display order.
var decorations = []Decoration{
	{ID: "snow", Icon: "❄️", Label: "Snow"},
	{ID: "stars", Icon: "⭐", Label: "Stars"},
	{ID: "hearts", Icon: "❤️", Label: "Hearts"},
	{ID: "flowers", Icon: "🌸", Label: "Flowers"},
	{ID: "bubbles", Icon: "🫧", Label: "Bubbles"},
	{ID: "fireworks", Icon: "🎆", Label: "Fireworks"},
	{ID: "rain", Icon: "🌧️", Label: "Rain"},
	{ID: "lightning", Icon: "⚡", Label: "Lightning"},
	{ID: "confetti", Icon: "🎉", Label: "Confetti"},
	{ID: "leaves", Icon: "🍂", Label: "Leaves"},
}

// All returns every decoration in display order. Callers get a copy and may
// not mutate catalog state through it.
func All() []Decoration {
	out := make([]Decoration, len(decorations))
	copy(out, decorations)
	return out
}

// Lookup returns the decoration with the given id, if it exists.
func Lookup(id string) (Decoration, bool) {
	for _, d := range decorations {
		if d.ID == id {
			return d, true
		}
	}
	return Decoration{}, false
}
