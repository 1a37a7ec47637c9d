// Package selection owns the two-tier decoration state: the owned set (which
// decorations the user has added) and the visible set (which owned
// decorations render on the generated card).
//
// Ownership commits to the store immediately on every toggle. Visibility is
// edited as an in-memory draft and only persisted by CommitDraft; DiscardDraft
// reloads the last persisted visibility.
package selection

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/cardsmith/profilecard/internal/catalog"
	"github.com/cardsmith/profilecard/internal/store"
)

// Badge is a renderable owned decoration.
type Badge struct {
	ID        string `json:"id"`
	Icon      string `json:"icon"`
	Label     string `json:"name"`
	IsVisible bool   `json:"visible"`
}

// Engine holds decoration selection state for one user context.
type Engine struct {
	settings *store.Settings
	logger   *zap.Logger

	mu      sync.Mutex
	owned   []string // insertion order, committed on every toggle
	visible []string // draft, persisted on CommitDraft
}

// NewEngine loads state from the store. When no visibility was ever
// persisted, every owned decoration starts visible.
func NewEngine(ctx context.Context, settings *store.Settings, logger *zap.Logger) *Engine {
	e := &Engine{settings: settings, logger: logger}

	e.owned = settings.GetIDList(ctx, store.KeySelectedDecorations)
	if settings.HasKey(ctx, store.KeyActiveDecorations) {
		e.visible = settings.GetIDList(ctx, store.KeyActiveDecorations)
	} else {
		e.visible = append([]string{}, e.owned...)
	}

	return e
}

// ToggleOwnership adds id to the owned set, or removes it if already owned.
// The owned set persists immediately; it is never part of the draft cycle.
// Removing ownership also strips id from both the draft and the persisted
// visibility so a visible-but-not-owned badge cannot survive. Returns the new
// membership.
func (e *Engine) ToggleOwnership(ctx context.Context, id string) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	idx := indexOf(e.owned, id)
	nowOwned := idx < 0

	if nowOwned {
		e.owned = append(e.owned, id)
	} else {
		e.owned = append(e.owned[:idx], e.owned[idx+1:]...)
		e.visible = without(e.visible, id)

		persisted := e.settings.GetIDList(ctx, store.KeyActiveDecorations)
		if indexOf(persisted, id) >= 0 {
			if err := e.settings.SetIDList(ctx, store.KeyActiveDecorations, without(persisted, id)); err != nil {
				e.logger.Warn("failed to strip removed decoration from persisted visibility",
					zap.String("id", id),
					zap.Error(err),
				)
			}
		}
	}

	if err := e.settings.SetIDList(ctx, store.KeySelectedDecorations, e.owned); err != nil {
		return nowOwned, err
	}
	return nowOwned, nil
}

// ToggleVisibility flips id in the visibility draft and returns the new
// state. The engine does not reject ids outside the owned set; rendering
// filters them out. Nothing persists until CommitDraft.
func (e *Engine) ToggleVisibility(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if indexOf(e.visible, id) >= 0 {
		e.visible = without(e.visible, id)
		return false
	}
	e.visible = append(e.visible, id)
	return true
}

// CommitDraft persists the visibility draft.
func (e *Engine) CommitDraft(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.settings.SetIDList(ctx, store.KeyActiveDecorations, e.visible)
}

// DiscardDraft reloads visibility from the store, dropping unsaved toggles.
func (e *Engine) DiscardDraft(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.visible = e.settings.GetIDList(ctx, store.KeyActiveDecorations)
}

// Owned returns a snapshot of the owned set in insertion order.
func (e *Engine) Owned() []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	return append([]string{}, e.owned...)
}

// Visible returns a snapshot of the visibility draft.
func (e *Engine) Visible() []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	return append([]string{}, e.visible...)
}

// RenderableBadges produces, in owned order, a badge for every owned id found
// in the catalog. Ids missing from the catalog are silently skipped.
func (e *Engine) RenderableBadges() []Badge {
	e.mu.Lock()
	defer e.mu.Unlock()

	badges := make([]Badge, 0, len(e.owned))
	for _, id := range e.owned {
		d, ok := catalog.Lookup(id)
		if !ok {
			continue
		}
		badges = append(badges, Badge{
			ID:        d.ID,
			Icon:      d.Icon,
			Label:     d.Label,
			IsVisible: indexOf(e.visible, id) >= 0,
		})
	}
	return badges
}

func indexOf(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}

func without(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
