// Package media holds uploaded background video/audio for the profile card.
//
// Assets are dual-backed: an in-memory copy that is authoritative for the
// current session, and a best-effort persisted copy that may be rejected when
// it exceeds the store's capacity. Losing the persisted copy is an accepted
// degradation, never an upload failure.
package media

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"

	"github.com/cardsmith/profilecard/internal/store"
)

// Kind identifies the media slot an asset occupies.
type Kind string

const (
	KindVideo Kind = "video"
	KindAudio Kind = "audio"
)

// ErrUnknownKind is returned for a Kind other than video or audio.
var ErrUnknownKind = errors.New("unknown media kind")

var mimeTypes = map[Kind]string{
	KindVideo: "video/mp4",
	KindAudio: "audio/mpeg",
}

// Asset is an uploaded media file encoded as a data URI.
type Asset struct {
	Kind    Kind
	DataURI string
}

// Vault stores the two media slots.
type Vault struct {
	mu     sync.RWMutex
	assets map[Kind]string

	store  store.Store
	logger *zap.Logger
}

// NewVault creates a Vault over the given store. Existing persisted assets
// are lazily picked up on read, so a restart keeps whatever survived
// persistence.
func NewVault(s store.Store, logger *zap.Logger) *Vault {
	return &Vault{
		assets: make(map[Kind]string),
		store:  s,
		logger: logger,
	}
}

func storageKey(kind Kind) (string, error) {
	switch kind {
	case KindVideo:
		return store.KeyCustomBgVideo, nil
	case KindAudio:
		return store.KeyCustomBgAudio, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

// Upload reads the file content, encodes it as a data URI, sets the in-memory
// slot unconditionally, then attempts to persist. A capacity rejection is
// logged and swallowed: the upload still succeeds for the caller.
func (v *Vault) Upload(ctx context.Context, kind Kind, content io.Reader) (Asset, error) {
	key, err := storageKey(kind)
	if err != nil {
		return Asset{}, err
	}

	raw, err := io.ReadAll(content)
	if err != nil {
		return Asset{}, fmt.Errorf("failed to read media content: %w", err)
	}

	dataURI := "data:" + mimeTypes[kind] + ";base64," + base64.StdEncoding.EncodeToString(raw)

	v.mu.Lock()
	v.assets[kind] = dataURI
	v.mu.Unlock()

	if err := v.store.Set(ctx, key, dataURI); err != nil {
		if errors.Is(err, store.ErrCapacityExceeded) {
			v.logger.Warn("media too large for persistent store, kept in memory only",
				zap.String("kind", string(kind)),
				zap.Int("bytes", len(dataURI)),
			)
		} else {
			v.logger.Warn("failed to persist media, kept in memory only",
				zap.String("kind", string(kind)),
				zap.Error(err),
			)
		}
	}

	return Asset{Kind: kind, DataURI: dataURI}, nil
}

// Asset returns the current asset for kind, preferring the in-memory copy and
// falling back to the persisted one. The boolean reports presence.
func (v *Vault) Asset(ctx context.Context, kind Kind) (Asset, bool) {
	v.mu.RLock()
	dataURI, ok := v.assets[kind]
	v.mu.RUnlock()

	if ok {
		return Asset{Kind: kind, DataURI: dataURI}, true
	}

	key, err := storageKey(kind)
	if err != nil {
		return Asset{}, false
	}

	persisted, err := v.store.Get(ctx, key)
	if err != nil {
		return Asset{}, false
	}
	return Asset{Kind: kind, DataURI: persisted}, true
}

// Remove clears both tiers for kind.
func (v *Vault) Remove(ctx context.Context, kind Kind) error {
	key, err := storageKey(kind)
	if err != nil {
		return err
	}

	v.mu.Lock()
	delete(v.assets, kind)
	v.mu.Unlock()

	if err := v.store.Remove(ctx, key); err != nil {
		return fmt.Errorf("failed to remove persisted media: %w", err)
	}
	return nil
}

// HasPersisted reports whether a persisted copy exists for kind.
func (v *Vault) HasPersisted(ctx context.Context, kind Kind) bool {
	key, err := storageKey(kind)
	if err != nil {
		return false
	}
	_, err = v.store.Get(ctx, key)
	return err == nil
}
