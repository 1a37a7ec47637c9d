package artifact

import (
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrArtifactNotFound is returned when a document id has no registered (or
// an already released) document.
var ErrArtifactNotFound = errors.New("artifact not found")

// DefaultGraceDelay is how long a claimed document stays resolvable, giving
// the viewing context time to take ownership of the content.
const DefaultGraceDelay = 100 * time.Millisecond

// DefaultUnclaimedTTL bounds how long a published document may sit
// unclaimed before the registry drops it.
const DefaultUnclaimedTTL = 5 * time.Minute

// Registry holds generated documents until a viewing context claims them.
// The dashboard publishes a document, hands its id out, and the registry
// releases the document shortly after the first claim, or immediately when
// the caller reports the open failed. A document nobody ever claims is
// released after the unclaimed TTL.
type Registry struct {
	mu           sync.Mutex
	docs         map[string]*Document
	grace        time.Duration
	unclaimedTTL time.Duration
	logger       *zap.Logger
}

// NewRegistry creates a Registry with the given grace delay and unclaimed
// document TTL.
func NewRegistry(grace, unclaimedTTL time.Duration, logger *zap.Logger) *Registry {
	return &Registry{
		docs:         make(map[string]*Document),
		grace:        grace,
		unclaimedTTL: unclaimedTTL,
		logger:       logger,
	}
}

// Publish registers a document under its id. A fallback release fires after
// the unclaimed TTL in case no viewing context ever claims it.
func (r *Registry) Publish(doc *Document) {
	r.mu.Lock()
	r.docs[doc.ID] = doc
	r.mu.Unlock()

	time.AfterFunc(r.unclaimedTTL, func() {
		r.Release(doc.ID)
	})
}

// Claim resolves a document by id and schedules its release after the grace
// delay. A second claim inside the grace window still resolves.
func (r *Registry) Claim(id string) (*Document, error) {
	r.mu.Lock()
	doc, ok := r.docs[id]
	r.mu.Unlock()

	if !ok {
		return nil, ErrArtifactNotFound
	}

	time.AfterFunc(r.grace, func() {
		r.Release(id)
	})

	return doc, nil
}

// Release drops a document immediately. Releasing an unknown id is a no-op.
func (r *Registry) Release(id string) {
	r.mu.Lock()
	_, ok := r.docs[id]
	delete(r.docs, id)
	r.mu.Unlock()

	if ok {
		r.logger.Debug("artifact released", zap.String("document_id", id))
	}
}

// Len reports how many documents are currently registered.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.docs)
}
