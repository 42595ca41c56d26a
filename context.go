package rtmp

import (
	"sync"

	"github.com/pkg/errors"
)

var ErrStreamExists = errors.New("rtmp: stream is already being published")

// Registry keeps track of the streams published on a server, so that two
// sessions never record the same stream at once. It is safe for concurrent
// use.
type Registry struct {
	mu         sync.RWMutex
	publishers map[string]string
}

func NewRegistry() *Registry {
	return &Registry{publishers: make(map[string]string)}
}

// RegisterPublisher claims streamKey for the session sessionID.
func (r *Registry) RegisterPublisher(streamKey, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if owner, exists := r.publishers[streamKey]; exists && owner != sessionID {
		return errors.Wrap(ErrStreamExists, streamKey)
	}
	r.publishers[streamKey] = sessionID
	return nil
}

// DestroyPublisher releases streamKey if sessionID owns it.
func (r *Registry) DestroyPublisher(streamKey, sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.publishers[streamKey] == sessionID {
		delete(r.publishers, streamKey)
	}
}

func (r *Registry) StreamExists(streamKey string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.publishers[streamKey]
	return exists
}

// Len returns the number of streams being published.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.publishers)
}
