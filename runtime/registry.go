package runtime

import (
	"chat-relay/contract"
	"sync"

	"github.com/samber/lo"
)

// Registry is the single source of truth for "is this identity
// reachable right now". One live sink per identity: a re-registration
// replaces the previous sink (last writer wins).
type Registry struct {
	mu       sync.RWMutex
	Sessions map[string]contract.EventSink
}

func NewRegistry() *Registry {
	return &Registry{
		Sessions: make(map[string]contract.EventSink),
	}
}

// Register inserts or replaces the sink for an identity.
func (r *Registry) Register(identity string, sink contract.EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Sessions[identity] = sink
}

// Unregister removes the entry holding exactly this sink.
// Matching on the sink rather than the identity means tearing down a
// superseded connection never evicts the identity's newer one.
func (r *Registry) Unregister(sink contract.EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for identity, registered := range r.Sessions {
		if registered == sink {
			delete(r.Sessions, identity)
			return
		}
	}
}

// Lookup resolves an identity to its live sink, if any.
func (r *Registry) Lookup(identity string) (contract.EventSink, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sink, ok := r.Sessions[identity]
	return sink, ok
}

// Identities returns a snapshot of currently registered identities.
func (r *Registry) Identities() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return lo.Keys(r.Sessions)
}
