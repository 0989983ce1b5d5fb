package chat

import (
	"sync"
)

// Registry tracks the currently authenticated connections. It is the only
// structure mutated by multiple connections concurrently; everything it
// hands out for fan-out is a point-in-time copy.
type Registry struct {
	mu   sync.RWMutex
	byID map[string]*Client
}

func NewRegistry() *Registry {
	return &Registry{byID: make(map[string]*Client)}
}

func (r *Registry) Add(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[c.ID] = c
}

// Remove drops the client from the set. Returns false if it was not a
// member, which lets callers run leave side effects exactly once.
func (r *Registry) Remove(c *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[c.ID]; !ok {
		return false
	}
	delete(r.byID, c.ID)
	return true
}

// Snapshot returns a consistent copy of the live set for fan-out. Members
// may close between snapshot and send; those sends are dropped by Enqueue.
func (r *Registry) Snapshot() []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Client, 0, len(r.byID))
	for _, c := range r.byID {
		out = append(out, c)
	}
	return out
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

// Close empties the registry and closes every connection. Used on shutdown.
func (r *Registry) Close() {
	r.mu.Lock()
	clients := make([]*Client, 0, len(r.byID))
	for _, c := range r.byID {
		clients = append(clients, c)
	}
	r.byID = make(map[string]*Client)
	r.mu.Unlock()

	for _, c := range clients {
		c.Close()
	}
}
