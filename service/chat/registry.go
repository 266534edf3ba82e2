package chat

import (
	"sort"
	"sync"
)

// NotifyFunc observes registry mutations. It runs while the registry lock is
// held, so mutation order and notification order always agree; it must only
// enqueue work and never call back into the registry.
type NotifyFunc func(online []string, clients []*Client)

// Registry maps user identity to at most one live connection
// (last-connect wins) and tracks every attached connection, registered or
// not, as the broadcast audience.
type Registry struct {
	mu     sync.RWMutex
	users  map[string]*Client // userID -> current connection
	conns  map[string]*Client // connID -> every attached connection
	notify NotifyFunc
}

func NewRegistry() *Registry {
	return &Registry{
		users: make(map[string]*Client),
		conns: make(map[string]*Client),
	}
}

// SetNotify installs the mutation observer. Call before serving.
func (r *Registry) SetNotify(fn NotifyFunc) {
	r.mu.Lock()
	r.notify = fn
	r.mu.Unlock()
}

// IsSentinel reports identities that must never be registered: clients that
// connect before authentication resolves send these literally.
func IsSentinel(userID string) bool {
	return userID == "" || userID == "undefined" || userID == "null"
}

// Attach records a connection in the broadcast audience. No presence
// change: attach alone does not put anyone online.
func (r *Registry) Attach(c *Client) {
	r.mu.Lock()
	r.conns[c.ConnID] = c
	r.mu.Unlock()
}

// Detach removes a connection from the broadcast audience.
func (r *Registry) Detach(c *Client) {
	r.mu.Lock()
	delete(r.conns, c.ConnID)
	r.mu.Unlock()
}

// Register unconditionally overwrites any existing entry for the user and
// notifies. Returns false for sentinel identities, which stay invisible.
func (r *Registry) Register(c *Client) bool {
	if IsSentinel(c.UserID) {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[c.UserID] = c
	r.notifyLocked()
	return true
}

// Unregister removes the user entry only when it still points at c, so a
// stale connection's teardown cannot knock a fresh one offline. Idempotent.
func (r *Registry) Unregister(c *Client) bool {
	if IsSentinel(c.UserID) {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.users[c.UserID]; !ok || cur != c {
		return false
	}
	delete(r.users, c.UserID)
	r.notifyLocked()
	return true
}

// Resolve looks up the live connection for a user. Never blocks beyond the
// read lock.
func (r *Registry) Resolve(userID string) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.users[userID]
	return c, ok
}

// Online returns the sorted set of registered identities.
func (r *Registry) Online() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.onlineLocked()
}

// Clients returns a snapshot of every attached connection.
func (r *Registry) Clients() []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.clientsLocked()
}

func (r *Registry) onlineLocked() []string {
	out := make([]string, 0, len(r.users))
	for u := range r.users {
		out = append(out, u)
	}
	sort.Strings(out)
	return out
}

func (r *Registry) clientsLocked() []*Client {
	out := make([]*Client, 0, len(r.conns))
	for _, c := range r.conns {
		out = append(out, c)
	}
	return out
}

func (r *Registry) notifyLocked() {
	if r.notify != nil {
		r.notify(r.onlineLocked(), r.clientsLocked())
	}
}
