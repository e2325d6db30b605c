package server

import (
	"sync"

	"github.com/samber/lo"
)

// Participant is the metadata stored for a connection once it has announced
// a display name.
type Participant struct {
	ID   uint64
	Name string
}

// Entry is one handle/participant pair of a registry snapshot.
type Entry struct {
	Client      *Client
	Participant Participant
}

// Registry maps live, name-announced connections to their participant
// record. It is safe for concurrent use.
type Registry struct {
	mu           sync.RWMutex
	participants map[*Client]Participant
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		participants: make(map[*Client]Participant),
	}
}

// Put inserts or replaces the participant for client.
func (r *Registry) Put(client *Client, p Participant) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.participants[client] = p
}

// Remove deletes the entry for client. Removing an unknown client is a no-op.
func (r *Registry) Remove(client *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.participants, client)
}

// Lookup returns the participant announced by client, if any.
func (r *Registry) Lookup(client *Client) (Participant, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.participants[client]
	return p, ok
}

// Snapshot copies every entry under the read lock. The returned slice is
// owned by the caller. Fan-out does not use it: broadcasts go to every open
// connection in the Hub, named or not, and the registry only scopes names and
// the participant count.
func (r *Registry) Snapshot() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return lo.MapToSlice(r.participants, func(c *Client, p Participant) Entry {
		return Entry{Client: c, Participant: p}
	})
}

// Size is the number of named participants, the value carried by userCount.
func (r *Registry) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.participants)
}
