package realtime

import (
	"slices"
	"sync"
)

// Presence is the process-wide registry of live connections. It maps
// connection IDs to authenticated user IDs; a user with several open
// connections stays online until the last one goes away. Entries are never
// persisted and vanish on restart.
type Presence struct {
	mu    sync.RWMutex
	conns map[string]string // connectionID -> userID
}

func NewPresence() *Presence {
	return &Presence{
		conns: make(map[string]string),
	}
}

func (p *Presence) Register(connID, userID string) {
	p.mu.Lock()
	p.conns[connID] = userID
	p.mu.Unlock()
}

func (p *Presence) Unregister(connID string) {
	p.mu.Lock()
	delete(p.conns, connID)
	p.mu.Unlock()
}

// OnlineUserIDs returns the distinct user IDs with at least one live
// connection, sorted for stable broadcasts.
func (p *Presence) OnlineUserIDs() []string {
	p.mu.RLock()
	seen := make(map[string]struct{}, len(p.conns))
	for _, userID := range p.conns {
		seen[userID] = struct{}{}
	}
	p.mu.RUnlock()

	out := make([]string, 0, len(seen))
	for userID := range seen {
		out = append(out, userID)
	}

	slices.Sort(out)
	return out
}

func (p *Presence) IsOnline(userID string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	for _, id := range p.conns {
		if id == userID {
			return true
		}
	}
	return false
}
