// Package ratelimit gates requests before they reach storage. Counters are
// per route group and per client, held in process memory only: they reset on
// restart and are not shared across server instances.
package ratelimit

import (
	"sync"
	"time"
)

// Group identifies an independently configured set of routes.
type Group string

const (
	GroupWrite Group = "write"
	GroupRead  Group = "read"
)

// WindowConfig is the admission ceiling for one route group: at most Max
// requests per client within one counting window.
type WindowConfig struct {
	Window time.Duration
	Max    int
}

// Limiter holds one counter set per route group, keyed by client identity.
// Exceeding the ceiling on one group never affects the other.
type Limiter struct {
	mu     sync.Mutex
	groups map[Group]*groupLimiter
	now    func() time.Time
}

type groupLimiter struct {
	cfg       WindowConfig
	clients   map[string]*clientEntry
	lastPrune time.Time
}

// clientEntry counts requests inside the client's current window. The window
// starts at the first counted request and resets, count and all, once it has
// fully elapsed. No request spacing can admit more than Max per window.
type clientEntry struct {
	windowStart time.Time
	count       int
	lastSeen    time.Time
}

// New builds a limiter from per-group configuration.
func New(groups map[Group]WindowConfig) *Limiter {
	l := &Limiter{
		groups: make(map[Group]*groupLimiter, len(groups)),
		now:    time.Now,
	}
	for g, cfg := range groups {
		l.groups[g] = &groupLimiter{
			cfg:     cfg,
			clients: make(map[string]*clientEntry),
		}
	}
	return l
}

// Allow counts one request for clientID against the group's window and
// reports whether it is admitted. Unknown groups are always admitted.
func (l *Limiter) Allow(group Group, clientID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	g, ok := l.groups[group]
	if !ok {
		return true
	}

	now := l.now()
	entry, ok := g.clients[clientID]
	if !ok {
		entry = &clientEntry{windowStart: now}
		g.clients[clientID] = entry
	}
	entry.lastSeen = now

	g.pruneLocked(now)

	if now.Sub(entry.windowStart) >= g.cfg.Window {
		entry.windowStart = now
		entry.count = 0
	}
	if entry.count >= g.cfg.Max {
		return false
	}
	entry.count++
	return true
}

// pruneLocked drops clients idle for more than three windows, at most once
// per window.
func (g *groupLimiter) pruneLocked(now time.Time) {
	if now.Sub(g.lastPrune) < g.cfg.Window {
		return
	}
	g.lastPrune = now
	idle := 3 * g.cfg.Window
	for id, entry := range g.clients {
		if now.Sub(entry.lastSeen) > idle {
			delete(g.clients, id)
		}
	}
}
