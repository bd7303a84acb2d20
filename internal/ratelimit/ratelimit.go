// Package ratelimit provides per-client fixed-window admission control
// for the HTTP API.
//
// The limiter counts requests per client within a fixed window and resets
// the count discretely at window rollover. A client can therefore burst up
// to 2× the per-window maximum across a window boundary; that is accepted
// behavior, traded for O(1) state per client instead of a sliding log.
package ratelimit

import (
	"sync"

	"github.com/sweeney/keyremote/internal/ticks"
)

// cleanupFactor controls both the sweep cadence and record retention:
// the sweep runs at most once per cleanupFactor windows and removes
// records idle for more than cleanupFactor windows.
const cleanupFactor = 10

// clientRecord tracks a single client's current admission window.
// windowStart is reset on rollover, not on every request, so it doubles
// as the staleness mark for cleanup.
type clientRecord struct {
	windowStart ticks.Millis
	count       int
}

// Limiter admits or rejects requests per client under a fixed window.
// Safe for concurrent use.
type Limiter struct {
	mu          sync.Mutex
	windowMs    ticks.Millis
	maxRequests int
	clients     map[string]*clientRecord
	lastSweep   ticks.Millis
}

// New creates a Limiter allowing maxRequests per windowMs per client.
// now seeds the cleanup cadence.
func New(windowMs ticks.Millis, maxRequests int, now ticks.Millis) *Limiter {
	return &Limiter{
		windowMs:    windowMs,
		maxRequests: maxRequests,
		clients:     make(map[string]*clientRecord),
		lastSweep:   now,
	}
}

// Allow reports whether a request from client is admitted at time now.
// A rejected request does not mutate the client's record.
func (l *Limiter) Allow(client string, now ticks.Millis) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.clients[client]
	if !ok {
		l.clients[client] = &clientRecord{windowStart: now, count: 1}
		return true
	}

	if ticks.HasElapsed(rec.windowStart, now, l.windowMs) {
		// Window rolled over, start a fresh one.
		rec.windowStart = now
		rec.count = 1
		return true
	}

	if rec.count >= l.maxRequests {
		return false
	}

	rec.count++
	return true
}

// Cleanup removes stale client records. Amortized: the sweep only runs if
// at least cleanupFactor windows have passed since the last one, so calling
// it every loop tick is cheap. Total memory stays bounded to clients active
// within roughly the last cleanupFactor windows.
func (l *Limiter) Cleanup(now ticks.Millis) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !ticks.HasElapsed(l.lastSweep, now, l.windowMs*cleanupFactor) {
		return
	}
	l.lastSweep = now

	for client, rec := range l.clients {
		if ticks.Since(rec.windowStart, now) > l.windowMs*cleanupFactor {
			delete(l.clients, client)
		}
	}
}

// TrackedClients returns the number of clients currently tracked.
func (l *Limiter) TrackedClients() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

// Reset clears all client records.
func (l *Limiter) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.clients = make(map[string]*clientRecord)
}
