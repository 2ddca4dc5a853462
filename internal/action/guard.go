package action

import (
	"sync"
	"time"
)

type lockEntry struct {
	holder string
	since  time.Time
}

// Guard serialises actions per target: while one participant's request is
// in flight against an object, competing requests fail fast as concurrent
// instead of queueing. The TTL is a safety valve so a request that dies
// mid-flight (crashed goroutine, lost DB connection) cannot wedge its
// target forever.
type Guard struct {
	mu    sync.Mutex
	locks map[string]lockEntry
	ttl   time.Duration
	now   func() time.Time
}

func NewGuard(ttl time.Duration) *Guard {
	return &Guard{
		locks: make(map[string]lockEntry),
		ttl:   ttl,
		now:   time.Now,
	}
}

// Acquire takes the lock on key for holder. An expired lock is taken over.
func (g *Guard) Acquire(key, holder string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	now := g.now()
	if e, ok := g.locks[key]; ok && now.Sub(e.since) < g.ttl {
		return false
	}
	g.locks[key] = lockEntry{holder: holder, since: now}
	return true
}

// Release frees the lock if holder still owns it. A holder whose lock was
// taken over after expiry must not free the new holder's lock.
func (g *Guard) Release(key, holder string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if e, ok := g.locks[key]; ok && e.holder == holder {
		delete(g.locks, key)
	}
}

// Held reports whether key is currently locked, for tests and diagnostics.
func (g *Guard) Held(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	e, ok := g.locks[key]
	return ok && g.now().Sub(e.since) < g.ttl
}
