package action

import (
	"sync"
	"time"
)

// LimitRule caps how many of an action fit in a sliding window.
type LimitRule struct {
	Window time.Duration
	Max    int
}

// Limiter enforces per-participant, per-action sliding windows. Safe for
// concurrent request goroutines.
type Limiter struct {
	mu       sync.Mutex
	enabled  bool
	fallback LimitRule
	rules    map[string]LimitRule // action → rule override
	windows  map[string][]time.Time
	now      func() time.Time
}

func NewLimiter(enabled bool, fallback LimitRule, rules map[string]LimitRule) *Limiter {
	r := make(map[string]LimitRule, len(rules))
	for k, v := range rules {
		r[k] = v
	}
	return &Limiter{
		enabled:  enabled,
		fallback: fallback,
		rules:    r,
		windows:  make(map[string][]time.Time),
		now:      time.Now,
	}
}

// Allow consumes one slot for the participant's action. When refused it
// returns how long until the oldest counted attempt ages out, so the client
// can be told exactly when to retry. Refused attempts do not consume slots.
func (l *Limiter) Allow(participantID, act string) (bool, time.Duration) {
	if !l.enabled {
		return true, 0
	}
	rule, ok := l.rules[act]
	if !ok {
		rule = l.fallback
	}
	if rule.Max <= 0 || rule.Window <= 0 {
		return true, 0
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	key := participantID + "/" + act

	w := l.windows[key]
	cutoff := now.Add(-rule.Window)
	for len(w) > 0 && !w[0].After(cutoff) {
		w = w[1:]
	}
	if len(w) >= rule.Max {
		l.windows[key] = w
		return false, w[0].Sub(cutoff)
	}
	l.windows[key] = append(w, now)
	return true, 0
}

// Prune discards windows with no live entries. Called by the cleanup
// system; Allow stays correct without it.
func (l *Limiter) Prune() {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	longest := l.fallback.Window
	for _, r := range l.rules {
		if r.Window > longest {
			longest = r.Window
		}
	}
	cutoff := now.Add(-longest)
	for key, w := range l.windows {
		if len(w) == 0 || !w[len(w)-1].After(cutoff) {
			delete(l.windows, key)
		}
	}
}
