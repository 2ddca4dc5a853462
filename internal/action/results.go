package action

import (
	"sync"
	"time"
)

type storedResult struct {
	res Result
	at  time.Time
}

// ResultStore remembers terminal results by request ID so a retransmitted
// request replays its original verdict instead of running (and charging)
// twice. Entries age out after the TTL; a client that reuses an ID beyond
// that is treated as a fresh request.
type ResultStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]storedResult
	now     func() time.Time
}

func NewResultStore(ttl time.Duration) *ResultStore {
	return &ResultStore{
		ttl:     ttl,
		entries: make(map[string]storedResult),
		now:     time.Now,
	}
}

func (s *ResultStore) key(participantID, requestID string) string {
	return participantID + "/" + requestID
}

// Get returns the stored result for a request, if still live.
func (s *ResultStore) Get(participantID, requestID string) (Result, bool) {
	if requestID == "" {
		return Result{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[s.key(participantID, requestID)]
	if !ok || s.now().Sub(e.at) >= s.ttl {
		return Result{}, false
	}
	return e.res, true
}

// Put records a terminal result.
func (s *ResultStore) Put(res Result) {
	if res.RequestID == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[s.key(res.ParticipantID, res.RequestID)] = storedResult{res: res, at: s.now()}
}

// Prune drops expired entries.
func (s *ResultStore) Prune() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for k, e := range s.entries {
		if now.Sub(e.at) >= s.ttl {
			delete(s.entries, k)
		}
	}
}

// Len reports the live entry count.
func (s *ResultStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
