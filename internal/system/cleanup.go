package system

import (
	"time"

	"github.com/propcraft/server/internal/action"
	coresys "github.com/propcraft/server/internal/core/system"
	"github.com/propcraft/server/internal/vis"
)

// CleanupSystem prunes the TTL-bounded caches: visibility verdicts, rate
// windows, and stored action results. All of them stay correct without
// pruning; this just bounds memory. Phase 6 (Cleanup).
type CleanupSystem struct {
	checker  *vis.Checker
	limiter  *action.Limiter
	results  *action.ResultStore
	interval time.Duration
	lastRun  time.Time
}

func NewCleanupSystem(checker *vis.Checker, limiter *action.Limiter, results *action.ResultStore, interval time.Duration) *CleanupSystem {
	return &CleanupSystem{
		checker:  checker,
		limiter:  limiter,
		results:  results,
		interval: interval,
		lastRun:  time.Now(),
	}
}

func (s *CleanupSystem) Phase() coresys.Phase { return coresys.PhaseCleanup }

func (s *CleanupSystem) Update(_ time.Duration) {
	if time.Since(s.lastRun) < s.interval {
		return
	}
	s.lastRun = time.Now()
	s.checker.Prune()
	s.limiter.Prune()
	s.results.Prune()
}
