package system

import (
	"context"
	"time"

	coresys "github.com/propcraft/server/internal/core/system"
	"github.com/propcraft/server/internal/world"
	"go.uber.org/zap"
)

// PlacementSaver is the slice of the placement repository this system
// needs. Tests substitute an in-memory recorder.
type PlacementSaver interface {
	SaveBatch(ctx context.Context, dirty []world.Object, removed []world.InstanceID) error
}

// PersistenceSystem flushes dirty placements to the database on an
// interval, and once more at shutdown. Phase 5 (Persist).
type PersistenceSystem struct {
	state    *world.State
	saver    PlacementSaver
	interval time.Duration
	lastRun  time.Time
	log      *zap.Logger
}

func NewPersistenceSystem(state *world.State, saver PlacementSaver, interval time.Duration, log *zap.Logger) *PersistenceSystem {
	return &PersistenceSystem{
		state:    state,
		saver:    saver,
		interval: interval,
		lastRun:  time.Now(),
		log:      log,
	}
}

func (s *PersistenceSystem) Phase() coresys.Phase { return coresys.PhasePersist }

func (s *PersistenceSystem) Update(_ time.Duration) {
	if time.Since(s.lastRun) < s.interval {
		return
	}
	s.lastRun = time.Now()
	s.flush()
}

// SaveNow flushes immediately, for shutdown.
func (s *PersistenceSystem) SaveNow() {
	s.flush()
}

func (s *PersistenceSystem) flush() {
	dirty, removed := s.state.DrainDirty()
	if len(dirty) == 0 && len(removed) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.saver.SaveBatch(ctx, dirty, removed); err != nil {
		// Put the batch back so the next interval retries it; a transient
		// DB failure must not lose moves or resurrect removed placements.
		s.state.RequeueDirty(dirty, removed)
		s.log.Error("placement flush failed",
			zap.Int("dirty", len(dirty)),
			zap.Int("removed", len(removed)),
			zap.Error(err),
		)
		return
	}
	s.log.Debug("placements flushed",
		zap.Int("dirty", len(dirty)),
		zap.Int("removed", len(removed)),
	)
}
