package system

import (
	"time"

	coreevent "github.com/propcraft/server/internal/core/event"
	coresys "github.com/propcraft/server/internal/core/system"
	"github.com/propcraft/server/internal/handler"
	"github.com/propcraft/server/internal/net"
	"github.com/propcraft/server/internal/pricing"
	"github.com/propcraft/server/internal/target"
	"github.com/propcraft/server/internal/vis"
	"github.com/propcraft/server/internal/world"
	"go.uber.org/zap"
)

type targetEntry struct {
	tracker *target.Tracker
	prompt  target.Prompt
}

// TargetingSystem runs one tracker tick per observer each frame, sends
// prompt packets on acquisition, and retracts them on loss. Phase 2
// (Update), game loop only.
type TargetingSystem struct {
	cfg      target.Config
	state    *world.State
	checker  *vis.Checker
	engine   *pricing.Engine
	sessions *net.SessionStore
	log      *zap.Logger

	entries map[uint64]*targetEntry
}

func NewTargetingSystem(
	cfg target.Config,
	state *world.State,
	checker *vis.Checker,
	engine *pricing.Engine,
	sessions *net.SessionStore,
	bus *coreevent.Bus,
	log *zap.Logger,
) *TargetingSystem {
	s := &TargetingSystem{
		cfg:      cfg,
		state:    state,
		checker:  checker,
		engine:   engine,
		sessions: sessions,
		log:      log,
		entries:  make(map[uint64]*targetEntry),
	}
	coreevent.Subscribe(bus, func(ev ObserverLeft) {
		delete(s.entries, ev.SessionID)
	})
	coreevent.Subscribe(bus, func(ev ActionResolved) {
		if e, ok := s.entries[ev.Result.SessionID]; ok {
			e.prompt.OnResult(ev.Result.Applied)
		}
	})
	return s
}

func (s *TargetingSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

// OnActionDispatched is wired into the action handler. Runs on the game
// loop, inside the input phase.
func (s *TargetingSystem) OnActionDispatched(sessionID uint64, targetKey string) {
	e, ok := s.entries[sessionID]
	if !ok {
		return
	}
	if err := e.prompt.OnActionSent(); err != nil {
		s.log.Debug("action outside prompt flow",
			zap.Uint64("session", sessionID),
			zap.String("target", targetKey),
			zap.Error(err))
	}
}

func (s *TargetingSystem) Update(_ time.Duration) {
	s.state.EachObserver(func(obs *world.Observer) {
		e, ok := s.entries[obs.SessionID]
		if !ok {
			e = &targetEntry{tracker: target.NewTracker(s.cfg, s.state, s.checker, s.log)}
			s.entries[obs.SessionID] = e
		}

		change := e.tracker.Update(obs)
		switch change.Kind {
		case target.ChangeAcquired:
			e.prompt.OnAcquired(change.Target.Key())
			if sess := s.sessions.Get(obs.SessionID); sess != nil {
				if change.PrevKey != "" {
					handler.SendPromptClear(sess, change.PrevKey, target.LossSuperseded)
				}
				if e.prompt.NeedsPrompt() {
					handler.SendPrompt(sess, &change.Target, s.engine)
					e.prompt.MarkShown()
				}
			}
		case target.ChangeLost:
			e.prompt.OnLost()
			if sess := s.sessions.Get(obs.SessionID); sess != nil {
				handler.SendPromptClear(sess, change.PrevKey, change.Reason)
			}
		}
	})
}

// Current reports the held target key for a session, for tests.
func (s *TargetingSystem) Current(sessionID uint64) string {
	if e, ok := s.entries[sessionID]; ok {
		return e.tracker.CurrentKey()
	}
	return ""
}
