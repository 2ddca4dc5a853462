package system

import (
	"time"

	"github.com/propcraft/server/internal/action"
	coreevent "github.com/propcraft/server/internal/core/event"
	coresys "github.com/propcraft/server/internal/core/system"
	"github.com/propcraft/server/internal/handler"
	"github.com/propcraft/server/internal/net"
	"github.com/propcraft/server/internal/net/packet"
	"github.com/propcraft/server/internal/world"
	"go.uber.org/zap"
)

// ActionResolved fires when a validator verdict reaches the game loop.
type ActionResolved struct {
	Result action.Result
}

// EventSystem joins the asynchronous validator pipeline back onto the game
// loop: it drains the result channel, delivers verdicts to their sessions,
// broadcasts world changes, then runs the event bus dispatch.
// Phase 1 (PreUpdate).
type EventSystem struct {
	bus        *coreevent.Bus
	resultCh   <-chan action.Result
	sessions   *net.SessionStore
	worldState *world.State
	log        *zap.Logger
}

func NewEventSystem(bus *coreevent.Bus, resultCh <-chan action.Result, sessions *net.SessionStore, worldState *world.State, log *zap.Logger) *EventSystem {
	return &EventSystem{
		bus:        bus,
		resultCh:   resultCh,
		sessions:   sessions,
		worldState: worldState,
		log:        log,
	}
}

func (s *EventSystem) Phase() coresys.Phase { return coresys.PhasePreUpdate }

func (s *EventSystem) Update(_ time.Duration) {
	for {
		select {
		case res := <-s.resultCh:
			s.deliver(res)
		default:
			s.bus.Dispatch()
			return
		}
	}
}

func (s *EventSystem) deliver(res action.Result) {
	if sess := s.sessions.Get(res.SessionID); sess != nil {
		handler.SendActionResult(sess, &res)
	}
	coreevent.Emit(s.bus, ActionResolved{Result: res})

	if !res.Applied || res.Replayed {
		return
	}
	s.broadcast(res)

	s.log.Info("action applied",
		zap.String("participant", res.ParticipantID),
		zap.String("action", res.Action),
		zap.String("target", res.TargetKey),
		zap.Int64("cost", res.Cost),
	)
}

// broadcast tells every in-world session what changed. Examine changes
// nothing; clone announces the new placement under its fresh key.
func (s *EventSystem) broadcast(res action.Result) {
	switch res.Action {
	case action.Examine:
		return
	case action.Recall, action.Destroy:
		s.eachInWorld(func(sess *net.Session) {
			handler.SendObjectRemove(sess, res.TargetKey)
		})
	default:
		key := res.TargetKey
		if res.Action == action.Clone {
			key = res.NewKey
		}
		obj, ok := s.worldState.Resolve(key)
		if !ok {
			// Removed again between apply and broadcast; the removal
			// result will carry its own announcement.
			return
		}
		s.eachInWorld(func(sess *net.Session) {
			handler.SendObject(sess, &obj)
		})
	}
}

func (s *EventSystem) eachInWorld(fn func(*net.Session)) {
	s.sessions.Each(func(sess *net.Session) {
		if sess.State() == packet.StateInWorld {
			fn(sess)
		}
	})
}
