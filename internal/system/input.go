package system

import (
	"time"

	coreevent "github.com/propcraft/server/internal/core/event"
	coresys "github.com/propcraft/server/internal/core/system"
	"github.com/propcraft/server/internal/net"
	"github.com/propcraft/server/internal/net/packet"
	"github.com/propcraft/server/internal/world"
	"go.uber.org/zap"
)

// ObserverLeft fires after a session's observer is torn down.
type ObserverLeft struct {
	SessionID uint64
}

// InputSystem drains packet queues from all sessions and dispatches them
// through the packet registry. Phase 0 (Input).
type InputSystem struct {
	netServer  *net.Server
	registry   *packet.Registry
	store      *net.SessionStore
	worldState *world.State
	bus        *coreevent.Bus
	maxPerTick int
	log        *zap.Logger
}

func NewInputSystem(
	netServer *net.Server,
	registry *packet.Registry,
	store *net.SessionStore,
	worldState *world.State,
	bus *coreevent.Bus,
	maxPerTick int,
	log *zap.Logger,
) *InputSystem {
	return &InputSystem{
		netServer:  netServer,
		registry:   registry,
		store:      store,
		worldState: worldState,
		bus:        bus,
		maxPerTick: maxPerTick,
		log:        log,
	}
}

func (s *InputSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *InputSystem) Update(_ time.Duration) {
	// Accept new sessions
	for {
		select {
		case sess := <-s.netServer.NewSessions():
			s.store.Add(sess)
		default:
			goto doneNew
		}
	}
doneNew:

	for _, sess := range s.store.Snapshot() {
		if sess.IsClosed() {
			// Drain remaining packets before teardown (e.g. a quit sent
			// right before the disconnect), using the last known state.
			for i := 0; i < s.maxPerTick; i++ {
				select {
				case data := <-sess.InQueue:
					if err := s.registry.Dispatch(sess, sess.State(), data); err != nil {
						s.log.Debug("dispatch error during disconnect",
							zap.Uint64("session", sess.ID), zap.Error(err))
					}
				default:
					goto doneClosing
				}
			}
		doneClosing:
			sess.FlushOutput()
			s.handleDisconnect(sess)
			s.netServer.NotifyDead(sess.ID)
			s.store.Remove(sess.ID)
			continue
		}

		for i := 0; i < s.maxPerTick; i++ {
			select {
			case data := <-sess.InQueue:
				if err := s.registry.Dispatch(sess, sess.State(), data); err != nil {
					s.log.Debug("dispatch error",
						zap.Uint64("session", sess.ID), zap.Error(err))
				}
			default:
				goto nextSession
			}
		}
	nextSession:
	}

	// Early flush so packets produced during input reach the writer while
	// the remaining phases run. The output system flushes the rest.
	s.store.Each(func(sess *net.Session) {
		sess.FlushOutput()
	})
}

func (s *InputSystem) handleDisconnect(sess *net.Session) {
	if ob := s.worldState.RemoveObserver(sess.ID); ob != nil {
		s.log.Info("observer left",
			zap.String("participant", ob.ParticipantID),
			zap.Uint64("session", sess.ID))
	}
	coreevent.Emit(s.bus, ObserverLeft{SessionID: sess.ID})
}
