package handler

import (
	"github.com/propcraft/server/internal/action"
	"github.com/propcraft/server/internal/config"
	"github.com/propcraft/server/internal/net"
	"github.com/propcraft/server/internal/net/packet"
	"github.com/propcraft/server/internal/persist"
	"github.com/propcraft/server/internal/world"
	"go.uber.org/zap"
)

// Deps holds shared dependencies injected into all packet handlers.
type Deps struct {
	AccountRepo *persist.AccountRepo
	Ledger      action.Ledger
	Config      *config.Config
	Log         *zap.Logger
	World       *world.State
	Sessions    *net.SessionStore
	Validator   *action.Validator

	// ResultCh carries validator verdicts from request goroutines back to
	// the game loop, which delivers them and advances prompt machines.
	ResultCh chan action.Result

	// OnActionDispatched lets the targeting pipeline advance its prompt
	// machine when an action leaves for validation. Wired at boot.
	OnActionDispatched func(sessionID uint64, targetKey string)
}

// RegisterAll registers all packet handlers into the registry.
func RegisterAll(reg *packet.Registry, deps *Deps) {
	reg.Register(packet.C_OPCODE_LOGIN,
		[]packet.SessionState{packet.StateConnected},
		func(sess any, r *packet.Reader) {
			HandleLogin(sess.(*net.Session), r, deps)
		},
	)
	reg.Register(packet.C_OPCODE_ENTER,
		[]packet.SessionState{packet.StateAuthenticated},
		func(sess any, r *packet.Reader) {
			HandleEnterWorld(sess.(*net.Session), r, deps)
		},
	)

	inWorld := []packet.SessionState{packet.StateInWorld}

	reg.Register(packet.C_OPCODE_MOVE, inWorld,
		func(sess any, r *packet.Reader) {
			HandleMove(sess.(*net.Session), r, deps)
		},
	)
	reg.Register(packet.C_OPCODE_ACTION, inWorld,
		func(sess any, r *packet.Reader) {
			HandleAction(sess.(*net.Session), r, deps)
		},
	)
	reg.Register(packet.C_OPCODE_QUIT,
		[]packet.SessionState{packet.StateConnected, packet.StateAuthenticated, packet.StateInWorld},
		func(sess any, r *packet.Reader) {
			HandleQuit(sess.(*net.Session), r, deps)
		},
	)
}
