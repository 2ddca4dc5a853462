package handler

import (
	"context"
	"time"

	"github.com/propcraft/server/internal/action"
	"github.com/propcraft/server/internal/geo"
	"github.com/propcraft/server/internal/net"
	"github.com/propcraft/server/internal/net/packet"
)

// actionTimeout bounds one validation round trip, ledger included.
const actionTimeout = 10 * time.Second

// HandleAction processes C_OPCODE_ACTION.
// Format: [opcode][request_id\0][action\0][target_key\0][x][y][z][yaw].
// The handler only snapshots game-loop state and hands off; validation and
// the ledger round trip run in their own goroutine so a slow database never
// stalls the tick.
func HandleAction(sess *net.Session, r *packet.Reader, deps *Deps) {
	req := action.Request{
		RequestID:     r.ReadS(),
		SessionID:     sess.ID,
		ParticipantID: sess.ParticipantID,
		Admin:         sess.Admin,
		Action:        r.ReadS(),
		TargetKey:     r.ReadS(),
		Pos:           geo.Vec3{X: r.ReadF(), Y: r.ReadF(), Z: r.ReadF()},
		Yaw:           r.ReadF(),
	}

	obs := deps.World.GetObserver(sess.ID)
	if obs == nil {
		return
	}
	req.ObserverPos = obs.Pos

	if deps.OnActionDispatched != nil {
		deps.OnActionDispatched(sess.ID, req.TargetKey)
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()
		deps.ResultCh <- deps.Validator.Process(ctx, req)
	}()
}
