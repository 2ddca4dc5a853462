package handler

import (
	"context"
	"time"

	"github.com/propcraft/server/internal/geo"
	"github.com/propcraft/server/internal/net"
	"github.com/propcraft/server/internal/net/packet"
	"github.com/propcraft/server/internal/world"
	"go.uber.org/zap"
)

// HandleEnterWorld processes C_OPCODE_ENTER. The observer spawns at the
// configured entry point and receives the current placement set.
func HandleEnterWorld(sess *net.Session, r *packet.Reader, deps *Deps) {
	spawn := geo.Vec3{
		X: deps.Config.Server.SpawnX,
		Y: deps.Config.Server.SpawnY,
		Z: deps.Config.Server.SpawnZ,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	balance, err := deps.Ledger.Balance(ctx, sess.ParticipantID)
	if err != nil {
		deps.Log.Error("balance read failed",
			zap.String("participant", sess.ParticipantID), zap.Error(err))
		sendLoginResult(sess, loginUnavailable)
		return
	}

	deps.World.AddObserver(&world.Observer{
		SessionID:     sess.ID,
		ParticipantID: sess.ParticipantID,
		Pos:           spawn,
		Facing:        geo.Vec3{Z: 1},
		Admin:         sess.Admin,
	})
	sess.SetState(packet.StateInWorld)

	sendEnterWorld(sess, balance, spawn)
	for _, o := range deps.World.AllExhibits() {
		sendObject(sess, &o)
	}
	for _, o := range deps.World.AllPlaced() {
		sendObject(sess, &o)
	}

	deps.Log.Info("entered world",
		zap.String("participant", sess.ParticipantID),
		zap.Uint64("session", sess.ID))
}
