package handler

import (
	"github.com/propcraft/server/internal/geo"
	"github.com/propcraft/server/internal/net"
	"github.com/propcraft/server/internal/net/packet"
)

// HandleMove processes C_OPCODE_MOVE.
// Format: [opcode][x][y][z][fx][fy][fz] as float64s. Movement is client
// authoritative; the server only tracks the position for targeting and
// reach checks.
func HandleMove(sess *net.Session, r *packet.Reader, deps *Deps) {
	pos := geo.Vec3{X: r.ReadF(), Y: r.ReadF(), Z: r.ReadF()}
	facing := geo.Vec3{X: r.ReadF(), Y: r.ReadF(), Z: r.ReadF()}
	deps.World.UpdateObserver(sess.ID, pos, facing)
}
