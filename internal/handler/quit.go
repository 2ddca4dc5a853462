package handler

import (
	"github.com/propcraft/server/internal/net"
	"github.com/propcraft/server/internal/net/packet"
)

// HandleQuit processes C_OPCODE_QUIT. Observer teardown happens when the
// input system sees the dead session, same as an abrupt disconnect.
func HandleQuit(sess *net.Session, r *packet.Reader, deps *Deps) {
	sendDisconnect(sess)
	sess.FlushOutput()
	sess.Close()
}
