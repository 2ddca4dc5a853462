package handler

import (
	"net"
	"testing"

	"github.com/propcraft/server/internal/action"
	gonet "github.com/propcraft/server/internal/net"
	"github.com/propcraft/server/internal/net/packet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func sendTestSession(t *testing.T) *gonet.Session {
	t.Helper()
	server, client := net.Pipe()
	t.Cleanup(func() {
		server.Close()
		client.Close()
	})
	return gonet.NewSession(server, 1, 16, 64, 0, zap.NewNop())
}

func flushed(t *testing.T, sess *gonet.Session) *packet.Reader {
	t.Helper()
	sess.FlushOutput()
	select {
	case data := <-sess.OutQueue:
		return packet.NewReader(data)
	default:
		t.Fatal("no packet queued")
		return nil
	}
}

func resultKind(t *testing.T, sess *gonet.Session, res *action.Result) byte {
	t.Helper()
	SendActionResult(sess, res)
	r := flushed(t, sess)
	require.Equal(t, packet.S_OPCODE_ACTIONRESULT, r.Opcode())
	r.ReadS() // request id
	r.ReadS() // action
	r.ReadS() // target key
	r.ReadC() // applied
	return r.ReadC()
}

func TestActionResultWireCollapsesNotFound(t *testing.T) {
	sess := sendTestSession(t)

	forbidden := resultKind(t, sess, &action.Result{
		RequestID: "r1", Action: action.Destroy, TargetKey: "i:1",
		Kind: action.KindForbidden,
	})
	notFound := resultKind(t, sess, &action.Result{
		RequestID: "r2", Action: action.Destroy, TargetKey: "i:999",
		Kind: action.KindNotFound,
	})

	// The two refusals must be indistinguishable on the wire.
	assert.Equal(t, forbidden, notFound)

	// Kinds the client acts on pass through untouched.
	rateLimited := resultKind(t, sess, &action.Result{
		RequestID: "r3", Action: action.Destroy, TargetKey: "i:1",
		Kind: action.KindRateLimited,
	})
	assert.Equal(t, byte(action.KindRateLimited), rateLimited)
}
