package handler

import (
	"github.com/propcraft/server/internal/action"
	"github.com/propcraft/server/internal/geo"
	"github.com/propcraft/server/internal/net"
	"github.com/propcraft/server/internal/net/packet"
	"github.com/propcraft/server/internal/pricing"
	"github.com/propcraft/server/internal/target"
	"github.com/propcraft/server/internal/world"
)

func sendLoginResult(sess *net.Session, code byte) {
	w := packet.NewWriterWithOpcode(packet.S_OPCODE_LOGINRESULT)
	w.WriteC(code)
	sess.Send(w.Bytes())
}

func sendEnterWorld(sess *net.Session, balance int64, spawn geo.Vec3) {
	w := packet.NewWriterWithOpcode(packet.S_OPCODE_ENTERWORLD)
	w.WriteS(sess.ParticipantID)
	w.WriteQ(balance)
	w.WriteF(spawn.X)
	w.WriteF(spawn.Y)
	w.WriteF(spawn.Z)
	sess.Send(w.Bytes())
}

func sendDisconnect(sess *net.Session) {
	sess.Send(packet.NewWriterWithOpcode(packet.S_OPCODE_DISCONNECT).Bytes())
}

// promptActions lists what each object kind offers, in display order.
var promptActions = map[world.Kind][]string{
	world.KindCatalog: {action.Examine, action.Clone},
	world.KindPlaced:  {action.Examine, action.Move, action.Rotate, action.Recall, action.Destroy},
}

// SendPrompt announces an acquired target with its priced action menu.
// Called by the targeting system from the game loop.
func SendPrompt(sess *net.Session, obj *world.Object, eng *pricing.Engine) {
	name := obj.TemplateID
	if obj.Template != nil {
		name = obj.Template.Name
	}

	w := packet.NewWriterWithOpcode(packet.S_OPCODE_PROMPT)
	w.WriteS(obj.Key())
	w.WriteS(obj.TemplateID)
	w.WriteS(name)
	w.WriteC(byte(obj.Kind))

	acts := promptActions[obj.Kind]
	w.WriteC(byte(len(acts)))
	for _, a := range acts {
		w.WriteS(a)
		w.WriteQ(eng.Cost(a, obj.BaseValue))
	}
	sess.Send(w.Bytes())
}

// SendPromptClear retracts the prompt after a target loss.
func SendPromptClear(sess *net.Session, key string, reason target.LossReason) {
	w := packet.NewWriterWithOpcode(packet.S_OPCODE_PROMPTCLEAR)
	w.WriteS(key)
	w.WriteS(string(reason))
	sess.Send(w.Bytes())
}

// SendActionResult delivers a terminal verdict. Refusals that would leak
// world state (who owns what, whether a hidden object exists) carry only
// the generic message chosen by the validator.
func SendActionResult(sess *net.Session, res *action.Result) {
	w := packet.NewWriterWithOpcode(packet.S_OPCODE_ACTIONRESULT)
	w.WriteS(res.RequestID)
	w.WriteS(res.Action)
	w.WriteS(res.TargetKey)
	if res.Applied {
		w.WriteC(1)
	} else {
		w.WriteC(0)
	}
	// NotFound and Forbidden reach the client as one kind: the audit log
	// keeps the real verdict, the wire must not say whether the object
	// exists.
	kind := res.Kind
	if kind == action.KindNotFound {
		kind = action.KindForbidden
	}
	w.WriteC(byte(kind))
	w.WriteS(res.Message)
	w.WriteQ(res.Cost)
	w.WriteQ(res.Balance)
	w.WriteQ(res.Shortfall)
	w.WriteD(int32(res.RetryAfter.Milliseconds()))
	w.WriteS(res.NewKey)
	sess.Send(w.Bytes())
}

// SendObject announces a placement spawn or update.
func SendObject(sess *net.Session, obj *world.Object) {
	sendObject(sess, obj)
}

func sendObject(sess *net.Session, obj *world.Object) {
	w := packet.NewWriterWithOpcode(packet.S_OPCODE_OBJECT)
	w.WriteS(obj.Key())
	w.WriteS(obj.TemplateID)
	w.WriteS(obj.OwnerID)
	w.WriteF(obj.Pos.X)
	w.WriteF(obj.Pos.Y)
	w.WriteF(obj.Pos.Z)
	w.WriteF(obj.Yaw)
	sess.Send(w.Bytes())
}

// SendObjectRemove announces a placement removal.
func SendObjectRemove(sess *net.Session, key string) {
	w := packet.NewWriterWithOpcode(packet.S_OPCODE_OBJECTREMOVE)
	w.WriteS(key)
	sess.Send(w.Bytes())
}
