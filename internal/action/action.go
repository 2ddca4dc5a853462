package action

import (
	"time"

	"github.com/propcraft/server/internal/geo"
)

// Action names. These are wire-visible and keyed into the pricing and
// rate-limit tables, so they never change casing.
const (
	Examine = "examine"
	Clone   = "clone"
	Move    = "move"
	Rotate  = "rotate"
	Recall  = "recall"
	Destroy = "destroy"
)

// Known reports whether name is a recognised action.
func Known(name string) bool {
	switch name {
	case Examine, Clone, Move, Rotate, Recall, Destroy:
		return true
	}
	return false
}

// Request is one participant action awaiting validation. Requests arrive
// from session goroutines and are processed concurrently; everything the
// validator needs travels in the request so it never touches observer
// state owned by the game loop.
type Request struct {
	RequestID     string // client-chosen idempotency token
	SessionID     uint64
	ParticipantID string
	Admin         bool
	Action        string
	TargetKey     string
	ObserverPos   geo.Vec3

	// Destination for clone and move, new heading for rotate.
	Pos geo.Vec3
	Yaw float64
}

// Result is the terminal verdict for a request. One Result is produced per
// request, stored for replay, and routed back to the session.
type Result struct {
	RequestID     string
	SessionID     uint64
	ParticipantID string
	Action        string
	TargetKey     string

	Applied bool
	Kind    ErrorKind
	Message string

	Cost       int64
	Balance    int64         // balance after the action, when known
	Shortfall  int64         // set for InsufficientFunds
	RetryAfter time.Duration // set for RateLimited

	NewKey   string // key of the placement a clone created
	Replayed bool   // served from the idempotency store
}
