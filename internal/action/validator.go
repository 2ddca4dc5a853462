package action

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"

	"github.com/propcraft/server/internal/geo"
	"github.com/propcraft/server/internal/pricing"
	"github.com/propcraft/server/internal/world"
	"go.uber.org/zap"
)

// World is the slice of world.State the validator mutates.
type World interface {
	Resolve(key string) (world.Object, bool)
	PlaceClone(templateID, ownerID string, pos geo.Vec3, yaw float64) (world.Object, error)
	MovePlaced(id world.InstanceID, pos geo.Vec3) error
	RotatePlaced(id world.InstanceID, yaw float64) error
	RemovePlaced(id world.InstanceID) error
}

// Ledger is the participant balance store. Deduct is conditional: it only
// applies when the balance covers the amount, and reports whether it did.
type Ledger interface {
	Balance(ctx context.Context, participantID string) (int64, error)
	Deduct(ctx context.Context, participantID string, amount int64) (remaining int64, applied bool, err error)
	Deposit(ctx context.Context, participantID string, amount int64) (int64, error)
}

// Hooks are the scripting extension points. Both may be called from
// concurrent request goroutines.
type Hooks interface {
	ExamineText(templateID string) string
	ActionApplied(act, templateID, participantID string)
}

// Auditor records terminal verdicts for offline review.
type Auditor interface {
	Record(ctx context.Context, res Result)
}

// refusalMessage covers both a missing target and one the requester may
// not touch. A distinct "not found" would tell a prober whether a hidden
// object exists; a distinct "not yours" would confirm it does.
const refusalMessage = "you can't do that"

// Config bounds what the validator accepts.
type Config struct {
	// MaxRange is the server-side reach check. It matches the targeting
	// retention radius, not the tighter acquisition radius, so an action on
	// a target the participant legitimately still holds is never refused
	// for drifting a step back.
	MaxRange float64
}

// Validator runs the authoritative decision pipeline for one request:
// replay check, target lock, existence, reach, permission, rate limit,
// pricing, funds, apply. Requests for different targets proceed in
// parallel; requests for the same target serialise via the guard.
type Validator struct {
	cfg     Config
	world   World
	ledger  Ledger
	pricing *pricing.Engine
	guard   *Guard
	limiter *Limiter
	results *ResultStore
	hooks   Hooks   // optional
	audit   Auditor // optional
	log     *zap.Logger

	lockSeq atomic.Uint64 // fallback lock tokens for requests without an ID
}

func NewValidator(cfg Config, w World, ledger Ledger, eng *pricing.Engine, guard *Guard, limiter *Limiter, results *ResultStore, log *zap.Logger) *Validator {
	return &Validator{
		cfg:     cfg,
		world:   w,
		ledger:  ledger,
		pricing: eng,
		guard:   guard,
		limiter: limiter,
		results: results,
		log:     log,
	}
}

// SetHooks installs scripting callbacks.
func (v *Validator) SetHooks(h Hooks) { v.hooks = h }

// SetAuditor installs the audit sink.
func (v *Validator) SetAuditor(a Auditor) { v.audit = a }

// Process validates and applies one request, returning its terminal result.
// Blocking is bounded by the ledger round-trips; the target stays locked
// for that whole span so no competing request can interleave.
func (v *Validator) Process(ctx context.Context, req Request) Result {
	if prev, ok := v.results.Get(req.ParticipantID, req.RequestID); ok {
		prev.Replayed = true
		prev.SessionID = req.SessionID
		return prev
	}

	// The lock token is the request ID, not the participant: if a hung
	// request outlives the lock TTL and the same participant retries, the
	// stale request's release must not free the retry's lock.
	holder := req.RequestID
	if holder == "" {
		holder = "anon-" + strconv.FormatUint(v.lockSeq.Add(1), 10)
	}
	if !v.guard.Acquire(req.TargetKey, holder) {
		// Not stored for replay: a retry after the competing action
		// finishes should run for real.
		return Result{
			RequestID:     req.RequestID,
			SessionID:     req.SessionID,
			ParticipantID: req.ParticipantID,
			Action:        req.Action,
			TargetKey:     req.TargetKey,
			Kind:          KindConcurrent,
			Message:       "target is busy",
		}
	}
	defer v.guard.Release(req.TargetKey, holder)

	res := v.process(ctx, req)
	v.results.Put(res)
	if v.audit != nil {
		v.audit.Record(ctx, res)
	}
	return res
}

func (v *Validator) process(ctx context.Context, req Request) Result {
	res := Result{
		RequestID:     req.RequestID,
		SessionID:     req.SessionID,
		ParticipantID: req.ParticipantID,
		Action:        req.Action,
		TargetKey:     req.TargetKey,
	}

	obj, ok := v.world.Resolve(req.TargetKey)
	if !ok {
		res.Kind = KindNotFound
		res.Message = refusalMessage
		return res
	}

	if d := geo.Dist(req.ObserverPos, obj.Pos); d > v.cfg.MaxRange {
		res.Kind = KindValidationFailed
		res.Message = "target out of reach"
		return res
	}

	if kind, msg := v.permit(req, &obj); kind != KindNone {
		res.Kind = kind
		res.Message = msg
		return res
	}

	if allowed, retry := v.limiter.Allow(req.ParticipantID, req.Action); !allowed {
		res.Kind = KindRateLimited
		res.RetryAfter = retry
		res.Message = "too many requests"
		return res
	}

	res.Cost = v.pricing.Cost(req.Action, obj.BaseValue)

	if res.Cost > 0 {
		remaining, applied, err := v.ledger.Deduct(ctx, req.ParticipantID, res.Cost)
		if err != nil {
			v.log.Error("ledger deduct failed",
				zap.String("participant", req.ParticipantID),
				zap.String("action", req.Action),
				zap.Error(err),
			)
			res.Kind = KindUnavailable
			res.Message = "try again shortly"
			return res
		}
		if !applied {
			balance, berr := v.ledger.Balance(ctx, req.ParticipantID)
			if berr != nil {
				v.log.Error("ledger balance read failed",
					zap.String("participant", req.ParticipantID), zap.Error(berr))
			}
			res.Kind = KindInsufficientFunds
			res.Balance = balance
			res.Shortfall = res.Cost - balance
			res.Message = fmt.Sprintf("need %d more", res.Shortfall)
			return res
		}
		res.Balance = remaining
	}

	if err := v.apply(req, &obj, &res); err != nil {
		// The charge landed but the world refused the mutation. Refund and
		// report unavailable; the lock makes this path rare.
		v.log.Error("apply failed after deduction",
			zap.String("participant", req.ParticipantID),
			zap.String("action", req.Action),
			zap.String("target", req.TargetKey),
			zap.Error(err),
		)
		if res.Cost > 0 {
			if bal, rerr := v.ledger.Deposit(ctx, req.ParticipantID, res.Cost); rerr != nil {
				v.log.Error("refund failed",
					zap.String("participant", req.ParticipantID),
					zap.Int64("amount", res.Cost), zap.Error(rerr))
			} else {
				res.Balance = bal
			}
		}
		res.Kind = KindUnavailable
		res.Message = "try again shortly"
		return res
	}

	res.Applied = true
	if v.hooks != nil && req.Action != Examine {
		v.hooks.ActionApplied(req.Action, obj.TemplateID, req.ParticipantID)
	}
	return res
}

// permit checks that the action fits the target kind and that the
// participant may perform it. Mutations on placements require ownership;
// admins bypass that.
func (v *Validator) permit(req Request, obj *world.Object) (ErrorKind, string) {
	if !Known(req.Action) {
		return KindValidationFailed, "unknown action"
	}
	switch req.Action {
	case Examine:
		return KindNone, ""
	case Clone:
		if obj.Kind != world.KindCatalog {
			return KindValidationFailed, "only catalog exhibits can be cloned"
		}
		return KindNone, ""
	case Move, Rotate, Recall, Destroy:
		if obj.Kind != world.KindPlaced {
			return KindValidationFailed, "catalog exhibits are fixed"
		}
		if obj.OwnerID != req.ParticipantID && !req.Admin {
			return KindForbidden, refusalMessage
		}
		return KindNone, ""
	}
	return KindValidationFailed, "unknown action"
}

func (v *Validator) apply(req Request, obj *world.Object, res *Result) error {
	switch req.Action {
	case Examine:
		if v.hooks != nil {
			res.Message = v.hooks.ExamineText(obj.TemplateID)
		}
		return nil
	case Clone:
		placed, err := v.world.PlaceClone(obj.TemplateID, req.ParticipantID, req.Pos, req.Yaw)
		if err != nil {
			return err
		}
		res.NewKey = placed.Key()
		return nil
	case Move:
		return v.world.MovePlaced(obj.Instance, req.Pos)
	case Rotate:
		return v.world.RotatePlaced(obj.Instance, req.Yaw)
	case Recall, Destroy:
		return v.world.RemovePlaced(obj.Instance)
	}
	return fmt.Errorf("unhandled action %s", req.Action)
}
