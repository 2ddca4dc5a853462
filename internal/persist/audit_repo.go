package persist

import (
	"context"

	"github.com/propcraft/server/internal/action"
	"go.uber.org/zap"
)

// AuditRepo appends terminal action verdicts to action_log. Auditing is
// best effort: a write failure is logged and never fails the action that
// produced it.
type AuditRepo struct {
	db  *DB
	log *zap.Logger
}

func NewAuditRepo(db *DB, log *zap.Logger) *AuditRepo {
	return &AuditRepo{db: db, log: log}
}

func (r *AuditRepo) Record(ctx context.Context, res action.Result) {
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO action_log (request_id, participant, action, target_key, applied, verdict, cost)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		res.RequestID, res.ParticipantID, res.Action, res.TargetKey,
		res.Applied, res.Kind.String(), res.Cost,
	)
	if err != nil {
		r.log.Error("audit write failed",
			zap.String("participant", res.ParticipantID),
			zap.String("action", res.Action),
			zap.Error(err),
		)
	}
}
