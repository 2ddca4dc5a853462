package persist

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// LedgerRepo is the authoritative balance store. Deductions are a single
// conditional UPDATE so two concurrent spends can never both succeed on
// funds that only cover one: the row lock and the gold >= amount predicate
// decide the winner inside the database.
type LedgerRepo struct {
	db *DB
}

func NewLedgerRepo(db *DB) *LedgerRepo {
	return &LedgerRepo{db: db}
}

func (r *LedgerRepo) Balance(ctx context.Context, participantID string) (int64, error) {
	var gold int64
	err := r.db.Pool.QueryRow(ctx,
		`SELECT gold FROM balances WHERE participant = $1`, participantID,
	).Scan(&gold)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read balance: %w", err)
	}
	return gold, nil
}

// Deduct atomically subtracts amount when covered. applied=false with a nil
// error means the balance was short; the remaining value is then the
// current balance.
func (r *LedgerRepo) Deduct(ctx context.Context, participantID string, amount int64) (remaining int64, applied bool, err error) {
	err = r.db.Pool.QueryRow(ctx,
		`UPDATE balances SET gold = gold - $2, updated_at = NOW()
		 WHERE participant = $1 AND gold >= $2
		 RETURNING gold`,
		participantID, amount,
	).Scan(&remaining)
	if errors.Is(err, pgx.ErrNoRows) {
		remaining, err = r.Balance(ctx, participantID)
		return remaining, false, err
	}
	if err != nil {
		return 0, false, fmt.Errorf("deduct: %w", err)
	}
	return remaining, true, nil
}

// Deposit credits amount and returns the new balance.
func (r *LedgerRepo) Deposit(ctx context.Context, participantID string, amount int64) (int64, error) {
	var gold int64
	err := r.db.Pool.QueryRow(ctx,
		`UPDATE balances SET gold = gold + $2, updated_at = NOW()
		 WHERE participant = $1
		 RETURNING gold`,
		participantID, amount,
	).Scan(&gold)
	if err != nil {
		return 0, fmt.Errorf("deposit: %w", err)
	}
	return gold, nil
}
