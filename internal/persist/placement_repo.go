package persist

import (
	"context"

	"github.com/propcraft/server/internal/geo"
	"github.com/propcraft/server/internal/world"
)

// PlacementRow is one persisted placement.
type PlacementRow struct {
	Instance   world.InstanceID
	TemplateID string
	Owner      string
	Pos        geo.Vec3
	Yaw        float64
	BaseValue  int64
}

type PlacementRepo struct {
	db *DB
}

func NewPlacementRepo(db *DB) *PlacementRepo {
	return &PlacementRepo{db: db}
}

// LoadAll returns every placement for the boot restore.
func (r *PlacementRepo) LoadAll(ctx context.Context) ([]PlacementRow, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT instance, template_id, owner, pos_x, pos_y, pos_z, yaw, base_value
		 FROM placements
		 ORDER BY instance`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []PlacementRow
	for rows.Next() {
		var p PlacementRow
		var inst int64
		if err := rows.Scan(
			&inst, &p.TemplateID, &p.Owner,
			&p.Pos.X, &p.Pos.Y, &p.Pos.Z, &p.Yaw, &p.BaseValue,
		); err != nil {
			return nil, err
		}
		p.Instance = world.InstanceID(inst)
		result = append(result, p)
	}
	return result, rows.Err()
}

// SaveBatch upserts dirty placements and deletes removed ones in a single
// transaction, so a crash between ticks never leaves half a flush behind.
func (r *PlacementRepo) SaveBatch(ctx context.Context, dirty []world.Object, removed []world.InstanceID) error {
	if len(dirty) == 0 && len(removed) == 0 {
		return nil
	}
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, o := range dirty {
		// owner and base_value are fixed at placement time; the update
		// branch must grow with them if either ever becomes mutable.
		if _, err := tx.Exec(ctx,
			`INSERT INTO placements (instance, template_id, owner, pos_x, pos_y, pos_z, yaw, base_value)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			 ON CONFLICT (instance) DO UPDATE SET
			   pos_x = EXCLUDED.pos_x, pos_y = EXCLUDED.pos_y, pos_z = EXCLUDED.pos_z,
			   yaw = EXCLUDED.yaw, updated_at = NOW()`,
			int64(o.Instance), o.TemplateID, o.OwnerID,
			o.Pos.X, o.Pos.Y, o.Pos.Z, o.Yaw, o.BaseValue,
		); err != nil {
			return err
		}
	}
	for _, id := range removed {
		if _, err := tx.Exec(ctx,
			`DELETE FROM placements WHERE instance = $1`, int64(id),
		); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}
