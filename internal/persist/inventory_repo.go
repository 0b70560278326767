package persist

import (
	"context"
)

// InventoryRepo mirrors committed inventory counts into PostgreSQL.
// The in-memory store stays authoritative during a session; this table
// is what survives a restart.
type InventoryRepo struct {
	db *DB
}

func NewInventoryRepo(db *DB) *InventoryRepo {
	return &InventoryRepo{db: db}
}

// Add increments a player's count for one item type.
func (r *InventoryRepo) Add(ctx context.Context, uid, itemType string, delta int64) error {
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO inventory (uid, item_type, count) VALUES ($1, $2, $3)
		 ON CONFLICT (uid, item_type) DO UPDATE SET count = inventory.count + EXCLUDED.count`,
		uid, itemType, delta,
	)
	return err
}

// Load returns all item counts for a player.
func (r *InventoryRepo) Load(ctx context.Context, uid string) (map[string]int64, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT item_type, count FROM inventory WHERE uid = $1`, uid,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]int64)
	for rows.Next() {
		var itemType string
		var count int64
		if err := rows.Scan(&itemType, &count); err != nil {
			return nil, err
		}
		out[itemType] = count
	}
	return out, rows.Err()
}

// AddXP increments a player's lifetime xp.
func (r *InventoryRepo) AddXP(ctx context.Context, uid string, delta int64) error {
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO player_stats (uid, xp) VALUES ($1, $2)
		 ON CONFLICT (uid) DO UPDATE SET xp = player_stats.xp + EXCLUDED.xp`,
		uid, delta,
	)
	return err
}
