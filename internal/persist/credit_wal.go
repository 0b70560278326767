package persist

import (
	"context"
	"fmt"
	"time"
)

// CreditEntry is one pickup credit in the write-ahead ledger.
type CreditEntry struct {
	ReqID     string
	UID       string
	ItemType  string
	Count     int64
	ClaimedAt time.Time
}

// CreditWAL records every applied pickup credit, keyed by the request's
// idempotency token. Replaying a credit that already landed is a no-op.
type CreditWAL struct {
	db *DB
}

func NewCreditWAL(db *DB) *CreditWAL {
	return &CreditWAL{db: db}
}

// Append writes the entry. Returns false when the req_id was already
// recorded — the credit has been applied before and must not be
// applied again.
func (r *CreditWAL) Append(ctx context.Context, e CreditEntry) (bool, error) {
	tag, err := r.db.Pool.Exec(ctx,
		`INSERT INTO credit_wal (req_id, uid, item_type, count, claimed_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (req_id) DO NOTHING`,
		e.ReqID, e.UID, e.ItemType, e.Count, e.ClaimedAt,
	)
	if err != nil {
		return false, fmt.Errorf("credit wal append: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
