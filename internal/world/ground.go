package world

import (
	"time"

	"github.com/google/uuid"
)

// NextGroundItemID returns a fresh unique id for a ground item. Ids are
// never reused: once a drop is claimed and deleted, its id is gone.
func NextGroundItemID() string {
	return "gi-" + uuid.NewString()
}

// GroundItem is a claimable loot drop lying in an area.
// Stored in the entity store; treated as immutable — transactions clone
// before mutating.
//
// Invariants: a non-nil VisibleTo is non-empty; ReleaseAt is set at
// creation and never moves.
type GroundItem struct {
	ID       string
	ItemType string
	Count    int64
	AreaID   string
	X        int32
	Y        int32

	// OwnerID is the uid credited with the kill ("" for spawner-placed
	// items).
	OwnerID string

	// VisibleTo restricts who may claim the drop before ReleaseAt.
	// nil means public.
	VisibleTo map[string]struct{}

	CreatedAt time.Time
	ReleaseAt time.Time
}

// Clone returns a deep copy safe to mutate inside a transaction.
func (g *GroundItem) Clone() *GroundItem {
	c := *g
	if g.VisibleTo != nil {
		c.VisibleTo = make(map[string]struct{}, len(g.VisibleTo))
		for uid := range g.VisibleTo {
			c.VisibleTo[uid] = struct{}{}
		}
	}
	return &c
}

// ClaimableBy reports whether uid may take the item at time now.
func (g *GroundItem) ClaimableBy(uid string, now time.Time) bool {
	if g.VisibleTo == nil {
		return true
	}
	if _, ok := g.VisibleTo[uid]; ok {
		return true
	}
	return !now.Before(g.ReleaseAt)
}

// PendingCredit occupies a ground item's key between the claiming
// transaction and the inventory credit. Writing it in the same commit
// that removes the item means a crash between the two phases leaves a
// durable record to replay instead of a lost item.
type PendingCredit struct {
	ReqID     string
	UID       string
	ItemType  string
	Count     int64
	ClaimedAt time.Time
}
