package world

import "time"

// LootEntry is one possible drop carried by an enemy template.
type LootEntry struct {
	ItemType string `yaml:"item_type"`
	Count    int64  `yaml:"count"`
}

// Enemy is the authoritative record for one enemy in an area.
// Stored in the entity store; treated as immutable — transactions clone
// before mutating.
//
// Invariants: IsDead == (HP == 0) after every commit; Contributors only
// grows; LootProcessed flips false→true at most once; DeathAt is set
// once, at the dead transition.
type Enemy struct {
	ID         string
	TemplateID string
	AreaID     string
	X          int32
	Y          int32
	HP         int64
	MaxHP      int64
	XPValue    int64
	IsDead     bool
	DeathAt    time.Time
	LastHitBy  string

	// Contributors maps uid → cumulative damage dealt while the enemy
	// was alive. Drives loot visibility and xp shares.
	Contributors map[string]int64

	LootProcessed bool
	Loot          []LootEntry
}

// Clone returns a deep copy safe to mutate inside a transaction.
func (e *Enemy) Clone() *Enemy {
	c := *e
	c.Contributors = make(map[string]int64, len(e.Contributors)+1)
	for uid, dmg := range e.Contributors {
		c.Contributors[uid] = dmg
	}
	// Loot entries are immutable template data; the slice is shared.
	return &c
}

// ContributorSet returns the uids that dealt damage, or nil when empty.
func (e *Enemy) ContributorSet() map[string]struct{} {
	if len(e.Contributors) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(e.Contributors))
	for uid := range e.Contributors {
		set[uid] = struct{}{}
	}
	return set
}
