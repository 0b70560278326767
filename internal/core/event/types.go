package event

// EnemySpawned fires when a fresh enemy record lands in the store
// (after normalizer repair, when repair was needed).
type EnemySpawned struct {
	AreaID     string
	EnemyID    string
	TemplateID string
	X          int32
	Y          int32
}

// EnemyKilled fires once per enemy, at the alive→dead commit.
type EnemyKilled struct {
	AreaID    string
	EnemyID   string
	KillerUID string
	XPValue   int64
}

// LootDropped fires when a kill produces a ground item.
type LootDropped struct {
	AreaID   string
	ItemID   string
	ItemType string
	Count    int64
	X        int32
	Y        int32
}

// ItemClaimed fires when a pickup commit removes a ground item.
type ItemClaimed struct {
	AreaID   string
	ItemID   string
	ItemType string
	Count    int64
	UID      string
}

// LootReleased fires when the visibility sweep makes a drop public.
type LootReleased struct {
	AreaID string
	ItemID string
}
