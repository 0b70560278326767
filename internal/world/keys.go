package world

import "strings"

// Store key layout. These directory-style keys are the wire contract:
// clients read enemies and ground items at exactly these paths.
//
//	areas/{areaId}/enemies/{enemyId}      → *Enemy
//	areas/{areaId}/groundItems/{itemId}   → *GroundItem or *PendingCredit
//	players/{uid}/inventory/{itemType}    → int64
//	players/{uid}/xp                      → int64

func EnemyKey(areaID, enemyID string) string {
	return "areas/" + areaID + "/enemies/" + enemyID
}

func EnemyPrefix(areaID string) string {
	return "areas/" + areaID + "/enemies/"
}

// AreasPrefix matches every area-scoped record, for create hooks.
const AreasPrefix = "areas/"

// IsEnemyKey reports whether key addresses an enemy record.
func IsEnemyKey(key string) bool {
	return strings.HasPrefix(key, "areas/") && strings.Contains(key, "/enemies/")
}

func GroundItemKey(areaID, itemID string) string {
	return "areas/" + areaID + "/groundItems/" + itemID
}

func GroundItemPrefix(areaID string) string {
	return "areas/" + areaID + "/groundItems/"
}

func InventoryKey(uid, itemType string) string {
	return "players/" + uid + "/inventory/" + itemType
}

func XPKey(uid string) string {
	return "players/" + uid + "/xp"
}
