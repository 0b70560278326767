package resolver

import "github.com/embervale/server/internal/world"

// DamageRequest is a client-authored damage claim against one enemy.
// ReqID is the client-chosen idempotency token; it binds the request to
// exactly one DamageResult.
type DamageRequest struct {
	AreaID  string `json:"area_id"`
	ReqID   string `json:"req_id"`
	EnemyID string `json:"enemy_id"`
	UID     string `json:"uid"`
	Damage  int64  `json:"damage"`
}

// RequestID implements mailbox.Request. Results are addressed by
// {areaId}/{reqId}, mirroring the actions/damageResults path layout.
func (r DamageRequest) RequestID() string {
	return r.AreaID + "/" + r.ReqID
}

// PickupRequest is a client-authored claim on one ground item.
type PickupRequest struct {
	AreaID string `json:"area_id"`
	ReqID  string `json:"req_id"`
	ItemID string `json:"item_id"`
	UID    string `json:"uid"`
}

func (r PickupRequest) RequestID() string {
	return r.AreaID + "/" + r.ReqID
}

// DamageResult is the exactly-once outcome record for a DamageRequest.
type DamageResult struct {
	Success bool         `json:"success"`
	Error   string       `json:"error,omitempty"`
	Enemy   *world.Enemy `json:"enemy,omitempty"`
}

// PickupResult is the exactly-once outcome record for a PickupRequest.
type PickupResult struct {
	Success bool              `json:"success"`
	Error   string            `json:"error,omitempty"`
	Item    *world.GroundItem `json:"item,omitempty"`
}
