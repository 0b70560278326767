// Package resolver contains the authoritative combat and loot logic:
// the damage resolver, the pickup resolver, the visibility sweep and
// the anti-cheat normalizer. Everything here mutates shared state only
// through store transactions.
package resolver

import (
	"time"

	"github.com/embervale/server/internal/config"
	"github.com/embervale/server/internal/core/event"
	"github.com/embervale/server/internal/data"
	"github.com/embervale/server/internal/persist"
	"github.com/embervale/server/internal/scripting"
	"github.com/embervale/server/internal/store"
	"go.uber.org/zap"
)

// Error codes carried in result records. Clients switch on these.
const (
	ErrCodeInvalidRequest    = "invalid_request"
	ErrCodeTransactionFailed = "transaction_failed"
	ErrCodeNotAllowed        = "not_allowed_or_already_taken"
	ErrCodeInternal          = "internal"
)

// Deps holds shared dependencies injected into all resolvers.
// InventoryRepo and CreditWAL are nil when the server runs without a
// database; every use is nil-guarded.
type Deps struct {
	Store     *store.Store
	Items     *data.ItemTable
	Scripting *scripting.Engine
	Bus       *event.Bus
	Config    *config.Config
	Log       *zap.Logger

	InventoryRepo *persist.InventoryRepo
	CreditWAL     *persist.CreditWAL

	// Now is the clock. Tests inject a fixed one.
	Now func() time.Time
}

func (d *Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

func (d *Deps) releaseWindow() time.Duration {
	if d.Config != nil && d.Config.Game.ReleaseWindow > 0 {
		return d.Config.Game.ReleaseWindow
	}
	return 5 * time.Second
}

func (d *Deps) xpRate() float64 {
	if d.Config != nil && d.Config.Game.XPRate > 0 {
		return d.Config.Game.XPRate
	}
	return 1.0
}
