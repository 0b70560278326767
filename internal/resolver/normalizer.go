package resolver

import (
	"errors"
	"time"

	"github.com/embervale/server/internal/core/event"
	"github.com/embervale/server/internal/store"
	"github.com/embervale/server/internal/world"
	"go.uber.org/zap"
)

// Normalizer inspects every enemy record the moment it is created and
// rejects or repairs ones that do not describe a freshly spawned,
// full-health enemy. A client (or a buggy handler) that injects a
// pre-damaged or pre-dead enemy cannot smuggle free kills into the
// world: the record is forced back to full health or removed outright.
type Normalizer struct {
	deps *Deps
}

func NewNormalizer(deps *Deps) *Normalizer {
	return &Normalizer{deps: deps}
}

// Attach registers the normalizer as a creation hook on the store.
func (n *Normalizer) Attach() {
	n.deps.Store.OnCreate(world.AreasPrefix, func(key string, val any) {
		if !world.IsEnemyKey(key) {
			return
		}
		n.Normalize(key)
	})
}

// Normalize validates the enemy under key, repairing or deleting it as
// needed. Exposed for tests and for re-validating records loaded from
// a snapshot.
func (n *Normalizer) Normalize(key string) {
	var verdict string
	committed, err := n.deps.Store.Transact(key, func(cur any) (any, error) {
		en, ok := cur.(*world.Enemy)
		if !ok || en == nil {
			return nil, store.ErrAborted
		}
		if en.MaxHP <= 0 || en.HP <= 0 {
			// Unsalvageable: a spawn with no health to give.
			verdict = "deleted"
			return nil, nil
		}
		if en.HP < en.MaxHP || en.IsDead || en.LootProcessed {
			verdict = "repaired"
			next := en.Clone()
			next.HP = next.MaxHP
			next.IsDead = false
			next.LootProcessed = false
			next.DeathAt = time.Time{}
			return next, nil
		}
		verdict = "accepted"
		return nil, store.ErrAborted
	})
	if err != nil && !errors.Is(err, store.ErrAborted) {
		n.deps.Log.Error("normalize failed", zap.String("key", key), zap.Error(err))
		return
	}

	switch verdict {
	case "deleted":
		n.deps.Log.Warn("invalid enemy spawn deleted", zap.String("key", key))
		return
	case "repaired":
		n.deps.Log.Warn("invalid enemy spawn repaired", zap.String("key", key))
	}

	en, _ := committed.(*world.Enemy)
	if en == nil {
		// Accepted via abort: the stored record is already valid.
		en, _ = n.deps.Store.Get(key).(*world.Enemy)
	}
	if en != nil && n.deps.Bus != nil {
		event.Emit(n.deps.Bus, event.EnemySpawned{
			AreaID:     en.AreaID,
			EnemyID:    en.ID,
			TemplateID: en.TemplateID,
			X:          en.X,
			Y:          en.Y,
		})
	}
}
