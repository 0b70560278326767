package resolver

import (
	"errors"
	"time"

	"github.com/embervale/server/internal/core/event"
	"github.com/embervale/server/internal/core/system"
	"github.com/embervale/server/internal/store"
	"github.com/embervale/server/internal/world"
	"go.uber.org/zap"
)

// VisibilitySweep walks ground items each tick, opening contributor
// restrictions once their release time passes and expiring public
// items that nobody claimed within the TTL.
type VisibilitySweep struct {
	deps *Deps
}

func NewVisibilitySweep(deps *Deps) *VisibilitySweep {
	return &VisibilitySweep{deps: deps}
}

func (s *VisibilitySweep) Phase() system.Phase { return system.PhasePostUpdate }

func (s *VisibilitySweep) Update(dt time.Duration) { s.Run() }

// Run performs one sweep pass.
func (s *VisibilitySweep) Run() {
	now := s.deps.now()
	ttl := s.deps.Config.Game.GroundItemTTL

	s.deps.Store.ForEachPrefix(world.AreasPrefix, func(key string, val any) {
		item, ok := val.(*world.GroundItem)
		if !ok {
			return
		}

		switch {
		case item.VisibleTo != nil && !now.Before(item.ReleaseAt):
			s.release(key, item)
		case item.VisibleTo == nil && ttl > 0 && now.Sub(item.CreatedAt) >= ttl:
			s.expire(key)
		}
	})
}

// release clears the visibility restriction so any player can claim
// the item. Lost races are fine: a concurrent pickup or an earlier
// release just makes this a no-op.
func (s *VisibilitySweep) release(key string, item *world.GroundItem) {
	_, err := s.deps.Store.Transact(key, func(cur any) (any, error) {
		gi, ok := cur.(*world.GroundItem)
		if !ok || gi == nil || gi.VisibleTo == nil {
			return nil, store.ErrAborted
		}
		next := gi.Clone()
		next.VisibleTo = nil
		return next, nil
	})
	if errors.Is(err, store.ErrAborted) {
		return
	}
	if err != nil {
		s.deps.Log.Error("loot release failed", zap.String("key", key), zap.Error(err))
		return
	}

	if s.deps.Bus != nil {
		event.Emit(s.deps.Bus, event.LootReleased{
			AreaID: item.AreaID,
			ItemID: item.ID,
		})
	}
	s.deps.Log.Debug("loot released", zap.String("item", item.ID), zap.String("area", item.AreaID))
}

func (s *VisibilitySweep) expire(key string) {
	_, err := s.deps.Store.Transact(key, func(cur any) (any, error) {
		gi, ok := cur.(*world.GroundItem)
		if !ok || gi == nil || gi.VisibleTo != nil {
			return nil, store.ErrAborted
		}
		return nil, nil
	})
	if err != nil && !errors.Is(err, store.ErrAborted) {
		s.deps.Log.Error("loot expire failed", zap.String("key", key), zap.Error(err))
	}
}
