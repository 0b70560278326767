package resolver

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/embervale/server/internal/core/event"
	"github.com/embervale/server/internal/mailbox"
	"github.com/embervale/server/internal/store"
	"github.com/embervale/server/internal/world"
	"go.uber.org/zap"
)

// DamageResolver consumes damage requests and applies them to enemies
// through store transactions. An enemy's alive→dead transition happens
// in exactly one commit; that commit's winner also creates the loot
// drop, guarded by the LootProcessed one-shot.
type DamageResolver struct {
	deps *Deps
	mbox *mailbox.Mailbox[DamageRequest, DamageResult]
}

func NewDamageResolver(deps *Deps, mbox *mailbox.Mailbox[DamageRequest, DamageResult]) *DamageResolver {
	return &DamageResolver{deps: deps, mbox: mbox}
}

// Run drains the mailbox with the given number of workers until ctx is
// done. Requests for different enemies resolve fully in parallel;
// requests for the same enemy serialize through its key's commits.
func (r *DamageResolver) Run(ctx context.Context, workers int) {
	if workers < 1 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case req := <-r.mbox.Queue():
					r.Process(req)
				}
			}
		}()
	}
}

// Process resolves one request and records its result. Every path —
// validation failure, contention, panic — produces exactly one result
// record; a request is never left pending silently.
func (r *DamageResolver) Process(req DamageRequest) DamageResult {
	res := r.resolve(req)
	r.mbox.Complete(req.RequestID(), res)
	return res
}

func (r *DamageResolver) resolve(req DamageRequest) (res DamageResult) {
	defer func() {
		if p := recover(); p != nil {
			r.deps.Log.Error("damage resolver panic",
				zap.String("req", req.RequestID()), zap.Any("panic", p))
			res = DamageResult{Success: false, Error: ErrCodeInternal}
		}
	}()

	if req.AreaID == "" || req.ReqID == "" || req.EnemyID == "" || req.UID == "" || req.Damage <= 0 {
		return DamageResult{Success: false, Error: ErrCodeInvalidRequest}
	}

	now := r.deps.now()
	key := world.EnemyKey(req.AreaID, req.EnemyID)

	committed, err := r.deps.Store.Transact(key, func(cur any) (any, error) {
		if cur == nil {
			return nil, nil // absent: no-op
		}
		en, ok := cur.(*world.Enemy)
		if !ok || en.IsDead {
			// Damage against a dead enemy is a no-op: hp stays 0, no
			// contributor credit, no second death transition.
			return cur, nil
		}
		next := en.Clone()
		next.HP = en.HP - req.Damage
		if next.HP < 0 {
			next.HP = 0
		}
		next.LastHitBy = req.UID
		next.Contributors[req.UID] += req.Damage
		if next.HP == 0 {
			next.IsDead = true
			next.DeathAt = now
		}
		return next, nil
	})
	if errors.Is(err, store.ErrContention) {
		return DamageResult{Success: false, Error: ErrCodeTransactionFailed}
	}
	if err != nil {
		return DamageResult{Success: false, Error: ErrCodeInternal}
	}

	enemy, _ := committed.(*world.Enemy)
	if enemy == nil {
		return DamageResult{Success: true}
	}

	// Post-commit side effects run behind the LootProcessed one-shot:
	// this path may execute more than once per death (a resubmitted
	// request, a racing duplicate), but only the flag's claim winner
	// drops loot.
	if enemy.IsDead && !enemy.LootProcessed {
		r.handleDeath(req.AreaID, key, now)
	}

	return DamageResult{Success: true, Enemy: enemy}
}

// handleDeath claims the LootProcessed flag and, as the claim winner,
// creates the loot drop and pays out xp shares.
func (r *DamageResolver) handleDeath(areaID, enemyKey string, now time.Time) {
	claimed, err := r.deps.Store.Transact(enemyKey, func(cur any) (any, error) {
		en, ok := cur.(*world.Enemy)
		if !ok || en == nil || en.LootProcessed {
			return nil, store.ErrAborted
		}
		next := en.Clone()
		next.LootProcessed = true
		return next, nil
	})
	if errors.Is(err, store.ErrAborted) {
		return // another invocation won the claim
	}
	if err != nil {
		r.deps.Log.Error("loot claim failed", zap.String("enemy", enemyKey), zap.Error(err))
		return
	}

	enemy := claimed.(*world.Enemy)
	r.dropLoot(areaID, enemy, now)
	r.awardXP(enemy)

	if r.deps.Bus != nil {
		event.Emit(r.deps.Bus, event.EnemyKilled{
			AreaID:    areaID,
			EnemyID:   enemy.ID,
			KillerUID: enemy.LastHitBy,
			XPValue:   enemy.XPValue,
		})
	}
	r.deps.Log.Info("enemy killed",
		zap.String("area", areaID),
		zap.String("enemy", enemy.ID),
		zap.String("killer", enemy.LastHitBy),
		zap.Int("contributors", len(enemy.Contributors)),
	)
}

func (r *DamageResolver) dropLoot(areaID string, enemy *world.Enemy, now time.Time) {
	pick := r.pickLoot(enemy)

	item := &world.GroundItem{
		ID:        world.NextGroundItemID(),
		ItemType:  pick.ItemType,
		Count:     pick.Count,
		AreaID:    areaID,
		X:         enemy.X,
		Y:         enemy.Y,
		OwnerID:   enemy.LastHitBy,
		VisibleTo: enemy.ContributorSet(),
		CreatedAt: now,
		ReleaseAt: now.Add(r.deps.releaseWindow()),
	}
	r.deps.Store.Put(world.GroundItemKey(areaID, item.ID), item)

	if r.deps.Bus != nil {
		event.Emit(r.deps.Bus, event.LootDropped{
			AreaID:   areaID,
			ItemID:   item.ID,
			ItemType: item.ItemType,
			Count:    item.Count,
			X:        item.X,
			Y:        item.Y,
		})
	}
}

// pickLoot asks the Lua hook first, then falls back to the first table
// entry, then to the default item.
func (r *DamageResolver) pickLoot(enemy *world.Enemy) world.LootEntry {
	if r.deps.Scripting != nil {
		if pick, ok := r.deps.Scripting.PickLoot(enemy.TemplateID, enemy.Loot); ok {
			return world.LootEntry{ItemType: pick.ItemType, Count: pick.Count}
		}
	}
	if len(enemy.Loot) > 0 {
		return enemy.Loot[0]
	}
	fb := r.deps.Items.Fallback()
	return world.LootEntry{ItemType: fb.ItemType, Count: 1}
}

// awardXP splits the enemy's xp among contributors by damage share.
func (r *DamageResolver) awardXP(enemy *world.Enemy) {
	if enemy.XPValue <= 0 || len(enemy.Contributors) == 0 {
		return
	}
	var total int64
	for _, dmg := range enemy.Contributors {
		total += dmg
	}
	if total <= 0 {
		return
	}

	base := int64(math.Round(float64(enemy.XPValue) * r.deps.xpRate()))
	for uid, dmg := range enemy.Contributors {
		share := base * dmg / total
		if share <= 0 {
			continue
		}
		if _, err := r.deps.Store.Transact(world.XPKey(uid), func(cur any) (any, error) {
			xp, _ := cur.(int64)
			return xp + share, nil
		}); err != nil {
			r.deps.Log.Error("xp award failed", zap.String("uid", uid), zap.Error(err))
			continue
		}
		if r.deps.InventoryRepo != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := r.deps.InventoryRepo.AddXP(ctx, uid, share); err != nil {
				r.deps.Log.Error("xp persist failed", zap.String("uid", uid), zap.Error(err))
			}
			cancel()
		}
	}
}
