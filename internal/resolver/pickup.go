package resolver

import (
	"context"
	"errors"
	"time"

	"github.com/embervale/server/internal/core/event"
	"github.com/embervale/server/internal/mailbox"
	"github.com/embervale/server/internal/persist"
	"github.com/embervale/server/internal/store"
	"github.com/embervale/server/internal/world"
	"go.uber.org/zap"
)

// PickupResolver consumes pickup requests. A successful pickup swaps
// the ground item record for a PendingCredit in one commit, so the
// item can never be claimed twice and a claimed item can never be
// lost: if the process dies before the credit lands in the inventory,
// the replay sweep finishes the job from the PendingCredit.
type PickupResolver struct {
	deps *Deps
	mbox *mailbox.Mailbox[PickupRequest, PickupResult]
}

func NewPickupResolver(deps *Deps, mbox *mailbox.Mailbox[PickupRequest, PickupResult]) *PickupResolver {
	return &PickupResolver{deps: deps, mbox: mbox}
}

func (r *PickupResolver) Run(ctx context.Context, workers int) {
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

func (r *PickupResolver) Process(req PickupRequest) PickupResult {
	res := r.resolve(req)
	r.mbox.Complete(req.RequestID(), res)
	return res
}

func (r *PickupResolver) resolve(req PickupRequest) (res PickupResult) {
	defer func() {
		if p := recover(); p != nil {
			r.deps.Log.Error("pickup resolver panic",
				zap.String("req", req.RequestID()), zap.Any("panic", p))
			res = PickupResult{Success: false, Error: ErrCodeInternal}
		}
	}()

	if req.AreaID == "" || req.ReqID == "" || req.ItemID == "" || req.UID == "" {
		return PickupResult{Success: false, Error: ErrCodeInvalidRequest}
	}

	now := r.deps.now()
	key := world.GroundItemKey(req.AreaID, req.ItemID)

	// taken is written by the last (committing) run of the fn, so it
	// holds the snapshot the swap was actually based on.
	var taken *world.GroundItem
	_, err := r.deps.Store.Transact(key, func(cur any) (any, error) {
		item, ok := cur.(*world.GroundItem)
		if !ok || item == nil {
			return nil, errNotClaimable
		}
		if !item.ClaimableBy(req.UID, now) {
			return nil, errNotClaimable
		}
		taken = item
		return &world.PendingCredit{
			ReqID:     req.RequestID(),
			UID:       req.UID,
			ItemType:  item.ItemType,
			Count:     item.Count,
			ClaimedAt: now,
		}, nil
	})
	if errors.Is(err, errNotClaimable) {
		return PickupResult{Success: false, Error: ErrCodeNotAllowed}
	}
	if errors.Is(err, store.ErrContention) {
		return PickupResult{Success: false, Error: ErrCodeTransactionFailed}
	}
	if err != nil {
		return PickupResult{Success: false, Error: ErrCodeInternal}
	}

	r.deps.ApplyCredit(key, &world.PendingCredit{
		ReqID:     req.RequestID(),
		UID:       req.UID,
		ItemType:  taken.ItemType,
		Count:     taken.Count,
		ClaimedAt: now,
	})

	if r.deps.Bus != nil {
		event.Emit(r.deps.Bus, event.ItemClaimed{
			AreaID:   req.AreaID,
			ItemID:   req.ItemID,
			UID:      req.UID,
			ItemType: taken.ItemType,
			Count:    taken.Count,
		})
	}
	r.deps.Log.Info("item claimed",
		zap.String("area", req.AreaID),
		zap.String("item", req.ItemID),
		zap.String("uid", req.UID),
	)
	return PickupResult{Success: true, Item: taken}
}

var errNotClaimable = errors.New("not claimable")

// ApplyCredit turns a PendingCredit stored under key into an inventory
// credit, then clears the record. Safe to call more than once for the
// same credit: the WAL append is keyed by request id, and the in-memory
// inventory is only bumped by the append that actually landed. Called
// inline after a pickup commit and again by the replay sweep for
// credits a crash left behind.
func (d *Deps) ApplyCredit(key string, pc *world.PendingCredit) {
	applied := true
	if d.CreditWAL != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		var err error
		applied, err = d.CreditWAL.Append(ctx, persist.CreditEntry{
			ReqID:     pc.ReqID,
			UID:       pc.UID,
			ItemType:  pc.ItemType,
			Count:     pc.Count,
			ClaimedAt: pc.ClaimedAt,
		})
		if err != nil {
			// Leave the PendingCredit in place; the replay sweep
			// retries once the database is reachable again.
			d.Log.Error("credit wal append failed", zap.String("req", pc.ReqID), zap.Error(err))
			return
		}
		if applied && d.InventoryRepo != nil {
			if err := d.InventoryRepo.Add(ctx, pc.UID, pc.ItemType, pc.Count); err != nil {
				d.Log.Error("inventory persist failed", zap.String("uid", pc.UID), zap.Error(err))
				return
			}
		}
	}

	if applied {
		if _, err := d.Store.Transact(world.InventoryKey(pc.UID, pc.ItemType), func(cur any) (any, error) {
			count, _ := cur.(int64)
			return count + pc.Count, nil
		}); err != nil {
			d.Log.Error("inventory credit failed", zap.String("uid", pc.UID), zap.Error(err))
			return
		}
	}

	// Clear the claim record only after the credit is durable.
	_, err := d.Store.Transact(key, func(cur any) (any, error) {
		if _, ok := cur.(*world.PendingCredit); !ok {
			return nil, store.ErrAborted
		}
		return nil, nil
	})
	if err != nil && !errors.Is(err, store.ErrAborted) {
		d.Log.Error("credit cleanup failed", zap.String("key", key), zap.Error(err))
	}
}
