package resolver

import (
	"sync"
	"testing"
	"time"

	"github.com/embervale/server/internal/mailbox"
	"github.com/embervale/server/internal/world"
)

func pickupReq(area, reqID, item, uid string) PickupRequest {
	return PickupRequest{AreaID: area, ReqID: reqID, ItemID: item, UID: uid}
}

func putGroundItem(deps *Deps, clock *fakeClock, areaID, id, itemType string, count int64, visibleTo ...string) *world.GroundItem {
	now := clock.Now()
	gi := &world.GroundItem{
		ID:        id,
		ItemType:  itemType,
		Count:     count,
		AreaID:    areaID,
		CreatedAt: now,
		ReleaseAt: now.Add(deps.releaseWindow()),
	}
	if len(visibleTo) > 0 {
		gi.VisibleTo = make(map[string]struct{}, len(visibleTo))
		for _, uid := range visibleTo {
			gi.VisibleTo[uid] = struct{}{}
		}
		gi.OwnerID = visibleTo[0]
	}
	deps.Store.Put(world.GroundItemKey(areaID, id), gi)
	return gi
}

func TestPickupCreditsInventory(t *testing.T) {
	deps, clock := newTestDeps(t)
	putGroundItem(deps, clock, "a1", "gi-1", "wolf_pelt", 2)
	r := NewPickupResolver(deps, mailbox.New[PickupRequest, PickupResult](8))

	res := r.Process(pickupReq("a1", "q1", "gi-1", "u1"))
	if !res.Success {
		t.Fatalf("result: %+v", res)
	}
	if res.Item == nil || res.Item.ItemType != "wolf_pelt" {
		t.Fatalf("item snapshot: %+v", res.Item)
	}
	if len(groundItems(deps, "a1")) != 0 {
		t.Fatalf("item still on the ground")
	}
	if got := inventoryCount(deps, "u1", "wolf_pelt"); got != 2 {
		t.Fatalf("inventory = %d, want 2", got)
	}
	// The claim record was cleared after the credit landed.
	if v := deps.Store.Get(world.GroundItemKey("a1", "gi-1")); v != nil {
		t.Fatalf("pending credit left behind: %+v", v)
	}
}

func TestPickupValidation(t *testing.T) {
	deps, _ := newTestDeps(t)
	r := NewPickupResolver(deps, mailbox.New[PickupRequest, PickupResult](8))

	bad := []PickupRequest{
		pickupReq("", "q", "i", "u"),
		pickupReq("a", "", "i", "u"),
		pickupReq("a", "q", "", "u"),
		pickupReq("a", "q", "i", ""),
	}
	for i, req := range bad {
		if res := r.resolve(req); res.Success || res.Error != ErrCodeInvalidRequest {
			t.Fatalf("case %d: %+v", i, res)
		}
	}
}

func TestPickupMissingItem(t *testing.T) {
	deps, _ := newTestDeps(t)
	r := NewPickupResolver(deps, mailbox.New[PickupRequest, PickupResult](8))

	res := r.Process(pickupReq("a1", "q1", "gi-missing", "u1"))
	if res.Success || res.Error != ErrCodeNotAllowed {
		t.Fatalf("result: %+v", res)
	}
}

func TestPickupDeniedForNonContributor(t *testing.T) {
	deps, clock := newTestDeps(t)
	putGroundItem(deps, clock, "a1", "gi-1", "wolf_pelt", 1, "u1", "u2")
	r := NewPickupResolver(deps, mailbox.New[PickupRequest, PickupResult](8))

	res := r.Process(pickupReq("a1", "q1", "gi-1", "u3"))
	if res.Success || res.Error != ErrCodeNotAllowed {
		t.Fatalf("result: %+v", res)
	}
	// The item is untouched; a contributor can still take it.
	res = r.Process(pickupReq("a1", "q2", "gi-1", "u2"))
	if !res.Success {
		t.Fatalf("contributor pickup: %+v", res)
	}
}

func TestPickupAllowedAfterReleaseTime(t *testing.T) {
	deps, clock := newTestDeps(t)
	putGroundItem(deps, clock, "a1", "gi-1", "wolf_pelt", 1, "u1")
	r := NewPickupResolver(deps, mailbox.New[PickupRequest, PickupResult](8))

	// Even without a sweep pass, the release time itself opens the
	// claim check.
	clock.Advance(deps.releaseWindow() + time.Second)
	res := r.Process(pickupReq("a1", "q1", "gi-1", "u9"))
	if !res.Success {
		t.Fatalf("post-release pickup: %+v", res)
	}
	if got := inventoryCount(deps, "u9", "wolf_pelt"); got != 1 {
		t.Fatalf("inventory = %d, want 1", got)
	}
}

// Two players race for one item: exactly one wins, the loser gets
// not_allowed_or_already_taken, and the inventory is credited once.
func TestConcurrentPickupSingleWinner(t *testing.T) {
	deps, clock := newTestDeps(t)
	r := NewPickupResolver(deps, mailbox.New[PickupRequest, PickupResult](64))

	for round := 0; round < 20; round++ {
		id := world.NextGroundItemID()
		putGroundItem(deps, clock, "a1", id, "wolf_pelt", 1)

		var wg sync.WaitGroup
		results := make([]PickupResult, 2)
		for i := 0; i < 2; i++ {
			wg.Add(1)
			go func(n int) {
				defer wg.Done()
				uid := []string{"u1", "u2"}[n]
				results[n] = r.Process(pickupReq("a1", id+"-"+uid, id, uid))
			}(i)
		}
		wg.Wait()

		wins := 0
		for _, res := range results {
			if res.Success {
				wins++
			} else if res.Error != ErrCodeNotAllowed && res.Error != ErrCodeTransactionFailed {
				t.Fatalf("loser error = %q", res.Error)
			}
		}
		if wins != 1 {
			t.Fatalf("round %d: %d winners", round, wins)
		}
	}

	total := inventoryCount(deps, "u1", "wolf_pelt") + inventoryCount(deps, "u2", "wolf_pelt")
	if total != 20 {
		t.Fatalf("total credited = %d, want 20", total)
	}
}

// A PendingCredit whose apply never finished is completed by the
// replay sweep, exactly once.
func TestCreditReplayFinishesStalledPickup(t *testing.T) {
	deps, clock := newTestDeps(t)

	// Simulate a crash after the item swap committed but before the
	// credit was applied.
	key := world.GroundItemKey("a1", "gi-1")
	deps.Store.Put(key, &world.PendingCredit{
		ReqID:     "a1/q1",
		UID:       "u1",
		ItemType:  "wolf_pelt",
		Count:     3,
		ClaimedAt: clock.Now(),
	})

	sweep := NewCreditReplay(deps)

	// Too fresh: the inline path may still be working on it.
	sweep.Run()
	if got := inventoryCount(deps, "u1", "wolf_pelt"); got != 0 {
		t.Fatalf("fresh credit replayed early: %d", got)
	}

	clock.Advance(deps.Config.Game.CreditReplayAge + time.Second)
	sweep.Run()
	if got := inventoryCount(deps, "u1", "wolf_pelt"); got != 3 {
		t.Fatalf("inventory = %d, want 3", got)
	}
	if v := deps.Store.Get(key); v != nil {
		t.Fatalf("pending credit not cleared: %+v", v)
	}

	// A second pass is a no-op: the record is gone.
	sweep.Run()
	if got := inventoryCount(deps, "u1", "wolf_pelt"); got != 3 {
		t.Fatalf("replay applied twice: %d", got)
	}
}
