package world

import (
	"testing"
	"time"
)

func TestKeyLayout(t *testing.T) {
	if got := EnemyKey("vale", "wolf"); got != "areas/vale/enemies/wolf" {
		t.Fatalf("enemy key = %q", got)
	}
	if got := GroundItemKey("vale", "gi-1"); got != "areas/vale/groundItems/gi-1" {
		t.Fatalf("ground item key = %q", got)
	}
	if got := InventoryKey("u1", "copper_coin"); got != "players/u1/inventory/copper_coin" {
		t.Fatalf("inventory key = %q", got)
	}
	if got := XPKey("u1"); got != "players/u1/xp" {
		t.Fatalf("xp key = %q", got)
	}
}

func TestIsEnemyKey(t *testing.T) {
	if !IsEnemyKey(EnemyKey("vale", "wolf")) {
		t.Fatalf("enemy key not recognized")
	}
	if IsEnemyKey(GroundItemKey("vale", "gi-1")) {
		t.Fatalf("ground item key matched as enemy")
	}
	if IsEnemyKey(XPKey("u1")) {
		t.Fatalf("player key matched as enemy")
	}
}

func TestEnemyCloneIsDeep(t *testing.T) {
	e := &Enemy{
		ID:           "wolf",
		HP:           40,
		Contributors: map[string]int64{"u1": 10},
	}
	c := e.Clone()
	c.HP = 1
	c.Contributors["u2"] = 5

	if e.HP != 40 {
		t.Fatalf("clone mutated original hp")
	}
	if _, ok := e.Contributors["u2"]; ok {
		t.Fatalf("clone shares Contributors map")
	}
}

func TestContributorSet(t *testing.T) {
	e := &Enemy{Contributors: map[string]int64{"u1": 10, "u2": 3}}
	set := e.ContributorSet()
	if len(set) != 2 {
		t.Fatalf("set = %v", set)
	}
	if (&Enemy{}).ContributorSet() != nil {
		t.Fatalf("empty contributors should yield nil set")
	}
}

func TestGroundItemClaimableBy(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	gi := &GroundItem{
		VisibleTo: map[string]struct{}{"u1": {}},
		ReleaseAt: now.Add(5 * time.Second),
	}

	if !gi.ClaimableBy("u1", now) {
		t.Fatalf("contributor denied")
	}
	if gi.ClaimableBy("u2", now) {
		t.Fatalf("outsider allowed before release")
	}
	if !gi.ClaimableBy("u2", now.Add(5*time.Second)) {
		t.Fatalf("outsider denied at release time")
	}

	public := &GroundItem{}
	if !public.ClaimableBy("anyone", now) {
		t.Fatalf("public item denied")
	}
}

func TestGroundItemCloneIsDeep(t *testing.T) {
	gi := &GroundItem{VisibleTo: map[string]struct{}{"u1": {}}}
	c := gi.Clone()
	c.VisibleTo["u2"] = struct{}{}
	if _, ok := gi.VisibleTo["u2"]; ok {
		t.Fatalf("clone shares VisibleTo map")
	}
}

func TestNextGroundItemIDUnique(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		id := NextGroundItemID()
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = struct{}{}
	}
}
