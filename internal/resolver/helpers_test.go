package resolver

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/embervale/server/internal/config"
	"github.com/embervale/server/internal/core/event"
	"github.com/embervale/server/internal/data"
	"github.com/embervale/server/internal/store"
	"github.com/embervale/server/internal/world"
	"go.uber.org/zap"
)

// fakeClock is an adjustable clock injected through Deps.Now.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

const testItemYAML = `items:
  - item_type: copper_coin
    name: Copper Coin
    default: true
  - item_type: wolf_pelt
    name: Wolf Pelt
  - item_type: golem_core
    name: Golem Core
`

func testItems(t *testing.T) *data.ItemTable {
	t.Helper()
	path := filepath.Join(t.TempDir(), "item_list.yaml")
	if err := os.WriteFile(path, []byte(testItemYAML), 0o644); err != nil {
		t.Fatalf("write item yaml: %v", err)
	}
	tbl, err := data.LoadItemTable(path)
	if err != nil {
		t.Fatalf("load item table: %v", err)
	}
	return tbl
}

func newTestDeps(t *testing.T) (*Deps, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	deps := &Deps{
		Store:  store.New(),
		Items:  testItems(t),
		Bus:    event.NewBus(),
		Config: config.Defaults(),
		Log:    zap.NewNop(),
		Now:    clock.Now,
	}
	return deps, clock
}

func putEnemy(deps *Deps, areaID, id string, hp, maxHP, xp int64, loot []world.LootEntry) *world.Enemy {
	en := &world.Enemy{
		ID:           id,
		TemplateID:   id,
		AreaID:       areaID,
		HP:           hp,
		MaxHP:        maxHP,
		XPValue:      xp,
		Contributors: make(map[string]int64),
		Loot:         loot,
	}
	deps.Store.Put(world.EnemyKey(areaID, id), en)
	return en
}

func getEnemy(t *testing.T, deps *Deps, areaID, id string) *world.Enemy {
	t.Helper()
	v := deps.Store.Get(world.EnemyKey(areaID, id))
	if v == nil {
		return nil
	}
	en, ok := v.(*world.Enemy)
	if !ok {
		t.Fatalf("key holds %T, want *world.Enemy", v)
	}
	return en
}

// groundItems returns every ground item in an area, keyed by id.
func groundItems(deps *Deps, areaID string) map[string]*world.GroundItem {
	out := make(map[string]*world.GroundItem)
	deps.Store.ForEachPrefix(world.GroundItemPrefix(areaID), func(key string, val any) {
		if gi, ok := val.(*world.GroundItem); ok {
			out[gi.ID] = gi
		}
	})
	return out
}

func inventoryCount(deps *Deps, uid, itemType string) int64 {
	n, _ := deps.Store.Get(world.InventoryKey(uid, itemType)).(int64)
	return n
}

func xpOf(deps *Deps, uid string) int64 {
	n, _ := deps.Store.Get(world.XPKey(uid)).(int64)
	return n
}
