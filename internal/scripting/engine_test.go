package scripting

import (
	"testing"

	"github.com/embervale/server/internal/world"
	"go.uber.org/zap"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine("", zap.NewNop())
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	t.Cleanup(e.Close)
	return e
}

func TestBuiltinPickLootTakesFirstDrop(t *testing.T) {
	e := newTestEngine(t)
	drops := []world.LootEntry{
		{ItemType: "wolf_pelt", Count: 1},
		{ItemType: "copper_coin", Count: 5},
	}
	pick, ok := e.PickLoot("ember_wolf", drops)
	if !ok {
		t.Fatalf("builtin script declined")
	}
	if pick.ItemType != "wolf_pelt" || pick.Count != 1 {
		t.Fatalf("pick = %+v", pick)
	}
}

func TestPickLootEmptyTableDeclines(t *testing.T) {
	e := newTestEngine(t)
	if _, ok := e.PickLoot("vale_slime", nil); ok {
		t.Fatalf("expected decline for empty drops")
	}
}

func TestLoadStringOverridesPickLoot(t *testing.T) {
	e := newTestEngine(t)
	err := e.LoadString(`
function pick_loot(ctx)
    if ctx.template_id == "ash_golem" then
        return { item_type = "golem_core", count = 2 }
    end
    return nil
end
`)
	if err != nil {
		t.Fatalf("load string: %v", err)
	}

	pick, ok := e.PickLoot("ash_golem", nil)
	if !ok || pick.ItemType != "golem_core" || pick.Count != 2 {
		t.Fatalf("pick = %+v ok=%v", pick, ok)
	}
	if _, ok := e.PickLoot("ember_wolf", nil); ok {
		t.Fatalf("override should decline unknown templates")
	}
}

func TestPickLootScriptErrorFallsBack(t *testing.T) {
	e := newTestEngine(t)
	if err := e.LoadString(`function pick_loot(ctx) error("boom") end`); err != nil {
		t.Fatalf("load string: %v", err)
	}
	if _, ok := e.PickLoot("ember_wolf", []world.LootEntry{{ItemType: "wolf_pelt", Count: 1}}); ok {
		t.Fatalf("errored script still picked")
	}
}

func TestPickLootRejectsBogusReturn(t *testing.T) {
	e := newTestEngine(t)
	if err := e.LoadString(`function pick_loot(ctx) return { item_type = "", count = 0 } end`); err != nil {
		t.Fatalf("load string: %v", err)
	}
	if _, ok := e.PickLoot("x", nil); ok {
		t.Fatalf("empty pick accepted")
	}
}
