package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/embervale/server/internal/world"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// defaultLootScript is the built-in loot selection used when no script
// directory is present. Keeps the historical single-drop behavior:
// the first entry of the enemy's loot table wins.
const defaultLootScript = `
function pick_loot(ctx)
    local drops = ctx.drops
    if drops == nil or #drops == 0 then
        return nil
    end
    return drops[1]
end
`

// Engine wraps a single gopher-lua VM for loot logic.
// Resolver workers share the VM, so calls are serialized by a mutex.
type Engine struct {
	mu  sync.Mutex
	vm  *lua.LState
	log *zap.Logger
}

// NewEngine creates a Lua engine, loads the built-in defaults, then
// overlays any .lua files from scriptsDir (missing dir is fine).
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log}

	if err := vm.DoString(defaultLootScript); err != nil {
		vm.Close()
		return nil, fmt.Errorf("load builtin loot script: %w", err)
	}

	if scriptsDir != "" {
		if err := e.loadDir(filepath.Join(scriptsDir, "loot")); err != nil {
			vm.Close()
			return nil, fmt.Errorf("load loot scripts: %w", err)
		}
	}

	return e, nil
}

// loadDir loads all .lua files in a directory.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // skip missing dirs
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// LoadString executes a raw Lua chunk, replacing any functions it
// redefines. Used by tests and the admin reload path.
func (e *Engine) LoadString(src string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.vm.DoString(src)
}

func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.vm.Close()
}

// LootPick is the scripted loot decision for one death.
type LootPick struct {
	ItemType string
	Count    int64
}

// PickLoot calls the Lua pick_loot function with the dead enemy's
// template id and loot table. ok is false when the script declined to
// pick (or errored); the caller falls back to the default item.
func (e *Engine) PickLoot(templateID string, drops []world.LootEntry) (LootPick, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	fn := e.vm.GetGlobal("pick_loot")
	if fn == lua.LNil {
		e.log.Error("lua function pick_loot not found")
		return LootPick{}, false
	}

	ctx := e.vm.NewTable()
	ctx.RawSetString("template_id", lua.LString(templateID))
	arr := e.vm.NewTable()
	for _, d := range drops {
		t := e.vm.NewTable()
		t.RawSetString("item_type", lua.LString(d.ItemType))
		t.RawSetString("count", lua.LNumber(d.Count))
		arr.Append(t)
	}
	ctx.RawSetString("drops", arr)

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, ctx); err != nil {
		e.log.Error("lua pick_loot error", zap.Error(err))
		return LootPick{}, false
	}

	ret := e.vm.Get(-1)
	e.vm.Pop(1)

	tbl, ok := ret.(*lua.LTable)
	if !ok {
		return LootPick{}, false
	}
	pick := LootPick{
		ItemType: lua.LVAsString(tbl.RawGetString("item_type")),
		Count:    int64(lua.LVAsNumber(tbl.RawGetString("count"))),
	}
	if pick.ItemType == "" || pick.Count <= 0 {
		return LootPick{}, false
	}
	return pick, true
}
