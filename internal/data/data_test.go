package data

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadEnemyTable(t *testing.T) {
	path := writeTemp(t, "enemy_list.yaml", `
enemies:
  - template_id: ember_wolf
    name: Ember Wolf
    max_hp: 40
    xp_value: 25
    loot:
      - item_type: wolf_pelt
        count: 1
  - template_id: vale_slime
    name: Vale Slime
    max_hp: 12
    xp_value: 6
`)
	tbl, err := LoadEnemyTable(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if tbl.Count() != 2 {
		t.Fatalf("count = %d", tbl.Count())
	}
	wolf := tbl.Get("ember_wolf")
	if wolf == nil || wolf.MaxHP != 40 || wolf.XPValue != 25 {
		t.Fatalf("wolf = %+v", wolf)
	}
	if len(wolf.Loot) != 1 || wolf.Loot[0].ItemType != "wolf_pelt" {
		t.Fatalf("wolf loot = %+v", wolf.Loot)
	}
	if tbl.Get("nope") != nil {
		t.Fatalf("unknown template resolved")
	}
}

func TestLoadItemTableRequiresOneDefault(t *testing.T) {
	none := writeTemp(t, "none.yaml", `
items:
  - item_type: wolf_pelt
    name: Wolf Pelt
`)
	if _, err := LoadItemTable(none); err == nil {
		t.Fatalf("expected error for missing default")
	}

	two := writeTemp(t, "two.yaml", `
items:
  - item_type: a
    name: A
    default: true
  - item_type: b
    name: B
    default: true
`)
	if _, err := LoadItemTable(two); err == nil {
		t.Fatalf("expected error for two defaults")
	}

	good := writeTemp(t, "good.yaml", `
items:
  - item_type: copper_coin
    name: Copper Coin
    default: true
  - item_type: wolf_pelt
    name: Wolf Pelt
`)
	tbl, err := LoadItemTable(good)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if tbl.Fallback().ItemType != "copper_coin" {
		t.Fatalf("fallback = %+v", tbl.Fallback())
	}
}

func TestLoadSpawnList(t *testing.T) {
	path := writeTemp(t, "spawn_list.yaml", `
spawns:
  - template_id: ember_wolf
    area_id: ashfall-plains
    x: 120
    y: 88
    count: 3
  - template_id: vale_slime
    area_id: green-vale
    x: 20
    y: 20
`)
	spawns, err := LoadSpawnList(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(spawns) != 2 {
		t.Fatalf("entries = %d", len(spawns))
	}
	if spawns[0].Count != 3 {
		t.Fatalf("count = %d", spawns[0].Count)
	}
	// Missing count defaults to 1.
	if spawns[1].Count != 1 {
		t.Fatalf("defaulted count = %d", spawns[1].Count)
	}

	bad := writeTemp(t, "bad.yaml", `
spawns:
  - template_id: ember_wolf
    x: 1
    y: 1
`)
	if _, err := LoadSpawnList(bad); err == nil {
		t.Fatalf("expected error for missing area_id")
	}
}
