package world

import (
	"fmt"

	"github.com/embervale/server/internal/data"
	"github.com/embervale/server/internal/store"
	"go.uber.org/zap"
)

// SpawnAll creates enemy records from the spawn list and writes them to
// the store. Creation goes through Put so the store's create hooks fire
// — the normalizer inspects every spawn, trusted boot path included.
func SpawnAll(st *store.Store, enemies *data.EnemyTable, spawns []data.SpawnEntry, log *zap.Logger) int {
	total := 0
	for _, spawn := range spawns {
		tmpl := enemies.Get(spawn.TemplateID)
		if tmpl == nil {
			log.Warn("spawn: unknown enemy template", zap.String("template_id", spawn.TemplateID))
			continue
		}
		for i := 0; i < spawn.Count; i++ {
			id := spawn.TemplateID
			if spawn.Count > 1 {
				id = fmt.Sprintf("%s-%d", spawn.TemplateID, i+1)
			}
			enemy := &Enemy{
				ID:           id,
				TemplateID:   tmpl.TemplateID,
				AreaID:       spawn.AreaID,
				X:            spawn.X,
				Y:            spawn.Y,
				HP:           tmpl.MaxHP,
				MaxHP:        tmpl.MaxHP,
				XPValue:      tmpl.XPValue,
				Contributors: make(map[string]int64),
				Loot:         lootFromTemplate(tmpl),
			}
			st.Put(EnemyKey(spawn.AreaID, id), enemy)
			total++
		}
	}
	return total
}

func lootFromTemplate(tmpl *data.EnemyTemplate) []LootEntry {
	if len(tmpl.Loot) == 0 {
		return nil
	}
	loot := make([]LootEntry, len(tmpl.Loot))
	for i, d := range tmpl.Loot {
		loot[i] = LootEntry{ItemType: d.ItemType, Count: d.Count}
	}
	return loot
}
