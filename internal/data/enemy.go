package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LootDef is one drop entry on an enemy template.
type LootDef struct {
	ItemType string `yaml:"item_type"`
	Count    int64  `yaml:"count"`
}

// EnemyTemplate describes one kind of enemy.
type EnemyTemplate struct {
	TemplateID string    `yaml:"template_id"`
	Name       string    `yaml:"name"`
	MaxHP      int64     `yaml:"max_hp"`
	XPValue    int64     `yaml:"xp_value"`
	Loot       []LootDef `yaml:"loot"`
}

type enemyListFile struct {
	Enemies []EnemyTemplate `yaml:"enemies"`
}

// EnemyTable holds all enemy templates indexed by template id.
type EnemyTable struct {
	templates map[string]*EnemyTemplate
}

func (t *EnemyTable) Get(templateID string) *EnemyTemplate {
	return t.templates[templateID]
}

func (t *EnemyTable) Count() int {
	return len(t.templates)
}

// LoadEnemyTable loads enemy templates from a YAML file.
func LoadEnemyTable(path string) (*EnemyTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read enemy_list: %w", err)
	}
	var f enemyListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse enemy_list: %w", err)
	}
	t := &EnemyTable{templates: make(map[string]*EnemyTemplate, len(f.Enemies))}
	for i := range f.Enemies {
		tmpl := &f.Enemies[i]
		if tmpl.TemplateID == "" {
			return nil, fmt.Errorf("enemy_list: entry %d missing template_id", i)
		}
		if tmpl.MaxHP <= 0 {
			return nil, fmt.Errorf("enemy_list: template %s has max_hp %d", tmpl.TemplateID, tmpl.MaxHP)
		}
		t.templates[tmpl.TemplateID] = tmpl
	}
	return t, nil
}
