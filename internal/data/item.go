package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ItemTemplate describes one item type.
type ItemTemplate struct {
	ItemType string `yaml:"item_type"`
	Name     string `yaml:"name"`
	// Default marks the fallback drop used when a dead enemy carries no
	// loot table. Exactly one template may set it.
	Default bool `yaml:"default"`
}

type itemListFile struct {
	Items []ItemTemplate `yaml:"items"`
}

// ItemTable holds all item templates indexed by item type.
type ItemTable struct {
	items    map[string]*ItemTemplate
	fallback *ItemTemplate
}

func (t *ItemTable) Get(itemType string) *ItemTemplate {
	return t.items[itemType]
}

// Fallback returns the default drop template.
func (t *ItemTable) Fallback() *ItemTemplate {
	return t.fallback
}

func (t *ItemTable) Count() int {
	return len(t.items)
}

// LoadItemTable loads item templates from a YAML file.
func LoadItemTable(path string) (*ItemTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read item_list: %w", err)
	}
	var f itemListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse item_list: %w", err)
	}
	t := &ItemTable{items: make(map[string]*ItemTemplate, len(f.Items))}
	for i := range f.Items {
		tmpl := &f.Items[i]
		if tmpl.ItemType == "" {
			return nil, fmt.Errorf("item_list: entry %d missing item_type", i)
		}
		t.items[tmpl.ItemType] = tmpl
		if tmpl.Default {
			if t.fallback != nil {
				return nil, fmt.Errorf("item_list: both %s and %s marked default", t.fallback.ItemType, tmpl.ItemType)
			}
			t.fallback = tmpl
		}
	}
	if t.fallback == nil {
		return nil, fmt.Errorf("item_list: no template marked default")
	}
	return t, nil
}
