package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SpawnEntry places enemies of one template in an area at boot.
type SpawnEntry struct {
	TemplateID string `yaml:"template_id"`
	AreaID     string `yaml:"area_id"`
	X          int32  `yaml:"x"`
	Y          int32  `yaml:"y"`
	Count      int    `yaml:"count"`
}

type spawnListFile struct {
	Spawns []SpawnEntry `yaml:"spawns"`
}

// LoadSpawnList loads the boot spawn list from a YAML file.
func LoadSpawnList(path string) ([]SpawnEntry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read spawn_list: %w", err)
	}
	var f spawnListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse spawn_list: %w", err)
	}
	for i := range f.Spawns {
		if f.Spawns[i].Count <= 0 {
			f.Spawns[i].Count = 1
		}
		if f.Spawns[i].AreaID == "" {
			return nil, fmt.Errorf("spawn_list: entry %d missing area_id", i)
		}
	}
	return f.Spawns, nil
}
