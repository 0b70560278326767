package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	if cfg.Game.ReleaseWindow != 5*time.Second {
		t.Fatalf("release window = %s", cfg.Game.ReleaseWindow)
	}
	if cfg.Game.ResolverWorkers < 1 {
		t.Fatalf("resolver workers = %d", cfg.Game.ResolverWorkers)
	}
	if cfg.Database.Enabled {
		t.Fatalf("database enabled by default")
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.toml")
	err := os.WriteFile(path, []byte(`
[server]
name = "Test"

[game]
release_window = "2s"
xp_rate = 1.5
`), 0o644)
	if err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Name != "Test" {
		t.Fatalf("name = %q", cfg.Server.Name)
	}
	if cfg.Game.ReleaseWindow != 2*time.Second {
		t.Fatalf("release window = %s", cfg.Game.ReleaseWindow)
	}
	if cfg.Game.XPRate != 1.5 {
		t.Fatalf("xp rate = %v", cfg.Game.XPRate)
	}
	// Untouched sections keep their defaults.
	if cfg.Network.TickRate != 200*time.Millisecond {
		t.Fatalf("tick rate = %s", cfg.Network.TickRate)
	}
	if cfg.Server.StartTime == 0 {
		t.Fatalf("start time not set")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
