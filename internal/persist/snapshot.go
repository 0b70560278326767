package persist

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"
)

// WriteSnapshot dumps a point-in-time export of the entity store to a
// zstd-compressed JSON file under dir, for postmortem inspection after
// a shutdown. Returns the written path.
func WriteSnapshot(dir string, rows map[string]any) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("snapshot dir: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("store-%s.json.zst", time.Now().UTC().Format("20060102T150405Z")))

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("snapshot create: %w", err)
	}
	defer f.Close()

	zw, err := zstd.NewWriter(f)
	if err != nil {
		return "", fmt.Errorf("snapshot zstd: %w", err)
	}

	enc := json.NewEncoder(zw)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rows); err != nil {
		zw.Close()
		return "", fmt.Errorf("snapshot encode: %w", err)
	}
	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("snapshot flush: %w", err)
	}
	return path, nil
}
