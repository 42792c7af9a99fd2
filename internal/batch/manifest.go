package batch

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// ManifestEntry records what was written for one input.
type ManifestEntry struct {
	Source  string   `json:"source"`
	Outputs []string `json:"outputs,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// WriteManifest writes one entry per result to path as indented JSON.
// Output paths are stored relative to the manifest's directory.
func WriteManifest(path string, results []Result[[]string]) error {
	dir := filepath.Dir(path)
	entries := make([]ManifestEntry, len(results))
	for i, r := range results {
		e := ManifestEntry{Source: r.Input}
		for _, out := range r.Value {
			if rel, err := filepath.Rel(dir, out); err == nil {
				out = filepath.ToSlash(rel)
			}
			e.Outputs = append(e.Outputs, out)
		}
		if r.Err != nil {
			e.Error = r.Err.Error()
		}
		entries[i] = e
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("batch: manifest: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("batch: manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("batch: manifest: %w", err)
	}
	return nil
}
