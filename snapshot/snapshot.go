// Package snapshot implements loading prior results and saving current
// results to disk, using a fixed {"timestamp", "results"} file shape.
package snapshot

import (
	"encoding/json"
	"os"
	"time"
)

// File is the on-disk snapshot shape.
type File struct {
	Timestamp string                 `json:"timestamp"`
	Results   map[string]interface{} `json:"results"`
}

// Load reads and parses the snapshot at path. A missing file is not an
// error: it simply means there is nothing to pre-populate.
func Load(path string) (*File, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, nil // an unparseable snapshot is treated as absent, never fatal
	}
	return &f, nil
}

// Save writes results to path with a fresh timestamp, unless
// snapshotRestoreTimestamp already matches the existing file's timestamp (in
// which case the write is skipped, matching util:snapshot's contract).
func Save(path string, results map[string]interface{}, snapshotRestoreTimestamp string) error {
	if snapshotRestoreTimestamp != "" {
		existing, err := Load(path)
		if err == nil && existing != nil && existing.Timestamp == snapshotRestoreTimestamp {
			return nil
		}
	}
	f := File{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Results:   results,
	}
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
