package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// snapshotTimeLayout matches the timestamps embedded in snapshot names,
// e.g. horarios_dm_20250831_153000.json.
const snapshotTimeLayout = "20060102_150405"

// SaveDepartmentSnapshot writes the raw per-department scrape result as a
// timestamped JSON file and returns its path.
func SaveDepartmentSnapshot(dataDir, deptCode string, records []*CourseRecord) (string, error) {
	name := fmt.Sprintf("horarios_%s_%s.json",
		strings.ToLower(deptCode), time.Now().Format(snapshotTimeLayout))
	return writeSnapshot(dataDir, name, records)
}

// SaveUnifiedSnapshot writes the deduplicated course list as a timestamped
// JSON file and returns its path.
func SaveUnifiedSnapshot(dataDir string, records []*CourseRecord) (string, error) {
	name := fmt.Sprintf("materias_unificadas_%s.json", time.Now().Format(snapshotTimeLayout))
	return writeSnapshot(dataDir, name, records)
}

// LatestUnifiedSnapshot returns the newest unified snapshot path, or an
// empty string when none exists.
func LatestUnifiedSnapshot(dataDir string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dataDir, "materias_unificadas_*.json"))
	if err != nil {
		return "", fmt.Errorf("failed to glob snapshots: %w", err)
	}
	if len(matches) == 0 {
		return "", nil
	}
	sort.Strings(matches)
	return matches[len(matches)-1], nil
}

// LoadSnapshot reads course records back from a snapshot file.
func LoadSnapshot(path string) ([]*CourseRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot %s: %w", path, err)
	}

	var records []*CourseRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot %s: %w", path, err)
	}
	return records, nil
}

func writeSnapshot(dataDir, name string, records []*CourseRecord) (string, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode snapshot: %w", err)
	}

	path := filepath.Join(dataDir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write snapshot %s: %w", path, err)
	}
	return path, nil
}
