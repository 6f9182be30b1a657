// Package manifest implements the per-stage source manifests that decide
// whether a stage can skip rebuilding: one small JSON file per stage
// recording the inputs it last consumed. Only the C2 filter stages consult
// them; the index, FTS and normalize stages have no manifest check.
package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/davedean/lidmeta/internal/models"
)

// Store reads and writes stage manifests as JSON files under a single
// directory, one file per stage.
type Store struct {
	dir string
}

func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create manifest dir %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) path(stage string) string {
	return filepath.Join(s.dir, stage+".manifest.json")
}

// Read loads the manifest for stage, if one exists.
func (s *Store) Read(stage string) (models.Manifest, bool, error) {
	data, err := os.ReadFile(s.path(stage))
	if err != nil {
		if os.IsNotExist(err) {
			return models.Manifest{}, false, nil
		}
		return models.Manifest{}, false, fmt.Errorf("read manifest %s: %w", stage, err)
	}
	var m models.Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return models.Manifest{}, false, fmt.Errorf("parse manifest %s: %w", stage, err)
	}
	return m, true, nil
}

// Write persists m for stage atomically: write-temp, fsync, rename. Per
// spec.md §3, the manifest must be the last thing a stage writes.
func (s *Store) Write(stage string, m models.Manifest) error {
	m.Stage = stage
	data, err := json.MarshalIndent(&m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest %s: %w", stage, err)
	}

	dest := s.path(stage)
	tmp := dest + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("create temp manifest %s: %w", tmp, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("write temp manifest %s: %w", tmp, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("fsync temp manifest %s: %w", tmp, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close temp manifest %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, dest); err != nil {
		return fmt.Errorf("rename manifest %s: %w", tmp, err)
	}
	return nil
}

// StatSources computes the SourceStat list for a set of input paths, for
// comparison against a previously written manifest.
func StatSources(paths ...string) ([]models.SourceStat, error) {
	stats := make([]models.SourceStat, 0, len(paths))
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("stat source %s: %w", p, err)
		}
		stats = append(stats, models.SourceStat{
			Path:    p,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}
	return stats, nil
}

// UpToDate reports whether a stage can be skipped: its manifest exists and
// matches the current sources and build flags exactly.
func UpToDate(store *Store, stage string, sources []models.SourceStat, flags map[string]string) (bool, error) {
	existing, found, err := store.Read(stage)
	if err != nil {
		return false, err
	}
	if !found {
		return false, nil
	}
	candidate := models.Manifest{
		Stage:      stage,
		Sources:    sources,
		BuildFlags: flags,
	}
	return existing.Matches(candidate), nil
}

// NewCompletedManifest builds the manifest a stage writes on success.
func NewCompletedManifest(stage string, sources []models.SourceStat, flags map[string]string, recordCount int64) models.Manifest {
	return models.Manifest{
		Stage:       stage,
		Sources:     sources,
		BuildFlags:  flags,
		CompletedAt: time.Now(),
		RecordCount: recordCount,
	}
}
