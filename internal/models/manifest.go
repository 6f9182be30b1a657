package models

import "time"

// SourceStat captures the identity of one input file a stage consumed, so a
// later run can decide whether that stage is still up to date.
type SourceStat struct {
	Path    string    `json:"path"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}

// Manifest records what a pipeline stage consumed and produced on its last
// successful run. Stored as JSON in the manifest directory; compared
// against a freshly computed Manifest before the next run to decide whether
// the stage can be skipped.
type Manifest struct {
	Stage        string            `json:"stage"`
	Sources      []SourceStat      `json:"sources"`
	BuildFlags   map[string]string `json:"build_flags,omitempty"`
	CompletedAt  time.Time         `json:"completed_at"`
	RecordCount  int64             `json:"record_count"`
}

// Matches reports whether other was produced from the same sources and
// flags as m, ignoring timestamps that only reflect when each run happened.
func (m Manifest) Matches(other Manifest) bool {
	if m.Stage != other.Stage {
		return false
	}
	if len(m.Sources) != len(other.Sources) {
		return false
	}
	for i, s := range m.Sources {
		o := other.Sources[i]
		if s.Path != o.Path || s.Size != o.Size || !s.ModTime.Equal(o.ModTime) {
			return false
		}
	}
	if len(m.BuildFlags) != len(other.BuildFlags) {
		return false
	}
	for k, v := range m.BuildFlags {
		if other.BuildFlags[k] != v {
			return false
		}
	}
	return true
}
