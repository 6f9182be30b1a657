// Package interfaces collects the seams between pipeline stages so each
// package can be built and tested against a narrow contract instead of a
// concrete storage engine.
package interfaces

import (
	"context"

	"github.com/davedean/lidmeta/internal/models"
)

// OffsetIndex maps an MBID to the byte offset of its line in a filtered
// file. Implementations must support O(log N) or better lookup and be safe
// for concurrent read-only use.
type OffsetIndex interface {
	Lookup(mbid string) (offset int64, found bool)
	Put(mbid string, offset int64) error
	Count() int
	Close() error
}

// JoinIndex maps an upstream MBID to the ordered list of downstream MBIDs
// referencing it (artist -> release-groups, or release-group -> releases).
type JoinIndex interface {
	Append(upstream, downstream string) error
	Get(upstream string) ([]string, bool)
	Close() error
}

// ManifestStore persists and retrieves per-stage source manifests, used to
// decide whether a stage can skip rebuilding.
type ManifestStore interface {
	Read(stage string) (models.Manifest, bool, error)
	Write(stage string, m models.Manifest) error
}

// DocumentStore is the sharded-write side C6 exposes to C5, and the
// sharded-read side C7 uses to load artist documents by MBID.
type DocumentStore interface {
	WriteArtist(doc models.ArtistDocument) error
	WriteAlbum(doc models.AlbumDocument) error
	ArtistExists(mbid string) bool
	AlbumExists(mbid string) bool
	ReadArtist(mbid string) (models.ArtistDocument, error)
	ReadAlbum(mbid string) (models.AlbumDocument, error)
}

// FTSWriter is the single-writer seam C4's build pass writes through; C5
// holds no handle to it. All row inserts are serialized behind it per
// spec.md §5.
type FTSWriter interface {
	InsertArtistRow(row FTSRow) error
	Compact() error
	Close() error
}

// FTSRow is one row of the artist full-text index.
type FTSRow struct {
	ID               string
	Name             string
	SortName         string
	FoldedName       string
	PhoneticPrimary  string
	PhoneticSecondary string
}

// FTSCandidate is a single match returned by an FTS query, prior to
// application of the ranking boosts.
type FTSCandidate struct {
	ID               string
	Name             string
	FoldedName       string
	PhoneticPrimary  string
	PhoneticSecondary string
	Rank             float64
}

// FTSReader is the read-only seam C7 queries against.
type FTSReader interface {
	Query(ctx context.Context, query string, limit int) ([]FTSCandidate, error)
	AllForFuzzy(ctx context.Context, anchor string, phoneticPrimary string, cap int) ([]FTSCandidate, error)
	Close() error
}

// SearchService is the public C7 contract consumed by the HTTP handlers.
type SearchService interface {
	Search(ctx context.Context, clientKey, query string, limit int) ([]SearchResult, error)
	Stats(ctx context.Context) (Stats, error)
	Health(ctx context.Context) Health
}

type SearchResult struct {
	Artist models.ArtistDocument `json:"artist"`
	Album  interface{}           `json:"album"`
	Score  float64               `json:"score"`
}

type Stats struct {
	SearchIndexes map[string]int64      `json:"search_indexes"`
	TotalSizeMB   float64               `json:"total_size_mb"`
	Metrics       map[string]int64      `json:"metrics"`
	Config        map[string]interface{} `json:"config"`
}

type Health struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Timestamp string `json:"timestamp"`
}
