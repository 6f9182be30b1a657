package main

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"path/filepath"

	"github.com/ternarybob/arbor"

	"github.com/davedean/lidmeta/internal/common"
	"github.com/davedean/lidmeta/internal/pipeline/index"
	"github.com/davedean/lidmeta/internal/pipeline/seekfile"
)

const inspectSampleSize = 5

// runInspect prints offset-index/join-index cardinality and samples a
// handful of MBID->offset round trips, exercising the offset round-trip
// property at runtime rather than only in tests. Replaces the original
// tooling's inspect_index.py.
func runInspect(cfg *common.Config, logger arbor.ILogger) error {
	artistOffsets, err := index.OpenOffsetIndex(filepath.Join(cfg.Storage.IndexPath, "artist-offsets"))
	if err != nil {
		return fmt.Errorf("open artist offset index: %w", err)
	}
	defer artistOffsets.Close()

	rgOffsets, err := index.OpenOffsetIndex(filepath.Join(cfg.Storage.IndexPath, "rg-offsets"))
	if err != nil {
		return fmt.Errorf("open release-group offset index: %w", err)
	}
	defer rgOffsets.Close()

	artistToRG, err := index.OpenJoinIndex(filepath.Join(cfg.Storage.IndexPath, "artist-to-rg"))
	if err != nil {
		return fmt.Errorf("open artist-to-rg join index: %w", err)
	}
	defer artistToRG.Close()

	fmt.Printf("artist offsets:       %d\n", artistOffsets.Count())
	fmt.Printf("release-group offsets: %d\n", rgOffsets.Count())

	if cfg.Build.UseFullReleaseData {
		releaseOffsets, err := index.OpenOffsetIndex(filepath.Join(cfg.Storage.IndexPath, "release-offsets"))
		if err != nil {
			return fmt.Errorf("open release offset index: %w", err)
		}
		defer releaseOffsets.Close()
		fmt.Printf("release offsets:      %d\n", releaseOffsets.Count())
	}

	logger.Info().Int("artist_offsets", artistOffsets.Count()).Int("rg_offsets", rgOffsets.Count()).Msg("inspect summary")

	artistFiltered := filepath.Join(cfg.Storage.FilteredDir, "artist.ndjson")
	return sampleRoundTrips(artistOffsets, artistFiltered)
}

// sampleRoundTrips picks up to inspectSampleSize random MBIDs from
// offsets, seek-reads each one's line, and reports whether the line's own
// id field matches the MBID that was looked up.
func sampleRoundTrips(offsets *index.OffsetIndex, filteredPath string) error {
	keys, err := offsets.Keys()
	if err != nil {
		return fmt.Errorf("list offset keys: %w", err)
	}
	if len(keys) == 0 {
		fmt.Println("no artist offsets to sample")
		return nil
	}

	reader, err := seekfile.Open(filteredPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", filteredPath, err)
	}
	defer reader.Close()

	n := inspectSampleSize
	if n > len(keys) {
		n = len(keys)
	}

	fmt.Printf("\nsample round trips (%d of %d):\n", n, len(keys))
	for i := 0; i < n; i++ {
		mbid := keys[rand.Intn(len(keys))]
		offset, found := offsets.Lookup(mbid)
		if !found {
			fmt.Printf("  %s: MISSING\n", mbid)
			continue
		}
		line, err := reader.ReadLineAt(offset)
		if err != nil {
			fmt.Printf("  %s: read error: %v\n", mbid, err)
			continue
		}
		ok := lineHasID(line, mbid)
		status := "ok"
		if !ok {
			status = "MISMATCH"
		}
		fmt.Printf("  %s @ %d: %s\n", mbid, offset, status)
	}
	return nil
}

func lineHasID(line []byte, mbid string) bool {
	var rec struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(line, &rec); err != nil {
		return false
	}
	return rec.ID == mbid
}
