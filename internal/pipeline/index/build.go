package index

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"github.com/davedean/lidmeta/internal/models"
)

// Result reports how many lines a pass indexed.
type Result struct {
	Lines       int64
	JoinedCount int64
	MissingJoin int64
}

// forEachLine calls fn with the byte offset of each line's start and its
// raw bytes (without the trailing newline). It is the shared primitive
// behind all three C3 passes.
func forEachLine(r io.Reader, fn func(offset int64, line []byte) error) error {
	br := bufio.NewReaderSize(r, 1<<20)
	var offset int64
	for {
		line, err := br.ReadBytes('\n')
		lineOffset := offset
		offset += int64(len(line))

		trimmed := line
		if n := len(trimmed); n > 0 && trimmed[n-1] == '\n' {
			trimmed = trimmed[:n-1]
		}
		if len(trimmed) > 0 {
			if callErr := fn(lineOffset, trimmed); callErr != nil {
				return callErr
			}
		}

		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// BuildArtistOffsets runs pass 1: artist filtered file -> artist_to_byte_offset.
func BuildArtistOffsets(r io.Reader, offsets *OffsetIndex) (Result, error) {
	var res Result
	err := forEachLine(r, func(offset int64, line []byte) error {
		var rec struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(line, &rec); err != nil || rec.ID == "" {
			return nil
		}
		res.Lines++
		return offsets.Put(rec.ID, offset)
	})
	if err != nil {
		return res, fmt.Errorf("build artist offsets: %w", err)
	}
	return res, nil
}

// BuildReleaseGroupOffsets runs pass 2: release-group filtered file ->
// rg_to_byte_offset and artist_to_rg_ids. The join key is the first-position
// artist credit, per spec.md §4.3 and the Open Question resolution in
// DESIGN.md.
func BuildReleaseGroupOffsets(r io.Reader, offsets *OffsetIndex, artistToRG *JoinIndex) (Result, error) {
	var res Result
	err := forEachLine(r, func(offset int64, line []byte) error {
		var rec models.ReleaseGroupRecord
		if err := json.Unmarshal(line, &rec); err != nil || rec.ID == "" {
			return nil
		}
		res.Lines++
		if err := offsets.Put(rec.ID, offset); err != nil {
			return err
		}

		if len(rec.ArtistCredit) == 0 {
			res.MissingJoin++
			return nil
		}
		artistID := rec.ArtistCredit[0].EffectiveArtistID()
		if artistID == "" {
			res.MissingJoin++
			return nil
		}
		res.JoinedCount++
		return artistToRG.Append(artistID, rec.ID)
	})
	if err != nil {
		return res, fmt.Errorf("build release-group offsets: %w", err)
	}
	return res, nil
}

// BuildReleaseOffsets runs pass 3: release filtered file ->
// release_to_byte_offset and rg_to_release_ids. Tolerates both the nested
// and flat release-group reference shapes via ReleaseRecord's
// EffectiveReleaseGroupID; never guesses when both are absent.
func BuildReleaseOffsets(r io.Reader, offsets *OffsetIndex, rgToRelease *JoinIndex) (Result, error) {
	var res Result
	err := forEachLine(r, func(offset int64, line []byte) error {
		var rec models.ReleaseRecord
		if err := json.Unmarshal(line, &rec); err != nil || rec.ID == "" {
			return nil
		}
		res.Lines++
		if err := offsets.Put(rec.ID, offset); err != nil {
			return err
		}

		rgID := rec.EffectiveReleaseGroupID()
		if rgID == "" {
			res.MissingJoin++
			return nil
		}
		res.JoinedCount++
		return rgToRelease.Append(rgID, rec.ID)
	})
	if err != nil {
		return res, fmt.Errorf("build release offsets: %w", err)
	}
	return res, nil
}
