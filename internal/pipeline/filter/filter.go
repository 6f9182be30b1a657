// Package filter implements C2: a streaming, schema-guided projection of
// each MusicBrainz NDJSON dump down to the minimal field set the
// normalizer needs (spec.md §4.2, §6).
//
// Each of Artists, ReleaseGroups and Releases is a pure projection: every field it copies is
// copied verbatim, never invented or re-encoded. Lines that fail to parse
// as JSON are counted and skipped; the caller decides whether the failure
// ratio is acceptable.
package filter

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"github.com/davedean/lidmeta/internal/models"
)

// Result reports what one filter pass did, for manifest recording and the
// count-preservation test property.
type Result struct {
	InputLines   int64
	OutputLines  int64
	InvalidLines int64
}

// InvalidRatio returns the fraction of input lines that failed to parse.
func (r Result) InvalidRatio() float64 {
	if r.InputLines == 0 {
		return 0
	}
	return float64(r.InvalidLines) / float64(r.InputLines)
}

const maxLineBuffer = 16 * 1024 * 1024

func newLineScanner(r io.Reader) *bufio.Scanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBuffer)
	return sc
}

// Artists projects the raw artist dump (one JSON object per line) to the
// filtered artist shape. Fields are dropped by the standard library's
// `omitempty` rule, the same rule the release-group filter uses: nil
// values, empty strings and empty arrays are all left out of the JSON this
// package produces, so empty arrays are not preserved — see DESIGN.md
// "Known simplifications".
func Artists(r io.Reader, w io.Writer) (Result, error) {
	sc := newLineScanner(r)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	var res Result
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		res.InputLines++

		var raw models.RawArtist
		if err := json.Unmarshal(line, &raw); err != nil {
			res.InvalidLines++
			continue
		}
		if raw.ID == "" {
			res.InvalidLines++
			continue
		}

		out := models.ArtistRecord{
			ID:             raw.ID,
			Name:           raw.Name,
			SortName:       raw.SortName,
			Type:           raw.Type,
			Disambiguation: raw.Disambiguation,
			Country:        raw.Country,
			Gender:         raw.Gender,
			Rating:         projectRating(raw.Rating),
		}
		if raw.LifeSpan != nil {
			out.LifeSpan = &models.LifeSpan{Ended: raw.LifeSpan.Ended}
		}
		if raw.Area != nil {
			out.Area = &models.Area{Name: raw.Area.Name}
		}
		for _, a := range raw.Aliases {
			out.Aliases = append(out.Aliases, models.Alias{Name: a.Name})
		}
		for _, t := range raw.Tags {
			out.Tags = append(out.Tags, models.Tag{Name: t.Name})
		}
		for _, g := range raw.Genres {
			out.Genres = append(out.Genres, models.Tag{Name: g.Name})
		}
		for _, rel := range raw.Relations {
			if rel.URL == nil {
				continue
			}
			out.Relations = append(out.Relations, models.Relation{Type: rel.Type, URL: rel.URL.Resource})
		}

		if err := enc.Encode(&out); err != nil {
			return res, fmt.Errorf("write filtered artist %s: %w", raw.ID, err)
		}
		res.OutputLines++
	}
	if err := sc.Err(); err != nil {
		return res, fmt.Errorf("scan artist dump: %w", err)
	}
	return res, nil
}

// ReleaseGroups projects the raw release-group dump. Per spec.md §6, both
// None and [] are dropped here, which the zero-value + omitempty encoding
// below reproduces exactly (an empty slice and a nil slice both marshal to
// an absent key).
func ReleaseGroups(r io.Reader, w io.Writer) (Result, error) {
	sc := newLineScanner(r)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	var res Result
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		res.InputLines++

		var raw models.RawReleaseGroup
		if err := json.Unmarshal(line, &raw); err != nil {
			res.InvalidLines++
			continue
		}
		if raw.ID == "" {
			res.InvalidLines++
			continue
		}

		out := models.ReleaseGroupRecord{
			ID:               raw.ID,
			Title:            raw.Title,
			PrimaryType:      raw.PrimaryType,
			SecondaryTypes:   raw.SecondaryTypes,
			FirstReleaseDate: raw.FirstReleaseDate,
			Disambiguation:   raw.Disambiguation,
			Rating:           projectRating(raw.Rating),
		}
		for _, ac := range raw.ArtistCredit {
			credit := models.ArtistCredit{Name: ac.Name}
			if ac.Artist != nil {
				credit.Artist = &models.CreditTarget{ID: ac.Artist.ID, Name: ac.Artist.Name}
			}
			out.ArtistCredit = append(out.ArtistCredit, credit)
		}
		for _, t := range raw.Tags {
			out.Tags = append(out.Tags, models.Tag{Name: t.Name})
		}
		for _, g := range raw.Genres {
			out.Genres = append(out.Genres, models.Tag{Name: g.Name})
		}

		if err := enc.Encode(&out); err != nil {
			return res, fmt.Errorf("write filtered release-group %s: %w", raw.ID, err)
		}
		res.OutputLines++
	}
	if err := sc.Err(); err != nil {
		return res, fmt.Errorf("scan release-group dump: %w", err)
	}
	return res, nil
}

// Releases projects the raw release dump (read from a stream, never a
// materialized decompressed file — the caller passes the xz/tar member
// reader directly). As in Artists, nil values, empty strings and empty
// arrays are all dropped by `omitempty`.
func Releases(r io.Reader, w io.Writer) (Result, error) {
	sc := newLineScanner(r)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	var res Result
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		res.InputLines++

		var raw models.RawRelease
		if err := json.Unmarshal(line, &raw); err != nil {
			res.InvalidLines++
			continue
		}
		if raw.ID == "" {
			res.InvalidLines++
			continue
		}

		out := models.ReleaseRecord{
			ID:             raw.ID,
			Title:          raw.Title,
			Status:         raw.Status,
			Date:           raw.Date,
			Country:        raw.Country,
			Disambiguation: raw.Disambiguation,
		}
		if raw.ReleaseGroup != nil {
			out.ReleaseGroupID = raw.ReleaseGroup.ID
		}
		for _, li := range raw.LabelInfo {
			if li.Label != nil && li.Label.Name != "" {
				out.Labels = append(out.Labels, li.Label.Name)
			}
		}
		for _, m := range raw.Media {
			medium := models.Medium{Position: m.Position, Format: m.Format, TrackCount: m.TrackCount}
			for _, t := range m.Tracks {
				track := models.Track{
					ID:             t.ID,
					Title:          t.Title,
					Number:         t.Number,
					Position:       t.Position,
					Length:         t.Length,
					MediumPosition: m.Position,
				}
				if t.Recording != nil {
					track.RecordingID = t.Recording.ID
				}
				if len(t.ArtistCredit) > 0 && t.ArtistCredit[0].Artist != nil {
					track.ArtistID = t.ArtistCredit[0].Artist.ID
				}
				medium.Tracks = append(medium.Tracks, track)
			}
			out.Media = append(out.Media, medium)
		}

		if err := enc.Encode(&out); err != nil {
			return res, fmt.Errorf("write filtered release %s: %w", raw.ID, err)
		}
		res.OutputLines++
	}
	if err := sc.Err(); err != nil {
		return res, fmt.Errorf("scan release stream: %w", err)
	}
	return res, nil
}

func projectRating(r *models.RawRating) *models.Rating {
	if r == nil {
		return nil
	}
	return &models.Rating{VotesCount: r.VotesCount, Value: r.Value}
}
