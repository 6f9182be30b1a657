package normalize

import (
	"sort"
	"strconv"

	"github.com/davedean/lidmeta/internal/models"
)

// ReleaseDate normalizes a first-release-date or release date string per
// spec.md §4.5.2: 4 chars -> YYYY-01-01, 7 chars -> YYYY-MM-01, 10 chars
// unchanged, empty stays empty. Any other length is returned unchanged;
// the upstream dump does not produce other lengths for this field.
func ReleaseDate(date string) string {
	switch len(date) {
	case 4:
		return date + "-01-01"
	case 7:
		return date + "-01"
	default:
		return date
	}
}

// Album builds the normalized album document for a release-group, given
// its already-normalized artist document (embedded per §4.5.2's "artists"
// field) and the releases loaded for it, if any. When releases is empty,
// a placeholder release is emitted instead (spec.md §4.5.2).
func Album(rg models.ReleaseGroupRecord, artist models.ArtistDocument, releases []models.ReleaseRecord) models.AlbumDocument {
	albumType := rg.PrimaryType
	if albumType == "" {
		albumType = "Album"
	}

	var rating models.RatingOut
	if rg.Rating != nil {
		rating = models.RatingOut{Count: rg.Rating.VotesCount, Value: rg.Rating.Value}
	}

	genres := tagNames(rg.Genres)
	if len(genres) == 0 {
		genres = tagNames(rg.Tags)
	}

	var releaseOuts []models.ReleaseOut
	if len(releases) == 0 {
		releaseOuts = []models.ReleaseOut{placeholderRelease(rg.ID)}
	} else {
		releaseOuts = make([]models.ReleaseOut, 0, len(releases))
		for _, rel := range releases {
			releaseOuts = append(releaseOuts, normalizeRelease(rel, artist.ID))
		}
	}

	return models.AlbumDocument{
		ID:             rg.ID,
		Title:          rg.Title,
		ArtistID:       artist.ID,
		Type:           albumType,
		Disambiguation: rg.Disambiguation,
		Overview:       "",
		ReleaseDate:    ReleaseDate(rg.FirstReleaseDate),
		Rating:         rating,
		Genres:         genres,
		SecondaryTypes: rg.SecondaryTypes,
		Artists:        []models.ArtistDocument{artist},
		Images:         []string{},
		Links:          []models.LinkOut{},
		Aliases:        []string{},
		OldIDs:         []string{},
		Releases:       releaseOuts,
	}
}

// Summary builds the per-artist album-index entry for a normalized album,
// per spec.md §4.5.1's Albums field.
func Summary(rg models.ReleaseGroupRecord, album models.AlbumDocument) models.AlbumSummary {
	return models.AlbumSummary{
		Id:              rg.ID,
		Title:           rg.Title,
		Type:            album.Type,
		SecondaryTypes:  rg.SecondaryTypes,
		ReleaseStatuses: releaseStatuses(album.Releases),
		OldIds:          []string{},
	}
}

// releaseStatuses returns the sorted distinct set of statuses across an
// album's releases; ["Official"] when the only release is the
// placeholder (which itself carries status "Official").
func releaseStatuses(releases []models.ReleaseOut) []string {
	seen := make(map[string]struct{})
	for _, r := range releases {
		if r.Status == "" {
			continue
		}
		seen[r.Status] = struct{}{}
	}
	if len(seen) == 0 {
		return []string{"Official"}
	}
	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func placeholderRelease(releaseGroupID string) models.ReleaseOut {
	return models.ReleaseOut{
		ID:     releaseGroupID,
		Title:  "",
		Status: "Official",
		Media: []models.MediumOut{
			{Format: "CD", Name: "", Position: 1},
		},
		TrackCount: 1,
		Tracks: []models.TrackOut{
			{
				TrackName:       "Track 1",
				TrackNumber:     "1",
				TrackPosition:   1,
				DurationMS:      0,
				RecordingID:     "",
				MediumNumber:    1,
				OldIDs:          []string{},
				OldRecordingIDs: []string{},
			},
		},
	}
}

func normalizeRelease(rel models.ReleaseRecord, albumArtistID string) models.ReleaseOut {
	var media []models.MediumOut
	var tracks []models.TrackOut
	trackCount := 0

	for _, m := range rel.Media {
		media = append(media, models.MediumOut{
			Format:   m.Format,
			Name:     "",
			Position: m.Position,
		})
		for _, t := range m.Tracks {
			tracks = append(tracks, normalizeTrack(t, m.Position, albumArtistID))
			trackCount++
		}
	}

	return models.ReleaseOut{
		ID:          rel.ID,
		Title:       rel.Title,
		Status:      rel.Status,
		ReleaseDate: ReleaseDate(rel.Date),
		Country:     []string(rel.Country),
		Label:       rel.Labels,
		Media:       media,
		TrackCount:  trackCount,
		Tracks:      tracks,
	}
}

// normalizeTrack accepts both MusicBrainz track shapes via Track's
// EffectiveX accessors, per spec.md §4.5.2. artistID falls back to the
// album's artist when the track carries no artist-credit of its own.
func normalizeTrack(t models.Track, mediumPosition int, albumArtistID string) models.TrackOut {
	number := t.Number
	if number == "" && t.Position != 0 {
		number = strconv.Itoa(t.Position)
	}

	artistID := t.EffectiveArtistID()
	if artistID == "" {
		artistID = albumArtistID
	}

	medium := t.MediumPosition
	if medium == 0 {
		medium = mediumPosition
	}

	return models.TrackOut{
		ID:              t.ID,
		TrackName:       t.Title,
		TrackNumber:     number,
		TrackPosition:   t.Position,
		DurationMS:      t.Length,
		ArtistID:        artistID,
		RecordingID:     t.EffectiveRecordingID(),
		MediumNumber:    medium,
		OldIDs:          []string{},
		OldRecordingIDs: []string{},
	}
}
