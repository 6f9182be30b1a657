package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/davedean/lidmeta/internal/models"
)

func TestReleaseDateNormalization(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"1977", "1977-01-01"},
		{"1977-06", "1977-06-01"},
		{"1977-06-10", "1977-06-10"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, ReleaseDate(c.in), "input %q", c.in)
	}
}

func TestAlbumDefaultsTypeToAlbum(t *testing.T) {
	doc := Album(models.ReleaseGroupRecord{ID: "rg1", Title: "Untitled"}, models.ArtistDocument{ID: "a1"}, nil)
	assert.Equal(t, "Album", doc.Type)
}

func TestAlbumUsesPlaceholderReleaseWhenNoneLoaded(t *testing.T) {
	doc := Album(models.ReleaseGroupRecord{ID: "rg1", Title: "Untitled"}, models.ArtistDocument{ID: "a1"}, nil)
	assert.Len(t, doc.Releases, 1)
	assert.Equal(t, "rg1", doc.Releases[0].ID)
	assert.Equal(t, "Official", doc.Releases[0].Status)
	assert.Len(t, doc.Releases[0].Tracks, 1)
	assert.Equal(t, "Track 1", doc.Releases[0].Tracks[0].TrackName)
}

func TestAlbumNormalizesLoadedReleases(t *testing.T) {
	releases := []models.ReleaseRecord{
		{
			ID:     "rel1",
			Title:  "Disc One",
			Status: "Official",
			Date:   "1999",
			Media: []models.Medium{
				{Position: 1, Format: "CD", Tracks: []models.Track{
					{Title: "Song A", Position: 1, Number: "1"},
				}},
			},
		},
	}
	doc := Album(models.ReleaseGroupRecord{ID: "rg1", Title: "Disc One"}, models.ArtistDocument{ID: "artist1"}, releases)
	assert.Len(t, doc.Releases, 1)
	assert.Equal(t, "1999-01-01", doc.Releases[0].ReleaseDate)
	assert.Equal(t, 1, doc.Releases[0].TrackCount)
	assert.Equal(t, "artist1", doc.Releases[0].Tracks[0].ArtistID)
}

func TestAlbumGenresFallBackToTags(t *testing.T) {
	doc := Album(models.ReleaseGroupRecord{
		ID:    "rg1",
		Title: "x",
		Tags:  []models.Tag{{Name: "shoegaze"}},
	}, models.ArtistDocument{ID: "a1"}, nil)
	assert.Equal(t, []string{"shoegaze"}, doc.Genres)
}

func TestReleaseStatusesDefaultsToOfficialWhenEmpty(t *testing.T) {
	assert.Equal(t, []string{"Official"}, releaseStatuses(nil))
}

func TestReleaseStatusesSortedDistinct(t *testing.T) {
	releases := []models.ReleaseOut{
		{Status: "Bootleg"},
		{Status: "Official"},
		{Status: "Official"},
	}
	assert.Equal(t, []string{"Bootleg", "Official"}, releaseStatuses(releases))
}

func TestNormalizeTrackFallsBackToAlbumArtist(t *testing.T) {
	track := models.Track{Title: "Song", Position: 1}
	out := normalizeTrack(track, 1, "album-artist-id")
	assert.Equal(t, "album-artist-id", out.ArtistID)
}

func TestNormalizeTrackPrefersOwnArtistCredit(t *testing.T) {
	track := models.Track{
		Title:        "Song",
		Position:     1,
		ArtistCredit: []models.ArtistCredit{{ArtistID: "track-artist-id"}},
	}
	out := normalizeTrack(track, 1, "album-artist-id")
	assert.Equal(t, "track-artist-id", out.ArtistID)
}

func TestNormalizeTrackNumberFallsBackToPosition(t *testing.T) {
	track := models.Track{Title: "Song", Position: 3}
	out := normalizeTrack(track, 1, "a1")
	assert.Equal(t, "3", out.TrackNumber)
}
