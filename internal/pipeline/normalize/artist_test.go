package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/davedean/lidmeta/internal/models"
)

func TestArtistDefaultsTypeToUnknown(t *testing.T) {
	doc := Artist(models.ArtistRecord{ID: "a1", Name: "Nobody"})
	assert.Equal(t, "Unknown", doc.Type)
}

func TestArtistPreservesExplicitType(t *testing.T) {
	doc := Artist(models.ArtistRecord{ID: "a1", Name: "Band", Type: "Group"})
	assert.Equal(t, "Group", doc.Type)
}

func TestArtistStatusFromLifeSpan(t *testing.T) {
	ended := Artist(models.ArtistRecord{ID: "a1", LifeSpan: &models.LifeSpan{Ended: true}})
	assert.Equal(t, "ended", ended.Status)

	active := Artist(models.ArtistRecord{ID: "a2", LifeSpan: &models.LifeSpan{Ended: false}})
	assert.Equal(t, "active", active.Status)

	noLifeSpan := Artist(models.ArtistRecord{ID: "a3"})
	assert.Equal(t, "active", noLifeSpan.Status)
}

func TestArtistAreaEmptyWhenNil(t *testing.T) {
	doc := Artist(models.ArtistRecord{ID: "a1"})
	assert.Empty(t, doc.Area)

	doc = Artist(models.ArtistRecord{ID: "a1", Area: &models.Area{Name: "Berlin"}})
	assert.Equal(t, "Berlin", doc.Area)
}

func TestArtistGenresFallBackToTags(t *testing.T) {
	doc := Artist(models.ArtistRecord{
		ID:   "a1",
		Tags: []models.Tag{{Name: "rock"}, {Name: "indie"}},
	})
	assert.Equal(t, []string{"rock", "indie"}, doc.Tags)
	assert.Equal(t, []string{"rock", "indie"}, doc.Genres)
}

func TestArtistGenresKeptSeparateWhenPresent(t *testing.T) {
	doc := Artist(models.ArtistRecord{
		ID:     "a1",
		Tags:   []models.Tag{{Name: "rock"}},
		Genres: []models.Tag{{Name: "post-punk"}},
	})
	assert.Equal(t, []string{"rock"}, doc.Tags)
	assert.Equal(t, []string{"post-punk"}, doc.Genres)
}

func TestArtistRatingZeroValueWhenNil(t *testing.T) {
	doc := Artist(models.ArtistRecord{ID: "a1"})
	assert.Equal(t, models.RatingOut{}, doc.Rating)
}

func TestArtistRatingFromRecord(t *testing.T) {
	doc := Artist(models.ArtistRecord{ID: "a1", Rating: &models.Rating{VotesCount: 5, Value: 4.5}})
	assert.Equal(t, models.RatingOut{Count: 5, Value: 4.5}, doc.Rating)
}

func TestArtistLinksDropRelationsWithoutURL(t *testing.T) {
	doc := Artist(models.ArtistRecord{
		ID: "a1",
		Relations: []models.Relation{
			{Type: "official homepage", URL: "https://example.com"},
			{Type: "no url here"},
		},
	})
	assert.Equal(t, []models.LinkOut{{Type: "official homepage", Target: "https://example.com"}}, doc.Links)
}

func TestArtistImagesOldIDsAlbumsStartEmpty(t *testing.T) {
	doc := Artist(models.ArtistRecord{ID: "a1"})
	assert.Equal(t, []string{}, doc.Images)
	assert.Equal(t, []string{}, doc.OldIDs)
	assert.Equal(t, []models.AlbumSummary{}, doc.Albums)
}

func TestSortAlbumsOrdersByTitleAscending(t *testing.T) {
	albums := []models.AlbumSummary{
		{Title: "Zebra"},
		{Title: "Apple"},
		{Title: "Mango"},
	}
	SortAlbums(albums)
	assert.Equal(t, []string{"Apple", "Mango", "Zebra"}, []string{albums[0].Title, albums[1].Title, albums[2].Title})
}
