// Package normalize implements C5: per-artist normalization into the
// downstream artist/album document shapes, the release-date and
// placeholder-release rules, and the artist/release-group type filters.
package normalize

import (
	"sort"

	"github.com/davedean/lidmeta/internal/models"
)

// Artist builds the normalized artist document from a filtered artist
// record, per spec.md §4.5.1. Albums is left empty; the caller (Runner)
// fills it in once every release-group has been normalized, since album
// summaries require knowing which release-groups survived filtering.
func Artist(rec models.ArtistRecord) models.ArtistDocument {
	artistType := rec.Type
	if artistType == "" {
		artistType = "Unknown"
	}

	status := "active"
	if rec.LifeSpan != nil && rec.LifeSpan.Ended {
		status = "ended"
	}

	var area string
	if rec.Area != nil {
		area = rec.Area.Name
	}

	tags := tagNames(rec.Tags)
	genres := tagNames(rec.Genres)
	if len(genres) == 0 {
		genres = tags
	}

	var rating models.RatingOut
	if rec.Rating != nil {
		rating = models.RatingOut{Count: rec.Rating.VotesCount, Value: rec.Rating.Value}
	}

	return models.ArtistDocument{
		ID:             rec.ID,
		ArtistID:       rec.ID,
		ArtistName:     rec.Name,
		SortName:       rec.SortName,
		Disambiguation: rec.Disambiguation,
		Gender:         rec.Gender,
		Country:        rec.Country,
		Type:           artistType,
		Area:           area,
		Status:         status,
		ArtistAliases:  aliasNames(rec.Aliases),
		Tags:           tags,
		Rating:         rating,
		Genres:         genres,
		Links:          linksFromRelations(rec.Relations),
		Images:         []string{},
		OldIDs:         []string{},
		Overview:       "",
		Albums:         []models.AlbumSummary{},
	}
}

func aliasNames(aliases []models.Alias) []string {
	out := make([]string, 0, len(aliases))
	for _, a := range aliases {
		out = append(out, a.Name)
	}
	return out
}

func tagNames(tags []models.Tag) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		out = append(out, t.Name)
	}
	return out
}

// linksFromRelations keeps only relations that carry a URL, per spec.md
// §4.5.1 ("relations without a URL are dropped").
func linksFromRelations(relations []models.Relation) []models.LinkOut {
	out := make([]models.LinkOut, 0, len(relations))
	for _, r := range relations {
		if r.URL == "" {
			continue
		}
		out = append(out, models.LinkOut{Type: r.Type, Target: r.URL})
	}
	return out
}

// SortAlbums sorts an artist's album summaries ascending by Title, the
// invariant spec.md §8 tests directly.
func SortAlbums(albums []models.AlbumSummary) {
	sort.Slice(albums, func(i, j int) bool { return albums[i].Title < albums[j].Title })
}
