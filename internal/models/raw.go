// Package models defines the on-disk and in-memory shapes that flow through
// the ingest pipeline: raw MusicBrainz dump records, the minimal projection
// C2 writes out, and the normalized documents C5/C6 produce.
package models

// RawArtist is the shape of one line of the artist NDJSON dump, as published
// by MusicBrainz. Only the fields the schema filter projects are declared;
// everything else present in the dump is ignored by the decoder.
type RawArtist struct {
	ID             string        `json:"id"`
	Name           string        `json:"name"`
	SortName       string        `json:"sort-name"`
	Type           string        `json:"type"`
	Disambiguation string        `json:"disambiguation"`
	LifeSpan       *RawLifeSpan  `json:"life-span"`
	Country        string        `json:"country"`
	Gender         string        `json:"gender"`
	Area           *RawArea      `json:"area"`
	Aliases        []RawAlias    `json:"aliases"`
	Tags           []RawTag      `json:"tags"`
	Genres         []RawTag      `json:"genres"`
	Relations      []RawRelation `json:"relations"`
	Rating         *RawRating    `json:"rating"`
}

type RawLifeSpan struct {
	Ended bool `json:"ended"`
}

type RawArea struct {
	Name string `json:"name"`
}

type RawAlias struct {
	Name string `json:"name"`
}

type RawTag struct {
	Name string `json:"name"`
}

type RawRelation struct {
	Type string    `json:"type"`
	URL  *RawURL   `json:"url"`
}

type RawURL struct {
	Resource string `json:"resource"`
}

// RawRating mirrors spec.md §6's literal field name. Real MusicBrainz
// dumps use "vote-count" (singular) here. C2 copies VotesCount into the
// filtered record and C5 uses it as the document's rating count.
type RawRating struct {
	VotesCount int     `json:"votes-count"`
	Value      float64 `json:"value"`
}

// RawReleaseGroup is the shape of one line of the release-group NDJSON dump.
type RawReleaseGroup struct {
	ID               string            `json:"id"`
	Title            string            `json:"title"`
	PrimaryType      string            `json:"primary-type"`
	SecondaryTypes   []string          `json:"secondary-types"`
	FirstReleaseDate string            `json:"first-release-date"`
	Disambiguation   string            `json:"disambiguation"`
	ArtistCredit     []RawArtistCredit `json:"artist-credit"`
	Tags             []RawTag          `json:"tags"`
	Genres           []RawTag          `json:"genres"`
	Rating           *RawRating        `json:"rating"`
}

type RawArtistCredit struct {
	Name   string          `json:"name"`
	Artist *RawCreditTarget `json:"artist"`
}

type RawCreditTarget struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// RawRelease is the shape of one line of the release NDJSON dump.
type RawRelease struct {
	ID             string            `json:"id"`
	Title          string            `json:"title"`
	Status         string            `json:"status"`
	Date           string            `json:"date"`
	Country        StringOrList      `json:"country"`
	Disambiguation string            `json:"disambiguation"`
	ReleaseGroup   *RawCreditTarget  `json:"release-group"`
	LabelInfo      []RawLabelInfo    `json:"label-info"`
	Media          []RawMedium       `json:"media"`
}

type RawLabelInfo struct {
	Label *RawCreditTarget `json:"label"`
}

type RawMedium struct {
	Position   int        `json:"position"`
	Format     string     `json:"format"`
	TrackCount int        `json:"track-count"`
	Tracks     []RawTrack `json:"tracks"`
}

type RawTrack struct {
	ID           string            `json:"id"`
	Title        string            `json:"title"`
	Number       string            `json:"number"`
	Position     int               `json:"position"`
	Length       int64             `json:"length"`
	Recording    *RawCreditTarget  `json:"recording"`
	ArtistCredit []RawArtistCredit `json:"artist-credit"`
}
