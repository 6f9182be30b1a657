package models

// ArtistRecord is the shape C2 writes for one artist line: the minimal
// projection of RawArtist needed by the offset indexer and the normalizer.
// Fields present in the upstream dump but not listed here are dropped by
// the filter, never round-tripped.
type ArtistRecord struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	SortName       string     `json:"sort-name,omitempty"`
	Type           string     `json:"type,omitempty"`
	Disambiguation string     `json:"disambiguation,omitempty"`
	LifeSpan       *LifeSpan  `json:"life-span,omitempty"`
	Country        string     `json:"country,omitempty"`
	Gender         string     `json:"gender,omitempty"`
	Area           *Area      `json:"area,omitempty"`
	Aliases        []Alias    `json:"aliases,omitempty"`
	Tags           []Tag      `json:"tags,omitempty"`
	Genres         []Tag      `json:"genres,omitempty"`
	Relations      []Relation `json:"relations,omitempty"`
	Rating         *Rating    `json:"rating,omitempty"`
}

type LifeSpan struct {
	Ended bool `json:"ended,omitempty"`
}

type Area struct {
	Name string `json:"name,omitempty"`
}

type Alias struct {
	Name string `json:"name"`
}

type Tag struct {
	Name string `json:"name"`
}

type Relation struct {
	Type string `json:"type,omitempty"`
	URL  string `json:"url,omitempty"`
}

type Rating struct {
	VotesCount int     `json:"votes-count,omitempty"`
	Value      float64 `json:"value,omitempty"`
}

// ReleaseGroupRecord is the shape C2 writes for one release-group line.
type ReleaseGroupRecord struct {
	ID               string         `json:"id"`
	Title            string         `json:"title"`
	PrimaryType      string         `json:"primary-type,omitempty"`
	SecondaryTypes   []string       `json:"secondary-types,omitempty"`
	FirstReleaseDate string         `json:"first-release-date,omitempty"`
	Disambiguation   string         `json:"disambiguation,omitempty"`
	ArtistCredit     []ArtistCredit `json:"artist-credit,omitempty"`
	Tags             []Tag          `json:"tags,omitempty"`
	Genres           []Tag          `json:"genres,omitempty"`
	Rating           *Rating        `json:"rating,omitempty"`

	// ReleaseGroupID duplicates ID under the flat name some filter
	// revisions used. Only ever populated on decode, never written.
	ReleaseGroupID string `json:"release_group_id,omitempty"`
}

type ArtistCredit struct {
	Name   string        `json:"name,omitempty"`
	Artist *CreditTarget `json:"artist,omitempty"`

	// ArtistID is the flat-shape fallback for Artist.ID.
	ArtistID string `json:"artist_id,omitempty"`
}

type CreditTarget struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// EffectiveArtistID returns the credited artist's MBID, trying the nested
// shape first and falling back to the flat one. Returns "" if neither is
// populated; callers must treat that as a missing reference, never guess.
func (c ArtistCredit) EffectiveArtistID() string {
	if c.Artist != nil && c.Artist.ID != "" {
		return c.Artist.ID
	}
	return c.ArtistID
}

// ReleaseRecord is the shape C2 writes for one release line.
type ReleaseRecord struct {
	ID             string       `json:"id"`
	Title          string       `json:"title"`
	Status         string       `json:"status,omitempty"`
	Date           string       `json:"date,omitempty"`
	Country        StringOrList `json:"country,omitempty"`
	Disambiguation string       `json:"disambiguation,omitempty"`
	Labels         []string     `json:"labels,omitempty"`
	Media          []Medium     `json:"media,omitempty"`

	// ReleaseGroup/ReleaseGroupID are the two shapes the filter's output
	// has carried historically: a nested object pointing at the group, or
	// a flat id field. See the tolerant-decoder note in DESIGN.md's
	// internal/models entry.
	ReleaseGroup   *CreditTarget `json:"release-group,omitempty"`
	ReleaseGroupID string        `json:"release_group_id,omitempty"`
}

// EffectiveReleaseGroupID resolves the release-group reference regardless
// of which shape this line was written in.
func (r ReleaseRecord) EffectiveReleaseGroupID() string {
	if r.ReleaseGroup != nil && r.ReleaseGroup.ID != "" {
		return r.ReleaseGroup.ID
	}
	return r.ReleaseGroupID
}

type Medium struct {
	Position   int     `json:"position,omitempty"`
	Format     string  `json:"format,omitempty"`
	TrackCount int     `json:"track_count,omitempty"`
	Tracks     []Track `json:"tracks,omitempty"`
}

// Track tolerates both the original MusicBrainz track shape (nested
// recording object, nested artist-credit) and the filter's flattened shape
// (recording_id, artist_id). EffectiveX accessors are the single
// normalization surface callers should use; the raw fields are decode
// targets only.
type Track struct {
	ID             string         `json:"id,omitempty"`
	Title          string         `json:"title,omitempty"`
	Number         string         `json:"number,omitempty"`
	Position       int            `json:"position,omitempty"`
	Length         int64          `json:"length,omitempty"`
	MediumPosition int            `json:"medium_position,omitempty"`

	Recording   *CreditTarget  `json:"recording,omitempty"`
	RecordingID string         `json:"recording_id,omitempty"`

	ArtistCredit []ArtistCredit `json:"artist-credit,omitempty"`
	ArtistID     string         `json:"artist_id,omitempty"`
}

func (t Track) EffectiveRecordingID() string {
	if t.Recording != nil && t.Recording.ID != "" {
		return t.Recording.ID
	}
	return t.RecordingID
}

// EffectiveArtistID returns the first-position artist credit's MBID,
// falling back to the flat artist_id field. Empty if neither is present.
func (t Track) EffectiveArtistID() string {
	if len(t.ArtistCredit) > 0 {
		if id := t.ArtistCredit[0].EffectiveArtistID(); id != "" {
			return id
		}
	}
	return t.ArtistID
}
