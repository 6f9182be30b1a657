package normalize

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davedean/lidmeta/internal/models"
	"github.com/davedean/lidmeta/internal/pipeline/seekfile"
)

// memOffsetIndex is an in-memory interfaces.OffsetIndex fake.
type memOffsetIndex struct {
	offsets map[string]int64
}

func newMemOffsetIndex() *memOffsetIndex { return &memOffsetIndex{offsets: map[string]int64{}} }

func (m *memOffsetIndex) Lookup(mbid string) (int64, bool) {
	off, ok := m.offsets[mbid]
	return off, ok
}
func (m *memOffsetIndex) Put(mbid string, offset int64) error { m.offsets[mbid] = offset; return nil }
func (m *memOffsetIndex) Count() int                          { return len(m.offsets) }
func (m *memOffsetIndex) Close() error                        { return nil }

// memJoinIndex is an in-memory interfaces.JoinIndex fake.
type memJoinIndex struct {
	edges map[string][]string
}

func newMemJoinIndex() *memJoinIndex { return &memJoinIndex{edges: map[string][]string{}} }

func (m *memJoinIndex) Append(upstream, downstream string) error {
	m.edges[upstream] = append(m.edges[upstream], downstream)
	return nil
}
func (m *memJoinIndex) Get(upstream string) ([]string, bool) {
	v, ok := m.edges[upstream]
	return v, ok
}
func (m *memJoinIndex) Close() error { return nil }

// memDocStore is an in-memory interfaces.DocumentStore fake.
type memDocStore struct {
	artists map[string]models.ArtistDocument
	albums  map[string]models.AlbumDocument
}

func newMemDocStore() *memDocStore {
	return &memDocStore{artists: map[string]models.ArtistDocument{}, albums: map[string]models.AlbumDocument{}}
}

func (s *memDocStore) WriteArtist(doc models.ArtistDocument) error {
	s.artists[doc.ID] = doc
	return nil
}
func (s *memDocStore) WriteAlbum(doc models.AlbumDocument) error {
	s.albums[doc.ID] = doc
	return nil
}
func (s *memDocStore) ArtistExists(mbid string) bool { _, ok := s.artists[mbid]; return ok }
func (s *memDocStore) AlbumExists(mbid string) bool  { _, ok := s.albums[mbid]; return ok }
func (s *memDocStore) ReadArtist(mbid string) (models.ArtistDocument, error) {
	return s.artists[mbid], nil
}
func (s *memDocStore) ReadAlbum(mbid string) (models.AlbumDocument, error) {
	return s.albums[mbid], nil
}

// writeLines writes each line followed by \n to a temp file and returns an
// opened seekfile.Reader plus the byte offset each line starts at.
func writeLines(t *testing.T, lines []string) (*seekfile.Reader, []int64) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.ndjson")
	f, err := os.Create(path)
	require.NoError(t, err)

	offsets := make([]int64, len(lines))
	var pos int64
	for i, line := range lines {
		offsets[i] = pos
		n, err := f.WriteString(line + "\n")
		require.NoError(t, err)
		pos += int64(n)
	}
	require.NoError(t, f.Close())

	r, err := seekfile.Open(path)
	require.NoError(t, err)
	return r, offsets
}

func TestRunnerProcessArtistSkipsWhenDocumentExists(t *testing.T) {
	docs := newMemDocStore()
	docs.artists["a1"] = models.ArtistDocument{ID: "a1"}

	r := &Runner{Docs: docs, Filters: NewFilters(nil, nil, nil)}
	result := r.Run([]string{"a1"})
	assert.Equal(t, int64(0), result.Written)
	assert.Equal(t, int64(1), result.Skipped)
}

func TestRunnerProcessArtistSkipsWhenOffsetMissing(t *testing.T) {
	docs := newMemDocStore()
	r := &Runner{
		Docs:          docs,
		ArtistOffsets: newMemOffsetIndex(),
		Filters:       NewFilters(nil, nil, nil),
	}
	result := r.Run([]string{"missing"})
	assert.Equal(t, int64(1), result.Skipped)
}

func TestRunnerProcessArtistFiltersOutDisallowedType(t *testing.T) {
	artistFile, offsets := writeLines(t, []string{
		`{"id":"a1","name":"Test Artist","type":"Orchestra"}`,
	})
	defer artistFile.Close()

	offsetIdx := newMemOffsetIndex()
	offsetIdx.offsets["a1"] = offsets[0]

	r := &Runner{
		Docs:          newMemDocStore(),
		ArtistFile:    artistFile,
		ArtistOffsets: offsetIdx,
		ArtistToRG:    newMemJoinIndex(),
		Filters:       NewFilters([]string{"Person"}, nil, nil),
	}
	result := r.Run([]string{"a1"})
	assert.Equal(t, int64(1), result.Skipped)
	assert.Equal(t, int64(0), result.Written)
}

func TestRunnerWritesArtistAndAlbumDocuments(t *testing.T) {
	artistFile, artistOffsets := writeLines(t, []string{
		`{"id":"a1","name":"Test Artist","sort-name":"Artist, Test","type":"Person"}`,
	})
	defer artistFile.Close()

	rgFile, rgOffsets := writeLines(t, []string{
		`{"id":"rg1","title":"First Album","primary-type":"Album"}`,
	})
	defer rgFile.Close()

	artistOffsetIdx := newMemOffsetIndex()
	artistOffsetIdx.offsets["a1"] = artistOffsets[0]

	rgOffsetIdx := newMemOffsetIndex()
	rgOffsetIdx.offsets["rg1"] = rgOffsets[0]

	artistToRG := newMemJoinIndex()
	artistToRG.edges["a1"] = []string{"rg1"}

	docs := newMemDocStore()

	r := &Runner{
		ArtistFile:     artistFile,
		RGFile:         rgFile,
		ArtistOffsets:  artistOffsetIdx,
		RGOffsets:      rgOffsetIdx,
		ArtistToRG:     artistToRG,
		Docs:           docs,
		Filters:        NewFilters(nil, nil, nil),
		Concurrency:    2,
	}

	result := r.Run([]string{"a1"})
	assert.Equal(t, int64(1), result.Written)
	assert.Equal(t, int64(0), result.Failed)

	artistDoc, err := docs.ReadArtist("a1")
	require.NoError(t, err)
	assert.Equal(t, "Test Artist", artistDoc.ArtistName)
	require.Len(t, artistDoc.Albums, 1)
	assert.Equal(t, "First Album", artistDoc.Albums[0].Title)

	albumDoc, err := docs.ReadAlbum("rg1")
	require.NoError(t, err)
	assert.Equal(t, "a1", albumDoc.ArtistID)
	assert.Len(t, albumDoc.Releases, 1, "expected a placeholder release")
}

func TestRunnerFailsArtistOnUnparsableLine(t *testing.T) {
	artistFile, offsets := writeLines(t, []string{"not json"})
	defer artistFile.Close()

	offsetIdx := newMemOffsetIndex()
	offsetIdx.offsets["a1"] = offsets[0]

	r := &Runner{
		Docs:          newMemDocStore(),
		ArtistFile:    artistFile,
		ArtistOffsets: offsetIdx,
		Filters:       NewFilters(nil, nil, nil),
	}
	result := r.Run([]string{"a1"})
	assert.Equal(t, int64(1), result.Failed)
}
