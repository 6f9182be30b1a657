package normalize

import (
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/ternarybob/arbor"

	"github.com/davedean/lidmeta/internal/common"
	"github.com/davedean/lidmeta/internal/interfaces"
	"github.com/davedean/lidmeta/internal/models"
	"github.com/davedean/lidmeta/internal/pipeline/seekfile"
)

// Runner drives C5's primary loop: for each artist MBID, seek-read the
// artist and its release-groups (and releases, if enabled), normalize, and
// write. Per spec.md §5 artists are independent units of work and may be
// fanned out across a worker pool; the document-path manifest (guarded
// internally by the writer store) is the only shared state. C5 does not
// touch the full-text index: that database is owned exclusively by C4,
// which runs as its own independent pass over the filtered artist file
// (spec.md §3's "FTS database is owned by C4" invariant, and §4.4's
// description of C4 as a single pass over ALL filtered artists regardless
// of C5's artist-type filter — folding FTS inserts into C5 here would
// index a different, filter-dependent population and risk double-writing
// the artists both stages would otherwise agree on).
type Runner struct {
	ArtistFile  *seekfile.Reader
	RGFile      *seekfile.Reader
	ReleaseFile *seekfile.Reader // nil when use_full_release_data is false

	ArtistOffsets  interfaces.OffsetIndex
	RGOffsets      interfaces.OffsetIndex
	ReleaseOffsets interfaces.OffsetIndex // nil when ReleaseFile is nil

	ArtistToRG  interfaces.JoinIndex
	RGToRelease interfaces.JoinIndex // nil when ReleaseFile is nil

	Docs interfaces.DocumentStore

	Filters            Filters
	UseFullReleaseData bool
	Concurrency        int

	Logger arbor.ILogger
}

// Result tallies the per-artist state machine outcomes (spec.md §4.5.3).
type Result struct {
	Written int64
	Skipped int64
	Failed  int64
}

// Run processes every artist MBID, fanning work out across r.Concurrency
// worker goroutines, each wrapped in panic recovery so one bad record
// cannot take down the whole build.
func (r *Runner) Run(mbids []string) Result {
	concurrency := r.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}

	jobs := make(chan string)
	var result Result
	var wg sync.WaitGroup

	process := func(mbid string) (state artistState) {
		defer func() {
			if rec := recover(); rec != nil {
				r.logError(mbid, "normalize artist", fmt.Errorf("panic: %v", rec))
				state = stateFailed
			}
		}()
		return r.processArtist(mbid)
	}

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		workerID := i
		common.SafeGo(r.Logger, fmt.Sprintf("normalize-worker-%d", workerID), func() {
			defer wg.Done()
			for mbid := range jobs {
				switch process(mbid) {
				case stateWritten:
					atomic.AddInt64(&result.Written, 1)
				case stateSkipped:
					atomic.AddInt64(&result.Skipped, 1)
				case stateFailed:
					atomic.AddInt64(&result.Failed, 1)
				}
			}
		})
	}

	for _, mbid := range mbids {
		jobs <- mbid
	}
	close(jobs)
	wg.Wait()

	return result
}

type artistState int

const (
	stateWritten artistState = iota
	stateSkipped
	stateFailed
)

// processArtist implements the Pending -> Loaded -> Normalized -> Written
// / Skipped / Failed state machine for one artist MBID.
func (r *Runner) processArtist(mbid string) artistState {
	// Pending -> (resume check)
	if r.Docs.ArtistExists(mbid) {
		return stateSkipped
	}

	// Pending -> Loaded
	offset, found := r.ArtistOffsets.Lookup(mbid)
	if !found {
		return stateSkipped
	}
	line, err := r.ArtistFile.ReadLineAt(offset)
	if err != nil {
		r.logError(mbid, "read artist line", err)
		return stateFailed
	}
	var rec models.ArtistRecord
	if err := json.Unmarshal(line, &rec); err != nil {
		r.logError(mbid, "decode artist line", err)
		return stateFailed
	}

	if !r.Filters.AllowArtistType(rec.Type) {
		return stateSkipped
	}

	artistDoc := Artist(rec)

	rgIDs, _ := r.ArtistToRG.Get(mbid)
	summaries := make([]models.AlbumSummary, 0, len(rgIDs))

	for _, rgID := range rgIDs {
		albumDoc, summary, ok := r.loadAndNormalizeAlbum(rgID, artistDoc)
		if !ok {
			continue
		}
		if err := r.Docs.WriteAlbum(albumDoc); err != nil {
			r.logError(rgID, "write album document", err)
			continue
		}
		summaries = append(summaries, summary)
	}

	SortAlbums(summaries)
	artistDoc.Albums = summaries

	// Normalized -> Written
	if err := r.Docs.WriteArtist(artistDoc); err != nil {
		r.logError(mbid, "write artist document", err)
		return stateFailed
	}

	return stateWritten
}

// loadAndNormalizeAlbum seek-reads a release-group and, if
// use_full_release_data is set, its releases, then applies the
// release-group filter and normalizes. ok is false when the release-group
// is missing, unparsable, or filtered out.
func (r *Runner) loadAndNormalizeAlbum(rgID string, artistDoc models.ArtistDocument) (models.AlbumDocument, models.AlbumSummary, bool) {
	offset, found := r.RGOffsets.Lookup(rgID)
	if !found {
		return models.AlbumDocument{}, models.AlbumSummary{}, false
	}
	line, err := r.RGFile.ReadLineAt(offset)
	if err != nil {
		r.logError(rgID, "read release-group line", err)
		return models.AlbumDocument{}, models.AlbumSummary{}, false
	}
	var rg models.ReleaseGroupRecord
	if err := json.Unmarshal(line, &rg); err != nil {
		r.logError(rgID, "decode release-group line", err)
		return models.AlbumDocument{}, models.AlbumSummary{}, false
	}

	if !r.Filters.AllowReleaseGroup(rg.PrimaryType, rg.SecondaryTypes) {
		return models.AlbumDocument{}, models.AlbumSummary{}, false
	}

	var releases []models.ReleaseRecord
	if r.UseFullReleaseData && r.ReleaseFile != nil && r.RGToRelease != nil {
		releaseIDs, _ := r.RGToRelease.Get(rgID)
		for _, relID := range releaseIDs {
			relOffset, found := r.ReleaseOffsets.Lookup(relID)
			if !found {
				continue
			}
			relLine, err := r.ReleaseFile.ReadLineAt(relOffset)
			if err != nil {
				r.logError(relID, "read release line", err)
				continue
			}
			var rel models.ReleaseRecord
			if err := json.Unmarshal(relLine, &rel); err != nil {
				r.logError(relID, "decode release line", err)
				continue
			}
			releases = append(releases, rel)
		}
	}

	albumDoc := Album(rg, artistDoc, releases)
	summary := Summary(rg, albumDoc)
	return albumDoc, summary, true
}

func (r *Runner) logError(mbid, action string, err error) {
	if r.Logger == nil {
		return
	}
	r.Logger.Warn().Str("mbid", mbid).Err(err).Msg("normalize: " + action + " failed, skipping")
}
