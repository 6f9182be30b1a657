// Package index implements C3: the byte-offset index for each filtered
// file and the two derived join indexes (artist -> release-groups,
// release-group -> releases), backed by badgerhold the way the teacher
// backs its key/value and queue storage.
package index

import (
	"fmt"

	bh "github.com/timshannon/badgerhold/v4"
)

type offsetEntry struct {
	MBID   string `badgerhold:"key"`
	Offset int64
}

// OffsetIndex is a badgerhold-backed implementation of
// interfaces.OffsetIndex. On duplicate MBID within a pass, the last Put
// wins, matching spec.md §4.3's documented decision.
type OffsetIndex struct {
	store *bh.Store
}

func OpenOffsetIndex(dir string) (*OffsetIndex, error) {
	opts := bh.DefaultOptions
	opts.Dir = dir
	opts.ValueDir = dir
	opts.Logger = nil
	store, err := bh.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open offset index %s: %w", dir, err)
	}
	return &OffsetIndex{store: store}, nil
}

func (o *OffsetIndex) Put(mbid string, offset int64) error {
	return o.store.Upsert(mbid, &offsetEntry{MBID: mbid, Offset: offset})
}

func (o *OffsetIndex) Lookup(mbid string) (int64, bool) {
	var e offsetEntry
	if err := o.store.Get(mbid, &e); err != nil {
		return 0, false
	}
	return e.Offset, true
}

func (o *OffsetIndex) Count() int {
	n, err := o.store.Count(&offsetEntry{}, bh.Where(bh.Key).Ne(""))
	if err != nil {
		return 0
	}
	return n
}

// Keys returns every indexed MBID. Used by the build driver to enumerate
// the artist population for C5 after C3 has finished; not part of
// interfaces.OffsetIndex since only the driver needs whole-index iteration.
func (o *OffsetIndex) Keys() ([]string, error) {
	var entries []offsetEntry
	if err := o.store.Find(&entries, bh.Where(bh.Key).Ne("")); err != nil {
		return nil, fmt.Errorf("list offset index keys: %w", err)
	}
	keys := make([]string, len(entries))
	for i, e := range entries {
		keys[i] = e.MBID
	}
	return keys, nil
}

func (o *OffsetIndex) Close() error {
	return o.store.Close()
}
