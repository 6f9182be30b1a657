package index

import (
	"fmt"
	"sync"

	bh "github.com/timshannon/badgerhold/v4"
)

type joinEntry struct {
	Upstream   string `badgerhold:"key"`
	Downstream []string
}

// JoinIndex is a badgerhold-backed implementation of interfaces.JoinIndex.
// Append is read-modify-write under a mutex: C3's join passes are
// single-threaded per spec.md §5, so this only needs to prevent a lost
// update against badgerhold's own internal concurrency, not arbitrate
// between independent writers.
type JoinIndex struct {
	store *bh.Store
	mu    sync.Mutex
}

func OpenJoinIndex(dir string) (*JoinIndex, error) {
	opts := bh.DefaultOptions
	opts.Dir = dir
	opts.ValueDir = dir
	opts.Logger = nil
	store, err := bh.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open join index %s: %w", dir, err)
	}
	return &JoinIndex{store: store}, nil
}

func (j *JoinIndex) Append(upstream, downstream string) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	var e joinEntry
	err := j.store.Get(upstream, &e)
	if err != nil {
		if err != bh.ErrNotFound {
			return fmt.Errorf("read join entry %s: %w", upstream, err)
		}
		e = joinEntry{Upstream: upstream}
	}
	e.Downstream = append(e.Downstream, downstream)
	return j.store.Upsert(upstream, &e)
}

func (j *JoinIndex) Get(upstream string) ([]string, bool) {
	var e joinEntry
	if err := j.store.Get(upstream, &e); err != nil {
		return nil, false
	}
	return e.Downstream, true
}

func (j *JoinIndex) Close() error {
	return j.store.Close()
}
