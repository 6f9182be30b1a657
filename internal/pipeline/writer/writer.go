// Package writer implements C6: the sharded document tree writer and the
// MBID -> path manifest that accompanies it.
package writer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	bh "github.com/timshannon/badgerhold/v4"

	"github.com/davedean/lidmeta/internal/models"
)

type pathEntry struct {
	MBID string `badgerhold:"key"`
	Kind string
	Path string
}

// Store writes normalized documents under <root>/<kind>/<xx>/<yy>/<mbid>.json
// and maintains a badgerhold-backed MBID->path manifest alongside it.
type Store struct {
	root      string
	manifest  *bh.Store
}

func Open(root, manifestDir string) (*Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create document root %s: %w", root, err)
	}
	opts := bh.DefaultOptions
	opts.Dir = manifestDir
	opts.ValueDir = manifestDir
	opts.Logger = nil
	store, err := bh.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open path manifest %s: %w", manifestDir, err)
	}
	return &Store{root: root, manifest: store}, nil
}

// PathFor computes the shard path for an MBID without any manifest lookup,
// so consumers that don't have manifest access can still resolve documents
// (spec.md §4.6: "consumers must accept either a manifest lookup or a
// recomputed path").
func PathFor(root, kind, mbid string) (string, error) {
	lower := strings.ToLower(mbid)
	if len(lower) < 4 {
		return "", fmt.Errorf("mbid %q too short to shard", mbid)
	}
	return filepath.Join(root, kind, lower[0:2], lower[2:4], lower+".json"), nil
}

func (s *Store) writeDocument(kind, mbid string, doc interface{}) error {
	dest, err := PathFor(s.root, kind, mbid)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("mkdir for %s: %w", dest, err)
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal %s document %s: %w", kind, mbid, err)
	}

	if err := atomicWrite(dest, data, 1); err != nil {
		// One retry with a fresh temp name, per spec.md §7.
		if err2 := atomicWrite(dest, data, 2); err2 != nil {
			return fmt.Errorf("write %s document %s: %w", kind, mbid, err2)
		}
	}

	return s.manifest.Upsert(mbid, &pathEntry{MBID: mbid, Kind: kind, Path: dest})
}

func atomicWrite(dest string, data []byte, attempt int) error {
	tmp := fmt.Sprintf("%s.tmp-%d-%d", dest, os.Getpid(), attempt)
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, dest)
}

func (s *Store) WriteArtist(doc models.ArtistDocument) error {
	return s.writeDocument("artist", doc.ID, &doc)
}

func (s *Store) WriteAlbum(doc models.AlbumDocument) error {
	return s.writeDocument("album", doc.ID, &doc)
}

func (s *Store) exists(kind, mbid string) bool {
	dest, err := PathFor(s.root, kind, mbid)
	if err != nil {
		return false
	}
	info, err := os.Stat(dest)
	return err == nil && info.Size() > 0
}

func (s *Store) ArtistExists(mbid string) bool { return s.exists("artist", mbid) }
func (s *Store) AlbumExists(mbid string) bool  { return s.exists("album", mbid) }

func (s *Store) ReadArtist(mbid string) (models.ArtistDocument, error) {
	var doc models.ArtistDocument
	dest, err := PathFor(s.root, "artist", mbid)
	if err != nil {
		return doc, err
	}
	data, err := os.ReadFile(dest)
	if err != nil {
		return doc, fmt.Errorf("read artist document %s: %w", mbid, err)
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return doc, fmt.Errorf("parse artist document %s: %w", mbid, err)
	}
	return doc, nil
}

func (s *Store) ReadAlbum(mbid string) (models.AlbumDocument, error) {
	var doc models.AlbumDocument
	dest, err := PathFor(s.root, "album", mbid)
	if err != nil {
		return doc, err
	}
	data, err := os.ReadFile(dest)
	if err != nil {
		return doc, fmt.Errorf("read album document %s: %w", mbid, err)
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return doc, fmt.Errorf("parse album document %s: %w", mbid, err)
	}
	return doc, nil
}

func (s *Store) Close() error {
	return s.manifest.Close()
}
