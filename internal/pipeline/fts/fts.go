// Package fts implements C4: a single streaming pass over the filtered
// artist file producing a full-text search database, backed by SQLite's
// FTS5 virtual table via the pure-Go modernc.org/sqlite driver so the
// offline build tool carries no cgo dependency.
package fts

import (
	"bufio"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"

	_ "modernc.org/sqlite"

	"github.com/davedean/lidmeta/internal/interfaces"
	"github.com/davedean/lidmeta/internal/search"
)

const schema = `
CREATE VIRTUAL TABLE IF NOT EXISTS artists USING fts5(
	id UNINDEXED,
	name,
	sort_name,
	folded_name,
	phonetic_primary,
	phonetic_secondary
);`

// Writer is the single-owner writer component spec.md §9 calls for: all
// inserts go through one *sql.DB handle, serialized by database/sql's own
// connection pool discipline plus an explicit single-connection cap, since
// SQLite does not support concurrent writers.
type Writer struct {
	db     *sql.DB
	insert *sql.Stmt
}

// OpenWriter creates (or reopens) the FTS database at path for writing.
func OpenWriter(path string) (*Writer, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open fts database %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create fts schema: %w", err)
	}

	stmt, err := db.Prepare(`INSERT INTO artists (id, name, sort_name, folded_name, phonetic_primary, phonetic_secondary) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("prepare fts insert: %w", err)
	}

	return &Writer{db: db, insert: stmt}, nil
}

func (w *Writer) InsertArtistRow(row interfaces.FTSRow) error {
	_, err := w.insert.Exec(row.ID, row.Name, row.SortName, row.FoldedName, row.PhoneticPrimary, row.PhoneticSecondary)
	if err != nil {
		return fmt.Errorf("insert fts row %s: %w", row.ID, err)
	}
	return nil
}

// Compact runs FTS5's optimize command and leaves the database in a
// read-only-friendly state with no outstanding write-ahead file, per
// spec.md §4.4.
func (w *Writer) Compact() error {
	if _, err := w.db.Exec(`INSERT INTO artists(artists) VALUES('optimize')`); err != nil {
		return fmt.Errorf("optimize fts index: %w", err)
	}
	if _, err := w.db.Exec(`PRAGMA wal_checkpoint(TRUNCATE)`); err != nil {
		return fmt.Errorf("checkpoint fts index: %w", err)
	}
	return nil
}

func (w *Writer) Close() error {
	w.insert.Close()
	return w.db.Close()
}

// BuildResult reports how many rows the build pass produced.
type BuildResult struct {
	ArtistLines int64
	RowsWritten int64
}

// artistLine is the minimal shape this pass needs from a filtered artist
// record: id, name, and sort-name.
type artistLine struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	SortName string `json:"sort-name"`
}

// Build streams the filtered artist file and inserts one row per artist
// whose id and name are both non-empty (spec.md §4.4).
func Build(r io.Reader, w *Writer) (BuildResult, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var res BuildResult
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec artistLine
		if err := json.Unmarshal(line, &rec); err != nil {
			continue
		}
		res.ArtistLines++
		if rec.ID == "" || rec.Name == "" {
			continue
		}

		folded := search.Fold(rec.Name)
		primary, secondary := search.DoublePhonetic(folded)
		row := interfaces.FTSRow{
			ID:                rec.ID,
			Name:              rec.Name,
			SortName:          rec.SortName,
			FoldedName:        folded,
			PhoneticPrimary:   primary,
			PhoneticSecondary: secondary,
		}
		if err := w.InsertArtistRow(row); err != nil {
			return res, err
		}
		res.RowsWritten++
	}
	if err := sc.Err(); err != nil {
		return res, fmt.Errorf("scan artist file for fts build: %w", err)
	}
	return res, nil
}
