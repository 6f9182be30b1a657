package search

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/davedean/lidmeta/internal/interfaces"
)

// Reader is the read-only FTS5 handle C7 queries against. Per spec.md §5
// the store is opened read-only and may be shared across requests; each
// query still gets its own *sql.Rows cursor.
type Reader struct {
	db   *sql.DB
	path string
}

// OpenReader opens the FTS database built by fts.Build for read-only
// querying. Returns an error the caller should translate to a 503 per
// spec.md §7 if the database file does not exist.
func OpenReader(path string) (*Reader, error) {
	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro&_pragma=query_only(1)")
	if err != nil {
		return nil, fmt.Errorf("open fts database %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("fts database %s unavailable: %w", path, err)
	}
	return &Reader{db: db, path: path}, nil
}

// RowCount returns the number of indexed artist rows. Used by Stats; not
// part of interfaces.FTSReader since the ranking path never needs it.
func (r *Reader) RowCount(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM artists`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count fts rows: %w", err)
	}
	return n, nil
}

// SizeBytes returns the on-disk size of the FTS database file.
func (r *Reader) SizeBytes() (int64, error) {
	info, err := os.Stat(r.path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// matchExpr builds an FTS5 MATCH expression that prefix-matches every
// whitespace-separated token, implicitly AND-ed together.
func matchExpr(query string) string {
	fields := strings.Fields(query)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		escaped := strings.ReplaceAll(f, `"`, `""`)
		parts = append(parts, fmt.Sprintf(`"%s"*`, escaped))
	}
	return strings.Join(parts, " ")
}

func (r *Reader) Query(ctx context.Context, query string, limit int) ([]interfaces.FTSCandidate, error) {
	expr := matchExpr(query)
	if expr == "" {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, folded_name, phonetic_primary, phonetic_secondary, bm25(artists) AS rank
		FROM artists
		WHERE artists MATCH ?
		ORDER BY rank
		LIMIT ?`, expr, limit)
	if err != nil {
		return nil, fmt.Errorf("fts query: %w", err)
	}
	defer rows.Close()

	var out []interfaces.FTSCandidate
	for rows.Next() {
		var c interfaces.FTSCandidate
		if err := rows.Scan(&c.ID, &c.Name, &c.FoldedName, &c.PhoneticPrimary, &c.PhoneticSecondary, &c.Rank); err != nil {
			return nil, fmt.Errorf("scan fts row: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate fts rows: %w", err)
	}
	return out, nil
}

// AllForFuzzy selects candidates for the fuzzy fallback: folded name
// contains anchor, or either phonetic code equals phoneticPrimary.
func (r *Reader) AllForFuzzy(ctx context.Context, anchor string, phoneticPrimary string, cap int) ([]interfaces.FTSCandidate, error) {
	if anchor == "" && phoneticPrimary == "" {
		return nil, nil
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, folded_name, phonetic_primary, phonetic_secondary, 0 AS rank
		FROM artists
		WHERE folded_name LIKE '%' || ? || '%'
		   OR phonetic_primary = ?
		   OR phonetic_secondary = ?
		LIMIT ?`, anchor, phoneticPrimary, phoneticPrimary, cap)
	if err != nil {
		return nil, fmt.Errorf("fuzzy candidate query: %w", err)
	}
	defer rows.Close()

	var out []interfaces.FTSCandidate
	for rows.Next() {
		var c interfaces.FTSCandidate
		if err := rows.Scan(&c.ID, &c.Name, &c.FoldedName, &c.PhoneticPrimary, &c.PhoneticSecondary, &c.Rank); err != nil {
			return nil, fmt.Errorf("scan fuzzy row: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate fuzzy rows: %w", err)
	}
	return out, nil
}

func (r *Reader) Close() error {
	return r.db.Close()
}
