package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/bft-labs/torrentfleet/internal/domain"
)

const catalogSchema = `
CREATE TABLE IF NOT EXISTS catalog (
	id INTEGER PRIMARY KEY,
	name TEXT NOT NULL,
	info TEXT NOT NULL,
	size INTEGER NOT NULL DEFAULT 0,
	added_at INTEGER NOT NULL
);

CREATE VIRTUAL TABLE IF NOT EXISTS catalog_fts USING fts5(
	name, info, content='catalog', content_rowid='id'
);

CREATE TRIGGER IF NOT EXISTS catalog_ai AFTER INSERT ON catalog BEGIN
	INSERT INTO catalog_fts(rowid, name, info) VALUES (new.id, new.name, new.info);
END;

CREATE TRIGGER IF NOT EXISTS catalog_ad AFTER DELETE ON catalog BEGIN
	INSERT INTO catalog_fts(catalog_fts, rowid, name, info) VALUES ('delete', old.id, old.name, old.info);
END;

CREATE TRIGGER IF NOT EXISTS catalog_au AFTER UPDATE ON catalog BEGIN
	INSERT INTO catalog_fts(catalog_fts, rowid, name, info) VALUES ('delete', old.id, old.name, old.info);
	INSERT INTO catalog_fts(rowid, name, info) VALUES (new.id, new.name, new.info);
END;
`

// bulkChunk bounds the number of host parameters in one IN (...) query.
const bulkChunk = 500

// CatalogStore implements ports.CatalogStore over an FTS5 index.
type CatalogStore struct {
	db *sql.DB
}

// NewCatalogStore creates the catalog schema if needed.
func NewCatalogStore(ctx context.Context, db *sql.DB) (*CatalogStore, error) {
	if _, err := db.ExecContext(ctx, catalogSchema); err != nil {
		return nil, fmt.Errorf("initialize catalog schema: %w", err)
	}
	return &CatalogStore{db: db}, nil
}

// MatchExpression translates a boolean-mode query into an FTS5 expression.
// Terms prefixed with '+' are required and joined with AND. Unprefixed terms
// are optional: they are ignored when any term is required, and OR-ed
// together otherwise.
func MatchExpression(query string) string {
	var required, optional []string
	for _, tok := range strings.Fields(query) {
		term, req := strings.CutPrefix(tok, "+")
		if !indexable(term) {
			continue
		}
		if req {
			required = append(required, quote(term))
			continue
		}
		optional = append(optional, quote(term))
	}
	if len(required) > 0 {
		return strings.Join(required, " AND ")
	}
	return strings.Join(optional, " OR ")
}

// indexable reports whether the tokenizer would keep anything of term.
// Punctuation-only terms such as "-" would otherwise become empty phrases
// that match nothing.
func indexable(term string) bool {
	return strings.IndexFunc(term, func(r rune) bool {
		return unicode.IsLetter(r) || unicode.IsDigit(r)
	}) >= 0
}

func quote(term string) string {
	return `"` + strings.ReplaceAll(term, `"`, `""`) + `"`
}

// FullTextSearch implements ports.CatalogStore. Scores are the negated bm25
// rank so that higher is more relevant; ties keep rowid order.
func (s *CatalogStore) FullTextSearch(ctx context.Context, query string) ([]domain.SearchHit, error) {
	expr := MatchExpression(query)
	if expr == "" {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT rowid, -bm25(catalog_fts) AS score
		FROM catalog_fts
		WHERE catalog_fts MATCH ?
		ORDER BY score DESC, rowid ASC`, expr)
	if err != nil {
		return nil, fmt.Errorf("search catalog: %w", err)
	}
	defer rows.Close()

	var hits []domain.SearchHit
	for rows.Next() {
		var h domain.SearchHit
		if err := rows.Scan(&h.ID, &h.Score); err != nil {
			return nil, fmt.Errorf("scan hit: %w", err)
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

// BulkGetByID implements ports.CatalogStore.
func (s *CatalogStore) BulkGetByID(ctx context.Context, ids []int64) (map[int64]domain.ContentRecord, error) {
	out := make(map[int64]domain.ContentRecord, len(ids))
	for start := 0; start < len(ids); start += bulkChunk {
		chunk := ids[start:min(start+bulkChunk, len(ids))]
		args := make([]any, len(chunk))
		for i, id := range chunk {
			args[i] = id
		}

		rows, err := s.db.QueryContext(ctx,
			`SELECT id, name, info, size, added_at FROM catalog WHERE id IN (`+placeholders(len(chunk))+`)`, args...)
		if err != nil {
			return nil, fmt.Errorf("lookup catalog: %w", err)
		}
		for rows.Next() {
			var rec domain.ContentRecord
			var added int64
			if err := rows.Scan(&rec.ID, &rec.Name, &rec.Info, &rec.Size, &added); err != nil {
				rows.Close()
				return nil, fmt.Errorf("scan record: %w", err)
			}
			rec.AddedAt = time.Unix(0, added).UTC()
			out[rec.ID] = rec
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Put inserts or replaces one catalog record. The FTS index follows via
// triggers.
func (s *CatalogStore) Put(ctx context.Context, rec domain.ContentRecord) error {
	if rec.AddedAt.IsZero() {
		rec.AddedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO catalog (id, name, info, size, added_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			info = excluded.info,
			size = excluded.size,
			added_at = excluded.added_at`,
		rec.ID, rec.Name, rec.Info, rec.Size, rec.AddedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("put catalog record %d: %w", rec.ID, err)
	}
	return nil
}
