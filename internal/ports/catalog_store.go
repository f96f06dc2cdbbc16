package ports

import (
	"context"

	"github.com/bft-labs/torrentfleet/internal/domain"
)

// CatalogStore provides full-text search and keyed lookup over the content
// catalog.
type CatalogStore interface {
	// FullTextSearch returns identifiers matching query in boolean mode,
	// ordered by descending relevance score. Ties keep index order.
	FullTextSearch(ctx context.Context, query string) ([]domain.SearchHit, error)

	// BulkGetByID resolves identifiers to records. The result carries no
	// ordering; identifiers with no record are simply absent.
	BulkGetByID(ctx context.Context, ids []int64) (map[int64]domain.ContentRecord, error)
}
