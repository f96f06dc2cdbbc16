package app

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/bft-labs/torrentfleet/internal/domain"
	"github.com/bft-labs/torrentfleet/internal/ports"
	"github.com/bft-labs/torrentfleet/pkg/log"
)

// SearchResult holds the catalog records matching a query in relevance order.
// Hits[i] is the score of Records[i].
type SearchResult struct {
	Query   string
	Records []domain.ContentRecord
	Hits    []domain.SearchHit
}

// Ranker runs relevance-ranked full-text searches over the catalog.
type Ranker struct {
	catalog ports.CatalogStore
	logger  ports.Logger
}

// NewRanker creates a Ranker. A nil logger discards output.
func NewRanker(catalog ports.CatalogStore, logger ports.Logger) *Ranker {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &Ranker{catalog: catalog, logger: logger}
}

// BuildQuery turns a raw query into an all-terms-required boolean query by
// prefixing every whitespace-separated token with '+'.
func BuildQuery(raw string) string {
	terms := strings.Fields(raw)
	for i, t := range terms {
		terms[i] = "+" + t
	}
	return strings.Join(terms, " ")
}

// Search returns the catalog records matching every term of raw, most
// relevant first. Equal scores keep the index order. A hit the catalog cannot
// resolve fails the search with a *domain.IndexConsistencyError.
func (r *Ranker) Search(ctx context.Context, raw string) (SearchResult, error) {
	query := BuildQuery(raw)
	result := SearchResult{Query: query}
	if query == "" {
		return result, nil
	}

	hits, err := r.catalog.FullTextSearch(ctx, query)
	if err != nil {
		return result, fmt.Errorf("full-text search: %w", err)
	}
	if len(hits) == 0 {
		return result, nil
	}
	hits = slices.Clone(hits)
	slices.SortStableFunc(hits, func(a, b domain.SearchHit) int {
		return cmp.Compare(b.Score, a.Score)
	})

	byID, err := r.catalog.BulkGetByID(ctx, domain.HitIDs(hits))
	if err != nil {
		return result, fmt.Errorf("bulk lookup: %w", err)
	}

	records := make([]domain.ContentRecord, 0, len(hits))
	var missing []int64
	for _, h := range hits {
		rec, ok := byID[h.ID]
		if !ok {
			missing = append(missing, h.ID)
			continue
		}
		records = append(records, rec)
	}
	if len(missing) > 0 {
		err := &domain.IndexConsistencyError{Missing: missing}
		r.logger.Error("search index references unknown records",
			ports.String("query", query),
			ports.ContentIDs(missing),
		)
		return SearchResult{Query: query}, err
	}

	result.Records = records
	result.Hits = hits
	return result, nil
}
