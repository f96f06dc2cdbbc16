package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bft-labs/torrentfleet/internal/app"
	"github.com/bft-labs/torrentfleet/internal/domain"
)

func TestMatchExpression(t *testing.T) {
	tests := []struct {
		query string
		want  string
	}{
		{"+pink +floyd", `"pink" AND "floyd"`},
		{"+pink floyd", `"pink"`},
		{"pink floyd", `"pink" OR "floyd"`},
		{`+say "hi"`, `"say"`},
		{`+"quoted"`, `"""quoted"""`},
		{"+ +", ""},
		{"+pink +- +floyd", `"pink" AND "floyd"`},
		{"pink - floyd &", `"pink" OR "floyd"`},
		{"+& +--", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MatchExpression(tt.query), "MatchExpression(%q)", tt.query)
	}
}

func seedCatalog(t *testing.T, store *CatalogStore) {
	t.Helper()
	ctx := context.Background()
	records := []domain.ContentRecord{
		{ID: 1, Name: "one", Info: "pink floyd dark side of the moon remastered deluxe edition", Size: 700},
		{ID: 2, Name: "two", Info: "pink floyd the wall", Size: 500},
		{ID: 3, Name: "three", Info: "miles davis kind of blue", Size: 300},
		{ID: 4, Name: "four", Info: "john coltrane a love supreme", Size: 200},
		{ID: 5, Name: "five", Info: "nina simone pastel blues", Size: 100},
		{ID: 6, Name: "six", Info: "charles mingus ah um", Size: 100},
	}
	for _, rec := range records {
		rec.AddedAt = time.Date(2024, 1, int(rec.ID), 0, 0, 0, 0, time.UTC)
		require.NoError(t, store.Put(ctx, rec))
	}
}

func TestCatalogStore_FullTextSearch_PunctuationTerms(t *testing.T) {
	store := newTestCatalog(t)
	seedCatalog(t, store)

	for _, q := range []string{"+pink +-", "pink -", "+pink +floyd +&"} {
		hits, err := store.FullTextSearch(context.Background(), q)
		require.NoError(t, err, q)
		assert.Len(t, hits, 2, q)
	}
}

func TestCatalogStore_FullTextSearch_RequiredTerms(t *testing.T) {
	store := newTestCatalog(t)
	seedCatalog(t, store)

	hits, err := store.FullTextSearch(context.Background(), "+pink +floyd")
	require.NoError(t, err)
	require.Len(t, hits, 2)

	// Same term frequency, shorter document ranks higher.
	assert.Equal(t, []int64{2, 1}, domain.HitIDs(hits))
	assert.GreaterOrEqual(t, hits[0].Score, hits[1].Score)

	hits, err = store.FullTextSearch(context.Background(), "+pink +davis")
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestCatalogStore_FullTextSearch_OptionalTerms(t *testing.T) {
	store := newTestCatalog(t)
	seedCatalog(t, store)

	hits, err := store.FullTextSearch(context.Background(), "floyd davis")
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{1, 2, 3}, domain.HitIDs(hits))
	for i := 1; i < len(hits); i++ {
		assert.GreaterOrEqual(t, hits[i-1].Score, hits[i].Score)
	}
}

func TestCatalogStore_FullTextSearch_EmptyQuery(t *testing.T) {
	store := newTestCatalog(t)
	seedCatalog(t, store)

	hits, err := store.FullTextSearch(context.Background(), "  ")
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestCatalogStore_PutUpdatesIndex(t *testing.T) {
	store := newTestCatalog(t)
	seedCatalog(t, store)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, domain.ContentRecord{ID: 3, Name: "three", Info: "bill evans sunday at the village vanguard"}))

	hits, err := store.FullTextSearch(ctx, "+davis")
	require.NoError(t, err)
	assert.Empty(t, hits)

	hits, err = store.FullTextSearch(ctx, "+evans")
	require.NoError(t, err)
	assert.Equal(t, []int64{3}, domain.HitIDs(hits))
}

func TestCatalogStore_BulkGetByID(t *testing.T) {
	store := newTestCatalog(t)
	seedCatalog(t, store)

	got, err := store.BulkGetByID(context.Background(), []int64{5, 2, 42})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "pink floyd the wall", got[2].Info)
	assert.Equal(t, int64(500), got[2].Size)
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), got[2].AddedAt)
	assert.Equal(t, "five", got[5].Name)
	assert.NotContains(t, got, int64(42))
}

func TestCatalogStore_BulkGetByID_Chunked(t *testing.T) {
	store := newTestCatalog(t)
	ctx := context.Background()

	ids := make([]int64, bulkChunk+10)
	for i := range ids {
		ids[i] = int64(i + 1)
		require.NoError(t, store.Put(ctx, domain.ContentRecord{ID: ids[i], Name: "n", Info: "filler"}))
	}

	got, err := store.BulkGetByID(ctx, ids)
	require.NoError(t, err)
	assert.Len(t, got, len(ids))
}

func TestRanker_WithCatalogStore(t *testing.T) {
	store := newTestCatalog(t)
	seedCatalog(t, store)
	ranker := app.NewRanker(store, nil)

	res, err := ranker.Search(context.Background(), "Pink   Floyd")
	require.NoError(t, err)
	require.Len(t, res.Records, 2)
	assert.Equal(t, int64(2), res.Records[0].ID)
	assert.Equal(t, int64(1), res.Records[1].ID)

	res, err = ranker.Search(context.Background(), "+pink - +floyd")
	require.NoError(t, err)
	assert.Len(t, res.Records, 2)
}

func TestRanker_WithCatalogStore_StaleIndex(t *testing.T) {
	store := newTestCatalog(t)
	seedCatalog(t, store)
	ctx := context.Background()

	// Remove a row without maintaining the FTS index.
	_, err := store.db.ExecContext(ctx, `DROP TRIGGER catalog_ad`)
	require.NoError(t, err)
	_, err = store.db.ExecContext(ctx, `DELETE FROM catalog WHERE id = 2`)
	require.NoError(t, err)

	_, err = app.NewRanker(store, nil).Search(ctx, "pink floyd")
	require.ErrorIs(t, err, domain.ErrIndexConsistency)

	var ice *domain.IndexConsistencyError
	require.True(t, errors.As(err, &ice))
	assert.Equal(t, []int64{2}, ice.Missing)
}
