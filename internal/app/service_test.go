package app

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bft-labs/torrentfleet/internal/domain"
)

func TestNewService_RequiresDependencies(t *testing.T) {
	_, err := NewService(Config{}, Dependencies{})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestService_EndToEnd(t *testing.T) {
	f := fakeFleet{
		"a": {records: []domain.TransferRecord{rec(1, 1, 10)}, snapshot: snapshot(100, 10)},
		"b": {records: []domain.TransferRecord{rec(2, 0.5, 20)}, snapshot: snapshot(50, 40)},
	}
	svc, err := NewService(Config{}, Dependencies{
		Directory: f.directory(),
		Clients:   f,
		Catalog:   &fakeCatalog{hits: []domain.SearchHit{{ID: 1, Score: 1}}, records: catalogOf(1)},
		Events:    testEventLog(),
	})
	require.NoError(t, err)
	ctx := context.Background()

	recent, err := svc.Recent(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, ids(recent.Records))

	downloading, err := svc.Downloading(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, ids(downloading.Records))

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(150), stats.Aggregate.TotalUploadedBytes)
	assert.Equal(t, int64(40), stats.Aggregate.TotalSecondsActive)

	found, err := svc.Search(ctx, "a")
	require.NoError(t, err)
	assert.Len(t, found.Records, 1)

	summary, err := svc.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, summary.Instances)
	assert.Equal(t, "a", summary.Master.Master)
}

func TestGuard(t *testing.T) {
	called := false
	denied := Guard(false, func() (int, error) {
		called = true
		return 1, nil
	})
	assert.Equal(t, OutcomePermissionDenied, denied.Kind)
	assert.False(t, called, "denied guard must not invoke the operation")

	ok := Guard(true, func() (int, error) { return 7, nil })
	assert.Equal(t, OutcomeOK, ok.Kind)
	assert.Equal(t, 7, ok.Value)

	cfgErr := Guard(true, func() (int, error) { return 0, &domain.ConfigurationError{} })
	assert.Equal(t, OutcomeConfigurationError, cfgErr.Kind)

	failed := Guard(true, func() (int, error) { return 0, errors.New("boom") })
	assert.Equal(t, OutcomeFailed, failed.Kind)
	assert.Equal(t, "Failed", failed.Kind.String())
}
