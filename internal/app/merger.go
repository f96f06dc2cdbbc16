package app

import (
	"context"
	"slices"

	"github.com/bft-labs/torrentfleet/internal/domain"
	"github.com/bft-labs/torrentfleet/internal/ports"
)

// Listing is a merged transfer listing. Partial names the instances whose
// contribution is missing or incomplete.
type Listing struct {
	Records []domain.TransferRecord
	Partial domain.PartialFailure
}

// Merger fans out transfer listings to every member of the master replica
// set and combines them under one global order.
type Merger struct {
	fleet
	recentLimit int
}

// NewMerger creates a Merger. A nil logger discards output.
func NewMerger(cfg Config, directory ports.InstanceDirectory, clients ports.ClientFactory, logger ports.Logger) *Merger {
	cfg.SetDefaults()
	return &Merger{
		fleet:       newFleet(cfg, directory, clients, logger),
		recentLimit: cfg.RecentLimit,
	}
}

// instanceListing is one instance's contribution to a listing.
type instanceListing struct {
	records  []domain.TransferRecord
	failures []domain.InstanceFailure
}

// Downloading lists every transfer that is not yet complete, refreshing each
// record first, ordered by ascending add time. A record whose refresh fails
// is left out and reported in Partial.
func (m *Merger) Downloading(ctx context.Context) (Listing, error) {
	query := domain.TransferQuery{Done: domain.OnlyNotDone}
	return m.collect(ctx, func(ctx context.Context, inst domain.Instance) instanceListing {
		c, recs, fail := m.list(ctx, inst, query)
		if fail != nil {
			return instanceListing{failures: []domain.InstanceFailure{*fail}}
		}

		// Refreshes are sequenced within an instance; the client need not be
		// safe for concurrent use. They share one budget so a slow instance
		// holds the listing for at most two timeouts.
		refreshCtx, cancel := context.WithTimeout(ctx, m.timeout)
		defer cancel()

		var out instanceListing
		for _, rec := range recs {
			rec := rec
			var (
				fresh domain.TransferRecord
				err   error
			)
			if refreshCtx.Err() != nil {
				err = classify(refreshCtx, inst.Name, domain.OpRefreshTransfer, refreshCtx.Err())
			} else {
				fresh, err = callInstance(refreshCtx, m.timeout, inst.Name, domain.OpRefreshTransfer,
					func(ctx context.Context) (domain.TransferRecord, error) {
						return c.RefreshTransfer(ctx, rec)
					})
			}
			if err != nil {
				rerr := &domain.RefreshError{Instance: inst.Name, ID: rec.ID, Err: err}
				out.failures = append(out.failures, m.report(inst.Name, domain.OpRefreshTransfer, rerr))
				continue
			}
			fresh.Instance = inst.Name
			out.records = append(out.records, fresh)
		}
		return out
	}, func(recs []domain.TransferRecord) []domain.TransferRecord {
		slices.SortStableFunc(recs, func(a, b domain.TransferRecord) int {
			return a.AddedAt.Compare(b.AddedAt)
		})
		return recs
	})
}

// Recent lists the most recently added completed transfers. Each instance
// contributes at most RecentLimit records of its own, newest first, and the
// merged result is cut to RecentLimit again.
func (m *Merger) Recent(ctx context.Context) (Listing, error) {
	limit := m.recentLimit
	query := domain.TransferQuery{Done: domain.OnlyDone, Order: domain.AddedDesc, Limit: limit}
	return m.collect(ctx, func(ctx context.Context, inst domain.Instance) instanceListing {
		_, recs, fail := m.list(ctx, inst, query)
		if fail != nil {
			return instanceListing{failures: []domain.InstanceFailure{*fail}}
		}
		return instanceListing{records: newestFirst(recs, limit)}
	}, func(recs []domain.TransferRecord) []domain.TransferRecord {
		return newestFirst(recs, limit)
	})
}

// Errored lists every transfer carrying a client error, instance by instance
// in directory order.
func (m *Merger) Errored(ctx context.Context) (Listing, error) {
	query := domain.TransferQuery{Error: domain.OnlyErrored}
	return m.collect(ctx, func(ctx context.Context, inst domain.Instance) instanceListing {
		_, recs, fail := m.list(ctx, inst, query)
		if fail != nil {
			return instanceListing{failures: []domain.InstanceFailure{*fail}}
		}
		return instanceListing{records: recs}
	}, nil)
}

// collect fans perInstance out over the current membership, concatenates the
// contributions in directory order and applies finish to the union once every
// instance has answered or failed.
func (m *Merger) collect(
	ctx context.Context,
	perInstance func(ctx context.Context, inst domain.Instance) instanceListing,
	finish func([]domain.TransferRecord) []domain.TransferRecord,
) (Listing, error) {
	_, instances, err := m.members(ctx)
	if err != nil {
		return Listing{}, err
	}

	parts := fanOut(ctx, m.limit, instances, perInstance)
	if err := ctx.Err(); err != nil {
		return Listing{}, err
	}

	var listing Listing
	for _, p := range parts {
		listing.Records = append(listing.Records, p.records...)
		listing.Partial = append(listing.Partial, p.failures...)
	}
	if finish != nil {
		listing.Records = finish(listing.Records)
	}
	return listing, nil
}

// list runs one ListTransfers call and stamps the owning instance on each
// record. On failure the returned InstanceFailure is non-nil.
func (m *Merger) list(ctx context.Context, inst domain.Instance, q domain.TransferQuery) (ports.InstanceClient, []domain.TransferRecord, *domain.InstanceFailure) {
	c, err := m.client(inst, domain.OpListTransfers)
	if err != nil {
		fail := m.report(inst.Name, domain.OpListTransfers, err)
		return nil, nil, &fail
	}
	recs, err := callInstance(ctx, m.timeout, inst.Name, domain.OpListTransfers,
		func(ctx context.Context) ([]domain.TransferRecord, error) {
			return c.ListTransfers(ctx, q)
		})
	if err != nil {
		fail := m.report(inst.Name, domain.OpListTransfers, err)
		return nil, nil, &fail
	}
	recs = slices.Clone(recs)
	for i := range recs {
		recs[i].Instance = inst.Name
	}
	return c, recs, nil
}

// newestFirst orders recs by descending add time and keeps at most limit.
// A negative limit keeps nothing.
func newestFirst(recs []domain.TransferRecord, limit int) []domain.TransferRecord {
	limit = max(limit, 0)
	slices.SortStableFunc(recs, func(a, b domain.TransferRecord) int {
		return b.AddedAt.Compare(a.AddedAt)
	})
	if len(recs) > limit {
		recs = recs[:limit]
	}
	return recs
}
