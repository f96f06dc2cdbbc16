package app

import (
	"context"

	"github.com/bft-labs/torrentfleet/internal/domain"
	"github.com/bft-labs/torrentfleet/internal/ports"
)

// StatsReport is the aggregated live statistics of a replica set together
// with the raw per-instance snapshots it was reduced from.
type StatsReport struct {
	Master    domain.ReplicaSet
	Aggregate domain.AggregateStats

	// Instances holds one entry per member in directory order; failed
	// members carry Err and are not part of Aggregate.
	Instances []domain.InstanceSnapshot

	Partial domain.PartialFailure
}

// Reducer folds the live session counters of every member into one summary.
type Reducer struct {
	fleet
}

// NewReducer creates a Reducer. A nil logger discards output.
func NewReducer(cfg Config, directory ports.InstanceDirectory, clients ports.ClientFactory, logger ports.Logger) *Reducer {
	return &Reducer{fleet: newFleet(cfg, directory, clients, logger)}
}

// Stats fetches a snapshot from every member concurrently and reduces the
// successful ones. The accumulator is built fresh on every call.
func (r *Reducer) Stats(ctx context.Context) (StatsReport, error) {
	rs, instances, err := r.members(ctx)
	if err != nil {
		return StatsReport{}, err
	}

	snaps := fanOut(ctx, r.limit, instances, func(ctx context.Context, inst domain.Instance) domain.InstanceSnapshot {
		s := domain.InstanceSnapshot{Instance: inst.Name}
		c, err := r.client(inst, domain.OpSessionStats)
		if err != nil {
			s.Err = err
			return s
		}
		s.Snapshot, s.Err = callInstance(ctx, r.timeout, inst.Name, domain.OpSessionStats, c.SessionSnapshot)
		return s
	})
	if err := ctx.Err(); err != nil {
		return StatsReport{}, err
	}

	report := StatsReport{
		Master:    rs,
		Aggregate: domain.Reduce(snaps),
		Instances: snaps,
	}
	for _, s := range snaps {
		if s.Failed() {
			report.Partial = append(report.Partial, r.report(s.Instance, domain.OpSessionStats, s.Err))
		}
	}

	r.logger.Debug("reduced session stats",
		ports.String("replica_set", rs.Name),
		ports.Int("instances", len(instances)),
		ports.Int("failed", len(report.Partial)),
	)
	return report, nil
}
