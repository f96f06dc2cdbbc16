package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bft-labs/torrentfleet/internal/domain"
	"github.com/bft-labs/torrentfleet/internal/ports"
	"github.com/bft-labs/torrentfleet/pkg/log"
)

// fleet holds what every fan-out operation needs: where to find the members,
// how to reach them and how long to wait for each.
type fleet struct {
	directory ports.InstanceDirectory
	clients   ports.ClientFactory
	logger    ports.Logger
	timeout   time.Duration
	limit     int
}

func newFleet(cfg Config, directory ports.InstanceDirectory, clients ports.ClientFactory, logger ports.Logger) fleet {
	cfg.SetDefaults()
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return fleet{
		directory: directory,
		clients:   clients,
		logger:    logger,
		timeout:   cfg.InstanceTimeout,
		limit:     cfg.MaxConcurrency,
	}
}

// members resolves the master and reads its membership. Both reads happen on
// every call.
func (f *fleet) members(ctx context.Context) (domain.ReplicaSet, []domain.Instance, error) {
	rs, err := f.directory.ResolveMaster(ctx)
	if err != nil {
		return domain.ReplicaSet{}, nil, fmt.Errorf("resolve master: %w", err)
	}
	instances, err := f.directory.ListInstances(ctx, rs)
	if err != nil {
		return rs, nil, fmt.Errorf("list instances of %s: %w", rs.Name, err)
	}
	return rs, instances, nil
}

// client builds the client for inst, classifying construction failures as
// unreachable instances.
func (f *fleet) client(inst domain.Instance, op string) (ports.InstanceClient, error) {
	c, err := f.clients.Client(inst)
	if err != nil {
		return nil, &domain.InstanceError{Instance: inst.Name, Op: op, Kind: domain.ErrInstanceUnreachable, Err: err}
	}
	return c, nil
}

// report logs a recovered instance failure and returns it as a record.
func (f *fleet) report(inst, op string, err error) domain.InstanceFailure {
	f.logger.Warn("instance call failed",
		ports.Instance(inst),
		ports.Op(op),
		ports.Err(err),
	)
	return domain.InstanceFailure{Instance: inst, Op: op, Err: err}
}

// fanOut runs fn once per instance with at most limit calls in flight and
// returns only after every call has finished. out[i] belongs to instances[i].
func fanOut[T any](ctx context.Context, limit int, instances []domain.Instance, fn func(ctx context.Context, inst domain.Instance) T) []T {
	out := make([]T, len(instances))
	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, inst := range instances {
		i, inst := i, inst
		g.Go(func() error {
			out[i] = fn(ctx, inst)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// callInstance runs one blocking instance call under its own timeout.
// The call is abandoned when the deadline passes even if fn ignores ctx,
// so a stuck client cannot hold the operation past the timeout.
func callInstance[T any](ctx context.Context, timeout time.Duration, inst, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		val T
		err error
	}
	done := make(chan result, 1)
	go func() {
		v, err := fn(callCtx)
		done <- result{v, err}
	}()

	var zero T
	select {
	case r := <-done:
		if r.err == nil {
			return r.val, nil
		}
		return zero, classify(callCtx, inst, op, r.err)
	case <-callCtx.Done():
		return zero, classify(callCtx, inst, op, callCtx.Err())
	}
}

func classify(ctx context.Context, inst, op string, err error) error {
	kind := domain.ErrInstanceUnreachable
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		kind = domain.ErrInstanceTimeout
	}
	return &domain.InstanceError{Instance: inst, Op: op, Kind: kind, Err: err}
}
