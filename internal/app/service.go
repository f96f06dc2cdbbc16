package app

import (
	"context"
	"errors"

	"github.com/bft-labs/torrentfleet/internal/domain"
	"github.com/bft-labs/torrentfleet/internal/ports"
)

// Dependencies are the collaborators a Service is wired to.
type Dependencies struct {
	Directory ports.InstanceDirectory
	Clients   ports.ClientFactory
	Catalog   ports.CatalogStore
	Events    ports.EventLog
	Logger    ports.Logger
}

// Validate reports missing collaborators.
func (d Dependencies) Validate() error {
	var errs []error
	if d.Directory == nil {
		errs = append(errs, errors.New("instance directory is required"))
	}
	if d.Clients == nil {
		errs = append(errs, errors.New("client factory is required"))
	}
	if d.Catalog == nil {
		errs = append(errs, errors.New("catalog store is required"))
	}
	if d.Events == nil {
		errs = append(errs, errors.New("event log is required"))
	}
	return errors.Join(errs...)
}

// Service exposes every engine operation behind one value.
type Service struct {
	*Merger
	*Reducer
	*Ranker
	*LogFilter

	directory ports.InstanceDirectory
}

// NewService wires a Service. Zero fields of cfg take default values.
func NewService(cfg Config, deps Dependencies) (*Service, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, errors.Join(domain.ErrInvalidArgument, err)
	}
	if err := deps.Validate(); err != nil {
		return nil, errors.Join(domain.ErrInvalidArgument, err)
	}
	return &Service{
		Merger:    NewMerger(cfg, deps.Directory, deps.Clients, deps.Logger),
		Reducer:   NewReducer(cfg, deps.Directory, deps.Clients, deps.Logger),
		Ranker:    NewRanker(deps.Catalog, deps.Logger),
		LogFilter: NewLogFilter(deps.Events),
		directory: deps.Directory,
	}, nil
}

// Summary identifies the master replica set and its current members.
type Summary struct {
	Master    domain.ReplicaSet
	Instances []string
}

// Summary resolves the master and lists its member names.
func (s *Service) Summary(ctx context.Context) (Summary, error) {
	rs, err := s.directory.ResolveMaster(ctx)
	if err != nil {
		return Summary{}, err
	}
	instances, err := s.directory.ListInstances(ctx, rs)
	if err != nil {
		return Summary{}, err
	}
	return Summary{Master: rs, Instances: domain.Names(instances)}, nil
}
