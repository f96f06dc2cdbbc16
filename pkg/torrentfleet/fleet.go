package torrentfleet

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	fsadapter "github.com/bft-labs/torrentfleet/internal/adapters/fs"
	httpadapter "github.com/bft-labs/torrentfleet/internal/adapters/http"
	redisadapter "github.com/bft-labs/torrentfleet/internal/adapters/redis"
	"github.com/bft-labs/torrentfleet/internal/adapters/sqlite"
	"github.com/bft-labs/torrentfleet/internal/app"
	"github.com/bft-labs/torrentfleet/internal/domain"
	"github.com/bft-labs/torrentfleet/internal/ports"
	"github.com/bft-labs/torrentfleet/pkg/log"
)

// Re-exported result and record types.
type (
	Listing        = app.Listing
	StatsReport    = app.StatsReport
	SearchResult   = app.SearchResult
	Summary        = app.Summary
	TransferRecord = domain.TransferRecord
	ContentRecord  = domain.ContentRecord
	LogEntry       = domain.LogEntry
	AggregateStats = domain.AggregateStats
	PartialFailure = domain.PartialFailure
	LogOutcome     = app.Outcome[[]domain.LogEntry]
	OutcomeKind    = app.OutcomeKind
)

// Outcome kinds of ViewLog.
const (
	OutcomeOK                 = app.OutcomeOK
	OutcomePermissionDenied   = app.OutcomePermissionDenied
	OutcomeConfigurationError = app.OutcomeConfigurationError
	OutcomeFailed             = app.OutcomeFailed
)

// ErrReadOnly is returned by writes against an injected store that does not
// accept them.
var ErrReadOnly = errors.New("store is read-only")

type logAppender interface {
	Append(ctx context.Context, e domain.LogEntry) (domain.LogEntry, error)
}

type contentWriter interface {
	Put(ctx context.Context, rec domain.ContentRecord) error
}

// Fleet is an open view over a fleet of instances. It is safe for concurrent
// use. Close releases the databases and connections it opened.
type Fleet struct {
	*app.Service

	logger  ports.Logger
	catalog ports.CatalogStore
	events  ports.EventLog

	closers []func() error
	stop    context.CancelFunc
	watchWG sync.WaitGroup
}

// Open wires a Fleet from cfg. Zero fields of cfg take default values.
func Open(ctx context.Context, cfg Config, opts ...Option) (*Fleet, error) {
	cfg.SetDefaults()
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if err := cfg.validate(o); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	f := &Fleet{logger: o.logger, stop: func() {}}
	if err := f.open(ctx, cfg, o); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

func (f *Fleet) open(ctx context.Context, cfg Config, o options) error {
	directory := o.directory
	if directory == nil {
		d, err := f.openDirectory(ctx, cfg)
		if err != nil {
			return err
		}
		directory = d
	}

	f.catalog, f.events = o.catalog, o.events
	if err := f.openStores(ctx, cfg); err != nil {
		return err
	}

	svc, err := app.NewService(app.Config{
		InstanceTimeout: cfg.InstanceTimeout,
		MaxConcurrency:  cfg.MaxConcurrency,
		RecentLimit:     cfg.RecentLimit,
	}, app.Dependencies{
		Directory: directory,
		Clients:   httpadapter.NewClientFactory(o.httpClient, cfg.HTTPTimeout, f.logger),
		Catalog:   f.catalog,
		Events:    f.events,
		Logger:    f.logger,
	})
	if err != nil {
		return err
	}
	f.Service = svc
	return nil
}

func (f *Fleet) openDirectory(ctx context.Context, cfg Config) (ports.InstanceDirectory, error) {
	switch cfg.DirectorySource {
	case DirectoryRedis:
		rdb, err := redisadapter.NewUniversalClient(ctx, redisadapter.Options{
			Addrs:    cfg.RedisAddrs,
			Password: cfg.RedisPassword,
		})
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		f.closers = append(f.closers, rdb.Close)
		return redisadapter.NewDirectory(rdb, cfg.RedisKeyPrefix), nil

	default:
		d := fsadapter.NewFileDirectory(cfg.DirectoryFile, f.logger)
		if cfg.WatchDirectory {
			f.watch(d)
		}
		return d, nil
	}
}

func (f *Fleet) watch(d *fsadapter.FileDirectory) {
	watchCtx, cancel := context.WithCancel(context.Background())
	f.stop = cancel
	f.watchWG.Add(1)
	go func() {
		defer f.watchWG.Done()
		if err := d.Watch(watchCtx); err != nil {
			f.logger.Warn("directory watch stopped, reading on every call", log.Err(err))
		}
	}()
}

func (f *Fleet) openStores(ctx context.Context, cfg Config) error {
	dbs := make(map[string]*sql.DB)
	db := func(path string) (*sql.DB, error) {
		if d, ok := dbs[path]; ok {
			return d, nil
		}
		d, err := sqlite.Open(path)
		if err != nil {
			return nil, err
		}
		dbs[path] = d
		f.closers = append(f.closers, d.Close)
		return d, nil
	}

	if f.catalog == nil {
		d, err := db(cfg.CatalogDB)
		if err != nil {
			return fmt.Errorf("open catalog: %w", err)
		}
		if f.catalog, err = sqlite.NewCatalogStore(ctx, d); err != nil {
			return err
		}
	}
	if f.events == nil {
		d, err := db(cfg.EventLogDB)
		if err != nil {
			return fmt.Errorf("open event log: %w", err)
		}
		if f.events, err = sqlite.NewEventLog(ctx, d); err != nil {
			return err
		}
	}
	return nil
}

// ViewLog reads the event log for a caller whose viewing right was decided
// by allowed.
func (f *Fleet) ViewLog(ctx context.Context, allowed bool, types []string, count int) LogOutcome {
	return app.Guard(allowed, func() ([]domain.LogEntry, error) {
		return f.RecentLog(ctx, types, count)
	})
}

// LogLines renders a ViewLog outcome as entries to display. A denied caller
// sees a single placeholder entry instead of the log.
func LogLines(o LogOutcome) ([]LogEntry, error) {
	switch o.Kind {
	case OutcomeOK:
		return o.Value, nil
	case OutcomePermissionDenied:
		return []LogEntry{domain.PermissionDeniedLogEntry()}, nil
	default:
		return nil, o.Err
	}
}

// AppendLog records an event-log entry and returns it with its assigned ID.
func (f *Fleet) AppendLog(ctx context.Context, e LogEntry) (LogEntry, error) {
	w, ok := f.events.(logAppender)
	if !ok {
		return e, ErrReadOnly
	}
	return w.Append(ctx, e)
}

// PutContent inserts or replaces a catalog record.
func (f *Fleet) PutContent(ctx context.Context, rec ContentRecord) error {
	w, ok := f.catalog.(contentWriter)
	if !ok {
		return ErrReadOnly
	}
	return w.Put(ctx, rec)
}

// Close stops the directory watcher and closes opened stores and connections.
func (f *Fleet) Close() error {
	f.stop()
	f.watchWG.Wait()

	var errs []error
	for i := len(f.closers) - 1; i >= 0; i-- {
		if err := f.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	f.closers = nil
	return errors.Join(errs...)
}

// PublishDirectory copies the master replica set of src into the Redis
// directory configured by cfg, making it the Redis master.
func PublishDirectory(ctx context.Context, src InstanceDirectory, cfg Config) (Summary, error) {
	cfg.SetDefaults()
	rs, err := src.ResolveMaster(ctx)
	if err != nil {
		return Summary{}, err
	}
	instances, err := src.ListInstances(ctx, rs)
	if err != nil {
		return Summary{}, err
	}

	rdb, err := redisadapter.NewUniversalClient(ctx, redisadapter.Options{
		Addrs:    cfg.RedisAddrs,
		Password: cfg.RedisPassword,
	})
	if err != nil {
		return Summary{}, fmt.Errorf("connect redis: %w", err)
	}
	defer rdb.Close()

	if err := redisadapter.NewDirectory(rdb, cfg.RedisKeyPrefix).Register(ctx, rs, instances); err != nil {
		return Summary{}, err
	}
	return Summary{Master: rs, Instances: domain.Names(instances)}, nil
}

// NewFileDirectory returns the TOML file directory at path, read on every
// call.
func NewFileDirectory(path string, logger Logger) InstanceDirectory {
	return fsadapter.NewFileDirectory(path, logger)
}
