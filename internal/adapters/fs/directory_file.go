package fs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/fsnotify/fsnotify"
	toml "github.com/pelletier/go-toml/v2"

	"github.com/bft-labs/torrentfleet/internal/domain"
	"github.com/bft-labs/torrentfleet/internal/ports"
	"github.com/bft-labs/torrentfleet/pkg/log"
)

// DirectoryFile is the TOML layout of a replica-set directory file:
//
//	master = "what"
//
//	[replica_sets.what]
//	master_instance = "tr-master"
//
//	[[replica_sets.what.instances]]
//	name = "tr-master"
//	url = "http://10.0.0.1:9091"
type DirectoryFile struct {
	Master      string                    `toml:"master"`
	ReplicaSets map[string]ReplicaSetFile `toml:"replica_sets"`
}

// ReplicaSetFile is one replica set in a DirectoryFile.
type ReplicaSetFile struct {
	MasterInstance string         `toml:"master_instance"`
	Instances      []InstanceFile `toml:"instances"`
}

// InstanceFile is one instance in a ReplicaSetFile.
type InstanceFile struct {
	Name     string `toml:"name"`
	URL      string `toml:"url"`
	Username string `toml:"username"`
	Password string `toml:"password"`
}

// ParseDirectoryFile decodes and checks a directory file.
func ParseDirectoryFile(b []byte) (DirectoryFile, error) {
	var df DirectoryFile
	if err := toml.Unmarshal(b, &df); err != nil {
		return df, fmt.Errorf("decode directory file: %w", err)
	}
	for name, rs := range df.ReplicaSets {
		seen := make(map[string]bool, len(rs.Instances))
		for _, inst := range rs.Instances {
			if inst.Name == "" {
				return df, fmt.Errorf("replica set %s: instance without name", name)
			}
			if seen[inst.Name] {
				return df, fmt.Errorf("replica set %s: duplicate instance %s", name, inst.Name)
			}
			seen[inst.Name] = true
		}
	}
	return df, nil
}

// FileDirectory implements ports.InstanceDirectory over a TOML file.
// Without Watch every call re-reads the file. While Watch runs, calls are
// served from the last successfully parsed version, which is swapped on
// file changes.
type FileDirectory struct {
	path   string
	logger ports.Logger

	mu       sync.RWMutex
	watching bool
	current  DirectoryFile
	hash     uint64
	debounce *time.Timer
}

// NewFileDirectory creates a directory reading path.
func NewFileDirectory(path string, logger ports.Logger) *FileDirectory {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &FileDirectory{path: path, logger: logger}
}

// ResolveMaster implements ports.InstanceDirectory.
func (d *FileDirectory) ResolveMaster(ctx context.Context) (domain.ReplicaSet, error) {
	df, err := d.snapshot()
	if err != nil {
		return domain.ReplicaSet{}, err
	}
	if df.Master == "" {
		return domain.ReplicaSet{}, &domain.ConfigurationError{Reason: "directory file sets no master"}
	}
	rs, ok := df.ReplicaSets[df.Master]
	if !ok {
		return domain.ReplicaSet{}, &domain.ConfigurationError{Reason: fmt.Sprintf("master replica set %q is not defined", df.Master)}
	}
	return domain.ReplicaSet{Name: df.Master, Master: rs.MasterInstance}, nil
}

// ListInstances implements ports.InstanceDirectory.
func (d *FileDirectory) ListInstances(ctx context.Context, rs domain.ReplicaSet) ([]domain.Instance, error) {
	df, err := d.snapshot()
	if err != nil {
		return nil, err
	}
	set, ok := df.ReplicaSets[rs.Name]
	if !ok {
		return nil, fmt.Errorf("replica set %q not found in %s", rs.Name, d.path)
	}
	out := make([]domain.Instance, len(set.Instances))
	for i, inst := range set.Instances {
		out[i] = domain.Instance{
			Name:     inst.Name,
			URL:      inst.URL,
			Username: inst.Username,
			Password: inst.Password,
		}
	}
	return out, nil
}

func (d *FileDirectory) snapshot() (DirectoryFile, error) {
	d.mu.RLock()
	if d.watching {
		df := d.current
		d.mu.RUnlock()
		return df, nil
	}
	d.mu.RUnlock()

	df, _, err := d.read()
	return df, err
}

func (d *FileDirectory) read() (DirectoryFile, uint64, error) {
	b, err := os.ReadFile(d.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DirectoryFile{}, 0, &domain.ConfigurationError{Reason: fmt.Sprintf("directory file %s does not exist", d.path)}
		}
		return DirectoryFile{}, 0, fmt.Errorf("read directory file: %w", err)
	}
	df, err := ParseDirectoryFile(b)
	if err != nil {
		return DirectoryFile{}, 0, err
	}
	return df, xxhash.Sum64(b), nil
}

// Watch loads the file and keeps the in-memory copy current until ctx is
// done. A change that fails to parse keeps the previous version.
func (d *FileDirectory) Watch(ctx context.Context) error {
	df, hash, err := d.read()
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the parent so editors that replace the file are still seen.
	if err := watcher.Add(filepath.Dir(d.path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(d.path), err)
	}

	d.mu.Lock()
	d.current, d.hash, d.watching = df, hash, true
	d.mu.Unlock()

	defer func() {
		d.mu.Lock()
		d.watching = false
		if d.debounce != nil {
			d.debounce.Stop()
		}
		d.mu.Unlock()
	}()

	base := filepath.Base(d.path)
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != base {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			d.debounceReload(100 * time.Millisecond)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			d.logger.Warn("directory watcher error", log.Err(err))
		}
	}
}

func (d *FileDirectory) debounceReload(delay time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.debounce != nil {
		d.debounce.Stop()
	}
	d.debounce = time.AfterFunc(delay, d.reload)
}

func (d *FileDirectory) reload() {
	df, hash, err := d.read()
	if err != nil {
		d.logger.Warn("directory reload failed, keeping previous version",
			log.String("path", d.path), log.Err(err))
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.watching {
		return
	}
	if hash == d.hash {
		d.logger.Debug("directory file unchanged", log.String("path", d.path))
		return
	}
	d.current, d.hash = df, hash
	d.logger.Info("directory reloaded",
		log.String("path", d.path),
		log.String("master", df.Master),
	)
}
