package redis

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bft-labs/torrentfleet/internal/domain"
)

// DefaultKeyPrefix namespaces every key the directory reads.
const DefaultKeyPrefix = "torrentfleet"

// Client is the subset of redis.UniversalClient the directory needs.
type Client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd
	TxPipelined(ctx context.Context, fn func(redis.Pipeliner) error) ([]redis.Cmder, error)
	Close() error
}

// Options are the parameters for NewUniversalClient.
// A single address connects to a standalone server; several to a cluster.
type Options struct {
	Addrs    []string
	Password string
}

// NewUniversalClient creates a redis.UniversalClient and verifies it with a ping.
func NewUniversalClient(ctx context.Context, opt Options) (redis.UniversalClient, error) {
	if len(opt.Addrs) == 0 {
		return nil, errors.New("redis addrs is empty")
	}

	c := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:    opt.Addrs,
		Password: opt.Password,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := c.Ping(pingCtx).Err(); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

// Directory implements ports.InstanceDirectory over Redis.
//
// Layout, for prefix P:
//
//	P:master                       -> replica-set name (string)
//	P:set:<name>:master            -> master instance name (string)
//	P:set:<name>:instances         -> hash of instance name -> JSON instance
type Directory struct {
	rdb    Client
	prefix string
}

// NewDirectory creates a directory reading keys under prefix.
func NewDirectory(rdb Client, prefix string) *Directory {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &Directory{rdb: rdb, prefix: prefix}
}

type instanceValue struct {
	URL      string `json:"url"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
}

func (d *Directory) masterKey() string               { return d.prefix + ":master" }
func (d *Directory) setMasterKey(name string) string { return d.prefix + ":set:" + name + ":master" }
func (d *Directory) instancesKey(name string) string { return d.prefix + ":set:" + name + ":instances" }

// ResolveMaster implements ports.InstanceDirectory.
func (d *Directory) ResolveMaster(ctx context.Context) (domain.ReplicaSet, error) {
	name, err := d.rdb.Get(ctx, d.masterKey()).Result()
	if errors.Is(err, redis.Nil) || (err == nil && name == "") {
		return domain.ReplicaSet{}, &domain.ConfigurationError{Reason: fmt.Sprintf("%s is not set", d.masterKey())}
	}
	if err != nil {
		return domain.ReplicaSet{}, fmt.Errorf("get %s: %w", d.masterKey(), err)
	}

	master, err := d.rdb.Get(ctx, d.setMasterKey(name)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return domain.ReplicaSet{}, fmt.Errorf("get %s: %w", d.setMasterKey(name), err)
	}
	return domain.ReplicaSet{Name: name, Master: master}, nil
}

// ListInstances implements ports.InstanceDirectory. Instances are returned
// sorted by name.
func (d *Directory) ListInstances(ctx context.Context, rs domain.ReplicaSet) ([]domain.Instance, error) {
	key := d.instancesKey(rs.Name)
	fields, err := d.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("hgetall %s: %w", key, err)
	}

	out := make([]domain.Instance, 0, len(fields))
	for name, raw := range fields {
		var v instanceValue
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			return nil, fmt.Errorf("decode instance %s in %s: %w", name, key, err)
		}
		out = append(out, domain.Instance{Name: name, URL: v.URL, Username: v.Username, Password: v.Password})
	}
	slices.SortFunc(out, func(a, b domain.Instance) int {
		return cmp.Compare(a.Name, b.Name)
	})
	return out, nil
}

// Register writes rs as the master replica set with exactly the given
// members, replacing any previous membership in one transaction.
// It is used to seed a directory; the engine itself never writes.
func (d *Directory) Register(ctx context.Context, rs domain.ReplicaSet, instances []domain.Instance) error {
	values := make([]interface{}, 0, 2*len(instances))
	for _, inst := range instances {
		b, err := json.Marshal(instanceValue{URL: inst.URL, Username: inst.Username, Password: inst.Password})
		if err != nil {
			return fmt.Errorf("encode instance %s: %w", inst.Name, err)
		}
		values = append(values, inst.Name, string(b))
	}

	key := d.instancesKey(rs.Name)
	_, err := d.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, d.masterKey(), rs.Name, 0)
		pipe.Set(ctx, d.setMasterKey(rs.Name), rs.Master, 0)
		pipe.Del(ctx, key)
		if len(values) > 0 {
			pipe.HSet(ctx, key, values...)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("register %s: %w", rs.Name, err)
	}
	return nil
}
