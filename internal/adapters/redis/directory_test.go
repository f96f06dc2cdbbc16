package redis

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bft-labs/torrentfleet/internal/domain"
)

// memClient is an in-memory Client.
type memClient struct {
	mu      sync.Mutex
	strings map[string]string
	hashes  map[string]map[string]string
	failGet error
}

func newMemClient() *memClient {
	return &memClient{strings: map[string]string{}, hashes: map[string]map[string]string{}}
}

func (m *memClient) Get(ctx context.Context, key string) *redis.StringCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failGet != nil {
		return redis.NewStringResult("", m.failGet)
	}
	v, ok := m.strings[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *memClient) HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[string]string{}
	for k, v := range m.hashes[key] {
		out[k] = v
	}
	return redis.NewMapStringStringResult(out, nil)
}

// TxPipelined applies the queued writes under one lock, so readers never
// observe a partial transaction.
func (m *memClient) TxPipelined(ctx context.Context, fn func(redis.Pipeliner) error) ([]redis.Cmder, error) {
	pipe := &memPipe{}
	if err := fn(pipe); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, op := range pipe.ops {
		op(m)
	}
	return nil, nil
}

// memPipe queues the writes Register issues. Other Pipeliner methods are
// not implemented and panic through the nil embedded interface.
type memPipe struct {
	redis.Pipeliner
	ops []func(*memClient)
}

func (p *memPipe) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	p.ops = append(p.ops, func(m *memClient) { m.strings[key] = value.(string) })
	return redis.NewStatusResult("OK", nil)
}

func (p *memPipe) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	p.ops = append(p.ops, func(m *memClient) {
		for _, k := range keys {
			delete(m.strings, k)
			delete(m.hashes, k)
		}
	})
	return redis.NewIntResult(int64(len(keys)), nil)
}

func (p *memPipe) HSet(ctx context.Context, key string, values ...interface{}) *redis.IntCmd {
	p.ops = append(p.ops, func(m *memClient) {
		h, ok := m.hashes[key]
		if !ok {
			h = map[string]string{}
			m.hashes[key] = h
		}
		for i := 0; i+1 < len(values); i += 2 {
			h[values[i].(string)] = values[i+1].(string)
		}
	})
	return redis.NewIntResult(int64(len(values)/2), nil)
}

func (m *memClient) Close() error { return nil }

func seed(t *testing.T, d *Directory) {
	t.Helper()
	err := d.Register(context.Background(),
		domain.ReplicaSet{Name: "what", Master: "tr-master"},
		[]domain.Instance{
			{Name: "tr-mirror", URL: "http://10.0.0.2:9091"},
			{Name: "tr-master", URL: "http://10.0.0.1:9091", Username: "admin", Password: "secret"},
		})
	require.NoError(t, err)
}

func TestDirectory_RegisterResolveList(t *testing.T) {
	d := NewDirectory(newMemClient(), "")
	seed(t, d)

	rs, err := d.ResolveMaster(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.ReplicaSet{Name: "what", Master: "tr-master"}, rs)

	instances, err := d.ListInstances(context.Background(), rs)
	require.NoError(t, err)
	assert.Equal(t, []string{"tr-master", "tr-mirror"}, domain.Names(instances))
	assert.Equal(t, "secret", instances[0].Password)
}

func TestDirectory_RegisterReplacesMembers(t *testing.T) {
	ctx := context.Background()
	d := NewDirectory(newMemClient(), "")
	seed(t, d)
	rs := domain.ReplicaSet{Name: "what", Master: "tr-master"}

	require.NoError(t, d.Register(ctx, rs, []domain.Instance{{Name: "tr-master", URL: "http://10.0.0.9:9091"}}))
	instances, err := d.ListInstances(ctx, rs)
	require.NoError(t, err)
	assert.Equal(t, []string{"tr-master"}, domain.Names(instances))
	assert.Equal(t, "http://10.0.0.9:9091", instances[0].URL)
	assert.Empty(t, instances[0].Password)

	require.NoError(t, d.Register(ctx, rs, nil))
	instances, err = d.ListInstances(ctx, rs)
	require.NoError(t, err)
	assert.Empty(t, instances)
}

func TestDirectory_NotConfigured(t *testing.T) {
	d := NewDirectory(newMemClient(), "test")
	_, err := d.ResolveMaster(context.Background())
	assert.ErrorIs(t, err, domain.ErrNotConfigured)
}

func TestDirectory_ReadErrorIsNotConfigurationError(t *testing.T) {
	c := newMemClient()
	c.failGet = errors.New("connection reset")
	_, err := NewDirectory(c, "test").ResolveMaster(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrNotConfigured)
}

func TestDirectory_CorruptInstance(t *testing.T) {
	c := newMemClient()
	d := NewDirectory(c, "test")
	c.hashes[d.instancesKey("what")] = map[string]string{"bad": "{"}

	_, err := d.ListInstances(context.Background(), domain.ReplicaSet{Name: "what"})
	assert.ErrorContains(t, err, "decode instance bad")
}

func TestDirectory_Redis(t *testing.T) {
	addrs := os.Getenv("TORRENTFLEET_TEST_REDIS")
	if addrs == "" {
		t.Skip("TORRENTFLEET_TEST_REDIS not set")
	}
	ctx := context.Background()
	rdb, err := NewUniversalClient(ctx, Options{Addrs: strings.Split(addrs, ",")})
	require.NoError(t, err)
	defer rdb.Close()

	prefix := "torrentfleet:test:" + time.Now().Format("150405.000000")
	d := NewDirectory(rdb, prefix)
	seed(t, d)
	defer rdb.Del(ctx, d.masterKey(), d.setMasterKey("what"), d.instancesKey("what"))

	rs, err := d.ResolveMaster(ctx)
	require.NoError(t, err)
	instances, err := d.ListInstances(ctx, rs)
	require.NoError(t, err)
	assert.Len(t, instances, 2)
}
