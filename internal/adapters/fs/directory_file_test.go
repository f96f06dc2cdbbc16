package fs

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bft-labs/torrentfleet/internal/domain"
)

const sampleDirectory = `
master = "what"

[replica_sets.what]
master_instance = "tr-master"

[[replica_sets.what.instances]]
name = "tr-master"
url = "http://10.0.0.1:9091"
username = "admin"
password = "secret"

[[replica_sets.what.instances]]
name = "tr-mirror"
url = "http://10.0.0.2:9091"

[replica_sets.other]
master_instance = "x"
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestFileDirectory_ResolveAndList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "directory.toml")
	writeFile(t, path, sampleDirectory)
	d := NewFileDirectory(path, nil)
	ctx := context.Background()

	rs, err := d.ResolveMaster(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.ReplicaSet{Name: "what", Master: "tr-master"}, rs)

	instances, err := d.ListInstances(ctx, rs)
	require.NoError(t, err)
	require.Len(t, instances, 2)
	assert.Equal(t, domain.Instance{Name: "tr-master", URL: "http://10.0.0.1:9091", Username: "admin", Password: "secret"}, instances[0])
	assert.Equal(t, "tr-mirror", instances[1].Name)

	empty, err := d.ListInstances(ctx, domain.ReplicaSet{Name: "other"})
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestFileDirectory_NotConfigured(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		content *string
	}{
		{"missing file", nil},
		{"no master", ptr(`[replica_sets.what]`)},
		{"undefined master", ptr(`master = "nope"`)},
	}
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".toml")
			if tt.content != nil {
				writeFile(t, path, *tt.content)
			}
			_, err := NewFileDirectory(path, nil).ResolveMaster(context.Background())
			assert.ErrorIs(t, err, domain.ErrNotConfigured, "case %d", i)
		})
	}
}

func TestParseDirectoryFile_Invalid(t *testing.T) {
	_, err := ParseDirectoryFile([]byte(`master = `))
	assert.Error(t, err)

	_, err = ParseDirectoryFile([]byte(`
[[replica_sets.what.instances]]
name = "a"
[[replica_sets.what.instances]]
name = "a"
`))
	assert.ErrorContains(t, err, "duplicate instance")
}

func TestFileDirectory_ReadsFreshWithoutWatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "directory.toml")
	writeFile(t, path, sampleDirectory)
	d := NewFileDirectory(path, nil)

	_, err := d.ResolveMaster(context.Background())
	require.NoError(t, err)

	writeFile(t, path, `master = "other"
[replica_sets.other]
master_instance = "x"`)
	rs, err := d.ResolveMaster(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "other", rs.Name)
}

func TestFileDirectory_Watch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "directory.toml")
	writeFile(t, path, sampleDirectory)
	d := NewFileDirectory(path, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Watch(ctx) }()
	defer func() {
		cancel()
		require.NoError(t, <-done)
	}()

	require.Eventually(t, func() bool {
		d.mu.RLock()
		defer d.mu.RUnlock()
		return d.watching
	}, 2*time.Second, 10*time.Millisecond)

	// A change that does not parse keeps the previous version.
	writeFile(t, path, `master = `)
	time.Sleep(300 * time.Millisecond)
	rs, err := d.ResolveMaster(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "what", rs.Name)

	writeFile(t, path, `master = "other"
[replica_sets.other]
master_instance = "x"`)
	assert.Eventually(t, func() bool {
		rs, err := d.ResolveMaster(context.Background())
		return err == nil && rs.Name == "other"
	}, 2*time.Second, 20*time.Millisecond)
}

func ptr(s string) *string { return &s }
