package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bft-labs/torrentfleet/internal/domain"
	"github.com/bft-labs/torrentfleet/internal/ports"
)

// fakeDaemon emulates the parts of the Transmission RPC the adapter uses.
type fakeDaemon struct {
	t         *testing.T
	sessionID string
	torrents  []map[string]any
	stats     map[string]any
	conflicts atomic.Int32
	mu        sync.Mutex
}

func (d *fakeDaemon) update(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fn()
}

func (d *fakeDaemon) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != rpcEndpoint {
		http.NotFound(w, r)
		return
	}
	if user, pass, _ := r.BasicAuth(); user != "admin" || pass != "secret" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	if r.Header.Get(sessionIDHeader) != d.sessionID {
		d.conflicts.Add(1)
		w.Header().Set(sessionIDHeader, d.sessionID)
		w.WriteHeader(http.StatusConflict)
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	body, _ := io.ReadAll(r.Body)
	var req struct {
		Method    string `json:"method"`
		Arguments struct {
			IDs []int64 `json:"ids"`
		} `json:"arguments"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		d.t.Errorf("decode request: %v", err)
		return
	}

	var args any
	switch req.Method {
	case "torrent-get":
		var out []map[string]any
		for _, tr := range d.torrents {
			if len(req.Arguments.IDs) == 0 {
				out = append(out, tr)
				continue
			}
			for _, id := range req.Arguments.IDs {
				if int64(tr["id"].(int)) == id {
					out = append(out, tr)
				}
			}
		}
		args = map[string]any{"torrents": out}
	case "session-stats":
		args = d.stats
	default:
		_ = json.NewEncoder(w).Encode(map[string]any{"result": "method not recognized"})
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"result": "success", "arguments": args})
}

func torrent(id int, done float64, added int64, errCode int) map[string]any {
	return map[string]any{
		"id":          id,
		"name":        "torrent",
		"percentDone": done,
		"addedDate":   added,
		"error":       errCode,
	}
}

func newDaemon(t *testing.T) (*fakeDaemon, domain.Instance) {
	d := &fakeDaemon{
		t:         t,
		sessionID: "abc123",
		torrents: []map[string]any{
			torrent(1, 1, 100, 0),
			torrent(2, 0.5, 300, 0),
			torrent(3, 1, 200, 0),
			torrent(4, 0.1, 50, 3),
		},
		stats: map[string]any{
			"activeTorrentCount": 2,
			"downloadSpeed":      1000,
			"uploadSpeed":        200,
			"cumulative-stats":   map[string]any{"uploadedBytes": 10, "downloadedBytes": 20, "secondsActive": 30},
			"current-stats":      map[string]any{"uploadedBytes": 1, "downloadedBytes": 2, "secondsActive": 3},
		},
	}
	ts := httptest.NewServer(d)
	t.Cleanup(ts.Close)
	return d, domain.Instance{Name: "tr-1", URL: ts.URL, Username: "admin", Password: "secret"}
}

func TestTransmissionClient_ListTransfers(t *testing.T) {
	d, inst := newDaemon(t)
	f := NewClientFactory(nil, 5*time.Second, nil)
	c, err := f.Client(inst)
	require.NoError(t, err)

	got, err := c.ListTransfers(context.Background(), domain.TransferQuery{Done: domain.OnlyDone, Order: domain.AddedDesc, Limit: 1})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(3), got[0].ID)
	assert.Equal(t, "tr-1", got[0].Instance)
	assert.Equal(t, time.Unix(200, 0).UTC(), got[0].AddedAt)

	errored, err := c.ListTransfers(context.Background(), domain.TransferQuery{Error: domain.OnlyErrored})
	require.NoError(t, err)
	require.Len(t, errored, 1)
	assert.Equal(t, int64(4), errored[0].ID)

	// The session ID is negotiated once and reused by the cached client.
	assert.Equal(t, int32(1), d.conflicts.Load())
}

func TestClientFactory_ReplacesChangedInstance(t *testing.T) {
	f := NewClientFactory(nil, time.Second, nil)
	inst := domain.Instance{Name: "tr-1", URL: "http://10.0.0.1:9091"}

	first, err := f.Client(inst)
	require.NoError(t, err)
	again, err := f.Client(inst)
	require.NoError(t, err)
	assert.Same(t, first, again)

	inst.URL = "http://10.0.0.2:9091"
	moved, err := f.Client(inst)
	require.NoError(t, err)
	assert.NotSame(t, first, moved)

	inst.Password = "secret"
	rekeyed, err := f.Client(inst)
	require.NoError(t, err)
	assert.NotSame(t, moved, rekeyed)
	assert.Len(t, f.clients, 1)
}

func TestTransmissionClient_RefreshTransfer(t *testing.T) {
	d, inst := newDaemon(t)
	c, err := NewTransmissionClient(http.DefaultClient, nil, inst)
	require.NoError(t, err)

	d.update(func() { d.torrents[1]["percentDone"] = 0.9 })
	got, err := c.RefreshTransfer(context.Background(), domain.TransferRecord{ID: 2})
	require.NoError(t, err)
	assert.Equal(t, 0.9, got.PercentDone)

	_, err = c.RefreshTransfer(context.Background(), domain.TransferRecord{ID: 99})
	assert.Error(t, err)
}

func TestTransmissionClient_SessionSnapshot(t *testing.T) {
	_, inst := newDaemon(t)
	c, err := NewTransmissionClient(http.DefaultClient, nil, inst)
	require.NoError(t, err)

	got, err := c.SessionSnapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.LiveSessionSnapshot{
		ActiveTransferCount: 2,
		DownloadSpeed:       1000,
		UploadSpeed:         200,
		Cumulative:          domain.SessionTotals{UploadedBytes: 10, DownloadedBytes: 20, SecondsActive: 30},
		Current:             domain.SessionTotals{UploadedBytes: 1, DownloadedBytes: 2, SecondsActive: 3},
	}, got)
}

func TestTransmissionClient_SessionSnapshot_MissingField(t *testing.T) {
	d, inst := newDaemon(t)
	d.update(func() { delete(d.stats, "current-stats") })
	c, err := NewTransmissionClient(http.DefaultClient, nil, inst)
	require.NoError(t, err)

	_, err = c.SessionSnapshot(context.Background())
	assert.True(t, errors.Is(err, domain.ErrInvalidSnapshot), "got %v", err)
}

func TestTransmissionClient_Unauthorized(t *testing.T) {
	_, inst := newDaemon(t)
	inst.Password = "wrong"
	c, err := NewTransmissionClient(http.DefaultClient, nil, inst)
	require.NoError(t, err)

	_, err = c.SessionSnapshot(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestTransmissionClient_TransportError(t *testing.T) {
	refused := errors.New("connect: connection refused")
	client := ports.HTTPClientFunc(func(*http.Request) (*http.Response, error) {
		return nil, refused
	})
	c, err := NewTransmissionClient(client, nil, domain.Instance{Name: "tr-1", URL: "http://tr-1:9091"})
	require.NoError(t, err)

	_, err = c.ListTransfers(context.Background(), domain.TransferQuery{})
	assert.ErrorIs(t, err, refused)
}

func TestTransmissionClient_SessionIDRejectedTwice(t *testing.T) {
	var calls int
	client := ports.HTTPClientFunc(func(req *http.Request) (*http.Response, error) {
		calls++
		return &http.Response{
			StatusCode: http.StatusConflict,
			Header:     http.Header{sessionIDHeader: []string{"sid-" + strings.Repeat("x", calls)}},
			Body:       io.NopCloser(strings.NewReader("")),
		}, nil
	})
	c, err := NewTransmissionClient(client, nil, domain.Instance{Name: "tr-1", URL: "http://tr-1:9091"})
	require.NoError(t, err)

	_, err = c.SessionSnapshot(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rejected twice")
	assert.Equal(t, 2, calls)
}

func TestRPCURL(t *testing.T) {
	tests := []struct {
		raw     string
		want    string
		wantErr bool
	}{
		{"http://host:9091", "http://host:9091/transmission/rpc", false},
		{"http://host:9091/", "http://host:9091/transmission/rpc", false},
		{"https://host/custom/rpc", "https://host/custom/rpc", false},
		{"ftp://host", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := rpcURL(tt.raw)
		if tt.wantErr {
			assert.Error(t, err, tt.raw)
			continue
		}
		require.NoError(t, err, tt.raw)
		assert.Equal(t, tt.want, got)
	}
}
