package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/bft-labs/torrentfleet/internal/domain"
	"github.com/bft-labs/torrentfleet/internal/ports"
	"github.com/bft-labs/torrentfleet/pkg/log"
)

const (
	rpcEndpoint     = "/transmission/rpc"
	sessionIDHeader = "X-Transmission-Session-Id"
)

var torrentFields = []string{
	"id", "hashString", "name", "percentDone", "error", "errorString",
	"addedDate", "sizeWhenDone", "leftUntilDone", "downloadedEver",
	"uploadedEver", "rateDownload", "rateUpload",
}

// TransmissionClient implements ports.InstanceClient against the
// Transmission RPC protocol.
type TransmissionClient struct {
	client   ports.HTTPClient
	logger   ports.Logger
	instance string
	endpoint string
	username string
	password string

	mu        sync.Mutex
	sessionID string
}

// NewTransmissionClient creates a client for inst. The instance URL may be
// the daemon root or the full RPC endpoint.
func NewTransmissionClient(client ports.HTTPClient, logger ports.Logger, inst domain.Instance) (*TransmissionClient, error) {
	endpoint, err := rpcURL(inst.URL)
	if err != nil {
		return nil, fmt.Errorf("instance %s: %w", inst.Name, err)
	}
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &TransmissionClient{
		client:   client,
		logger:   logger,
		instance: inst.Name,
		endpoint: endpoint,
		username: inst.Username,
		password: inst.Password,
	}, nil
}

func rpcURL(raw string) (string, error) {
	if raw == "" {
		return "", errors.New("instance url is empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse instance url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported instance url scheme %q", u.Scheme)
	}
	if u.Path == "" || u.Path == "/" {
		u.Path = rpcEndpoint
	}
	return u.String(), nil
}

// ClientFactory builds TransmissionClients sharing one HTTP client. Clients
// are kept per instance name so the negotiated session ID survives across
// calls; a member whose address or credentials change gets a new client.
type ClientFactory struct {
	client ports.HTTPClient
	logger ports.Logger

	mu      sync.Mutex
	clients map[string]cachedClient
}

type cachedClient struct {
	inst   domain.Instance
	client *TransmissionClient
}

// NewClientFactory creates a factory. A nil client uses an *http.Client
// with the given timeout.
func NewClientFactory(client ports.HTTPClient, timeout time.Duration, logger ports.Logger) *ClientFactory {
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	return &ClientFactory{
		client:  client,
		logger:  logger,
		clients: make(map[string]cachedClient),
	}
}

// Client implements ports.ClientFactory.
func (f *ClientFactory) Client(inst domain.Instance) (ports.InstanceClient, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if cached, ok := f.clients[inst.Name]; ok && cached.inst == inst {
		return cached.client, nil
	}
	c, err := NewTransmissionClient(f.client, f.logger, inst)
	if err != nil {
		delete(f.clients, inst.Name)
		return nil, err
	}
	f.clients[inst.Name] = cachedClient{inst: inst, client: c}
	return c, nil
}

type rpcRequest struct {
	Method    string `json:"method"`
	Arguments any    `json:"arguments,omitempty"`
}

type rpcResponse struct {
	Result    string          `json:"result"`
	Arguments json.RawMessage `json:"arguments"`
}

type torrentGetArgs struct {
	Fields []string `json:"fields"`
	IDs    []int64  `json:"ids,omitempty"`
}

type wireTorrent struct {
	ID             int64   `json:"id"`
	HashString     string  `json:"hashString"`
	Name           string  `json:"name"`
	PercentDone    float64 `json:"percentDone"`
	Error          int     `json:"error"`
	ErrorString    string  `json:"errorString"`
	AddedDate      int64   `json:"addedDate"`
	SizeWhenDone   int64   `json:"sizeWhenDone"`
	LeftUntilDone  int64   `json:"leftUntilDone"`
	DownloadedEver int64   `json:"downloadedEver"`
	UploadedEver   int64   `json:"uploadedEver"`
	RateDownload   int64   `json:"rateDownload"`
	RateUpload     int64   `json:"rateUpload"`
}

func (t wireTorrent) toRecord(instance string) domain.TransferRecord {
	return domain.TransferRecord{
		Instance:       instance,
		ID:             t.ID,
		HashString:     t.HashString,
		Name:           t.Name,
		PercentDone:    t.PercentDone,
		Error:          t.Error,
		ErrorString:    t.ErrorString,
		AddedAt:        time.Unix(t.AddedDate, 0).UTC(),
		SizeWhenDone:   t.SizeWhenDone,
		LeftUntilDone:  t.LeftUntilDone,
		DownloadedEver: t.DownloadedEver,
		UploadedEver:   t.UploadedEver,
		RateDownload:   t.RateDownload,
		RateUpload:     t.RateUpload,
	}
}

type wireTotals struct {
	UploadedBytes   *int64 `json:"uploadedBytes"`
	DownloadedBytes *int64 `json:"downloadedBytes"`
	SecondsActive   *int64 `json:"secondsActive"`
}

type wireSessionStats struct {
	ActiveTorrentCount *int64      `json:"activeTorrentCount"`
	DownloadSpeed      *int64      `json:"downloadSpeed"`
	UploadSpeed        *int64      `json:"uploadSpeed"`
	Cumulative         *wireTotals `json:"cumulative-stats"`
	Current            *wireTotals `json:"current-stats"`
}

// ListTransfers fetches every torrent and applies q client side; the RPC
// protocol has no server-side filtering.
func (c *TransmissionClient) ListTransfers(ctx context.Context, q domain.TransferQuery) ([]domain.TransferRecord, error) {
	torrents, err := c.torrentGet(ctx, nil)
	if err != nil {
		return nil, err
	}

	var out []domain.TransferRecord
	for _, t := range torrents {
		r := t.toRecord(c.instance)
		if q.Match(r) {
			out = append(out, r)
		}
	}
	switch q.Order {
	case domain.AddedAsc:
		slices.SortStableFunc(out, func(a, b domain.TransferRecord) int { return a.AddedAt.Compare(b.AddedAt) })
	case domain.AddedDesc:
		slices.SortStableFunc(out, func(a, b domain.TransferRecord) int { return b.AddedAt.Compare(a.AddedAt) })
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

// RefreshTransfer re-reads one torrent by ID.
func (c *TransmissionClient) RefreshTransfer(ctx context.Context, rec domain.TransferRecord) (domain.TransferRecord, error) {
	torrents, err := c.torrentGet(ctx, []int64{rec.ID})
	if err != nil {
		return domain.TransferRecord{}, err
	}
	for _, t := range torrents {
		if t.ID == rec.ID {
			return t.toRecord(c.instance), nil
		}
	}
	return domain.TransferRecord{}, fmt.Errorf("torrent %d not found on %s", rec.ID, c.instance)
}

// SessionSnapshot fetches session-stats and validates that every counter is
// present and non-negative.
func (c *TransmissionClient) SessionSnapshot(ctx context.Context) (domain.LiveSessionSnapshot, error) {
	var w wireSessionStats
	if err := c.call(ctx, "session-stats", nil, &w); err != nil {
		return domain.LiveSessionSnapshot{}, err
	}
	return w.toSnapshot()
}

func (w wireSessionStats) toSnapshot() (domain.LiveSessionSnapshot, error) {
	var missing []string
	need := func(name string, v *int64) int64 {
		if v == nil {
			missing = append(missing, name)
			return 0
		}
		return *v
	}
	totals := func(prefix string, t *wireTotals) domain.SessionTotals {
		if t == nil {
			missing = append(missing, prefix)
			return domain.SessionTotals{}
		}
		return domain.SessionTotals{
			UploadedBytes:   need(prefix+".uploadedBytes", t.UploadedBytes),
			DownloadedBytes: need(prefix+".downloadedBytes", t.DownloadedBytes),
			SecondsActive:   need(prefix+".secondsActive", t.SecondsActive),
		}
	}

	s := domain.LiveSessionSnapshot{
		ActiveTransferCount: need("activeTorrentCount", w.ActiveTorrentCount),
		DownloadSpeed:       need("downloadSpeed", w.DownloadSpeed),
		UploadSpeed:         need("uploadSpeed", w.UploadSpeed),
		Cumulative:          totals("cumulative-stats", w.Cumulative),
		Current:             totals("current-stats", w.Current),
	}
	if len(missing) > 0 {
		return domain.LiveSessionSnapshot{}, fmt.Errorf("%w: missing %s", domain.ErrInvalidSnapshot, strings.Join(missing, ", "))
	}
	if err := s.Validate(); err != nil {
		return domain.LiveSessionSnapshot{}, err
	}
	return s, nil
}

func (c *TransmissionClient) torrentGet(ctx context.Context, ids []int64) ([]wireTorrent, error) {
	var out struct {
		Torrents []wireTorrent `json:"torrents"`
	}
	if err := c.call(ctx, "torrent-get", torrentGetArgs{Fields: torrentFields, IDs: ids}, &out); err != nil {
		return nil, err
	}
	return out.Torrents, nil
}

// call performs one RPC, repeating it once when the daemon hands out a new
// session ID with 409 Conflict.
func (c *TransmissionClient) call(ctx context.Context, method string, args any, dst any) error {
	payload, err := json.Marshal(rpcRequest{Method: method, Arguments: args})
	if err != nil {
		return fmt.Errorf("marshal %s: %w", method, err)
	}

	for attempt := 0; attempt < 2; attempt++ {
		resp, err := c.do(ctx, payload)
		if err != nil {
			return fmt.Errorf("%s: %w", method, err)
		}

		if resp.StatusCode == http.StatusConflict {
			id := resp.Header.Get(sessionIDHeader)
			drain(resp)
			if id == "" {
				return fmt.Errorf("%s: 409 without session id", method)
			}
			c.setSessionID(id)
			c.logger.Debug("transmission session id renewed", ports.Instance(c.instance))
			continue
		}

		return decodeResponse(resp, method, dst)
	}
	return fmt.Errorf("%s: session id rejected twice", method)
}

func (c *TransmissionClient) do(ctx context.Context, payload []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if id := c.getSessionID(); id != "" {
		req.Header.Set(sessionIDHeader, id)
	}
	if c.username != "" || c.password != "" {
		req.SetBasicAuth(c.username, c.password)
	}
	return c.client.Do(req)
}

func decodeResponse(resp *http.Response, method string, dst any) error {
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s: server returned %d: %s", method, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var r rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return fmt.Errorf("%s: decode response: %w", method, err)
	}
	if r.Result != "success" {
		return fmt.Errorf("%s: rpc result %q", method, r.Result)
	}
	if dst == nil || len(r.Arguments) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Arguments, dst); err != nil {
		return fmt.Errorf("%s: decode arguments: %w", method, err)
	}
	return nil
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}

func (c *TransmissionClient) getSessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

func (c *TransmissionClient) setSessionID(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessionID = id
}
