package domain

import (
	"fmt"
	"time"
)

// TransferRecord is one torrent's state as reported by one instance.
// Records are owned by the reporting instance; the engine only reorders and
// filters copies.
type TransferRecord struct {
	// Instance is the name of the instance that reported the record
	Instance string

	// ID is the content identifier, unique within the owning instance
	ID int64

	// HashString is the torrent info-hash
	HashString string

	// Name is the torrent display name
	Name string

	// PercentDone is the completion fraction in [0, 1]
	PercentDone float64

	// Error is the client error code; zero means no error
	Error int

	// ErrorString is the client's description of Error
	ErrorString string

	// AddedAt is when the torrent was added to the instance
	AddedAt time.Time

	SizeWhenDone   int64
	LeftUntilDone  int64
	DownloadedEver int64
	UploadedEver   int64
	RateDownload   int64
	RateUpload     int64
}

// Done reports whether the transfer has completed.
func (r TransferRecord) Done() bool {
	return r.PercentDone >= 1
}

// Errored reports whether the client flagged the transfer with an error.
func (r TransferRecord) Errored() bool {
	return r.Error != 0
}

// PlaylistName returns the player playlist identifier for the record.
func (r TransferRecord) PlaylistName() string {
	return fmt.Sprintf("what/%d", r.ID)
}

// DoneFilter selects records by completion.
type DoneFilter int

const (
	AnyDone DoneFilter = iota
	OnlyDone
	OnlyNotDone
)

// ErrorFilter selects records by error indicator.
type ErrorFilter int

const (
	AnyError ErrorFilter = iota
	OnlyErrored
)

// Order is the per-instance ordering requested from a client.
type Order int

const (
	// Unordered leaves records in the client's native order.
	Unordered Order = iota
	AddedAsc
	AddedDesc
)

// TransferQuery describes one listTransfers call against an instance.
// A Limit of zero means no limit.
type TransferQuery struct {
	Done  DoneFilter
	Error ErrorFilter
	Order Order
	Limit int
}

// Match reports whether r passes the query's filters.
func (q TransferQuery) Match(r TransferRecord) bool {
	switch q.Done {
	case OnlyDone:
		if !r.Done() {
			return false
		}
	case OnlyNotDone:
		if r.Done() {
			return false
		}
	}
	if q.Error == OnlyErrored && !r.Errored() {
		return false
	}
	return true
}
