package domain

import "fmt"

// SessionTotals holds byte and duration totals for one accounting period.
type SessionTotals struct {
	UploadedBytes   int64
	DownloadedBytes int64
	SecondsActive   int64
}

// LiveSessionSnapshot is a point-in-time read of one instance's session counters.
type LiveSessionSnapshot struct {
	ActiveTransferCount int64
	DownloadSpeed       int64
	UploadSpeed         int64

	// Cumulative covers the lifetime of the client
	Cumulative SessionTotals

	// Current covers the running session
	Current SessionTotals
}

// Validate rejects snapshots with negative counters.
func (s LiveSessionSnapshot) Validate() error {
	fields := []struct {
		name  string
		value int64
	}{
		{"activeTorrentCount", s.ActiveTransferCount},
		{"downloadSpeed", s.DownloadSpeed},
		{"uploadSpeed", s.UploadSpeed},
		{"cumulative.uploadedBytes", s.Cumulative.UploadedBytes},
		{"cumulative.downloadedBytes", s.Cumulative.DownloadedBytes},
		{"cumulative.secondsActive", s.Cumulative.SecondsActive},
		{"current.uploadedBytes", s.Current.UploadedBytes},
		{"current.downloadedBytes", s.Current.DownloadedBytes},
		{"current.secondsActive", s.Current.SecondsActive},
	}
	for _, f := range fields {
		if f.value < 0 {
			return fmt.Errorf("%w: %s is negative (%d)", ErrInvalidSnapshot, f.name, f.value)
		}
	}
	return nil
}

// InstanceSnapshot pairs a snapshot with the instance that produced it.
// Err is set when the snapshot could not be fetched; Snapshot is then zero.
type InstanceSnapshot struct {
	Instance string
	Snapshot LiveSessionSnapshot
	Err      error
}

// Failed reports whether the snapshot call failed.
func (s InstanceSnapshot) Failed() bool {
	return s.Err != nil
}

// AggregateStats is the reduction of every snapshot in a replica set.
type AggregateStats struct {
	// Instances is the number of snapshots folded in
	Instances int

	ActiveTransferCount  int64
	TotalUploadedBytes   int64
	TotalDownloadedBytes int64
	UploadedBytes        int64
	DownloadedBytes      int64
	UploadSpeed          int64
	DownloadSpeed        int64
	TotalSecondsActive   int64
	SecondsActive        int64
}

// Add folds one snapshot into the accumulator and returns the result.
// Byte, speed and count fields are additive across instances. Seconds-active
// fields measure a shared wall-clock session, so they keep the running max.
func (a AggregateStats) Add(s LiveSessionSnapshot) AggregateStats {
	a.Instances++
	a.ActiveTransferCount += s.ActiveTransferCount
	a.TotalUploadedBytes += s.Cumulative.UploadedBytes
	a.TotalDownloadedBytes += s.Cumulative.DownloadedBytes
	a.UploadedBytes += s.Current.UploadedBytes
	a.DownloadedBytes += s.Current.DownloadedBytes
	a.UploadSpeed += s.UploadSpeed
	a.DownloadSpeed += s.DownloadSpeed
	a.TotalSecondsActive = max(a.TotalSecondsActive, s.Cumulative.SecondsActive)
	a.SecondsActive = max(a.SecondsActive, s.Current.SecondsActive)
	return a
}

// Reduce folds every successful snapshot into a fresh AggregateStats.
// Failed snapshots are skipped entirely.
func Reduce(snapshots []InstanceSnapshot) AggregateStats {
	var agg AggregateStats
	for _, s := range snapshots {
		if s.Failed() {
			continue
		}
		agg = agg.Add(s.Snapshot)
	}
	return agg
}
