package domain

import (
	"fmt"
	"time"
)

// SearchHit is a content identifier with its full-text relevance score.
// Higher scores are more relevant.
type SearchHit struct {
	ID    int64
	Score float64
}

// HitIDs returns the identifiers of hits in order.
func HitIDs(hits []SearchHit) []int64 {
	ids := make([]int64, len(hits))
	for i, h := range hits {
		ids[i] = h.ID
	}
	return ids
}

// ContentRecord is a durable catalog entry.
type ContentRecord struct {
	ID      int64
	Name    string
	Info    string
	Size    int64
	AddedAt time.Time
}

// PlaylistName returns the player playlist identifier for the record.
func (c ContentRecord) PlaylistName() string {
	return fmt.Sprintf("what/%d", c.ID)
}
