package domain

// Operation names recorded in InstanceFailure.Op.
const (
	OpListTransfers   = "list-transfers"
	OpRefreshTransfer = "refresh-transfer"
	OpSessionStats    = "session-stats"
)

// InstanceFailure records one instance-level failure that was recovered
// locally during a fan-out.
type InstanceFailure struct {
	Instance string
	Op       string
	Err      error
}

// PartialFailure lists the failures behind an otherwise successful response.
// An empty PartialFailure means every instance responded.
type PartialFailure []InstanceFailure

// Empty reports whether every instance responded.
func (p PartialFailure) Empty() bool {
	return len(p) == 0
}

// Instances returns the distinct names of instances with at least one
// failure, in first-seen order.
func (p PartialFailure) Instances() []string {
	seen := make(map[string]struct{}, len(p))
	var names []string
	for _, f := range p {
		if _, ok := seen[f.Instance]; ok {
			continue
		}
		seen[f.Instance] = struct{}{}
		names = append(names, f.Instance)
	}
	return names
}
