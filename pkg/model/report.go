package model

import (
	"net/netip"
	"time"
)

// Outcome classifies how a run ended. An empty allow-list is not an error,
// but "nothing was ever observed" and "everything was excluded" must not be
// confused with each other or with a normal result.
type Outcome string

const (
	OutcomeOK             Outcome = "ok"
	OutcomeNoObservations Outcome = "no_observations"
	OutcomeAllExcluded    Outcome = "all_excluded"
)

// Report is the full result of one generation run.
type Report struct {
	RunID       string
	GeneratedAt time.Time
	PrefixLen   int

	Resolved   map[string][]netip.Addr // hostname -> resolved addresses
	Unresolved map[string]string       // hostname -> failure reason

	Endpoints int      // endpoints accepted by the aggregator
	Blocks    []*Block // every candidate block, retained and excluded
	Snapshot  Snapshot

	// AllowList is the retained blocks' prefixes, ascending by network
	// address. Built once, after conflict resolution.
	AllowList []netip.Prefix
}

func (r *Report) Outcome() Outcome {
	switch {
	case r.Endpoints == 0:
		return OutcomeNoObservations
	case len(r.AllowList) == 0:
		return OutcomeAllExcluded
	default:
		return OutcomeOK
	}
}

// ExcludedBlocks returns the blocks dropped during conflict resolution,
// ascending by network address.
func (r *Report) ExcludedBlocks() []*Block {
	var out []*Block
	for _, b := range r.Blocks {
		if b.Status == StatusExcluded {
			out = append(out, b)
		}
	}
	return out
}
