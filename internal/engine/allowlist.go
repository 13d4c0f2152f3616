package engine

import (
	"net/netip"

	"github.com/pranshuparmar/wgroutes/pkg/model"
)

// AllowList returns the retained blocks' prefixes, ascending by network
// address. The order is canonical: it depends only on which blocks survived,
// not on ingestion or snapshot order. An empty slice is a valid result —
// callers distinguish "nothing observed" from "everything excluded" via the
// report outcome, not here.
func (a *Aggregator) AllowList() []netip.Prefix {
	var out []netip.Prefix
	for _, b := range a.Blocks() {
		if b.Status == model.StatusRetained {
			out = append(out, b.Prefix)
		}
	}
	return out
}
