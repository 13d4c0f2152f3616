package engine

import (
	"fmt"
	"net/netip"

	"github.com/pranshuparmar/wgroutes/pkg/model"
)

// Resolve excludes every candidate block whose range contains the remote
// address of a connection in the snapshot. The whole block goes: within a
// coarse block the engine cannot tell which sub-range belongs to the target
// site and which to the unrelated session, so it trades coverage for the
// guarantee that no connection active at snapshot time gets pulled into the
// tunnel.
//
// Blocks are never removed, only flagged, and the flag never flips back.
// Each block's fate depends only on its own range and the snapshot, so the
// result is the same under any iteration order. Returns the number of blocks
// newly excluded.
func Resolve(agg *Aggregator, snap model.Snapshot) (int, error) {
	// Pick the lowest (addr, protocol, port) conflict per block first, so
	// the recorded cause is reproducible no matter how the snapshot was
	// ordered.
	lowest := make(map[netip.Prefix]model.Connection)
	for _, c := range snap.Connections {
		addr := c.Addr.Unmap()
		if !addr.Is4() {
			return 0, fmt.Errorf("snapshot: %w: %q", ErrNotIPv4, c.Addr)
		}
		c.Addr = addr

		key := agg.key(addr)
		if _, ok := agg.blocks[key]; !ok {
			continue
		}
		if cur, ok := lowest[key]; !ok || connLess(c, cur) {
			lowest[key] = c
		}
	}

	excluded := 0
	for key, c := range lowest {
		b := agg.blocks[key]
		if b.Status == model.StatusRetained {
			b.Exclude(c)
			excluded++
		}
	}
	return excluded, nil
}

func connLess(a, b model.Connection) bool {
	if a.Addr != b.Addr {
		return a.Addr.Less(b.Addr)
	}
	if a.Protocol != b.Protocol {
		return a.Protocol < b.Protocol
	}
	return a.Port < b.Port
}
