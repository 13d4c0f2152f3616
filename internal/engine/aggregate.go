// Package engine turns observed website endpoints into a minimal set of
// networks safe to route through a tunnel. Endpoints aggregate into
// fixed-prefix blocks, blocks that contain an already-active connection are
// excluded, and the survivors form the allow-list.
package engine

import (
	"errors"
	"fmt"
	"net/netip"
	"sort"

	"github.com/pranshuparmar/wgroutes/pkg/model"
)

var (
	ErrPrefixLength = errors.New("prefix length out of range (want 0-32)")
	ErrNotIPv4      = errors.New("not an IPv4 address")
)

// KeyFunc maps an address to the network block it belongs to. For any fixed
// policy the mapping must be total and deterministic, and distinct keys must
// never overlap. Swapping in a registry-backed policy with variable prefix
// lengths changes nothing downstream.
type KeyFunc func(netip.Addr) netip.Prefix

// FixedPrefixKey masks every address to the same prefix length. The keys at
// a given length partition the IPv4 space with no gaps or overlaps.
func FixedPrefixKey(bits int) KeyFunc {
	return func(a netip.Addr) netip.Prefix {
		p, _ := a.Prefix(bits)
		return p
	}
}

// Aggregator folds endpoints into candidate blocks. It only materializes
// keys that were actually observed. Aggregation is a pure set union, so
// partial aggregators built from disjoint shards merge into the same result
// as sequential feeding.
type Aggregator struct {
	key    KeyFunc
	blocks map[netip.Prefix]*model.Block
}

// NewAggregator builds an aggregator masking to prefixLen bits.
// Out-of-range lengths are rejected here, never clamped.
func NewAggregator(prefixLen int) (*Aggregator, error) {
	if prefixLen < 0 || prefixLen > 32 {
		return nil, fmt.Errorf("%w: %d", ErrPrefixLength, prefixLen)
	}
	return NewAggregatorWithKey(FixedPrefixKey(prefixLen)), nil
}

func NewAggregatorWithKey(key KeyFunc) *Aggregator {
	return &Aggregator{
		key:    key,
		blocks: make(map[netip.Prefix]*model.Block),
	}
}

// Add folds one endpoint into its block, creating the block on first sight.
// Non-IPv4 addresses violate the ingestion contract and are reported, not
// masked over. Duplicate addresses collapse; when the same address arrives
// under several hostnames the lexicographically smallest wins, so the result
// does not depend on arrival order.
func (a *Aggregator) Add(ep model.Endpoint) error {
	addr := ep.Addr.Unmap()
	if !addr.Is4() {
		return fmt.Errorf("%w: %q", ErrNotIPv4, ep.Addr)
	}
	ep.Addr = addr

	key := a.key(addr)
	b, ok := a.blocks[key]
	if !ok {
		b = &model.Block{
			Prefix:       key,
			Status:       model.StatusRetained,
			Contributors: make(map[netip.Addr]model.Endpoint),
		}
		a.blocks[key] = b
	}

	if prev, seen := b.Contributors[addr]; seen {
		if preferred(ep, prev) {
			b.Contributors[addr] = ep
		}
		return nil
	}
	b.Contributors[addr] = ep
	return nil
}

// preferred reports whether a should replace b as the record kept for a
// duplicated address. Non-empty hostnames win, then the smaller hostname,
// then the smaller source, so attribution never depends on arrival order.
func preferred(a, b model.Endpoint) bool {
	if (a.Hostname != "") != (b.Hostname != "") {
		return a.Hostname != ""
	}
	if a.Hostname != b.Hostname {
		return a.Hostname < b.Hostname
	}
	return a.Source < b.Source
}

// Merge unions another aggregator's blocks into this one. Both sides must
// share the key policy. Merging is commutative and associative, which is
// what makes sharded aggregation equivalent to sequential aggregation.
func (a *Aggregator) Merge(other *Aggregator) {
	for key, ob := range other.blocks {
		b, ok := a.blocks[key]
		if !ok {
			b = &model.Block{
				Prefix:       key,
				Status:       ob.Status,
				Contributors: make(map[netip.Addr]model.Endpoint),
				ExcludedBy:   ob.ExcludedBy,
			}
			a.blocks[key] = b
		}
		for addr, ep := range ob.Contributors {
			if prev, seen := b.Contributors[addr]; seen {
				if preferred(ep, prev) {
					b.Contributors[addr] = ep
				}
				continue
			}
			b.Contributors[addr] = ep
		}
	}
}

// Endpoints reports the number of distinct contributing addresses.
func (a *Aggregator) Endpoints() int {
	n := 0
	for _, b := range a.blocks {
		n += len(b.Contributors)
	}
	return n
}

// Blocks returns every candidate block, retained and excluded, ascending by
// network address.
func (a *Aggregator) Blocks() []*model.Block {
	out := make([]*model.Block, 0, len(a.blocks))
	for _, b := range a.blocks {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Prefix.Addr().Less(out[j].Prefix.Addr())
	})
	return out
}
