package model

import (
	"net/netip"
	"sort"
)

type BlockStatus string

const (
	StatusRetained BlockStatus = "retained"
	StatusExcluded BlockStatus = "excluded"
)

// Block is a candidate network range: an address masked to a fixed prefix
// length, the endpoints that mapped into it, and whether it survived
// conflict resolution. Excluded blocks stay in the set so the reason a range
// was dropped remains visible.
type Block struct {
	Prefix       netip.Prefix
	Status       BlockStatus
	Contributors map[netip.Addr]Endpoint
	ExcludedBy   *Connection // lowest conflicting connection, nil while retained
}

// Exclude flips the block to excluded. The transition happens at most once;
// later conflicts never replace the recorded cause, and nothing flips a
// block back.
func (b *Block) Exclude(c Connection) {
	if b.Status == StatusExcluded {
		return
	}
	b.Status = StatusExcluded
	b.ExcludedBy = &c
}

// Hostnames returns the distinct contributor hostnames, sorted, so block
// attribution does not depend on insertion order.
func (b *Block) Hostnames() []string {
	seen := make(map[string]struct{})
	for _, ep := range b.Contributors {
		if ep.Hostname != "" {
			seen[ep.Hostname] = struct{}{}
		}
	}
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Addrs returns the contributor addresses in ascending order.
func (b *Block) Addrs() []netip.Addr {
	addrs := make([]netip.Addr, 0, len(b.Contributors))
	for a := range b.Contributors {
		addrs = append(addrs, a)
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i].Less(addrs[j]) })
	return addrs
}
