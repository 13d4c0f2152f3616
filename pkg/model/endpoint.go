package model

import "net/netip"

// Endpoint is a single resolved IPv4 address observed in captured website
// traffic. Immutable once created; duplicates by address are allowed and
// collapse during aggregation.
type Endpoint struct {
	Addr     netip.Addr
	Hostname string // hostname the address was resolved from, if any
	Source   string // provenance: capture file or pass that produced it
}
