package model

import (
	"fmt"
	"net/netip"
	"time"
)

const (
	ProtoTCP = "TCP"
	ProtoUDP = "UDP"
)

// Connection is one active socket's remote side at snapshot time.
type Connection struct {
	Protocol string // TCP or UDP
	Addr     netip.Addr
	Port     uint16
}

func (c Connection) String() string {
	return fmt.Sprintf("%s %s:%d", c.Protocol, c.Addr, c.Port)
}

// Snapshot is a point-in-time capture of the host's active connections.
// It is taken once per run, after ingestion completes, and never refreshed:
// connections that start later are outside the guarantee.
type Snapshot struct {
	TakenAt     time.Time
	Connections []Connection
}
