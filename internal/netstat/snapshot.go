// Package netstat captures the host's active TCP and UDP connections as a
// single point-in-time snapshot. The snapshot is taken once per run, after
// ingestion, and handed to conflict resolution as an immutable input —
// connections that start later fall outside the tool's guarantee.
package netstat
