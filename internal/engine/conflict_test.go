package engine

import (
	"math/rand"
	"net/netip"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pranshuparmar/wgroutes/pkg/model"
)

func conn(proto, addr string, port uint16) model.Connection {
	return model.Connection{Protocol: proto, Addr: netip.MustParseAddr(addr), Port: port}
}

func snap(conns ...model.Connection) model.Snapshot {
	return model.Snapshot{TakenAt: time.Now(), Connections: conns}
}

func siteAggregator(t *testing.T) *Aggregator {
	t.Helper()
	agg, err := NewAggregator(16)
	require.NoError(t, err)
	for _, e := range []model.Endpoint{
		ep("219.1.5.10", "site.example", "a.har"),
		ep("219.1.8.2", "site.example", "a.har"),
		ep("193.10.44.3", "cdn.example", "a.har"),
	} {
		require.NoError(t, agg.Add(e))
	}
	return agg
}

func TestEmptySnapshotExcludesNothing(t *testing.T) {
	agg := siteAggregator(t)

	n, err := Resolve(agg, snap())
	require.NoError(t, err)
	assert.Zero(t, n)

	assert.Equal(t, []netip.Prefix{
		netip.MustParsePrefix("193.10.0.0/16"),
		netip.MustParsePrefix("219.1.0.0/16"),
	}, agg.AllowList())
}

func TestConflictExcludesWholeBlock(t *testing.T) {
	agg := siteAggregator(t)

	n, err := Resolve(agg, snap(conn(model.ProtoTCP, "219.1.200.5", 443)))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	assert.Equal(t, []netip.Prefix{
		netip.MustParsePrefix("193.10.0.0/16"),
	}, agg.AllowList())

	// The dropped block stays in the set, flagged with its cause.
	var excluded *model.Block
	for _, b := range agg.Blocks() {
		if b.Status == model.StatusExcluded {
			excluded = b
		}
	}
	require.NotNil(t, excluded)
	assert.Equal(t, netip.MustParsePrefix("219.1.0.0/16"), excluded.Prefix)
	require.NotNil(t, excluded.ExcludedBy)
	assert.Equal(t, conn(model.ProtoTCP, "219.1.200.5", 443), *excluded.ExcludedBy)
}

func TestConflictCompleteness(t *testing.T) {
	agg := siteAggregator(t)

	// No observation masks into a candidate key: nothing may be excluded.
	n, err := Resolve(agg, snap(
		conn(model.ProtoTCP, "8.8.8.8", 53),
		conn(model.ProtoUDP, "192.168.1.1", 123),
	))
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Len(t, agg.AllowList(), 2)
}

func TestExclusionIsMonotonicAndIdempotent(t *testing.T) {
	agg := siteAggregator(t)

	s := snap(
		conn(model.ProtoTCP, "219.1.200.5", 443),
		conn(model.ProtoUDP, "219.1.3.3", 53),
		conn(model.ProtoTCP, "219.1.200.5", 443),
	)
	n, err := Resolve(agg, s)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "multiple conflicts exclude the block once")

	// Re-resolving changes nothing and flips nothing back.
	n, err = Resolve(agg, s)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, []netip.Prefix{netip.MustParsePrefix("193.10.0.0/16")}, agg.AllowList())
}

func TestExclusionCauseIsDeterministic(t *testing.T) {
	conns := []model.Connection{
		conn(model.ProtoUDP, "219.1.3.3", 53),
		conn(model.ProtoTCP, "219.1.3.3", 22),
		conn(model.ProtoTCP, "219.1.200.5", 443),
	}
	want := conn(model.ProtoTCP, "219.1.3.3", 22) // lowest (addr, proto, port)

	for i := 0; i < 10; i++ {
		shuffled := append([]model.Connection(nil), conns...)
		rand.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })

		agg := siteAggregator(t)
		_, err := Resolve(agg, snap(shuffled...))
		require.NoError(t, err)

		for _, b := range agg.Blocks() {
			if b.Status == model.StatusExcluded {
				require.NotNil(t, b.ExcludedBy)
				assert.Equal(t, want, *b.ExcludedBy)
			}
		}
	}
}

func TestSnapshotNonIPv4IsContractViolation(t *testing.T) {
	agg := siteAggregator(t)
	_, err := Resolve(agg, snap(conn(model.ProtoTCP, "2606:4700::1", 443)))
	assert.ErrorIs(t, err, ErrNotIPv4)
}

func TestSingleEndpointFullyExcluded(t *testing.T) {
	agg, err := NewAggregator(16)
	require.NoError(t, err)
	require.NoError(t, agg.Add(ep("1.2.3.4", "only.example", "a.har")))

	n, err := Resolve(agg, snap(conn(model.ProtoUDP, "1.2.3.4", 53)))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Empty(t, agg.AllowList())
	assert.Equal(t, 1, agg.Endpoints(), "observed endpoints stay counted, distinguishing this from an empty run")
}
