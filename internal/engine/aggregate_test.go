package engine

import (
	"math/rand"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pranshuparmar/wgroutes/pkg/model"
)

func ep(addr, hostname, source string) model.Endpoint {
	return model.Endpoint{
		Addr:     netip.MustParseAddr(addr),
		Hostname: hostname,
		Source:   source,
	}
}

func TestPrefixLengthValidation(t *testing.T) {
	for _, bits := range []int{-1, 33, 100} {
		_, err := NewAggregator(bits)
		assert.ErrorIs(t, err, ErrPrefixLength, "bits=%d", bits)
	}
	for _, bits := range []int{0, 16, 32} {
		_, err := NewAggregator(bits)
		assert.NoError(t, err, "bits=%d", bits)
	}
}

func TestFixedPrefixPartition(t *testing.T) {
	addrs := []string{"0.0.0.0", "10.0.0.1", "192.168.1.195", "219.1.5.10", "255.255.255.255"}
	for _, bits := range []int{0, 8, 16, 24, 32} {
		key := FixedPrefixKey(bits)
		seen := make(map[netip.Prefix]struct{})
		for _, s := range addrs {
			a := netip.MustParseAddr(s)
			k := key(a)
			assert.True(t, k.Contains(a), "key %s must contain %s", k, a)
			assert.Equal(t, k, key(a), "mapping must be deterministic")
			seen[k] = struct{}{}
		}
		keys := make([]netip.Prefix, 0, len(seen))
		for k := range seen {
			keys = append(keys, k)
		}
		for i := range keys {
			for j := i + 1; j < len(keys); j++ {
				assert.False(t, keys[i].Overlaps(keys[j]),
					"distinct keys %s and %s must not overlap", keys[i], keys[j])
			}
		}
	}
}

func TestRejectsNonIPv4(t *testing.T) {
	agg, err := NewAggregator(16)
	require.NoError(t, err)

	err = agg.Add(model.Endpoint{Addr: netip.MustParseAddr("2606:4700::1"), Hostname: "x.y"})
	assert.ErrorIs(t, err, ErrNotIPv4)
	assert.Empty(t, agg.Blocks(), "rejected endpoint must not materialize a block")

	// 4-in-6 mapped addresses are still IPv4.
	err = agg.Add(model.Endpoint{Addr: netip.MustParseAddr("::ffff:1.2.3.4")})
	assert.NoError(t, err)
	require.Len(t, agg.Blocks(), 1)
	assert.Equal(t, netip.MustParsePrefix("1.2.0.0/16"), agg.Blocks()[0].Prefix)
}

func TestDuplicateAddressesCollapse(t *testing.T) {
	agg, err := NewAggregator(16)
	require.NoError(t, err)

	require.NoError(t, agg.Add(ep("10.0.0.1", "a.example", "one.har")))
	require.NoError(t, agg.Add(ep("10.0.255.255", "a.example", "one.har")))
	require.NoError(t, agg.Add(ep("10.0.0.1", "a.example", "two.har")))

	blocks := agg.Blocks()
	require.Len(t, blocks, 1)
	assert.Equal(t, netip.MustParsePrefix("10.0.0.0/16"), blocks[0].Prefix)
	assert.Len(t, blocks[0].Contributors, 2)
	assert.Equal(t, 2, agg.Endpoints())
}

func TestHostnameAttributionIsOrderIndependent(t *testing.T) {
	feed := func(first, second string) string {
		agg, err := NewAggregator(16)
		require.NoError(t, err)
		require.NoError(t, agg.Add(ep("1.2.3.4", first, "s")))
		require.NoError(t, agg.Add(ep("1.2.3.4", second, "s")))
		b := agg.Blocks()[0]
		return b.Contributors[netip.MustParseAddr("1.2.3.4")].Hostname
	}

	assert.Equal(t, "a.example", feed("a.example", "b.example"))
	assert.Equal(t, "a.example", feed("b.example", "a.example"))
	assert.Equal(t, "a.example", feed("", "a.example"))
	assert.Equal(t, "a.example", feed("a.example", ""))
}

func TestAggregationOrderIndependent(t *testing.T) {
	eps := []model.Endpoint{
		ep("219.1.5.10", "site.example", "a.har"),
		ep("219.1.8.2", "site.example", "a.har"),
		ep("193.10.44.3", "cdn.example", "b.har"),
		ep("10.0.0.1", "img.example", "b.har"),
		ep("10.0.255.255", "img.example", "a.har"),
	}

	want := aggregateFlat(t, eps)
	for i := 0; i < 10; i++ {
		shuffled := append([]model.Endpoint(nil), eps...)
		rand.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		assert.Equal(t, want, aggregateFlat(t, shuffled))
	}
}

func TestShardedMergeMatchesSequential(t *testing.T) {
	eps := []model.Endpoint{
		ep("219.1.5.10", "site.example", "a.har"),
		ep("219.1.8.2", "site.example", "b.har"),
		ep("193.10.44.3", "cdn.example", "b.har"),
		ep("193.10.2.9", "cdn.example", "a.har"),
		ep("8.8.8.8", "dns.example", "a.har"),
	}
	want := aggregateFlat(t, eps)

	// One shard per source, merged in both orders.
	shardA, err := NewAggregator(16)
	require.NoError(t, err)
	shardB, err := NewAggregator(16)
	require.NoError(t, err)
	for _, e := range eps {
		target := shardA
		if e.Source == "b.har" {
			target = shardB
		}
		require.NoError(t, target.Add(e))
	}

	merged, err := NewAggregator(16)
	require.NoError(t, err)
	merged.Merge(shardB)
	merged.Merge(shardA)
	assert.Equal(t, want, flatten(merged))

	merged2, err := NewAggregator(16)
	require.NoError(t, err)
	merged2.Merge(shardA)
	merged2.Merge(shardB)
	assert.Equal(t, want, flatten(merged2))
}

// aggregateFlat aggregates eps and flattens the result into a comparable
// form: prefix -> contributor addr -> hostname.
func aggregateFlat(t *testing.T, eps []model.Endpoint) map[netip.Prefix]map[netip.Addr]string {
	t.Helper()
	agg, err := NewAggregator(16)
	require.NoError(t, err)
	for _, e := range eps {
		require.NoError(t, agg.Add(e))
	}
	return flatten(agg)
}

func flatten(agg *Aggregator) map[netip.Prefix]map[netip.Addr]string {
	out := make(map[netip.Prefix]map[netip.Addr]string)
	for _, b := range agg.Blocks() {
		m := make(map[netip.Addr]string)
		for a, e := range b.Contributors {
			m[a] = e.Hostname
		}
		out[b.Prefix] = m
	}
	return out
}
