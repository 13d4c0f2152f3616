//go:build darwin

package netstat

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pranshuparmar/wgroutes/pkg/model"
)

func TestParseNetstatLine(t *testing.T) {
	c, ok := parseNetstatLine("tcp4       0      0  192.168.1.5.52104      142.250.74.132.443     ESTABLISHED")
	require.True(t, ok)
	assert.Equal(t, model.Connection{
		Protocol: model.ProtoTCP,
		Addr:     netip.MustParseAddr("142.250.74.132"),
		Port:     443,
	}, c)

	_, ok = parseNetstatLine("udp4       0      0  *.5353                 *.*")
	assert.False(t, ok)

	_, ok = parseNetstatLine("tcp6       0      0  fe80::1.52104          fe80::2.443            ESTABLISHED")
	assert.False(t, ok)

	_, ok = parseNetstatLine("Proto Recv-Q Send-Q  Local Address          Foreign Address        (state)")
	assert.False(t, ok)
}
