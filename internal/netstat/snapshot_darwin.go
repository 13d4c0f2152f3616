//go:build darwin

package netstat

import (
	"net/netip"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/pranshuparmar/wgroutes/pkg/model"
)

// Take shells out to netstat for the IPv4 socket tables.
func Take() (model.Snapshot, error) {
	out, err := exec.Command("netstat", "-n", "-f", "inet").Output()
	if err != nil {
		return model.Snapshot{}, err
	}
	snap := model.Snapshot{TakenAt: time.Now()}
	for _, line := range strings.Split(string(out), "\n") {
		if c, ok := parseNetstatLine(line); ok {
			snap.Connections = append(snap.Connections, c)
		}
	}
	return snap, nil
}

// parseNetstatLine handles rows like
//
//	tcp4  0  0  192.168.1.5.52104  142.250.74.132.443  ESTABLISHED
//
// macOS netstat joins address and port with a dot.
func parseNetstatLine(line string) (model.Connection, bool) {
	fields := strings.Fields(line)
	if len(fields) < 5 {
		return model.Connection{}, false
	}

	var proto string
	switch fields[0] {
	case "tcp4":
		proto = model.ProtoTCP
	case "udp4":
		proto = model.ProtoUDP
	default:
		return model.Connection{}, false
	}

	addr, port, ok := splitDottedAddr(fields[4])
	if !ok || addr.IsUnspecified() {
		return model.Connection{}, false
	}
	return model.Connection{Protocol: proto, Addr: addr, Port: port}, true
}

func splitDottedAddr(s string) (netip.Addr, uint16, bool) {
	idx := strings.LastIndex(s, ".")
	if idx <= 0 {
		return netip.Addr{}, 0, false
	}
	port, err := strconv.ParseUint(s[idx+1:], 10, 16)
	if err != nil {
		return netip.Addr{}, 0, false
	}
	addr, err := netip.ParseAddr(s[:idx])
	if err != nil || !addr.Is4() {
		return netip.Addr{}, 0, false
	}
	return addr, uint16(port), true
}
