//go:build linux

package netstat

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pranshuparmar/wgroutes/pkg/model"
)

// Take reads the IPv4 socket tables under /proc/net once.
func Take() (model.Snapshot, error) {
	snap := model.Snapshot{TakenAt: time.Now()}

	for _, src := range []struct{ path, proto string }{
		{"/proc/net/tcp", model.ProtoTCP},
		{"/proc/net/udp", model.ProtoUDP},
	} {
		f, err := os.Open(src.path)
		if err != nil {
			return model.Snapshot{}, fmt.Errorf("open %s: %w", src.path, err)
		}
		conns, err := parseProcNet(f, src.proto)
		f.Close()
		if err != nil {
			return model.Snapshot{}, fmt.Errorf("parse %s: %w", src.path, err)
		}
		snap.Connections = append(snap.Connections, conns...)
	}
	return snap, nil
}

func parseProcNet(r io.Reader, proto string) ([]model.Connection, error) {
	scanner := bufio.NewScanner(r)
	scanner.Scan() // header

	var conns []model.Connection
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 4 {
			continue
		}
		// fields[2] is rem_address, ADDR:PORT in kernel hex notation.
		addr, port, err := parseHexAddr(fields[2])
		if err != nil {
			return nil, fmt.Errorf("remote address %q: %w", fields[2], err)
		}
		if addr.IsUnspecified() {
			// Listening sockets have no remote side.
			continue
		}
		conns = append(conns, model.Connection{Protocol: proto, Addr: addr, Port: port})
	}
	return conns, scanner.Err()
}

// parseHexAddr decodes /proc/net's ADDR:PORT notation: eight hex digits of
// little-endian IPv4, a colon, four hex digits of port.
func parseHexAddr(s string) (netip.Addr, uint16, error) {
	ipHex, portHex, ok := strings.Cut(s, ":")
	if !ok || len(ipHex) != 8 || len(portHex) != 4 {
		return netip.Addr{}, 0, fmt.Errorf("malformed ip:port pair")
	}
	b, err := hex.DecodeString(ipHex)
	if err != nil {
		return netip.Addr{}, 0, err
	}
	port, err := strconv.ParseUint(portHex, 16, 16)
	if err != nil {
		return netip.Addr{}, 0, err
	}
	return netip.AddrFrom4([4]byte{b[3], b[2], b[1], b[0]}), uint16(port), nil
}
