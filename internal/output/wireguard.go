package output

import (
	"net/netip"
	"strings"
)

// Directive renders an allow-list as the WireGuard peer setting it is meant
// to be pasted into.
func Directive(prefixes []netip.Prefix) string {
	parts := make([]string, 0, len(prefixes))
	for _, p := range prefixes {
		parts = append(parts, p.String())
	}
	return "AllowedIPs = " + strings.Join(parts, ", ")
}
