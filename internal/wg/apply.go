// Package wg pushes a generated allow-list straight into a WireGuard peer,
// for when editing the config file by hand is not wanted.
package wg

import (
	"fmt"
	"net"
	"net/netip"

	"golang.zx2c4.com/wireguard/wgctrl"
	"golang.zx2c4.com/wireguard/wgctrl/wgtypes"
)

// Apply replaces the AllowedIPs of the given peer on device with the
// allow-list. The peer must already exist; nothing else about it changes.
func Apply(device, peerPublicKey string, prefixes []netip.Prefix) error {
	key, err := wgtypes.ParseKey(peerPublicKey)
	if err != nil {
		return fmt.Errorf("peer public key: %w", err)
	}

	nets := make([]net.IPNet, 0, len(prefixes))
	for _, p := range prefixes {
		nets = append(nets, net.IPNet{
			IP:   p.Addr().AsSlice(),
			Mask: net.CIDRMask(p.Bits(), p.Addr().BitLen()),
		})
	}

	client, err := wgctrl.New()
	if err != nil {
		return fmt.Errorf("wireguard control: %w", err)
	}
	defer client.Close()

	cfg := wgtypes.Config{
		Peers: []wgtypes.PeerConfig{{
			PublicKey:         key,
			UpdateOnly:        true,
			ReplaceAllowedIPs: true,
			AllowedIPs:        nets,
		}},
	}
	if err := client.ConfigureDevice(device, cfg); err != nil {
		return fmt.Errorf("configure %s: %w", device, err)
	}
	return nil
}
