// Package resolve turns hostnames from a traffic capture into IPv4
// addresses. Besides the configured public resolvers it discovers the
// authoritative nameservers of each host's registrable domain and queries
// those too, which tends to surface more of a site's address space than a
// single recursive resolver would.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/miekg/dns"
)

// DefaultNameservers are queried for every host, alongside whatever
// authoritative servers are discovered per domain.
var DefaultNameservers = []string{"8.8.8.8", "1.1.1.1", "9.9.9.9"}

var errNoAnswer = errors.New("no nameserver answered")

type Resolver struct {
	Nameservers    []string
	IncludePrivate bool

	client *dns.Client
}

func New(nameservers []string, timeout time.Duration, includePrivate bool) *Resolver {
	if len(nameservers) == 0 {
		nameservers = DefaultNameservers
	}
	return &Resolver{
		Nameservers:    nameservers,
		IncludePrivate: includePrivate,
		client:         &dns.Client{Timeout: timeout},
	}
}

// Host resolves one hostname to its IPv4 addresses, sorted and
// deduplicated. IPv4-literal hostnames short-circuit: routable literals
// resolve to themselves, non-routable ones (loopback, broadcast, private
// unless configured) to nothing. An empty, non-error result means the host
// contributes no endpoints.
func (r *Resolver) Host(ctx context.Context, host string) ([]netip.Addr, error) {
	host = discardPort(host)

	if addr, err := netip.ParseAddr(host); err == nil {
		addr = addr.Unmap()
		if !addr.Is4() {
			return nil, nil
		}
		if !r.routable(addr) {
			log.Debug("dropping non-routable literal", "host", host)
			return nil, nil
		}
		return []netip.Addr{addr}, nil
	}

	servers := append([]string(nil), r.Nameservers...)
	if auth, err := r.authoritative(ctx, host); err == nil {
		servers = append(servers, auth...)
	} else {
		log.Debug("no authoritative nameservers", "host", host, "err", err)
	}

	return r.lookupA(ctx, host, servers)
}

// authoritative finds the IPv4 addresses of the nameservers responsible for
// host's registrable domain.
func (r *Resolver) authoritative(ctx context.Context, host string) ([]string, error) {
	domain, err := registrableDomain(host)
	if err != nil {
		return nil, err
	}

	m := new(dns.Msg)
	m.SetQuestion(dns.Fqdn(domain), dns.TypeNS)
	m.RecursionDesired = true

	resp, err := r.exchange(ctx, m)
	if err != nil {
		return nil, err
	}

	var servers []string
	for _, rr := range resp.Answer {
		ns, ok := rr.(*dns.NS)
		if !ok {
			continue
		}
		addrs, err := r.lookupA(ctx, strings.TrimSuffix(ns.Ns, "."), r.Nameservers)
		if err != nil {
			continue
		}
		for _, a := range addrs {
			servers = append(servers, a.String())
		}
	}
	return servers, nil
}

// lookupA queries every server for A records and unions the answers.
// It fails only when no server answered at all.
func (r *Resolver) lookupA(ctx context.Context, host string, servers []string) ([]netip.Addr, error) {
	m := new(dns.Msg)
	m.SetQuestion(dns.Fqdn(host), dns.TypeA)
	m.RecursionDesired = true

	seen := make(map[netip.Addr]struct{})
	answered := false
	for _, s := range servers {
		resp, _, err := r.client.ExchangeContext(ctx, m, net.JoinHostPort(s, "53"))
		if err != nil {
			log.Debug("exchange failed", "host", host, "server", s, "err", err)
			continue
		}
		answered = true
		for _, rr := range resp.Answer {
			a, ok := rr.(*dns.A)
			if !ok {
				continue
			}
			if addr, ok := netip.AddrFromSlice(a.A.To4()); ok {
				seen[addr.Unmap()] = struct{}{}
			}
		}
	}
	if !answered {
		return nil, fmt.Errorf("%w for %s", errNoAnswer, host)
	}

	addrs := make([]netip.Addr, 0, len(seen))
	for a := range seen {
		addrs = append(addrs, a)
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i].Less(addrs[j]) })
	return addrs, nil
}

func (r *Resolver) exchange(ctx context.Context, m *dns.Msg) (*dns.Msg, error) {
	var lastErr error
	for _, s := range r.Nameservers {
		resp, _, err := r.client.ExchangeContext(ctx, m, net.JoinHostPort(s, "53"))
		if err == nil {
			return resp, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = errNoAnswer
	}
	return nil, lastErr
}

func (r *Resolver) routable(a netip.Addr) bool {
	if a.IsLoopback() || a == netip.AddrFrom4([4]byte{255, 255, 255, 255}) || a.IsUnspecified() {
		return false
	}
	if a.IsPrivate() && !r.IncludePrivate {
		return false
	}
	return true
}

// registrableDomain reduces a hostname to its last two labels, the domain
// whose NS records are worth asking for.
func registrableDomain(h string) (string, error) {
	labels := strings.Split(h, ".")
	if len(labels) < 2 {
		return "", fmt.Errorf("hostname %q too short", h)
	}
	for _, l := range labels {
		if l == "" {
			return "", fmt.Errorf("hostname %q has an empty label", h)
		}
	}
	return strings.Join(labels[len(labels)-2:], "."), nil
}

// discardPort strips a :port suffix if present.
func discardPort(s string) string {
	if host, _, ok := strings.Cut(s, ":"); ok {
		return host
	}
	return s
}
