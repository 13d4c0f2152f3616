// Package pipeline wires the run together: captures in, directive out.
package pipeline

import (
	"context"
	"net/netip"
	"sort"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/pranshuparmar/wgroutes/internal/engine"
	"github.com/pranshuparmar/wgroutes/internal/har"
	"github.com/pranshuparmar/wgroutes/internal/netstat"
	"github.com/pranshuparmar/wgroutes/internal/resolve"
	"github.com/pranshuparmar/wgroutes/pkg/model"
)

const resolveWorkers = 8

type GenerateConfig struct {
	HARPaths       []string
	PrefixLen      int
	Nameservers    []string
	ResolveTimeout time.Duration
	IncludePrivate bool
}

// Generate runs the full pipeline. The phases are strictly ordered:
// ingestion and resolution complete before the connection snapshot is taken,
// the snapshot is taken before conflicts are resolved, and the allow-list is
// built last. Only hostname resolution runs concurrently — per-host lookups
// are independent of each other.
func Generate(ctx context.Context, cfg GenerateConfig) (*model.Report, error) {
	agg, err := engine.NewAggregator(cfg.PrefixLen)
	if err != nil {
		return nil, err
	}

	// Hostname -> capture that produced it. When several captures
	// reference a host, the smallest path wins, keeping provenance stable
	// across runs.
	hostSource := make(map[string]string)
	for _, path := range cfg.HARPaths {
		hosts, err := har.Hostnames(path)
		if err != nil {
			return nil, err
		}
		log.Debug("ingested capture", "path", path, "hosts", len(hosts))
		for _, h := range hosts {
			if src, ok := hostSource[h]; !ok || path < src {
				hostSource[h] = path
			}
		}
	}

	hosts := make([]string, 0, len(hostSource))
	for h := range hostSource {
		hosts = append(hosts, h)
	}
	sort.Strings(hosts)

	resolver := resolve.New(cfg.Nameservers, cfg.ResolveTimeout, cfg.IncludePrivate)
	type resolution struct {
		addrs []netip.Addr
		err   error
	}
	results := make([]resolution, len(hosts))

	g := new(errgroup.Group)
	g.SetLimit(resolveWorkers)
	for i, h := range hosts {
		g.Go(func() error {
			addrs, err := resolver.Host(ctx, h)
			results[i] = resolution{addrs: addrs, err: err}
			return nil
		})
	}
	g.Wait() //nolint:errcheck // workers report through results

	report := &model.Report{
		RunID:       uuid.NewString(),
		GeneratedAt: time.Now(),
		PrefixLen:   cfg.PrefixLen,
		Resolved:    make(map[string][]netip.Addr),
		Unresolved:  make(map[string]string),
	}

	for i, h := range hosts {
		res := results[i]
		if res.err != nil {
			log.Warn("cannot resolve host", "host", h, "err", res.err)
			report.Unresolved[h] = res.err.Error()
			continue
		}
		report.Resolved[h] = res.addrs
		for _, addr := range res.addrs {
			ep := model.Endpoint{Addr: addr, Hostname: h, Source: hostSource[h]}
			if err := agg.Add(ep); err != nil {
				return nil, err
			}
		}
	}

	// Ingestion is done; freeze the view of the host's live connections.
	snap, err := netstat.Take()
	if err != nil {
		return nil, err
	}
	report.Snapshot = snap

	if _, err := engine.Resolve(agg, snap); err != nil {
		return nil, err
	}

	report.Endpoints = agg.Endpoints()
	report.Blocks = agg.Blocks()
	report.AllowList = agg.AllowList()

	for _, b := range report.ExcludedBlocks() {
		log.Warn("active connection falls inside candidate network, dropping it",
			"network", b.Prefix, "connection", b.ExcludedBy)
	}
	return report, nil
}
