package output

import (
	"fmt"
	"sort"

	"github.com/pranshuparmar/wgroutes/pkg/model"
)

var (
	colorResetSummary   = "\033[0m"
	colorGreenSummary   = "\033[32m"
	colorRedSummary     = "\033[31m"
	colorBoldSummary    = "\033[2m"
	colorMagentaSummary = "\033[35m"
)

const contributorLimit = 10

// RenderSummary prints the human-readable run report: resolution results,
// every candidate block with its contributors, exclusion causes, and the
// final directive.
func RenderSummary(r *model.Report, colorEnabled bool) {
	reset, green, red, bold, magenta := "", "", "", "", ""
	if colorEnabled {
		reset = colorResetSummary
		green = colorGreenSummary
		red = colorRedSummary
		bold = colorBoldSummary
		magenta = colorMagentaSummary
	}

	fmt.Printf("%d hosts resolved, %d unresolved, %d endpoints, %d candidate /%d blocks\n\n",
		len(r.Resolved), len(r.Unresolved), r.Endpoints, len(r.Blocks), r.PrefixLen)

	if len(r.Unresolved) > 0 {
		fmt.Println("Unresolved hosts:")
		hosts := make([]string, 0, len(r.Unresolved))
		for h := range r.Unresolved {
			hosts = append(hosts, h)
		}
		sort.Strings(hosts)
		for _, h := range hosts {
			fmt.Printf("  %s %s(%s)%s\n", h, bold, r.Unresolved[h], reset)
		}
		fmt.Println()
	}

	for _, b := range r.Blocks {
		switch b.Status {
		case model.StatusRetained:
			fmt.Printf("%s%s%s  retained\n", green, b.Prefix, reset)
		case model.StatusExcluded:
			fmt.Printf("%s%s%s  excluded %s(conflict: %s)%s\n", red, b.Prefix, reset, bold, b.ExcludedBy, reset)
		}

		addrs := b.Addrs()
		for i, a := range addrs {
			if i >= contributorLimit {
				fmt.Printf("  %s└─%s ... and %d more\n", magenta, reset, len(addrs)-contributorLimit)
				break
			}
			connector := "├─"
			if i == len(addrs)-1 {
				connector = "└─"
			}
			ep := b.Contributors[a]
			if ep.Hostname != "" {
				fmt.Printf("  %s%s%s %s %s%s%s\n", magenta, connector, reset, a, bold, ep.Hostname, reset)
			} else {
				fmt.Printf("  %s%s%s %s\n", magenta, connector, reset, a)
			}
		}
	}
	if len(r.Blocks) > 0 {
		fmt.Println()
	}

	switch r.Outcome() {
	case model.OutcomeNoObservations:
		fmt.Println("no endpoints observed; nothing to allow")
	case model.OutcomeAllExcluded:
		fmt.Println("every candidate block conflicts with an active connection; allow-list is empty")
	default:
		fmt.Println(Directive(r.AllowList))
	}
}
