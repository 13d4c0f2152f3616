// Package app wires the command line to the pipeline.
package app

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/pranshuparmar/wgroutes/internal/config"
	"github.com/pranshuparmar/wgroutes/internal/output"
	"github.com/pranshuparmar/wgroutes/internal/pipeline"
	"github.com/pranshuparmar/wgroutes/internal/tui"
	"github.com/pranshuparmar/wgroutes/internal/wg"
	"github.com/pranshuparmar/wgroutes/pkg/model"
)

var flags struct {
	configPath     string
	prefixLen      int
	nameservers    []string
	includePrivate bool
	jsonOut        bool
	short          bool
	interactive    bool
	noColor        bool
	verbose        bool
	applyDevice    string
	applyPeer      string
}

var rootCmd = &cobra.Command{
	Use:   "wgroutes [flags] capture.har [capture.har ...]",
	Short: "Derive a WireGuard AllowedIPs line from captured website traffic",
	Long: `wgroutes reads HAR captures of browsing sessions against a site, resolves
the hostnames they reference, aggregates the addresses into coarse network
blocks, and drops every block that already contains an active connection on
this host — so the split tunnel never swallows traffic you did not mean to
tunnel. The survivors come out as a WireGuard AllowedIPs directive.`,
	Args:          cobra.MinimumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	f := rootCmd.Flags()
	f.StringVarP(&flags.configPath, "config", "c", "", "path to YAML config file")
	f.IntVarP(&flags.prefixLen, "prefix-len", "p", 16, "aggregation prefix length (0-32)")
	f.StringSliceVarP(&flags.nameservers, "nameserver", "n", nil, "public resolver to query (repeatable)")
	f.BoolVar(&flags.includePrivate, "include-private", false, "keep RFC 1918 addresses instead of dropping them")
	f.BoolVar(&flags.jsonOut, "json", false, "print the full report as JSON")
	f.BoolVarP(&flags.short, "short", "s", false, "print only the AllowedIPs line")
	f.BoolVarP(&flags.interactive, "interactive", "i", false, "review candidate blocks before emitting")
	f.BoolVar(&flags.noColor, "no-color", false, "disable colored output")
	f.BoolVarP(&flags.verbose, "verbose", "v", false, "enable debug logging")
	f.StringVar(&flags.applyDevice, "apply", "", "WireGuard device to apply the allow-list to")
	f.StringVar(&flags.applyPeer, "peer", "", "public key of the peer to update (with --apply)")

	rootCmd.MarkFlagsMutuallyExclusive("json", "short", "interactive")
	rootCmd.MarkFlagsRequiredTogether("apply", "peer")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Error(err.Error())
		os.Exit(1)
	}
}

func SetVersionBuildCommitString(version, commit, buildDate string) {
	if version == "" {
		version = "dev"
	}
	if commit != "" {
		version += " (" + commit + ")"
	}
	if buildDate != "" {
		version += " built " + buildDate
	}
	rootCmd.Version = version
}

func run(cmd *cobra.Command, args []string) error {
	if flags.verbose {
		log.SetLevel(log.DebugLevel)
	}

	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("prefix-len") {
		cfg.PrefixLen = flags.prefixLen
	}
	if cmd.Flags().Changed("nameserver") {
		cfg.Nameservers = flags.nameservers
	}
	if cmd.Flags().Changed("include-private") {
		cfg.IncludePrivate = flags.includePrivate
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	report, err := pipeline.Generate(cmd.Context(), pipeline.GenerateConfig{
		HARPaths:       args,
		PrefixLen:      cfg.PrefixLen,
		Nameservers:    cfg.Nameservers,
		ResolveTimeout: cfg.ResolveTimeout(),
		IncludePrivate: cfg.IncludePrivate,
	})
	if err != nil {
		return err
	}

	switch report.Outcome() {
	case model.OutcomeNoObservations:
		log.Warn("no endpoints observed in the supplied captures")
	case model.OutcomeAllExcluded:
		log.Warn("every candidate block conflicts with an active connection")
	}

	allow := report.AllowList
	switch {
	case flags.interactive:
		if allow, err = tui.Run(report); err != nil {
			return err
		}
		fmt.Println(output.Directive(allow))
	case flags.jsonOut:
		s, err := output.ToJSON(report)
		if err != nil {
			return err
		}
		fmt.Println(s)
	case flags.short:
		fmt.Println(output.Directive(allow))
	default:
		output.RenderSummary(report, !flags.noColor)
	}

	if flags.applyDevice != "" {
		if err := wg.Apply(flags.applyDevice, flags.applyPeer, allow); err != nil {
			return err
		}
		log.Info("applied allow-list", "device", flags.applyDevice, "peer", flags.applyPeer, "networks", len(allow))
	}
	return nil
}
