// Package config holds the run settings for wgroutes. Settings come from an
// optional YAML file; command-line flags override file values.
package config

import (
	"fmt"
	"net/netip"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// PrefixLen is the aggregation prefix length. Valid range 0-32;
	// anything else is rejected at load time, never clamped.
	PrefixLen int `yaml:"prefix_len"`
	// Nameservers are the public resolvers queried for every host, in
	// addition to discovered authoritative servers.
	Nameservers []string `yaml:"nameservers"`
	// ResolveTimeoutSeconds bounds each DNS exchange.
	ResolveTimeoutSeconds int `yaml:"resolve_timeout_seconds"`
	// IncludePrivate keeps RFC 1918 addresses instead of dropping them.
	IncludePrivate bool `yaml:"include_private"`
}

func Default() *Config {
	return &Config{
		PrefixLen:             16,
		Nameservers:           []string{"8.8.8.8", "1.1.1.1", "9.9.9.9"},
		ResolveTimeoutSeconds: 5,
		IncludePrivate:        false,
	}
}

// Load reads the configuration file at path, or returns defaults when path
// is empty.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)

	cfg := Default()
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.PrefixLen < 0 || c.PrefixLen > 32 {
		return fmt.Errorf("prefix_len %d out of range (want 0-32)", c.PrefixLen)
	}
	if c.ResolveTimeoutSeconds <= 0 {
		return fmt.Errorf("resolve_timeout_seconds must be positive")
	}
	for _, ns := range c.Nameservers {
		if _, err := netip.ParseAddr(ns); err != nil {
			return fmt.Errorf("nameserver %q: %w", ns, err)
		}
	}
	return nil
}

func (c *Config) ResolveTimeout() time.Duration {
	return time.Duration(c.ResolveTimeoutSeconds) * time.Second
}
