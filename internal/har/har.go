// Package har extracts the hostnames a recorded browsing session touched
// from HAR capture files. It reads only what the allow-list pipeline needs:
// the request URLs.
package har

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"sort"
)

type harFile struct {
	Log struct {
		Entries []struct {
			Request struct {
				URL string `json:"url"`
			} `json:"request"`
		} `json:"entries"`
	} `json:"log"`
}

// Hostnames returns the distinct hostnames referenced by the capture at
// path, sorted. Requests with non-web schemes are skipped; port suffixes
// are dropped.
func Hostnames(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open HAR %s: %w", path, err)
	}
	defer f.Close()

	hosts, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("parse HAR %s: %w", path, err)
	}
	return hosts, nil
}

// Read parses HAR JSON from r and extracts hostnames.
func Read(r io.Reader) ([]string, error) {
	var h harFile
	if err := json.NewDecoder(r).Decode(&h); err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	for _, e := range h.Log.Entries {
		host, ok := hostnameFromURL(e.Request.URL)
		if !ok {
			continue
		}
		seen[host] = struct{}{}
	}

	hosts := make([]string, 0, len(seen))
	for h := range seen {
		hosts = append(hosts, h)
	}
	sort.Strings(hosts)
	return hosts, nil
}

// hostnameFromURL pulls the hostname out of a request URL. Only http, https
// and wss requests describe traffic the tunnel would carry.
func hostnameFromURL(raw string) (string, bool) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	switch u.Scheme {
	case "http", "https", "wss":
	default:
		return "", false
	}
	host := u.Hostname()
	if host == "" {
		return "", false
	}
	return host, true
}
