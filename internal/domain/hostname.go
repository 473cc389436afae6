package domain

import (
	"net/url"
	"strings"
)

const defaultScheme = "http://"

// ExtractHostnames normalizes raw URL strings into bare hostnames.
//
// Entries without an http:// or https:// prefix are treated as http URLs.
// Port, path, query and credentials are stripped and the host is
// lower-cased. A port that is not numeric is ignored like any other port. Entries with no recoverable hostname are dropped without
// error, so the output may be shorter than the input but keeps its order.
func ExtractHostnames(raws []string) []string {
	hostnames := make([]string, 0, len(raws))
	for _, raw := range raws {
		if host, ok := ExtractHostname(raw); ok {
			hostnames = append(hostnames, host)
		}
	}
	return hostnames
}

// ExtractHostname returns the hostname of a single raw URL string.
func ExtractHostname(raw string) (string, bool) {
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = defaultScheme + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return hostBeforeBadPort(raw)
	}

	host := u.Host
	if strings.HasPrefix(host, "[") {
		// IPv6 literal: url.Hostname strips the brackets and the port.
		host = u.Hostname()
	} else if before, _, found := strings.Cut(host, ":"); found {
		host = before
	}

	host = strings.ToLower(host)
	if host == "" {
		return "", false
	}
	return host, true
}

// hostBeforeBadPort recovers the host of a URL that only failed to parse
// because of its port, as in "example.com:abc".
func hostBeforeBadPort(raw string) (string, bool) {
	_, authority, _ := strings.Cut(raw, "://")
	if i := strings.IndexAny(authority, "/?#"); i >= 0 {
		authority = authority[:i]
	}
	if i := strings.LastIndex(authority, "@"); i >= 0 {
		authority = authority[i+1:]
	}
	if strings.HasPrefix(authority, "[") {
		return "", false
	}

	host, _, found := strings.Cut(authority, ":")
	if !found || host == "" {
		return "", false
	}
	u, err := url.Parse(defaultScheme + host)
	if err != nil || u.Host != host {
		return "", false
	}
	return strings.ToLower(host), true
}
