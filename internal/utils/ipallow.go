package utils

import (
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// RemoteIP returns the peer address of r without its port.
func RemoteIP(r *http.Request) string {
	if h, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return h
	}
	return r.RemoteAddr
}

// IPAllowList matches client addresses against exact IPs and CIDRs.
type IPAllowList struct {
	prefixes []netip.Prefix
}

// NewIPAllowList parses entries such as "127.0.0.1", "::1" or "10.0.0.0/8".
// Blank entries are skipped; anything else unparseable is an error.
func NewIPAllowList(entries []string) (*IPAllowList, error) {
	l := &IPAllowList{}
	for _, raw := range entries {
		s := strings.TrimSpace(raw)
		if s == "" {
			continue
		}
		if strings.Contains(s, "/") {
			p, err := netip.ParsePrefix(s)
			if err != nil {
				return nil, fmt.Errorf("invalid CIDR %q: %w", s, err)
			}
			l.prefixes = append(l.prefixes, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(s)
		if err != nil {
			return nil, fmt.Errorf("invalid IP %q: %w", s, err)
		}
		addr = addr.Unmap()
		l.prefixes = append(l.prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return l, nil
}

func (l *IPAllowList) IsEmpty() bool {
	return len(l.prefixes) == 0
}

// Allow reports whether ip falls inside any entry.
func (l *IPAllowList) Allow(ip string) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range l.prefixes {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}
