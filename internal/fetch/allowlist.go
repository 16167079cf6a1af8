package fetch

import (
	"context"
	"fmt"
	"net"
	"strings"
)

// Allowlist names the source hosts an export may be fetched from. Entries are
// exact hostnames (which also admit subdomains), wildcard patterns such as
// "*.intranet" and CIDR ranges such as "10.0.0.0/8".
//
// A nil Allowlist permits every host, subject to the address guard.
type Allowlist struct {
	cidrs     []*net.IPNet
	suffixes  []string // ".intranet" for "*.intranet"
	hosts     []string
	lookupIPs func(ctx context.Context, host string) ([]net.IPAddr, error)
}

// ParseAllowlist parses a comma-separated list. An empty list yields nil.
func ParseAllowlist(raw string) (*Allowlist, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}

	a := &Allowlist{lookupIPs: net.DefaultResolver.LookupIPAddr}
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.ToLower(strings.TrimSpace(entry))
		switch {
		case entry == "":
		case strings.Contains(entry, "/"):
			_, cidr, err := net.ParseCIDR(entry)
			if err != nil {
				return nil, fmt.Errorf("allowlist entry %q: %w", entry, err)
			}
			a.cidrs = append(a.cidrs, cidr)
		case strings.HasPrefix(entry, "*."):
			a.suffixes = append(a.suffixes, entry[1:])
		default:
			a.hosts = append(a.hosts, entry)
		}
	}
	if len(a.cidrs)+len(a.suffixes)+len(a.hosts) == 0 {
		return nil, nil
	}
	return a, nil
}

// Allows reports whether host, optionally with a port, is admitted.
// Hostnames are resolved only when CIDR entries exist; a failed lookup denies.
func (a *Allowlist) Allows(ctx context.Context, host string) bool {
	if a == nil {
		return true
	}

	name := host
	if h, _, err := net.SplitHostPort(host); err == nil {
		name = h
	}
	name = strings.ToLower(strings.Trim(name, "[]"))

	for _, h := range a.hosts {
		if name == h || strings.HasSuffix(name, "."+h) {
			return true
		}
	}
	for _, suffix := range a.suffixes {
		if strings.HasSuffix(name, suffix) && name != suffix[1:] {
			return true
		}
	}
	if len(a.cidrs) == 0 {
		return false
	}

	if ip := net.ParseIP(name); ip != nil {
		return a.containsIP(ip)
	}
	if a.lookupIPs == nil {
		return false
	}
	addrs, err := a.lookupIPs(ctx, name)
	if err != nil {
		return false
	}
	for _, addr := range addrs {
		if a.containsIP(addr.IP) {
			return true
		}
	}
	return false
}

func (a *Allowlist) containsIP(ip net.IP) bool {
	for _, cidr := range a.cidrs {
		if cidr.Contains(ip) {
			return true
		}
	}
	return false
}
