// Package ssrf decides which network destinations the source fetcher may
// reach when retrieving exported content.
package ssrf

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
)

// ErrBlocked is returned for destinations in a blocked address range.
var ErrBlocked = errors.New("destination address blocked")

// cgnatRange is the Carrier-Grade NAT range (100.64.0.0/10), which is not
// covered by Go's net.IP.IsPrivate() but must be blocked for SSRF protection.
var cgnatRange = mustParseCIDR("100.64.0.0/10")

func mustParseCIDR(s string) *net.IPNet {
	_, n, err := net.ParseCIDR(s)
	if err != nil {
		panic(err)
	}
	return n
}

// IsBlockedIP returns true if the given IP should be blocked for SSRF protection.
// It covers loopback, private (RFC 1918), link-local unicast/multicast, unspecified,
// multicast, and CGNAT (100.64.0.0/10) addresses.
func IsBlockedIP(ip net.IP) bool {
	return ip.IsLoopback() ||
		ip.IsPrivate() ||
		ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() ||
		ip.IsUnspecified() ||
		ip.IsMulticast() ||
		cgnatRange.Contains(ip)
}

// Control is a net.Dialer Control hook. It runs after name resolution, so the
// address is always an IP literal and rebinding tricks cannot slip past it.
func Control(network, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return fmt.Errorf("split %q: %w", address, err)
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return fmt.Errorf("%s %s: %w", network, address, ErrBlocked)
	}
	if IsBlockedIP(ip) {
		return fmt.Errorf("%s %s: %w", network, address, ErrBlocked)
	}
	return nil
}

// Resolver looks up the addresses of a host.
type Resolver func(ctx context.Context, host string) ([]net.IPAddr, error)

// CheckHost resolves host (with or without port) and fails with ErrBlocked if
// any address is in a blocked range. It is the fast-fail check used when the
// connection goes through a proxy and the dial hook never sees the target.
func CheckHost(ctx context.Context, resolve Resolver, host string) error {
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	if ip := net.ParseIP(host); ip != nil {
		if IsBlockedIP(ip) {
			return fmt.Errorf("host %s: %w", host, ErrBlocked)
		}
		return nil
	}
	if resolve == nil {
		resolve = net.DefaultResolver.LookupIPAddr
	}
	addrs, err := resolve(ctx, host)
	if err != nil {
		return fmt.Errorf("resolve host %q: %w", host, err)
	}
	for _, addr := range addrs {
		if IsBlockedIP(addr.IP) {
			return fmt.Errorf("host %s resolves to %s: %w", host, addr.IP, ErrBlocked)
		}
	}
	return nil
}
