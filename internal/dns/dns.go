// Package dns turns a user supplied destination into the address tcprtt probes.
package dns

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"strings"
	"time"
)

const (
	// DefaultPort is used when the destination carries no port.
	DefaultPort uint16 = 80

	dnsTimeout = 2 * time.Second
)

// Family is the address family of a destination.
//
// Unspecified is only meaningful as a preference; a selected
// Destination is always IPv4 or IPv6.
type Family int

const (
	Unspecified Family = iota
	IPv4
	IPv6
)

func (f Family) String() string {
	switch f {
	case IPv4:
		return "IPv4"
	case IPv6:
		return "IPv6"
	default:
		return "unspecified"
	}
}

// FamilyOf reports the family of addr. IPv4-mapped IPv6 addresses count as IPv4.
func FamilyOf(addr netip.Addr) Family {
	if addr.Unmap().Is4() {
		return IPv4
	}
	return IPv6
}

// Destination is the resolved endpoint of a run.
type Destination struct {
	AddrPort netip.AddrPort
	Family   Family
}

// Addr returns the IP address of the destination.
func (d Destination) Addr() netip.Addr { return d.AddrPort.Addr() }

// Port returns the TCP port of the destination.
func (d Destination) Port() uint16 { return d.AddrPort.Port() }

func (d Destination) String() string { return d.AddrPort.String() }

// ResolutionError is returned when nothing can be resolved from the input.
type ResolutionError struct {
	Input string
	Err   error
}

func (e *ResolutionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("failed to resolve anything from destination %q", e.Input)
	}
	return fmt.Sprintf("invalid destination %q: %s", e.Input, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// FamilyUnavailableError is returned when the requested family
// is absent from the resolved candidates.
type FamilyUnavailableError struct {
	Input  string
	Family Family
}

func (e *FamilyUnavailableError) Error() string {
	return fmt.Sprintf("%s address is not found for %s, cannot probe with this version", e.Family, e.Input)
}

// CandidateSet holds the first address seen overall and the first
// address seen per family, in resolver order.
type CandidateSet struct {
	Input  string
	First  netip.AddrPort
	First4 netip.AddrPort
	First6 netip.AddrPort
}

// add records a candidate. The first call always fills First.
func (c *CandidateSet) add(ap netip.AddrPort) {
	// static builds (CGO=0) return IPv4-mapped IPv6 addresses
	ap = netip.AddrPortFrom(ap.Addr().Unmap(), ap.Port())

	if !c.First.IsValid() {
		c.First = ap
	}

	switch FamilyOf(ap.Addr()) {
	case IPv4:
		if !c.First4.IsValid() {
			c.First4 = ap
		}
	case IPv6:
		if !c.First6.IsValid() {
			c.First6 = ap
		}
	}
}

// Empty reports whether no candidate was recorded.
func (c CandidateSet) Empty() bool { return !c.First.IsValid() }

// Select applies the family policy and defaults a zero port to DefaultPort.
func (c CandidateSet) Select(pref Family) (Destination, error) {
	var ap netip.AddrPort

	switch pref {
	case IPv4:
		if !c.First4.IsValid() {
			return Destination{}, &FamilyUnavailableError{Input: c.Input, Family: IPv4}
		}
		ap = c.First4
	case IPv6:
		if !c.First6.IsValid() {
			return Destination{}, &FamilyUnavailableError{Input: c.Input, Family: IPv6}
		}
		ap = c.First6
	default:
		if c.Empty() {
			return Destination{}, &ResolutionError{Input: c.Input}
		}
		ap = c.First
	}

	if ap.Port() == 0 {
		ap = netip.AddrPortFrom(ap.Addr(), DefaultPort)
	}

	return Destination{AddrPort: ap, Family: FamilyOf(ap.Addr())}, nil
}

// Lookuper is the name service backend. *net.Resolver satisfies it.
type Lookuper interface {
	LookupNetIP(ctx context.Context, network, host string) ([]netip.Addr, error)
	LookupPort(ctx context.Context, network, service string) (int, error)
}

// Resolver builds CandidateSets from raw destination strings.
type Resolver struct {
	lookup  Lookuper
	timeout time.Duration
}

// NewResolver returns a Resolver backed by l, or by net.DefaultResolver when l is nil.
func NewResolver(l Lookuper) *Resolver {
	if l == nil {
		l = net.DefaultResolver
	}
	return &Resolver{lookup: l, timeout: dnsTimeout}
}

// Resolve treats raw as host:port first, then as a bare host with port 0.
func (r *Resolver) Resolve(ctx context.Context, raw string) (CandidateSet, error) {
	set := CandidateSet{Input: raw}

	addrs, err := r.resolveHostPort(ctx, raw)
	if err != nil {
		var fallbackErr error
		addrs, fallbackErr = r.resolveHost(ctx, raw, 0)
		if fallbackErr != nil {
			return set, &ResolutionError{Input: raw, Err: errors.Join(err, fallbackErr)}
		}
	}

	for _, ap := range addrs {
		set.add(ap)
	}

	if set.Empty() {
		return set, &ResolutionError{Input: raw}
	}

	return set, nil
}

func (r *Resolver) resolveHostPort(ctx context.Context, raw string) ([]netip.AddrPort, error) {
	host, service, err := net.SplitHostPort(raw)
	if err != nil {
		return nil, err
	}

	port, err := r.lookupPort(ctx, service)
	if err != nil {
		return nil, err
	}

	return r.resolveHost(ctx, host, port)
}

func (r *Resolver) lookupPort(ctx context.Context, service string) (uint16, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	port, err := r.lookup.LookupPort(ctx, "tcp", service)
	if err != nil {
		return 0, err
	}
	if port < 0 || port > 65535 {
		return 0, fmt.Errorf("port %d out of range", port)
	}

	return uint16(port), nil
}

func (r *Resolver) resolveHost(ctx context.Context, host string, port uint16) ([]netip.AddrPort, error) {
	host = strings.TrimSuffix(strings.TrimPrefix(host, "["), "]")
	if host == "" {
		return nil, errors.New("missing host")
	}

	if ip, err := netip.ParseAddr(host); err == nil {
		return []netip.AddrPort{netip.AddrPortFrom(ip, port)}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	ips, err := r.lookup.LookupNetIP(ctx, "ip", host)
	if err != nil {
		return nil, err
	}

	addrs := make([]netip.AddrPort, 0, len(ips))
	for _, ip := range ips {
		addrs = append(addrs, netip.AddrPortFrom(ip, port))
	}

	return addrs, nil
}
