package probes

import (
	"fmt"
	"net"
	"net/netip"

	"github.com/wkitt4/tcprtt/internal/dns"
)

// resolveSource returns the local address to bind to for the given family.
// name is either an IP address or an interface name, in which case the
// first usable address of that family on the interface is used.
func resolveSource(name string, family dns.Family) (netip.Addr, error) {
	if ip, err := netip.ParseAddr(name); err == nil {
		ip = ip.Unmap()
		if dns.FamilyOf(ip) != family {
			return netip.Addr{}, fmt.Errorf("source address %s is not an %s address", ip, family)
		}
		return ip, nil
	}

	ief, err := net.InterfaceByName(name)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("interface %s not found", name)
	}

	addrs, err := ief.Addrs()
	if err != nil {
		return netip.Addr{}, fmt.Errorf("unable to get interface addresses: %w", err)
	}

	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if !ok {
			continue
		}

		ip, ok := netip.AddrFromSlice(ipNet.IP)
		if !ok {
			continue
		}
		ip = ip.Unmap()

		switch {
		case family == dns.IPv4 && ip.Is4():
			return ip, nil
		case family == dns.IPv6 && ip.Is6() && !ip.IsLinkLocalUnicast():
			return ip, nil
		}
	}

	return netip.Addr{}, fmt.Errorf("unable to get an %s address of interface %s", family, name)
}
