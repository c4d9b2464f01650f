//go:build linux || darwin || freebsd || netbsd || openbsd || dragonfly

package probes

import (
	"errors"
	"net"
	"net/netip"
	"strconv"
	"time"

	"golang.org/x/sys/unix"

	"github.com/wkitt4/tcprtt/internal/dns"
)

// Probe opens a non-blocking stream socket, starts connect and waits for
// the socket to become writable or report an error, up to timeout.
func (p *TCPProber) Probe(dest dns.Destination, timeout time.Duration) (Outcome, error) {
	// setup failures report the time spent since the call began
	begin := time.Now()
	fail := func(op string, err error) (Outcome, error) {
		return Outcome{Elapsed: time.Since(begin)}, &ProbeError{Op: op, Err: err}
	}

	domain := unix.AF_INET
	if dest.Family == dns.IPv6 {
		domain = unix.AF_INET6
	}

	fd, err := unix.Socket(domain, unix.SOCK_STREAM, unix.IPPROTO_TCP)
	if err != nil {
		return fail("socket", err)
	}
	defer unix.Close(fd)

	unix.CloseOnExec(fd)
	if err := unix.SetNonblock(fd, true); err != nil {
		return fail("set non-blocking", err)
	}

	if p.source.IsValid() {
		sa, err := sockaddr(netip.AddrPortFrom(p.source, 0))
		if err != nil {
			return fail("bind", err)
		}
		if err := unix.Bind(fd, sa); err != nil {
			return fail("bind", err)
		}
	}

	sa, err := sockaddr(dest.AddrPort)
	if err != nil {
		return fail("connect", err)
	}

	start := time.Now()
	err = unix.Connect(fd, sa)
	switch {
	case err == nil:
		return Outcome{Success: true, Elapsed: time.Since(start)}, nil
	case errors.Is(err, unix.EINPROGRESS), errors.Is(err, unix.EINTR):
	default:
		// refused, unreachable and friends: the attempt is over
		return Outcome{Elapsed: time.Since(start)}, nil
	}

	deadline := start.Add(timeout)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return Outcome{Elapsed: time.Since(start)}, nil
		}

		fds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLOUT | unix.POLLERR}}
		n, err := unix.Poll(fds, pollTimeout(remaining))
		if errors.Is(err, unix.EINTR) {
			continue
		}
		if err != nil {
			return Outcome{Elapsed: time.Since(start)}, &ProbeError{Op: "poll", Err: err}
		}
		if n == 0 {
			continue
		}
		break
	}

	elapsed := time.Since(start)

	soErr, err := unix.GetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_ERROR)
	if err != nil {
		return Outcome{Elapsed: elapsed}, &ProbeError{Op: "getsockopt", Err: err}
	}

	return Outcome{Success: soErr == 0, Elapsed: elapsed}, nil
}

// pollTimeout rounds up to whole milliseconds so poll never returns early.
func pollTimeout(d time.Duration) int {
	ms := d / time.Millisecond
	if d%time.Millisecond != 0 {
		ms++
	}
	return int(ms)
}

func sockaddr(ap netip.AddrPort) (unix.Sockaddr, error) {
	addr := ap.Addr().Unmap()
	if addr.Is4() {
		return &unix.SockaddrInet4{Port: int(ap.Port()), Addr: addr.As4()}, nil
	}

	sa := &unix.SockaddrInet6{Port: int(ap.Port()), Addr: addr.As16()}
	if zone := addr.Zone(); zone != "" {
		id, err := zoneIndex(zone)
		if err != nil {
			return nil, err
		}
		sa.ZoneId = id
	}

	return sa, nil
}

func zoneIndex(zone string) (uint32, error) {
	if ief, err := net.InterfaceByName(zone); err == nil {
		return uint32(ief.Index), nil
	}

	id, err := strconv.ParseUint(zone, 10, 32)
	if err != nil {
		return 0, errors.New("unknown zone " + zone)
	}

	return uint32(id), nil
}
