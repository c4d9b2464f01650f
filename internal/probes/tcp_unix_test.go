//go:build linux || darwin || freebsd || netbsd || openbsd || dragonfly

package probes

import (
	"errors"
	"net"
	"net/netip"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/wkitt4/tcprtt/internal/dns"
)

// fullBacklog returns a loopback destination whose listener never
// accepts and whose accept queue is already full, so new SYNs are
// dropped and connects can only time out.
func fullBacklog(t *testing.T) dns.Destination {
	t.Helper()

	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM, unix.IPPROTO_TCP)
	require.NoError(t, err)
	t.Cleanup(func() { unix.Close(fd) })

	require.NoError(t, unix.Bind(fd, &unix.SockaddrInet4{Addr: [4]byte{127, 0, 0, 1}}))
	require.NoError(t, unix.Listen(fd, 0))

	sa, err := unix.Getsockname(fd)
	require.NoError(t, err)
	dest := dns.Destination{
		AddrPort: netip.AddrPortFrom(netip.MustParseAddr("127.0.0.1"), uint16(sa.(*unix.SockaddrInet4).Port)),
		Family:   dns.IPv4,
	}

	for i := 0; i < 8; i++ {
		conn, err := net.DialTimeout("tcp4", dest.String(), 200*time.Millisecond)
		if err != nil {
			return dest
		}
		t.Cleanup(func() { conn.Close() })
	}

	t.Skip("accept queue of the loopback listener never filled up")
	return dest
}

func TestProbeFilteredTimesOut(t *testing.T) {
	dest := fullBacklog(t)

	timeout := 300 * time.Millisecond
	p := &TCPProber{}
	outcome, err := p.Probe(dest, timeout)
	require.NoError(t, err)
	assert.False(t, outcome.Success)
	assert.GreaterOrEqual(t, outcome.Elapsed, timeout)
	assert.Less(t, outcome.Elapsed, timeout+time.Second)
}

func TestProbeSetupFailureReportsElapsed(t *testing.T) {
	dest := dns.Destination{
		AddrPort: netip.MustParseAddrPort("127.0.0.1:9"),
		Family:   dns.IPv4,
	}

	// documentation address, never assigned locally
	p := &TCPProber{Source: "192.0.2.55"}
	require.NoError(t, p.Prepare(dest))

	outcome, err := p.Probe(dest, time.Second)
	var probeErr *ProbeError
	require.True(t, errors.As(err, &probeErr), "got %v", err)
	assert.Equal(t, "bind", probeErr.Op)
	assert.ErrorIs(t, err, unix.EADDRNOTAVAIL)
	assert.False(t, outcome.Success)
	assert.Greater(t, outcome.Elapsed, time.Duration(0))
}

func TestPollTimeoutRoundsUp(t *testing.T) {
	assert.Equal(t, 1, pollTimeout(time.Microsecond))
	assert.Equal(t, 1000, pollTimeout(time.Second))
	assert.Equal(t, 2, pollTimeout(1500*time.Microsecond))
}

func TestSockaddr(t *testing.T) {
	sa, err := sockaddr(netip.MustParseAddrPort("192.0.2.1:443"))
	require.NoError(t, err)
	v4, ok := sa.(*unix.SockaddrInet4)
	require.True(t, ok)
	assert.Equal(t, 443, v4.Port)
	assert.Equal(t, [4]byte{192, 0, 2, 1}, v4.Addr)

	sa, err = sockaddr(netip.MustParseAddrPort("[2001:db8::1%7]:22"))
	require.NoError(t, err)
	v6, ok := sa.(*unix.SockaddrInet6)
	require.True(t, ok)
	assert.Equal(t, 22, v6.Port)
	assert.Equal(t, uint32(7), v6.ZoneId)

	_, err = sockaddr(netip.MustParseAddrPort("[fe80::1%no-such-zone]:22"))
	assert.Error(t, err)
}
