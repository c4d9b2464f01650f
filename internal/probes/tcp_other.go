//go:build !(linux || darwin || freebsd || netbsd || openbsd || dragonfly)

package probes

import (
	"net"
	"time"

	"github.com/wkitt4/tcprtt/internal/dns"
)

// Probe dials dest with a bounded dialer. Any dial error is a failed attempt.
func (p *TCPProber) Probe(dest dns.Destination, timeout time.Duration) (Outcome, error) {
	dialer := net.Dialer{Timeout: timeout}
	if p.source.IsValid() {
		dialer.LocalAddr = &net.TCPAddr{IP: p.source.AsSlice(), Zone: p.source.Zone()}
	}

	start := time.Now()
	conn, err := dialer.Dial("tcp", dest.String())
	elapsed := time.Since(start)
	if err != nil {
		return Outcome{Elapsed: elapsed}, nil
	}
	conn.Close()

	return Outcome{Success: true, Elapsed: elapsed}, nil
}
