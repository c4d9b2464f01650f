// Package probes measures a single connection attempt against a destination.
package probes

import (
	"fmt"
	"net/netip"
	"strings"
	"time"

	"github.com/wkitt4/tcprtt/internal/dns"
)

var (
	// List of compile time checks for all probers
	_ Prober   = (*TCPProber)(nil)
	_ Preparer = (*TCPProber)(nil)
)

// Outcome is the result of one attempt.
//
// Elapsed is populated on every path, including failures and timeouts.
type Outcome struct {
	Success bool
	Elapsed time.Duration
}

// Prober performs one timed attempt and never blocks much longer than timeout.
//
// A non-nil error is always a *ProbeError and comes with a failed Outcome.
type Prober interface {
	Probe(dest dns.Destination, timeout time.Duration) (Outcome, error)
}

// Preparer is implemented by probers that need the selected destination
// before the first attempt.
type Preparer interface {
	Prepare(dest dns.Destination) error
}

// ProbeError is a system level failure that is neither a timeout
// nor a refused connection.
type ProbeError struct {
	Op  string
	Err error
}

func (e *ProbeError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Err)
}

func (e *ProbeError) Unwrap() error { return e.Err }

// Protocols lists the names accepted by ForProtocol.
func Protocols() []string {
	return []string{"tcp"}
}

// ForProtocol returns the prober for the named protocol.
// source is an optional interface name or local address to bind to.
func ForProtocol(name, source string) (Prober, error) {
	switch strings.ToLower(name) {
	case "", "tcp":
		return &TCPProber{Source: source}, nil
	default:
		return nil, fmt.Errorf("invalid protocol %s", name)
	}
}

// TCPProber measures TCP connection establishment time.
// Sockets are never reused between attempts.
type TCPProber struct {
	// Source is an interface name or address the socket binds to. Empty means any.
	Source string

	source netip.Addr
}

// Prepare picks the bind address matching the family of dest.
func (p *TCPProber) Prepare(dest dns.Destination) error {
	if p.Source == "" {
		return nil
	}

	src, err := resolveSource(p.Source, dest.Family)
	if err != nil {
		return err
	}
	p.source = src

	return nil
}
