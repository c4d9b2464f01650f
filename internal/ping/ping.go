// Package ping drives a probe run: resolve once, probe repeatedly at a
// fixed interval, accumulate outcomes and report a summary.
package ping

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/wkitt4/tcprtt/internal/dns"
	"github.com/wkitt4/tcprtt/internal/printers"
	"github.com/wkitt4/tcprtt/internal/probes"
	"github.com/wkitt4/tcprtt/internal/stats"
)

const (
	DefaultCount    uint = 4
	DefaultInterval      = 500 * time.Millisecond
	DefaultTimeout       = 1000 * time.Millisecond
)

// Exit codes returned by Run.
const (
	ExitOK      = 0
	ExitFailure = 1
)

// Config is the immutable description of a run.
type Config struct {
	Destination string
	Count       uint
	Forever     bool
	Interval    time.Duration
	Timeout     time.Duration
	Family      dns.Family
	Protocol    string
	// Source is an optional interface name or local address to probe from.
	Source string
}

// DefaultConfig returns a Config with the command line defaults.
func DefaultConfig() Config {
	return Config{
		Count:    DefaultCount,
		Interval: DefaultInterval,
		Timeout:  DefaultTimeout,
		Protocol: "tcp",
	}
}

// Validate checks the values a run cannot start without.
func (c Config) Validate() error {
	switch {
	case c.Destination == "":
		return errors.New("destination is not supplied")
	case c.Timeout <= 0:
		return errors.New("timeout should be greater than 0")
	case c.Interval < 0:
		return errors.New("interval should not be negative")
	case !c.Forever && c.Count == 0:
		return errors.New("number of pings should be greater than 0")
	}
	return nil
}

// State is a step of the run.
type State int

const (
	Idle State = iota
	Resolving
	Probing
	Waiting
	Reporting
	Interrupted
	Done
)

var stateNames = [...]string{"idle", "resolving", "probing", "waiting", "reporting", "interrupted", "done"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Loop runs a Config. Run is called once, from a single goroutine;
// Interrupt may be called from any goroutine.
type Loop struct {
	cfg      Config
	resolver *dns.Resolver
	prober   probes.Prober
	stats    *stats.Accumulator
	printer  printers.Printer
	logger   *log.Logger
	sleep    func(time.Duration)

	// outMu serializes printer access between Run and Interrupt.
	outMu  sync.Mutex
	closed bool

	stateMu sync.Mutex
	state   State
}

// Option customizes a Loop.
type Option func(*Loop)

// WithResolver replaces the default resolver.
func WithResolver(r *dns.Resolver) Option {
	return func(l *Loop) { l.resolver = r }
}

// WithProber replaces the prober picked from Config.Protocol.
func WithProber(p probes.Prober) Option {
	return func(l *Loop) { l.prober = p }
}

// WithLogger sets the diagnostic logger.
func WithLogger(logger *log.Logger) Option {
	return func(l *Loop) { l.logger = logger }
}

// WithSleep replaces time.Sleep between attempts.
func WithSleep(sleep func(time.Duration)) Option {
	return func(l *Loop) { l.sleep = sleep }
}

// New validates cfg and builds a Loop printing through p.
func New(cfg Config, p printers.Printer, opts ...Option) (*Loop, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	l := &Loop{
		cfg:     cfg,
		stats:   stats.New(),
		printer: p,
		logger:  log.New(io.Discard, "", 0),
		sleep:   time.Sleep,
	}
	for _, opt := range opts {
		opt(l)
	}

	if l.resolver == nil {
		l.resolver = dns.NewResolver(nil)
	}
	if l.prober == nil {
		prober, err := probes.ForProtocol(cfg.Protocol, cfg.Source)
		if err != nil {
			return nil, err
		}
		l.prober = prober
	}

	return l, nil
}

// Stats returns the accumulator of the run.
func (l *Loop) Stats() *stats.Accumulator { return l.stats }

// State returns the current state.
func (l *Loop) State() State {
	l.stateMu.Lock()
	defer l.stateMu.Unlock()
	return l.state
}

func (l *Loop) setState(s State) {
	l.stateMu.Lock()
	defer l.stateMu.Unlock()
	if l.state == Interrupted {
		return
	}
	l.state = s
}

// Run resolves the destination and probes it until the stop condition
// is met. Resolution errors are returned without statistics.
func (l *Loop) Run(ctx context.Context) (int, error) {
	l.setState(Resolving)

	dest, err := l.resolve(ctx)
	if err != nil {
		l.setState(Reporting)
		l.logger.Printf("resolve %q: %v", l.cfg.Destination, err)
		l.setState(Done)
		return ExitFailure, err
	}
	l.logger.Printf("resolved %q to %s (%s)", l.cfg.Destination, dest, dest.Family)

	l.output(func(p printers.Printer) { p.PrintStart(l.cfg.Destination, dest) })

	for index := uint(0); ; index++ {
		l.setState(Probing)
		l.attempt(index, dest)

		if !l.cfg.Forever && index+1 >= l.cfg.Count {
			break
		}

		l.setState(Waiting)
		l.sleep(l.cfg.Interval)
	}

	l.setState(Reporting)
	snapshot := l.stats.Snapshot()
	l.output(func(p printers.Printer) { p.PrintStatistics(snapshot) })
	l.setState(Done)

	if snapshot.FullySuccessful() {
		return ExitOK, nil
	}
	return ExitFailure, nil
}

func (l *Loop) resolve(ctx context.Context) (dns.Destination, error) {
	set, err := l.resolver.Resolve(ctx, l.cfg.Destination)
	if err != nil {
		return dns.Destination{}, err
	}

	dest, err := set.Select(l.cfg.Family)
	if err != nil {
		return dns.Destination{}, err
	}

	if p, ok := l.prober.(probes.Preparer); ok {
		if err := p.Prepare(dest); err != nil {
			return dns.Destination{}, err
		}
	}

	return dest, nil
}

// attempt probes once. A ProbeError is recorded as a failed attempt
// and shown instead of "No reply"; it never stops the run. Attempts
// finishing after an interrupt are neither recorded nor printed.
func (l *Loop) attempt(index uint, dest dns.Destination) {
	outcome, err := l.prober.Probe(dest, l.cfg.Timeout)
	if err != nil {
		outcome.Success = false
		l.logger.Printf("attempt %d: probe error: %v", index, err)
	} else {
		l.logger.Printf("attempt %d: success=%t elapsed=%s", index, outcome.Success, outcome.Elapsed)
	}

	// recorded under outMu so an interrupt never counts an unprinted attempt
	l.output(func(p printers.Printer) {
		l.stats.Record(outcome)
		p.PrintProbe(index, dest, outcome, err)
	})
}

// output runs fn with the printer unless it was closed.
func (l *Loop) output(fn func(printers.Printer)) {
	l.outMu.Lock()
	defer l.outMu.Unlock()

	if l.closed {
		return
	}
	fn(l.printer)
}

// Interrupt prints the statistics gathered so far and closes the
// printer. Nothing is printed by the loop afterwards. It only reads
// the accumulator, and only the first call has an effect.
func (l *Loop) Interrupt() {
	l.outMu.Lock()
	defer l.outMu.Unlock()

	if l.closed {
		return
	}
	l.closed = true

	l.stateMu.Lock()
	l.state = Interrupted
	l.stateMu.Unlock()

	snapshot := l.stats.Snapshot()
	l.logger.Printf("interrupted after %d attempts", snapshot.Attempts)
	l.printer.PrintStatistics(snapshot)

	if err := printers.Close(l.printer); err != nil {
		l.logger.Printf("closing printer: %v", err)
		l.printer.PrintError("failed to write output: %s", err)
	}
}

// Close releases the printer after a normal run.
func (l *Loop) Close() error {
	l.outMu.Lock()
	defer l.outMu.Unlock()

	if l.closed {
		return nil
	}
	l.closed = true

	return printers.Close(l.printer)
}
