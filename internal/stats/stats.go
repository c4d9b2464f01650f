// Package stats accumulates attempt outcomes into running statistics.
//
// The accumulator is written by the probe loop and read concurrently
// by the interrupt path, so every access goes through its RWMutex.
package stats

import (
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/wkitt4/tcprtt/internal/probes"
)

// Snapshot is a consistent copy of the running statistics.
//
// Min, Max and Sum only cover successful attempts and are
// meaningful only when Successes > 0.
type Snapshot struct {
	Attempts  uint
	Successes uint
	Min       time.Duration
	Max       time.Duration
	Sum       time.Duration
}

// Accumulator records outcomes in attempt order.
type Accumulator struct {
	mu sync.RWMutex
	s  Snapshot
}

// New returns an empty accumulator.
func New() *Accumulator {
	return &Accumulator{s: Snapshot{Min: math.MaxInt64}}
}

// Record adds one attempt.
func (a *Accumulator) Record(o probes.Outcome) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.s.Attempts++
	if !o.Success {
		return
	}

	a.s.Successes++
	a.s.Sum += o.Elapsed
	if o.Elapsed < a.s.Min {
		a.s.Min = o.Elapsed
	}
	if o.Elapsed > a.s.Max {
		a.s.Max = o.Elapsed
	}
}

// Snapshot returns the current statistics.
func (a *Accumulator) Snapshot() Snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return a.s
}

// FullySuccessful reports whether every attempt so far succeeded.
func (a *Accumulator) FullySuccessful() bool {
	return a.Snapshot().FullySuccessful()
}

// FullySuccessful is vacuously true when no attempt was made.
func (s Snapshot) FullySuccessful() bool {
	return s.Attempts == s.Successes
}

// HasRTT reports whether min, average and max are meaningful.
func (s Snapshot) HasRTT() bool {
	return s.Successes > 0
}

// Failures returns the number of failed attempts.
func (s Snapshot) Failures() uint {
	return s.Attempts - s.Successes
}

// SuccessRate returns successes as a percentage of attempts.
func (s Snapshot) SuccessRate() float64 {
	if s.Attempts == 0 {
		return 0
	}
	return float64(s.Successes*100) / float64(s.Attempts)
}

// Average returns the mean RTT of successful attempts.
func (s Snapshot) Average() time.Duration {
	if s.Successes == 0 {
		return 0
	}
	return s.Sum / time.Duration(s.Successes)
}

// Millis converts a duration to fractional milliseconds.
//
// Using duration.Milliseconds() is not an option, because it drops
// decimal points, returning an int.
func Millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// String renders the summary block printed at the end of a run.
func (s Snapshot) String() string {
	var b strings.Builder

	b.WriteString("\nSummary:\n")
	fmt.Fprintf(&b, "    %d pings sent.\n", s.Attempts)

	if !s.HasRTT() {
		fmt.Fprintf(&b, "    %d successful. Rate: %.2f%%\n", s.Successes, 0.0)
		b.WriteString("RTT statistics:\n")
		b.WriteString("    No statistics collected.\n")
		return b.String()
	}

	fmt.Fprintf(&b, "    %d successful. Success Rate: %.2f%%\n", s.Successes, s.SuccessRate())
	b.WriteString("RTT statistics:\n")
	fmt.Fprintf(&b, "    min=%.3fms, average=%.3fms, max=%.3fms\n",
		Millis(s.Min), Millis(s.Average()), Millis(s.Max))

	return b.String()
}
