// Package printers renders probe progress and statistics.
//
// Printers should not modify any existing data or make calculations.
// They only visualize what they are given.
package printers

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/wkitt4/tcprtt/internal/dns"
	"github.com/wkitt4/tcprtt/internal/probes"
	"github.com/wkitt4/tcprtt/internal/stats"
)

const timeFormat = "2006-01-02 15:04:05"

// Printer is the set of methods every output mode implements.
type Printer interface {
	// PrintStart prints the first message once the destination is selected.
	// input is the destination exactly as the user typed it.
	PrintStart(input string, dest dns.Destination)

	// PrintProbe prints the outcome of one attempt. err is a probe level
	// system error, shown instead of "No reply" when present.
	PrintProbe(index uint, dest dns.Destination, outcome probes.Outcome, err error)

	// PrintStatistics prints the summary. It is called on normal exit
	// and from the interrupt path.
	PrintStatistics(s stats.Snapshot)

	// PrintInfo prints a message not directly related to probing,
	// e.g. update information.
	PrintInfo(format string, args ...any)

	// PrintError prints an error message.
	// Printers apply the trailing newline themselves.
	PrintError(format string, args ...any)

	// PrintVersion prints the given version.
	PrintVersion(version string)
}

// Options selects and configures a printer.
type Options struct {
	Out       io.Writer
	JSON      bool
	Pretty    bool
	NoColor   bool
	Timestamp bool
	CSVPath   string
	DBPath    string
}

// New builds the console printer described by opts and tees it to the
// CSV and sqlite sinks when their paths are set.
//
// The returned printer implements io.Closer when a sink is attached.
func New(opts Options) (Printer, error) {
	if opts.Pretty && !opts.JSON {
		return nil, errors.New("--pretty has no effect without the -j flag")
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}

	var console Printer
	switch {
	case opts.JSON:
		console = NewJSONPrinter(opts.Out, opts.Pretty)
	case opts.NoColor:
		console = NewPlainPrinter(opts.Out, opts.Timestamp)
	default:
		console = NewColorPrinter(opts.Out, opts.Timestamp)
	}

	var sinks []Printer
	if opts.CSVPath != "" {
		cp, err := NewCSVPrinter(opts.CSVPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create CSV file: %w", err)
		}
		sinks = append(sinks, cp)
	}
	if opts.DBPath != "" {
		db, err := NewDatabase(opts.DBPath)
		if err != nil {
			closeAll(sinks)
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		sinks = append(sinks, db)
	}

	if len(sinks) == 0 {
		return console, nil
	}

	return Tee(append([]Printer{console}, sinks...)...), nil
}

// Close closes p when it holds files or connections.
func Close(p Printer) error {
	if c, ok := p.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func closeAll(ps []Printer) error {
	var errs []error
	for _, p := range ps {
		errs = append(errs, Close(p))
	}
	return errors.Join(errs...)
}

// isLiteral reports whether input names dest directly, so the
// start line need not repeat it.
func isLiteral(input string, dest dns.Destination) bool {
	return input == dest.Addr().String() || input == dest.String()
}

// reply is the middle part of a probe line.
func reply(dest dns.Destination, outcome probes.Outcome, err error) string {
	switch {
	case err != nil:
		return err.Error()
	case outcome.Success:
		return "Reply from " + dest.Addr().String()
	default:
		return "No reply"
	}
}

// probeLine formats one attempt the way every console printer shows it.
func probeLine(index uint, dest dns.Destination, outcome probes.Outcome, err error, timestamp bool) string {
	ts := ""
	if timestamp {
		ts = time.Now().Format(timeFormat) + " "
	}
	return fmt.Sprintf("    %s%d: %s - rto=%.3fms", ts, index, reply(dest, outcome, err), stats.Millis(outcome.Elapsed))
}
