package printers

import (
	"github.com/wkitt4/tcprtt/internal/dns"
	"github.com/wkitt4/tcprtt/internal/probes"
	"github.com/wkitt4/tcprtt/internal/stats"
)

// teePrinter forwards every call to all of its printers in order.
type teePrinter []Printer

// Tee returns a printer that writes to all ps.
func Tee(ps ...Printer) Printer {
	return teePrinter(ps)
}

func (t teePrinter) PrintStart(input string, dest dns.Destination) {
	for _, p := range t {
		p.PrintStart(input, dest)
	}
}

func (t teePrinter) PrintProbe(index uint, dest dns.Destination, outcome probes.Outcome, err error) {
	for _, p := range t {
		p.PrintProbe(index, dest, outcome, err)
	}
}

func (t teePrinter) PrintStatistics(s stats.Snapshot) {
	for _, p := range t {
		p.PrintStatistics(s)
	}
}

func (t teePrinter) PrintInfo(format string, args ...any) {
	for _, p := range t {
		p.PrintInfo(format, args...)
	}
}

func (t teePrinter) PrintError(format string, args ...any) {
	for _, p := range t {
		p.PrintError(format, args...)
	}
}

func (t teePrinter) PrintVersion(version string) {
	for _, p := range t {
		p.PrintVersion(version)
	}
}

func (t teePrinter) Close() error {
	return closeAll(t)
}
