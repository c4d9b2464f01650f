package printers

import (
	"fmt"
	"io"

	"github.com/wkitt4/tcprtt/internal/dns"
	"github.com/wkitt4/tcprtt/internal/probes"
	"github.com/wkitt4/tcprtt/internal/stats"
)

// PlainPrinter writes uncolored text.
type PlainPrinter struct {
	w             io.Writer
	showTimestamp bool
}

// NewPlainPrinter returns a printer writing plain text to w.
func NewPlainPrinter(w io.Writer, showTimestamp bool) *PlainPrinter {
	return &PlainPrinter{w: w, showTimestamp: showTimestamp}
}

func (p *PlainPrinter) PrintStart(input string, dest dns.Destination) {
	if isLiteral(input, dest) {
		fmt.Fprintf(p.w, "Pinging %s/%d\n", dest.Addr(), dest.Port())
		return
	}
	fmt.Fprintf(p.w, "Pinging %s/%d (%s)\n", dest.Addr(), dest.Port(), input)
}

func (p *PlainPrinter) PrintProbe(index uint, dest dns.Destination, outcome probes.Outcome, err error) {
	fmt.Fprintln(p.w, probeLine(index, dest, outcome, err, p.showTimestamp))
}

func (p *PlainPrinter) PrintStatistics(s stats.Snapshot) {
	fmt.Fprint(p.w, s.String())
}

func (p *PlainPrinter) PrintInfo(format string, args ...any) {
	fmt.Fprintf(p.w, format+"\n", args...)
}

func (p *PlainPrinter) PrintError(format string, args ...any) {
	fmt.Fprintf(p.w, format+"\n", args...)
}

func (p *PlainPrinter) PrintVersion(version string) {
	fmt.Fprintf(p.w, "tcprtt version %s\n", version)
}
