package printers

import (
	"fmt"
	"io"

	"github.com/gookit/color"

	"github.com/wkitt4/tcprtt/internal/dns"
	"github.com/wkitt4/tcprtt/internal/probes"
	"github.com/wkitt4/tcprtt/internal/stats"
)

// ColorPrinter writes ANSI colored text.
type ColorPrinter struct {
	w             io.Writer
	showTimestamp bool
}

// NewColorPrinter returns a printer writing colored text to w.
func NewColorPrinter(w io.Writer, showTimestamp bool) *ColorPrinter {
	return &ColorPrinter{w: w, showTimestamp: showTimestamp}
}

func (p *ColorPrinter) print(c color.Color, format string, args ...any) {
	fmt.Fprint(p.w, c.Sprintf(format, args...))
}

func (p *ColorPrinter) PrintStart(input string, dest dns.Destination) {
	if isLiteral(input, dest) {
		p.print(color.LightCyan, "Pinging %s/%d\n", dest.Addr(), dest.Port())
		return
	}
	p.print(color.LightCyan, "Pinging %s/%d (%s)\n", dest.Addr(), dest.Port(), input)
}

func (p *ColorPrinter) PrintProbe(index uint, dest dns.Destination, outcome probes.Outcome, err error) {
	c := color.LightGreen
	if !outcome.Success {
		c = color.Red
	}
	p.print(c, "%s\n", probeLine(index, dest, outcome, err, p.showTimestamp))
}

func (p *ColorPrinter) PrintStatistics(s stats.Snapshot) {
	p.print(color.Yellow, "\nSummary:\n")
	p.print(color.Yellow, "    %d pings sent.\n", s.Attempts)

	if !s.HasRTT() {
		p.print(color.Yellow, "    ")
		p.print(color.Red, "%d", s.Successes)
		p.print(color.Yellow, " successful. Rate: ")
		p.print(color.Red, "%.2f%%\n", 0.0)
		p.print(color.Yellow, "RTT statistics:\n")
		p.print(color.Red, "    No statistics collected.\n")
		return
	}

	/* success rate stats */
	rate := s.SuccessRate()
	rateColor := color.Red
	switch {
	case rate == 100:
		rateColor = color.Green
	case rate >= 70:
		rateColor = color.LightYellow
	}

	p.print(color.Yellow, "    ")
	p.print(color.Green, "%d", s.Successes)
	p.print(color.Yellow, " successful. Success Rate: ")
	p.print(rateColor, "%.2f%%\n", rate)

	p.print(color.Yellow, "RTT statistics:\n    ")
	p.print(color.Green, "min=%.3fms", stats.Millis(s.Min))
	p.print(color.Yellow, ", ")
	p.print(color.Cyan, "average=%.3fms", stats.Millis(s.Average()))
	p.print(color.Yellow, ", ")
	p.print(color.Red, "max=%.3fms\n", stats.Millis(s.Max))
}

func (p *ColorPrinter) PrintInfo(format string, args ...any) {
	p.print(color.FgLightBlue, format+"\n", args...)
}

func (p *ColorPrinter) PrintError(format string, args ...any) {
	p.print(color.Red, format+"\n", args...)
}

func (p *ColorPrinter) PrintVersion(version string) {
	p.print(color.Green, "tcprtt version %s\n", version)
}
