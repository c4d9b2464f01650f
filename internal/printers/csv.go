package printers

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/wkitt4/tcprtt/internal/dns"
	"github.com/wkitt4/tcprtt/internal/probes"
	"github.com/wkitt4/tcprtt/internal/stats"
)

var (
	csvProbeHeader = []string{"timestamp", "index", "address", "port", "success", "rto_ms", "error"}
	csvStatsHeader = []string{"timestamp", "attempts", "successes", "success_rate", "min_ms", "avg_ms", "max_ms"}
)

// CSVPrinter records attempts to a CSV file and statistics to a
// sibling file with _stats appended to its name.
type CSVPrinter struct {
	probeFile *os.File
	probes    *csv.Writer

	statsPath string
	statsFile *os.File
	stats     *csv.Writer

	err error
}

// NewCSVPrinter creates path and writes its header.
func NewCSVPrinter(path string) (*CSVPrinter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}

	p := &CSVPrinter{
		probeFile: f,
		probes:    csv.NewWriter(f),
		statsPath: statsPath(path),
	}

	if err := p.write(p.probes, csvProbeHeader); err != nil {
		f.Close()
		return nil, err
	}

	return p, nil
}

// statsPath derives "out_stats.csv" from "out.csv".
func statsPath(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "_stats" + ext
}

func (p *CSVPrinter) write(w *csv.Writer, record []string) error {
	if err := w.Write(record); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

// fail keeps the first write error; Close returns it.
func (p *CSVPrinter) fail(err error) {
	if p.err == nil {
		p.err = err
	}
}

// Err returns the first write error, if any.
func (p *CSVPrinter) Err() error { return p.err }

func (p *CSVPrinter) PrintStart(string, dns.Destination) {}

func (p *CSVPrinter) PrintProbe(index uint, dest dns.Destination, outcome probes.Outcome, err error) {
	errText := ""
	if err != nil {
		errText = err.Error()
	}

	p.fail(p.write(p.probes, []string{
		time.Now().Format(timeFormat),
		strconv.FormatUint(uint64(index), 10),
		dest.Addr().String(),
		strconv.Itoa(int(dest.Port())),
		strconv.FormatBool(outcome.Success),
		fmt.Sprintf("%.3f", stats.Millis(outcome.Elapsed)),
		errText,
	}))
}

// PrintStatistics writes the statistics file lazily, so runs that
// never finish do not leave an empty one behind.
func (p *CSVPrinter) PrintStatistics(s stats.Snapshot) {
	if p.stats == nil {
		f, err := os.Create(p.statsPath)
		if err != nil {
			p.fail(err)
			return
		}
		p.statsFile = f
		p.stats = csv.NewWriter(f)
		if err := p.write(p.stats, csvStatsHeader); err != nil {
			p.fail(err)
			return
		}
	}

	record := []string{
		time.Now().Format(timeFormat),
		strconv.FormatUint(uint64(s.Attempts), 10),
		strconv.FormatUint(uint64(s.Successes), 10),
		fmt.Sprintf("%.2f", s.SuccessRate()),
		"", "", "",
	}
	if s.HasRTT() {
		record[4] = fmt.Sprintf("%.3f", stats.Millis(s.Min))
		record[5] = fmt.Sprintf("%.3f", stats.Millis(s.Average()))
		record[6] = fmt.Sprintf("%.3f", stats.Millis(s.Max))
	}

	p.fail(p.write(p.stats, record))
}

func (p *CSVPrinter) PrintInfo(string, ...any)  {}
func (p *CSVPrinter) PrintError(string, ...any) {}
func (p *CSVPrinter) PrintVersion(string)       {}

// Close flushes and closes both files. It also reports the first
// error met while writing.
func (p *CSVPrinter) Close() error {
	p.probes.Flush()
	errs := []error{p.err, p.probes.Error(), p.probeFile.Close()}

	if p.stats != nil {
		p.stats.Flush()
		errs = append(errs, p.stats.Error(), p.statsFile.Close())
	}

	return errors.Join(errs...)
}
