package printers

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/wkitt4/tcprtt/internal/dns"
	"github.com/wkitt4/tcprtt/internal/probes"
	"github.com/wkitt4/tcprtt/internal/stats"
)

// JSONEventType is a special type, one for each method
// in the Printer interface, so that automatic tools
// can understand what kind of an event they've received.
type JSONEventType string

const (
	// startEvent is an event type for [PrintStart].
	startEvent JSONEventType = "start"
	// probeEvent is an event type for [PrintProbe].
	probeEvent JSONEventType = "probe"
	// statisticsEvent is an event type for [PrintStatistics].
	statisticsEvent JSONEventType = "statistics"
	// infoEvent is an event type for [PrintInfo].
	infoEvent JSONEventType = "info"
	// versionEvent is an event type for [PrintVersion].
	versionEvent JSONEventType = "version"
	// errorEvent is an event type for [PrintError].
	errorEvent JSONEventType = "error"
)

// JSONData contains all possible fields for JSON output.
// Because one event usually contains only a subset of fields,
// other fields will be omitted in the output.
type JSONData struct {
	// Type is a mandatory field that specifies type of a message/event.
	Type JSONEventType `json:"type"`
	// Message contains a human-readable message.
	Message string `json:"message"`
	// Timestamp contains data when a message was sent.
	Timestamp time.Time `json:"timestamp"`

	// Optional fields below

	Input  string `json:"input,omitempty"`
	Addr   string `json:"addr,omitempty"`
	Family string `json:"family,omitempty"`
	Port   uint16 `json:"port,omitempty"`
	Index  *uint  `json:"index,omitempty"`

	// Success is a pointer on purpose, otherwise success=false
	// would be omitted, but we still need to omit it for non-probe messages.
	Success *bool  `json:"success,omitempty"`
	Error   string `json:"error,omitempty"`

	// RTO is the elapsed time of an attempt in milliseconds.
	//
	// It's a string on purpose, as we'd like to have exactly
	// 3 decimal places without doing extra math.
	RTO string `json:"rto,omitempty"`

	TotalPackets            *uint  `json:"total_packets,omitempty"`
	TotalSuccessfulProbes   *uint  `json:"total_successful_probes,omitempty"`
	TotalUnsuccessfulProbes *uint  `json:"total_unsuccessful_probes,omitempty"`
	SuccessRate             string `json:"success_rate,omitempty"`

	// Latency stats are strings for the same reason as RTO.
	LatencyMin string `json:"latency_min,omitempty"`
	LatencyAvg string `json:"latency_avg,omitempty"`
	LatencyMax string `json:"latency_max,omitempty"`
}

// JSONPrinter writes one JSON object per event.
type JSONPrinter struct {
	e *json.Encoder
}

// NewJSONPrinter returns a printer encoding events to w.
func NewJSONPrinter(w io.Writer, withIndent bool) *JSONPrinter {
	encoder := json.NewEncoder(w)
	if withIndent {
		encoder.SetIndent("", "\t")
	}
	return &JSONPrinter{e: encoder}
}

// print is a little helper method for p.e.Encode.
// It also sets data.Timestamp to Now().
func (p *JSONPrinter) print(data JSONData) {
	data.Timestamp = time.Now()
	p.e.Encode(data)
}

func (p *JSONPrinter) PrintStart(input string, dest dns.Destination) {
	p.print(JSONData{
		Type:    startEvent,
		Message: fmt.Sprintf("Pinging %s/%d", dest.Addr(), dest.Port()),
		Input:   input,
		Addr:    dest.Addr().String(),
		Family:  dest.Family.String(),
		Port:    dest.Port(),
	})
}

func (p *JSONPrinter) PrintProbe(index uint, dest dns.Destination, outcome probes.Outcome, err error) {
	success := outcome.Success
	data := JSONData{
		Type:    probeEvent,
		Message: probeLine(index, dest, outcome, err, false),
		Addr:    dest.Addr().String(),
		Port:    dest.Port(),
		Index:   &index,
		Success: &success,
		RTO:     fmt.Sprintf("%.3f", stats.Millis(outcome.Elapsed)),
	}
	if err != nil {
		data.Error = err.Error()
	}

	p.print(data)
}

func (p *JSONPrinter) PrintStatistics(s stats.Snapshot) {
	failures := s.Failures()
	data := JSONData{
		Type:                    statisticsEvent,
		Message:                 fmt.Sprintf("%d pings sent, %d successful", s.Attempts, s.Successes),
		TotalPackets:            &s.Attempts,
		TotalSuccessfulProbes:   &s.Successes,
		TotalUnsuccessfulProbes: &failures,
		SuccessRate:             fmt.Sprintf("%.2f", s.SuccessRate()),
	}

	if s.HasRTT() {
		data.LatencyMin = fmt.Sprintf("%.3f", stats.Millis(s.Min))
		data.LatencyAvg = fmt.Sprintf("%.3f", stats.Millis(s.Average()))
		data.LatencyMax = fmt.Sprintf("%.3f", stats.Millis(s.Max))
	}

	p.print(data)
}

func (p *JSONPrinter) PrintInfo(format string, args ...any) {
	p.print(JSONData{
		Type:    infoEvent,
		Message: fmt.Sprintf(format, args...),
	})
}

func (p *JSONPrinter) PrintError(format string, args ...any) {
	p.print(JSONData{
		Type:    errorEvent,
		Message: fmt.Sprintf(format, args...),
	})
}

func (p *JSONPrinter) PrintVersion(version string) {
	p.print(JSONData{
		Type:    versionEvent,
		Message: fmt.Sprintf("tcprtt version %s", version),
	})
}
