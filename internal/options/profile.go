package options

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/wkitt4/tcprtt/internal/logging"
)

// Profile holds defaults loaded with --config. Unset fields keep the
// built-in defaults and flags given on the command line always win.
//
//	count: 10
//	interval_ms: 200
//	timeout_ms: 1500
//	family: ipv6
//	output:
//	  no_color: true
//	log:
//	  file: /var/log/tcprtt.log
//	  max_size: 5
type Profile struct {
	Count      *uint   `yaml:"count"`
	IntervalMs *uint   `yaml:"interval_ms"`
	TimeoutMs  *uint   `yaml:"timeout_ms"`
	Forever    *bool   `yaml:"forever"`
	Family     string  `yaml:"family"`
	Protocol   string  `yaml:"protocol"`
	Source     string  `yaml:"source"`
	Output     *Output `yaml:"output"`

	Log *logging.Config `yaml:"log"`
}

// Output mirrors the output flags.
type Output struct {
	JSON      bool   `yaml:"json"`
	Pretty    bool   `yaml:"pretty"`
	NoColor   bool   `yaml:"no_color"`
	Timestamp bool   `yaml:"timestamp"`
	CSV       string `yaml:"csv"`
	DB        string `yaml:"db"`
}

// LoadProfile reads and validates a YAML profile.
func LoadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	switch strings.ToLower(p.Family) {
	case "", "4", "6", "ipv4", "ipv6", "any":
	default:
		return nil, fmt.Errorf("config %s: unknown family %q", path, p.Family)
	}

	return &p, nil
}

// apply copies profile values into raw for every flag not set explicitly.
func (p *Profile) apply(raw *rawFlags, set map[string]bool) {
	unset := func(names ...string) bool {
		for _, n := range names {
			if set[n] {
				return false
			}
		}
		return true
	}

	if p.Count != nil && unset("n") {
		raw.count = *p.Count
	}
	if p.IntervalMs != nil && unset("i") {
		raw.interval = *p.IntervalMs
	}
	if p.TimeoutMs != nil && unset("w") {
		raw.timeout = *p.TimeoutMs
	}
	if p.Forever != nil && unset("f", "forever") {
		raw.forever = *p.Forever
	}
	if p.Protocol != "" && unset("p") {
		raw.protocol = p.Protocol
	}
	if p.Source != "" && unset("I") {
		raw.source = p.Source
	}

	if unset("4", "6") {
		switch strings.ToLower(p.Family) {
		case "4", "ipv4":
			raw.ipv4 = true
		case "6", "ipv6":
			raw.ipv6 = true
		}
	}

	if p.Output == nil {
		return
	}
	if unset("j") {
		raw.json = p.Output.JSON
	}
	if unset("pretty") {
		raw.pretty = p.Output.Pretty
	}
	if unset("no-color") {
		raw.noColor = p.Output.NoColor
	}
	if unset("D") {
		raw.timestamp = p.Output.Timestamp
	}
	if p.Output.CSV != "" && unset("csv") {
		raw.csv = p.Output.CSV
	}
	if p.Output.DB != "" && unset("db") {
		raw.db = p.Output.DB
	}
}
