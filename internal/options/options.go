// Package options turns the command line into a run configuration.
package options

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"github.com/gookit/color"

	"github.com/wkitt4/tcprtt/internal/dns"
	"github.com/wkitt4/tcprtt/internal/logging"
	"github.com/wkitt4/tcprtt/internal/ping"
	"github.com/wkitt4/tcprtt/internal/printers"
	"github.com/wkitt4/tcprtt/internal/probes"
)

// UsageError is an invalid command line. Callers print it with the usage text.
type UsageError struct {
	Msg string
}

func (e *UsageError) Error() string { return e.Msg }

func usageErrorf(format string, args ...any) error {
	return &UsageError{Msg: fmt.Sprintf(format, args...)}
}

// Options is everything the command line selects.
type Options struct {
	Run     ping.Config
	Printer printers.Options
	Log     logging.Config

	Help         bool
	ShowVersion  bool
	CheckUpdates bool
}

// flags that consume the following argument
var valueFlags = map[string]bool{
	"p": true, "n": true, "i": true, "w": true, "I": true,
	"csv": true, "db": true, "log-file": true, "config": true,
}

type rawFlags struct {
	help, forever            bool
	ipv4, ipv6               bool
	protocol, source         string
	count, interval, timeout uint
	json, pretty, noColor    bool
	timestamp                bool
	csv, db, logFile, config string
	version, update          bool
}

func newFlagSet(raw *rawFlags) *flag.FlagSet {
	fs := flag.NewFlagSet("tcprtt", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.BoolVar(&raw.help, "h", false, "Prints this message.")
	fs.BoolVar(&raw.help, "help", false, "Prints this message.")
	fs.BoolVar(&raw.forever, "f", false, "Keep going forever.")
	fs.BoolVar(&raw.forever, "forever", false, "Keep going forever.")
	fs.StringVar(&raw.protocol, "p", "tcp", "Protocol to use. Supported: "+strings.Join(probes.Protocols(), ", ")+".")
	fs.UintVar(&raw.count, "n", ping.DefaultCount, "Number of pings to send.")
	fs.UintVar(&raw.interval, "i", uint(ping.DefaultInterval/time.Millisecond), "Time interval between pings in milliseconds.")
	fs.UintVar(&raw.timeout, "w", uint(ping.DefaultTimeout/time.Millisecond), "Time to wait for each response in milliseconds.")
	fs.BoolVar(&raw.ipv4, "4", false, "Enforce IPv4. Default is the first resolved address.")
	fs.BoolVar(&raw.ipv6, "6", false, "Enforce IPv6. Default is the first resolved address.")
	fs.StringVar(&raw.source, "I", "", "Interface name or address to probe from.")
	fs.BoolVar(&raw.json, "j", false, "Output in JSON format.")
	fs.BoolVar(&raw.pretty, "pretty", false, "Use indentation when using the JSON output format. No effect without -j.")
	fs.BoolVar(&raw.noColor, "no-color", false, "Do not colorize output.")
	fs.BoolVar(&raw.timestamp, "D", false, "Show a timestamp on each probe line.")
	fs.StringVar(&raw.csv, "csv", "", "Also write probes to this CSV file; statistics go to a file with _stats appended.")
	fs.StringVar(&raw.db, "db", "", "Also write probes and statistics to this sqlite database.")
	fs.StringVar(&raw.logFile, "log-file", "", "Write a rotating diagnostic log to this file.")
	fs.StringVar(&raw.config, "config", "", "YAML profile with default values; flags take precedence.")
	fs.BoolVar(&raw.version, "v", false, "Show version.")
	fs.BoolVar(&raw.update, "u", false, "Check for updates and exit.")

	return fs
}

// Parse parses args, which exclude the program name.
func Parse(args []string) (*Options, error) {
	var raw rawFlags
	fs := newFlagSet(&raw)

	permuted, err := permuteArgs(args)
	if err != nil {
		return nil, err
	}
	if err := fs.Parse(permuted); err != nil {
		return nil, &UsageError{Msg: err.Error()}
	}

	opts := &Options{
		Help:         raw.help,
		ShowVersion:  raw.version,
		CheckUpdates: raw.update,
	}
	if opts.Help {
		return opts, nil
	}
	if opts.ShowVersion || opts.CheckUpdates {
		opts.Printer = printerOptions(&raw)
		return opts, nil
	}

	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	var profile *Profile
	if raw.config != "" {
		profile, err = LoadProfile(raw.config)
		if err != nil {
			return nil, err
		}
		profile.apply(&raw, set)
	}

	if raw.ipv4 && raw.ipv6 {
		return nil, usageErrorf("Only one IP version can be specified")
	}

	destination, err := destinationFromArgs(fs.Args())
	if err != nil {
		return nil, err
	}

	opts.Run = ping.Config{
		Destination: destination,
		Count:       raw.count,
		Forever:     raw.forever,
		Interval:    time.Duration(raw.interval) * time.Millisecond,
		Timeout:     time.Duration(raw.timeout) * time.Millisecond,
		Protocol:    raw.protocol,
		Source:      raw.source,
	}
	switch {
	case raw.ipv4:
		opts.Run.Family = dns.IPv4
	case raw.ipv6:
		opts.Run.Family = dns.IPv6
	}

	if _, err := probes.ForProtocol(raw.protocol, ""); err != nil {
		return nil, usageErrorf("Invalid protocol %s", raw.protocol)
	}
	if err := opts.Run.Validate(); err != nil {
		return nil, &UsageError{Msg: err.Error()}
	}

	opts.Printer = printerOptions(&raw)
	if opts.Printer.Pretty && !opts.Printer.JSON {
		return nil, usageErrorf("--pretty has no effect without the -j flag")
	}

	opts.Log = logging.DefaultConfig()
	if profile != nil && profile.Log != nil {
		opts.Log = *profile.Log
	}
	if raw.logFile != "" {
		opts.Log.File = raw.logFile
	}

	return opts, nil
}

func printerOptions(raw *rawFlags) printers.Options {
	return printers.Options{
		JSON:      raw.json,
		Pretty:    raw.pretty,
		NoColor:   raw.noColor,
		Timestamp: raw.timestamp,
		CSVPath:   raw.csv,
		DBPath:    raw.db,
	}
}

// destinationFromArgs accepts "<host>[:<port>]" or "<host> <port>".
func destinationFromArgs(args []string) (string, error) {
	switch len(args) {
	case 0:
		return "", usageErrorf("Destination is not supplied")
	case 1:
		return args[0], nil
	case 2:
		host := strings.TrimSuffix(strings.TrimPrefix(args[0], "["), "]")
		return net.JoinHostPort(host, args[1]), nil
	default:
		return "", usageErrorf("Unexpected arguments: %s", strings.Join(args[2:], " "))
	}
}

/*
permuteArgs moves flags in front of positional arguments, since flag
parsing stops just before the first non-flag argument.

see: https://pkg.go.dev/flag
*/
func permuteArgs(args []string) ([]string, error) {
	var flagArgs []string
	var nonFlagArgs []string

	for i := 0; i < len(args); i++ {
		v := args[i]
		if len(v) < 2 || v[0] != '-' {
			nonFlagArgs = append(nonFlagArgs, v)
			continue
		}

		optionName := strings.TrimLeft(v, "-")
		if strings.Contains(optionName, "=") || !valueFlags[optionName] {
			flagArgs = append(flagArgs, v)
			continue
		}

		/* out of index */
		if len(args) <= i+1 {
			return nil, usageErrorf("Missing value for option %s", v)
		}
		/* the next flag has come */
		optionVal := args[i+1]
		if len(optionVal) > 0 && optionVal[0] == '-' {
			return nil, usageErrorf("Missing value for option %s", v)
		}
		flagArgs = append(flagArgs, args[i:i+2]...)
		i++
	}

	return append(flagArgs, nonFlagArgs...), nil
}

// PrintUsage writes how tcprtt should be run.
func PrintUsage(w io.Writer, version string) {
	var raw rawFlags
	fs := newFlagSet(&raw)

	fmt.Fprint(w, color.LightCyan.Sprintf("\ntcprtt version %s\n\n", version))
	fmt.Fprint(w, color.Red.Sprintf("usage: tcprtt [flags] [options] <destination>\n"))
	fmt.Fprint(w, color.Red.Sprintf("Destination format: <host>[:<port>] or <host> <port>\n"))
	fmt.Fprint(w, color.Red.Sprintf("Measures the RTT of TCP connection establishment.\n"))
	fmt.Fprint(w, color.Yellow.Sprintf("\n[options]\n"))

	fs.VisitAll(func(f *flag.Flag) {
		flagName := f.Name
		if len(f.Name) > 1 {
			flagName = "-" + flagName
		}

		fmt.Fprint(w, color.Yellow.Sprintf("  -%s : %s\n", flagName, f.Usage))
	})
}

// IsUsageError reports whether err should be followed by the usage text.
func IsUsageError(err error) bool {
	var ue *UsageError
	return errors.As(err, &ue)
}
