// tcprtt measures TCP connection establishment time to a destination.
package main

import (
	"context"
	"io"
	"os"

	"github.com/wkitt4/tcprtt/internal/interrupt"
	"github.com/wkitt4/tcprtt/internal/logging"
	"github.com/wkitt4/tcprtt/internal/options"
	"github.com/wkitt4/tcprtt/internal/ping"
	"github.com/wkitt4/tcprtt/internal/printers"
	"github.com/wkitt4/tcprtt/internal/update"
)

var version = "" // set at compile time

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

// run is the single exit point of the program. It returns the exit code.
func run(args []string, out io.Writer) int {
	opts, err := options.Parse(args)
	if err != nil {
		p := printers.NewColorPrinter(out, false)
		p.PrintError("ERROR: %s", err)
		if options.IsUsageError(err) {
			options.PrintUsage(out, version)
		}
		return ping.ExitFailure
	}

	if opts.Help {
		options.PrintUsage(out, version)
		return ping.ExitOK
	}

	// printers are set first, because they're used for
	// error reporting and other output.
	opts.Printer.Out = out
	printer, err := printers.New(opts.Printer)
	if err != nil {
		printers.NewColorPrinter(out, false).PrintError("%s", err)
		return ping.ExitFailure
	}

	if opts.ShowVersion || opts.CheckUpdates {
		defer printers.Close(printer)
		if opts.ShowVersion {
			printer.PrintVersion(version)
			return ping.ExitOK
		}
		return checkForUpdates(printer)
	}

	logger := logging.New(opts.Log)
	defer logger.Close()

	loop, err := ping.New(opts.Run, printer, ping.WithLogger(logger.Logger))
	if err != nil {
		printer.PrintError("%s", err)
		printers.Close(printer)
		return ping.ExitFailure
	}

	stop := interrupt.Notify(loop.Interrupt)
	defer stop()

	code, err := loop.Run(context.Background())
	if err != nil {
		printer.PrintError("%s", err)
	}

	if err := loop.Close(); err != nil {
		printer.PrintError("failed to write output: %s", err)
		return ping.ExitFailure
	}

	return code
}

func checkForUpdates(printer printers.Printer) int {
	res, err := update.Check(context.Background(), update.NewReleaseGetter(), version)
	if err != nil {
		printer.PrintError("%s", err)
		return ping.ExitFailure
	}

	for _, msg := range res.Messages() {
		printer.PrintInfo("%s", msg)
	}

	return ping.ExitOK
}
