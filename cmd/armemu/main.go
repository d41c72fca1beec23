// Package main provides the entry point for armemu.
// armemu runs a raw ARM program image until it fetches an all-zero word and
// prints the final registers and nonzero memory.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"

	"github.com/sarchlab/armemu/emu"
	"github.com/sarchlab/armemu/loader"
	"github.com/sarchlab/armemu/report"
	"github.com/sarchlab/armemu/timing/latency"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the CLI with the given arguments and returns the exit code.
func run(args []string, stdout, stderr io.Writer) int {
	flags := flag.NewFlagSet("armemu", flag.ContinueOnError)
	flags.SetOutput(stderr)

	verbose := flags.Bool("v", false, "Trace every instruction to stderr")
	maxInsts := flags.Uint64("max", 0, "Stop after N instructions (0 = no limit)")
	memSize := flags.Uint("mem", emu.DefaultMemorySize, "Memory size in bytes")
	configPath := flags.String("config", "", "Path to timing configuration JSON file")
	showStats := flags.Bool("stats", false, "Print instruction and cycle statistics")

	flags.Usage = func() {
		fmt.Fprintf(stderr, "Usage: armemu [options] <program.bin>\n")
		fmt.Fprintf(stderr, "\nOptions:\n")
		flags.PrintDefaults()
	}

	if err := flags.Parse(args); err != nil {
		return 1
	}
	if flags.NArg() != 1 {
		flags.Usage()
		return 1
	}
	if *memSize == 0 || uint64(*memSize) > 1<<32-1 {
		fmt.Fprintf(stderr, "Error: invalid memory size %d\n", *memSize)
		return 1
	}

	timingConfig := latency.DefaultTimingConfig()
	if *configPath != "" {
		var err error
		timingConfig, err = latency.LoadConfig(*configPath)
		if err == nil {
			err = timingConfig.Validate()
		}
		if err != nil {
			fmt.Fprintf(stderr, "Error loading timing config: %v\n", err)
			return 1
		}
	}

	capacity := uint32(*memSize)
	img, err := loader.Load(flags.Arg(0), capacity)
	if err != nil {
		fmt.Fprintf(stderr, "Error loading program: %v\n", err)
		return 1
	}

	emulator := emu.NewEmulator(
		emu.WithMemorySize(capacity),
		emu.WithMaxInstructions(*maxInsts),
		emu.WithLatencyTable(latency.NewTableWithConfig(timingConfig)),
		emu.WithLogger(newLogger(stderr, *verbose)),
	)
	if err := emulator.LoadProgram(img.Data); err != nil {
		fmt.Fprintf(stderr, "Error loading program: %v\n", err)
		return 1
	}

	runErr := emulator.Run()
	if runErr != nil {
		fmt.Fprintf(stderr, "Error: %v\n", describe(runErr))
	}

	if err := report.Write(stdout, emulator.RegFile(), emulator.Memory()); err != nil {
		fmt.Fprintf(stderr, "Error writing report: %v\n", err)
		return 1
	}
	if *showStats {
		fmt.Fprintln(stdout)
		if err := report.WriteStats(stdout, emulator.Stats()); err != nil {
			fmt.Fprintf(stderr, "Error writing statistics: %v\n", err)
			return 1
		}
	}

	if runErr != nil {
		return 1
	}
	return 0
}

// newLogger returns a logger that writes trace lines to w when verbose.
func newLogger(w io.Writer, verbose bool) logr.Logger {
	if !verbose {
		return logr.Discard()
	}
	return funcr.New(func(prefix, args string) {
		if prefix != "" {
			fmt.Fprintf(w, "%s: %s\n", prefix, args)
			return
		}
		fmt.Fprintln(w, args)
	}, funcr.Options{Verbosity: 1})
}

// describe adds the fault class to runtime errors.
func describe(err error) string {
	var (
		decodeErr *emu.DecodeError
		oobErr    *emu.OutOfBoundsError
	)

	switch {
	case errors.As(err, &decodeErr):
		return fmt.Sprintf("decode error: %v", err)
	case errors.As(err, &oobErr):
		return fmt.Sprintf("memory fault: %v", err)
	case errors.Is(err, emu.ErrInstructionLimit):
		return fmt.Sprintf("%v without halting", err)
	default:
		return err.Error()
	}
}
