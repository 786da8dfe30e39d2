package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/blang/semver"

	"github.com/Fepozopo/pgmedge/pkg/edge"
	"github.com/Fepozopo/pgmedge/pkg/logger"
)

// ErrUsage marks errors caused by how the tool was invoked.
var ErrUsage = errors.New("usage error")

func usage(fs *flag.FlagSet, w io.Writer) {
	fmt.Fprintln(w, "Usage: pgmedge [flags] <filter_type>")
	fmt.Fprintln(w, "Filter types:")
	for _, f := range edge.Selectable() {
		fmt.Fprintf(w, "  %-10s %s\n", f.Name, f.Description)
	}
	fmt.Fprintln(w, "Flags:")
	fs.SetOutput(w)
	fs.PrintDefaults()
}

// Run parses args, runs one batch and returns the process exit code.
func Run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("pgmedge", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	def := DefaultConfig()
	var (
		in          = fs.String("in", def.InputDir, "directory scanned for .pgm inputs")
		filtered    = fs.String("filtered", def.FilteredDir, "directory for filtered images")
		thresholded = fs.String("thresholded", def.ThresholdedDir, "directory for thresholded images")
		logFile     = fs.String("log", def.LogFile, "threshold log file")
		histograms  = fs.String("histograms", "", "directory for histogram renderings (disabled when empty)")
		jobs        = fs.Int("jobs", def.Jobs, "images processed concurrently")
		envFile     = fs.String("env", ".env", "dotenv file loaded before flags are applied")
		showVersion = fs.Bool("version", false, "print the version and exit")
		update      = fs.Bool("update", false, "check for a newer release and offer to install it")
	)
	fs.Usage = func() {}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			usage(fs, stdout)
			return 0
		}
		fmt.Fprintln(stderr, err)
		usage(fs, stderr)
		return 1
	}

	if *showVersion {
		v, err := semver.ParseTolerant(Version)
		if err != nil {
			fmt.Fprintf(stdout, "pgmedge %s\n", Version)
			return 0
		}
		fmt.Fprintf(stdout, "pgmedge %s\n", v)
		return 0
	}
	if *update {
		if err := CheckForUpdates(stdin, stdout); err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		return 0
	}

	if fs.NArg() != 1 {
		usage(fs, stderr)
		return 1
	}
	filter := strings.ToLower(fs.Arg(0))
	if f, err := edge.Lookup(filter); err != nil || !f.Selectable {
		fmt.Fprintf(stderr, "Invalid filter type: %s\n", fs.Arg(0))
		usage(fs, stderr)
		return 1
	}

	cfg, err := LoadConfig(*envFile)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "in":
			cfg.InputDir = *in
		case "filtered":
			cfg.FilteredDir = *filtered
		case "thresholded":
			cfg.ThresholdedDir = *thresholded
		case "log":
			cfg.LogFile = *logFile
		case "histograms":
			cfg.HistogramDir = *histograms
		case "jobs":
			cfg.Jobs = *jobs
		}
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	log := logger.NewConsoleLogger(stderr, logger.LevelFromString(cfg.LogLevel))
	sum, err := RunBatch(ctx, cfg, filter, log)
	if err != nil {
		log.Error("CLI", err, nil)
		if errors.Is(err, ErrUsage) {
			usage(fs, stderr)
		}
		return 1
	}
	fmt.Fprintf(stdout, "Processed %d image(s) with %s: %d failed, %d skipped. Thresholds written to %s\n",
		sum.Processed, filter, sum.Failed, sum.Skipped, cfg.LogFile)
	return 0
}

// Main is the entry point used by cmd/pgmedge.
func Main(ctx context.Context) int {
	return Run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
}
