package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"speedmap.onebusaway.org/internal/app"
	"speedmap.onebusaway.org/internal/appconf"
	"speedmap.onebusaway.org/internal/logging"
	"speedmap.onebusaway.org/internal/speedmap"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

type cliFlags struct {
	configPath      string
	format          string
	logLevel        string
	dumpGraph       bool
	metricsTextfile string
}

func newFlagSet(stderr io.Writer) (*flag.FlagSet, *cliFlags) {
	f := &cliFlags{}
	fs := flag.NewFlagSet("speedmap", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "usage: speedmap [flags] <input-file> <segment-length>")
		fs.PrintDefaults()
	}

	fs.StringVar(&f.configPath, "config", "", "path to a YAML config file")
	fs.StringVar(&f.format, "format", "", "output format: text, json or csv")
	fs.StringVar(&f.logLevel, "log-level", "", "log level: "+strings.Join(logging.Levels, ", "))
	fs.BoolVar(&f.dumpGraph, "dump-graph", false, "dump the speed graph to stderr")
	fs.StringVar(&f.metricsTextfile, "metrics-textfile", "", "write Prometheus metrics to this file")
	return fs, f
}

// applyFlags overrides cfg with the flags that were set explicitly.
func applyFlags(fs *flag.FlagSet, f *cliFlags, cfg *appconf.Config) {
	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "format":
			cfg.OutputFormat = f.format
		case "log-level":
			cfg.LogLevel = f.logLevel
		case "dump-graph":
			cfg.DumpSpeedGraph = f.dumpGraph
		case "metrics-textfile":
			cfg.MetricsTextfile = f.metricsTextfile
		}
	})
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs, f := newFlagSet(stderr)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	if fs.NArg() != 2 {
		fmt.Fprintf(stderr, "2 input arguments are expected, but %d were given\n", fs.NArg())
		fs.Usage()
		return exitUsage
	}
	inputPath, rawLength := fs.Arg(0), fs.Arg(1)

	fallback := logging.NewLogger(stderr, slog.LevelInfo, "text")

	cfg, err := appconf.Load(f.configPath)
	if err != nil {
		logging.LogError(fallback, "failed to load configuration", err)
		return exitUsage
	}
	applyFlags(fs, f, &cfg)

	coreApp, err := app.BuildApplication(cfg, stdout, stderr)
	if err != nil {
		logging.LogError(fallback, "failed to build application", err)
		return exitUsage
	}

	segmentLength, err := speedmap.ParseSegmentLength(rawLength)
	if err != nil {
		logging.LogError(coreApp.Logger, "invalid segment length", err,
			slog.String("segment_length", rawLength))
		return exitError
	}

	if _, err := coreApp.Run(ctx, inputPath, segmentLength); err != nil {
		logging.LogError(coreApp.Logger, "speed map failed", err,
			slog.String("input", inputPath))
		return exitError
	}
	return exitOK
}
