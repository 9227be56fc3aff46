package main

import (
	"flag"
	"fmt"
	"os"
	"time"
)

// version is injected at build time with -ldflags "-X main.version=...". Defaults to dev.
var version = "dev"

// cliConfig holds user-supplied flag values prior to translation into
// receiver.Option values: parseFlags validates them and main.go maps them.
type cliConfig struct {
	listenAddr      string
	logLevel        string
	ttl             time.Duration
	maxDatagramSize uint
	workers         int
	metricsAddr     string
	showVersion     bool
}

func parseFlags(args []string) (*cliConfig, error) {
	fs := flag.NewFlagSet("gelf-receiver", flag.ContinueOnError)
	fs.SetOutput(os.Stdout)

	cfg := &cliConfig{}

	fs.StringVar(&cfg.listenAddr, "listen", ":12201", "UDP listen address (e.g. :12201 or 0.0.0.0:12201)")
	fs.StringVar(&cfg.logLevel, "log-level", "info", "Log level: debug|info|warn|error")
	fs.DurationVar(&cfg.ttl, "ttl", 5*time.Second, "Lifetime of a partial chunk set before it is reaped")
	fs.UintVar(&cfg.maxDatagramSize, "max-datagram-size", 1432, "Maximum UDP datagram size accepted")
	fs.IntVar(&cfg.workers, "workers", 16, "Maximum concurrent handler dispatch workers")
	fs.StringVar(&cfg.metricsAddr, "metrics-listen", "", "Address to serve Prometheus metrics on (empty = disabled)")
	fs.BoolVar(&cfg.showVersion, "version", false, "Print version and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	fail := func(format string, a ...any) (*cliConfig, error) {
		err := fmt.Errorf(format, a...)
		fmt.Fprintln(fs.Output(), err)
		return nil, err
	}

	switch cfg.logLevel {
	case "debug", "info", "warn", "error":
	default:
		return fail("invalid log-level %q", cfg.logLevel)
	}

	if cfg.maxDatagramSize < 12 {
		return fail("max-datagram-size must be at least 12 (the chunk header size), got %d", cfg.maxDatagramSize)
	}

	if cfg.workers < 1 {
		return fail("workers must be at least 1, got %d", cfg.workers)
	}

	if cfg.ttl <= 0 {
		return fail("ttl must be positive, got %s", cfg.ttl)
	}

	return cfg, nil
}
