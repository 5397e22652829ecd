// Command olcbench runs a YCSB-style workload against an olctree index.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hupe1980/olctree"
	"github.com/hupe1980/olctree/internal/resource"
	"github.com/hupe1980/olctree/internal/ycsb"
)

const separator = "-------------------------------------------------------------------------------------"

type flags struct {
	tuples        uint64
	payload       int
	readRatio     int
	workers       int
	runFor        time.Duration
	zipf          float64
	scan          bool
	verify        bool
	opsPerSec     int
	pageSize      int
	arenaMB       int
	memoryLimitMB int
	offHeap       bool
	conflictRate  float64
	logFormat     string
	logLevel      string
	metricsAddr   string
	seed          uint64
}

func parseFlags(args []string) (*flags, error) {
	f := &flags{}

	fs := flag.NewFlagSet("olcbench", flag.ContinueOnError)
	fs.Uint64Var(&f.tuples, "tuples", 1_000_000, "number of keys to load")
	fs.IntVar(&f.payload, "payload", 120, "payload size in bytes")
	fs.IntVar(&f.readRatio, "read-ratio", 100, "percentage of transactions that are lookups")
	fs.IntVar(&f.workers, "workers", runtime.NumCPU(), "concurrent workers")
	fs.DurationVar(&f.runFor, "run-for", 10*time.Second, "length of the transaction phase (0 skips it)")
	fs.Float64Var(&f.zipf, "zipf", 0, "zipf skew of transaction keys in [0, 1); 0 is uniform")
	fs.BoolVar(&f.scan, "scan", false, "look up every key after loading")
	fs.BoolVar(&f.verify, "verify", false, "verify order, coverage, and payloads after loading")
	fs.IntVar(&f.opsPerSec, "ops-per-sec", 0, "cap on transactions per second (0 is unlimited)")
	fs.IntVar(&f.pageSize, "page-size", 4096, "tree node size in bytes")
	fs.IntVar(&f.arenaMB, "arena-mb", 0, "arena size in MiB (0 sizes it from -tuples)")
	fs.IntVar(&f.memoryLimitMB, "memory-limit-mb", 0, "memory limit in MiB (0 is unlimited)")
	fs.BoolVar(&f.offHeap, "off-heap", false, "place the arena in an anonymous mapping")
	fs.Float64Var(&f.conflictRate, "conflict-rate", 0, "probability of an injected insert restart")
	fs.StringVar(&f.logFormat, "log-format", "text", "log format: text or json")
	fs.StringVar(&f.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	fs.StringVar(&f.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	fs.Uint64Var(&f.seed, "seed", 42, "random seed")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return f, nil
}

func newLogger(w io.Writer, format, level string) (*olctree.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid -log-level %q: %w", level, err)
	}

	opts := &slog.HandlerOptions{Level: lvl}
	switch strings.ToLower(format) {
	case "text":
		return olctree.NewLogger(slog.NewTextHandler(w, opts)), nil
	case "json":
		return olctree.NewLogger(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("invalid -log-format %q", format)
	}
}

// arenaBytes estimates the arena needed for a sequential load of tuples
// entries. Sequential splits leave leaves half full; a quarter is added for
// inner nodes and headroom.
func arenaBytes(tuples uint64, payload, pageSize int) int {
	entry := 8 + (payload+7)/8*8
	perLeaf := max((pageSize-16)/entry/2, 1)
	leaves := tuples/uint64(perLeaf) + 1
	return int(leaves*uint64(pageSize)*5/4) + 1<<20
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(os.Stderr, "olcbench:", err)
		}
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	f, err := parseFlags(args)
	if err != nil {
		return err
	}

	logger, err := newLogger(os.Stderr, f.logFormat, f.logLevel)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	capacity := f.arenaMB << 20
	if capacity == 0 {
		capacity = arenaBytes(f.tuples, f.payload, f.pageSize)
	}

	opts := []olctree.Option{
		olctree.WithPageSize(f.pageSize),
		olctree.WithArenaCapacity(capacity),
		olctree.WithPayloadSize(f.payload),
		olctree.WithOffHeap(f.offHeap),
		olctree.WithMemoryLimit(int64(f.memoryLimitMB) << 20),
		olctree.WithConflictRate(f.conflictRate),
		olctree.WithLogger(logger),
	}

	var reg *prometheus.Registry
	if f.metricsAddr != "" {
		reg = prometheus.NewRegistry()
		opts = append(opts, olctree.WithMetricsCollector(NewPrometheusCollector(reg)))

		srv := serveMetrics(f.metricsAddr, reg, logger)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	idx, err := olctree.NewContext(ctx, opts...)
	if err != nil {
		return err
	}
	defer idx.Close()

	if reg != nil {
		RegisterIndexGauges(reg, idx)
	}

	cfg := ycsb.Config{
		Tuples:     f.tuples,
		ReadRatio:  f.readRatio,
		Workers:    f.workers,
		RunFor:     f.runFor,
		Zipf:       f.zipf,
		Scan:       f.scan,
		Verify:     f.verify,
		Seed:       f.seed,
		Controller: resource.NewController(resource.Config{OpsPerSecond: f.opsPerSec}),
		Logger:     logger.Logger,
	}

	report, err := ycsb.Run(ctx, idx, cfg)
	if report != nil {
		printReport(out, report, idx.Stats())
	}
	return err
}

func serveMetrics(addr string, reg *prometheus.Registry, logger *olctree.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("serving metrics", "addr", addr, "path", "/metrics")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "error", err)
		}
	}()

	return srv
}

func printPhase(out io.Writer, title string, p ycsb.Phase) {
	fmt.Fprintln(out, separator)
	fmt.Fprintln(out, title)
	fmt.Fprintf(out, "ops = %s\n", humanize.Comma(int64(p.Ops))) //nolint:gosec // op counts fit
	fmt.Fprintf(out, "time elapsed = %.3f\n", p.Elapsed.Seconds())
	fmt.Fprintf(out, "%.4f M tps\n", p.MTPS())
}

func printReport(out io.Writer, r *ycsb.Report, s olctree.Stats) {
	printPhase(out, "Inserting values", r.Load)
	fmt.Fprintf(out, "Inserted volume: (pages, size) = (%s, %s)\n",
		humanize.Comma(int64(s.PagesAllocated)), //nolint:gosec // page counts fit
		humanize.IBytes(s.ArenaUsed),
	)

	if r.Verify != nil {
		printPhase(out, "Verify", *r.Verify)
	}
	if r.Scan != nil {
		printPhase(out, "Scan", *r.Scan)
	}
	if r.Transactions != nil {
		printPhase(out, "Transactions", *r.Transactions)
		fmt.Fprintf(out, "reads = %s, updates = %s, misses = %s\n",
			humanize.Comma(int64(r.Reads)),   //nolint:gosec // op counts fit
			humanize.Comma(int64(r.Updates)), //nolint:gosec // op counts fit
			humanize.Comma(int64(r.Misses)),  //nolint:gosec // op counts fit
		)
	}

	fmt.Fprintln(out, separator)
	fmt.Fprintf(out, "entries = %s, height = %d, restarts = %s, arena = %s / %s\n",
		humanize.Comma(int64(s.Entries)), //nolint:gosec // entry counts fit
		s.Height,
		humanize.Comma(int64(s.Restarts)), //nolint:gosec // restart counts fit
		humanize.IBytes(s.ArenaUsed),
		humanize.IBytes(s.ArenaBytes),
	)
}
