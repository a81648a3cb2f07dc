package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"text/tabwriter"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"

	"github.com/Swind/go-osthread/config"
	"github.com/Swind/go-osthread/core"
	"github.com/Swind/go-osthread/observability/logging"
	obs "github.com/Swind/go-osthread/observability/prometheus"
)

// iterations counts how often a worker woke up, per thread.
var iterations = core.NewLocalKey[int]("iterations", nil)

func runCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Start worker threads, join them and print a report",

		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "TOML configuration file",
			},
			&cli.IntFlag{
				Name:    "threads",
				Aliases: []string{"n"},
				Value:   4,
				Usage:   "Number of worker threads",
			},
			&cli.DurationFlag{
				Name:  "work",
				Value: 100 * time.Millisecond,
				Usage: "How long each worker runs",
			},
			&cli.DurationFlag{
				Name:  "tick",
				Value: 10 * time.Millisecond,
				Usage: "Sleep between worker iterations",
			},
			&cli.StringFlag{
				Name:  "priority",
				Usage: "Worker priority (lowest, low, normal, high, highest); defaults to the configured priority",
			},
			&cli.DurationFlag{
				Name:  "join-timeout",
				Value: 5 * time.Second,
				Usage: "How long to wait for each worker",
			},
			&cli.BoolFlag{
				Name:  "metrics",
				Usage: "Serve Prometheus metrics while running",
			},
		},

		Action: runAction,
	}
}

func runAction(c *cli.Context) error {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return cli.Exit(fmt.Sprintf("Failed: %v", err), 1)
	}
	if c.Bool("metrics") {
		cfg.Metrics.Enabled = true
	}
	if err := cfg.Validate(); err != nil {
		return cli.Exit(fmt.Sprintf("Invalid config: %v", err), 1)
	}

	n := c.Int("threads")
	if n < 1 {
		return cli.Exit("threads must be at least 1", 1)
	}

	logger, closer, err := logging.NewCore(cfg.Logging)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Failed to set up logging: %v", err), 1)
	}
	defer closer.Close()

	rtCfg, err := cfg.Threads.RuntimeConfig(logger)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Invalid config: %v", err), 1)
	}

	var metrics *metricsServer
	if cfg.Metrics.Enabled {
		if metrics, err = serveMetrics(cfg.Metrics, logger); err != nil {
			return cli.Exit(fmt.Sprintf("Failed to start metrics: %v", err), 1)
		}
		defer metrics.Stop()
		rtCfg.Metrics = metrics.exporter
	}

	rt := core.NewRuntime(rtCfg)
	if metrics != nil {
		metrics.poller.AddRuntime("threadctl", rt)
	}

	priority := rtCfg.DefaultPriority
	if s := c.String("priority"); s != "" {
		if priority, err = core.ParsePriority(s); err != nil {
			return cli.Exit(err.Error(), 1)
		}
	}

	threads, err := startWorkers(rt, n, priority, c.Duration("work"), c.Duration("tick"))
	if err != nil {
		logger.Error("starting workers failed", core.F("error", err))
	}

	timedOut := joinWorkers(threads, c.Duration("join-timeout"), logger)
	printReport(c.App.Writer, rt, threads)

	if err != nil {
		return cli.Exit(fmt.Sprintf("Failed: %v", err), 1)
	}
	if timedOut > 0 {
		return cli.Exit(fmt.Sprintf("%d worker(s) did not finish in time", timedOut), 2)
	}
	return nil
}

func startWorkers(rt *core.Runtime, n int, priority core.Priority, work, tick time.Duration) ([]*core.Thread, error) {
	threads := make([]*core.Thread, 0, n)
	for range n {
		t := rt.NewThread()
		t.SetPriority(priority)
		if err := t.StartFunc(func() { worker(rt, work, tick) }); err != nil {
			return threads, err
		}
		threads = append(threads, t)
	}
	return threads, nil
}

func worker(rt *core.Runtime, work, tick time.Duration) {
	ls, err := rt.Local()
	if err != nil {
		rt.Logger().Error("worker has no local storage", core.F("error", err))
		return
	}

	deadline := time.Now().Add(work)
	for time.Now().Before(deadline) {
		iterations.Set(ls, iterations.Get(ls)+1)
		rt.Sleep(tick)
		rt.Yield()
	}
	rt.Logger().Debug("worker done",
		core.F("thread", rt.Current().Name()),
		core.F("iterations", iterations.Get(ls)),
	)
}

// joinWorkers waits for every thread and detaches the ones that time out.
func joinWorkers(threads []*core.Thread, timeout time.Duration, logger core.Logger) int {
	timedOut := 0
	for _, t := range threads {
		err := t.JoinTimeout(timeout)
		if errors.Is(err, core.ErrTimeout) {
			timedOut++
			logger.Warn("detaching worker", core.F("thread", t.Name()), core.F("error", err))
			t.Close()
			continue
		}
		if err != nil {
			logger.Error("join failed", core.F("thread", t.Name()), core.F("error", err))
		}
	}
	return timedOut
}

func printReport(out io.Writer, rt *core.Runtime, threads []*core.Thread) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tID\tPRIORITY\tSTATE\tNATIVE\tDURATION")
	for _, t := range threads {
		s := t.Stats()
		duration := "-"
		if !s.FinishedAt.IsZero() {
			duration = s.FinishedAt.Sub(s.StartedAt).Round(time.Millisecond).String()
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%d\t%s\n", s.Name, s.ID, s.Priority, s.State, s.NativeID, duration)
	}
	w.Flush()

	stats := rt.Stats()
	fmt.Fprintf(out, "started=%d finished=%d spawn_failures=%d priority_rejected=%d join_timeouts=%d\n",
		stats.Started, stats.Finished, stats.SpawnFailures, stats.PriorityRejected, stats.JoinTimeouts)
}

type metricsServer struct {
	exporter *obs.MetricsExporter
	poller   *obs.SnapshotPoller
	server   *http.Server
}

// serveMetrics registers the exporter and poller and serves them over HTTP.
func serveMetrics(cfg config.MetricsConfig, logger core.Logger) (*metricsServer, error) {
	interval, err := cfg.Interval()
	if err != nil {
		return nil, err
	}

	reg := prom.NewRegistry()
	exporter, err := obs.NewMetricsExporter(cfg.Namespace, reg, obs.ExporterOptions{})
	if err != nil {
		return nil, err
	}
	poller, err := obs.NewSnapshotPoller(cfg.Namespace, reg, interval)
	if err != nil {
		return nil, err
	}
	poller.Start(context.Background())

	mux := http.NewServeMux()
	mux.Handle(cfg.Path, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	server := &http.Server{Addr: cfg.ListenAddress, Handler: mux}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", core.F("error", err))
		}
	}()
	logger.Info("serving metrics", core.F("address", cfg.ListenAddress), core.F("path", cfg.Path))

	return &metricsServer{exporter: exporter, poller: poller, server: server}, nil
}

func (m *metricsServer) Stop() {
	m.poller.CollectOnce()
	m.poller.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = m.server.Shutdown(ctx)
}
