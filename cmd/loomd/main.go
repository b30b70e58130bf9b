// Command loomd runs a loom scheduler pool with a Prometheus metrics
// endpoint, until interrupted.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/loomkit/loom"
	"github.com/loomkit/loom/config"
	obs "github.com/loomkit/loom/observability/prometheus"
	"github.com/loomkit/loom/observability/zerologger"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "loomd",
		Usage: "Run a loom worker pool and expose its metrics",

		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "YAML configuration file (overrides the other flags)",
			},
			&cli.IntFlag{
				Name:  "workers",
				Value: 4,
				Usage: "Number of workers in the pool",
			},
			&cli.IntFlag{
				Name:  "step-ms",
				Value: 10,
				Usage: "Per-tick sleep in milliseconds",
			},
			&cli.IntFlag{
				Name:  "queue-cap",
				Value: 1024,
				Usage: "Per-worker task queue capacity",
			},
			&cli.StringFlag{
				Name:  "metrics-addr",
				Value: ":2112",
				Usage: "Listen address for the Prometheus endpoint",
			},
		},

		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	cfg := config.File{
		Workers:       c.Int("workers"),
		StepMs:        c.Int("step-ms"),
		QueueCapacity: c.Int("queue-cap"),
		MetricsAddr:   c.String("metrics-addr"),
	}
	if path := c.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return cli.Exit(fmt.Sprintf("load config: %v", err), 1)
		}
		cfg = loaded
	}
	if err := cfg.Validate(); err != nil {
		return cli.Exit(err.Error(), 1)
	}

	logger := zerologger.New(
		zerolog.New(os.Stderr).With().Timestamp().Str("component", "loomd").Logger())

	reg := prom.NewRegistry()
	exporter, err := obs.NewExporter("loom", reg)
	if err != nil {
		return cli.Exit(fmt.Sprintf("register metrics: %v", err), 1)
	}

	sched, err := loom.New(loom.Config{
		Workers:       cfg.Workers,
		StepMs:        cfg.StepMs,
		QueueCapacity: cfg.QueueCapacity,
		Logger:        logger,
		Metrics:       exporter,
	})
	if err != nil {
		return cli.Exit(fmt.Sprintf("start scheduler: %v", err), 1)
	}
	defer sched.Stop()

	// Lifecycle: SIGINT/SIGTERM interrupt every worker via Stop.
	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	poller, err := obs.NewStatsPoller(reg, time.Second)
	if err != nil {
		return cli.Exit(fmt.Sprintf("register stats poller: %v", err), 1)
	}
	poller.AddPool("loomd", sched)
	poller.Start(ctx)
	defer poller.Stop()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	server := &http.Server{Addr: cfg.MetricsAddr, Handler: mux}
	go func() {
		_ = server.ListenAndServe()
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Info("loomd running",
		loom.F("workers", cfg.Workers),
		loom.F("stepMs", cfg.StepMs),
		loom.F("queueCapacity", cfg.QueueCapacity),
		loom.F("metricsAddr", cfg.MetricsAddr))

	<-ctx.Done()
	return nil
}
