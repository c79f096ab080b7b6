package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/robfig/cron/v3"

	"saunawatch/internal/config"
	appLog "saunawatch/internal/log"
	"saunawatch/internal/pipeline"
	"saunawatch/internal/report"
	"saunawatch/internal/web"
)

type flagConfig struct {
	configPath string
	days       int
	out        string
	skip       string
	sequential bool
	workers    int
	filter     bool
	once       bool
	listen     string
	verbose    bool
}

func main() {
	flags := parseFlags()

	if flags.verbose {
		appLog.SetLevel(appLog.LevelDebug)
	}
	appLog.Info("saunawatch starting", "version", "0.1.0")

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}
	if flags.listen != "" {
		conf.Listen = flags.listen
	}

	appLog.Info("effective config",
		"listen", conf.Listen,
		"timezone", conf.Timezone,
		"days_ahead", conf.DaysAhead,
		"output_dir", conf.OutputDir,
		"refresh", conf.RefreshCron,
		"workers", conf.Workers,
		"sources", len(conf.Sources),
		"once", flags.once,
	)

	opts := pipeline.Options{
		Days:        flags.days,
		Sequential:  flags.sequential,
		Workers:     flags.workers,
		ApplyFilter: flags.filter || conf.ApplyFilter,
		OutPath:     flags.out,
	}
	if flags.skip != "" {
		for _, name := range strings.Split(flags.skip, ",") {
			if name = strings.TrimSpace(name); name != "" {
				opts.Skip = append(opts.Skip, name)
			}
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	runOnce := func(ctx context.Context) (*report.Report, error) {
		return pipeline.Run(ctx, conf, opts)
	}

	if flags.once || conf.RefreshCron == "" {
		rep, err := runOnce(ctx)
		if err != nil {
			appLog.Error("run failed", err)
			os.Exit(1)
		}
		fmt.Print(rep.Text())
		if rep.Summary.Sources.Failed > 0 {
			os.Exit(2)
		}
		return
	}

	// Scheduled mode: run on the configured cron, serve the status API,
	// and keep going until a signal arrives.
	server := web.NewServer(conf, runOnce)

	scheduled := func() {
		rep, err := runOnce(ctx)
		if err != nil {
			appLog.Error("scheduled run failed", err)
			return
		}
		server.SetLatest(rep)
		fmt.Print(rep.Text())
	}

	c := cron.New()
	if _, err := c.AddFunc(conf.RefreshCron, scheduled); err != nil {
		appLog.Error("invalid refresh cron expression", err, "refresh", conf.RefreshCron)
		os.Exit(1)
	}
	c.Start()
	defer c.Stop()

	// One run up front so the API has data before the first tick.
	scheduled()

	if conf.Listen != "" {
		if err := server.ListenAndServe(ctx); err != nil {
			appLog.Error("status API failed", err)
			os.Exit(1)
		}
		return
	}
	<-ctx.Done()
	appLog.Info("saunawatch exiting")
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "saunawatch.yaml", "Path to config file")
	flag.IntVar(&cfg.days, "days", 0, "Scrape window in days (overrides config if > 0)")
	flag.StringVar(&cfg.out, "out", "", "Report output path (default: timestamped file in output dir)")
	flag.StringVar(&cfg.skip, "skip", "", "Comma-separated source names to skip")
	flag.BoolVar(&cfg.sequential, "sequential", false, "Fetch sources one at a time")
	flag.IntVar(&cfg.workers, "workers", 0, "Concurrent source fetches (overrides config if > 0)")
	flag.BoolVar(&cfg.filter, "filter", false, "Apply the routine-session filter to the output")
	flag.BoolVar(&cfg.once, "once", false, "Run a single aggregation pass and exit, ignoring the refresh schedule")
	flag.StringVar(&cfg.listen, "listen", "", "Status API listen address (overrides config if set)")
	flag.BoolVar(&cfg.verbose, "verbose", false, "Enable debug logging")

	flag.Parse()

	return cfg
}
