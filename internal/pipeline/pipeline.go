// Package pipeline runs one aggregation pass end to end: fetch every source,
// normalize the raw artifacts, deduplicate, optionally classify, and write
// the report artifact.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"saunawatch/internal/config"
	"saunawatch/internal/dedup"
	"saunawatch/internal/filter"
	appLog "saunawatch/internal/log"
	"saunawatch/internal/model"
	"saunawatch/internal/normalize"
	"saunawatch/internal/report"
	"saunawatch/internal/source"
)

// Options are per-run overrides on top of the config file.
type Options struct {
	// Days overrides the config window when positive.
	Days int

	// Skip lists source names to leave out of this run.
	Skip []string

	// Sequential forces one-at-a-time fetching.
	Sequential bool

	// Workers overrides the fetch concurrency when positive.
	Workers int

	// ApplyFilter runs the classifier on the deduplicated list.
	ApplyFilter bool

	// OutPath overrides the report location. Empty means a timestamped
	// file under the config output directory.
	OutPath string

	// Now stamps the run; zero means time.Now. Tests pin this.
	Now time.Time

	// NewFetcher overrides fetcher construction. Tests substitute fakes;
	// nil uses the real fetchers.
	NewFetcher func(config.SourceConfig) (source.Fetcher, error)
}

// Run executes one aggregation pass. It returns an error only for setup
// problems (unknown configured source, bad filter pattern, unwritable
// report); individual source failures are annotated in the report instead.
func Run(ctx context.Context, cfg *config.Config, opts Options) (*report.Report, error) {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	loc := time.UTC
	if cfg.Timezone != "" {
		if l, err := time.LoadLocation(cfg.Timezone); err == nil {
			loc = l
		} else {
			appLog.Warn("unknown timezone, using UTC", "timezone", cfg.Timezone)
		}
	}
	now = now.In(loc)

	days := opts.Days
	if days <= 0 {
		days = cfg.DaysAhead
	}
	if days <= 0 {
		days = 7
	}
	win := source.Window{
		Start: time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc),
		Days:  days,
	}

	sources, err := selectSources(cfg.Sources, opts.Skip)
	if err != nil {
		return nil, err
	}

	// Unknown adapter names are a configuration problem; fail before any
	// network work happens.
	for _, sc := range sources {
		if sc.Enabled && !normalize.Known(sc.Name) {
			return nil, &normalize.ConfigError{Source: sc.Name}
		}
	}

	var rules *filter.Rules
	if opts.ApplyFilter {
		rules, err = filter.NewRules(cfg.Filter)
		if err != nil {
			return nil, fmt.Errorf("filter rules: %w", err)
		}
	}

	runID := uuid.NewString()
	scrapedAt := now.Format(time.RFC3339)
	appLog.Info("run started", "run_id", runID, "sources", len(sources), "days", days)

	workers := cfg.Workers
	if opts.Workers > 0 {
		workers = opts.Workers
	}
	runner := &source.Runner{
		RawDir:     cfg.RawDir,
		Workers:    workers,
		Sequential: opts.Sequential || cfg.Sequential,
		NewFetcher: opts.NewFetcher,
	}
	results := runner.Run(ctx, sources, win)

	var (
		allEvents []model.Event
		runErrors []string
	)
	for i := range results {
		res := &results[i]
		if res.Status == source.StatusFailed {
			runErrors = append(runErrors, fmt.Sprintf("%s: %s", res.Source, res.Error))
			continue
		}
		if res.Status != source.StatusOK {
			continue
		}

		raw, err := os.ReadFile(filepath.Join(cfg.RawDir, res.OutputFile))
		if err != nil {
			res.Status = source.StatusFailed
			res.Error = err.Error()
			runErrors = append(runErrors, fmt.Sprintf("%s: %s", res.Source, res.Error))
			continue
		}

		events, err := normalize.Events(res.Source, raw, scrapedAt)
		if err != nil {
			var cfgErr *normalize.ConfigError
			if errors.As(err, &cfgErr) {
				return nil, err
			}
			res.Status = source.StatusFailed
			res.Error = err.Error()
			runErrors = append(runErrors, fmt.Sprintf("%s: %s", res.Source, res.Error))
			continue
		}

		res.EventCount = len(events)
		allEvents = append(allEvents, events...)
	}

	rawCount := len(allEvents)
	deduped := dedup.Process(allEvents)

	final := deduped
	var filterStats *filter.Stats
	if rules != nil {
		fres := rules.Apply(deduped)
		final = fres.Included
		stats := fres.Stats
		filterStats = &stats
	}

	rep := report.Build(runID, scrapedAt, report.DateRange{
		Start: win.Start.Format("2006-01-02"),
		End:   win.End().Format("2006-01-02"),
		Days:  days,
	}, results, rawCount, final, filterStats, runErrors)

	outPath := opts.OutPath
	if outPath == "" {
		outPath = filepath.Join(cfg.OutputDir, now.Format("20060102_150405")+"_combined.json")
	}
	if err := rep.WriteJSON(outPath); err != nil {
		return nil, err
	}

	appLog.Info("run complete", "run_id", runID,
		"sources_ok", rep.Summary.Sources.Successful,
		"sources_failed", rep.Summary.Sources.Failed,
		"events", len(final),
		"report", outPath)
	return rep, nil
}

// selectSources drops skipped sources from the run entirely. A skip name
// that matches nothing is a config mistake worth failing on.
func selectSources(sources []config.SourceConfig, skip []string) ([]config.SourceConfig, error) {
	if len(skip) == 0 {
		return sources, nil
	}

	skipSet := make(map[string]bool, len(skip))
	for _, name := range skip {
		skipSet[name] = false
	}
	out := make([]config.SourceConfig, 0, len(sources))
	for _, sc := range sources {
		if _, ok := skipSet[sc.Name]; ok {
			skipSet[sc.Name] = true
			continue
		}
		out = append(out, sc)
	}
	for name, matched := range skipSet {
		if !matched {
			return nil, fmt.Errorf("skip: unknown source %q", name)
		}
	}
	return out, nil
}
