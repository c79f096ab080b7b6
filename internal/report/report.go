// Package report assembles and persists the aggregation artifact: the final
// event list plus a run summary covering source outcomes, dedup counts and
// classifier stats.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"saunawatch/internal/filter"
	"saunawatch/internal/model"
	"saunawatch/internal/source"
)

// DateRange is the day window the run covered.
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
	Days  int    `json:"days"`
}

// SourcesSummary rolls up per-source outcomes. Disabled sources count
// towards neither successful nor failed.
type SourcesSummary struct {
	Total      int             `json:"total"`
	Successful int             `json:"successful"`
	Failed     int             `json:"failed"`
	Results    []source.Result `json:"results"`
}

// EventsSummary covers the dedup (and optional filter) funnel. The filtered
// fields are present only when the classifier ran.
type EventsSummary struct {
	TotalRaw          int            `json:"total_raw"`
	TotalDeduplicated int            `json:"total_deduplicated"`
	DuplicatesRemoved int            `json:"duplicates_removed"`
	ByVenue           map[string]int `json:"by_venue"`
	TotalFiltered     *int           `json:"total_filtered,omitempty"`
	FilteredOut       *int           `json:"filtered_out,omitempty"`
}

// Summary is the metadata half of the report artifact.
type Summary struct {
	RunID       string         `json:"run_id"`
	ScrapedAt   string         `json:"scraped_at"`
	DateRange   DateRange      `json:"date_range"`
	Sources     SourcesSummary `json:"sources"`
	Events      EventsSummary  `json:"events"`
	FilterStats *filter.Stats  `json:"filter_stats,omitempty"`
	Errors      []string       `json:"errors"`
}

// Report is the full aggregation artifact. It is produced on every run,
// including runs where some or all sources failed.
type Report struct {
	Summary Summary       `json:"summary"`
	Events  []model.Event `json:"events"`
}

// Build assembles a report from run outputs. rawCount is the event total
// before dedup; events is the final (deduplicated, optionally filtered)
// list. filterStats is nil when the classifier did not run.
func Build(runID, scrapedAt string, window DateRange, results []source.Result, rawCount int, events []model.Event, filterStats *filter.Stats, errs []string) *Report {
	srcSummary := SourcesSummary{Total: len(results), Results: results}
	for _, r := range results {
		switch r.Status {
		case source.StatusOK:
			srcSummary.Successful++
		case source.StatusFailed:
			srcSummary.Failed++
		}
	}

	byVenue := make(map[string]int)
	for _, e := range events {
		byVenue[e.Venue]++
	}

	evSummary := EventsSummary{
		TotalRaw: rawCount,
		ByVenue:  byVenue,
	}
	if filterStats != nil {
		evSummary.TotalDeduplicated = filterStats.TotalInput
		evSummary.DuplicatesRemoved = rawCount - filterStats.TotalInput
		total := len(events)
		out := filterStats.ExcludedCount
		evSummary.TotalFiltered = &total
		evSummary.FilteredOut = &out
	} else {
		evSummary.TotalDeduplicated = len(events)
		evSummary.DuplicatesRemoved = rawCount - len(events)
	}

	if errs == nil {
		errs = []string{}
	}

	return &Report{
		Summary: Summary{
			RunID:       runID,
			ScrapedAt:   scrapedAt,
			DateRange:   window,
			Sources:     srcSummary,
			Events:      evSummary,
			FilterStats: filterStats,
			Errors:      errs,
		},
		Events: events,
	}
}

// WriteJSON persists the report atomically at path.
func (r *Report) WriteJSON(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".report-*.json")
	if err != nil {
		return fmt.Errorf("create temp report: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close report: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename report: %w", err)
	}
	return nil
}

// Text renders the human-readable run summary printed after each run.
func (r *Report) Text() string {
	var b strings.Builder
	s := r.Summary

	fmt.Fprintf(&b, "Run %s at %s\n", s.RunID, s.ScrapedAt)
	fmt.Fprintf(&b, "Window: %s to %s (%d days)\n", s.DateRange.Start, s.DateRange.End, s.DateRange.Days)
	fmt.Fprintf(&b, "Sources: %d ok, %d failed, %d total\n", s.Sources.Successful, s.Sources.Failed, s.Sources.Total)
	for _, res := range s.Sources.Results {
		if res.Status == source.StatusFailed {
			fmt.Fprintf(&b, "  FAILED %s: %s\n", res.Source, res.Error)
		}
	}

	fmt.Fprintf(&b, "Events: %d raw, %d after dedup (%d duplicates removed)\n",
		s.Events.TotalRaw, s.Events.TotalDeduplicated, s.Events.DuplicatesRemoved)
	if s.Events.TotalFiltered != nil && s.Events.FilteredOut != nil {
		fmt.Fprintf(&b, "Filtered: %d kept, %d excluded\n", *s.Events.TotalFiltered, *s.Events.FilteredOut)
	}

	venues := make([]string, 0, len(s.Events.ByVenue))
	for v := range s.Events.ByVenue {
		venues = append(venues, v)
	}
	sort.Strings(venues)
	for _, v := range venues {
		fmt.Fprintf(&b, "  %-30s %d\n", v, s.Events.ByVenue[v])
	}

	if len(s.Errors) > 0 {
		fmt.Fprintf(&b, "Errors (%d):\n", len(s.Errors))
		for _, e := range s.Errors {
			fmt.Fprintf(&b, "  - %s\n", e)
		}
	}
	return b.String()
}
