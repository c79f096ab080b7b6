package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"saunawatch/internal/config"
	"saunawatch/internal/normalize"
	"saunawatch/internal/source"
)

type fakeFetcher struct {
	name    string
	payload []byte
	err     error
}

func (f *fakeFetcher) Name() string { return f.name }

func (f *fakeFetcher) Fetch(context.Context, source.Window) ([]byte, error) {
	return f.payload, f.err
}

// The community feed lists the same 10:00 session twice, the second copy
// carrying more fields; dedup must keep the richer one.
var (
	communityPayload = []byte(`{"sessions": [
		{
			"location_name": "Community Sauna Hackney Wick",
			"session_name": "Off-Peak 1h Sauna",
			"date": "2026-02-02",
			"start_time": "10:00"
		},
		{
			"location_name": "Community Sauna Hackney Wick",
			"session_name": "Off-Peak 1h Sauna",
			"date": "2026-02-02",
			"start_time": "10:00",
			"end_time": "11:00",
			"address": "Queen's Yard, Hackney Wick",
			"price_text": "£10",
			"availability": "Available"
		},
		{
			"location_name": "Community Sauna Hackney Wick",
			"session_name": "Aufguss Ritual",
			"date": "2026-02-02",
			"start_time": "18:00",
			"end_time": "19:00"
		}
	]}`)

	wellnestPayload = []byte(`[
		{
			"title": "Rewind & Revive",
			"venue_name": "WellNest Studio",
			"start_datetime": "2026-02-03T19:00:00Z",
			"date": "2026-02-03",
			"url": "https://www.eventbrite.co.uk/e/rewind-revive"
		}
	]`)
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{
		Timezone:  "UTC",
		DaysAhead: 7,
		OutputDir: dir,
		RawDir:    filepath.Join(dir, "raw"),
		Workers:   2,
		Sources: []config.SourceConfig{
			{Name: "community_sauna_legitfit", Kind: "httpjson", Enabled: true, Timeout: time.Second, OutputFile: "community.json"},
			{Name: "wellnest_eventbrite", Kind: "httpjson", Enabled: true, Timeout: time.Second, OutputFile: "wellnest.json"},
			{Name: "swesauna", Kind: "icalfeed", Enabled: true, Timeout: time.Second, OutputFile: "swesauna.json"},
		},
		Filter: config.DefaultFilter(),
	}
	return cfg
}

func fakeFetchers(t *testing.T) func(config.SourceConfig) (source.Fetcher, error) {
	t.Helper()
	return func(sc config.SourceConfig) (source.Fetcher, error) {
		switch sc.Name {
		case "community_sauna_legitfit":
			return &fakeFetcher{name: sc.Name, payload: communityPayload}, nil
		case "wellnest_eventbrite":
			return &fakeFetcher{name: sc.Name, payload: wellnestPayload}, nil
		case "swesauna":
			return &fakeFetcher{name: sc.Name, err: errors.New("feed unreachable")}, nil
		default:
			return nil, errors.New("unexpected source " + sc.Name)
		}
	}
}

func TestRunEndToEnd(t *testing.T) {
	cfg := testConfig(t)
	outPath := filepath.Join(cfg.OutputDir, "combined.json")

	rep, err := Run(context.Background(), cfg, Options{
		ApplyFilter: false,
		OutPath:     outPath,
		Now:         time.Date(2026, 2, 2, 8, 0, 0, 0, time.UTC),
		NewFetcher:  fakeFetchers(t),
	})
	require.NoError(t, err)

	assert.Equal(t, 3, rep.Summary.Sources.Total)
	assert.Equal(t, 2, rep.Summary.Sources.Successful)
	assert.Equal(t, 1, rep.Summary.Sources.Failed)
	require.Len(t, rep.Summary.Errors, 1)
	assert.Contains(t, rep.Summary.Errors[0], "swesauna")
	assert.Contains(t, rep.Summary.Errors[0], "feed unreachable")

	// 4 raw events, one duplicate pair collapses to 3.
	assert.Equal(t, 4, rep.Summary.Events.TotalRaw)
	assert.Equal(t, 3, rep.Summary.Events.TotalDeduplicated)
	assert.Equal(t, 1, rep.Summary.Events.DuplicatesRemoved)

	// The richer copy of the duplicated session survives.
	var foundDup bool
	for _, ev := range rep.Events {
		if ev.EventName == "Off-Peak 1h Sauna" {
			foundDup = true
			assert.Equal(t, "£10", ev.Price)
			assert.Equal(t, "Available", ev.Availability)
		}
	}
	assert.True(t, foundDup)

	assert.Equal(t, "2026-02-02", rep.Summary.DateRange.Start)
	assert.Equal(t, "2026-02-08", rep.Summary.DateRange.End)

	_, err = os.Stat(outPath)
	assert.NoError(t, err, "report artifact written even with a failed source")
}

func TestRunWithFilter(t *testing.T) {
	cfg := testConfig(t)

	rep, err := Run(context.Background(), cfg, Options{
		ApplyFilter: true,
		OutPath:     filepath.Join(cfg.OutputDir, "combined.json"),
		Now:         time.Date(2026, 2, 2, 8, 0, 0, 0, time.UTC),
		NewFetcher:  fakeFetchers(t),
	})
	require.NoError(t, err)

	require.NotNil(t, rep.Summary.FilterStats)
	require.NotNil(t, rep.Summary.Events.TotalFiltered)
	assert.Equal(t, 3, rep.Summary.FilterStats.TotalInput)

	// Off-peak sessions are excluded by default rules; the aufguss ritual
	// is kept by an override pattern.
	names := make([]string, 0, len(rep.Events))
	for _, ev := range rep.Events {
		names = append(names, ev.EventName)
	}
	assert.NotContains(t, names, "Off-Peak 1h Sauna")
	assert.Contains(t, names, "Aufguss Ritual")
}

func TestRunSkipSources(t *testing.T) {
	cfg := testConfig(t)

	rep, err := Run(context.Background(), cfg, Options{
		Skip:       []string{"swesauna"},
		OutPath:    filepath.Join(cfg.OutputDir, "combined.json"),
		Now:        time.Date(2026, 2, 2, 8, 0, 0, 0, time.UTC),
		NewFetcher: fakeFetchers(t),
	})
	require.NoError(t, err)

	assert.Equal(t, 2, rep.Summary.Sources.Total)
	assert.Equal(t, 0, rep.Summary.Sources.Failed)
	assert.Empty(t, rep.Summary.Errors)
}

func TestRunRejectsUnknownSkip(t *testing.T) {
	cfg := testConfig(t)
	_, err := Run(context.Background(), cfg, Options{Skip: []string{"nope"}, NewFetcher: fakeFetchers(t)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown source "nope"`)
}

func TestRunRejectsUnknownAdapter(t *testing.T) {
	cfg := testConfig(t)
	cfg.Sources = append(cfg.Sources, config.SourceConfig{
		Name: "mystery_source", Kind: "httpjson", Enabled: true, OutputFile: "mystery.json",
	})

	_, err := Run(context.Background(), cfg, Options{NewFetcher: fakeFetchers(t)})
	require.Error(t, err)
	var cfgErr *normalize.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "mystery_source", cfgErr.Source)
}
