package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	"saunawatch/internal/config"
	appLog "saunawatch/internal/log"
)

// icalMaxOccurrences caps recurrence expansion per event so a pathological
// RRULE cannot blow up the artifact.
const icalMaxOccurrences = 500

// feedEntry is one concrete session occurrence emitted into the artifact.
// The swesauna adapter consumes this shape.
type feedEntry struct {
	UID         string `json:"uid"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Location    string `json:"location,omitempty"`
	URL         string `json:"url,omitempty"`
	Start       string `json:"start,omitempty"`
	End         string `json:"end,omitempty"`
	AllDay      bool   `json:"all_day,omitempty"`
}

// icalFeedFetcher pulls a venue's public iCal feed and expands its events
// (including RRULE recurrences, minus EXDATEs) into concrete occurrences
// within the run's day window.
type icalFeedFetcher struct {
	name   string
	url    string
	client *http.Client
}

func newICalFeed(sc config.SourceConfig) *icalFeedFetcher {
	return &icalFeedFetcher{
		name:   sc.Name,
		url:    sc.URL,
		client: newClient(),
	}
}

func (f *icalFeedFetcher) Name() string { return f.name }

func (f *icalFeedFetcher) Fetch(ctx context.Context, win Window) ([]byte, error) {
	if f.url == "" {
		return nil, fmt.Errorf("icalfeed %s: url not configured", f.name)
	}

	body, err := f.download(ctx)
	if err != nil {
		return nil, err
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("icalfeed %s: parse: %w", f.name, err)
	}

	rangeStart := win.Start.Truncate(24 * time.Hour)
	rangeEnd := win.End().Add(24 * time.Hour)

	entries := make([]feedEntry, 0)
	for _, ve := range cal.Events() {
		expanded, err := f.expandEvent(ve, rangeStart, rangeEnd)
		if err != nil {
			// A single broken VEVENT must not sink the feed.
			appLog.Warn("icalfeed event skipped", "source", f.name, "reason", err.Error())
			continue
		}
		entries = append(entries, expanded...)
	}

	appLog.Debug("icalfeed fetch complete", "source", f.name, "entries", len(entries))
	return json.Marshal(map[string]any{"events": entries})
}

func (f *icalFeedFetcher) download(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/calendar, */*")
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("icalfeed %s: unexpected status %s", f.name, resp.Status)
	}
	return io.ReadAll(resp.Body)
}

// expandEvent turns one VEVENT into zero or more feed entries inside
// [rangeStart, rangeEnd).
func (f *icalFeedFetcher) expandEvent(ve *ical.VEvent, rangeStart, rangeEnd time.Time) ([]feedEntry, error) {
	uid := propValue(ve, ical.ComponentPropertyUniqueId)
	if uid == "" {
		return nil, fmt.Errorf("missing UID")
	}

	start, err := ve.GetStartAt()
	if err != nil {
		return nil, fmt.Errorf("uid %s: no DTSTART: %w", uid, err)
	}
	end, _ := ve.GetEndAt()

	allDay := false
	if p := ve.GetProperty(ical.ComponentPropertyDtStart); p != nil {
		if !strings.Contains(p.Value, "T") {
			allDay = true
		}
		if params := p.ICalParameters; params != nil {
			if vs, ok := params["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
				allDay = true
			}
		}
	}

	base := feedEntry{
		UID:         uid,
		Title:       propValue(ve, ical.ComponentPropertySummary),
		Description: propValue(ve, ical.ComponentPropertyDescription),
		Location:    propValue(ve, ical.ComponentPropertyLocation),
		URL:         propValue(ve, ical.ComponentPropertyUrl),
		AllDay:      allDay,
	}

	rawRRule := propValue(ve, ical.ComponentPropertyRrule)
	if rawRRule == "" {
		if start.Before(rangeStart) || !start.Before(rangeEnd) {
			return nil, nil
		}
		return []feedEntry{stampEntry(base, start, end, allDay)}, nil
	}

	r, err := rrule.StrToRRule(rawRRule)
	if err != nil {
		return nil, fmt.Errorf("uid %s: bad RRULE %q: %w", uid, rawRRule, err)
	}
	r.DTStart(start)

	var set rrule.Set
	set.RRule(r)
	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			if t, err := parseICalTime(strings.TrimSpace(part)); err == nil {
				set.ExDate(t.In(start.Location()))
			}
		}
	}

	times := set.Between(rangeStart.In(start.Location()), rangeEnd.In(start.Location()), true)
	if len(times) > icalMaxOccurrences {
		times = times[:icalMaxOccurrences]
	}

	duration := end.Sub(start)
	out := make([]feedEntry, 0, len(times))
	for _, occStart := range times {
		out = append(out, stampEntry(base, occStart, occStart.Add(duration), allDay))
	}
	return out, nil
}

// stampEntry fills the timing fields of a feed entry. All-day events carry
// a date-only start so downstream treats them as date-only records.
func stampEntry(base feedEntry, start, end time.Time, allDay bool) feedEntry {
	entry := base
	if allDay {
		entry.Start = start.Format("2006-01-02")
		entry.End = ""
		return entry
	}
	entry.Start = start.UTC().Format(time.RFC3339)
	if end.After(start) {
		entry.End = end.UTC().Format(time.RFC3339)
	}
	return entry
}

func propValue(ve *ical.VEvent, prop ical.ComponentProperty) string {
	if p := ve.GetProperty(prop); p != nil {
		return strings.TrimSpace(p.Value)
	}
	return ""
}

// parseICalTime parses the basic ICS date/date-time forms used by EXDATE.
func parseICalTime(v string) (time.Time, error) {
	switch {
	case v == "":
		return time.Time{}, fmt.Errorf("empty time value")
	case strings.HasSuffix(v, "Z"):
		return time.Parse("20060102T150405Z", v)
	case strings.Contains(v, "T"):
		return time.ParseInLocation("20060102T150405", v, time.UTC)
	default:
		return time.ParseInLocation("20060102", v, time.UTC)
	}
}
