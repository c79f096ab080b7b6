// Package filter partitions deduplicated events into noteworthy sessions and
// routine high-frequency ones.
//
// Rule precedence, first match wins:
//  1. venue allowlist -> included
//  2. override pattern on the event name -> included
//  3. exclude pattern on the event name -> excluded
//  4. no match -> included
//
// The allowlist and overrides outrank excludes on purpose: showing a routine
// session is cheaper than hiding a genuine one-off at a heavily-filtered
// venue.
package filter

import (
	"fmt"
	"regexp"
	"strings"

	"saunawatch/internal/config"
	"saunawatch/internal/model"
)

// Rules is a compiled, immutable rule set. Safe for concurrent use.
type Rules struct {
	venues    map[string]struct{}
	overrides []*regexp.Regexp
	excludes  []*regexp.Regexp
}

// NewRules compiles the configured rule lists. A malformed pattern is a
// configuration defect and fails compilation outright.
func NewRules(cfg config.FilterConfig) (*Rules, error) {
	r := &Rules{venues: make(map[string]struct{}, len(cfg.AlwaysIncludeVenues))}

	for _, v := range cfg.AlwaysIncludeVenues {
		r.venues[v] = struct{}{}
	}

	var err error
	if r.overrides, err = compileAll(cfg.OverridePatterns); err != nil {
		return nil, fmt.Errorf("override pattern: %w", err)
	}
	if r.excludes, err = compileAll(cfg.ExcludePatterns); err != nil {
		return nil, fmt.Errorf("exclude pattern: %w", err)
	}
	return r, nil
}

func compileAll(patterns []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", p, err)
		}
		out = append(out, re)
	}
	return out, nil
}

// Include reports whether an event passes the filter.
func (r *Rules) Include(ev model.Event) bool {
	if _, ok := r.venues[ev.Venue]; ok {
		return true
	}

	name := strings.ToLower(strings.TrimSpace(ev.EventName))
	for _, re := range r.overrides {
		if re.MatchString(name) {
			return true
		}
	}
	for _, re := range r.excludes {
		if re.MatchString(name) {
			return false
		}
	}
	return true
}

// Stats summarizes a partition for the report, so a reader can audit the
// filter without inspecting individual records.
type Stats struct {
	TotalInput      int            `json:"total_input"`
	IncludedCount   int            `json:"included_count"`
	ExcludedCount   int            `json:"excluded_count"`
	ExclusionRate   float64        `json:"exclusion_rate"`
	ExcludedByVenue map[string]int `json:"excluded_by_venue"`
}

// Result is the partition of one event list.
type Result struct {
	Included []model.Event
	Excluded []model.Event
	Stats    Stats
}

// Apply partitions events. Every input event lands in exactly one of the two
// output lists; input order is preserved within each.
func (r *Rules) Apply(events []model.Event) Result {
	res := Result{
		Included: make([]model.Event, 0, len(events)),
		Excluded: make([]model.Event, 0),
	}

	byVenue := make(map[string]int)
	for _, ev := range events {
		if r.Include(ev) {
			res.Included = append(res.Included, ev)
		} else {
			res.Excluded = append(res.Excluded, ev)
			byVenue[ev.Venue]++
		}
	}

	res.Stats = Stats{
		TotalInput:      len(events),
		IncludedCount:   len(res.Included),
		ExcludedCount:   len(res.Excluded),
		ExcludedByVenue: byVenue,
	}
	if len(events) > 0 {
		res.Stats.ExclusionRate = float64(len(res.Excluded)) / float64(len(events)) * 100
	}
	return res
}
