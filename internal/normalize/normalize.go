// Package normalize maps each source's raw payload into canonical events.
//
// One pure adapter per source name. Adapters tolerate missing optional
// fields, derive what they can (dates from datetimes, availability text from
// capacity and sold counts, formatted prices) and keep the original payload
// on every record for audit. Schema churn in an upstream is contained to its
// adapter.
package normalize

import (
	"encoding/json"
	"fmt"

	"saunawatch/internal/model"
)

// ConfigError reports dispatch on a source name with no registered adapter.
// This is a programming or configuration defect, not a transient fetch
// failure, and callers must not swallow it.
type ConfigError struct {
	Source string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("no adapter registered for source %q", e.Source)
}

// adapter converts one source's raw payload into canonical events.
type adapter func(raw []byte, scrapedAt string) ([]model.Event, error)

var adapters = map[string]adapter{
	"arc_marianatek":           arcMarianatek,
	"community_sauna_legitfit": communitySaunaLegitfit,
	"rebase_mindbody":          rebaseMindbody,
	"momence_schedule":         momenceSchedule,
	"andsoul_momence":          andsoulMomence,
	"urban_heat_momence":       urbanHeatMomence,
	"wellnest_eventbrite":      wellnestEventbrite,
	"sauna_social_club":        saunaSocialClub,
	"rooftop_saunas":           rooftopSaunas,
	"swesauna":                 sweSauna,
}

// Events dispatches raw payload bytes to the adapter registered for source.
// scrapedAt is stamped onto every produced event.
func Events(source string, raw []byte, scrapedAt string) ([]model.Event, error) {
	fn, ok := adapters[source]
	if !ok {
		return nil, &ConfigError{Source: source}
	}
	events, err := fn(raw, scrapedAt)
	if err != nil {
		return nil, fmt.Errorf("normalize %s: %w", source, err)
	}
	return events, nil
}

// Known reports whether an adapter is registered for source.
func Known(source string) bool {
	_, ok := adapters[source]
	return ok
}

// items extracts the record list from a payload that is either a bare JSON
// array or an object wrapping the array under one of the given keys.
func items(raw []byte, keys ...string) ([]json.RawMessage, error) {
	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("payload is neither array nor object: %w", err)
	}
	for _, k := range keys {
		inner, ok := envelope[k]
		if !ok {
			continue
		}
		if err := json.Unmarshal(inner, &list); err != nil {
			return nil, fmt.Errorf("field %q is not an array: %w", k, err)
		}
		return list, nil
	}
	return nil, nil
}
