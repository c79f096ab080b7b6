package model

import (
	"encoding/json"
	"strings"
)

// timeSentinel sorts events whose timing is unknown after everything else.
const timeSentinel = "9999-99-99"

// Event is the canonical session record that every source payload is
// normalized into. Datetimes are kept as ISO 8601 strings because upstream
// schedules disagree wildly about precision and timezone; comparing and
// sorting on the string form is deliberate.
type Event struct {
	Venue     string `json:"venue"`
	EventName string `json:"event_name"`

	StartDatetime string `json:"start_datetime,omitempty"`
	EndDatetime   string `json:"end_datetime,omitempty"`
	// Date is a YYYY-MM-DD fallback for sources that only publish a day.
	Date string `json:"date,omitempty"`

	Location string `json:"location,omitempty"`

	Price          string `json:"price,omitempty"`
	Availability   string `json:"availability,omitempty"`
	Capacity       *int   `json:"capacity,omitempty"`
	SpotsAvailable *int   `json:"spots_available,omitempty"`
	BookingURL     string `json:"booking_url,omitempty"`

	Instructor string `json:"instructor,omitempty"`

	Source    string `json:"source"`
	SourceURL string `json:"source_url,omitempty"`
	ScrapedAt string `json:"scraped_at"`

	// Raw keeps the original source payload for this record, for audit.
	Raw json.RawMessage `json:"raw,omitempty"`
}

// Key identifies the real-world session an event describes. Two events with
// the same key are duplicates of each other.
type Key struct {
	Venue string
	Time  string
	Name  string
}

// DedupKey builds the identity key: lowercased/trimmed venue and name plus
// the start time truncated to minute precision (date-only when no precise
// time is known).
func (e Event) DedupKey() Key {
	t := e.StartDatetime
	if t == "" {
		t = e.Date
	}
	if len(t) > 16 {
		t = t[:16]
	}
	return Key{
		Venue: strings.ToLower(strings.TrimSpace(e.Venue)),
		Time:  strings.ToLower(t),
		Name:  strings.ToLower(strings.TrimSpace(e.EventName)),
	}
}

// CompletenessScore counts populated fields. The deduplicator keeps the
// duplicate with the higher score.
func (e Event) CompletenessScore() int {
	score := 0
	for _, s := range []string{
		e.Venue, e.EventName,
		e.StartDatetime, e.EndDatetime, e.Date,
		e.Location, e.Price, e.Availability, e.BookingURL,
		e.Instructor, e.Source, e.SourceURL, e.ScrapedAt,
	} {
		if s != "" {
			score++
		}
	}
	if e.Capacity != nil {
		score++
	}
	if e.SpotsAvailable != nil {
		score++
	}
	if len(e.Raw) > 0 {
		score++
	}
	return score
}

// EffectiveTime is the sort key for chronological ordering: the start
// datetime when known, the date otherwise, and a maximal sentinel when the
// timing is unknown so that such events land at the end.
func (e Event) EffectiveTime() string {
	if e.StartDatetime != "" {
		return e.StartDatetime
	}
	if e.Date != "" {
		return e.Date
	}
	return timeSentinel
}
