package normalize

import (
	"saunawatch/internal/model"
)

// arcMarianatek adapts the Arc Community class list from the Marianatek API.
// Payload: array of class objects, sometimes with the upstream API object
// nested under "raw".
func arcMarianatek(raw []byte, scrapedAt string) ([]model.Event, error) {
	list, err := items(raw, "results", "classes")
	if err != nil {
		return nil, err
	}

	events := make([]model.Event, 0, len(list))
	for _, item := range list {
		m := asMap(item)
		if m == nil {
			continue
		}
		inner := subMap(m, "raw")
		if inner == nil {
			inner = m
		}

		// The nested raw object carries a full date; start_at alone is
		// sometimes time-only.
		start := firstNonEmpty(pickStr(inner, "booking_start_datetime"), pickStr(m, "start_at"))
		end := firstNonEmpty(pickStr(m, "end_at"), pickStr(inner, "end_at"))

		name := pickStr(m, "name")
		if name == "" {
			name = "Unknown Event"
		}

		events = append(events, model.Event{
			Venue:          "Arc Community",
			EventName:      name,
			StartDatetime:  start,
			EndDatetime:    end,
			Date:           dateOf(start),
			Location:       "Hackney Wick, London",
			Capacity:       pickInt(m, "capacity"),
			SpotsAvailable: pickIntFallback(m, inner, "spots_available", "available_spot_count"),
			BookingURL:     pickStr(m, "booking_url"),
			Instructor:     pickStr(m, "instructor_name"),
			Source:         "arc_marianatek",
			SourceURL:      pickStr(m, "source_url"),
			ScrapedAt:      scrapedAt,
			Raw:            item,
		})
	}
	return events, nil
}

// pickIntFallback reads primaryKey from the item and falls back to
// fallbackKey on the nested raw object.
func pickIntFallback(m, inner map[string]any, primaryKey, fallbackKey string) *int {
	if v := pickInt(m, primaryKey); v != nil {
		return v
	}
	return pickInt(inner, fallbackKey)
}
