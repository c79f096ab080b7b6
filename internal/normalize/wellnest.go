package normalize

import (
	"saunawatch/internal/model"
)

// wellnestEventbrite adapts the WellNest London event list from Eventbrite.
// Payload: array of already-flattened event objects.
func wellnestEventbrite(raw []byte, scrapedAt string) ([]model.Event, error) {
	list, err := items(raw, "events")
	if err != nil {
		return nil, err
	}

	events := make([]model.Event, 0, len(list))
	for _, item := range list {
		m := asMap(item)
		if m == nil {
			continue
		}

		name := pickStr(m, "title")
		if name == "" {
			name = "Unknown Event"
		}
		location := pickStr(m, "location", "venue_name")
		if location == "" {
			location = "London"
		}
		url := pickStr(m, "url")

		events = append(events, model.Event{
			Venue:         "WellNest London",
			EventName:     name,
			StartDatetime: pickStr(m, "start_datetime"),
			EndDatetime:   pickStr(m, "end_datetime"),
			Date:          pickStr(m, "date"),
			Location:      location,
			Price:         pickStr(m, "price"),
			Capacity:      pickInt(m, "capacity"),
			BookingURL:    url,
			Source:        "wellnest_eventbrite",
			SourceURL:     url,
			ScrapedAt:     scrapedAt,
			Raw:           item,
		})
	}
	return events, nil
}
