package normalize

import (
	"encoding/json"

	"saunawatch/internal/model"
)

// saunaSocialClub adapts the Sauna Social Club events page. The page rarely
// publishes precise times, so these are mostly date-only records with the
// date inferred by the fetcher.
func saunaSocialClub(raw []byte, scrapedAt string) ([]model.Event, error) {
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

		events = append(events, model.Event{
			Venue:      "Sauna Social Club",
			EventName:  name,
			Date:       pickStr(m, "inferred_date", "date"),
			Location:   "London",
			BookingURL: pickStr(m, "external_booking_url", "booking_url"),
			Source:     "sauna_social_club",
			SourceURL:  pickStr(m, "source_url"),
			ScrapedAt:  scrapedAt,
			Raw:        item,
		})
	}
	return events, nil
}

// rooftopSaunas adapts the Rooftop Saunas payload. The fetcher sniffs the
// site's own booking endpoint, so the envelope varies; extraction is
// best-effort over the shapes seen so far.
func rooftopSaunas(raw []byte, scrapedAt string) ([]model.Event, error) {
	var envelope struct {
		URL  string          `json:"url"`
		JSON json.RawMessage `json:"json"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, err
	}
	if len(envelope.JSON) == 0 {
		return nil, nil
	}

	list, err := items(envelope.JSON, "sessions", "data")
	if err != nil {
		return nil, err
	}

	events := make([]model.Event, 0, len(list))
	for _, item := range list {
		m := asMap(item)
		if m == nil {
			continue
		}

		name := pickStr(m, "name", "title")
		if name == "" {
			name = "Unknown Event"
		}
		location := pickStr(m, "location")
		if location == "" {
			location = "London"
		}

		events = append(events, model.Event{
			Venue:          "Rooftop Saunas",
			EventName:      name,
			StartDatetime:  pickStr(m, "start", "startTime"),
			EndDatetime:    pickStr(m, "end", "endTime"),
			Date:           pickStr(m, "date"),
			Location:       location,
			Price:          pickStr(m, "price"),
			Availability:   pickStr(m, "availability"),
			Capacity:       pickInt(m, "capacity"),
			SpotsAvailable: pickInt(m, "spotsAvailable"),
			BookingURL:     firstNonEmpty(pickStr(m, "bookingUrl"), envelope.URL),
			Source:         "rooftop_saunas",
			ScrapedAt:      scrapedAt,
			Raw:            item,
		})
	}
	return events, nil
}
