package normalize

import (
	"saunawatch/internal/model"
)

// communitySaunaLegitfit adapts the Community Sauna timetable from LegitFit.
// Payload: object with a "sessions" list; dates and times arrive as separate
// fields and are composed into datetimes here.
func communitySaunaLegitfit(raw []byte, scrapedAt string) ([]model.Event, error) {
	list, err := items(raw, "sessions")
	if err != nil {
		return nil, err
	}

	events := make([]model.Event, 0, len(list))
	for _, item := range list {
		m := asMap(item)
		if m == nil {
			continue
		}

		date := pickStr(m, "date")
		start := composeDatetime(date, pickStr(m, "start_time"))
		end := composeDatetime(date, pickStr(m, "end_time"))

		venue := pickStr(m, "location_name")
		if venue == "" {
			venue = "Community Sauna"
		}
		name := pickStr(m, "session_name")
		if name == "" {
			name = "Unknown Session"
		}

		events = append(events, model.Event{
			Venue:         venue,
			EventName:     name,
			StartDatetime: start,
			EndDatetime:   end,
			Date:          date,
			Location:      pickStr(m, "address"),
			Price:         pickStr(m, "price_text"),
			Availability:  pickStr(m, "availability"),
			Source:        "community_sauna_legitfit",
			SourceURL:     pickStr(m, "source_url"),
			ScrapedAt:     scrapedAt,
			Raw:           item,
		})
	}
	return events, nil
}

// composeDatetime joins a YYYY-MM-DD date and an HH:MM time into an ISO
// datetime, or returns "" when either half is missing.
func composeDatetime(date, hhmm string) string {
	if date == "" || hhmm == "" {
		return ""
	}
	return date + "T" + hhmm + ":00"
}
