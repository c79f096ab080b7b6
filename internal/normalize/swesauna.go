package normalize

import (
	"regexp"
	"time"

	"saunawatch/internal/model"
)

var (
	// "Sunday 25 January 2026" style date lines, also found inside
	// free-text descriptions.
	sweDateRe = regexp.MustCompile(`((?:Monday|Tuesday|Wednesday|Thursday|Friday|Saturday|Sunday)\s+\d{1,2}\s+(?:January|February|March|April|May|June|July|August|September|October|November|December)\s+\d{4})`)
	// "19:00 23:00" style start/end time pairs.
	sweTimeRe = regexp.MustCompile(`(\d{1,2}:\d{2})\s+(\d{1,2}:\d{2})`)
)

// sweSauna adapts the SweSauna calendar feed. Entries from the iCal feed
// carry proper start/end timestamps; older listing entries only describe
// their timing in prose, which is recovered with the regexes above.
func sweSauna(raw []byte, scrapedAt string) ([]model.Event, error) {
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

		start := pickStr(m, "start")
		end := pickStr(m, "end")
		date := dateOf(start)

		if start == "" {
			date, start, end = sweTimingFromText(
				pickStr(m, "date_line"),
				pickStr(m, "time_line"),
				pickStr(m, "description"),
			)
		}

		name := pickStr(m, "title", "summary")
		if name == "" {
			name = "Unknown Event"
		}
		location := pickStr(m, "location")
		if location == "" {
			location = "Royal Victoria Dock, London"
		}

		events = append(events, model.Event{
			Venue:         "SweSauna",
			EventName:     name,
			StartDatetime: start,
			EndDatetime:   end,
			Date:          date,
			Location:      location,
			BookingURL:    pickStr(m, "book_url", "url"),
			Source:        "swesauna",
			SourceURL:     pickStr(m, "url"),
			ScrapedAt:     scrapedAt,
			Raw:           item,
		})
	}
	return events, nil
}

// sweTimingFromText recovers (date, start, end) from the listing's prose
// fields. Returns empty strings for whatever cannot be recovered.
func sweTimingFromText(dateLine, timeLine, description string) (date, start, end string) {
	date = parseSweDate(dateLine)
	if date == "" && description != "" {
		if m := sweDateRe.FindString(description); m != "" {
			date = parseSweDate(m)
		}
	}
	if date == "" {
		return "", "", ""
	}

	times := sweTimeRe.FindStringSubmatch(timeLine)
	if times == nil && description != "" {
		times = sweTimeRe.FindStringSubmatch(description)
	}
	if times != nil {
		start = date + "T" + times[1] + ":00"
		end = date + "T" + times[2] + ":00"
	}
	return date, start, end
}

// parseSweDate turns "Sunday 25 January 2026" (weekday optional) into
// YYYY-MM-DD.
func parseSweDate(line string) string {
	if line == "" {
		return ""
	}
	for _, layout := range []string{"Monday 2 January 2006", "Mon 2 January 2006", "2 January 2006"} {
		if t, err := time.Parse(layout, line); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return ""
}
