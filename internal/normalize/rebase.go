package normalize

import (
	"regexp"
	"time"

	"saunawatch/internal/model"
)

// Mindbody renders start times inside free text like
// "7:00 AM – 7:45 AM GMT View details Hide details".
var mindbodyStartRe = regexp.MustCompile(`(\d{1,2}:\d{2}\s*[AP]M)`)

// rebaseMindbody adapts the Rebase Recovery schedule scraped from the
// Mindbody widget. Payload: object with an "instances" list.
func rebaseMindbody(raw []byte, scrapedAt string) ([]model.Event, error) {
	list, err := items(raw, "instances")
	if err != nil {
		return nil, err
	}

	events := make([]model.Event, 0, len(list))
	for _, item := range list {
		m := asMap(item)
		if m == nil {
			continue
		}

		date := pickStr(m, "source_date")
		start := parseMindbodyStart(date, pickStr(m, "start"))

		name := pickStr(m, "title")
		if name == "" {
			name = "Unknown Class"
		}
		location := pickStr(m, "location")
		if location == "" {
			location = "London"
		}

		events = append(events, model.Event{
			Venue:         "Rebase Recovery",
			EventName:     name,
			StartDatetime: start,
			EndDatetime:   pickStr(m, "end"),
			Date:          date,
			Location:      location,
			BookingURL:    pickStr(m, "signup_url"),
			Instructor:    pickStr(m, "instructor"),
			Source:        "rebase_mindbody",
			SourceURL:     pickStr(m, "source_url"),
			ScrapedAt:     scrapedAt,
			Raw:           item,
		})
	}
	return events, nil
}

// parseMindbodyStart combines a YYYY-MM-DD date with the first 12-hour clock
// time found in the widget's start text. Unparseable input yields "".
func parseMindbodyStart(date, startText string) string {
	if date == "" || startText == "" {
		return ""
	}
	match := mindbodyStartRe.FindString(startText)
	if match == "" {
		return ""
	}
	for _, layout := range []string{"2006-01-02 3:04 PM", "2006-01-02 3:04PM"} {
		if t, err := time.Parse(layout, date+" "+match); err == nil {
			return t.Format("2006-01-02T15:04:05")
		}
	}
	return ""
}
