package normalize

import (
	"strconv"
	"strings"

	"saunawatch/internal/model"
)

// momenceSchedule adapts the shared Momence host schedule for Sauna & Plunge.
//
// The host also lists "The Studio" fitness classes; only sessions at the
// "Sauna & Plunge" location are kept. This filter is local to this adapter.
func momenceSchedule(raw []byte, scrapedAt string) ([]model.Event, error) {
	list, err := items(raw, "sessions", "payload", "data")
	if err != nil {
		return nil, err
	}

	events := make([]model.Event, 0, len(list))
	for _, item := range list {
		m := asMap(item)
		if m == nil {
			continue
		}

		location := pickStr(m, "location", "locationName")
		if !strings.EqualFold(location, "Sauna & Plunge") {
			continue
		}

		start := pickStr(m, "startsAt", "startDate", "start_at")
		spots := pickInt(m, "spotsAvailable", "availableSpots")

		var availability string
		if spots != nil {
			availability = strconv.Itoa(*spots) + " spots available"
		}

		name := pickStr(m, "sessionName", "name", "title")
		if name == "" {
			name = "Unknown Session"
		}

		events = append(events, model.Event{
			Venue:          "Sauna & Plunge",
			EventName:      name,
			StartDatetime:  start,
			EndDatetime:    pickStr(m, "endsAt", "endDate", "end_at"),
			Date:           dateOf(start),
			Location:       location,
			Price:          momencePrice(m),
			Availability:   availability,
			Capacity:       pickInt(m, "capacity", "maxCapacity"),
			SpotsAvailable: spots,
			BookingURL:     pickStr(m, "link", "bookingUrl", "url"),
			Instructor:     pickStr(m, "teacher", "instructor", "instructorName"),
			Source:         "momence_schedule",
			ScrapedAt:      scrapedAt,
			Raw:            item,
		})
	}
	return events, nil
}

// andsoulMomence adapts the And Soul Momence host schedule.
//
// The host mixes yoga and breathwork rooms (Heart, Mind, Soul, Body) with the
// sauna; only sessions at the "Sauna" location are kept.
func andsoulMomence(raw []byte, scrapedAt string) ([]model.Event, error) {
	list, err := items(raw, "sessions", "payload", "data")
	if err != nil {
		return nil, err
	}

	events := make([]model.Event, 0, len(list))
	for _, item := range list {
		m := asMap(item)
		if m == nil {
			continue
		}

		location := pickStr(m, "location")
		if !strings.EqualFold(location, "Sauna") {
			continue
		}

		start := pickStr(m, "startsAt")

		var price string
		if v, ok := pickNum(m, "fixedTicketPrice"); ok {
			currency := pickStr(m, "currency")
			if currency == "" {
				currency = "£"
			}
			price = currency + formatAmount(v)
		}

		// Spots are derived from capacity minus tickets sold.
		capacity := pickInt(m, "capacity")
		sold := pickInt(m, "ticketsSold")
		var spots *int
		var availability string
		if capacity != nil && sold != nil {
			n := *capacity - *sold
			spots = &n
			availability = strconv.Itoa(n) + "/" + strconv.Itoa(*capacity) + " spots available"
		}

		name := pickStr(m, "name")
		if name == "" {
			name = "Unknown Session"
		}

		events = append(events, model.Event{
			Venue:          "And Soul",
			EventName:      name,
			StartDatetime:  start,
			EndDatetime:    pickStr(m, "endsAt"),
			Date:           dateOf(start),
			Location:       location,
			Price:          price,
			Availability:   availability,
			Capacity:       capacity,
			SpotsAvailable: spots,
			BookingURL:     pickStr(m, "link"),
			Instructor:     pickStr(m, "teacher"),
			Source:         "andsoul_momence",
			ScrapedAt:      scrapedAt,
			Raw:            item,
		})
	}
	return events, nil
}

// urbanHeatMomence adapts the Urban Heat Wellness feed, which arrives already
// flattened into snake_case session objects.
func urbanHeatMomence(raw []byte, scrapedAt string) ([]model.Event, error) {
	list, err := items(raw, "sessions", "events")
	if err != nil {
		return nil, err
	}

	events := make([]model.Event, 0, len(list))
	for _, item := range list {
		m := asMap(item)
		if m == nil {
			continue
		}

		capacity := pickInt(m, "capacity")
		spots := pickInt(m, "spots_available")
		var availability string
		if spots != nil && capacity != nil {
			availability = strconv.Itoa(*spots) + "/" + strconv.Itoa(*capacity) + " spots available"
		}

		var price string
		if v, ok := pickNum(m, "price"); ok {
			price = "£" + formatAmount(v)
		}

		location := pickStr(m, "location")
		if location == "" {
			location = "London"
		}
		name := pickStr(m, "session_name")
		if name == "" {
			name = "Unknown Session"
		}

		events = append(events, model.Event{
			Venue:          "Urban Heat Wellness",
			EventName:      name,
			StartDatetime:  pickStr(m, "start_datetime"),
			EndDatetime:    pickStr(m, "end_datetime"),
			Date:           pickStr(m, "date"),
			Location:       location,
			Price:          price,
			Availability:   availability,
			Capacity:       capacity,
			SpotsAvailable: spots,
			BookingURL:     pickStr(m, "booking_url"),
			Instructor:     pickStr(m, "teacher"),
			Source:         "urban_heat_momence",
			ScrapedAt:      scrapedAt,
			Raw:            item,
		})
	}
	return events, nil
}

// momencePrice formats the session price from whichever of the Momence price
// fields is populated.
func momencePrice(m map[string]any) string {
	if v, ok := pickNum(m, "fixedTicketPrice"); ok && v != 0 {
		return "£" + formatAmount(v)
	}
	if v, ok := pickNum(m, "price"); ok && v != 0 {
		return "£" + formatAmount(v)
	}
	if s := pickStr(m, "price", "pricing"); s != "" {
		return s
	}
	return ""
}
