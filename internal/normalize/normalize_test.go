package normalize

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scrapedAt = "2026-01-19T12:00:00Z"

func TestUnknownSourceIsConfigError(t *testing.T) {
	_, err := Events("no_such_scraper", []byte(`[]`), scrapedAt)
	require.Error(t, err)

	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "no_such_scraper", cfgErr.Source)
}

func TestMalformedPayloadIsNotConfigError(t *testing.T) {
	_, err := Events("arc_marianatek", []byte(`{{{`), scrapedAt)
	require.Error(t, err)

	var cfgErr *ConfigError
	assert.False(t, errors.As(err, &cfgErr))
}

func TestKnown(t *testing.T) {
	assert.True(t, Known("swesauna"))
	assert.False(t, Known("swesauna_v2"))
}

func TestArcMarianatek(t *testing.T) {
	payload := []byte(`[
		{
			"name": "Sauna & Ice Bath",
			"start_at": "09:00",
			"end_at": "2026-01-20T10:30:00Z",
			"capacity": 40,
			"booking_url": "https://arc.marianatek.com/book/1",
			"instructor_name": "Jo Birch",
			"raw": {
				"booking_start_datetime": "2026-01-20T09:00:00Z",
				"available_spot_count": 8
			}
		},
		{"raw": {}}
	]`)

	events, err := Events("arc_marianatek", payload, scrapedAt)
	require.NoError(t, err)
	require.Len(t, events, 2)

	ev := events[0]
	assert.Equal(t, "Arc Community", ev.Venue)
	assert.Equal(t, "Sauna & Ice Bath", ev.EventName)
	// Nested raw datetime wins over the time-only start_at.
	assert.Equal(t, "2026-01-20T09:00:00Z", ev.StartDatetime)
	assert.Equal(t, "2026-01-20", ev.Date)
	assert.Equal(t, "Hackney Wick, London", ev.Location)
	require.NotNil(t, ev.Capacity)
	assert.Equal(t, 40, *ev.Capacity)
	require.NotNil(t, ev.SpotsAvailable)
	assert.Equal(t, 8, *ev.SpotsAvailable)
	assert.Equal(t, "Jo Birch", ev.Instructor)
	assert.Equal(t, scrapedAt, ev.ScrapedAt)
	assert.NotEmpty(t, ev.Raw)

	assert.Equal(t, "Unknown Event", events[1].EventName)
}

func TestCommunitySaunaLegitfit(t *testing.T) {
	payload := []byte(`{"sessions": [
		{
			"location_name": "Community Sauna Hackney Wick",
			"session_name": "Off-Peak 1h Sauna",
			"date": "2026-01-21",
			"start_time": "10:00",
			"end_time": "11:00",
			"address": "Queen's Yard, Hackney Wick",
			"price_text": "£10",
			"availability": "Available"
		},
		{"session_name": "No Timing"}
	]}`)

	events, err := Events("community_sauna_legitfit", payload, scrapedAt)
	require.NoError(t, err)
	require.Len(t, events, 2)

	assert.Equal(t, "Community Sauna Hackney Wick", events[0].Venue)
	assert.Equal(t, "2026-01-21T10:00:00", events[0].StartDatetime)
	assert.Equal(t, "2026-01-21T11:00:00", events[0].EndDatetime)
	assert.Equal(t, "£10", events[0].Price)

	assert.Equal(t, "Community Sauna", events[1].Venue)
	assert.Empty(t, events[1].StartDatetime)
}

func TestRebaseMindbodyTimeParsing(t *testing.T) {
	payload := []byte(`{"instances": [
		{
			"title": "Contrast Immersion",
			"source_date": "2026-01-22",
			"start": "7:00 AM – 7:45 AM GMT View details Hide details",
			"signup_url": "https://clients.mindbodyonline.com/rebase",
			"instructor": "Sam"
		},
		{
			"title": "Evening Class",
			"source_date": "2026-01-22",
			"start": "6:30 PM – 7:15 PM GMT"
		},
		{
			"title": "Unparseable",
			"source_date": "2026-01-22",
			"start": "sometime soon"
		}
	]}`)

	events, err := Events("rebase_mindbody", payload, scrapedAt)
	require.NoError(t, err)
	require.Len(t, events, 3)

	assert.Equal(t, "Rebase Recovery", events[0].Venue)
	assert.Equal(t, "2026-01-22T07:00:00", events[0].StartDatetime)
	assert.Equal(t, "2026-01-22T18:30:00", events[1].StartDatetime)
	assert.Empty(t, events[2].StartDatetime)
	assert.Equal(t, "2026-01-22", events[2].Date)
}

func TestMomenceScheduleLocationFilter(t *testing.T) {
	payload := []byte(`{"sessions": [
		{
			"sessionName": "Evening Sauna & Plunge",
			"location": "Sauna & Plunge",
			"startsAt": "2026-01-23T19:00:00Z",
			"endsAt": "2026-01-23T21:00:00Z",
			"fixedTicketPrice": 28.5,
			"capacity": 24,
			"spotsAvailable": 3,
			"link": "https://momence.com/s/123",
			"teacher": "Kasia"
		},
		{
			"sessionName": "Reformer Pilates",
			"location": "The Studio",
			"startsAt": "2026-01-23T18:00:00Z"
		}
	]}`)

	events, err := Events("momence_schedule", payload, scrapedAt)
	require.NoError(t, err)
	require.Len(t, events, 1, "The Studio classes must be dropped")

	ev := events[0]
	assert.Equal(t, "Sauna & Plunge", ev.Venue)
	assert.Equal(t, "£28.50", ev.Price)
	assert.Equal(t, "3 spots available", ev.Availability)
	assert.Equal(t, "2026-01-23", ev.Date)
	assert.Equal(t, "Kasia", ev.Instructor)
}

func TestAndsoulMomenceAvailabilityFromTicketsSold(t *testing.T) {
	payload := []byte(`{"sessions": [
		{
			"name": "Sauna Social",
			"location": "Sauna",
			"startsAt": "2026-01-24T17:00:00Z",
			"endsAt": "2026-01-24T18:30:00Z",
			"fixedTicketPrice": 22,
			"currency": "£",
			"capacity": 20,
			"ticketsSold": 14,
			"link": "https://momence.com/s/456",
			"teacher": "Leo"
		},
		{"name": "Vinyasa Flow", "location": "Body", "startsAt": "2026-01-24T10:00:00Z"}
	]}`)

	events, err := Events("andsoul_momence", payload, scrapedAt)
	require.NoError(t, err)
	require.Len(t, events, 1, "yoga rooms must be dropped")

	ev := events[0]
	assert.Equal(t, "And Soul", ev.Venue)
	assert.Equal(t, "£22", ev.Price)
	require.NotNil(t, ev.SpotsAvailable)
	assert.Equal(t, 6, *ev.SpotsAvailable)
	assert.Equal(t, "6/20 spots available", ev.Availability)
}

func TestUrbanHeatMomence(t *testing.T) {
	payload := []byte(`[
		{
			"session_name": "Aufguss Ritual",
			"start_datetime": "2026-01-25T11:00:00Z",
			"end_datetime": "2026-01-25T12:00:00Z",
			"date": "2026-01-25",
			"price": 30,
			"capacity": 16,
			"spots_available": 2,
			"booking_url": "https://momence.com/s/789",
			"teacher": "Mia"
		}
	]`)

	events, err := Events("urban_heat_momence", payload, scrapedAt)
	require.NoError(t, err)
	require.Len(t, events, 1)

	ev := events[0]
	assert.Equal(t, "Urban Heat Wellness", ev.Venue)
	assert.Equal(t, "£30", ev.Price)
	assert.Equal(t, "2/16 spots available", ev.Availability)
	assert.Equal(t, "London", ev.Location)
}

func TestWellnestEventbrite(t *testing.T) {
	payload := []byte(`[
		{
			"title": "Rewind & Revive",
			"start_datetime": "2026-01-26T19:00:00Z",
			"date": "2026-01-26",
			"venue_name": "WellNest Studio",
			"price": "£35",
			"capacity": 25,
			"url": "https://www.eventbrite.co.uk/e/rewind-revive"
		}
	]`)

	events, err := Events("wellnest_eventbrite", payload, scrapedAt)
	require.NoError(t, err)
	require.Len(t, events, 1)

	ev := events[0]
	assert.Equal(t, "WellNest London", ev.Venue)
	assert.Equal(t, "WellNest Studio", ev.Location)
	assert.Equal(t, ev.BookingURL, ev.SourceURL)
}

func TestSaunaSocialClubDateOnly(t *testing.T) {
	payload := []byte(`[
		{
			"title": "Sauna Rave",
			"inferred_date": "2026-01-31",
			"external_booking_url": "https://ra.co/events/12345",
			"source_url": "https://www.saunasocialclub.com/events"
		}
	]`)

	events, err := Events("sauna_social_club", payload, scrapedAt)
	require.NoError(t, err)
	require.Len(t, events, 1)

	ev := events[0]
	assert.Equal(t, "Sauna Social Club", ev.Venue)
	assert.Empty(t, ev.StartDatetime)
	assert.Equal(t, "2026-01-31", ev.Date)
	assert.Equal(t, "https://ra.co/events/12345", ev.BookingURL)
}

func TestRooftopSaunasEnvelope(t *testing.T) {
	payload := []byte(`{
		"url": "https://www.rooftopsaunas.com/book",
		"json": {"sessions": [
			{"name": "Sunset Session", "start": "2026-01-27T16:00:00Z", "capacity": 12}
		]}
	}`)

	events, err := Events("rooftop_saunas", payload, scrapedAt)
	require.NoError(t, err)
	require.Len(t, events, 1)

	ev := events[0]
	assert.Equal(t, "Rooftop Saunas", ev.Venue)
	assert.Equal(t, "Sunset Session", ev.EventName)
	// With no per-session booking URL, fall back to the sniffed page URL.
	assert.Equal(t, "https://www.rooftopsaunas.com/book", ev.BookingURL)
}

func TestRooftopSaunasEmptyEnvelope(t *testing.T) {
	events, err := Events("rooftop_saunas", []byte(`{"ranked_candidates": []}`), scrapedAt)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestSweSaunaFeedEntry(t *testing.T) {
	payload := []byte(`{"events": [
		{
			"title": "Lange Saunanacht",
			"start": "2026-01-28T18:00:00Z",
			"end": "2026-01-28T23:00:00Z",
			"url": "https://www.swesauna.co.uk/events/lange-saunanacht",
			"book_url": "https://www.swesauna.co.uk/book/lange-saunanacht"
		}
	]}`)

	events, err := Events("swesauna", payload, scrapedAt)
	require.NoError(t, err)
	require.Len(t, events, 1)

	ev := events[0]
	assert.Equal(t, "SweSauna", ev.Venue)
	assert.Equal(t, "2026-01-28", ev.Date)
	assert.Equal(t, "Royal Victoria Dock, London", ev.Location)
	assert.Equal(t, "https://www.swesauna.co.uk/book/lange-saunanacht", ev.BookingURL)
}

func TestSweSaunaProseTiming(t *testing.T) {
	payload := []byte(`{"events": [
		{
			"title": "NYE Sauna Party",
			"date_line": "Sunday 25 January 2026",
			"time_line": "18:00 20:00"
		},
		{
			"title": "Full Moon Sauna",
			"description": "Join us on Saturday 31 January 2026\nDoors 19:00 23:00\nBYO towel"
		},
		{
			"title": "No Timing At All"
		}
	]}`)

	events, err := Events("swesauna", payload, scrapedAt)
	require.NoError(t, err)
	require.Len(t, events, 3)

	assert.Equal(t, "2026-01-25", events[0].Date)
	assert.Equal(t, "2026-01-25T18:00:00", events[0].StartDatetime)
	assert.Equal(t, "2026-01-25T20:00:00", events[0].EndDatetime)

	assert.Equal(t, "2026-01-31", events[1].Date)
	assert.Equal(t, "2026-01-31T19:00:00", events[1].StartDatetime)

	assert.Empty(t, events[2].Date)
	assert.Empty(t, events[2].StartDatetime)
}
