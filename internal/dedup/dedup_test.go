package dedup

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"saunawatch/internal/model"
)

func intPtr(n int) *int { return &n }

func sparseEvent() model.Event {
	// 5 populated fields.
	return model.Event{
		Venue:         "Venue X",
		EventName:     "Evening Session",
		StartDatetime: "2026-02-01T19:00:00Z",
		Source:        "source_a",
		ScrapedAt:     "2026-01-30T12:00:00Z",
	}
}

func richEvent() model.Event {
	// 9 populated fields, same identity key as sparseEvent.
	return model.Event{
		Venue:          "venue x",
		EventName:      "EVENING SESSION",
		StartDatetime:  "2026-02-01T19:00:30Z",
		EndDatetime:    "2026-02-01T21:00:00Z",
		Price:          "£25",
		Capacity:       intPtr(30),
		SpotsAvailable: intPtr(4),
		Source:         "source_b",
		ScrapedAt:      "2026-01-30T12:00:00Z",
	}
}

func TestKeepsMostCompleteDuplicate(t *testing.T) {
	out := Deduplicate([]model.Event{sparseEvent(), richEvent()})

	require.Len(t, out, 1)
	assert.Equal(t, "source_b", out[0].Source)
	assert.Equal(t, "£25", out[0].Price)
}

func TestKeepsMostCompleteDuplicateRegardlessOfOrder(t *testing.T) {
	out := Deduplicate([]model.Event{richEvent(), sparseEvent()})

	require.Len(t, out, 1)
	assert.Equal(t, "source_b", out[0].Source)
}

func TestTieKeepsFirstSeen(t *testing.T) {
	a := sparseEvent()
	b := sparseEvent()
	b.Source = "source_b" // same score, different record

	out := Deduplicate([]model.Event{a, b})
	require.Len(t, out, 1)
	assert.Equal(t, "source_a", out[0].Source)
}

func TestCompletenessMonotonicity(t *testing.T) {
	in := []model.Event{sparseEvent(), richEvent()}
	out := Deduplicate(in)

	require.Len(t, out, 1)
	for _, ev := range in {
		assert.GreaterOrEqual(t, out[0].CompletenessScore(), ev.CompletenessScore())
	}
}

func TestIdempotence(t *testing.T) {
	in := []model.Event{
		sparseEvent(),
		richEvent(),
		{Venue: "Other", EventName: "Banya Night", Date: "2026-02-03", Source: "s", ScrapedAt: "t"},
		{Venue: "Nodate", EventName: "Mystery", Source: "s", ScrapedAt: "t"},
	}

	once := Process(in)
	twice := Process(once)
	assert.Equal(t, once, twice)
}

func TestChronologicalOrderWithSentinel(t *testing.T) {
	events := []model.Event{
		{Venue: "c", EventName: "no timing", Source: "s", ScrapedAt: "t"},
		{Venue: "a", EventName: "late", StartDatetime: "2026-02-05T20:00:00Z", Source: "s", ScrapedAt: "t"},
		{Venue: "b", EventName: "date only", Date: "2026-02-01", Source: "s", ScrapedAt: "t"},
		{Venue: "d", EventName: "early", StartDatetime: "2026-02-01T09:00:00Z", Source: "s", ScrapedAt: "t"},
	}

	out := Process(events)
	require.Len(t, out, 4)

	for i := 1; i < len(out); i++ {
		assert.LessOrEqual(t, out[i-1].EffectiveTime(), out[i].EffectiveTime())
	}
	assert.Equal(t, "no timing", out[len(out)-1].EventName)
}

func TestDistinctKeysSurvive(t *testing.T) {
	a := sparseEvent()
	b := sparseEvent()
	b.StartDatetime = "2026-02-01T20:00:00Z" // different minute

	c := sparseEvent()
	c.EventName = "Morning Session"

	out := Deduplicate([]model.Event{a, b, c})
	assert.Len(t, out, 3)
}

func TestRawPayloadCountsTowardCompleteness(t *testing.T) {
	a := sparseEvent()
	b := sparseEvent()
	b.Raw = json.RawMessage(`{"id":42}`)

	out := Deduplicate([]model.Event{a, b})
	require.Len(t, out, 1)
	assert.NotNil(t, out[0].Raw)
}
