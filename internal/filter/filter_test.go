package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"saunawatch/internal/config"
	"saunawatch/internal/model"
)

func testRules(t *testing.T) *Rules {
	t.Helper()
	r, err := NewRules(config.FilterConfig{
		AlwaysIncludeVenues: []string{"Sauna Social Club"},
		OverridePatterns:    []string{`ritual`, `aufguss`, `full\s*moon`},
		ExcludePatterns:     []string{`member.?s?.?slot`, `free\s*flow\s*\d+`, `peak\s*\d+h\s*sauna`},
	})
	require.NoError(t, err)
	return r
}

func ev(venue, name string) model.Event {
	return model.Event{Venue: venue, EventName: name, Source: "s", ScrapedAt: "t"}
}

func TestPartitionTotality(t *testing.T) {
	r := testRules(t)
	in := []model.Event{
		ev("Community Sauna", "Peak 1h Sauna"),
		ev("Arc Community", "Free Flow 70"),
		ev("Arc Community", "Aufguss Night"),
		ev("Rebase Recovery", "Something New"),
	}

	res := r.Apply(in)
	assert.Equal(t, len(in), len(res.Included)+len(res.Excluded))
	assert.Equal(t, len(in), res.Stats.TotalInput)
	assert.Equal(t, len(res.Included), res.Stats.IncludedCount)
	assert.Equal(t, len(res.Excluded), res.Stats.ExcludedCount)
}

func TestVenueAllowlistBeatsExcludePattern(t *testing.T) {
	r := testRules(t)

	// Name matches an exclude pattern, but the venue is allowlisted.
	assert.True(t, r.Include(ev("Sauna Social Club", "Members Slot")))
}

func TestOverrideBeatsExclude(t *testing.T) {
	r := testRules(t)

	// Matches exclude pattern member.?slot and override pattern ritual.
	assert.True(t, r.Include(ev("Community Sauna", "Member Slot — Birthday Ritual")))
}

func TestExcludePatternCaseInsensitive(t *testing.T) {
	r := testRules(t)

	assert.False(t, r.Include(ev("Arc Community", "FREE FLOW 70")))
	assert.False(t, r.Include(ev("Community Sauna", "peak 2h sauna")))
}

func TestDefaultIncluded(t *testing.T) {
	r := testRules(t)

	assert.True(t, r.Include(ev("Somewhere", "One-Off Charity Evening")))
}

func TestStatsByVenue(t *testing.T) {
	r := testRules(t)
	in := []model.Event{
		ev("Arc Community", "Free Flow 70"),
		ev("Arc Community", "Free Flow 50"),
		ev("Community Sauna", "Peak 1h Sauna"),
		ev("Arc Community", "Full Moon Flow"),
	}

	res := r.Apply(in)
	assert.Equal(t, map[string]int{"Arc Community": 2, "Community Sauna": 1}, res.Stats.ExcludedByVenue)
	assert.InDelta(t, 75.0, res.Stats.ExclusionRate, 0.001)
}

func TestEmptyInput(t *testing.T) {
	r := testRules(t)
	res := r.Apply(nil)

	assert.Empty(t, res.Included)
	assert.Empty(t, res.Excluded)
	assert.Zero(t, res.Stats.ExclusionRate)
}

func TestBadPatternIsConfigDefect(t *testing.T) {
	_, err := NewRules(config.FilterConfig{ExcludePatterns: []string{`([`}})
	require.Error(t, err)

	_, err = NewRules(config.FilterConfig{OverridePatterns: []string{`(?P<`}})
	require.Error(t, err)
}

func TestDefaultRulesCompile(t *testing.T) {
	r, err := NewRules(config.DefaultFilter())
	require.NoError(t, err)

	// A couple of spot checks against the shipped rule lists.
	assert.False(t, r.Include(ev("Rebase Recovery", "Contrast Immersion")))
	assert.False(t, r.Include(ev("Community Sauna", "NHS Free Sauna")))
	assert.True(t, r.Include(ev("Rebase Recovery", "Winter Solstice Ceremony")))
	assert.True(t, r.Include(ev("SweSauna", "Off-Peak 1h Sauna"))) // allowlisted venue
	// Exact-match exclude leaves the named specials alone.
	assert.False(t, r.Include(ev("WellNest London", "Breathwork, Saunas & Ice Baths")))
	assert.True(t, r.Include(ev("WellNest London", "Breathwork, Saunas & Ice Baths — Rewind & Revive")))
}
