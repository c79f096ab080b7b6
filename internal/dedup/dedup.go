// Package dedup collapses events that describe the same real-world session.
//
// Records are compared by their identity key (venue, minute-precision time,
// name). When two records collide, the one with more populated fields wins;
// ties keep the first-seen record. Field-level merging of complementary
// duplicates is deliberately not attempted: selection is whole-record.
package dedup

import (
	"sort"

	"saunawatch/internal/model"
)

// Deduplicate returns one event per identity key, preserving the first-seen
// position of each key in the input. Single forward pass, O(n).
func Deduplicate(events []model.Event) []model.Event {
	out := make([]model.Event, 0, len(events))
	index := make(map[model.Key]int, len(events))

	for _, ev := range events {
		key := ev.DedupKey()
		at, seen := index[key]
		if !seen {
			index[key] = len(out)
			out = append(out, ev)
			continue
		}
		// Keep whichever duplicate carries more information. A strict
		// comparison resolves ties in favor of the first-seen record.
		if ev.CompletenessScore() > out[at].CompletenessScore() {
			out[at] = ev
		}
	}

	return out
}

// SortChronological orders events ascending by effective timestamp. Events
// with unknown timing sort last; the sort is stable so equal timestamps keep
// their relative order.
func SortChronological(events []model.Event) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].EffectiveTime() < events[j].EffectiveTime()
	})
}

// Process is the full dedup stage: deduplicate then sort.
func Process(events []model.Event) []model.Event {
	out := Deduplicate(events)
	SortChronological(out)
	return out
}
