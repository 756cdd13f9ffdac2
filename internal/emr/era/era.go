// Package era coalesces time-adjacent events of the same type into eras,
// grounded on original_source/src.py/survival_data.py's era-building
// logic (events_to_eras) and spec.md's per-type aggregation resolution
// (see SPEC_FULL.md §4.5 and its Open Question resolution).
package era

import (
	"sort"

	"github.com/ehr/survivalgen/internal/emr/calendar"
	"github.com/ehr/survivalgen/internal/emr/event"
)

// Aggregate returns a fresh Sequence in which every run of events whose
// Type is in types, sorted by When.Lo, and adjacent within maxGap days
// (zero gap means the intervals must touch or overlap), is replaced by a
// single event spanning the run. Events coalesce only with other events
// of the exact same Type — exposure and outcome types passed in the same
// set never merge with each other. Events whose Type is not in types
// pass through unchanged. The input sequence is not mutated.
func Aggregate(seq *event.Sequence, types map[event.Type]bool, maxGap int) *event.Sequence {
	byType := map[event.Type][]event.Event{}
	var passthrough []event.Event

	for _, e := range seq.Events {
		if types[e.Type] {
			byType[e.Type] = append(byType[e.Type], e)
		} else {
			passthrough = append(passthrough, e)
		}
	}

	var out []event.Event
	out = append(out, passthrough...)

	for typ, evs := range byType {
		sort.SliceStable(evs, func(i, j int) bool {
			if !evs[i].When.Lo.Equal(evs[j].When.Lo) {
				return evs[i].When.Lo.Before(evs[j].When.Lo)
			}
			return evs[i].When.Hi.Before(evs[j].When.Hi)
		})
		out = append(out, coalesce(typ, evs, maxGap)...)
	}

	return seq.Copy(out)
}

// coalesce merges a single type's time-sorted events into runs, where
// consecutive events are merged if AdjacentWithinGap holds between the
// run's current span and the next event.
func coalesce(typ event.Type, evs []event.Event, maxGap int) []event.Event {
	if len(evs) == 0 {
		return nil
	}

	var merged []event.Event
	run := evs[0]

	for _, next := range evs[1:] {
		if run.When.AdjacentWithinGap(next.When, maxGap) {
			run.When = calendar.Interval{
				Lo: calendar.Min(run.When.Lo, next.When.Lo),
				Hi: calendar.Max(run.When.Hi, next.When.Hi),
			}
			continue
		}
		merged = append(merged, run)
		run = next
	}
	merged = append(merged, run)

	for i := range merged {
		merged[i].Type = typ
	}
	return merged
}
