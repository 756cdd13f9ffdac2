// Package transition enumerates the instants at which a sequence's
// exposure or outcome state changes, grounded on
// original_source/src.py/survival_data.py:396-450 (examples_from_transitions)
// and the esal.EventSequence.transitions method it calls into.
package transition

import (
	"iter"
	"sort"

	"github.com/ehr/survivalgen/internal/emr/calendar"
	"github.com/ehr/survivalgen/internal/emr/event"
)

// Transition is a single instant at which at least one event of the
// watched types starts, stops, or both (a point event).
type Transition struct {
	At     calendar.Date
	Starts []event.Event
	Stops  []event.Event
	Points []event.Event
}

// Iterate enumerates, in increasing time order, every instant at which an
// event of type exposureType or outcomeType starts, stops, or occurs as a
// point (lo == hi). Events of any other type are ignored.
func Iterate(seq *event.Sequence, exposureType, outcomeType event.Type) iter.Seq[Transition] {
	return func(yield func(Transition) bool) {
		watched := func(t event.Type) bool { return t == exposureType || t == outcomeType }

		seen := map[calendar.Date]bool{}
		var order []calendar.Date
		note := func(d calendar.Date) {
			if !seen[d] {
				seen[d] = true
				order = append(order, d)
			}
		}

		for _, e := range seq.Events {
			if !watched(e.Type) {
				continue
			}
			note(e.When.Lo)
			note(e.When.Hi)
		}
		sort.Slice(order, func(i, j int) bool { return order[i].Before(order[j]) })

		for _, at := range order {
			tx := Transition{At: at}
			for _, e := range seq.Events {
				if !watched(e.Type) {
					continue
				}
				if e.When.IsPoint() {
					if e.When.Lo.Equal(at) {
						tx.Points = append(tx.Points, e)
					}
					continue
				}
				if e.When.Lo.Equal(at) {
					tx.Starts = append(tx.Starts, e)
				}
				if e.When.Hi.Equal(at) {
					tx.Stops = append(tx.Stops, e)
				}
			}
			if !yield(tx) {
				return
			}
		}
	}
}
