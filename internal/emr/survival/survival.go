// Package survival turns a sequence's exposure/outcome transitions into
// constant-state survival examples and truncates a run of examples at the
// first outcome, grounded on
// original_source/src.py/survival_data.py:396-484
// (examples_from_transitions, examples_to_survival_examples).
package survival

import (
	"iter"

	"github.com/ehr/survivalgen/internal/emr/calendar"
	"github.com/ehr/survivalgen/internal/emr/event"
	"github.com/ehr/survivalgen/internal/emr/record"
	"github.com/ehr/survivalgen/internal/emr/transition"
)

// FeatureVectorFunc computes a row's covariates from the subsequence of
// events overlapping that row's interval.
type FeatureVectorFunc func(*event.Sequence) []record.Scalar

// Example is one output row: a maximal interval of constant
// (exposed, outcome) state.
type Example struct {
	ID            int
	Dates         calendar.Interval
	LoDays        int
	HiDays        int
	LenDays       int
	Exposed       bool
	Outcome       bool
	FeatureVector []record.Scalar
}

// Generate runs the transition state machine of spec.md §4.7 over seq,
// yielding one Example per maximal interval of constant
// (exposureType, outcomeType) state. An empty sequence yields nothing.
func Generate(seq *event.Sequence, exposureType, outcomeType event.Type, fv FeatureVectorFunc) iter.Seq[Example] {
	return func(yield func(Example) bool) {
		if len(seq.Events) == 0 {
			return
		}

		esLo, ok := seq.Span()
		if !ok {
			return
		}
		refLo := esLo.Lo
		esHi := esLo.Hi

		state := map[event.Type]bool{exposureType: false, outcomeType: false}
		before := refLo

		build := func(lo, hi calendar.Date) Example {
			itvl := calendar.Interval{Lo: lo, Hi: hi}
			var vector []record.Scalar
			if fv != nil {
				subseq := seq.Subsequence(seq.EventsOverlapping(itvl))
				vector = fv(subseq)
			}
			return Example{
				ID:            seq.ID,
				Dates:         itvl,
				LoDays:        lo.Sub(refLo),
				HiDays:        hi.Sub(refLo),
				LenDays:       hi.Sub(lo),
				Exposed:       state[exposureType],
				Outcome:       state[outcomeType],
				FeatureVector: vector,
			}
		}

		for tx := range transition.Iterate(seq, exposureType, outcomeType) {
			if tx.At.After(before) {
				if !yield(build(before, tx.At)) {
					return
				}
			}

			for _, e := range tx.Stops {
				state[e.Type] = false
			}
			if len(tx.Points) > 0 {
				for _, e := range tx.Points {
					state[e.Type] = true
				}
				if !yield(build(tx.At, tx.At)) {
					return
				}
				for _, e := range tx.Points {
					state[e.Type] = false
				}
			}
			for _, e := range tx.Starts {
				state[e.Type] = true
			}
			before = tx.At
		}

		if esHi.After(before) {
			if !yield(build(before, esHi)) {
				return
			}
		}
	}
}

// TruncateToFirstOutcome consumes examples and returns the prefix up to
// and including the first outcome, with that example's Outcome flag set
// to true and the otherwise-outcome-bearing instant discarded, per
// spec.md's truncation rule: (a) if the very first example already has
// Outcome true, it is emitted alone; (b) otherwise, the example preceding
// the first Outcome==true example is emitted last, with Outcome forced
// true, and the outcome example itself is dropped. If no example ever has
// Outcome true, every example is returned unchanged.
func TruncateToFirstOutcome(examples iter.Seq[Example]) []Example {
	var out []Example
	var prev *Example
	havePrev := false

	for curr := range examples {
		if curr.Outcome {
			if !havePrev {
				out = append(out, curr)
			} else {
				prev.Outcome = true
				out = append(out, *prev)
			}
			return out
		}
		if havePrev {
			out = append(out, *prev)
		}
		p := curr
		prev = &p
		havePrev = true
	}
	if havePrev {
		out = append(out, *prev)
	}
	return out
}
