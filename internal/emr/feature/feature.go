// Package feature provides small combinators that read facts and event
// statistics from a sequence to produce a fixed-shape covariate row,
// grounded on original_source/src.py/survival_data.py:184-226
// (mk_fact_feature, mk_has_event_feature, mk_event_count_feature,
// mk_feature_vector_function, age_at_first_event).
package feature

import (
	"github.com/ehr/survivalgen/internal/emr/calendar"
	"github.com/ehr/survivalgen/internal/emr/event"
	"github.com/ehr/survivalgen/internal/emr/record"
)

// Func computes one covariate from a sequence.
type Func func(*event.Sequence) record.Scalar

// Fact returns a Func reading the value of fact key, or the absent
// scalar when the sequence carries no such fact.
func Fact(key event.Type) Func {
	return func(seq *event.Sequence) record.Scalar {
		f, ok := seq.Fact(key)
		if !ok {
			return record.Scalar{}
		}
		return f.Value
	}
}

// HasEvent returns a Func reporting 1 or 0 for whether the sequence
// carries any event of type key.
func HasEvent(key event.Type) Func {
	return func(seq *event.Sequence) record.Scalar {
		if seq.HasType(key) {
			return record.Scalar{Kind: record.ScalarInt, I: 1}
		}
		return record.Scalar{Kind: record.ScalarInt, I: 0}
	}
}

// EventCount returns a Func counting the sequence's events of type key.
func EventCount(key event.Type) Func {
	return func(seq *event.Sequence) record.Scalar {
		return record.Scalar{Kind: record.ScalarInt, I: int64(seq.CountType(key))}
	}
}

// DOBType is the fact key date of birth is carried under, shared with
// internal/emr/studyperiod.
var DOBType = event.Type{Table: "bx", Typ: record.ParseAtom("dob")}

// AgeAtFirstEvent returns the sequence's age in years (to one decimal
// place, using the same literal 365-day year as the study-period
// clipper) at its earliest event, or the absent scalar if the sequence
// has no events or no DOB fact.
func AgeAtFirstEvent(seq *event.Sequence) record.Scalar {
	if seq.Len() == 0 {
		return record.Scalar{}
	}
	dobFact, ok := seq.Fact(DOBType)
	if !ok || dobFact.Value.Kind != record.ScalarString {
		return record.Scalar{}
	}
	dob, err := calendar.ParseDate(dobFact.Value.S)
	if err != nil {
		return record.Scalar{}
	}
	minDate := seq.Events[0].When.Lo
	days := float64(minDate.Sub(dob))
	years := roundTo(days/365, 1)
	return record.Scalar{Kind: record.ScalarFloat, F: years}
}

func roundTo(v float64, places int) float64 {
	scale := 1.0
	for i := 0; i < places; i++ {
		scale *= 10
	}
	if v < 0 {
		return -roundTo(-v, places)
	}
	return float64(int64(v*scale+0.5)) / scale
}

// Combine returns a function that applies every fn and concatenates their
// results into one feature vector.
func Combine(funcs ...Func) func(*event.Sequence) []record.Scalar {
	return func(seq *event.Sequence) []record.Scalar {
		out := make([]record.Scalar, len(funcs))
		for i, fn := range funcs {
			out[i] = fn(seq)
		}
		return out
	}
}
