// Package studyperiod clips a sequence's events to an age-derived window
// around a patient's date of birth, grounded on
// original_source/src.py/survival_data.py:138-170.
package studyperiod

import (
	"github.com/ehr/survivalgen/internal/emr/calendar"
	"github.com/ehr/survivalgen/internal/emr/event"
	"github.com/ehr/survivalgen/internal/emr/record"
)

// DOBType is the fact key a sequence's date of birth is carried under.
var DOBType = event.Type{Table: "bx", Typ: record.ParseAtom("dob")}

// LoBoundaryType and HiBoundaryType tag the synthetic point events
// inserted at the study period's bounds.
var (
	LoBoundaryType = event.Type{Table: "study", Typ: record.ParseAtom("lo")}
	HiBoundaryType = event.Type{Table: "study", Typ: record.ParseAtom("hi")}
)

// yearDays is the literal "a year is 365 days" rule this component uses
// for age-window arithmetic, matching survival_data.py's min_age*365 /
// max_age*365 exactly. feature.AgeAtFirstEvent uses the same literal
// divisor for its own age-in-years covariate.
const yearDays = 365

// Clip returns a fresh sequence with events outside [dob+minAge*365d,
// dob+maxAge*365d] dropped, events crossing a bound clipped to it, and
// synthetic boundary point events prepended/appended at the bounds that
// are set. found reports whether seq carried a ('bx','dob') fact; when
// false, seq is returned unchanged and the caller is responsible for
// deciding how to log that.
func Clip(seq *event.Sequence, minAgeYears, maxAgeYears *float64) (out *event.Sequence, found bool) {
	dobFact, ok := seq.Fact(DOBType)
	if !ok || dobFact.Value.Kind != record.ScalarString {
		return seq, false
	}
	dob, err := calendar.ParseDate(dobFact.Value.S)
	if err != nil {
		return seq, false
	}

	bound := calendar.Interval{Lo: calendar.MinDate, Hi: calendar.MaxDate}
	var loDate, hiDate calendar.Date
	haveLo, haveHi := false, false

	if minAgeYears != nil {
		loDate = dob.AddDays(int(*minAgeYears * yearDays))
		bound.Lo = loDate
		haveLo = true
	}
	if maxAgeYears != nil {
		hiDate = dob.AddDays(int(*maxAgeYears * yearDays))
		bound.Hi = hiDate
		haveHi = true
	}

	var events []event.Event
	for _, e := range seq.Events {
		if !e.When.Intersects(bound) {
			continue
		}
		if e.When.IsSubset(bound) {
			events = append(events, e)
			continue
		}
		clipped := e
		clipped.When = e.When.Intersection(bound)
		events = append(events, clipped)
	}

	if haveLo {
		events = append(events, event.Event{When: calendar.Point(loDate), Type: LoBoundaryType})
	}
	if haveHi {
		events = append(events, event.Event{When: calendar.Point(hiDate), Type: HiBoundaryType})
	}

	// seq.Copy re-sorts via NewSequence, re-establishing order around the
	// boundary insertion points.
	return seq.Copy(events), true
}
