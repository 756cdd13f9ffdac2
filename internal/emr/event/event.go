// Package event implements the event and sequence model: events carry an
// interval, a (table, type) key, and a value; a fact is an event with no
// interval; an EventSequence groups one patient's facts and time-ordered
// events.
package event

import (
	"sort"

	"github.com/ehr/survivalgen/internal/emr/calendar"
	"github.com/ehr/survivalgen/internal/emr/record"
)

// Type is an event's (table, typ) key. record.Scalar is comparable (no
// slice/map fields), so Type is a valid map key.
type Type struct {
	Table string
	Typ   record.Scalar
}

// Event is a single (interval, type, value) record-derived observation.
type Event struct {
	When  calendar.Interval
	Type  Type
	Value record.Scalar
	JSON  record.Value
}

// Fact is a time-independent per-patient attribute value.
type Fact struct {
	Value record.Scalar
	JSON  record.Value
}

// FactFromRecord builds a Fact from a fact-shaped record (both Lo and Hi
// absent).
func FactFromRecord(r *record.Record) (Type, Fact) {
	return Type{Table: r.Table, Typ: r.Type}, Fact{Value: r.Val, JSON: r.JSON}
}

// EventFromRecord builds an Event from an event-shaped record. An absent
// Hi is treated as Hi == Lo, closing the interval as spec.md requires.
func EventFromRecord(r *record.Record) Event {
	lo := calendar.Date{}
	if r.Lo != nil {
		lo = *r.Lo
	}
	hi := lo
	if r.Hi != nil {
		hi = *r.Hi
	}
	return Event{
		When:  calendar.Interval{Lo: lo, Hi: hi},
		Type:  Type{Table: r.Table, Typ: r.Type},
		Value: r.Val,
		JSON:  r.JSON,
	}
}

// Sequence is one patient's facts and time-ordered events.
type Sequence struct {
	ID     int
	Facts  map[Type]Fact
	Events []Event
}

// NewSequence builds a Sequence, sorting events by (When.Lo, When.Hi) as
// the data model requires. events is copied before sorting; the facts map
// is stored as given, not copied.
func NewSequence(id int, facts map[Type]Fact, events []Event) *Sequence {
	sorted := make([]Event, len(events))
	copy(sorted, events)
	sortEvents(sorted)
	if facts == nil {
		facts = map[Type]Fact{}
	}
	return &Sequence{ID: id, Facts: facts, Events: sorted}
}

func sortEvents(events []Event) {
	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i].When, events[j].When
		if !a.Lo.Equal(b.Lo) {
			return a.Lo.Before(b.Lo)
		}
		return a.Hi.Before(b.Hi)
	})
}

// Copy returns a new Sequence with the same id and facts but the given
// events (sorted and re-established, matching spec.md's "fresh sequences"
// invariant for era aggregation and study-period clipping).
func (s *Sequence) Copy(events []Event) *Sequence {
	return NewSequence(s.ID, s.Facts, events)
}

// Fact looks up a fact by type; ok is false if absent.
func (s *Sequence) Fact(t Type) (Fact, bool) {
	f, ok := s.Facts[t]
	return f, ok
}

// Len returns the number of events (not facts) in the sequence.
func (s *Sequence) Len() int { return len(s.Events) }

// Span returns the interval from the first event's Lo to the maximum Hi
// across all events. The second return is false for an empty sequence.
func (s *Sequence) Span() (calendar.Interval, bool) {
	if len(s.Events) == 0 {
		return calendar.Interval{}, false
	}
	lo := s.Events[0].When.Lo
	hi := s.Events[0].When.Hi
	for _, e := range s.Events[1:] {
		hi = calendar.Max(hi, e.When.Hi)
	}
	return calendar.Interval{Lo: lo, Hi: hi}, true
}

// HasType reports whether any event of the sequence carries type t.
func (s *Sequence) HasType(t Type) bool {
	for _, e := range s.Events {
		if e.Type == t {
			return true
		}
	}
	return false
}

// CountType returns the number of events of type t.
func (s *Sequence) CountType(t Type) int {
	n := 0
	for _, e := range s.Events {
		if e.Type == t {
			n++
		}
	}
	return n
}

// EventsOverlapping returns the events intersecting itvl, in sequence
// order.
func (s *Sequence) EventsOverlapping(itvl calendar.Interval) []Event {
	var out []Event
	for _, e := range s.Events {
		if e.When.Intersects(itvl) {
			out = append(out, e)
		}
	}
	return out
}

// Subsequence returns a new Sequence over exactly the given events,
// keeping this sequence's id and facts.
func (s *Sequence) Subsequence(events []Event) *Sequence {
	return s.Copy(events)
}
