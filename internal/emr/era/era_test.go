package era

import (
	"testing"

	"github.com/ehr/survivalgen/internal/emr/calendar"
	"github.com/ehr/survivalgen/internal/emr/event"
	"github.com/ehr/survivalgen/internal/emr/record"
)

func d(y, m, day int) calendar.Date { return calendar.Date{Year: y, Month: m, Day: day} }

func ev(lo, hi calendar.Date, table, typ string) event.Event {
	return event.Event{When: calendar.Interval{Lo: lo, Hi: hi}, Type: event.Type{Table: table, Typ: record.ParseAtom(typ)}}
}

func TestAggregate_MergesWithinGap(t *testing.T) {
	e1 := ev(d(2013, 1, 1), d(2013, 1, 10), "rx", "e1")
	e2 := ev(d(2013, 1, 15), d(2013, 1, 20), "rx", "e1") // gap of 5 days
	seq := event.NewSequence(1, nil, []event.Event{e1, e2})
	types := map[event.Type]bool{e1.Type: true}

	out := Aggregate(seq, types, 28)
	if len(out.Events) != 1 {
		t.Fatalf("expected 1 merged era, got %d: %+v", len(out.Events), out.Events)
	}
	want := calendar.Interval{Lo: d(2013, 1, 1), Hi: d(2013, 1, 20)}
	if out.Events[0].When != want {
		t.Errorf("got %v, want %v", out.Events[0].When, want)
	}
}

func TestAggregate_DoesNotMergeBeyondGap(t *testing.T) {
	e1 := ev(d(2013, 1, 1), d(2013, 1, 10), "rx", "e1")
	e2 := ev(d(2013, 3, 1), d(2013, 3, 10), "rx", "e1")
	seq := event.NewSequence(1, nil, []event.Event{e1, e2})
	types := map[event.Type]bool{e1.Type: true}

	out := Aggregate(seq, types, 28)
	if len(out.Events) != 2 {
		t.Fatalf("expected 2 separate eras, got %d", len(out.Events))
	}
}

func TestAggregate_PerTypeNotUnion(t *testing.T) {
	exp := ev(d(2013, 1, 1), d(2013, 1, 5), "rx", "exp")
	out := ev(d(2013, 1, 6), d(2013, 1, 10), "dx", "out")
	seq := event.NewSequence(1, nil, []event.Event{exp, out})
	types := map[event.Type]bool{exp.Type: true, out.Type: true}

	result := Aggregate(seq, types, 28)
	if len(result.Events) != 2 {
		t.Fatalf("expected exp and out to remain distinct eras, got %d: %+v", len(result.Events), result.Events)
	}
}

func TestAggregate_PassesThroughUnmatchedTypes(t *testing.T) {
	e1 := ev(d(2013, 1, 1), d(2013, 1, 1), "bx", "other")
	seq := event.NewSequence(1, nil, []event.Event{e1})
	out := Aggregate(seq, map[event.Type]bool{}, 28)
	if len(out.Events) != 1 || out.Events[0] != e1 {
		t.Errorf("expected passthrough event unchanged, got %+v", out.Events)
	}
}
